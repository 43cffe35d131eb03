package main

import (
	"os"

	"github.com/mateusmacedo/go-flights/internal/app"
)

func main() {
	os.Exit(app.Main(nil))
}
