package main

import (
	"os"

	"github.com/mateusmacedo/go-flights/internal/app"
	"github.com/mateusmacedo/go-flights/internal/config"
)

func main() {
	os.Exit(app.Main(func(cfg *config.Config) {
		cfg.Bus.Transport = "redis"
	}))
}
