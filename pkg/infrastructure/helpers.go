package infrastructure

import (
	"github.com/google/uuid"

	"github.com/mateusmacedo/go-flights/pkg/domain"
)

func GenerateUUID() string {
	return uuid.New().String()
}

// NewUUIDGenerator devolve o gerador de IDs padrão da aplicação.
func NewUUIDGenerator() domain.IDGenerator[string] {
	return GenerateUUID
}
