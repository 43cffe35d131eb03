package domain

// Query representa uma consulta no sistema. Consultas não alteram estado.
type Query[T any] interface {
	QueryName() string
	Payload() T
}
