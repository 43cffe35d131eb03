package domain

// IDGenerator produz identificadores únicos (mensagens, correlação).
type IDGenerator[T comparable] func() T
