package application

import "errors"

type permanent interface {
	Permanent() bool
}

// IsPermanent informa se o erro não deve ser reprocessado (ex.: dados inválidos).
// Barramentos assíncronos confirmam (ack) mensagens cujo erro é permanente.
func IsPermanent(err error) bool {
	var p permanent
	return errors.As(err, &p) && p.Permanent()
}
