package adapter

import (
	"errors"

	"github.com/ThreeDotsLabs/watermill/message"
)

const (
	correlationIDKey = "correlation_id"
	errorKey         = "error"
	permanentKey     = "error_permanent"
	replySuffix      = "_response"
)

// Transport agrupa o publisher e os subscribers de um broker.
//
// Subscriber entrega cada mensagem a um único consumidor do grupo (comandos,
// consultas e eventos). Replies precisa entregar a todas as instâncias, pois a
// resposta de uma consulta volta para quem a despachou.
type Transport struct {
	Name       string
	Publisher  message.Publisher
	Subscriber message.Subscriber
	Replies    message.Subscriber
}

func (t *Transport) Close() error {
	var errs []error
	if t.Publisher != nil {
		errs = append(errs, t.Publisher.Close())
	}
	if t.Subscriber != nil && any(t.Subscriber) != any(t.Publisher) {
		errs = append(errs, t.Subscriber.Close())
	}
	if t.Replies != nil && any(t.Replies) != any(t.Subscriber) && any(t.Replies) != any(t.Publisher) {
		errs = append(errs, t.Replies.Close())
	}
	return errors.Join(errs...)
}

func replyTopic(queryName string) string {
	return queryName + replySuffix
}

// RemoteError é o erro devolvido por um manipulador de consulta em outro processo.
type RemoteError struct {
	Message     string
	IsPermanent bool
}

func (e *RemoteError) Error() string {
	return e.Message
}

func (e *RemoteError) Permanent() bool {
	return e.IsPermanent
}
