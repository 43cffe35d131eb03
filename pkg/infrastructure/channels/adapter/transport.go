package adapter

import (
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/mateusmacedo/go-flights/pkg/application"
	watermillAdapter "github.com/mateusmacedo/go-flights/pkg/infrastructure/watermill/adapter"
)

// NewGoChannelTransport cria um transporte em memória. O mesmo GoChannel faz
// papel de publisher e dos dois subscribers: cada assinatura recebe todas as
// mensagens do tópico, o que já atende às respostas de consultas.
func NewGoChannelTransport(logger application.AppLogger) *watermillAdapter.Transport {
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 64},
		watermillAdapter.NewWatermillLoggerAdapter(logger),
	)

	return &watermillAdapter.Transport{
		Name:       "channels",
		Publisher:  pubSub,
		Subscriber: pubSub,
		Replies:    pubSub,
	}
}
