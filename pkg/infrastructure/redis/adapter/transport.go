package adapter

import (
	"errors"
	"fmt"

	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/redis/go-redis/v9"

	"github.com/mateusmacedo/go-flights/pkg/application"
	watermillAdapter "github.com/mateusmacedo/go-flights/pkg/infrastructure/watermill/adapter"
)

type StreamConfig struct {
	ConsumerGroup string
	Consumer      string
}

// NewRedisStreamTransport monta o transporte sobre Redis Streams. Comandos,
// consultas e eventos usam o consumer group (um consumidor por mensagem);
// as respostas usam um subscriber sem grupo, em modo fan-out.
func NewRedisStreamTransport(client redis.UniversalClient, cfg StreamConfig, logger application.AppLogger) (*watermillAdapter.Transport, error) {
	wmLogger := watermillAdapter.NewWatermillLoggerAdapter(logger)

	publisher, err := redisstream.NewPublisher(redisstream.PublisherConfig{
		Client: client,
	}, wmLogger)
	if err != nil {
		return nil, fmt.Errorf("redis stream publisher: %w", err)
	}

	subscriber, err := redisstream.NewSubscriber(redisstream.SubscriberConfig{
		Client:        client,
		ConsumerGroup: cfg.ConsumerGroup,
		Consumer:      cfg.Consumer,
	}, wmLogger)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("redis stream subscriber: %w", err), publisher.Close())
	}

	replies, err := redisstream.NewSubscriber(redisstream.SubscriberConfig{
		Client: client,
	}, wmLogger)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("redis stream reply subscriber: %w", err), publisher.Close(), subscriber.Close())
	}

	return &watermillAdapter.Transport{
		Name:       "redis",
		Publisher:  publisher,
		Subscriber: subscriber,
		Replies:    replies,
	}, nil
}
