package adapter

import (
	"errors"
	"fmt"

	"github.com/Shopify/sarama"
	"github.com/ThreeDotsLabs/watermill-kafka/v2/pkg/kafka"

	"github.com/mateusmacedo/go-flights/pkg/application"
	watermillAdapter "github.com/mateusmacedo/go-flights/pkg/infrastructure/watermill/adapter"
)

type Config struct {
	Brokers       []string
	ConsumerGroup string
	ClientID      string
	// Topics são criados na inicialização, se ainda não existirem.
	Topics []string
}

func newSaramaSubscriberConfig(clientID string, initial int64) *sarama.Config {
	saramaConfig := kafka.DefaultSaramaSubscriberConfig()
	saramaConfig.Version = sarama.V2_1_0_0
	saramaConfig.Consumer.Offsets.Initial = initial
	saramaConfig.Consumer.Return.Errors = true
	saramaConfig.ClientID = clientID
	return saramaConfig
}

// NewKafkaTransport monta o transporte Kafka. O subscriber principal usa o
// consumer group configurado; o de respostas não usa grupo e começa do offset
// mais novo, para que cada instância veja só as respostas posteriores à assinatura.
func NewKafkaTransport(cfg Config, logger application.AppLogger) (*watermillAdapter.Transport, error) {
	wmLogger := watermillAdapter.NewWatermillLoggerAdapter(logger)
	marshaler := kafka.DefaultMarshaler{}

	publisherConfig := kafka.DefaultSaramaSyncPublisherConfig()
	publisherConfig.Version = sarama.V2_1_0_0
	publisherConfig.ClientID = cfg.ClientID

	publisher, err := kafka.NewPublisher(kafka.PublisherConfig{
		Brokers:               cfg.Brokers,
		Marshaler:             marshaler,
		OverwriteSaramaConfig: publisherConfig,
	}, wmLogger)
	if err != nil {
		return nil, fmt.Errorf("kafka publisher: %w", err)
	}

	topicDetails := &sarama.TopicDetail{
		NumPartitions:     1,
		ReplicationFactor: 1,
	}

	subscriber, err := kafka.NewSubscriber(kafka.SubscriberConfig{
		Brokers:                cfg.Brokers,
		Unmarshaler:            marshaler,
		ConsumerGroup:          cfg.ConsumerGroup,
		OverwriteSaramaConfig:  newSaramaSubscriberConfig(cfg.ClientID, sarama.OffsetOldest),
		InitializeTopicDetails: topicDetails,
	}, wmLogger)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("kafka subscriber: %w", err), publisher.Close())
	}

	replies, err := kafka.NewSubscriber(kafka.SubscriberConfig{
		Brokers:                cfg.Brokers,
		Unmarshaler:            marshaler,
		OverwriteSaramaConfig:  newSaramaSubscriberConfig(cfg.ClientID, sarama.OffsetNewest),
		InitializeTopicDetails: topicDetails,
	}, wmLogger)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("kafka reply subscriber: %w", err), publisher.Close(), subscriber.Close())
	}

	for _, topic := range cfg.Topics {
		if err := subscriber.SubscribeInitialize(topic); err != nil {
			return nil, errors.Join(
				fmt.Errorf("kafka topic %s: %w", topic, err),
				publisher.Close(), subscriber.Close(), replies.Close(),
			)
		}
	}

	return &watermillAdapter.Transport{
		Name:       "kafka",
		Publisher:  publisher,
		Subscriber: subscriber,
		Replies:    replies,
	}, nil
}
