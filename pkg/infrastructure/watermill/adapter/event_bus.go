package adapter

import (
	"context"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/mateusmacedo/go-flights/pkg/application"
	"github.com/mateusmacedo/go-flights/pkg/domain"
	"github.com/mateusmacedo/go-flights/pkg/infrastructure"
)

type WatermillEventBus[E domain.Event[D], D any] struct {
	ctx         context.Context
	transport   *Transport
	handlers    map[string][]application.EventHandler[E, D]
	mu          sync.RWMutex
	logger      application.AppLogger
	idGenerator domain.IDGenerator[string]
}

func NewWatermillEventBus[E domain.Event[D], D any](ctx context.Context, transport *Transport, logger application.AppLogger) *WatermillEventBus[E, D] {
	return &WatermillEventBus[E, D]{
		ctx:         ctx,
		transport:   transport,
		handlers:    make(map[string][]application.EventHandler[E, D]),
		logger:      logger,
		idGenerator: infrastructure.NewUUIDGenerator(),
	}
}

// RegisterHandler assina o tópico do evento no primeiro registro; os seguintes
// apenas entram na lista de manipuladores.
func (bus *WatermillEventBus[E, D]) RegisterHandler(eventName string, handler application.EventHandler[E, D]) {
	bus.mu.Lock()
	first := len(bus.handlers[eventName]) == 0
	bus.handlers[eventName] = append(bus.handlers[eventName], handler)
	bus.mu.Unlock()

	if !first {
		return
	}

	messages, err := bus.transport.Subscriber.Subscribe(bus.ctx, eventName)
	if err != nil {
		application.LogError(bus.ctx, bus.logger, "error subscribing to event", err, map[string]interface{}{
			"event_name": eventName,
			"transport":  bus.transport.Name,
		})
		return
	}

	go func() {
		for msg := range messages {
			go bus.handleMessage(eventName, msg)
		}
	}()
}

func (bus *WatermillEventBus[E, D]) handleMessage(eventName string, msg *message.Message) {
	ctx := bus.ctx
	fields := map[string]interface{}{
		"event_name":   eventName,
		"message_uuid": msg.UUID,
	}

	payload, err := application.UnmarshalPayload[D](msg.Payload)
	if err != nil {
		application.LogError(ctx, bus.logger, "error unmarshalling event payload", err, fields)
		msg.Ack()
		return
	}

	typedEvent, ok := interface{}(&dynamicEvent[D]{eventName: eventName, payload: payload}).(E)
	if !ok {
		application.LogError(ctx, bus.logger, "error asserting event type", nil, fields)
		msg.Ack()
		return
	}

	bus.mu.RLock()
	handlers := append([]application.EventHandler[E, D](nil), bus.handlers[eventName]...)
	bus.mu.RUnlock()

	// cada manipulador roda uma vez; uma falha não impede os demais nem gera reentrega
	var failed bool
	for _, handler := range handlers {
		if err := handler.Handle(ctx, typedEvent); err != nil {
			application.LogError(ctx, bus.logger, "error handling event", err, fields)
			failed = true
		}
	}
	msg.Ack()

	if !failed {
		application.LogDebug(ctx, bus.logger, "event handled", fields)
	}
}

func (bus *WatermillEventBus[E, D]) Publish(ctx context.Context, event E) error {
	payload, err := application.MarshalPayload(event.Payload())
	if err != nil {
		application.LogError(ctx, bus.logger, "error marshalling event payload", err, map[string]interface{}{
			"event_name": event.EventName(),
		})
		return err
	}

	msg := message.NewMessage(bus.idGenerator(), payload)
	if err := bus.transport.Publisher.Publish(event.EventName(), msg); err != nil {
		application.LogError(ctx, bus.logger, "error publishing event", err, map[string]interface{}{
			"event_name": event.EventName(),
			"transport":  bus.transport.Name,
		})
		return err
	}

	application.LogDebug(ctx, bus.logger, "event published", map[string]interface{}{
		"event_name":   event.EventName(),
		"message_uuid": msg.UUID,
	})
	return nil
}

type dynamicEvent[D any] struct {
	eventName string
	payload   D
}

func (e *dynamicEvent[D]) EventName() string {
	return e.eventName
}

func (e *dynamicEvent[D]) Payload() D {
	return e.payload
}
