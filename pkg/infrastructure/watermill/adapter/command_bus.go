package adapter

import (
	"context"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/mateusmacedo/go-flights/pkg/application"
	"github.com/mateusmacedo/go-flights/pkg/domain"
	"github.com/mateusmacedo/go-flights/pkg/infrastructure"
)

// WatermillCommandBus publica comandos em um tópico com o nome do comando.
// Dispatch retorna assim que o broker aceita a mensagem; erros do manipulador
// ficam do lado de quem consome, que os registra e não reprocessa a mensagem.
type WatermillCommandBus[C domain.Command[T], T any] struct {
	ctx         context.Context
	transport   *Transport
	handlers    map[string]application.CommandHandler[C, T]
	mu          sync.RWMutex
	logger      application.AppLogger
	idGenerator domain.IDGenerator[string]
}

func NewWatermillCommandBus[C domain.Command[T], T any](ctx context.Context, transport *Transport, logger application.AppLogger) *WatermillCommandBus[C, T] {
	return &WatermillCommandBus[C, T]{
		ctx:         ctx,
		transport:   transport,
		handlers:    make(map[string]application.CommandHandler[C, T]),
		logger:      logger,
		idGenerator: infrastructure.NewUUIDGenerator(),
	}
}

func (bus *WatermillCommandBus[C, T]) RegisterHandler(commandName string, handler application.CommandHandler[C, T]) {
	bus.mu.Lock()
	bus.handlers[commandName] = handler
	bus.mu.Unlock()

	messages, err := bus.transport.Subscriber.Subscribe(bus.ctx, commandName)
	if err != nil {
		application.LogError(bus.ctx, bus.logger, "error subscribing to command", err, map[string]interface{}{
			"command_name": commandName,
			"transport":    bus.transport.Name,
		})
		return
	}

	go func() {
		for msg := range messages {
			go bus.handleMessage(commandName, msg)
		}
	}()
}

func (bus *WatermillCommandBus[C, T]) handleMessage(commandName string, msg *message.Message) {
	ctx := bus.ctx
	fields := map[string]interface{}{
		"command_name": commandName,
		"message_uuid": msg.UUID,
	}

	payload, err := application.UnmarshalPayload[T](msg.Payload)
	if err != nil {
		application.LogError(ctx, bus.logger, "error unmarshalling command payload", err, fields)
		msg.Ack() // payload ilegível nunca vai ser processado
		return
	}

	bus.mu.RLock()
	handler := bus.handlers[commandName]
	bus.mu.RUnlock()

	typedCommand, ok := interface{}(&dynamicCommand[T]{commandName: commandName, payload: payload}).(C)
	if !ok {
		application.LogError(ctx, bus.logger, "error asserting command type", nil, fields)
		msg.Ack()
		return
	}

	// sem reentrega: o erro fica registrado e a mensagem é confirmada mesmo assim
	if err := handler.Handle(ctx, typedCommand); err != nil {
		fields["permanent"] = application.IsPermanent(err)
		application.LogError(ctx, bus.logger, "error handling command", err, fields)
		msg.Ack()
		return
	}

	application.LogDebug(ctx, bus.logger, "command handled", fields)
	msg.Ack()
}

func (bus *WatermillCommandBus[C, T]) Dispatch(ctx context.Context, command C) error {
	payload, err := application.MarshalPayload(command.Payload())
	if err != nil {
		application.LogError(ctx, bus.logger, "error marshalling command payload", err, map[string]interface{}{
			"command_name": command.CommandName(),
		})
		return err
	}

	msg := message.NewMessage(bus.idGenerator(), payload)
	if err := bus.transport.Publisher.Publish(command.CommandName(), msg); err != nil {
		application.LogError(ctx, bus.logger, "error publishing command", err, map[string]interface{}{
			"command_name": command.CommandName(),
			"transport":    bus.transport.Name,
		})
		return err
	}

	application.LogDebug(ctx, bus.logger, "command dispatched", map[string]interface{}{
		"command_name": command.CommandName(),
		"message_uuid": msg.UUID,
	})
	return nil
}

type dynamicCommand[T any] struct {
	commandName string
	payload     T
}

func (c *dynamicCommand[T]) CommandName() string {
	return c.commandName
}

func (c *dynamicCommand[T]) Payload() T {
	return c.payload
}
