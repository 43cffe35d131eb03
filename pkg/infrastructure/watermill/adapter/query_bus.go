package adapter

import (
	"context"
	"errors"
	"strconv"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/mateusmacedo/go-flights/pkg/application"
	"github.com/mateusmacedo/go-flights/pkg/domain"
	"github.com/mateusmacedo/go-flights/pkg/infrastructure"
)

var ErrRepliesClosed = errors.New("reply subscription closed")

// WatermillQueryBus faz request/reply sobre o broker: a consulta segue no tópico
// com o nome dela e a resposta volta em "<nome>_response", casada pelo correlation id.
type WatermillQueryBus[Q domain.Query[D], D any, R any] struct {
	ctx         context.Context
	transport   *Transport
	handlers    map[string]application.QueryHandler[Q, D, R]
	mu          sync.RWMutex
	logger      application.AppLogger
	idGenerator domain.IDGenerator[string]
}

func NewWatermillQueryBus[Q domain.Query[D], D any, R any](ctx context.Context, transport *Transport, logger application.AppLogger) *WatermillQueryBus[Q, D, R] {
	return &WatermillQueryBus[Q, D, R]{
		ctx:         ctx,
		transport:   transport,
		handlers:    make(map[string]application.QueryHandler[Q, D, R]),
		logger:      logger,
		idGenerator: infrastructure.NewUUIDGenerator(),
	}
}

func (bus *WatermillQueryBus[Q, D, R]) RegisterHandler(queryName string, handler application.QueryHandler[Q, D, R]) {
	bus.mu.Lock()
	bus.handlers[queryName] = handler
	bus.mu.Unlock()

	messages, err := bus.transport.Subscriber.Subscribe(bus.ctx, queryName)
	if err != nil {
		application.LogError(bus.ctx, bus.logger, "error subscribing to query", err, map[string]interface{}{
			"query_name": queryName,
			"transport":  bus.transport.Name,
		})
		return
	}

	go func() {
		for msg := range messages {
			go bus.handleMessage(queryName, msg)
		}
	}()
}

func (bus *WatermillQueryBus[Q, D, R]) handleMessage(queryName string, msg *message.Message) {
	ctx := bus.ctx
	correlationID := msg.Metadata.Get(correlationIDKey)
	fields := map[string]interface{}{
		"query_name":     queryName,
		"correlation_id": correlationID,
	}

	reply := message.NewMessage(bus.idGenerator(), nil)
	reply.Metadata.Set(correlationIDKey, correlationID)

	result, err := bus.handle(ctx, queryName, msg.Payload)
	if err != nil {
		application.LogError(ctx, bus.logger, "error handling query", err, fields)
		reply.Metadata.Set(errorKey, err.Error())
		reply.Metadata.Set(permanentKey, strconv.FormatBool(application.IsPermanent(err)))
	} else {
		reply.Payload, err = application.MarshalPayload(result)
		if err != nil {
			application.LogError(ctx, bus.logger, "error marshalling query result", err, fields)
			reply.Metadata.Set(errorKey, err.Error())
			reply.Metadata.Set(permanentKey, "true")
		}
	}

	if err := bus.transport.Publisher.Publish(replyTopic(queryName), reply); err != nil {
		// quem despachou esgota o próprio timeout; reprocessar a consulta não ajudaria
		application.LogError(ctx, bus.logger, "error publishing query response", err, fields)
		msg.Ack()
		return
	}

	application.LogDebug(ctx, bus.logger, "query handled", fields)
	msg.Ack()
}

func (bus *WatermillQueryBus[Q, D, R]) handle(ctx context.Context, queryName string, raw []byte) (R, error) {
	var zero R

	payload, err := application.UnmarshalPayload[D](raw)
	if err != nil {
		return zero, &RemoteError{Message: "invalid query payload: " + err.Error(), IsPermanent: true}
	}

	bus.mu.RLock()
	handler := bus.handlers[queryName]
	bus.mu.RUnlock()

	typedQuery, ok := interface{}(&dynamicQuery[D]{queryName: queryName, payload: payload}).(Q)
	if !ok {
		return zero, &RemoteError{Message: "unexpected query type for " + queryName, IsPermanent: true}
	}
	return handler.Handle(ctx, typedQuery)
}

func (bus *WatermillQueryBus[Q, D, R]) Dispatch(ctx context.Context, query Q) (R, error) {
	var zero R
	queryName := query.QueryName()

	payload, err := application.MarshalPayload(query.Payload())
	if err != nil {
		application.LogError(ctx, bus.logger, "error marshalling query payload", err, map[string]interface{}{
			"query_name": queryName,
		})
		return zero, err
	}

	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// assina antes de publicar para não perder uma resposta rápida
	replies, err := bus.transport.Replies.Subscribe(subCtx, replyTopic(queryName))
	if err != nil {
		application.LogError(ctx, bus.logger, "error subscribing to query response", err, map[string]interface{}{
			"query_name": queryName,
			"transport":  bus.transport.Name,
		})
		return zero, err
	}

	correlationID := bus.idGenerator()
	msg := message.NewMessage(bus.idGenerator(), payload)
	msg.Metadata.Set(correlationIDKey, correlationID)

	if err := bus.transport.Publisher.Publish(queryName, msg); err != nil {
		application.LogError(ctx, bus.logger, "error publishing query", err, map[string]interface{}{
			"query_name": queryName,
			"transport":  bus.transport.Name,
		})
		return zero, err
	}

	for {
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case reply, ok := <-replies:
			if !ok {
				return zero, ErrRepliesClosed
			}
			reply.Ack()
			if reply.Metadata.Get(correlationIDKey) != correlationID {
				continue
			}
			if errMsg := reply.Metadata.Get(errorKey); errMsg != "" {
				return zero, &RemoteError{
					Message:     errMsg,
					IsPermanent: reply.Metadata.Get(permanentKey) == "true",
				}
			}
			return application.UnmarshalPayload[R](reply.Payload)
		}
	}
}

type dynamicQuery[D any] struct {
	queryName string
	payload   D
}

func (q *dynamicQuery[D]) QueryName() string {
	return q.queryName
}

func (q *dynamicQuery[D]) Payload() D {
	return q.payload
}
