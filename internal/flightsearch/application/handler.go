package application

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/mateusmacedo/go-flights/internal/flightsearch/domain"
	pkgApp "github.com/mateusmacedo/go-flights/pkg/application"
	pkgDomain "github.com/mateusmacedo/go-flights/pkg/domain"
)

type upsertTicketsHandler struct {
	eventBus   pkgApp.EventBus[pkgDomain.Event[TicketsUpsertedData], TicketsUpsertedData]
	repository domain.TicketRepository
	logger     pkgApp.AppLogger
	metrics    Metrics
}

func (h *upsertTicketsHandler) Handle(ctx context.Context, command pkgDomain.Command[UpsertTicketsData]) error {
	if ctx.Err() != nil {
		pkgApp.LogError(ctx, h.logger, "context cancelled", ctx.Err(), nil)
		return ctx.Err()
	}

	data := command.Payload()
	if err := data.Validate(); err != nil {
		h.metrics.IngestFailed(OutcomeInvalid)
		pkgApp.LogInfo(ctx, h.logger, "rejected ticket batch", map[string]interface{}{"error": err.Error()})
		return err
	}

	if err := h.repository.UpsertBatch(ctx, data.Tickets); err != nil {
		h.metrics.IngestFailed(OutcomeError)
		pkgApp.LogError(ctx, h.logger, "failed to upsert ticket batch", err, map[string]interface{}{
			"count": len(data.Tickets),
		})
		return err
	}

	ids := make([]string, 0, len(data.Tickets))
	for _, t := range domain.DedupeBatch(data.Tickets) {
		ids = append(ids, t.ID)
	}

	// o lote já foi gravado; uma notificação perdida não vira falha
	event := NewTicketsUpsertedEvent(TicketsUpsertedData{Count: len(ids), IDs: ids})
	if err := h.eventBus.Publish(ctx, event); err != nil {
		pkgApp.LogError(ctx, h.logger, "failed to publish tickets upserted event", err, nil)
	}

	pkgApp.LogInfo(ctx, h.logger, "ticket batch upserted", map[string]interface{}{"count": len(ids)})
	return nil
}

func NewUpsertTicketsHandler(
	eventBus pkgApp.EventBus[pkgDomain.Event[TicketsUpsertedData], TicketsUpsertedData],
	repo domain.TicketRepository,
	logger pkgApp.AppLogger,
	metrics Metrics,
) pkgApp.CommandHandler[pkgDomain.Command[UpsertTicketsData], UpsertTicketsData] {
	return &upsertTicketsHandler{
		eventBus:   eventBus,
		repository: repo,
		logger:     logger,
		metrics:    metrics,
	}
}

type searchSolutionsHandler struct {
	repository domain.TicketRepository
	logger     pkgApp.AppLogger
	metrics    Metrics
}

// Handle roda as duas buscas com os mesmos critérios e combina os resultados.
// Cada busca é limitada depois de ordenar por preço, partida e ids, então o
// resultado combinado é o mesmo que seria sem limite nenhum.
func (h *searchSolutionsHandler) Handle(ctx context.Context, query pkgDomain.Query[SearchSolutionsData]) (SearchSolutionsResult, error) {
	if ctx.Err() != nil {
		pkgApp.LogError(ctx, h.logger, "context cancelled", ctx.Err(), nil)
		return SearchSolutionsResult{}, ctx.Err()
	}

	data := query.Payload()
	criteria, err := data.Criteria()
	if err != nil {
		h.metrics.SearchCompleted(OutcomeInvalid, 0)
		pkgApp.LogInfo(ctx, h.logger, "rejected search", map[string]interface{}{"error": err.Error()})
		return SearchSolutionsResult{}, err
	}

	var (
		ones []domain.OneLegSolution
		twos []domain.TwoLegSolution
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		ones, err = h.repository.FindDirect(gctx, criteria)
		return err
	})
	g.Go(func() error {
		var err error
		twos, err = h.repository.FindConnections(gctx, criteria)
		return err
	})
	if err := g.Wait(); err != nil {
		h.metrics.SearchCompleted(OutcomeError, 0)
		pkgApp.LogError(ctx, h.logger, "search failed", err, map[string]interface{}{"search": data})
		return SearchSolutionsResult{}, err
	}

	solutions := domain.MergeSolutions(ones, twos, criteria.Limit)
	h.metrics.SearchCompleted(OutcomeOK, len(solutions))

	pkgApp.LogDebug(ctx, h.logger, "search completed", map[string]interface{}{
		"search":      data,
		"direct":      len(ones),
		"connections": len(twos),
		"solutions":   len(solutions),
	})
	return SearchSolutionsResult{Solutions: solutions}, nil
}

func NewSearchSolutionsHandler(repo domain.TicketRepository, logger pkgApp.AppLogger, metrics Metrics) pkgApp.QueryHandler[pkgDomain.Query[SearchSolutionsData], SearchSolutionsData, SearchSolutionsResult] {
	return &searchSolutionsHandler{
		repository: repo,
		logger:     logger,
		metrics:    metrics,
	}
}

type ticketsUpsertedEventHandler struct {
	logger  pkgApp.AppLogger
	metrics Metrics
}

func (h *ticketsUpsertedEventHandler) Handle(ctx context.Context, event pkgDomain.Event[TicketsUpsertedData]) error {
	if ctx.Err() != nil {
		pkgApp.LogError(ctx, h.logger, "context cancelled", ctx.Err(), nil)
		return ctx.Err()
	}

	data := event.Payload()
	h.metrics.TicketsUpserted(data.Count)
	pkgApp.LogInfo(ctx, h.logger, "tickets upserted event received", map[string]interface{}{"count": data.Count})
	return nil
}

func NewTicketsUpsertedEventHandler(logger pkgApp.AppLogger, metrics Metrics) pkgApp.EventHandler[pkgDomain.Event[TicketsUpsertedData], TicketsUpsertedData] {
	return &ticketsUpsertedEventHandler{
		logger:  logger,
		metrics: metrics,
	}
}
