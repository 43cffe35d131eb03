package infrastructure

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/mateusmacedo/go-flights/internal/flightsearch/domain"
	"github.com/mateusmacedo/go-flights/pkg/application"
)

// InMemoryTicketRepository guarda as passagens em um map e responde às buscas com um
// join em memória. O lote é aplicado sob o lock de escrita: leitores o veem inteiro ou não o veem.
type InMemoryTicketRepository struct {
	mu     sync.RWMutex
	data   map[string]domain.Ticket
	logger application.AppLogger
}

func NewInMemoryTicketRepository(logger application.AppLogger) *InMemoryTicketRepository {
	return &InMemoryTicketRepository{
		data:   make(map[string]domain.Ticket),
		logger: logger,
	}
}

func (r *InMemoryTicketRepository) UpsertBatch(ctx context.Context, tickets []domain.Ticket) error {
	if err := domain.ValidateBatch(tickets); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return domain.NewStorageError("upsert batch", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, t := range tickets {
		r.data[t.ID] = t
	}

	application.LogDebug(ctx, r.logger, "tickets upserted", map[string]interface{}{
		"count": len(tickets),
	})
	return nil
}

func (r *InMemoryTicketRepository) FindDirect(ctx context.Context, criteria domain.SearchCriteria) ([]domain.OneLegSolution, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.NewStorageError("find direct", err)
	}
	if criteria.Limit <= 0 {
		return []domain.OneLegSolution{}, nil
	}

	r.mu.RLock()
	var matches []domain.Ticket
	for _, t := range r.data {
		if t.DepartureCode == criteria.DepartureCode &&
			t.ArrivalCode == criteria.ArrivalCode &&
			criteria.Window.Contains(t.DepartureTime) {
			matches = append(matches, t)
		}
	}
	r.mu.RUnlock()

	slices.SortFunc(matches, compareTickets)
	if len(matches) > criteria.Limit {
		matches = matches[:criteria.Limit]
	}

	solutions := make([]domain.OneLegSolution, 0, len(matches))
	for _, t := range matches {
		solutions = append(solutions, domain.OneLegSolution{Ticket: t})
	}
	return solutions, nil
}

func (r *InMemoryTicketRepository) FindConnections(ctx context.Context, criteria domain.SearchCriteria) ([]domain.TwoLegSolution, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.NewStorageError("find connections", err)
	}
	if criteria.Limit <= 0 {
		return []domain.TwoLegSolution{}, nil
	}

	r.mu.RLock()
	var firsts []domain.Ticket
	// segundos trechos até o destino, indexados pelo aeroporto de partida
	seconds := make(map[string][]domain.Ticket)
	for _, t := range r.data {
		if t.DepartureCode == criteria.DepartureCode && criteria.Window.Contains(t.DepartureTime) {
			firsts = append(firsts, t)
		}
		if t.ArrivalCode == criteria.ArrivalCode {
			seconds[t.DepartureCode] = append(seconds[t.DepartureCode], t)
		}
	}
	r.mu.RUnlock()

	var solutions []domain.TwoLegSolution
	for _, first := range firsts {
		for _, second := range seconds[first.ArrivalCode] {
			if domain.Connects(first, second) {
				solutions = append(solutions, domain.TwoLegSolution{First: first, Second: second})
			}
		}
	}

	slices.SortFunc(solutions, func(a, b domain.TwoLegSolution) int {
		return domain.CompareSolutions(a.Solution(), b.Solution())
	})
	if len(solutions) > criteria.Limit {
		solutions = solutions[:criteria.Limit]
	}
	if solutions == nil {
		solutions = []domain.TwoLegSolution{}
	}
	return solutions, nil
}

// Snapshot copia o conteúdo atual; para testes e depuração.
func (r *InMemoryTicketRepository) Snapshot() map[string]domain.Ticket {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]domain.Ticket, len(r.data))
	for k, v := range r.data {
		out[k] = v
	}
	return out
}

func compareTickets(a, b domain.Ticket) int {
	return cmp.Or(
		cmp.Compare(a.Price, b.Price),
		cmp.Compare(a.DepartureTime, b.DepartureTime),
		cmp.Compare(a.ID, b.ID),
	)
}
