package domain

import (
	"context"
	"fmt"
	"math"
)

// MaxPrice é o maior preço aceito: a soma de dois trechos ainda cabe em int64.
const MaxPrice = math.MaxInt64 / 2

// Ticket é um trecho de voo. Horários em segundos epoch.
type Ticket struct {
	ID            string `json:"id" gorm:"primaryKey"`
	DepartureCode string `json:"departure_code" gorm:"not null;index:idx_tickets_departure,priority:1"`
	ArrivalCode   string `json:"arrival_code" gorm:"not null;index:idx_tickets_arrival"`
	DepartureTime int64  `json:"departure_time" gorm:"not null;index:idx_tickets_departure,priority:2"`
	ArrivalTime   int64  `json:"arrival_time" gorm:"not null"`
	Price         int64  `json:"price" gorm:"not null"`
}

func (Ticket) TableName() string {
	return "tickets"
}

// Validate confere os campos obrigatórios antes de gravar a passagem.
func (t Ticket) Validate() error {
	switch {
	case t.ID == "":
		return NewValidationError("id", "must not be empty")
	case t.DepartureCode == "":
		return NewValidationError("departure_code", fmt.Sprintf("must not be empty (ticket %s)", t.ID))
	case t.ArrivalCode == "":
		return NewValidationError("arrival_code", fmt.Sprintf("must not be empty (ticket %s)", t.ID))
	case t.ArrivalTime <= t.DepartureTime:
		return NewValidationError("arrival_time", fmt.Sprintf("must be after departure_time (ticket %s)", t.ID))
	case t.Price < 0:
		return NewValidationError("price", fmt.Sprintf("must not be negative (ticket %s)", t.ID))
	case t.Price > MaxPrice:
		return NewValidationError("price", fmt.Sprintf("must not exceed %d (ticket %s)", int64(MaxPrice), t.ID))
	}
	return nil
}

// ValidateBatch rejeita lote vazio ou com qualquer passagem inválida.
func ValidateBatch(tickets []Ticket) error {
	if len(tickets) == 0 {
		return NewValidationError("tickets", "batch must not be empty")
	}
	for _, t := range tickets {
		if err := t.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// DedupeBatch mantém a última ocorrência de cada id, na ordem da primeira aparição.
func DedupeBatch(tickets []Ticket) []Ticket {
	position := make(map[string]int, len(tickets))
	out := make([]Ticket, 0, len(tickets))
	for _, t := range tickets {
		if i, ok := position[t.ID]; ok {
			out[i] = t
			continue
		}
		position[t.ID] = len(out)
		out = append(out, t)
	}
	return out
}

// SearchCriteria seleciona itinerários candidatos para uma rota e um dia.
type SearchCriteria struct {
	DepartureCode string
	ArrivalCode   string
	Window        DateWindow
	Limit         int
}

type TicketRepository interface {
	// UpsertBatch insere ou substitui cada passagem pelo id, tudo ou nada.
	UpsertBatch(ctx context.Context, tickets []Ticket) error
	// FindDirect devolve itinerários de um trecho para a rota.
	FindDirect(ctx context.Context, criteria SearchCriteria) ([]OneLegSolution, error)
	// FindConnections devolve itinerários de dois trechos unidos no aeroporto de conexão.
	FindConnections(ctx context.Context, criteria SearchCriteria) ([]TwoLegSolution, error)
}
