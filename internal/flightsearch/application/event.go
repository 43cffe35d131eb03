package application

import (
	pkgDomain "github.com/mateusmacedo/go-flights/pkg/domain"
)

const TicketsUpsertedEventName = "TicketsUpserted"

// TicketsUpsertedData é publicado depois que um lote foi gravado.
type TicketsUpsertedData struct {
	Count int      `json:"count"`
	IDs   []string `json:"ids"`
}

type ticketsUpsertedEvent struct {
	data TicketsUpsertedData
}

func (e ticketsUpsertedEvent) EventName() string {
	return TicketsUpsertedEventName
}

func (e ticketsUpsertedEvent) Payload() TicketsUpsertedData {
	return e.data
}

func NewTicketsUpsertedEvent(data TicketsUpsertedData) pkgDomain.Event[TicketsUpsertedData] {
	return ticketsUpsertedEvent{data: data}
}
