package application

import (
	"github.com/mateusmacedo/go-flights/internal/flightsearch/domain"
	pkgDomain "github.com/mateusmacedo/go-flights/pkg/domain"
)

const UpsertTicketsCommandName = "UpsertTickets"

// UpsertTicketsData é o lote de ingestão.
type UpsertTicketsData struct {
	Tickets []domain.Ticket `json:"tickets"`
}

func (d UpsertTicketsData) Validate() error {
	return domain.ValidateBatch(d.Tickets)
}

type upsertTicketsCommand struct {
	data UpsertTicketsData
}

func (c upsertTicketsCommand) CommandName() string {
	return UpsertTicketsCommandName
}

func (c upsertTicketsCommand) Payload() UpsertTicketsData {
	return c.data
}

func NewUpsertTicketsCommand(data UpsertTicketsData) pkgDomain.Command[UpsertTicketsData] {
	return upsertTicketsCommand{data: data}
}
