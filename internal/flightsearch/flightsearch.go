package flightsearch

import (
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mateusmacedo/go-flights/internal/flightsearch/application"
	"github.com/mateusmacedo/go-flights/internal/flightsearch/domain"
	"github.com/mateusmacedo/go-flights/internal/flightsearch/infrastructure"
	pkgApp "github.com/mateusmacedo/go-flights/pkg/application"
	pkgDomain "github.com/mateusmacedo/go-flights/pkg/domain"
)

type (
	CommandBus = pkgApp.CommandBus[pkgDomain.Command[application.UpsertTicketsData], application.UpsertTicketsData]
	QueryBus   = pkgApp.QueryBus[pkgDomain.Query[application.SearchSolutionsData], application.SearchSolutionsData, application.SearchSolutionsResult]
	EventBus   = pkgApp.EventBus[pkgDomain.Event[application.TicketsUpsertedData], application.TicketsUpsertedData]
)

// FlightSearchSlice liga o repositório de passagens, os manipuladores e as rotas HTTP.
type FlightSearchSlice struct {
	httpHandler *infrastructure.TicketHTTPHandler
}

func NewFlightSearchSlice(
	commandBus CommandBus,
	queryBus QueryBus,
	eventBus EventBus,
	repository domain.TicketRepository,
	logger pkgApp.AppLogger,
	metrics application.Metrics,
	requestTimeout time.Duration,
) *FlightSearchSlice {
	commandHandler := application.NewUpsertTicketsHandler(eventBus, repository, logger, metrics)
	queryHandler := application.NewSearchSolutionsHandler(repository, logger, metrics)
	eventHandler := application.NewTicketsUpsertedEventHandler(logger, metrics)

	commandBus.RegisterHandler(application.UpsertTicketsCommandName, commandHandler)
	queryBus.RegisterHandler(application.SearchSolutionsQueryName, queryHandler)
	eventBus.RegisterHandler(application.TicketsUpsertedEventName, eventHandler)

	return &FlightSearchSlice{
		httpHandler: infrastructure.NewTicketHTTPHandler(commandBus, queryBus, logger, requestTimeout),
	}
}

func (s *FlightSearchSlice) RegisterRoutes(router chi.Router) {
	s.httpHandler.RegisterRoutes(router)
}
