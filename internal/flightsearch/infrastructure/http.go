package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mateusmacedo/go-flights/internal/flightsearch/application"
	"github.com/mateusmacedo/go-flights/internal/flightsearch/domain"
	pkgApp "github.com/mateusmacedo/go-flights/pkg/application"
	pkgDomain "github.com/mateusmacedo/go-flights/pkg/domain"
)

// MaxBodyBytes limita o corpo das requisições; acima disso a resposta é 413.
const MaxBodyBytes = 8 << 20

type statusResponse struct {
	Status string `json:"status"`
}

type TicketHTTPHandler struct {
	commandBus     pkgApp.CommandBus[pkgDomain.Command[application.UpsertTicketsData], application.UpsertTicketsData]
	queryBus       pkgApp.QueryBus[pkgDomain.Query[application.SearchSolutionsData], application.SearchSolutionsData, application.SearchSolutionsResult]
	logger         pkgApp.AppLogger
	requestTimeout time.Duration
}

func NewTicketHTTPHandler(
	commandBus pkgApp.CommandBus[pkgDomain.Command[application.UpsertTicketsData], application.UpsertTicketsData],
	queryBus pkgApp.QueryBus[pkgDomain.Query[application.SearchSolutionsData], application.SearchSolutionsData, application.SearchSolutionsResult],
	logger pkgApp.AppLogger,
	requestTimeout time.Duration,
) *TicketHTTPHandler {
	return &TicketHTTPHandler{
		commandBus:     commandBus,
		queryBus:       queryBus,
		logger:         logger,
		requestTimeout: requestTimeout,
	}
}

// HandleBatchInsert valida o lote aqui e também no manipulador do comando, para que
// um lote inválido receba 400 mesmo quando o barramento é assíncrono.
func (h *TicketHTTPHandler) HandleBatchInsert(w http.ResponseWriter, r *http.Request) {
	var data application.UpsertTicketsData
	if err := decodeBody(w, r, &data); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := data.Validate(); err != nil {
		h.writeError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	if err := h.commandBus.Dispatch(ctx, application.NewUpsertTicketsCommand(data)); err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, statusResponse{Status: "success"})
}

func (h *TicketHTTPHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	var data application.SearchSolutionsData
	if err := decodeBody(w, r, &data); err != nil {
		h.writeError(w, r, err)
		return
	}
	if _, err := data.Criteria(); err != nil {
		h.writeError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	result, err := h.queryBus.Dispatch(ctx, application.NewSearchSolutionsQuery(data))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if result.Solutions == nil {
		result.Solutions = []domain.Solution{}
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *TicketHTTPHandler) RegisterRoutes(router chi.Router) {
	router.Post("/batch_insert", h.HandleBatchInsert)
	router.Post("/search", h.HandleSearch)
}

func (h *TicketHTTPHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		pkgApp.LogError(r.Context(), h.logger, "request failed", err, map[string]interface{}{
			"path": r.URL.Path,
		})
	}
	writeJSON(w, status, statusResponse{Status: err.Error()})
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return err
		}
		return domain.NewValidationError("body", err.Error())
	}
	return nil
}

func statusFor(err error) int {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case domain.IsValidationError(err), pkgApp.IsPermanent(err):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
