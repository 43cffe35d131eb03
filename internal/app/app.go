package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mateusmacedo/go-flights/internal/config"
	"github.com/mateusmacedo/go-flights/internal/flightsearch"
	"github.com/mateusmacedo/go-flights/internal/flightsearch/application"
	"github.com/mateusmacedo/go-flights/internal/flightsearch/domain"
	"github.com/mateusmacedo/go-flights/internal/flightsearch/infrastructure"
	pkgApp "github.com/mateusmacedo/go-flights/pkg/application"
	pkgDomain "github.com/mateusmacedo/go-flights/pkg/domain"
	pkgInfra "github.com/mateusmacedo/go-flights/pkg/infrastructure"
	channelsAdapter "github.com/mateusmacedo/go-flights/pkg/infrastructure/channels/adapter"
	kafkaAdapter "github.com/mateusmacedo/go-flights/pkg/infrastructure/kafka/adapter"
	redisAdapter "github.com/mateusmacedo/go-flights/pkg/infrastructure/redis/adapter"
	watermillAdapter "github.com/mateusmacedo/go-flights/pkg/infrastructure/watermill/adapter"
)

// App reúne tudo que um processo precisa para servir a API de passagens.
type App struct {
	cfg     *config.Config
	logger  pkgApp.AppLogger
	router  chi.Router
	closers []func() error
}

// New monta o repositório, os barramentos e o router. ctx limita a vida das
// assinaturas dos barramentos; cancele-o antes de chamar Close.
func New(ctx context.Context, cfg *config.Config, logger pkgApp.AppLogger) (*App, error) {
	a := &App{cfg: cfg, logger: logger}

	repository, err := a.newRepository()
	if err != nil {
		return nil, errors.Join(err, a.Close())
	}

	commandBus, queryBus, eventBus, err := a.newBuses(ctx)
	if err != nil {
		return nil, errors.Join(err, a.Close())
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	slice := flightsearch.NewFlightSearchSlice(
		commandBus,
		queryBus,
		eventBus,
		repository,
		logger,
		infrastructure.NewPrometheusMetrics(registry),
		cfg.HTTP.RequestTimeout,
	)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(requestLogger(logger))
	router.Use(middleware.Recoverer)

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	router.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	slice.RegisterRoutes(router)

	a.router = router
	return a, nil
}

func (a *App) Handler() http.Handler {
	return a.router
}

// Close libera o repositório e as conexões com o broker na ordem inversa de criação.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *App) newRepository() (domain.TicketRepository, error) {
	if a.cfg.Database.Driver == "memory" {
		return infrastructure.NewInMemoryTicketRepository(a.logger), nil
	}

	dialector, err := infrastructure.NewDialector(a.cfg.Database.Driver, a.cfg.Database.URL)
	if err != nil {
		return nil, err
	}

	repository, err := infrastructure.NewGormTicketRepository(dialector, a.logger)
	if err != nil {
		return nil, fmt.Errorf("open %s ticket store: %w", a.cfg.Database.Driver, err)
	}
	a.closers = append(a.closers, repository.Close)
	return repository, nil
}

func (a *App) newBuses(ctx context.Context) (flightsearch.CommandBus, flightsearch.QueryBus, flightsearch.EventBus, error) {
	if a.cfg.Bus.Transport == "memory" {
		return pkgInfra.NewSimpleCommandBus[pkgDomain.Command[application.UpsertTicketsData], application.UpsertTicketsData](a.logger),
			pkgInfra.NewSimpleQueryBus[pkgDomain.Query[application.SearchSolutionsData], application.SearchSolutionsData, application.SearchSolutionsResult](a.logger),
			pkgInfra.NewSimpleEventBus[pkgDomain.Event[application.TicketsUpsertedData], application.TicketsUpsertedData](a.logger),
			nil
	}

	transport, err := a.newTransport(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	a.closers = append(a.closers, transport.Close)

	return watermillAdapter.NewWatermillCommandBus[pkgDomain.Command[application.UpsertTicketsData], application.UpsertTicketsData](ctx, transport, a.logger),
		watermillAdapter.NewWatermillQueryBus[pkgDomain.Query[application.SearchSolutionsData], application.SearchSolutionsData, application.SearchSolutionsResult](ctx, transport, a.logger),
		watermillAdapter.NewWatermillEventBus[pkgDomain.Event[application.TicketsUpsertedData], application.TicketsUpsertedData](ctx, transport, a.logger),
		nil
}

func (a *App) newTransport(ctx context.Context) (*watermillAdapter.Transport, error) {
	switch a.cfg.Bus.Transport {
	case "channels":
		return channelsAdapter.NewGoChannelTransport(a.logger), nil

	case "redis":
		client, err := redisAdapter.NewRedisClient(ctx, redisAdapter.Config{
			Addr:     a.cfg.Redis.Addr,
			Password: a.cfg.Redis.Password,
			DB:       a.cfg.Redis.DB,
		})
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, client.Close)

		return redisAdapter.NewRedisStreamTransport(client, redisAdapter.StreamConfig{
			ConsumerGroup: a.cfg.Bus.ConsumerGroup,
			Consumer:      consumerName(a.cfg.Bus.ConsumerName),
		}, a.logger)

	case "kafka":
		return kafkaAdapter.NewKafkaTransport(kafkaAdapter.Config{
			Brokers:       a.cfg.Kafka.Brokers,
			ConsumerGroup: a.cfg.Kafka.ConsumerGroup,
			ClientID:      a.cfg.Kafka.ClientID,
			Topics: []string{
				application.UpsertTicketsCommandName,
				application.SearchSolutionsQueryName,
				application.SearchSolutionsQueryName + "_response",
				application.TicketsUpsertedEventName,
			},
		}, a.logger)
	}
	return nil, fmt.Errorf("unknown bus transport %q", a.cfg.Bus.Transport)
}

func consumerName(configured string) string {
	if configured != "" {
		return configured
	}
	if host, err := os.Hostname(); err == nil {
		return host
	}
	return pkgInfra.GenerateUUID()
}

// Run serve HTTP até ctx ser cancelado e então encerra dentro do timeout configurado.
func Run(ctx context.Context, cfg *config.Config, logger pkgApp.AppLogger) error {
	busCtx, cancelBus := context.WithCancel(context.Background())
	defer cancelBus()

	a, err := New(busCtx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		cancelBus()
		if err := a.Close(); err != nil {
			pkgApp.LogError(context.Background(), logger, "error releasing resources", err, nil)
		}
	}()

	server := &http.Server{
		Addr:              net.JoinHostPort("", cfg.HTTP.Port),
		Handler:           a.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info(ctx, "server starting", map[string]interface{}{
			"address":   server.Addr,
			"database":  cfg.Database.Driver,
			"transport": cfg.Bus.Transport,
		})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info(context.Background(), "shutting down server", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}

	logger.Info(context.Background(), "server stopped", nil)
	return nil
}
