package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/riskibarqy/sportfengur-relay/external/sportfengur"
	"github.com/riskibarqy/sportfengur-relay/internal/config"
	"github.com/riskibarqy/sportfengur-relay/internal/infrastructure/repository/cache"
	"github.com/riskibarqy/sportfengur-relay/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/sportfengur-relay/internal/interfaces/httpapi"
	basecache "github.com/riskibarqy/sportfengur-relay/internal/platform/cache"
	"github.com/riskibarqy/sportfengur-relay/internal/platform/id"
	"github.com/riskibarqy/sportfengur-relay/internal/platform/logging"
	"github.com/riskibarqy/sportfengur-relay/internal/platform/metrics"
	"github.com/riskibarqy/sportfengur-relay/internal/platform/resilience"
	"github.com/riskibarqy/sportfengur-relay/internal/usecase"
)

// App owns every long-lived component of the relay. Nothing is held in
// package state, so tests can build as many instances as they need.
type App struct {
	Server  *http.Server
	Vendor  *sportfengur.Client
	Metrics *metrics.Recorder

	coordinator *usecase.RefreshCoordinator
	webhooks    *usecase.WebhookService
	logger      *logging.Logger
}

func NewVendorClient(cfg config.Config, logger *logging.Logger, recorder *metrics.Recorder) *sportfengur.Client {
	return sportfengur.NewClient(sportfengur.ClientConfig{
		HTTPClient:  &http.Client{Timeout: cfg.SportFengurTimeout},
		BaseURL:     cfg.SportFengurBaseURL,
		Locale:      cfg.SportFengurLocale,
		Username:    cfg.SportFengurUsername,
		Password:    cfg.SportFengurPassword,
		Timeout:     cfg.SportFengurTimeout,
		TokenTTL:    cfg.SportFengurTokenTTL,
		MinInterval: cfg.SportFengurMinInterval,
		Retry: resilience.RetryPolicy{
			MaxRetries: cfg.SportFengurMaxRetries,
			Base:       cfg.SportFengurRetryBase,
		},
		FallbackCacheSize: cfg.SportFengurFallbackCacheSize,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.SportFengurCircuitEnabled,
			FailureThreshold: cfg.SportFengurCircuitFailureCount,
			OpenTimeout:      cfg.SportFengurCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.SportFengurCircuitHalfOpenMax,
		},
		Logger:  logger,
		Metrics: recorder,
	})
}

func New(cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.HTTPAddr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	recorder := metrics.New()
	vendor := NewVendorClient(cfg, logger, recorder)

	startingLists := cache.NewStartingListRepository(vendor, basecache.NewStore(0), logger, recorder)
	state := memory.NewCompetitionStateRepository()

	pipeline := usecase.NewRefreshPipeline(
		usecase.NewLeaderboardFetcher(startingLists, vendor),
		state,
		logger,
	)
	coordinator := usecase.NewRefreshCoordinator(
		usecase.RefreshSchedulerConfig{
			Debounce: cfg.RefreshDebounce,
			Timeout:  cfg.RefreshTimeout,
		},
		pipeline.Run,
		logger,
		recorder,
	)

	webhooks, err := usecase.NewWebhookService(
		usecase.WebhookServiceConfig{
			DedupeTTL:     cfg.DedupeTTL,
			EventIDFilter: cfg.EventIDFilter,
			Workers:       cfg.WebhookWorkers,
			HistoryLimit:  cfg.WebhookHistoryLimit,
		},
		usecase.NewCompetitionResolver(vendor, logger),
		startingLists,
		coordinator,
		id.NewUUIDGenerator(),
		logger,
		recorder,
	)
	if err != nil {
		_ = coordinator.Close(context.Background())
		return nil, err
	}

	handler := httpapi.NewHandler(
		usecase.NewLeaderboardQueryService(state),
		webhooks,
		usecase.NewEventCatalogService(vendor, vendor),
		startingLists,
		coordinator,
		recorder,
		logger,
	)
	router := httpapi.NewRouter(handler, httpapi.RouterConfig{
		Logger:                logger,
		Metrics:               recorder,
		MetricsEnabled:        cfg.MetricsEnabled,
		CORSAllowedOrigins:    cfg.CORSAllowedOrigins,
		WebhookSecret:         cfg.WebhookSecret,
		WebhookSecretRequired: cfg.WebhookSecretRequired,
		ControlToken:          cfg.ControlToken,
	})

	return &App{
		Server: &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           router,
			ReadTimeout:       cfg.ReadTimeout,
			ReadHeaderTimeout: cfg.ReadTimeout,
			WriteTimeout:      cfg.WriteTimeout,
		},
		Vendor:      vendor,
		Metrics:     recorder,
		coordinator: coordinator,
		webhooks:    webhooks,
		logger:      logger,
	}, nil
}

// Shutdown stops accepting requests, drains queued webhooks and cancels any
// refresh cycle still running.
func (a *App) Shutdown(ctx context.Context) error {
	var errs []error
	if err := a.Server.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("http server: %w", err))
	}

	drain := 5 * time.Second
	if deadline, ok := ctx.Deadline(); ok {
		drain = max(time.Until(deadline), 100*time.Millisecond)
	}
	if err := a.webhooks.Close(drain); err != nil {
		errs = append(errs, fmt.Errorf("webhook workers: %w", err))
	}
	if err := a.coordinator.Close(ctx); err != nil {
		errs = append(errs, fmt.Errorf("refresh schedulers: %w", err))
	}

	a.logger.Info("relay stopped")
	return errors.Join(errs...)
}
