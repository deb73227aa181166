package app

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jmoiron/sqlx"

	"github.com/fplscout/transfer-advisor/internal/config"
	"github.com/fplscout/transfer-advisor/internal/domain/history"
	"github.com/fplscout/transfer-advisor/internal/infrastructure/fpl"
	"github.com/fplscout/transfer-advisor/internal/infrastructure/repository/memory"
	"github.com/fplscout/transfer-advisor/internal/infrastructure/repository/postgres"
	"github.com/fplscout/transfer-advisor/internal/interfaces/httpapi"
	"github.com/fplscout/transfer-advisor/internal/platform/logging"
	"github.com/fplscout/transfer-advisor/internal/platform/resilience"
	"github.com/fplscout/transfer-advisor/internal/usecase"
)

// App owns the wired HTTP server and the resources that need explicit
// teardown on shutdown.
type App struct {
	Server *http.Server

	adviceService *usecase.AdviceService
	db            *sqlx.DB
	logger        *slog.Logger
}

func New(cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	fplClient := fpl.NewClient(fpl.ClientConfig{
		BaseURL:    cfg.FPLBaseURL,
		SiteURL:    cfg.FPLSiteURL,
		Timeout:    cfg.FPLTimeout,
		MaxRetries: cfg.FPLMaxRetries,
		Logger:     logging.Default(),
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.FPLCircuitEnabled,
			FailureThreshold: cfg.FPLCircuitFailureCount,
			OpenTimeout:      cfg.FPLCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.FPLCircuitHalfOpenMaxReq,
		},
	})

	catalogCache := usecase.NewCatalogCache(fplClient, usecase.CatalogCacheConfig{
		TTL:        cfg.CatalogTTL,
		ServeStale: cfg.CatalogServeStale,
	}, logger)

	historyRepo, db, err := buildHistoryRepo(cfg, logger)
	if err != nil {
		return nil, err
	}

	adviceService, err := usecase.NewAdviceService(
		catalogCache,
		fplClient,
		usecase.RecommenderConfig{
			Epsilon:         cfg.RecoEpsilon,
			MaxSuggestions:  cfg.RecoMaxSuggestions,
			IncludeDoubtful: cfg.RecoIncludeDoubtful,
			Signal:          cfg.RecoSignal,
		},
		historyRepo,
		cfg.SquadCacheTTL,
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("build advice service: %w", err)
	}

	transferService := usecase.NewTransferService(catalogCache, fplClient, logger)

	handler := httpapi.NewHandler(adviceService, transferService, catalogCache, logger)
	router := httpapi.NewRouter(handler, logger, cfg.CORSAllowedOrigins, cfg.InternalJobToken)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	if server.Addr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	return &App{
		Server:        server,
		adviceService: adviceService,
		db:            db,
		logger:        logger,
	}, nil
}

// Close releases resources after the HTTP server has stopped.
func (a *App) Close() {
	a.adviceService.Close()
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Error("close database", "error", err)
		}
	}
}

func buildHistoryRepo(cfg config.Config, logger *slog.Logger) (history.Repository, *sqlx.DB, error) {
	if !cfg.AdviceLogEnabled {
		return nil, nil, nil
	}

	if cfg.DBURL == "" {
		logger.Warn("advice log enabled without DB_URL, using in-memory store")
		return memory.NewAdviceLogRepository(), nil, nil
	}

	db, err := openDB(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	logger.Info("advice log enabled", "db", dbNameFromURL(cfg.DBURL))

	return postgres.NewAdviceLogRepository(db), db, nil
}
