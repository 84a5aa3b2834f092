package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/nftearth/fortune/external/oracle"
	"github.com/nftearth/fortune/external/subgraph"
	"github.com/nftearth/fortune/internal/config"
	"github.com/nftearth/fortune/internal/domain/round"
	"github.com/nftearth/fortune/internal/infrastructure/chain/ethereum"
	"github.com/nftearth/fortune/internal/infrastructure/repository/memory"
	"github.com/nftearth/fortune/internal/infrastructure/repository/postgres"
	"github.com/nftearth/fortune/internal/interfaces/httpapi"
	"github.com/nftearth/fortune/internal/platform/logging"
	"github.com/nftearth/fortune/internal/platform/resilience"
	"github.com/nftearth/fortune/internal/usecase"
)

// Application bundles the HTTP server with the background refresher
// and everything that needs closing on shutdown.
type Application struct {
	Server    *http.Server
	Refresher *usecase.Refresher

	logger  *logging.Logger
	closers []func() error
}

func New(ctx context.Context, cfg config.Config, logger *logging.Logger) (*Application, error) {
	if logger == nil {
		logger = logging.Default()
	}

	app := &Application{logger: logger}

	subgraphClient := subgraph.NewClient(subgraph.ClientConfig{
		URL:        cfg.SubgraphURL,
		Timeout:    cfg.SubgraphTimeout,
		MaxRetries: cfg.SubgraphMaxRetries,
		Logger:     logger,
		Breaker: resilience.BreakerSettings{
			Enabled:          cfg.SubgraphCircuitEnabled,
			FailureThreshold: cfg.SubgraphCircuitFailureCount,
			Cooldown:         cfg.SubgraphCircuitOpenTimeout,
		},
	})

	oracleClient := oracle.NewClient(oracle.ClientConfig{
		BaseURL:    cfg.OracleBaseURL,
		APIKey:     cfg.OracleAPIKey,
		Timeout:    cfg.OracleTimeout,
		MaxRetries: cfg.OracleMaxRetries,
		Logger:     logger,
		Breaker: resilience.BreakerSettings{
			Enabled:          cfg.OracleCircuitEnabled,
			FailureThreshold: cfg.OracleCircuitFailureCount,
			Cooldown:         cfg.OracleCircuitOpenTimeout,
		},
	})

	gateway, err := ethereum.NewGateway(ctx, ethereum.Config{
		RPCURL:          cfg.ChainRPCURL,
		PrivateKeyHex:   cfg.ChainPrivateKey,
		ChainID:         cfg.ChainID,
		FortuneAddress:  cfg.FortuneAddress,
		TransferManager: cfg.TransferManagerAddress,
		Logger:          logger,
	})
	if err != nil {
		return nil, fmt.Errorf("build chain gateway: %w", err)
	}
	app.closers = append(app.closers, func() error {
		gateway.Close()
		return nil
	})

	store := memory.NewSessionStore()
	notifier := memory.NewNotifier()

	var mirror round.Repository = memory.NewRoundRepository()
	if cfg.DBURL != "" {
		db, err := openDatabase(ctx, cfg)
		if err != nil {
			return nil, err
		}
		app.closers = append(app.closers, db.Close)
		mirror = postgres.NewRoundRepository(db)
		logger.Info(ctx, "round mirror backed by postgres", "database", dbNameFromURL(cfg.DBURL))
	} else {
		logger.Info(ctx, "round mirror backed by memory", "reason", "DB_URL empty")
	}

	roundSvc := usecase.NewRoundService(subgraphClient, mirror, store, logger, cfg.CacheTTL)
	selectionSvc := usecase.NewSelectionService(store, roundSvc, oracleClient, logger)
	depositSvc := usecase.NewDepositService(
		gateway,
		store,
		notifier,
		logger,
		cfg.ChainID,
		cfg.Confirmations,
		cfg.ExplorerBaseURL,
	)
	claimSvc := usecase.NewClaimService(gateway, subgraphClient, roundSvc, logger, cfg.Confirmations)

	refresher, err := usecase.NewRefresher(roundSvc, logger, cfg.RefreshInterval, cfg.RefreshWorkers)
	if err != nil {
		return nil, err
	}
	app.Refresher = refresher

	handler := httpapi.NewHandler(roundSvc, selectionSvc, depositSvc, claimSvc, notifier, store, logger)
	router := httpapi.NewRouter(handler, logger, cfg.CORSAllowedOrigins, cfg.InternalJobToken)

	app.Server = &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	if app.Server.Addr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	return app, nil
}

// Close releases resources in reverse construction order.
func (a *Application) Close(ctx context.Context) {
	if a.Refresher != nil {
		a.Refresher.Close()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn(ctx, "close resource failed", "error", err)
		}
	}
}
