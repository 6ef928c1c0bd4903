package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/lendkit/lending-ledger-go/httpapi"
	"github.com/lendkit/lending-ledger-go/ledger/memoryengine"
	"github.com/lendkit/lending-ledger-go/ledger/postgresengine"
	"github.com/lendkit/lending-ledger-go/shared/shell/config"
)

const (
	engineMemory   = "memory"
	enginePostgres = "postgres"
)

// Config holds the server settings, read from the environment.
type Config struct {
	ListenAddr      string        `env:"LISTEN_ADDR"      envDefault:":8080"`
	Engine          string        `env:"ENGINE"           envDefault:"postgres"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout})

	cfg, err := env.ParseAs[Config]()
	must(err)

	log.Info().
		Str("addr", cfg.ListenAddr).
		Str("engine", cfg.Engine).
		Msg("starting lending ledger")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, cleanup, err := buildStore(ctx, cfg)
	must(err)
	defer cleanup()

	server := httpapi.NewServer(store, log.Logger,
		httpapi.WithMetricsCollector(logMetrics{logger: log.Logger}))

	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		log.Warn().Msg("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		if shutdownErr := httpServer.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("shutdown failed")
		}
	}()

	log.Info().Msg("http listening")

	if serveErr := httpServer.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
		log.Fatal().Err(serveErr).Msg("server failed")
	}
}

// buildStore selects the configured engine. The memory engine serves local
// development and demos; everything else gets PostgreSQL.
func buildStore(ctx context.Context, cfg Config) (httpapi.LendingStore, func(), error) {
	if cfg.Engine == engineMemory {
		return memoryengine.NewLendingStore(), func() {}, nil
	}

	if cfg.Engine != enginePostgres {
		return nil, nil, errors.New("unknown engine: " + cfg.Engine)
	}

	pgCfg, err := config.LoadPostgresConfig()
	if err != nil {
		return nil, nil, err
	}

	pool, err := config.PostgresPGXPool(ctx, pgCfg.DSN)
	if err != nil {
		return nil, nil, err
	}

	storeOptions := []postgresengine.Option{
		postgresengine.WithLogger(storeLogger{logger: log.Logger}),
		postgresengine.WithMetrics(logMetrics{logger: log.Logger}),
	}

	if pgCfg.HasReplica() {
		replica, replicaErr := config.PostgresPGXPool(ctx, pgCfg.ReplicaDSN)
		if replicaErr != nil {
			pool.Close()
			return nil, nil, replicaErr
		}

		store, storeErr := postgresengine.NewLendingStoreFromPGXPoolAndReplica(pool, replica, storeOptions...)
		if storeErr != nil {
			pool.Close()
			replica.Close()
			return nil, nil, storeErr
		}

		return store, func() { pool.Close(); replica.Close() }, nil
	}

	store, err := postgresengine.NewLendingStoreFromPGXPool(pool, storeOptions...)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}

	return store, func() { pool.Close() }, nil
}

func must(err error) {
	if err != nil {
		log.Fatal().Err(err).Msg("fatal")
	}
}
