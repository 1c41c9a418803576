// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Lukasz11111/triominos/internal/auth"
	"github.com/Lukasz11111/triominos/internal/cache"
	"github.com/Lukasz11111/triominos/internal/config"
	"github.com/Lukasz11111/triominos/internal/database"
	"github.com/Lukasz11111/triominos/internal/handlers"
	"github.com/Lukasz11111/triominos/internal/persist"
	"github.com/Lukasz11111/triominos/internal/persist/sqlite"
	_ "github.com/joho/godotenv/autoload"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

func main() {
	logger := logrus.New()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("config: %v", err)
	}
	logger.SetLevel(cfg.Level())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, rdb, err := openStore(ctx, cfg)
	if err != nil {
		logger.Fatalf("store: %v", err)
	}
	defer store.Close()
	logger.WithField("backend", cfg.StoreBackend).Info("session store ready")

	ttl, _ := cfg.TokenTTL()
	issuer, err := auth.NewIssuer(ttl)
	if err != nil {
		logger.Fatalf("auth: %v", err)
	}

	persister := persist.NewPersister(store, logger, persist.DefaultQueueSize)
	srv := handlers.NewGameServer(persister, issuer, logger)

	var publisher *cache.Publisher
	if cfg.HistorianEnabled {
		if rdb == nil {
			rdb, err = cache.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisDB)
			if err != nil {
				logger.Fatalf("historian queue: %v", err)
			}
			defer rdb.Close()
		}
		publisher = cache.NewPublisher(rdb, cfg.HistorianQueue, logger)
		srv.Entries = publisher
		logger.WithField("queue", cfg.HistorianQueue).Info("publishing history entries")
	}

	for _, g := range persist.LoadAll(ctx, store, logger) {
		srv.Register(g)
		logger.WithField("game", g.ID).Info("session resumed")
	}

	httpSrv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Infof("Running on %s", cfg.Addr())
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server exited: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("http shutdown")
	}
	persister.Close()
	if publisher != nil {
		publisher.Close()
	}
}

// openStore opens the configured backend. The redis client is returned so the historian
// publisher can share it.
func openStore(ctx context.Context, cfg config.Config) (persist.Store, *redis.Client, error) {
	switch cfg.StoreBackend {
	case config.BackendSQLite:
		store, err := sqlite.Open(cfg.SQLitePath)
		return store, nil, err
	case config.BackendRedis:
		rdb, err := cache.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisDB)
		if err != nil {
			return nil, nil, err
		}
		return cache.NewStore(rdb), rdb, nil
	case config.BackendPostgres:
		dsn := database.DSN(cfg.PostgresUser, cfg.PostgresPassword, cfg.PGHost, cfg.PGPort, cfg.PGDatabase)
		pool, err := database.ConnectDB(ctx, dsn)
		if err != nil {
			return nil, nil, err
		}
		if err := database.EnsureSchema(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return database.NewStore(pool), nil, nil
	case config.BackendMemory:
		return persist.NewMemoryStore(), nil, nil
	}
	return nil, nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
}
