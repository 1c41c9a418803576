// cmd/historian/main.go is an asynchronous historian service that pops history entries from a
// Redis queue and persists them to the PostgreSQL audit table.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/Lukasz11111/triominos/internal/cache"
	"github.com/Lukasz11111/triominos/internal/config"
	"github.com/Lukasz11111/triominos/internal/database"
	"github.com/Lukasz11111/triominos/internal/historian"
	_ "github.com/joho/godotenv/autoload"
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

	dsn := database.DSN(cfg.PostgresUser, cfg.PostgresPassword, cfg.PGHost, cfg.PGPort, cfg.PGDatabase)
	pool, err := database.ConnectDB(ctx, dsn)
	if err != nil {
		logger.Fatalf("database: %v", err)
	}
	defer pool.Close()
	if err := database.EnsureSchema(ctx, pool); err != nil {
		logger.Fatalf("database: %v", err)
	}

	rdb, err := cache.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisDB)
	if err != nil {
		logger.Fatalf("redis: %v", err)
	}
	defer rdb.Close()

	hs := historian.NewService(rdb, database.NewHistoryWriter(pool), cfg.HistorianQueue,
		cfg.HistorianBatchSize, cfg.HistorianFlushDelay(), logger)
	hs.Run(ctx)
	logger.Info("Historian shutdown complete.")
}
