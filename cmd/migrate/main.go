package main

import (
	"context"
	"flag"
	"os"

	"go.uber.org/zap"

	"labelshop/internal/config"
	"labelshop/internal/db"
	"labelshop/internal/logging"
	"labelshop/internal/migrate"
)

func main() {
	os.Exit(run())
}

func run() int {
	down := flag.Bool("down", false, "roll back the most recent migration")
	version := flag.Bool("version", false, "print the applied schema version and exit")
	flag.Parse()

	cfg := config.FromEnv()
	logger := logging.New(cfg.LogLevel, cfg.LogFormat).Named("migrate")
	defer logger.Sync()

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString, logger)
	if err != nil {
		logger.Error("connect db", zap.Error(err))
		return 1
	}
	defer pool.Close()

	switch {
	case *version:
		v, dirty, err := migrate.Version(ctx, pool)
		if err != nil {
			logger.Error("read version", zap.Error(err))
			return 1
		}
		logger.Info("schema version", zap.Uint("version", v), zap.Bool("dirty", dirty))
	case *down:
		if err := migrate.Rollback(ctx, pool); err != nil {
			logger.Error("roll back migration", zap.Error(err))
			return 1
		}
		logger.Info("rolled back one migration")
	default:
		if err := migrate.Apply(ctx, pool); err != nil {
			logger.Error("apply migrations", zap.Error(err))
			return 1
		}
		logger.Info("migrations applied")
	}
	return 0
}
