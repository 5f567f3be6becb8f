package main

import (
	"context"
	"flag"
	"os"

	"go.uber.org/zap"

	"labelshop/internal/config"
	"labelshop/internal/db"
	"labelshop/internal/logging"
	eventrepo "labelshop/internal/repository/event"
	productrepo "labelshop/internal/repository/product"
	userrepo "labelshop/internal/repository/user"
	"labelshop/internal/seed"
)

func main() {
	os.Exit(run())
}

func run() int {
	adminUser := flag.String("admin-username", "admin", "username for the seeded admin account")
	adminEmail := flag.String("admin-email", os.Getenv("SEED_ADMIN_EMAIL"), "email for the seeded admin account; empty skips it")
	adminPassword := flag.String("admin-password", os.Getenv("SEED_ADMIN_PASSWORD"), "password for the seeded admin account")
	flag.Parse()

	cfg := config.FromEnv()
	logger := logging.New(cfg.LogLevel, cfg.LogFormat).Named("seed")
	defer logger.Sync()

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString, logger)
	if err != nil {
		logger.Error("connect db", zap.Error(err))
		return 1
	}
	defer pool.Close()

	s := seed.New(
		productrepo.NewPostgres(pool, logger),
		eventrepo.NewPostgres(pool),
		userrepo.NewPostgres(pool, logger),
		logger,
	)
	err = s.Apply(ctx, seed.Admin{
		Username: *adminUser,
		Email:    *adminEmail,
		Password: *adminPassword,
	})
	if err != nil {
		logger.Error("seed apply", zap.Error(err))
		return 1
	}

	logger.Info("seed applied")
	return 0
}
