package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"labelshop/internal/config"
	"labelshop/internal/db"
	"labelshop/internal/httpserver"
	"labelshop/internal/logging"
	eventrepo "labelshop/internal/repository/event"
	orderrepo "labelshop/internal/repository/order"
	productrepo "labelshop/internal/repository/product"
	tokenrepo "labelshop/internal/repository/token"
	userrepo "labelshop/internal/repository/user"
	authsvc "labelshop/internal/service/auth"
	eventsvc "labelshop/internal/service/event"
	ordersvc "labelshop/internal/service/order"
	productsvc "labelshop/internal/service/product"
)

const tokenSweepInterval = time.Hour

func main() {
	os.Exit(run())
}

func run() int {
	cfg := config.FromEnv()
	logger := logging.New(cfg.LogLevel, cfg.LogFormat).Named("api")
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbpool, err := db.Connect(ctx, cfg.DBConnString, logger)
	if err != nil {
		logger.Error("connect to db", zap.Error(err))
		return 1
	}
	defer dbpool.Close()

	productRepo := productrepo.NewPostgres(dbpool, logger)
	tokenRepo := tokenrepo.NewPostgres(dbpool)

	authService := authsvc.New(userrepo.NewPostgres(dbpool, logger), tokenRepo, authsvc.Config{
		Secret:     cfg.JWTSecret,
		AccessTTL:  cfg.AccessTTL,
		RefreshTTL: cfg.RefreshTTL,
	}, logger)

	srv, err := httpserver.New(cfg.HTTPAddr, logger, dbpool, httpserver.Deps{
		AuthSvc:    authService,
		ProductSvc: productsvc.New(productRepo),
		EventSvc:   eventsvc.New(eventrepo.NewPostgres(dbpool)),
		OrderSvc:   ordersvc.New(orderrepo.NewPostgres(dbpool), productRepo, logger),
	}, httpserver.Options{
		AssetURLHost: cfg.AssetURLHost,
		CORSOrigins:  cfg.CORSOrigins,
		CookieSecure: cfg.CookieSecure,
	})
	if err != nil {
		logger.Error("init server", zap.Error(err))
		return 1
	}

	go sweepExpiredTokens(ctx, tokenRepo, logger)

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	code := 0
	select {
	case <-ctx.Done():
		logger.Info("received signal, shutting down")
	case err := <-serverErr:
		logger.Error("server error", zap.Error(err))
		code = 1
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
		return 1
	}
	logger.Info("server stopped")
	return code
}

// sweepExpiredTokens removes expired refresh tokens until ctx is done.
func sweepExpiredTokens(ctx context.Context, repo tokenrepo.Repository, logger *zap.Logger) {
	ticker := time.NewTicker(tokenSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := repo.DeleteExpired(ctx, time.Now())
			if err != nil {
				logger.Warn("sweep expired tokens", zap.Error(err))
				continue
			}
			if n > 0 {
				logger.Info("swept expired tokens", zap.Int64("count", n))
			}
		}
	}
}
