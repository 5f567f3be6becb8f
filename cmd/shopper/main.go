// Command shopper is a terminal storefront for the label shop API. Cart contents,
// cookies and the session hint persist between runs.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"labelshop/internal/apiclient"
	"labelshop/internal/cart"
	"labelshop/internal/checkout"
	"labelshop/internal/clientstore"
	"labelshop/internal/config"
	"labelshop/internal/logging"
	"labelshop/internal/session"
)

const (
	deviceIDKey   = "device_id"
	stateRedisTTL = 90 * 24 * time.Hour
)

type app struct {
	client   *apiclient.Client
	cart     *cart.Engine
	checkout *checkout.Service
	logger   *zap.Logger
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) < 1 {
		usage()
		return 2
	}

	cfg := config.FromEnv()
	logger := logging.New(cfg.LogLevel, cfg.LogFormat).Named("shopper")
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, closeFn, err := setup(ctx, cfg, logger)
	if err != nil {
		logger.Error("start shopper", zap.Error(err))
		return 1
	}
	defer closeFn()

	if err := a.run(ctx, args[0], args[1:]); err != nil {
		if errors.Is(err, errUsage) {
			usage()
			return 2
		}
		fmt.Fprintln(os.Stderr, "error:", describe(err))
		return 1
	}
	return 0
}

func setup(ctx context.Context, cfg config.Config, logger *zap.Logger) (*app, func(), error) {
	local, err := clientstore.NewFile(cfg.StateDir)
	if err != nil {
		return nil, nil, err
	}
	store, closeFn, err := openStore(ctx, cfg, local, logger)
	if err != nil {
		return nil, nil, err
	}

	visited, err := clientstore.LoadFlag(ctx, local, clientstore.KeyHasVisited)
	if err != nil {
		logger.Warn("read first-visit marker", zap.Error(err))
	} else if !visited.Get() {
		fmt.Println("Welcome to the label shop. Run `shopper help` to see what you can do.")
		if err := visited.Set(ctx, true); err != nil {
			logger.Warn("store first-visit marker", zap.Error(err))
		}
	}

	origin, err := url.Parse(cfg.APIBaseURL)
	if err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("invalid API base URL: %w", err)
	}
	jar, err := newPersistentJar(ctx, store, origin, logger)
	if err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("load cookies: %w", err)
	}

	sessionFlag := session.LoadFlag(ctx, store, logger)
	client, err := apiclient.New(cfg.APIBaseURL,
		apiclient.WithHTTPClient(&http.Client{Timeout: 30 * time.Second, Jar: jar}),
		apiclient.WithFlag(sessionFlag),
		apiclient.WithLogger(logger),
	)
	if err != nil {
		closeFn()
		return nil, nil, err
	}

	engine := cart.New(ctx, cart.NewStoragePersister(store, clientstore.KeyCart), cart.WithLogger(logger))
	return &app{
		client:   client,
		cart:     engine,
		checkout: checkout.New(engine, client, logger),
		logger:   logger,
	}, closeFn, nil
}

// openStore returns the shared Redis store when configured, namespaced by this
// device's id, and the local file store otherwise.
func openStore(ctx context.Context, cfg config.Config, local *clientstore.File, logger *zap.Logger) (clientstore.Storage, func(), error) {
	if cfg.StateRedisAddr == "" {
		logger.Debug("using file state", zap.String("dir", filepath.Clean(cfg.StateDir)))
		return local, func() {}, nil
	}

	deviceID, err := loadDeviceID(ctx, local)
	if err != nil {
		return nil, nil, err
	}
	rdb := redis.NewClient(&redis.Options{Addr: cfg.StateRedisAddr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, nil, fmt.Errorf("connect state redis: %w", err)
	}
	logger.Debug("using redis state", zap.String("addr", cfg.StateRedisAddr), zap.String("device", deviceID))
	return clientstore.NewRedis(rdb, "labelshop:"+deviceID, stateRedisTTL), func() { _ = rdb.Close() }, nil
}

func loadDeviceID(ctx context.Context, local clientstore.Storage) (string, error) {
	raw, err := local.Get(ctx, deviceIDKey)
	if err == nil {
		if id, perr := uuid.ParseBytes(raw); perr == nil {
			return id.String(), nil
		}
	} else if !errors.Is(err, clientstore.ErrNotFound) {
		return "", fmt.Errorf("read device id: %w", err)
	}
	id := uuid.NewString()
	if err := local.Set(ctx, deviceIDKey, []byte(id)); err != nil {
		return "", fmt.Errorf("store device id: %w", err)
	}
	return id, nil
}
