package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"labelshop/internal/config"
	"labelshop/internal/db"
	"labelshop/internal/domain"
	"labelshop/internal/importer"
	"labelshop/internal/logging"
	"labelshop/internal/repository/product"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		filePath string
		kind     string
	)
	flag.StringVar(&filePath, "file", "", "Path to catalog CSV export")
	flag.StringVar(&kind, "kind", domain.KindRecord, "Product kind for rows without a kind column (record, merch, ticket)")
	flag.Parse()

	if filePath == "" || !domain.ValidKind(kind) {
		flag.Usage()
		return 2
	}

	cfg := config.FromEnv()
	logger := logging.New(cfg.LogLevel, cfg.LogFormat).Named("importer")
	defer logger.Sync()

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString, logger)
	if err != nil {
		logger.Error("connect db", zap.Error(err))
		return 1
	}
	defer pool.Close()

	f, err := os.Open(filePath)
	if err != nil {
		logger.Error("open file", zap.Error(err))
		return 1
	}
	defer f.Close()

	imp := importer.NewCSVImporter(f, product.NewPostgres(pool, logger), kind, logger)

	start := time.Now()
	count, err := imp.Run(ctx)
	if err != nil {
		logger.Error("import failed", zap.Error(err))
		return 1
	}

	fmt.Printf("Imported %d products in %s\n", count, time.Since(start).Truncate(time.Millisecond))
	return 0
}
