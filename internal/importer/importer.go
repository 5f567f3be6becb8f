package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"labelshop/internal/domain"
	"labelshop/internal/logging"
)

type ProductWriter interface {
	Upsert(ctx context.Context, product domain.Product) (*domain.Product, error)
}

// CSVImporter reads catalog CSV exports and inserts/updates products.
//
// Recognised columns: id, key, kind, name, description, sku, price (decimal),
// centAmount, currency, imageUrl. Rows without a key continue the previous
// product and may only contribute image URLs; the first image wins.
type CSVImporter struct {
	reader      *csv.Reader
	productRepo ProductWriter
	defaultKind string
	logger      *zap.Logger
}

func NewCSVImporter(r io.Reader, repo ProductWriter, defaultKind string, logger *zap.Logger) *CSVImporter {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1 // rows may have trailing commas
	if defaultKind == "" {
		defaultKind = domain.KindRecord
	}
	return &CSVImporter{
		reader:      csvr,
		productRepo: repo,
		defaultKind: defaultKind,
		logger:      logging.OrNop(logger),
	}
}

type csvRow struct {
	line      int
	ID        string
	Key       string
	Kind      string
	Name      string
	Desc      string
	SKU       string
	Cents     int64
	Currency  string
	ImageURLs []string
}

// Run parses CSV rows and upserts products grouped by product key.
func (i *CSVImporter) Run(ctx context.Context) (int, error) {
	headers, err := i.reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)

	var (
		current  *csvRow
		imported int
		line     = 1
	)

	for {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return imported, fmt.Errorf("read row %d: %w", line, err)
		}

		row, err := parseRow(record, index)
		if err != nil {
			return imported, fmt.Errorf("row %d: %w", line, err)
		}
		if row == nil {
			continue
		}
		row.line = line

		if row.Key != "" {
			if current != nil {
				if err := i.save(ctx, current); err != nil {
					return imported, err
				}
				imported++
			}
			current = row
			continue
		}

		// Continuation rows (images) belong to the current product.
		if current != nil && len(row.ImageURLs) > 0 {
			current.ImageURLs = append(current.ImageURLs, row.ImageURLs...)
		}
	}

	if current != nil {
		if err := i.save(ctx, current); err != nil {
			return imported, err
		}
		imported++
	}

	i.logger.Info("import finished", zap.Int("products", imported))
	return imported, nil
}

func (i *CSVImporter) save(ctx context.Context, row *csvRow) error {
	if row.Key == "" || row.Name == "" || row.SKU == "" || row.Cents <= 0 || row.Currency == "" {
		return fmt.Errorf("row %d: invalid product (missing required fields) for key %q", row.line, row.Key)
	}
	if row.ID != "" {
		if _, err := uuid.Parse(row.ID); err != nil {
			return fmt.Errorf("row %d: invalid id for key %q: %s", row.line, row.Key, row.ID)
		}
	}
	kind := row.Kind
	if kind == "" {
		kind = i.defaultKind
	}
	if !domain.ValidKind(kind) {
		return fmt.Errorf("row %d: unknown kind %q for key %q", row.line, kind, row.Key)
	}

	p := domain.Product{
		ID:          row.ID,
		Key:         row.Key,
		SKU:         row.SKU,
		Kind:        kind,
		Name:        row.Name,
		Description: row.Desc,
		PriceCents:  row.Cents,
		Currency:    strings.ToUpper(row.Currency),
	}
	if len(row.ImageURLs) > 0 {
		p.ImageURL = row.ImageURLs[0]
		if len(row.ImageURLs) > 1 {
			i.logger.Debug("extra images ignored", zap.String("key", row.Key), zap.Int("count", len(row.ImageURLs)-1))
		}
	}

	_, err := i.productRepo.Upsert(ctx, p)
	if err != nil {
		return fmt.Errorf("upsert product %q: %w", row.Key, err)
	}
	return nil
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.TrimSpace(h)] = i
	}
	return idx
}

func parseRow(record []string, index map[string]int) (*csvRow, error) {
	key := pick(record, index, "key")
	imageURL := pick(record, index, "imageUrl")

	if key == "" && imageURL == "" {
		return nil, nil
	}

	row := &csvRow{
		ID:       pick(record, index, "id"),
		Key:      key,
		Kind:     strings.ToLower(pick(record, index, "kind")),
		Name:     pick(record, index, "name"),
		Desc:     pick(record, index, "description"),
		SKU:      pick(record, index, "sku"),
		Currency: pick(record, index, "currency"),
	}
	if imageURL != "" {
		row.ImageURLs = []string{imageURL}
	}

	if price := pick(record, index, "price"); price != "" {
		d, err := decimal.NewFromString(price)
		if err != nil {
			return nil, fmt.Errorf("invalid price %q for key %q", price, key)
		}
		row.Cents = domain.DecimalToCents(d)
	} else if centStr := pick(record, index, "centAmount"); centStr != "" {
		cents, err := strconv.ParseInt(centStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid centAmount %q for key %q", centStr, key)
		}
		row.Cents = cents
	}
	return row, nil
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}
