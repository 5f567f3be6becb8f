package product

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"labelshop/internal/domain"
	"labelshop/internal/logging"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) Repository {
	return &postgresRepo{pool: pool, logger: logging.OrNop(logger).Named("product_repo")}
}

const productColumns = `id::text, key, sku, kind, name, COALESCE(description, ''), COALESCE(image_url, ''), price_cents, currency, created_at`

func scanProduct(row pgx.Row, p *domain.Product) error {
	return row.Scan(&p.ID, &p.Key, &p.SKU, &p.Kind, &p.Name, &p.Description, &p.ImageURL, &p.PriceCents, &p.Currency, &p.CreatedAt)
}

func (r *postgresRepo) List(ctx context.Context, kind string) ([]domain.Product, error) {
	const q = `
SELECT ` + productColumns + `
FROM products
WHERE ($1 = '' OR kind = $1)
ORDER BY created_at DESC, name ASC
`
	rows, err := r.pool.Query(ctx, q, kind)
	if err != nil {
		r.logger.Error("list", zap.String("kind", kind), zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var result []domain.Product
	for rows.Next() {
		var p domain.Product
		if err := scanProduct(rows, &p); err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error("list rows", zap.String("kind", kind), zap.Error(err))
		return nil, err
	}
	r.logger.Debug("list", zap.String("kind", kind), zap.Int("count", len(result)))
	return result, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	const q = `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	return r.getOne(ctx, q, id)
}

func (r *postgresRepo) GetByKey(ctx context.Context, key string) (*domain.Product, error) {
	const q = `SELECT ` + productColumns + ` FROM products WHERE key = $1`
	return r.getOne(ctx, q, key)
}

func (r *postgresRepo) getOne(ctx context.Context, q string, arg string) (*domain.Product, error) {
	var p domain.Product
	if err := scanProduct(r.pool.QueryRow(ctx, q, arg), &p); err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isInvalidUUID(err) {
			r.logger.Debug("get not found", zap.String("arg", arg))
			return nil, domain.ErrNotFound
		}
		r.logger.Error("get", zap.String("arg", arg), zap.Error(err))
		return nil, err
	}
	return &p, nil
}

// GetMany loads products by id. Missing ids are simply absent from the result.
func (r *postgresRepo) GetMany(ctx context.Context, ids []string) (map[string]domain.Product, error) {
	out := make(map[string]domain.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	const q = `SELECT ` + productColumns + ` FROM products WHERE id::text = ANY($1)`
	rows, err := r.pool.Query(ctx, q, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var p domain.Product
		if err := scanProduct(rows, &p); err != nil {
			return nil, err
		}
		out[p.ID] = p
	}
	return out, rows.Err()
}

func (r *postgresRepo) Upsert(ctx context.Context, product domain.Product) (*domain.Product, error) {
	const q = `
INSERT INTO products (id, key, sku, kind, name, description, image_url, price_cents, currency)
VALUES (COALESCE(NULLIF($1, '')::uuid, gen_random_uuid()), $2, $3, $4, $5, NULLIF($6, ''), NULLIF($7, ''), $8, $9)
ON CONFLICT (key) DO UPDATE SET
    sku = EXCLUDED.sku,
    kind = EXCLUDED.kind,
    name = EXCLUDED.name,
    description = EXCLUDED.description,
    image_url = EXCLUDED.image_url,
    price_cents = EXCLUDED.price_cents,
    currency = EXCLUDED.currency
RETURNING id::text, created_at
`
	kind := product.Kind
	if kind == "" {
		kind = domain.KindRecord
	}
	res := product
	res.Kind = kind
	err := r.pool.QueryRow(ctx, q,
		product.ID,
		product.Key,
		product.SKU,
		kind,
		product.Name,
		product.Description,
		product.ImageURL,
		product.PriceCents,
		product.Currency,
	).Scan(&res.ID, &res.CreatedAt)
	if err != nil {
		r.logger.Error("upsert", zap.String("key", product.Key), zap.Error(err))
		return nil, err
	}
	if product.ID != "" && res.ID != product.ID {
		return nil, fmt.Errorf("product repo: id mismatch for key=%s existing_id=%s import_id=%s", product.Key, res.ID, product.ID)
	}
	r.logger.Debug("upserted", zap.String("key", res.Key), zap.String("id", res.ID))
	return &res, nil
}

func isInvalidUUID(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "22P02"
}
