package event

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"labelshop/internal/domain"
)

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

const eventSelect = `
SELECT e.id::text, e.slug, e.title, e.venue, e.city, e.starts_at, COALESCE(e.description, ''), COALESCE(e.image_url, ''),
       e.ticket_product_id::text, e.created_at,
       p.id::text, COALESCE(p.key, ''), COALESCE(p.sku, ''), COALESCE(p.kind, ''), COALESCE(p.name, ''),
       COALESCE(p.price_cents, 0), COALESCE(p.currency, '')
FROM events e
LEFT JOIN products p ON p.id = e.ticket_product_id
`

// List returns events starting at or after from, soonest first. A zero from lists everything.
func (r *postgresRepo) List(ctx context.Context, from time.Time) ([]domain.Event, error) {
	q := eventSelect + `
WHERE ($1::timestamptz IS NULL OR e.starts_at >= $1)
ORDER BY e.starts_at ASC, e.title ASC
`
	var fromArg *time.Time
	if !from.IsZero() {
		fromArg = &from
	}
	rows, err := r.pool.Query(ctx, q, fromArg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *postgresRepo) GetBySlug(ctx context.Context, slug string) (*domain.Event, error) {
	e, err := scanEvent(r.pool.QueryRow(ctx, eventSelect+` WHERE e.slug = $1`, slug))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

func (r *postgresRepo) Upsert(ctx context.Context, e domain.Event) (*domain.Event, error) {
	const q = `
INSERT INTO events (slug, title, venue, city, starts_at, description, image_url, ticket_product_id)
VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), NULLIF($7, ''), $8)
ON CONFLICT (slug) DO UPDATE
SET title = EXCLUDED.title,
    venue = EXCLUDED.venue,
    city = EXCLUDED.city,
    starts_at = EXCLUDED.starts_at,
    description = COALESCE(EXCLUDED.description, events.description),
    image_url = COALESCE(EXCLUDED.image_url, events.image_url),
    ticket_product_id = COALESCE(EXCLUDED.ticket_product_id, events.ticket_product_id)
RETURNING id::text, created_at, ticket_product_id::text
`
	out := e
	err := r.pool.QueryRow(ctx, q, e.Slug, e.Title, e.Venue, e.City, e.StartsAt, e.Description, e.ImageURL, e.TicketProductID).
		Scan(&out.ID, &out.CreatedAt, &out.TicketProductID)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func scanEvent(row pgx.Row) (*domain.Event, error) {
	var (
		e        domain.Event
		ticketID *string
		t        domain.Product
	)
	err := row.Scan(
		&e.ID, &e.Slug, &e.Title, &e.Venue, &e.City, &e.StartsAt, &e.Description, &e.ImageURL,
		&e.TicketProductID, &e.CreatedAt,
		&ticketID, &t.Key, &t.SKU, &t.Kind, &t.Name, &t.PriceCents, &t.Currency,
	)
	if err != nil {
		return nil, err
	}
	if ticketID != nil {
		t.ID = *ticketID
		e.Ticket = &t
	}
	return &e, nil
}
