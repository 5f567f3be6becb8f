package order

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"labelshop/internal/domain"
)

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

const orderColumns = `
id::text, user_id::text, status, payment_method, currency, total_cents,
customer_name, customer_email, customer_phone,
shipping_address, shipping_city, shipping_postal, shipping_country, shipping_notes, created_at
`

// Create inserts the order and its lines in one transaction. Lines repeating a product id are
// merged into a single row by summing quantities.
func (r *postgresRepo) Create(ctx context.Context, in CreateOrderInput) (*domain.Order, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var orderID string
	err = tx.QueryRow(ctx, `
INSERT INTO orders (
    user_id, status, payment_method, currency, total_cents,
    customer_name, customer_email, customer_phone,
    shipping_address, shipping_city, shipping_postal, shipping_country, shipping_notes
) VALUES ($1, $2, $3, $4, 0, $5, $6, $7, $8, $9, $10, $11, $12)
RETURNING id::text
`,
		in.UserID, domain.OrderStatusPending, domain.PaymentCOD, in.Currency,
		in.Customer.FullName, in.Customer.Email, in.Customer.Phone,
		in.Shipping.Address, in.Shipping.City, in.Shipping.PostalCode, in.Shipping.Country, in.Shipping.Notes,
	).Scan(&orderID)
	if err != nil {
		return nil, err
	}

	for _, line := range in.Lines {
		if err := addLine(ctx, tx, orderID, line); err != nil {
			return nil, err
		}
	}

	if err := updateOrderTotal(ctx, tx, orderID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, orderID)
}

func addLine(ctx context.Context, tx pgx.Tx, orderID string, line CreateLineInput) error {
	_, err := tx.Exec(ctx, `
INSERT INTO order_items (order_id, product_id, name, quantity, unit_price_cents, total_cents)
VALUES ($1, $2, $3, $4, $5, $5 * $4)
ON CONFLICT (order_id, product_id) DO UPDATE
SET quantity = order_items.quantity + EXCLUDED.quantity,
    total_cents = order_items.unit_price_cents * (order_items.quantity + EXCLUDED.quantity)
`, orderID, line.ProductID, line.Name, line.Quantity, line.UnitPriceCents)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23503" {
		return domain.ErrNotFound
	}
	return err
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	o, err := scanOrder(r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}
	lines, err := r.Lines(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	o.Lines = lines
	return o, nil
}

func (r *postgresRepo) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

func (r *postgresRepo) Lines(ctx context.Context, orderID string) ([]domain.OrderLine, error) {
	const q = `
SELECT id::text, order_id::text, product_id::text, name, quantity, unit_price_cents, total_cents, created_at
FROM order_items
WHERE order_id = $1
ORDER BY created_at ASC
`
	rows, err := r.pool.Query(ctx, q, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []domain.OrderLine
	for rows.Next() {
		var line domain.OrderLine
		if err := rows.Scan(
			&line.ID,
			&line.OrderID,
			&line.ProductID,
			&line.Name,
			&line.Quantity,
			&line.UnitPriceCents,
			&line.TotalCents,
			&line.CreatedAt,
		); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

func (r *postgresRepo) SetStatus(ctx context.Context, id, status string) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE orders SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var o domain.Order
	err := row.Scan(
		&o.ID, &o.UserID, &o.Status, &o.PaymentMethod, &o.Currency, &o.TotalCents,
		&o.Customer.FullName, &o.Customer.Email, &o.Customer.Phone,
		&o.Shipping.Address, &o.Shipping.City, &o.Shipping.PostalCode, &o.Shipping.Country, &o.Shipping.Notes,
		&o.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.Is(err, pgx.ErrNoRows) || (errors.As(err, &pgErr) && pgErr.Code == "22P02") {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

func updateOrderTotal(ctx context.Context, tx pgx.Tx, orderID string) error {
	_, err := tx.Exec(ctx, `
UPDATE orders
SET total_cents = COALESCE((
	SELECT SUM(total_cents)
	FROM order_items
	WHERE order_id = $1
), 0)
WHERE id = $1
`, orderID)
	return err
}
