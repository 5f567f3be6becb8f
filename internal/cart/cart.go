// Package cart aggregates storefront selections into lines, one per product,
// and keeps them in durable client storage.
package cart

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"labelshop/internal/logging"
)

var (
	// ErrInvalidProduct is returned by Add for a product snapshot missing required fields.
	ErrInvalidProduct = errors.New("cart: invalid product")
	// ErrCurrencyMismatch is returned by Add when the product is priced in another currency than the cart.
	ErrCurrencyMismatch = errors.New("cart: currency mismatch")
)

// Product is the snapshot a caller adds to the cart: catalog items and event tickets alike.
type Product struct {
	ID          string
	Slug        string
	Name        string
	Description string
	ImageURL    string
	UnitPrice   decimal.Decimal
	Currency    string
}

func (p Product) validate() error {
	switch {
	case strings.TrimSpace(p.ID) == "":
		return errors.Join(ErrInvalidProduct, errors.New("id is required"))
	case strings.TrimSpace(p.Name) == "":
		return errors.Join(ErrInvalidProduct, errors.New("name is required"))
	case p.UnitPrice.IsNegative():
		return errors.Join(ErrInvalidProduct, errors.New("price must not be negative"))
	case strings.TrimSpace(p.Currency) == "":
		return errors.Join(ErrInvalidProduct, errors.New("currency is required"))
	}
	return nil
}

// MaxQuantity caps the units of a single product in the cart.
const MaxQuantity = 999

// Line is one product in the cart with its display snapshot.
type Line struct {
	ProductID   string          `json:"productId"`
	Slug        string          `json:"slug,omitempty"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	ImageURL    string          `json:"imageUrl,omitempty"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Currency    string          `json:"currency"`
	Quantity    int             `json:"quantity"`
}

// Total is UnitPrice × Quantity.
func (l Line) Total() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Summary is a consistent read of the cart at one point in time.
type Summary struct {
	Lines    []Line          `json:"lines"`
	Count    int             `json:"count"`
	Total    decimal.Decimal `json:"total"`
	Currency string          `json:"currency,omitempty"`
}

type Option func(*Engine)

func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// Engine is the cart state. Mutations are serialised and each one is persisted
// before the call returns. Persistence failures are logged and leave the
// in-memory cart authoritative.
type Engine struct {
	mu        sync.Mutex
	lines     []Line
	persister Persister
	logger    *zap.Logger
	degraded  bool
}

// New restores the cart from persister. Missing or unreadable state yields an empty cart.
func New(ctx context.Context, persister Persister, opts ...Option) *Engine {
	e := &Engine{persister: persister}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = logging.OrNop(e.logger).Named("cart")

	lines, err := persister.Load(ctx)
	if err != nil {
		e.logger.Warn("restore cart failed, starting empty", zap.Error(err))
		return e
	}
	e.lines = sanitize(lines)
	if dropped := len(lines) - len(e.lines); dropped > 0 {
		e.logger.Info("restored cart normalised", zap.Int("input_lines", len(lines)), zap.Int("lines", len(e.lines)))
	}
	return e
}

// Add puts quantity units of p in the cart, merging with an existing line for the same product.
// quantity below 1 is treated as 1 and a line never exceeds MaxQuantity.
func (e *Engine) Add(ctx context.Context, p Product, quantity int) error {
	if err := p.validate(); err != nil {
		return err
	}
	quantity = clampQuantity(quantity)
	currency := strings.ToUpper(strings.TrimSpace(p.Currency))

	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.lines) > 0 && e.lines[0].Currency != currency {
		return ErrCurrencyMismatch
	}
	if i := e.indexOf(p.ID); i >= 0 {
		e.lines[i].Quantity = addQuantity(e.lines[i].Quantity, quantity)
	} else {
		e.lines = append(e.lines, Line{
			ProductID:   p.ID,
			Slug:        p.Slug,
			Name:        p.Name,
			Description: p.Description,
			ImageURL:    p.ImageURL,
			UnitPrice:   p.UnitPrice,
			Currency:    currency,
			Quantity:    quantity,
		})
	}
	e.persist(ctx)
	return nil
}

// Remove drops the line for productID. Unknown ids are ignored.
func (e *Engine) Remove(ctx context.Context, productID string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	i := e.indexOf(productID)
	if i < 0 {
		return
	}
	e.lines = append(e.lines[:i], e.lines[i+1:]...)
	e.persist(ctx)
}

// UpdateQuantity sets the quantity of an existing line, clamped to [1, MaxQuantity];
// use Remove to delete a line. Unknown ids are ignored.
func (e *Engine) UpdateQuantity(ctx context.Context, productID string, quantity int) {
	quantity = clampQuantity(quantity)
	e.mu.Lock()
	defer e.mu.Unlock()

	i := e.indexOf(productID)
	if i < 0 || e.lines[i].Quantity == quantity {
		return
	}
	e.lines[i].Quantity = quantity
	e.persist(ctx)
}

// Clear empties the cart and persists the empty state.
func (e *Engine) Clear(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lines = nil
	e.persist(ctx)
}

// Lines returns a copy of the lines in insertion order.
func (e *Engine) Lines() []Line {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.copyLines()
}

// Count is the sum of quantities.
func (e *Engine) Count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return count(e.lines)
}

// Total is the exact sum of line totals.
func (e *Engine) Total() decimal.Decimal {
	e.mu.Lock()
	defer e.mu.Unlock()
	return total(e.lines)
}

// Currency of the cart, empty when the cart is empty.
func (e *Engine) Currency() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.lines) == 0 {
		return ""
	}
	return e.lines[0].Currency
}

func (e *Engine) Snapshot() Summary {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := Summary{Lines: e.copyLines(), Count: count(e.lines), Total: total(e.lines)}
	if len(e.lines) > 0 {
		s.Currency = e.lines[0].Currency
	}
	return s
}

// Degraded reports whether the most recent save failed.
func (e *Engine) Degraded() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.degraded
}

// persist must be called with e.mu held so saves land in mutation order.
func (e *Engine) persist(ctx context.Context) {
	if err := e.persister.Save(ctx, e.copyLines()); err != nil {
		if !e.degraded {
			e.logger.Warn("persist cart failed, keeping in-memory state", zap.Error(err))
		}
		e.degraded = true
		return
	}
	if e.degraded {
		e.logger.Info("cart persistence recovered")
	}
	e.degraded = false
}

func (e *Engine) indexOf(productID string) int {
	for i, l := range e.lines {
		if l.ProductID == productID {
			return i
		}
	}
	return -1
}

func (e *Engine) copyLines() []Line {
	out := make([]Line, len(e.lines))
	copy(out, e.lines)
	return out
}

func count(lines []Line) int {
	n := 0
	for _, l := range lines {
		n += l.Quantity
	}
	return n
}

func total(lines []Line) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.Total())
	}
	return sum
}

// sanitize repairs persisted lines: drops empty ids and non-positive quantities,
// merges duplicates and drops lines priced in a currency other than the first.
func sanitize(in []Line) []Line {
	var out []Line
	index := make(map[string]int, len(in))
	for _, l := range in {
		if strings.TrimSpace(l.ProductID) == "" || l.Quantity < 1 {
			continue
		}
		l.Quantity = clampQuantity(l.Quantity)
		l.Currency = strings.ToUpper(strings.TrimSpace(l.Currency))
		if len(out) > 0 && l.Currency != out[0].Currency {
			continue
		}
		if i, ok := index[l.ProductID]; ok {
			out[i].Quantity = addQuantity(out[i].Quantity, l.Quantity)
			continue
		}
		index[l.ProductID] = len(out)
		out = append(out, l)
	}
	return out
}

func clampQuantity(q int) int {
	switch {
	case q < 1:
		return 1
	case q > MaxQuantity:
		return MaxQuantity
	}
	return q
}

// addQuantity sums two in-range quantities without exceeding MaxQuantity.
func addQuantity(have, more int) int {
	if more > MaxQuantity-have {
		return MaxQuantity
	}
	return have + more
}
