package order

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"sort"
	"strings"

	"go.uber.org/zap"

	"labelshop/internal/domain"
	"labelshop/internal/logging"
	orderrepo "labelshop/internal/repository/order"
)

type Service struct {
	repo        orderRepo
	productRepo productRepo
	logger      *zap.Logger
}

type orderRepo interface {
	Create(ctx context.Context, in orderrepo.CreateOrderInput) (*domain.Order, error)
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Order, error)
	Lines(ctx context.Context, orderID string) ([]domain.OrderLine, error)
}

type productRepo interface {
	GetMany(ctx context.Context, ids []string) (map[string]domain.Product, error)
}

func New(repo orderRepo, productRepo productRepo, logger *zap.Logger) *Service {
	return &Service{repo: repo, productRepo: productRepo, logger: logging.OrNop(logger).Named("orders")}
}

// CODInput is a cash-on-delivery checkout batch as submitted by the storefront.
type CODInput struct {
	Customer domain.OrderCustomer `json:"customer"`
	Shipping domain.OrderShipping `json:"shipping"`
	Items    []ItemInput          `json:"items"`
}

// ItemInput is one cart line. Client-side prices are informational; the catalog price wins.
type ItemInput struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// PlaceCOD validates the batch against the catalog and stores it as a pending order.
func (s *Service) PlaceCOD(ctx context.Context, userID *string, in CODInput) (*domain.Order, error) {
	customer, shipping, err := normalizeContact(in.Customer, in.Shipping)
	if err != nil {
		return nil, err
	}
	items, err := mergeItems(in.Items)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ProductID)
	}
	products, err := s.productRepo.GetMany(ctx, ids)
	if err != nil {
		return nil, err
	}

	var currency string
	lines := make([]orderrepo.CreateLineInput, 0, len(items))
	for _, it := range items {
		p, ok := products[it.ProductID]
		if !ok {
			return nil, fmt.Errorf("%w: product %s not found", domain.ErrInvalidInput, it.ProductID)
		}
		if currency == "" {
			currency = p.Currency
		} else if !strings.EqualFold(currency, p.Currency) {
			return nil, fmt.Errorf("%w: mixed currencies %s and %s", domain.ErrInvalidInput, currency, p.Currency)
		}
		lines = append(lines, orderrepo.CreateLineInput{
			ProductID:      p.ID,
			Name:           p.Name,
			Quantity:       it.Quantity,
			UnitPriceCents: p.PriceCents,
		})
	}

	order, err := s.repo.Create(ctx, orderrepo.CreateOrderInput{
		UserID:   userID,
		Currency: strings.ToUpper(currency),
		Customer: customer,
		Shipping: shipping,
		Lines:    lines,
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("order placed",
		zap.String("order_id", order.ID),
		zap.Int("lines", len(order.Lines)),
		zap.Int64("total_cents", order.TotalCents),
		zap.String("currency", order.Currency),
	)
	return order, nil
}

// Get returns an order visible to viewer: the owner or an admin. Others get ErrNotFound.
func (s *Service) Get(ctx context.Context, viewer *domain.User, id string) (*domain.Order, error) {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canView(viewer, *o) {
		return nil, domain.ErrNotFound
	}
	return o, nil
}

func (s *Service) Items(ctx context.Context, viewer *domain.User, id string) ([]domain.OrderLine, error) {
	o, err := s.Get(ctx, viewer, id)
	if err != nil {
		return nil, err
	}
	if o.Lines != nil {
		return o.Lines, nil
	}
	return s.repo.Lines(ctx, id)
}

func (s *Service) ListMine(ctx context.Context, viewer domain.User) ([]domain.Order, error) {
	return s.repo.ListByUser(ctx, viewer.ID)
}

func canView(viewer *domain.User, o domain.Order) bool {
	if viewer == nil {
		return false
	}
	return viewer.IsAdmin() || o.OwnedBy(viewer.ID)
}

func mergeItems(in []ItemInput) ([]ItemInput, error) {
	if len(in) == 0 {
		return nil, fmt.Errorf("%w: items required", domain.ErrInvalidInput)
	}
	index := make(map[string]int, len(in))
	out := make([]ItemInput, 0, len(in))
	for _, it := range in {
		id := strings.TrimSpace(it.ProductID)
		if id == "" {
			return nil, fmt.Errorf("%w: productId required", domain.ErrInvalidInput)
		}
		if it.Quantity < 1 {
			return nil, fmt.Errorf("%w: quantity must be positive", domain.ErrInvalidInput)
		}
		if it.Quantity > domain.MaxLineQuantity {
			return nil, fmt.Errorf("%w: quantity exceeds %d", domain.ErrInvalidInput, domain.MaxLineQuantity)
		}
		if pos, ok := index[id]; ok {
			if out[pos].Quantity > domain.MaxLineQuantity-it.Quantity {
				return nil, fmt.Errorf("%w: quantity exceeds %d", domain.ErrInvalidInput, domain.MaxLineQuantity)
			}
			out[pos].Quantity += it.Quantity
			continue
		}
		index[id] = len(out)
		out = append(out, ItemInput{ProductID: id, Quantity: it.Quantity})
	}
	return out, nil
}

func normalizeContact(c domain.OrderCustomer, sh domain.OrderShipping) (domain.OrderCustomer, domain.OrderShipping, error) {
	c.FullName = strings.TrimSpace(c.FullName)
	c.Email = strings.ToLower(strings.TrimSpace(c.Email))
	c.Phone = strings.TrimSpace(c.Phone)
	sh.Address = strings.TrimSpace(sh.Address)
	sh.City = strings.TrimSpace(sh.City)
	sh.PostalCode = strings.TrimSpace(sh.PostalCode)
	sh.Country = strings.TrimSpace(sh.Country)
	sh.Notes = strings.TrimSpace(sh.Notes)

	var missing []string
	for field, v := range map[string]string{
		"customer.fullName": c.FullName,
		"customer.phone":    c.Phone,
		"shipping.address":  sh.Address,
		"shipping.city":     sh.City,
		"shipping.country":  sh.Country,
	} {
		if v == "" {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return c, sh, fmt.Errorf("%w: missing %s", domain.ErrInvalidInput, strings.Join(missing, ", "))
	}
	if c.Email != "" {
		if _, err := mail.ParseAddress(c.Email); err != nil {
			return c, sh, fmt.Errorf("%w: invalid customer.email", domain.ErrInvalidInput)
		}
	}
	return c, sh, nil
}

// IsBusinessError reports whether err should be shown to the shopper as-is.
func IsBusinessError(err error) bool {
	return errors.Is(err, domain.ErrInvalidInput)
}
