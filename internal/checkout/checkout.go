// Package checkout turns the current cart into a cash-on-delivery order.
package checkout

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"labelshop/internal/apiclient"
	"labelshop/internal/cart"
	"labelshop/internal/logging"
)

// ErrEmptyCart is returned when there is nothing to order.
var ErrEmptyCart = errors.New("checkout: cart is empty")

// Submitter sends an order batch to the backend. *apiclient.Client satisfies it.
type Submitter interface {
	SubmitCOD(ctx context.Context, in apiclient.CODRequest) (*apiclient.Order, error)
}

type Service struct {
	cart      *cart.Engine
	submitter Submitter
	logger    *zap.Logger
}

func New(engine *cart.Engine, submitter Submitter, logger *zap.Logger) *Service {
	return &Service{cart: engine, submitter: submitter, logger: logging.OrNop(logger).Named("checkout")}
}

// PlaceCOD submits the cart lines with the customer and shipping details and clears
// the cart once the backend accepts the order. Rejections are returned unchanged and
// leave the cart as it was.
func (s *Service) PlaceCOD(ctx context.Context, customer apiclient.Customer, shipping apiclient.Shipping) (*apiclient.Order, error) {
	lines := s.cart.Lines()
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}
	items := make([]apiclient.OrderItem, 0, len(lines))
	for _, l := range lines {
		items = append(items, apiclient.OrderItem{ProductID: l.ProductID, Quantity: l.Quantity})
	}

	order, err := s.submitter.SubmitCOD(ctx, apiclient.CODRequest{
		Customer: customer,
		Shipping: shipping,
		Items:    items,
	})
	if err != nil {
		s.logger.Info("order rejected", zap.Int("lines", len(items)), zap.Error(err))
		return nil, err
	}

	s.cart.Clear(ctx)
	s.logger.Info("order placed",
		zap.String("order_id", order.ID),
		zap.String("total", order.Total.StringFixed(2)),
		zap.String("currency", order.Currency),
	)
	return order, nil
}
