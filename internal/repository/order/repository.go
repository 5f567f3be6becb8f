package order

import (
	"context"

	"labelshop/internal/domain"
)

// CreateOrderInput carries a validated order batch. Line prices are authoritative catalog prices.
type CreateOrderInput struct {
	UserID   *string
	Currency string
	Customer domain.OrderCustomer
	Shipping domain.OrderShipping
	Lines    []CreateLineInput
}

type CreateLineInput struct {
	ProductID      string
	Name           string
	Quantity       int
	UnitPriceCents int64
}

type Repository interface {
	Create(ctx context.Context, in CreateOrderInput) (*domain.Order, error)
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Order, error)
	Lines(ctx context.Context, orderID string) ([]domain.OrderLine, error)
	SetStatus(ctx context.Context, id, status string) error
}
