package product

import (
	"context"

	"labelshop/internal/domain"
)

type Repository interface {
	List(ctx context.Context, kind string) ([]domain.Product, error)
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	GetByKey(ctx context.Context, key string) (*domain.Product, error)
	GetMany(ctx context.Context, ids []string) (map[string]domain.Product, error)
	Upsert(ctx context.Context, product domain.Product) (*domain.Product, error)
}
