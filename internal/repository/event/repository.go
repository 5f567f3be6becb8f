package event

import (
	"context"
	"time"

	"labelshop/internal/domain"
)

type Repository interface {
	List(ctx context.Context, from time.Time) ([]domain.Event, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Event, error)
	Upsert(ctx context.Context, e domain.Event) (*domain.Event, error)
}
