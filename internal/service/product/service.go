package product

import (
	"context"
	"errors"
	"fmt"

	"labelshop/internal/domain"
	productrepo "labelshop/internal/repository/product"
)

type Service struct {
	repo productrepo.Repository
}

func New(repo productrepo.Repository) *Service {
	return &Service{repo: repo}
}

// List returns the catalog, optionally restricted to one kind.
func (s *Service) List(ctx context.Context, kind string) ([]domain.Product, error) {
	if kind != "" && !domain.ValidKind(kind) {
		return nil, fmt.Errorf("%w: unknown kind %q", domain.ErrInvalidInput, kind)
	}
	return s.repo.List(ctx, kind)
}

// Get resolves a product by id, falling back to its slug key.
func (s *Service) Get(ctx context.Context, idOrKey string) (*domain.Product, error) {
	p, err := s.repo.GetByID(ctx, idOrKey)
	if errors.Is(err, domain.ErrNotFound) {
		return s.repo.GetByKey(ctx, idOrKey)
	}
	return p, err
}
