package event

import (
	"context"
	"time"

	"labelshop/internal/domain"
	eventrepo "labelshop/internal/repository/event"
)

type Service struct {
	repo eventrepo.Repository
	now  func() time.Time
}

func New(repo eventrepo.Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// List returns upcoming events, or every event when includePast is set.
func (s *Service) List(ctx context.Context, includePast bool) ([]domain.Event, error) {
	from := s.now()
	if includePast {
		from = time.Time{}
	}
	return s.repo.List(ctx, from)
}

func (s *Service) Get(ctx context.Context, slug string) (*domain.Event, error) {
	return s.repo.GetBySlug(ctx, slug)
}

func (s *Service) Upsert(ctx context.Context, e domain.Event) (*domain.Event, error) {
	return s.repo.Upsert(ctx, e)
}
