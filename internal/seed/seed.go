package seed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"labelshop/internal/domain"
	"labelshop/internal/logging"
)

// ProductWriter upserts catalog products by key.
type ProductWriter interface {
	Upsert(ctx context.Context, p domain.Product) (*domain.Product, error)
}

// EventWriter upserts events by slug.
type EventWriter interface {
	Upsert(ctx context.Context, e domain.Event) (*domain.Event, error)
}

// UserCreator creates accounts.
type UserCreator interface {
	Create(ctx context.Context, u domain.User) (*domain.User, error)
}

// Admin describes the account created for manual catalog management.
type Admin struct {
	Username string
	Email    string
	Password string
}

type eventSeed struct {
	Slug        string
	Title       string
	Venue       string
	City        string
	StartsIn    time.Duration
	Description string
	Ticket      domain.Product
}

var catalog = []domain.Product{
	{
		Key:         "nightshift-lp",
		SKU:         "REC-NS-LP",
		Kind:        domain.KindRecord,
		Name:        "Nightshift LP",
		Description: "Debut long player, 180g vinyl",
		ImageURL:    "/images/nightshift-lp.jpg",
		PriceCents:  2499,
		Currency:    "USD",
	},
	{
		Key:         "low-tide-ep",
		SKU:         "REC-LT-EP",
		Kind:        domain.KindRecord,
		Name:        "Low Tide EP",
		Description: "Four tracks on 12\" vinyl",
		ImageURL:    "/images/low-tide-ep.jpg",
		PriceCents:  1499,
		Currency:    "USD",
	},
	{
		Key:         "label-tee",
		SKU:         "MER-TEE",
		Kind:        domain.KindMerch,
		Name:        "Label T-Shirt",
		Description: "Soft cotton tee with the label logo",
		ImageURL:    "/images/label-tee.jpg",
		PriceCents:  1999,
		Currency:    "USD",
	},
	{
		Key:         "tote-bag",
		SKU:         "MER-TOTE",
		Kind:        domain.KindMerch,
		Name:        "Tote Bag",
		Description: "Canvas tote, fits a stack of records",
		ImageURL:    "/images/tote-bag.jpg",
		PriceCents:  1299,
		Currency:    "USD",
	},
}

var events = []eventSeed{
	{
		Slug:        "nightshift-release-party",
		Title:       "Nightshift Release Party",
		Venue:       "The Basement",
		City:        "Portland",
		StartsIn:    21 * 24 * time.Hour,
		Description: "Live set and listening session for the new LP",
		Ticket: domain.Product{
			Key:        "ticket-nightshift-release-party",
			SKU:        "TKT-NS-RP",
			Kind:       domain.KindTicket,
			Name:       "Nightshift Release Party ticket",
			PriceCents: 1500,
			Currency:   "USD",
		},
	},
	{
		Slug:        "label-showcase",
		Title:       "Label Showcase",
		Venue:       "Union Hall",
		City:        "Seattle",
		StartsIn:    45 * 24 * time.Hour,
		Description: "Every artist on the roster, one night",
		Ticket: domain.Product{
			Key:        "ticket-label-showcase",
			SKU:        "TKT-SHOWCASE",
			Kind:       domain.KindTicket,
			Name:       "Label Showcase ticket",
			PriceCents: 2500,
			Currency:   "USD",
		},
	},
}

// Seeder writes demo data for manual testing. Every step is idempotent.
type Seeder struct {
	products ProductWriter
	events   EventWriter
	users    UserCreator
	logger   *zap.Logger
	now      func() time.Time
}

func New(products ProductWriter, events EventWriter, users UserCreator, logger *zap.Logger) *Seeder {
	return &Seeder{
		products: products,
		events:   events,
		users:    users,
		logger:   logging.OrNop(logger),
		now:      time.Now,
	}
}

// Apply upserts the catalog, the events with their ticket products and the admin account.
func (s *Seeder) Apply(ctx context.Context, admin Admin) error {
	for _, p := range catalog {
		if _, err := s.products.Upsert(ctx, p); err != nil {
			return fmt.Errorf("upsert product %s: %w", p.Key, err)
		}
	}

	for _, e := range events {
		ticket, err := s.products.Upsert(ctx, e.Ticket)
		if err != nil {
			return fmt.Errorf("upsert ticket %s: %w", e.Ticket.Key, err)
		}
		ticketID := ticket.ID
		_, err = s.events.Upsert(ctx, domain.Event{
			Slug:            e.Slug,
			Title:           e.Title,
			Venue:           e.Venue,
			City:            e.City,
			StartsAt:        s.now().Add(e.StartsIn).Truncate(time.Hour),
			Description:     e.Description,
			TicketProductID: &ticketID,
		})
		if err != nil {
			return fmt.Errorf("upsert event %s: %w", e.Slug, err)
		}
	}
	s.logger.Info("catalog seeded", zap.Int("products", len(catalog)+len(events)), zap.Int("events", len(events)))

	if admin.Email == "" || admin.Password == "" {
		return nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(admin.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	_, err = s.users.Create(ctx, domain.User{
		Username:     admin.Username,
		Email:        admin.Email,
		PasswordHash: string(hash),
		Role:         domain.RoleAdmin,
	})
	switch {
	case errors.Is(err, domain.ErrAlreadyExists):
		s.logger.Info("admin already exists", zap.String("email", admin.Email))
	case err != nil:
		return fmt.Errorf("create admin: %w", err)
	default:
		s.logger.Info("admin created", zap.String("email", admin.Email))
	}
	return nil
}
