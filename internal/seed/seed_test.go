package seed

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"labelshop/internal/domain"
)

type memProducts struct {
	byKey map[string]domain.Product
}

func (m *memProducts) Upsert(_ context.Context, p domain.Product) (*domain.Product, error) {
	if m.byKey == nil {
		m.byKey = map[string]domain.Product{}
	}
	if existing, ok := m.byKey[p.Key]; ok {
		p.ID = existing.ID
	} else {
		p.ID = fmt.Sprintf("p-%d", len(m.byKey)+1)
	}
	m.byKey[p.Key] = p
	return &p, nil
}

type memEvents struct {
	bySlug map[string]domain.Event
}

func (m *memEvents) Upsert(_ context.Context, e domain.Event) (*domain.Event, error) {
	if m.bySlug == nil {
		m.bySlug = map[string]domain.Event{}
	}
	m.bySlug[e.Slug] = e
	return &e, nil
}

type memUsers struct {
	created []domain.User
}

func (m *memUsers) Create(_ context.Context, u domain.User) (*domain.User, error) {
	for _, existing := range m.created {
		if existing.Email == u.Email {
			return nil, domain.ErrAlreadyExists
		}
	}
	m.created = append(m.created, u)
	return &u, nil
}

func newTestSeeder() (*Seeder, *memProducts, *memEvents, *memUsers) {
	products := &memProducts{}
	evs := &memEvents{}
	users := &memUsers{}
	s := New(products, evs, users, nil)
	s.now = func() time.Time { return time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC) }
	return s, products, evs, users
}

func TestApplyLinksTicketsToEvents(t *testing.T) {
	s, products, evs, _ := newTestSeeder()

	require.NoError(t, s.Apply(context.Background(), Admin{}))

	assert.Len(t, products.byKey, len(catalog)+len(events))
	require.Len(t, evs.bySlug, len(events))
	for _, e := range events {
		got := evs.bySlug[e.Slug]
		require.NotNil(t, got.TicketProductID, e.Slug)
		ticket := products.byKey[e.Ticket.Key]
		assert.Equal(t, ticket.ID, *got.TicketProductID)
		assert.Equal(t, domain.KindTicket, ticket.Kind)
		assert.True(t, got.StartsAt.After(s.now()))
	}
}

func TestApplyIsIdempotent(t *testing.T) {
	s, products, _, users := newTestSeeder()
	admin := Admin{Username: "admin", Email: "admin@example.com", Password: "changeme123"}

	require.NoError(t, s.Apply(context.Background(), admin))
	firstIDs := map[string]string{}
	for k, p := range products.byKey {
		firstIDs[k] = p.ID
	}
	require.NoError(t, s.Apply(context.Background(), admin))

	for k, p := range products.byKey {
		assert.Equal(t, firstIDs[k], p.ID, k)
	}
	require.Len(t, users.created, 1)
	assert.Equal(t, domain.RoleAdmin, users.created[0].Role)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(users.created[0].PasswordHash), []byte("changeme123")))
}

func TestApplySkipsAdminWithoutCredentials(t *testing.T) {
	s, _, _, users := newTestSeeder()
	require.NoError(t, s.Apply(context.Background(), Admin{Username: "admin"}))
	assert.Empty(t, users.created)
}
