package checkout

import (
	"context"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"labelshop/internal/apiclient"
	"labelshop/internal/cart"
	"labelshop/internal/clientstore"
)

type stubSubmitter struct {
	got   *apiclient.CODRequest
	calls int
	err   error
}

func (s *stubSubmitter) SubmitCOD(_ context.Context, in apiclient.CODRequest) (*apiclient.Order, error) {
	s.calls++
	s.got = &in
	if s.err != nil {
		return nil, s.err
	}
	return &apiclient.Order{ID: "o1", Currency: "EUR", Total: decimal.RequireFromString("61.00")}, nil
}

func filledCart(t *testing.T) *cart.Engine {
	t.Helper()
	ctx := context.Background()
	e := cart.New(ctx, cart.NewStoragePersister(clientstore.NewMemory(), clientstore.KeyCart))
	require.NoError(t, e.Add(ctx, cart.Product{ID: "A", Name: "A", UnitPrice: decimal.RequireFromString("10.00"), Currency: "EUR"}, 1))
	require.NoError(t, e.Add(ctx, cart.Product{ID: "B", Name: "B", UnitPrice: decimal.RequireFromString("25.50"), Currency: "EUR"}, 2))
	return e
}

var (
	customer = apiclient.Customer{FullName: "Ana", Phone: "555"}
	shipping = apiclient.Shipping{Address: "1 Main", City: "Lisbon", Country: "PT"}
)

func TestPlaceCOD_ClearsCartOnSuccess(t *testing.T) {
	e := filledCart(t)
	sub := &stubSubmitter{}
	svc := New(e, sub, nil)

	order, err := svc.PlaceCOD(context.Background(), customer, shipping)
	require.NoError(t, err)
	assert.Equal(t, "o1", order.ID)

	require.NotNil(t, sub.got)
	assert.Equal(t, []apiclient.OrderItem{{ProductID: "A", Quantity: 1}, {ProductID: "B", Quantity: 2}}, sub.got.Items)
	assert.Equal(t, "Lisbon", sub.got.Shipping.City)

	assert.Zero(t, e.Count())
	assert.Empty(t, e.Lines())
}

func TestPlaceCOD_BusinessErrorKeepsCart(t *testing.T) {
	e := filledCart(t)
	rejection := &apiclient.APIError{Status: http.StatusBadRequest, Message: "mixed currencies"}
	sub := &stubSubmitter{err: rejection}
	svc := New(e, sub, nil)

	_, err := svc.PlaceCOD(context.Background(), customer, shipping)
	assert.Same(t, rejection, err)
	assert.Equal(t, 1, sub.calls)
	assert.Equal(t, 3, e.Count())
}

func TestPlaceCOD_EmptyCart(t *testing.T) {
	e := cart.New(context.Background(), cart.NewStoragePersister(clientstore.NewMemory(), ""))
	sub := &stubSubmitter{}

	_, err := New(e, sub, nil).PlaceCOD(context.Background(), customer, shipping)
	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Zero(t, sub.calls)
}
