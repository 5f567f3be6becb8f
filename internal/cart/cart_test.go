package cart

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"labelshop/internal/clientstore"
)

type memPersister struct {
	lines   []Line
	loadErr error
	saveErr error
	saves   int
}

func (m *memPersister) Load(context.Context) ([]Line, error) {
	return m.lines, m.loadErr
}

func (m *memPersister) Save(_ context.Context, lines []Line) error {
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.lines = lines
	return nil
}

func product(id, price string) Product {
	return Product{ID: id, Name: "Item " + id, UnitPrice: decimal.RequireFromString(price), Currency: "EUR"}
}

func newEngine(t *testing.T) (*Engine, *memPersister) {
	t.Helper()
	p := &memPersister{}
	return New(context.Background(), p), p
}

func TestAdd_MergesRepeatedAddsInFirstPosition(t *testing.T) {
	ctx := context.Background()
	e, _ := newEngine(t)

	require.NoError(t, e.Add(ctx, product("a", "1.00"), 1))
	require.NoError(t, e.Add(ctx, product("b", "2.00"), 1))
	for _, q := range []int{2, 3, 4} {
		require.NoError(t, e.Add(ctx, product("a", "1.00"), q))
	}

	lines := e.Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, "a", lines[0].ProductID)
	assert.Equal(t, 1+2+3+4, lines[0].Quantity)
	assert.Equal(t, "b", lines[1].ProductID)
}

func TestAdd_ClampsNonPositiveQuantity(t *testing.T) {
	ctx := context.Background()
	e, _ := newEngine(t)

	require.NoError(t, e.Add(ctx, product("a", "1.00"), 0))
	require.NoError(t, e.Add(ctx, product("a", "1.00"), -5))
	assert.Equal(t, 2, e.Count())
}

func TestQuantity_CappedPerLine(t *testing.T) {
	ctx := context.Background()
	e, p := newEngine(t)
	maxInt := int(^uint(0) >> 1)

	require.NoError(t, e.Add(ctx, product("a", "1.00"), MaxQuantity-1))
	require.NoError(t, e.Add(ctx, product("a", "1.00"), maxInt))
	assert.Equal(t, MaxQuantity, e.Lines()[0].Quantity)
	assert.Equal(t, MaxQuantity, p.lines[0].Quantity)

	require.NoError(t, e.Add(ctx, product("b", "1.00"), maxInt))
	assert.Equal(t, MaxQuantity, e.Lines()[1].Quantity)

	e.UpdateQuantity(ctx, "b", MaxQuantity+5)
	assert.Equal(t, MaxQuantity, e.Lines()[1].Quantity)
	assert.Equal(t, 2*MaxQuantity, e.Count())
}

func TestNew_CapsRestoredQuantities(t *testing.T) {
	p := &memPersister{lines: []Line{
		{ProductID: "a", UnitPrice: decimal.RequireFromString("1.00"), Currency: "EUR", Quantity: MaxQuantity},
		{ProductID: "a", UnitPrice: decimal.RequireFromString("1.00"), Currency: "EUR", Quantity: int(^uint(0) >> 1)},
	}}
	e := New(context.Background(), p)

	require.Len(t, e.Lines(), 1)
	assert.Equal(t, MaxQuantity, e.Lines()[0].Quantity)
}

func TestAdd_RejectsInvalidSnapshots(t *testing.T) {
	ctx := context.Background()
	e, p := newEngine(t)

	cases := map[string]Product{
		"missing id":       {Name: "x", UnitPrice: decimal.NewFromInt(1), Currency: "EUR"},
		"missing name":     {ID: "a", UnitPrice: decimal.NewFromInt(1), Currency: "EUR"},
		"negative price":   {ID: "a", Name: "x", UnitPrice: decimal.NewFromInt(-1), Currency: "EUR"},
		"missing currency": {ID: "a", Name: "x", UnitPrice: decimal.NewFromInt(1)},
	}
	for name, prod := range cases {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, e.Add(ctx, prod, 1), ErrInvalidProduct)
		})
	}
	assert.Zero(t, e.Count())
	assert.Zero(t, p.saves)
}

func TestAdd_RejectsCurrencyMismatch(t *testing.T) {
	ctx := context.Background()
	e, _ := newEngine(t)

	require.NoError(t, e.Add(ctx, product("a", "1.00"), 1))
	usd := product("b", "1.00")
	usd.Currency = "usd"
	assert.ErrorIs(t, e.Add(ctx, usd, 1), ErrCurrencyMismatch)

	lower := product("c", "1.00")
	lower.Currency = "eur"
	require.NoError(t, e.Add(ctx, lower, 1))
	assert.Equal(t, "EUR", e.Currency())
	assert.Equal(t, 2, e.Count())
}

func TestTotal_IsExact(t *testing.T) {
	ctx := context.Background()

	e, _ := newEngine(t)
	require.NoError(t, e.Add(ctx, product("a", "19.99"), 3))
	assert.Equal(t, "59.97", e.Total().StringFixed(2))
	assert.True(t, e.Total().Equal(decimal.RequireFromString("59.97")))

	e, _ = newEngine(t)
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, e.Add(ctx, product(id, "19.99"), 1))
	}
	assert.True(t, e.Total().Equal(decimal.RequireFromString("59.97")))

	e, _ = newEngine(t)
	require.NoError(t, e.Add(ctx, product("a", "0.10"), 1))
	require.NoError(t, e.Add(ctx, product("b", "0.20"), 1))
	assert.True(t, e.Total().Equal(decimal.RequireFromString("0.30")))
}

func TestRemove(t *testing.T) {
	ctx := context.Background()
	e, p := newEngine(t)
	require.NoError(t, e.Add(ctx, product("a", "1.00"), 2))
	require.NoError(t, e.Add(ctx, product("b", "1.00"), 5))

	before := e.Count()
	e.Remove(ctx, "b")
	assert.Equal(t, before-5, e.Count())
	for _, l := range e.Lines() {
		assert.NotEqual(t, "b", l.ProductID)
	}

	saves := p.saves
	lines := e.Lines()
	e.Remove(ctx, "missing")
	assert.Equal(t, lines, e.Lines())
	assert.Equal(t, saves, p.saves)
}

func TestUpdateQuantity_ClampsAndIgnoresUnknown(t *testing.T) {
	ctx := context.Background()
	e, _ := newEngine(t)
	require.NoError(t, e.Add(ctx, product("a", "1.00"), 4))

	e.UpdateQuantity(ctx, "a", 0)
	assert.Equal(t, 1, e.Count())

	e.UpdateQuantity(ctx, "a", 7)
	assert.Equal(t, 7, e.Count())

	e.UpdateQuantity(ctx, "nope", 3)
	assert.Len(t, e.Lines(), 1)
}

func TestClear_PersistsEmptyCart(t *testing.T) {
	ctx := context.Background()
	e, p := newEngine(t)
	require.NoError(t, e.Add(ctx, product("a", "1.00"), 4))

	e.Clear(ctx)
	assert.Zero(t, e.Count())
	assert.Empty(t, e.Lines())
	assert.Empty(t, p.lines)
	assert.Equal(t, "", e.Currency())
}

func TestScenario_AddUpdateRemove(t *testing.T) {
	ctx := context.Background()
	e, _ := newEngine(t)

	require.NoError(t, e.Add(ctx, product("A", "10.00"), 1))
	require.NoError(t, e.Add(ctx, product("B", "25.50"), 2))
	assert.Equal(t, 3, e.Count())
	assert.True(t, e.Total().Equal(decimal.RequireFromString("61.00")))

	e.UpdateQuantity(ctx, "A", 3)
	assert.Equal(t, 5, e.Count())
	assert.True(t, e.Total().Equal(decimal.RequireFromString("81.00")))

	e.Remove(ctx, "B")
	assert.Equal(t, 3, e.Count())
	assert.True(t, e.Total().Equal(decimal.RequireFromString("30.00")))
	lines := e.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, "A", lines[0].ProductID)
}

func TestPersistenceFailure_DegradesToMemory(t *testing.T) {
	ctx := context.Background()
	core, logs := observer.New(zap.WarnLevel)
	p := &memPersister{saveErr: errors.New("quota exceeded")}
	e := New(ctx, p, WithLogger(zap.New(core)))

	require.NoError(t, e.Add(ctx, product("a", "1.00"), 1))
	require.NoError(t, e.Add(ctx, product("a", "1.00"), 1))
	assert.Equal(t, 2, e.Count())
	assert.True(t, e.Degraded())
	assert.Equal(t, 1, logs.FilterMessage("persist cart failed, keeping in-memory state").Len())

	p.saveErr = nil
	e.Remove(ctx, "a")
	assert.False(t, e.Degraded())
}

func TestNew_RestoresAndSanitizes(t *testing.T) {
	p := &memPersister{lines: []Line{
		{ProductID: "a", Name: "A", UnitPrice: decimal.NewFromInt(1), Currency: "eur", Quantity: 1},
		{ProductID: "", Name: "blank", Currency: "EUR", Quantity: 1},
		{ProductID: "b", Name: "B", UnitPrice: decimal.NewFromInt(2), Currency: "EUR", Quantity: 0},
		{ProductID: "a", Name: "A", UnitPrice: decimal.NewFromInt(1), Currency: "EUR", Quantity: 2},
		{ProductID: "c", Name: "C", UnitPrice: decimal.NewFromInt(3), Currency: "USD", Quantity: 1},
	}}
	e := New(context.Background(), p)

	lines := e.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, "a", lines[0].ProductID)
	assert.Equal(t, 3, lines[0].Quantity)
	assert.Equal(t, "EUR", e.Currency())
}

func TestNew_LoadErrorStartsEmpty(t *testing.T) {
	e := New(context.Background(), &memPersister{loadErr: errors.New("corrupt")})
	assert.Zero(t, e.Count())
}

func TestStoragePersister_SurvivesRestart(t *testing.T) {
	ctx := context.Background()
	store := clientstore.NewMemory()

	first := New(ctx, NewStoragePersister(store, clientstore.KeyCart))
	require.NoError(t, first.Add(ctx, product("a", "19.99"), 2))

	second := New(ctx, NewStoragePersister(store, ""))
	assert.Equal(t, 2, second.Count())
	assert.True(t, second.Total().Equal(decimal.RequireFromString("39.98")))

	raw, err := store.Get(ctx, clientstore.KeyCart)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"unitPrice":"19.99"`)
}

func TestStoragePersister_CorruptDataStartsEmpty(t *testing.T) {
	ctx := context.Background()
	store := clientstore.NewMemory()
	require.NoError(t, store.Set(ctx, clientstore.KeyCart, []byte("{not json")))

	_, err := NewStoragePersister(store, clientstore.KeyCart).Load(ctx)
	assert.Error(t, err)

	e := New(ctx, NewStoragePersister(store, clientstore.KeyCart))
	assert.Zero(t, e.Count())
}

func TestEngine_ConcurrentAdds(t *testing.T) {
	ctx := context.Background()
	e, _ := newEngine(t)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = e.Add(ctx, product("a", "1.25"), 2)
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, e.Count())
	assert.True(t, e.Total().Equal(decimal.RequireFromString("125")))
}
