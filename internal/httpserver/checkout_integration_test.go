package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"labelshop/internal/domain"
	"labelshop/internal/migrate"
	eventrepo "labelshop/internal/repository/event"
	orderrepo "labelshop/internal/repository/order"
	productrepo "labelshop/internal/repository/product"
	tokenrepo "labelshop/internal/repository/token"
	userrepo "labelshop/internal/repository/user"
	authsvc "labelshop/internal/service/auth"
	eventsvc "labelshop/internal/service/event"
	ordersvc "labelshop/internal/service/order"
	productsvc "labelshop/internal/service/product"
)

func TestCheckout_IntegrationRegisterThenOrder(t *testing.T) {
	ctx := context.Background()
	pool := integrationPool(ctx, t)
	defer pool.Close()
	if err := migrate.Apply(ctx, pool); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	if _, err := pool.Exec(ctx, `TRUNCATE order_items, orders, events, products, tokens, users RESTART IDENTITY CASCADE`); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}

	products := productrepo.NewPostgres(pool, nil)
	lp, err := products.Upsert(ctx, domain.Product{Key: "debut-lp", SKU: "LP-1", Kind: domain.KindRecord, Name: "Debut LP", PriceCents: 1999, Currency: "EUR"})
	if err != nil {
		t.Fatalf("upsert product: %v", err)
	}

	gin.SetMode(gin.TestMode)
	router, err := buildRouter(zap.NewNop(), pool, Deps{
		AuthSvc:    authsvc.New(userrepo.NewPostgres(pool, nil), tokenrepo.NewPostgres(pool), authsvc.Config{Secret: "test"}, nil),
		ProductSvc: productsvc.New(products),
		EventSvc:   eventsvc.New(eventrepo.NewPostgres(pool)),
		OrderSvc:   ordersvc.New(orderrepo.NewPostgres(pool), products, nil),
	}, Options{})
	if err != nil {
		t.Fatalf("build router: %v", err)
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(`{"username":"ana","email":"ana@example.com","password":"Abcdefg1"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d body=%s", rec.Code, rec.Body.String())
	}
	var access *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == accessCookie {
			access = c
		}
	}
	if access == nil {
		t.Fatalf("expected access cookie")
	}

	body := `{"customer":{"fullName":"Ana","phone":"555"},"shipping":{"address":"1 Main","city":"Lisbon","country":"PT"},
"items":[{"productId":"` + lp.ID + `","quantity":2},{"productId":"` + lp.ID + `","quantity":1}]}`
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/orders/cod", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(access)
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("place order: expected 201, got %d body=%s", rec.Code, rec.Body.String())
	}

	var placed struct {
		Order struct {
			ID    string `json:"id"`
			Total string `json:"total"`
			Items []struct {
				Quantity int `json:"quantity"`
			} `json:"items"`
		} `json:"order"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &placed); err != nil {
		t.Fatalf("decode order: %v", err)
	}
	if placed.Order.Total != "59.97" || len(placed.Order.Items) != 1 || placed.Order.Items[0].Quantity != 3 {
		t.Fatalf("unexpected order %+v", placed.Order)
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/orders/"+placed.Order.ID, nil)
	req.AddCookie(access)
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("get order: expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
}

func integrationPool(ctx context.Context, t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	return pool
}
