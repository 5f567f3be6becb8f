package httpserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"labelshop/internal/domain"
)

func catalogDeps() Deps {
	deps := testDeps()
	deps.ProductSvc = &stubProductService{products: []domain.Product{
		{ID: "p1", Key: "debut-lp", Kind: domain.KindRecord, Name: "Debut LP", ImageURL: "img/debut.jpg", PriceCents: 1999, Currency: "EUR"},
		{ID: "p2", Key: "tour-shirt", Kind: domain.KindMerch, Name: "Tour Shirt", ImageURL: "https://cdn.example.com/shirt.jpg", PriceCents: 2500, Currency: "EUR"},
	}}
	ticket := domain.Product{ID: "t1", Key: "release-night", Kind: domain.KindTicket, Name: "Release night", PriceCents: 1000, Currency: "EUR"}
	deps.EventSvc = &stubEventService{events: []domain.Event{
		{ID: "e1", Slug: "release-night", Title: "Release night", StartsAt: time.Date(2026, 11, 20, 20, 0, 0, 0, time.UTC), Ticket: &ticket},
	}}
	return deps
}

func TestListProducts_FiltersByKindAndFormatsPrice(t *testing.T) {
	router := newTestRouter(t, catalogDeps(), Options{AssetURLHost: "https://assets.example.com"})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/products?kind=record", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		Count   int `json:"count"`
		Results []struct {
			ID       string `json:"id"`
			Slug     string `json:"slug"`
			Price    string `json:"price"`
			ImageURL string `json:"imageUrl"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, 1, body.Count)
	assert.Equal(t, "debut-lp", body.Results[0].Slug)
	assert.Equal(t, "19.99", body.Results[0].Price)
	assert.Equal(t, "https://assets.example.com/img/debut.jpg", body.Results[0].ImageURL)
}

func TestGetProduct_BySlugKeepsAbsoluteImage(t *testing.T) {
	router := newTestRouter(t, catalogDeps(), Options{AssetURLHost: "https://assets.example.com"})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/products/tour-shirt", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"imageUrl":"https://cdn.example.com/shirt.jpg"`)
	assert.Contains(t, rec.Body.String(), `"price":"25"`)
}

func TestGetProduct_NotFound(t *testing.T) {
	router := newTestRouter(t, catalogDeps(), Options{})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/products/missing", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"message":"not found"}`, rec.Body.String())
}

func TestListProducts_InvalidKind(t *testing.T) {
	deps := catalogDeps()
	deps.ProductSvc = &stubProductService{err: domainInvalid("unknown kind")}
	router := newTestRouter(t, deps, Options{})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/products?kind=box", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"message":"unknown kind"}`, rec.Body.String())
}

func TestGetEvent_EmbedsTicket(t *testing.T) {
	router := newTestRouter(t, catalogDeps(), Options{})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/events/release-night", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body eventResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotNil(t, body.Ticket)
	assert.Equal(t, "t1", body.Ticket.ID)
	assert.Equal(t, "10", body.Ticket.Price.String())
}

func TestListEvents(t *testing.T) {
	router := newTestRouter(t, catalogDeps(), Options{})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/events?past=true", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"count":1`)
}
