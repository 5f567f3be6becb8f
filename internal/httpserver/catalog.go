package httpserver

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"labelshop/internal/domain"
)

type productResponse struct {
	ID          string          `json:"id"`
	Slug        string          `json:"slug"`
	SKU         string          `json:"sku,omitempty"`
	Kind        string          `json:"kind"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	ImageURL    string          `json:"imageUrl,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Currency    string          `json:"currency"`
}

type eventResponse struct {
	ID          string           `json:"id"`
	Slug        string           `json:"slug"`
	Title       string           `json:"title"`
	Venue       string           `json:"venue"`
	City        string           `json:"city"`
	StartsAt    time.Time        `json:"startsAt"`
	Description string           `json:"description,omitempty"`
	ImageURL    string           `json:"imageUrl,omitempty"`
	Ticket      *productResponse `json:"ticket,omitempty"`
}

type listResponse[T any] struct {
	Count   int `json:"count"`
	Results []T `json:"results"`
}

func (h *handlers) listProducts(c *gin.Context) {
	products, err := h.deps.ProductSvc.List(c.Request.Context(), strings.TrimSpace(c.Query("kind")))
	if err != nil {
		h.writeError(c, err)
		return
	}
	out := make([]productResponse, 0, len(products))
	for _, p := range products {
		out = append(out, h.toProductResponse(p))
	}
	c.JSON(http.StatusOK, listResponse[productResponse]{Count: len(out), Results: out})
}

func (h *handlers) getProduct(c *gin.Context) {
	p, err := h.deps.ProductSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.toProductResponse(*p))
}

func (h *handlers) listEvents(c *gin.Context) {
	includePast, _ := strconv.ParseBool(c.DefaultQuery("past", "false"))
	events, err := h.deps.EventSvc.List(c.Request.Context(), includePast)
	if err != nil {
		h.writeError(c, err)
		return
	}
	out := make([]eventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, h.toEventResponse(e))
	}
	c.JSON(http.StatusOK, listResponse[eventResponse]{Count: len(out), Results: out})
}

func (h *handlers) getEvent(c *gin.Context) {
	e, err := h.deps.EventSvc.Get(c.Request.Context(), c.Param("slug"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.toEventResponse(*e))
}

func (h *handlers) toProductResponse(p domain.Product) productResponse {
	return productResponse{
		ID:          p.ID,
		Slug:        p.Key,
		SKU:         p.SKU,
		Kind:        p.Kind,
		Name:        p.Name,
		Description: p.Description,
		ImageURL:    h.assetURL(p.ImageURL),
		Price:       p.Price(),
		Currency:    p.Currency,
	}
}

func (h *handlers) toEventResponse(e domain.Event) eventResponse {
	resp := eventResponse{
		ID:          e.ID,
		Slug:        e.Slug,
		Title:       e.Title,
		Venue:       e.Venue,
		City:        e.City,
		StartsAt:    e.StartsAt,
		Description: e.Description,
		ImageURL:    h.assetURL(e.ImageURL),
	}
	if e.Ticket != nil {
		t := h.toProductResponse(*e.Ticket)
		resp.Ticket = &t
	}
	return resp
}

// assetURL prefixes relative image paths with the configured asset host.
func (h *handlers) assetURL(path string) string {
	if path == "" || h.opts.AssetURLHost == "" {
		return path
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return h.opts.AssetURLHost + "/" + strings.TrimLeft(path, "/")
}
