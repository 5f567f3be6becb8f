package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// ListProducts returns the catalog, optionally filtered by kind (record, merch, ticket).
func (c *Client) ListProducts(ctx context.Context, kind string) ([]Product, error) {
	q := url.Values{}
	if kind != "" {
		q.Set("kind", kind)
	}
	var out listEnvelope[Product]
	if err := c.do(ctx, http.MethodGet, "/api/products", q, nil, &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}

// GetProduct looks a product up by id or slug.
func (c *Client) GetProduct(ctx context.Context, idOrSlug string) (*Product, error) {
	var out Product
	if err := c.do(ctx, http.MethodGet, "/api/products/"+escape(idOrSlug), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListEvents(ctx context.Context, includePast bool) ([]Event, error) {
	q := url.Values{}
	if includePast {
		q.Set("past", strconv.FormatBool(true))
	}
	var out listEnvelope[Event]
	if err := c.do(ctx, http.MethodGet, "/api/events", q, nil, &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}

func (c *Client) GetEvent(ctx context.Context, slug string) (*Event, error) {
	var out Event
	if err := c.do(ctx, http.MethodGet, "/api/events/"+escape(slug), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
