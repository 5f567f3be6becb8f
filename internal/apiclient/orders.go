package apiclient

import (
	"context"
	"net/http"
)

// SubmitCOD places a cash-on-delivery order. Rejections come back as *APIError.
func (c *Client) SubmitCOD(ctx context.Context, in CODRequest) (*Order, error) {
	var out orderEnvelope
	if err := c.do(ctx, http.MethodPost, "/api/orders/cod", nil, in, &out); err != nil {
		return nil, err
	}
	return &out.Order, nil
}

func (c *Client) GetOrder(ctx context.Context, id string) (*Order, error) {
	var out orderEnvelope
	if err := c.do(ctx, http.MethodGet, "/api/orders/"+escape(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out.Order, nil
}

func (c *Client) OrderItems(ctx context.Context, id string) ([]OrderLine, error) {
	var out itemsEnvelope
	if err := c.do(ctx, http.MethodGet, "/api/orders/"+escape(id)+"/items", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

func (c *Client) MyOrders(ctx context.Context) ([]Order, error) {
	var out listEnvelope[Order]
	if err := c.do(ctx, http.MethodGet, "/api/orders", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}
