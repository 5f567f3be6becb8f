package httpserver

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"labelshop/internal/domain"
	ordersvc "labelshop/internal/service/order"
)

type orderLineResponse struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Total     decimal.Decimal `json:"total"`
}

type orderResponse struct {
	ID            string               `json:"id"`
	Status        string               `json:"status"`
	PaymentMethod string               `json:"paymentMethod"`
	Currency      string               `json:"currency"`
	Total         decimal.Decimal      `json:"total"`
	Customer      domain.OrderCustomer `json:"customer"`
	Shipping      domain.OrderShipping `json:"shipping"`
	CreatedAt     time.Time            `json:"createdAt"`
	Items         []orderLineResponse  `json:"items,omitempty"`
}

func toOrderLines(lines []domain.OrderLine) []orderLineResponse {
	out := make([]orderLineResponse, 0, len(lines))
	for _, l := range lines {
		out = append(out, orderLineResponse{
			ProductID: l.ProductID,
			Name:      l.Name,
			Quantity:  l.Quantity,
			UnitPrice: domain.CentsToDecimal(l.UnitPriceCents),
			Total:     domain.CentsToDecimal(l.TotalCents),
		})
	}
	return out
}

func toOrderResponse(o domain.Order) orderResponse {
	resp := orderResponse{
		ID:            o.ID,
		Status:        o.Status,
		PaymentMethod: o.PaymentMethod,
		Currency:      o.Currency,
		Total:         domain.CentsToDecimal(o.TotalCents),
		Customer:      o.Customer,
		Shipping:      o.Shipping,
		CreatedAt:     o.CreatedAt,
	}
	if len(o.Lines) > 0 {
		resp.Items = toOrderLines(o.Lines)
	}
	return resp
}

// placeCOD accepts a cart batch for cash on delivery. Signed-in callers own the order.
func (h *handlers) placeCOD(c *gin.Context) {
	var req ordersvc.CODInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	var userID *string
	if u := currentUser(c); u != nil {
		id := u.ID
		userID = &id
	}
	o, err := h.deps.OrderSvc.PlaceCOD(c.Request.Context(), userID, req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"order": toOrderResponse(*o)})
}

func (h *handlers) getOrder(c *gin.Context) {
	o, err := h.deps.OrderSvc.Get(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": toOrderResponse(*o)})
}

func (h *handlers) orderItems(c *gin.Context) {
	lines, err := h.deps.OrderSvc.Items(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": toOrderLines(lines)})
}

func (h *handlers) myOrders(c *gin.Context) {
	orders, err := h.deps.OrderSvc.ListMine(c.Request.Context(), *currentUser(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	out := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, toOrderResponse(o))
	}
	c.JSON(http.StatusOK, listResponse[orderResponse]{Count: len(out), Results: out})
}
