package domain

import "time"

const (
	OrderStatusPending   = "pending"
	OrderStatusConfirmed = "confirmed"
	OrderStatusCancelled = "cancelled"

	PaymentCOD = "cod"

	// MaxLineQuantity caps the units of one product in a single order.
	MaxLineQuantity = 999
)

type OrderCustomer struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
}

type OrderShipping struct {
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode,omitempty"`
	Country    string `json:"country"`
	Notes      string `json:"notes,omitempty"`
}

type Order struct {
	ID            string        `json:"id"`
	UserID        *string       `json:"userId,omitempty"`
	Status        string        `json:"status"`
	PaymentMethod string        `json:"paymentMethod"`
	Currency      string        `json:"currency"`
	TotalCents    int64         `json:"totalCents"`
	Customer      OrderCustomer `json:"customer"`
	Shipping      OrderShipping `json:"shipping"`
	CreatedAt     time.Time     `json:"createdAt"`
	Lines         []OrderLine   `json:"items,omitempty"`
}

type OrderLine struct {
	ID             string    `json:"id"`
	OrderID        string    `json:"orderId"`
	ProductID      string    `json:"productId"`
	Name           string    `json:"name"`
	Quantity       int       `json:"quantity"`
	UnitPriceCents int64     `json:"unitPriceCents"`
	TotalCents     int64     `json:"totalCents"`
	CreatedAt      time.Time `json:"createdAt"`
}

// OwnedBy reports whether the order belongs to userID.
func (o Order) OwnedBy(userID string) bool {
	return o.UserID != nil && *o.UserID == userID
}
