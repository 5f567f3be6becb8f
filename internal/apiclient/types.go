package apiclient

import (
	"time"

	"github.com/shopspring/decimal"
)

type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

type Product struct {
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

type Event struct {
	ID          string    `json:"id"`
	Slug        string    `json:"slug"`
	Title       string    `json:"title"`
	Venue       string    `json:"venue"`
	City        string    `json:"city"`
	StartsAt    time.Time `json:"startsAt"`
	Description string    `json:"description,omitempty"`
	ImageURL    string    `json:"imageUrl,omitempty"`
	Ticket      *Product  `json:"ticket,omitempty"`
}

type Customer struct {
	FullName string `json:"fullName"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone"`
}

type Shipping struct {
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode,omitempty"`
	Country    string `json:"country"`
	Notes      string `json:"notes,omitempty"`
}

type OrderItem struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// CODRequest is a cash-on-delivery order batch.
type CODRequest struct {
	Customer Customer    `json:"customer"`
	Shipping Shipping    `json:"shipping"`
	Items    []OrderItem `json:"items"`
}

type OrderLine struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Total     decimal.Decimal `json:"total"`
}

type Order struct {
	ID            string          `json:"id"`
	Status        string          `json:"status"`
	PaymentMethod string          `json:"paymentMethod"`
	Currency      string          `json:"currency"`
	Total         decimal.Decimal `json:"total"`
	Customer      Customer        `json:"customer"`
	Shipping      Shipping        `json:"shipping"`
	CreatedAt     time.Time       `json:"createdAt"`
	Items         []OrderLine     `json:"items,omitempty"`
}

type authEnvelope struct {
	User        User   `json:"user"`
	AccessToken string `json:"accessToken,omitempty"`
}

type listEnvelope[T any] struct {
	Count   int `json:"count"`
	Results []T `json:"results"`
}

type orderEnvelope struct {
	Order Order `json:"order"`
}

type itemsEnvelope struct {
	Items []OrderLine `json:"items"`
}
