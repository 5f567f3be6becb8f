package domain

import "time"

// Event is a show or label night. Tickets are sold through a linked ticket product.
type Event struct {
	ID              string    `json:"id"`
	Slug            string    `json:"slug"`
	Title           string    `json:"title"`
	Venue           string    `json:"venue"`
	City            string    `json:"city"`
	StartsAt        time.Time `json:"startsAt"`
	Description     string    `json:"description,omitempty"`
	ImageURL        string    `json:"imageUrl,omitempty"`
	TicketProductID *string   `json:"ticketProductId,omitempty"`
	Ticket          *Product  `json:"ticket,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}
