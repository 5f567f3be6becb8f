package apiclient

import (
	"errors"

	"labelshop/internal/cart"
)

// ErrNoTicket is returned by TicketLine for events without a ticket product.
var ErrNoTicket = errors.New("apiclient: event has no tickets on sale")

// ProductLine is the cart snapshot of a catalog product.
func ProductLine(p Product) cart.Product {
	return cart.Product{
		ID:          p.ID,
		Slug:        p.Slug,
		Name:        p.Name,
		Description: p.Description,
		ImageURL:    p.ImageURL,
		UnitPrice:   p.Price,
		Currency:    p.Currency,
	}
}

// TicketLine is the cart snapshot of an event's ticket. The line is named after the
// event and falls back to the event image.
func TicketLine(e Event) (cart.Product, error) {
	if e.Ticket == nil {
		return cart.Product{}, ErrNoTicket
	}
	line := ProductLine(*e.Ticket)
	line.Name = "Ticket: " + e.Title
	if line.Description == "" {
		line.Description = e.Venue + ", " + e.City + " " + e.StartsAt.Format("2006-01-02 15:04")
	}
	if line.ImageURL == "" {
		line.ImageURL = e.ImageURL
	}
	return line, nil
}
