package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	KindRecord = "record"
	KindMerch  = "merch"
	KindTicket = "ticket"
)

type Product struct {
	ID          string    `json:"id"`
	Key         string    `json:"key"`
	SKU         string    `json:"sku"`
	Kind        string    `json:"kind"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	ImageURL    string    `json:"imageUrl,omitempty"`
	PriceCents  int64     `json:"priceCents"`
	Currency    string    `json:"currency"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Price returns the unit price as an exact two-decimal amount.
func (p Product) Price() decimal.Decimal {
	return CentsToDecimal(p.PriceCents)
}

// CentsToDecimal converts minor units into a decimal amount with two fraction digits.
func CentsToDecimal(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

// DecimalToCents converts an amount into minor units, rounding half away from zero.
func DecimalToCents(d decimal.Decimal) int64 {
	return d.Shift(2).Round(0).IntPart()
}

// ValidKind reports whether k is one of the supported product kinds.
func ValidKind(k string) bool {
	switch k {
	case KindRecord, KindMerch, KindTicket:
		return true
	}
	return false
}
