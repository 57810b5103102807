package models

import (
	"time"
)

// SaleDateLayout is the ISO-8601 form sale dates are stored in. It is fixed
// width and always UTC, so text order equals time order.
const SaleDateLayout = "2006-01-02T15:04:05.000Z"

// Sale is one completed checkout
type Sale struct {
	ID       int64      `json:"id" db:"id"`
	TenantID int64      `json:"tenant_id" db:"tenant_id"`
	Date     string     `json:"date" db:"date"`
	Total    float64    `json:"total" db:"total"`
	Items    []SaleItem `json:"items,omitempty" db:"-"`
}

// SaleItem is one product-and-quantity line of a sale. Name and Price are
// filled from products on reads and are not stored on the line.
type SaleItem struct {
	SaleID    int64   `json:"sale_id" db:"sale_id"`
	ProductID int64   `json:"product_id" db:"product_id"`
	TenantID  int64   `json:"tenant_id" db:"tenant_id"`
	Quantity  int     `json:"quantity" db:"quantity"`
	Name      string  `json:"name,omitempty" db:"name"`
	Price     float64 `json:"price,omitempty" db:"price"`
}

// LineItem is a requested line of a new sale
type LineItem struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Quantity  int   `json:"quantity" validate:"gt=0"`
}

// FormatSaleDate renders t in the stored sale date form
func FormatSaleDate(t time.Time) string {
	return t.UTC().Format(SaleDateLayout)
}

// ParseSaleDate parses a stored sale date. RFC 3339 input is accepted as well.
func ParseSaleDate(s string) (time.Time, error) {
	t, err := time.Parse(SaleDateLayout, s)
	if err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}

// Time returns the sale date as a time, zero when unparsable
func (s Sale) Time() time.Time {
	t, _ := ParseSaleDate(s.Date)
	return t
}
