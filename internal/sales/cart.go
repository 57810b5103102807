package sales

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/matthieukhl/pocketpos/internal/models"
	"github.com/matthieukhl/pocketpos/internal/tenant"
)

// CartLine is one product in the cart with the price it was scanned at
type CartLine struct {
	ProductID int64   `json:"product_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
}

// Subtotal is quantity times price, rounded to cents
func (l CartLine) Subtotal() float64 {
	return decimal.NewFromFloat(l.Price).Mul(decimal.NewFromInt(int64(l.Quantity))).Round(2).InexactFloat64()
}

// Cart collects scanned products before checkout. Prices are captured when
// a product is added, which is the price the sale total is computed from.
type Cart struct {
	lines []CartLine
}

// Add puts qty units of p in the cart, merging with an existing line
func (c *Cart) Add(p models.Product, qty int) error {
	if qty <= 0 {
		return models.Invalid("quantity must be positive")
	}
	for i := range c.lines {
		if c.lines[i].ProductID == p.ID {
			c.lines[i].Quantity += qty
			return nil
		}
	}
	c.lines = append(c.lines, CartLine{ProductID: p.ID, Name: p.Name, Price: p.Price, Quantity: qty})
	return nil
}

// Remove drops a product from the cart
func (c *Cart) Remove(productID int64) {
	for i := range c.lines {
		if c.lines[i].ProductID == productID {
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
			return
		}
	}
}

// Lines returns a copy of the cart contents
func (c *Cart) Lines() []CartLine {
	out := make([]CartLine, len(c.lines))
	copy(out, c.lines)
	return out
}

func (c *Cart) Len() int {
	return len(c.lines)
}

// Total sums quantity times price over every line, rounded to cents
func (c *Cart) Total() float64 {
	sum := decimal.Zero
	for _, l := range c.lines {
		sum = sum.Add(decimal.NewFromFloat(l.Price).Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return sum.Round(2).InexactFloat64()
}

// Items converts the cart into sale line items
func (c *Cart) Items() []models.LineItem {
	items := make([]models.LineItem, 0, len(c.lines))
	for _, l := range c.lines {
		items = append(items, models.LineItem{ProductID: l.ProductID, Quantity: l.Quantity})
	}
	return items
}

// Checkout records the cart as a sale and empties it on success
func (c *Cart) Checkout(ctx context.Context, r *Recorder, t tenant.ID, at time.Time) (int64, error) {
	if c.Len() == 0 {
		return 0, models.Invalid("cart is empty")
	}
	id, err := r.RecordSale(ctx, t, at, c.Total(), c.Items())
	if err != nil {
		return 0, err
	}
	c.lines = nil
	return id, nil
}
