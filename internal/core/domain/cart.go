package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// MaxLineQuantity caps a single cart line.
const MaxLineQuantity = 10000

type CartItem struct {
	ProductID   string          `json:"productId"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
	Image       string          `json:"image"`
	DataAIHint  string          `json:"dataAiHint"`
	Category    string          `json:"category,omitempty"`
	Quantity    int             `json:"quantity"`
	AddedAt     time.Time       `json:"addedAt"`
}

// NewCartItem snapshots the product fields a cart line keeps.
func NewCartItem(p Product, quantity int, now time.Time) CartItem {
	return CartItem{
		ProductID:   p.ID,
		Name:        p.Name,
		Price:       p.Price,
		Description: p.Description,
		Image:       p.Image,
		DataAIHint:  p.DataAIHint,
		Category:    p.Category,
		Quantity:    quantity,
		AddedAt:     now,
	}
}

type Cart struct {
	ID          string          `json:"id"`
	UserID      string          `json:"userId"`
	Items       []CartItem      `json:"items"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	TotalItems  int             `json:"totalItems"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// Recalculate refreshes the derived totals from the current lines.
func (c *Cart) Recalculate() {
	total := decimal.Zero
	count := 0
	for _, item := range c.Items {
		total = total.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
		count += item.Quantity
	}
	c.TotalAmount = total
	c.TotalItems = count
}

// IndexOf returns the position of the line for productID, or -1.
func (c *Cart) IndexOf(productID string) int {
	for i, item := range c.Items {
		if item.ProductID == productID {
			return i
		}
	}
	return -1
}

// Clone returns a copy that shares no item storage with c.
func (c Cart) Clone() Cart {
	items := make([]CartItem, len(c.Items))
	copy(items, c.Items)
	c.Items = items
	return c
}

type CartSummary struct {
	TotalItems  int             `json:"totalItems"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	ItemCount   int             `json:"itemCount"`
}
