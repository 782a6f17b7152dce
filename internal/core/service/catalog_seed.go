package service

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/rl1809/my-basket/internal/core/domain"
)

// DefaultCatalog is the grocery assortment the product service starts with.
func DefaultCatalog(now time.Time) []domain.Product {
	type seed struct {
		id, name, price, description, hint, category string
		inStock                                      bool
	}
	seeds := []seed{
		{"1", "Organic Apples", "3.99", "Crisp and sweet organic apples, perfect for snacking.", "apples", "fruits", true},
		{"2", "Bananas", "1.29", "A bunch of ripe yellow bananas.", "bananas", "fruits", true},
		{"3", "Whole Milk", "2.49", "Fresh whole milk, one gallon.", "milk", "dairy", true},
		{"4", "Sourdough Bread", "4.50", "Artisan sourdough loaf baked daily.", "bread", "bakery", true},
		{"5", "Free Range Eggs", "5.99", "A dozen free range large brown eggs.", "eggs", "dairy", true},
		{"6", "Baby Spinach", "3.29", "Pre-washed tender baby spinach leaves.", "spinach", "vegetables", true},
		{"7", "Chicken Breast", "8.99", "Boneless skinless chicken breast, one pound.", "chicken", "meat", true},
		{"8", "Aged Cheddar", "6.49", "Sharp cheddar cheese aged twelve months.", "cheese", "dairy", false},
		{"9", "Roma Tomatoes", "2.99", "Vine ripened roma tomatoes.", "tomatoes", "vegetables", true},
		{"10", "Extra Virgin Olive Oil", "11.99", "Cold pressed extra virgin olive oil.", "olive oil", "pantry", true},
	}

	products := make([]domain.Product, 0, len(seeds))
	for _, s := range seeds {
		products = append(products, domain.Product{
			ID:          s.id,
			Name:        s.name,
			Price:       decimal.RequireFromString(s.price),
			Description: s.description,
			Image:       "https://placehold.co/600x400.png",
			DataAIHint:  s.hint,
			Category:    s.category,
			InStock:     s.inStock,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
	}
	return products
}
