package service

import (
	"strings"
	"time"
)

const (
	maxGrocerySuggestions      = 8
	DefaultPersonalizedResults = 6
	MaxPersonalizedResults     = 20
)

type suggestionRule struct {
	item      string
	companion []string
}

// Rule order matters: partial matches are collected in this order.
var suggestionRules = []suggestionRule{
	{"apples", []string{"bananas", "oranges", "grapes", "strawberries"}},
	{"bananas", []string{"apples", "peanut butter", "honey", "oats"}},
	{"oranges", []string{"apples", "lemons", "limes", "grapefruits"}},

	{"spinach", []string{"kale", "lettuce", "carrots", "tomatoes"}},
	{"carrots", []string{"celery", "onions", "potatoes", "broccoli"}},
	{"tomatoes", []string{"basil", "mozzarella", "onions", "garlic"}},

	{"chicken", []string{"rice", "broccoli", "carrots", "garlic"}},
	{"eggs", []string{"bread", "butter", "cheese", "bacon"}},
	{"beef", []string{"potatoes", "onions", "carrots", "mushrooms"}},

	{"milk", []string{"cereal", "cookies", "bread", "eggs"}},
	{"cheese", []string{"crackers", "wine", "grapes", "bread"}},
	{"yogurt", []string{"berries", "granola", "honey", "nuts"}},

	{"rice", []string{"soy sauce", "vegetables", "chicken", "garlic"}},
	{"bread", []string{"butter", "jam", "cheese", "lunch meat"}},
	{"pasta", []string{"tomato sauce", "parmesan", "garlic", "olive oil"}},

	{"olive oil", []string{"garlic", "herbs", "vegetables", "pasta"}},
	{"garlic", []string{"onions", "tomatoes", "herbs", "olive oil"}},
	{"salt", []string{"pepper", "herbs", "spices", "seasoning"}},
}

var genericSuggestions = []string{
	"Fresh fruits",
	"Vegetables",
	"Whole grain bread",
	"Lean proteins",
	"Dairy products",
	"Healthy snacks",
	"Cooking oils",
	"Seasonings and spices",
}

type RecommendationService struct {
	now func() time.Time
}

func NewRecommendationService() *RecommendationService {
	return &RecommendationService{now: time.Now}
}

// GrocerySuggestions pairs cart items with companion products from the rule table.
func (s *RecommendationService) GrocerySuggestions(cartItems []string) []string {
	if len(cartItems) == 0 {
		return generic()
	}

	var (
		out  []string
		seen = make(map[string]struct{})
	)
	add := func(candidates []string) {
		for _, c := range candidates {
			if inCart(c, cartItems) {
				continue
			}
			if _, ok := seen[c]; ok {
				continue
			}
			seen[c] = struct{}{}
			out = append(out, c)
		}
	}

	for _, item := range cartItems {
		lower := strings.ToLower(strings.TrimSpace(item))
		if lower == "" {
			continue
		}
		for _, rule := range suggestionRules {
			if rule.item == lower || strings.Contains(lower, rule.item) || strings.Contains(rule.item, lower) {
				add(rule.companion)
			}
		}
	}

	if len(out) == 0 {
		return generic()
	}
	if len(out) > maxGrocerySuggestions {
		out = out[:maxGrocerySuggestions]
	}
	return out
}

// PersonalizedRecommendations prepends seasonal picks to the grocery suggestions.
func (s *RecommendationService) PersonalizedRecommendations(cartItems []string, userID string, max int) []string {
	if max <= 0 {
		max = DefaultPersonalizedResults
	}
	if max > MaxPersonalizedResults {
		max = MaxPersonalizedResults
	}

	out := append(seasonal(s.now().Month()), s.GrocerySuggestions(cartItems)...)
	if len(out) > max {
		out = out[:max]
	}
	return out
}

func seasonal(month time.Month) []string {
	switch {
	case month >= time.March && month <= time.May:
		return []string{"Spring vegetables", "Fresh herbs"}
	case month >= time.June && month <= time.August:
		return []string{"Summer fruits", "Grilling items"}
	case month >= time.September && month <= time.November:
		return []string{"Autumn produce", "Comfort foods"}
	default:
		return []string{"Winter vegetables", "Warm beverages"}
	}
}

func inCart(suggestion string, cartItems []string) bool {
	s := strings.ToLower(suggestion)
	for _, item := range cartItems {
		i := strings.ToLower(strings.TrimSpace(item))
		if i == "" {
			continue
		}
		if strings.Contains(i, s) || strings.Contains(s, i) {
			return true
		}
	}
	return false
}

func generic() []string {
	out := make([]string, len(genericSuggestions))
	copy(out, genericSuggestions)
	return out
}
