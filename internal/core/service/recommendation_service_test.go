package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGrocerySuggestions_EmptyCart(t *testing.T) {
	svc := NewRecommendationService()

	got := svc.GrocerySuggestions(nil)
	assert.Equal(t, genericSuggestions, got)

	got[0] = "mutated"
	assert.Equal(t, "Fresh fruits", genericSuggestions[0])
}

func TestGrocerySuggestions_DirectMatch(t *testing.T) {
	svc := NewRecommendationService()

	got := svc.GrocerySuggestions([]string{"Apples"})
	assert.Equal(t, []string{"bananas", "oranges", "grapes", "strawberries"}, got)
}

func TestGrocerySuggestions_ExcludesCartAndDedupes(t *testing.T) {
	svc := NewRecommendationService()

	got := svc.GrocerySuggestions([]string{"apples", "bananas"})
	assert.NotContains(t, got, "apples")
	assert.NotContains(t, got, "bananas")

	seen := map[string]bool{}
	for _, s := range got {
		assert.False(t, seen[s], "duplicate suggestion %q", s)
		seen[s] = true
	}
	assert.Contains(t, got, "peanut butter")
}

func TestGrocerySuggestions_PartialMatch(t *testing.T) {
	svc := NewRecommendationService()

	got := svc.GrocerySuggestions([]string{"organic chicken thighs"})
	assert.Equal(t, []string{"rice", "broccoli", "carrots", "garlic"}, got)
}

func TestGrocerySuggestions_CapsAtEight(t *testing.T) {
	svc := NewRecommendationService()

	got := svc.GrocerySuggestions([]string{"chicken", "eggs", "beef", "milk"})
	assert.Len(t, got, maxGrocerySuggestions)
}

func TestGrocerySuggestions_UnknownFallsBack(t *testing.T) {
	svc := NewRecommendationService()

	assert.Equal(t, genericSuggestions, svc.GrocerySuggestions([]string{"dragonfruit"}))
	assert.Equal(t, genericSuggestions, svc.GrocerySuggestions([]string{"  "}))
}

func TestPersonalizedRecommendations(t *testing.T) {
	svc := NewRecommendationService()
	svc.now = func() time.Time { return time.Date(2024, time.July, 4, 0, 0, 0, 0, time.UTC) }

	got := svc.PersonalizedRecommendations([]string{"apples"}, "user-1", 0)
	assert.Len(t, got, DefaultPersonalizedResults)
	assert.Equal(t, []string{"Summer fruits", "Grilling items"}, got[:2])

	got = svc.PersonalizedRecommendations([]string{"apples"}, "user-1", 3)
	assert.Len(t, got, 3)

	got = svc.PersonalizedRecommendations(nil, "user-1", 50)
	assert.Len(t, got, 2+len(genericSuggestions))
}

func TestSeasonal(t *testing.T) {
	tests := []struct {
		month time.Month
		first string
	}{
		{time.January, "Winter vegetables"},
		{time.April, "Spring vegetables"},
		{time.August, "Summer fruits"},
		{time.October, "Autumn produce"},
		{time.December, "Winter vegetables"},
	}

	for _, tt := range tests {
		t.Run(tt.month.String(), func(t *testing.T) {
			assert.Equal(t, tt.first, seasonal(tt.month)[0])
		})
	}
}
