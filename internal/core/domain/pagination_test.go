package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaginate(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	tests := []struct {
		name       string
		page       Pagination
		want       []int
		totalPages int
	}{
		{"defaults", Pagination{}, []int{1, 2, 3, 4, 5}, 1},
		{"first page", Pagination{Page: 1, Limit: 2}, []int{1, 2}, 3},
		{"last partial page", Pagination{Page: 3, Limit: 2}, []int{5}, 3},
		{"past the end", Pagination{Page: 4, Limit: 2}, []int{}, 3},
		{"huge page", Pagination{Page: 1 << 62, Limit: 4}, []int{}, 2},
		{"max int limit", Pagination{Page: 1, Limit: math.MaxInt}, []int{1, 2, 3, 4, 5}, 1},
		{"max int page", Pagination{Page: math.MaxInt, Limit: MaxLimit}, []int{}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, totalPages := Paginate(items, tt.page)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.totalPages, totalPages)
		})
	}
}

func TestPaginate_Empty(t *testing.T) {
	got, totalPages := Paginate([]string{}, Pagination{Page: 1 << 40, Limit: 10})
	assert.Empty(t, got)
	assert.Equal(t, 0, totalPages)
}
