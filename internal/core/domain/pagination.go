package domain

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

type Pagination struct {
	Page  int
	Limit int
}

// Normalize fills in defaults for zero values.
func (p Pagination) Normalize() Pagination {
	if p.Page <= 0 {
		p.Page = DefaultPage
	}
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	return p
}

// Paginate slices items for the page and returns the total page count.
func Paginate[T any](items []T, p Pagination) ([]T, int) {
	p = p.Normalize()
	total := len(items)
	totalPages := total / p.Limit
	if total%p.Limit != 0 {
		totalPages++
	}

	// Compare page numbers before multiplying so a huge page cannot overflow.
	if p.Page > totalPages {
		return []T{}, totalPages
	}
	start := (p.Page - 1) * p.Limit
	end := total
	if total-start > p.Limit {
		end = start + p.Limit
	}
	out := make([]T, end-start)
	copy(out, items[start:end])
	return out, totalPages
}
