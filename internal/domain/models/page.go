package models

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

// Page selects a window of a listing. All disables windowing.
type Page struct {
	Page  int
	Limit int
	All   bool
}

// Normalized clamps the page to sane bounds.
func (p Page) Normalized() Page {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	return p
}

// Skip is the number of records before the window.
func (p Page) Skip() int {
	n := p.Normalized()
	return (n.Page - 1) * n.Limit
}

// TotalPages computes the page count for total records.
func (p Page) TotalPages(total int64) int {
	if p.All {
		return 1
	}
	n := p.Normalized()
	return int((total + int64(n.Limit) - 1) / int64(n.Limit))
}
