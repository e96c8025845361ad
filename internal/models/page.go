package models

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// Page is a 1-based page request.
type Page struct {
	Page  int
	Limit int
}

// Offset is the number of rows to skip for this page.
func (p Page) Offset() int {
	return (p.Page - 1) * p.Limit
}
