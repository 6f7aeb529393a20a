// Package profit serves the historical profit dataset backing the dashboard
// table: paginated listing with filters plus small lookup and stats
// endpoints.
package profit

import (
	"context"
)

// Record is one company-month profit figure.
type Record struct {
	ID      int64   `json:"id"`
	Company string  `json:"company"`
	Year    int     `json:"year"`
	Month   int     `json:"month"`
	Profit  float64 `json:"profit"`

	// MonthName is derived from Month for display.
	MonthName string `json:"month_name"`
}

var monthNames = [...]string{
	"", "January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

// MonthName returns the English name for a 1-based month, or "" when out of
// range.
func MonthName(m int) string {
	if m < 1 || m > 12 {
		return ""
	}
	return monthNames[m]
}

// ListFilters narrows and pages a profit listing. Company matches exactly;
// Search matches case-insensitively as a substring.
type ListFilters struct {
	Company string
	Year    int
	Search  string

	Page    int
	PerPage int
}

// Page is one page of profit records plus pagination metadata.
type Page struct {
	Data       []Record `json:"data"`
	Total      int      `json:"total"`
	Page       int      `json:"page"`
	PerPage    int      `json:"per_page"`
	TotalPages int      `json:"total_pages"`
	HasNext    bool     `json:"has_next"`
	HasPrev    bool     `json:"has_prev"`
}

// Stats summarizes the whole dataset.
type Stats struct {
	TotalRecords  int     `json:"total_records"`
	TotalProfit   float64 `json:"total_profit"`
	AverageProfit float64 `json:"average_profit"`
	MinProfit     float64 `json:"min_profit"`
	MaxProfit     float64 `json:"max_profit"`
}

// Store is the profit persistence boundary.
type Store interface {
	// List returns one page ordered by year desc, month desc, company asc.
	List(ctx context.Context, f ListFilters) (Page, error)

	// Companies returns every distinct company name, ascending.
	Companies(ctx context.Context) ([]string, error)

	// Years returns every distinct year, descending.
	Years(ctx context.Context) ([]int, error)

	// Stats aggregates over the whole table. All figures are 0 when the
	// table is empty.
	Stats(ctx context.Context) (Stats, error)
}
