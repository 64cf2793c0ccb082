package core

import (
	"strings"
	"time"
)

const (
	SortByCreatedAt SortField = "created_at"
	SortByCash      SortField = "cash"
	SortByID        SortField = "id"
	SortByType      SortField = "type"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

type SortField string

func (f SortField) Valid() bool {
	switch f {
	case SortByCreatedAt, SortByCash, SortByID, SortByType:
		return true
	}
	return false
}

// TransactionFilter narrows a listing or aggregation to matching rows.
// All predicates are optional and combined conjunctively; the owner scope
// is always applied on top.
type TransactionFilter struct {
	Type       *TransactionType
	StartDate  *time.Time // inclusive, compared date-only
	EndDate    *time.Time // inclusive, compared date-only
	CategoryID *int64
}

// Page holds pagination and ordering for list queries.
type Page struct {
	Limit  int
	Offset int
	SortBy SortField
	Order  string
}

// Normalize clamps pagination into bounds and resolves ordering defaults:
// limit in [1,100] defaulting to 20, offset >= 0, sort by creation time
// unless a known field is given. Order is matched case-insensitively;
// anything that is not "desc" sorts ascending, with descending as the
// default when order is unset.
func (p Page) Normalize() Page {
	if p.Limit < 1 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	if !p.SortBy.Valid() {
		p.SortBy = SortByCreatedAt
	}
	switch strings.ToLower(p.Order) {
	case "":
		p.Order = "desc"
	case "desc":
		p.Order = "desc"
	default:
		p.Order = "asc"
	}
	return p
}

// MonthSummary reports income and expense totals for one calendar month.
type MonthSummary struct {
	Month   string // YYYY-MM
	Income  float64
	Expense float64
}

// CategorySummary reports income and expense totals over an optionally
// date- and category-bounded set of the owner's transactions.
type CategorySummary struct {
	Income     float64
	Expense    float64
	CategoryID *int64
}
