package repository

import (
	"slices"
	"strings"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// Sortable columns per list endpoint. Each set only names columns its table has.
var (
	HistorySortColumns  = []string{"created_at", "updated_at", "status", "id"}
	AnalysisSortColumns = []string{"created_at", "updated_at", "id"}
	UserSortColumns     = []string{"created_at", "updated_at", "id", "email", "name"}
)

// Page is a normalized skip/limit window with an allowlisted sort.
type Page struct {
	Skip    int
	Limit   int
	OrderBy string
	Desc    bool
}

// NewPage clamps limit into [1, MaxLimit], floors skip at zero, and falls back
// to created_at descending when orderBy is not one of sortable or the
// direction is unknown.
func NewPage(skip, limit int, orderBy, order string, sortable ...string) Page {
	if skip < 0 {
		skip = 0
	}
	if limit < 1 {
		limit = 1
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if !slices.Contains(sortable, orderBy) {
		orderBy = "created_at"
	}
	return Page{
		Skip:    skip,
		Limit:   limit,
		OrderBy: orderBy,
		Desc:    strings.ToLower(order) != "asc",
	}
}

func (p Page) orderClause() string {
	dir := " ASC"
	if p.Desc {
		dir = " DESC"
	}
	if p.OrderBy == "id" {
		return "id" + dir
	}
	return p.OrderBy + dir + ", id" + dir
}
