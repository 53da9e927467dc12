// Package pagination implements keyset paging: sort and order parsing, the
// opaque cursor codec and limit+1 page assembly.
package pagination

import (
	"strconv"
	"strings"
	"time"

	"linkboard/internal/models"
)

// MaxLimit bounds every page.
const MaxLimit = 100

// Sort is a listing order.
type Sort string

const (
	SortNew Sort = "new"
	SortTop Sort = "top"
	// SortHot has no decay function and ranks exactly like SortNew.
	SortHot Sort = "hot"
)

// Effective collapses aliases onto the ordering actually applied.
func (s Sort) Effective() Sort {
	if s == SortHot {
		return SortNew
	}
	return s
}

// Order is the listing direction.
type Order string

const (
	OrderAsc  Order = "asc"
	OrderDesc Order = "desc"
)

// SQL returns the ORDER BY keyword for o.
func (o Order) SQL() string {
	if o == OrderAsc {
		return "ASC"
	}
	return "DESC"
}

// ParseSort validates raw, returning def when it is empty.
func ParseSort(raw string, def Sort) (Sort, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def, nil
	}
	switch s := Sort(strings.ToLower(raw)); s {
	case SortNew, SortTop, SortHot:
		return s, nil
	}
	return "", models.NewValidationError("sort must be new, top, or hot").
		WithDetails(map[string]any{"field": "sort", "value": raw})
}

// ParseOrder validates raw, returning def when it is empty.
func ParseOrder(raw string, def Order) (Order, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def, nil
	}
	switch o := Order(strings.ToLower(raw)); o {
	case OrderAsc, OrderDesc:
		return o, nil
	}
	return "", models.NewValidationError("order must be asc or desc").
		WithDetails(map[string]any{"field": "order", "value": raw})
}

// ParseLimit validates raw as 1..MaxLimit, returning def when it is empty.
func ParseLimit(raw string, def int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > MaxLimit {
		return 0, models.NewValidationError("limit must be between 1 and 100").
			WithDetails(map[string]any{"field": "limit", "value": raw})
	}
	return n, nil
}

// Request is a validated page request.
type Request struct {
	Limit int
	Sort  Sort
	Order Order
	After *Cursor
}

// Page is one slice of an ordered listing.
type Page[T any] struct {
	Items      []T
	NextCursor *string
	HasMore    bool
}

// Meta converts the page state into the response envelope meta.
func (p Page[T]) Meta() *models.Meta {
	return &models.Meta{NextCursor: p.NextCursor, HasMore: p.HasMore}
}

// KeyFunc extracts the ordering key of a row.
type KeyFunc[T any] func(T) (score int64, createdAt time.Time, id uint)

// Build trims rows fetched with limit+1 to limit and derives the continuation
// cursor from the last returned row.
func Build[T any](rows []T, req Request, key KeyFunc[T]) Page[T] {
	page := Page[T]{Items: rows}
	if len(rows) > req.Limit {
		page.Items = rows[:req.Limit]
		page.HasMore = true
	}
	if page.Items == nil {
		page.Items = []T{}
	}
	if page.HasMore && len(page.Items) > 0 {
		score, createdAt, id := key(page.Items[len(page.Items)-1])
		token := Cursor{
			Sort:      req.Sort.Effective(),
			Order:     req.Order,
			Score:     score,
			CreatedAt: createdAt.UnixNano(),
			ID:        id,
		}.Encode()
		page.NextCursor = &token
	}
	return page
}
