package core

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jmylchreest/toastd/internal/toast"
)

// SortField represents a field to sort by.
type SortField string

const (
	SortByCreated   SortField = "created"
	SortByApp       SortField = "app"
	SortByCategory  SortField = "category"
	SortByRemaining SortField = "remaining"
)

// SortOrder represents ascending or descending order.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// ErrUnknownSort is returned for an unrecognized sort field or order.
var ErrUnknownSort = errors.New("unknown sort")

// SortOptions specifies sorting criteria.
type SortOptions struct {
	Field SortField
	Order SortOrder
}

// DefaultSortOptions returns default sort options (newest first).
func DefaultSortOptions() SortOptions {
	return SortOptions{
		Field: SortByCreated,
		Order: SortDesc,
	}
}

// Sort sorts toasts in place based on the provided options.
// Persistent toasts sort after every expiring one by remaining time.
func Sort(views []toast.View, opts SortOptions) {
	if len(views) == 0 {
		return
	}

	sort.SliceStable(views, func(i, j int) bool {
		a, b := views[i], views[j]
		var less bool

		switch opts.Field {
		case SortByApp:
			less = strings.ToLower(a.AppName) < strings.ToLower(b.AppName)
		case SortByCategory:
			less = Severity(a.Category) < Severity(b.Category)
		case SortByRemaining:
			switch {
			case a.Persistent() != b.Persistent():
				less = b.Persistent()
			default:
				less = a.Remaining < b.Remaining
			}
		default:
			// ULIDs sort in creation order.
			less = a.ID < b.ID
		}

		if opts.Order == SortDesc {
			return !less
		}
		return less
	})
}

// ParseSortField parses a sort field string. An empty string selects
// creation order.
func ParseSortField(s string) (SortField, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "created", "time", "timestamp", "t":
		return SortByCreated, nil
	case "app", "appname", "a":
		return SortByApp, nil
	case "category", "cat", "c":
		return SortByCategory, nil
	case "remaining", "left", "r":
		return SortByRemaining, nil
	default:
		return SortByCreated, fmt.Errorf("%w field %q (want created, app, category or remaining)", ErrUnknownSort, s)
	}
}

// ParseSortOrder parses a sort order string. An empty string selects
// descending order.
func ParseSortOrder(s string) (SortOrder, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "asc", "ascending", "a":
		return SortAsc, nil
	case "", "desc", "descending", "d":
		return SortDesc, nil
	default:
		return SortDesc, fmt.Errorf("%w order %q (want asc or desc)", ErrUnknownSort, s)
	}
}
