package viewcache

import "strings"

// StatusFilter narrows the visible list by the item's active flag.
type StatusFilter int

const (
	FilterAll StatusFilter = iota
	FilterActive
	FilterInactive
)

func (f StatusFilter) String() string {
	switch f {
	case FilterAll:
		return "all"
	case FilterActive:
		return "active"
	case FilterInactive:
		return "inactive"
	default:
		return "unknown"
	}
}

func toLowerTrimmed(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func matchStatus[T any](f StatusFilter, isActive func(T) bool, it T) bool {
	if f == FilterAll || isActive == nil {
		return true
	}
	if f == FilterActive {
		return isActive(it)
	}
	return !isActive(it)
}

// matchQuery does a case-insensitive substring match. loweredQuery must
// already be lowercase; the caller lowers it once per recompute, not per
// item.
func matchQuery[T any](loweredQuery string, searchText func(T) string, it T) bool {
	if loweredQuery == "" || searchText == nil {
		return true
	}
	return strings.Contains(strings.ToLower(searchText(it)), loweredQuery)
}
