package pagination

import (
	"sort"
	"strings"
)

// Layout constants shared by all list screens. Screens with an extra info
// block above the table use TallHeaderHeight.
const (
	RowHeight           = 60
	PaginationBarHeight = 80
	HeaderHeight        = 200
	TallHeaderHeight    = 300
	MinItemsPerPage     = 5
)

// Ellipsis marks a collapsed gap in a page-number sequence.
const Ellipsis = -1

// ItemsPerPage computes how many rows fit in the viewport, never fewer
// than MinItemsPerPage. Recomputed whenever the window is resized.
func ItemsPerPage(viewportHeight, headerHeight int) int {
	n := (viewportHeight - headerHeight - PaginationBarHeight) / RowHeight
	if n < MinItemsPerPage {
		return MinItemsPerPage
	}
	return n
}

// PageWindow generates the page-number sequence for a pagination bar.
// Up to 7 pages are shown in full; beyond that the first and last page are
// always present with a window around the current page, and each gap is
// collapsed into a single Ellipsis marker.
func PageWindow(totalPages, current int) []int {
	if totalPages <= 0 {
		return nil
	}
	if current < 1 {
		current = 1
	}
	if current > totalPages {
		current = totalPages
	}

	if totalPages <= 7 {
		pages := make([]int, totalPages)
		for i := range pages {
			pages[i] = i + 1
		}
		return pages
	}

	start, end := current-1, current+1
	if current <= 3 {
		start, end = 2, 4
	}
	if current >= totalPages-2 {
		start, end = totalPages-3, totalPages-1
	}

	pages := []int{1}
	if start > 2 {
		pages = append(pages, Ellipsis)
	}
	for p := start; p <= end; p++ {
		pages = append(pages, p)
	}
	if end < totalPages-1 {
		pages = append(pages, Ellipsis)
	}
	return append(pages, totalPages)
}

// State is the per-screen pagination state. Changing the search term or any
// dropdown filter resets the current page to 1 unconditionally.
type State struct {
	Page           int
	Search         string
	Filters        map[string]string
	ViewportHeight int
	HeaderHeight   int
}

func NewState(viewportHeight int) *State {
	return &State{
		Page:           1,
		Filters:        map[string]string{},
		ViewportHeight: viewportHeight,
		HeaderHeight:   HeaderHeight,
	}
}

func (s *State) SetSearch(term string) {
	s.Search = term
	s.Page = 1
}

// SetFilter sets a dropdown filter; an empty value removes it. Either way
// the page resets.
func (s *State) SetFilter(key, value string) {
	if value == "" {
		delete(s.Filters, key)
	} else {
		s.Filters[key] = value
	}
	s.Page = 1
}

// Resize records a new viewport height; the page is kept, callers clamp it
// through Page when rendering.
func (s *State) Resize(viewportHeight int) {
	s.ViewportHeight = viewportHeight
}

func (s *State) ItemsPerPage() int {
	return ItemsPerPage(s.ViewportHeight, s.HeaderHeight)
}

// Filter returns the items whose searchable fields contain term as a
// case-insensitive substring. An empty term keeps everything.
func Filter[T any](items []T, term string, fields func(T) []string) []T {
	if term == "" {
		return items
	}
	term = strings.ToLower(term)
	var out []T
	for _, it := range items {
		for _, f := range fields(it) {
			if strings.Contains(strings.ToLower(f), term) {
				out = append(out, it)
				break
			}
		}
	}
	return out
}

// ApplyFilters keeps the items matching every set dropdown filter (AND
// across independently-selected filters).
func ApplyFilters[T any](items []T, filters map[string]string, match func(item T, key, value string) bool) []T {
	if len(filters) == 0 {
		return items
	}
	var out []T
	for _, it := range items {
		keep := true
		for k, v := range filters {
			if !match(it, k, v) {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, it)
		}
	}
	return out
}

// SortBy returns a stably-sorted copy ordered by less, reversed when
// descending is set.
func SortBy[T any](items []T, less func(a, b T) bool, descending bool) []T {
	out := make([]T, len(items))
	copy(out, items)
	sort.SliceStable(out, func(i, j int) bool {
		if descending {
			return less(out[j], out[i])
		}
		return less(out[i], out[j])
	})
	return out
}

// Page slices out the rows for the given 1-based page and reports the total
// page count. An out-of-range page is clamped.
func Page[T any](items []T, page, perPage int) (pageItems []T, totalPages int) {
	if perPage < 1 {
		perPage = 1
	}
	totalPages = (len(items) + perPage - 1) / perPage
	if totalPages == 0 {
		return nil, 0
	}
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}
	start := (page - 1) * perPage
	end := start + perPage
	if end > len(items) {
		end = len(items)
	}
	return items[start:end], totalPages
}
