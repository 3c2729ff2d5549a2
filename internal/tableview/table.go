// Package tableview implements a generic in-memory table engine:
// substring search across every column, pagination with a bounded
// page-button window, and a loading placeholder state. It is agnostic
// to what the rows represent; callers describe rows with column
// accessors.
package tableview

import (
	"errors"
	"strconv"
	"strings"
)

const defaultPageSize = 10

// Column describes one table column for a row type.
type Column[T any] struct {
	Header   string
	Accessor func(T) string
}

// PageButton is one entry of the pagination control.
type PageButton struct {
	Label    string `json:"label"`
	Page     int    `json:"page,omitempty"`
	Active   bool   `json:"active,omitempty"`
	Ellipsis bool   `json:"ellipsis,omitempty"`
}

// Snapshot is the rendered state of a table at one point in time.
type Snapshot[T any] struct {
	Headers     []string     `json:"headers"`
	Rows        []T          `json:"rows"`
	Cells       [][]string   `json:"cells"`
	Page        int          `json:"page"`
	PageSize    int          `json:"page_size"`
	TotalPages  int          `json:"total_pages"`
	TotalRows   int          `json:"total_rows"`
	SearchTerm  string       `json:"search_term,omitempty"`
	Loading     bool         `json:"loading"`
	PageButtons []PageButton `json:"page_buttons"`
}

// Table filters and paginates an in-memory row set. Not safe for
// concurrent use; callers build one per request or guard externally.
type Table[T any] struct {
	columns    []Column[T]
	rows       []T
	searchTerm string
	pageSize   int
	page       int
	loading    bool
}

// New constructs a table over the given rows.
func New[T any](columns []Column[T], rows []T) (*Table[T], error) {
	if len(columns) == 0 {
		return nil, errors.New("tableview: at least one column required")
	}
	for _, col := range columns {
		if col.Accessor == nil {
			return nil, errors.New("tableview: column " + col.Header + " has no accessor")
		}
	}
	return &Table[T]{
		columns:  columns,
		rows:     rows,
		pageSize: defaultPageSize,
		page:     1,
	}, nil
}

// SetRows replaces the row set and resets to page 1.
func (t *Table[T]) SetRows(rows []T) {
	t.rows = rows
	t.page = 1
}

// SetSearchTerm filters rows by case-insensitive substring across the
// string form of every column, and resets to page 1. An empty term
// restores the full row set.
func (t *Table[T]) SetSearchTerm(term string) {
	t.searchTerm = term
	t.page = 1
}

// SetPageSize changes the page size and resets to page 1. Non-positive
// sizes are ignored.
func (t *Table[T]) SetPageSize(size int) {
	if size <= 0 {
		return
	}
	t.pageSize = size
	t.page = 1
}

// GoToPage moves to page p. Out-of-range requests are no-ops, so the
// current page never leaves [1, totalPages].
func (t *Table[T]) GoToPage(p int) {
	if p < 1 || p > t.totalPages() {
		return
	}
	t.page = p
}

// SetLoading toggles the loading placeholder state.
func (t *Table[T]) SetLoading(loading bool) {
	t.loading = loading
}

// Page returns the current page number.
func (t *Table[T]) Page() int {
	return t.page
}

// Snapshot renders the current page. While loading, no rows are
// rendered regardless of filter and page state.
func (t *Table[T]) Snapshot() Snapshot[T] {
	headers := make([]string, len(t.columns))
	for i, col := range t.columns {
		headers[i] = col.Header
	}

	snapshot := Snapshot[T]{
		Headers:    headers,
		Page:       t.page,
		PageSize:   t.pageSize,
		SearchTerm: t.searchTerm,
		Loading:    t.loading,
	}
	if t.loading {
		return snapshot
	}

	filtered := t.filtered()
	totalPages := pageCount(len(filtered), t.pageSize)
	page := t.page
	if page > totalPages {
		page = totalPages
	}
	if page < 1 {
		page = 1
	}

	start := (page - 1) * t.pageSize
	end := start + t.pageSize
	if start > len(filtered) {
		start = len(filtered)
	}
	if end > len(filtered) {
		end = len(filtered)
	}
	pageRows := filtered[start:end]

	cells := make([][]string, len(pageRows))
	for i, row := range pageRows {
		rendered := make([]string, len(t.columns))
		for j, col := range t.columns {
			rendered[j] = col.Accessor(row)
		}
		cells[i] = rendered
	}

	snapshot.Rows = pageRows
	snapshot.Cells = cells
	snapshot.Page = page
	snapshot.TotalPages = totalPages
	snapshot.TotalRows = len(filtered)
	snapshot.PageButtons = pageButtons(page, totalPages)
	return snapshot
}

func (t *Table[T]) filtered() []T {
	if t.searchTerm == "" {
		return t.rows
	}
	term := strings.ToLower(t.searchTerm)
	var filtered []T
	for _, row := range t.rows {
		for _, col := range t.columns {
			if strings.Contains(strings.ToLower(col.Accessor(row)), term) {
				filtered = append(filtered, row)
				break
			}
		}
	}
	return filtered
}

func (t *Table[T]) totalPages() int {
	return pageCount(len(t.filtered()), t.pageSize)
}

func pageCount(rows, pageSize int) int {
	if rows == 0 || pageSize <= 0 {
		return 0
	}
	return (rows + pageSize - 1) / pageSize
}

// pageButtons renders at most five numbered buttons centered on the
// current page with edge clamping. When pages remain beyond the
// window, a collapsed ellipsis and the last page keep the tail
// reachable.
func pageButtons(page, totalPages int) []PageButton {
	if totalPages == 0 {
		return nil
	}

	start := page - 2
	if start > totalPages-4 {
		start = totalPages - 4
	}
	if start < 1 {
		start = 1
	}
	end := start + 4
	if end > totalPages {
		end = totalPages
	}

	var buttons []PageButton
	for p := start; p <= end; p++ {
		buttons = append(buttons, PageButton{
			Label:  strconv.Itoa(p),
			Page:   p,
			Active: p == page,
		})
	}
	if end < totalPages {
		buttons = append(buttons,
			PageButton{Label: "…", Ellipsis: true},
			PageButton{Label: strconv.Itoa(totalPages), Page: totalPages},
		)
	}
	return buttons
}
