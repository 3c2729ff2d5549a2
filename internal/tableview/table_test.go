package tableview

import (
	"fmt"
	"reflect"
	"testing"
)

type row struct {
	Name string
	Line string
}

func testColumns() []Column[row] {
	return []Column[row]{
		{Header: "Name", Accessor: func(r row) string { return r.Name }},
		{Header: "Line", Accessor: func(r row) string { return r.Line }},
	}
}

func makeRows(n int) []row {
	rows := make([]row, n)
	for i := range rows {
		rows[i] = row{Name: fmt.Sprintf("device-%02d", i+1), Line: "line-1"}
	}
	return rows
}

func TestPagination_23RowsPageSize10(t *testing.T) {
	table, err := New(testColumns(), makeRows(23))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	table.SetPageSize(10)

	snapshot := table.Snapshot()
	if snapshot.TotalPages != 3 {
		t.Fatalf("expected 3 pages, got %d", snapshot.TotalPages)
	}

	table.GoToPage(3)
	snapshot = table.Snapshot()
	if len(snapshot.Rows) != 3 {
		t.Fatalf("expected 3 rows on last page, got %d", len(snapshot.Rows))
	}
	if snapshot.Rows[0].Name != "device-21" || snapshot.Rows[2].Name != "device-23" {
		t.Fatalf("expected rows 21-23, got %s..%s", snapshot.Rows[0].Name, snapshot.Rows[2].Name)
	}
}

func TestGoToPage_Clamped(t *testing.T) {
	table, err := New(testColumns(), makeRows(23))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	table.SetPageSize(10)
	table.GoToPage(2)

	table.GoToPage(0)
	if table.Page() != 2 {
		t.Fatalf("goToPage(0) moved page to %d", table.Page())
	}
	table.GoToPage(4)
	if table.Page() != 2 {
		t.Fatalf("goToPage(totalPages+1) moved page to %d", table.Page())
	}
}

func TestGoToPage_EmptyFilteredSet(t *testing.T) {
	table, err := New(testColumns(), makeRows(5))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	table.SetSearchTerm("no-such-device")

	snapshot := table.Snapshot()
	if snapshot.TotalPages != 0 || len(snapshot.Rows) != 0 {
		t.Fatalf("expected empty snapshot, got %+v", snapshot)
	}
	table.GoToPage(1)
	if table.Page() != 1 {
		t.Fatalf("navigation succeeded on empty set, page=%d", table.Page())
	}
	if snapshot.PageButtons != nil {
		t.Fatalf("expected no page buttons, got %+v", snapshot.PageButtons)
	}
}

func TestSearch_CaseInsensitiveAcrossColumns(t *testing.T) {
	rows := []row{
		{Name: "press-b1", Line: "Assembly Line 1"},
		{Name: "compressor-a1", Line: "Stamping Line 2"},
		{Name: "conveyor-d2", Line: "Assembly Line 1"},
	}
	table, err := New(testColumns(), rows)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	table.SetSearchTerm("ASSEMBLY")
	snapshot := table.Snapshot()
	if len(snapshot.Rows) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(snapshot.Rows))
	}

	// Search matches any column, not just the first.
	table.SetSearchTerm("press")
	snapshot = table.Snapshot()
	if len(snapshot.Rows) != 2 {
		t.Fatalf("expected press-b1 and compressor-a1, got %d rows", len(snapshot.Rows))
	}
}

func TestSearch_EmptyTermIsIdentity(t *testing.T) {
	rows := makeRows(7)
	table, err := New(testColumns(), rows)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	table.SetSearchTerm("device-01")
	table.SetSearchTerm("")
	snapshot := table.Snapshot()
	if snapshot.TotalRows != 7 {
		t.Fatalf("expected full set restored, got %d rows", snapshot.TotalRows)
	}
}

func TestSearch_Idempotent(t *testing.T) {
	table, err := New(testColumns(), makeRows(23))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	table.SetPageSize(5)

	table.SetSearchTerm("device-1")
	first := table.Snapshot()
	table.SetSearchTerm("device-1")
	second := table.Snapshot()
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("filtering twice changed the snapshot:\n%+v\n%+v", first, second)
	}
	if first.Page != 1 {
		t.Fatalf("expected page reset to 1, got %d", first.Page)
	}
}

func TestSetPageSize_ResetsPage(t *testing.T) {
	table, err := New(testColumns(), makeRows(23))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	table.SetPageSize(10)
	table.GoToPage(3)

	table.SetPageSize(5)
	snapshot := table.Snapshot()
	if snapshot.Page != 1 || snapshot.TotalPages != 5 {
		t.Fatalf("expected page 1 of 5, got page %d of %d", snapshot.Page, snapshot.TotalPages)
	}
}

func TestLoading_SuppressesRows(t *testing.T) {
	table, err := New(testColumns(), makeRows(23))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	table.SetLoading(true)

	snapshot := table.Snapshot()
	if !snapshot.Loading {
		t.Fatal("expected loading flag")
	}
	if len(snapshot.Rows) != 0 || len(snapshot.Cells) != 0 {
		t.Fatalf("expected no rows while loading, got %d", len(snapshot.Rows))
	}

	table.SetLoading(false)
	snapshot = table.Snapshot()
	if snapshot.Loading || len(snapshot.Rows) == 0 {
		t.Fatal("expected rows after loading cleared")
	}
}

func TestPageButtons_FivePageWindow(t *testing.T) {
	table, err := New(testColumns(), makeRows(30))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	table.SetPageSize(3) // 10 pages

	// Near the start the window clamps to 1..5.
	snapshot := table.Snapshot()
	if got := buttonPages(snapshot.PageButtons); !reflect.DeepEqual(got, []int{1, 2, 3, 4, 5, 0, 10}) {
		t.Fatalf("unexpected buttons %v", got)
	}

	// Centered in the middle.
	table.GoToPage(6)
	snapshot = table.Snapshot()
	if got := buttonPages(snapshot.PageButtons); !reflect.DeepEqual(got, []int{4, 5, 6, 7, 8, 0, 10}) {
		t.Fatalf("unexpected buttons %v", got)
	}

	// Clamped at the tail, no ellipsis.
	table.GoToPage(9)
	snapshot = table.Snapshot()
	if got := buttonPages(snapshot.PageButtons); !reflect.DeepEqual(got, []int{6, 7, 8, 9, 10}) {
		t.Fatalf("unexpected buttons %v", got)
	}
}

func TestPageButtons_AtMostFiveWhenFewPages(t *testing.T) {
	table, err := New(testColumns(), makeRows(9))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	table.SetPageSize(3)

	snapshot := table.Snapshot()
	if got := buttonPages(snapshot.PageButtons); !reflect.DeepEqual(got, []int{1, 2, 3}) {
		t.Fatalf("unexpected buttons %v", got)
	}
}

// buttonPages flattens buttons to page numbers, 0 for ellipsis.
func buttonPages(buttons []PageButton) []int {
	pages := make([]int, len(buttons))
	for i, button := range buttons {
		if button.Ellipsis {
			pages[i] = 0
			continue
		}
		pages[i] = button.Page
	}
	return pages
}
