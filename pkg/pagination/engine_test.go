package pagination

import (
	"reflect"
	"testing"
)

func TestItemsPerPage(t *testing.T) {
	cases := []struct {
		viewport, header, want int
	}{
		{1080, HeaderHeight, 13}, // (1080-200-80)/60
		{900, TallHeaderHeight, 8},
		{400, HeaderHeight, MinItemsPerPage}, // floor would be 2
		{0, HeaderHeight, MinItemsPerPage},
	}
	for _, tc := range cases {
		if got := ItemsPerPage(tc.viewport, tc.header); got != tc.want {
			t.Errorf("ItemsPerPage(%d,%d) = %d, want %d", tc.viewport, tc.header, got, tc.want)
		}
	}
}

func TestPageWindow_AllPagesWhenSmall(t *testing.T) {
	got := PageWindow(7, 3)
	want := []int{1, 2, 3, 4, 5, 6, 7}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("PageWindow(7,3) = %v, want %v", got, want)
	}
}

func TestPageWindow_MiddleOfLongList(t *testing.T) {
	got := PageWindow(20, 10)
	want := []int{1, Ellipsis, 9, 10, 11, Ellipsis, 20}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("PageWindow(20,10) = %v, want %v", got, want)
	}
}

func TestPageWindow_NearEdges(t *testing.T) {
	got := PageWindow(20, 1)
	want := []int{1, 2, 3, 4, Ellipsis, 20}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("PageWindow(20,1) = %v, want %v", got, want)
	}

	got = PageWindow(20, 20)
	want = []int{1, Ellipsis, 17, 18, 19, 20}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("PageWindow(20,20) = %v, want %v", got, want)
	}
}

func TestPageWindow_ClampsCurrent(t *testing.T) {
	if got := PageWindow(5, 99); !reflect.DeepEqual(got, []int{1, 2, 3, 4, 5}) {
		t.Errorf("PageWindow(5,99) = %v", got)
	}
	if got := PageWindow(0, 1); got != nil {
		t.Errorf("PageWindow(0,1) = %v, want nil", got)
	}
}

func TestState_SearchResetsPage(t *testing.T) {
	s := NewState(1080)
	s.Page = 4
	s.SetSearch("para")
	if s.Page != 1 {
		t.Errorf("page = %d after search change, want 1", s.Page)
	}
	s.Page = 3
	s.SetSearch("")
	if s.Page != 1 {
		t.Errorf("page = %d after clearing search, want 1", s.Page)
	}
}

func TestState_FilterResetsPage(t *testing.T) {
	s := NewState(1080)
	s.Page = 2
	s.SetFilter("stock_status", "low_stock")
	if s.Page != 1 {
		t.Errorf("page = %d after filter change, want 1", s.Page)
	}
	if s.Filters["stock_status"] != "low_stock" {
		t.Error("filter not recorded")
	}
	s.Page = 5
	s.SetFilter("stock_status", "")
	if s.Page != 1 || len(s.Filters) != 0 {
		t.Errorf("clearing a filter must reset page and remove the key, got page=%d filters=%v", s.Page, s.Filters)
	}
}

type med struct {
	name   string
	stock  string
	expiry string
}

func medFields(m med) []string { return []string{m.name} }

func TestFilter_CaseInsensitiveSubstring(t *testing.T) {
	items := []med{{name: "Paracetamol"}, {name: "Amoxicillin"}}
	got := Filter(items, "para", medFields)
	if len(got) != 1 || got[0].name != "Paracetamol" {
		t.Errorf("Filter = %v, want [Paracetamol]", got)
	}
	if got := Filter(items, "", medFields); len(got) != 2 {
		t.Errorf("empty term should keep all, got %d", len(got))
	}
	if got := Filter(items, "XIL", medFields); len(got) != 1 || got[0].name != "Amoxicillin" {
		t.Errorf("match must ignore case, got %v", got)
	}
}

func TestApplyFilters_ANDSemantics(t *testing.T) {
	items := []med{
		{name: "A", stock: "low_stock", expiry: "expired"},
		{name: "B", stock: "low_stock", expiry: "ok"},
		{name: "C", stock: "in_stock", expiry: "expired"},
	}
	match := func(m med, key, value string) bool {
		switch key {
		case "stock":
			return m.stock == value
		case "expiry":
			return m.expiry == value
		}
		return false
	}
	got := ApplyFilters(items, map[string]string{"stock": "low_stock", "expiry": "expired"}, match)
	if len(got) != 1 || got[0].name != "A" {
		t.Errorf("AND filters = %v, want [A]", got)
	}
}

func TestSortBy_StableAndReversible(t *testing.T) {
	items := []med{{name: "b"}, {name: "a"}, {name: "c"}}
	asc := SortBy(items, func(x, y med) bool { return x.name < y.name }, false)
	if asc[0].name != "a" || asc[2].name != "c" {
		t.Errorf("ascending sort = %v", asc)
	}
	desc := SortBy(items, func(x, y med) bool { return x.name < y.name }, true)
	if desc[0].name != "c" || desc[2].name != "a" {
		t.Errorf("descending sort = %v", desc)
	}
	if items[0].name != "b" {
		t.Error("SortBy must not mutate its input")
	}
}

func TestPage_SlicingAndClamping(t *testing.T) {
	items := []int{1, 2, 3, 4, 5, 6, 7}
	page, total := Page(items, 2, 3)
	if total != 3 || !reflect.DeepEqual(page, []int{4, 5, 6}) {
		t.Errorf("Page(2,3) = %v total %d", page, total)
	}
	page, total = Page(items, 9, 3)
	if !reflect.DeepEqual(page, []int{7}) {
		t.Errorf("out-of-range page should clamp to last, got %v (total %d)", page, total)
	}
	page, total = Page([]int{}, 1, 3)
	if page != nil || total != 0 {
		t.Errorf("empty input: got %v total %d", page, total)
	}
}
