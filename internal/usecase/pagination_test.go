package usecase

import "testing"

func TestTotalPages(t *testing.T) {
	t.Parallel()

	tests := []struct {
		length int
		want   int
	}{
		{length: 0, want: 1},
		{length: 1, want: 1},
		{length: 5, want: 1},
		{length: 6, want: 2},
		{length: 10, want: 2},
		{length: 11, want: 3},
		{length: 300, want: 60},
	}
	for _, tc := range tests {
		if got := TotalPages(tc.length, 5); got != tc.want {
			t.Fatalf("TotalPages(%d): got=%d want=%d", tc.length, got, tc.want)
		}
	}
}

func TestPageSlice_SizesAcrossPages(t *testing.T) {
	t.Parallel()

	for length := 0; length <= 23; length++ {
		items := make([]int, length)
		for i := range items {
			items[i] = i
		}

		pages := TotalPages(length, 5)
		seen := 0
		for page := 0; page < pages; page++ {
			got := PageSlice(items, page, 5)
			if len(got) > 5 {
				t.Fatalf("length=%d page=%d: slice too long (%d)", length, page, len(got))
			}
			if page == pages-1 && length > 0 {
				want := length % 5
				if want == 0 {
					want = 5
				}
				if len(got) != want {
					t.Fatalf("length=%d: last page has %d items, want %d", length, len(got), want)
				}
			}
			for i, v := range got {
				if v != page*5+i {
					t.Fatalf("length=%d page=%d: unexpected item %d at %d", length, page, v, i)
				}
			}
			seen += len(got)
		}
		if seen != length {
			t.Fatalf("length=%d: pages covered %d items", length, seen)
		}
	}
}

func TestPageSlice_OutOfRange(t *testing.T) {
	t.Parallel()

	items := []string{"a", "b", "c"}
	if got := PageSlice(items, 3, 5); len(got) != 0 {
		t.Fatalf("expected empty slice past the end, got %v", got)
	}
	if got := PageSlice(items, -1, 5); len(got) != 3 {
		t.Fatalf("expected negative page to read as first page, got %v", got)
	}
}

func TestPager_AdvanceClamps(t *testing.T) {
	t.Parallel()

	pager := NewPager(5)
	const length = 12 // three pages

	if got := pager.Prev(length); got != 0 {
		t.Fatalf("expected prev on first page to stay at 0, got %d", got)
	}
	if pager.HasPrev() {
		t.Fatalf("expected no previous page")
	}

	pager.Next(length)
	pager.Next(length)
	if got := pager.Page(); got != 2 {
		t.Fatalf("expected page 2, got %d", got)
	}
	if pager.HasNext(length) {
		t.Fatalf("expected no next page on the last page")
	}
	if got := pager.Next(length); got != 2 {
		t.Fatalf("expected next on last page to stay at 2, got %d", got)
	}
	if got := pager.Advance(-10, length); got != 0 {
		t.Fatalf("expected large backwards move to clamp at 0, got %d", got)
	}

	pager.Next(length)
	pager.Reset()
	if pager.Page() != 0 {
		t.Fatalf("expected reset to return to page 0")
	}
}

func TestPager_EmptyCollection(t *testing.T) {
	t.Parallel()

	pager := NewPager(5)
	if got := pager.Next(0); got != 0 {
		t.Fatalf("expected empty collection to keep page 0, got %d", got)
	}
	if pager.HasNext(0) || pager.HasPrev() {
		t.Fatalf("expected no navigation on an empty collection")
	}
}
