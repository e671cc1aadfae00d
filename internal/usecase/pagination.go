package usecase

const DefaultPageSize = 5

// TotalPages never returns less than 1 so an empty collection still reads
// as "page 1 of 1".
func TotalPages(length, pageSize int) int {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if length <= 0 {
		return 1
	}
	return (length + pageSize - 1) / pageSize
}

func PageSlice[T any](items []T, page, pageSize int) []T {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if page < 0 {
		page = 0
	}
	start := page * pageSize
	if start >= len(items) {
		return nil
	}
	end := start + pageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

// Pager is a zero-based page cursor over a collection of known length.
type Pager struct {
	size int
	page int
}

func NewPager(pageSize int) Pager {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return Pager{size: pageSize}
}

func (p Pager) Page() int {
	return p.page
}

func (p Pager) Size() int {
	return p.size
}

// Advance moves by delta pages and clamps into the valid range; moving past
// either end leaves the cursor where it is.
func (p *Pager) Advance(delta, length int) int {
	last := TotalPages(length, p.size) - 1
	next := p.page + delta
	if next < 0 {
		next = 0
	}
	if next > last {
		next = last
	}
	p.page = next
	return p.page
}

func (p *Pager) Next(length int) int {
	return p.Advance(1, length)
}

func (p *Pager) Prev(length int) int {
	return p.Advance(-1, length)
}

func (p *Pager) Reset() {
	p.page = 0
}

func (p Pager) HasPrev() bool {
	return p.page > 0
}

func (p Pager) HasNext(length int) bool {
	return p.page < TotalPages(length, p.size)-1
}
