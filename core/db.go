package core

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Page describes a window over a result set ordered by the repository.
type Page struct {
	Number int // 1-based
	Size   int
}

// NewPage returns a Page with out-of-range values replaced by defaults.
func NewPage(number, size int) Page {
	if number < 1 {
		number = 1
	}
	if size < 1 {
		size = DefaultPageSize
	} else if size > MaxPageSize {
		size = MaxPageSize
	}
	return Page{Number: number, Size: size}
}

func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

// TotalPages returns the number of pages of `size` needed to hold `total` records.
func TotalPages(total, size int) int {
	if size < 1 || total < 1 {
		return 0
	}
	return (total + size - 1) / size
}
