package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaginate(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		count    int64
		number   int
		numPages int
		offset   int
	}{
		{"missing page", "", 45, 1, 3, 0},
		{"not a number", "abc", 45, 1, 3, 0},
		{"second page", "2", 45, 2, 3, 20},
		{"last page", "3", 45, 3, 3, 40},
		{"beyond last", "99", 45, 3, 3, 40},
		{"zero", "0", 45, 3, 3, 40},
		{"negative", "-4", 45, 3, 3, 40},
		{"overflows int", "99999999999999999999", 45, 3, 3, 40},
		{"overflows int negative", "-99999999999999999999", 45, 3, 3, 40},
		{"empty set", "1", 0, 1, 1, 0},
		{"empty set beyond", "5", 0, 1, 1, 0},
		{"exact multiple", "2", 40, 2, 2, 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := Paginate(tt.raw, tt.count, DefaultPerPage)
			assert.Equal(t, tt.number, w.Number)
			assert.Equal(t, tt.numPages, w.NumPages)
			assert.Equal(t, tt.offset, w.Offset)
			assert.Equal(t, DefaultPerPage, w.Limit)
		})
	}
}

func TestSlice(t *testing.T) {
	all := make([]int, 45)
	for i := range all {
		all[i] = i
	}

	p := Slice(all, "3", DefaultPerPage)
	assert.Equal(t, []int{40, 41, 42, 43, 44}, p.Items)
	assert.False(t, p.HasNext())
	assert.True(t, p.HasPrevious())
	assert.Equal(t, 2, p.PreviousPageNumber())
	assert.Equal(t, []int{1, 2, 3}, p.PageRange())

	empty := Slice([]int{}, "7", DefaultPerPage)
	assert.Empty(t, empty.Items)
	assert.Equal(t, 1, empty.Number)
	assert.False(t, empty.HasOtherPages())
}

func TestCounter(t *testing.T) {
	var c Counter
	assert.Equal(t, 0, c.Next())
	assert.Equal(t, 1, c.Next())
	assert.Equal(t, 2, c.Next())
}
