package services

import (
	"strings"

	"github.com/iota-uz/training-sdk/modules/training/domain"
)

// RawRow is one data row keyed by normalized header, in column order.
// Duplicate headers keep their first occurrence for lookups.
type RawRow struct {
	Line   int
	keys   []string
	values []domain.Value
	exact  map[string]int
	folded map[string]int
}

func NewRawRow(line int, header []string, cells []domain.Value) RawRow {
	r := RawRow{
		Line:   line,
		keys:   make([]string, len(header)),
		values: make([]domain.Value, len(header)),
		exact:  make(map[string]int, len(header)),
		folded: make(map[string]int, len(header)),
	}
	for i, h := range header {
		key := NormalizeHeader(h)
		r.keys[i] = key
		if i < len(cells) {
			r.values[i] = cells[i]
		}
		if _, ok := r.exact[key]; !ok {
			r.exact[key] = i
		}
		if _, ok := r.folded[strings.ToLower(key)]; !ok {
			r.folded[strings.ToLower(key)] = i
		}
	}
	return r
}

func (r RawRow) Keys() []string {
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

// Get returns the cell under an exact normalized key.
func (r RawRow) Get(key string) (domain.Value, bool) {
	i, ok := r.exact[key]
	if !ok {
		return domain.Absent(), false
	}
	return r.values[i], true
}

func (r RawRow) getFolded(key string) (domain.Value, bool) {
	i, ok := r.folded[strings.ToLower(key)]
	if !ok {
		return domain.Absent(), false
	}
	return r.values[i], true
}

// IsBlank reports whether every cell is absent.
func (r RawRow) IsBlank() bool {
	for _, v := range r.values {
		if !v.IsAbsent() {
			return false
		}
	}
	return true
}
