package secrets

import (
	"fmt"
	"log/slog"
)

// Table is the immutable, dense-index secret list the gate reads from.
// Indexes follow the configured name order, mirroring the firmware's
// keycode-offset addressing. Values are loaded once at startup and never
// mutated; a layout reload rebuilds the whole table.
type Table struct {
	names   []string
	values  []string
	present []bool
}

// LoadTable resolves the ordered secret names against the store. Names
// missing from the store keep their slot so the index space stays aligned
// with the layout's secret bindings, but their keys behave like any other
// invalid index: consumed, nothing emitted.
func LoadTable(store Store, names []string) (*Table, error) {
	found, err := store.GetMultiple(names)
	if err != nil {
		return nil, fmt.Errorf("loading secret table: %w", err)
	}

	t := &Table{
		names:   make([]string, len(names)),
		values:  make([]string, len(names)),
		present: make([]bool, len(names)),
	}
	copy(t.names, names)
	for i, name := range names {
		val, ok := found[name]
		if !ok {
			slog.Warn("secret not in store, bound key will emit nothing", "secret", name)
			continue
		}
		t.values[i] = val
		t.present[i] = true
	}
	return t, nil
}

// NewTable builds a table directly from name/value pairs, for tests and
// for configs that inline non-sensitive strings.
func NewTable(names, values []string) *Table {
	t := &Table{
		names:   make([]string, len(names)),
		values:  make([]string, len(values)),
		present: make([]bool, len(values)),
	}
	copy(t.names, names)
	copy(t.values, values)
	for i := range t.present {
		t.present[i] = true
	}
	return t
}

// Secret returns the value at index i. ok is false when i is out of range
// or the slot had no value in the store.
func (t *Table) Secret(i int) (string, bool) {
	if i < 0 || i >= len(t.values) || !t.present[i] {
		return "", false
	}
	return t.values[i], true
}

// Name returns the configured name at index i, or "" when out of range.
func (t *Table) Name(i int) string {
	if i < 0 || i >= len(t.names) {
		return ""
	}
	return t.names[i]
}

// Len returns the number of secrets in the table.
func (t *Table) Len() int {
	return len(t.values)
}
