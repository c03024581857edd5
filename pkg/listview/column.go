// Package listview implements the paginated remote list viewer shared by the
// feedback, log, user, permission and appointment views: a local filter and
// sort engine over the loaded page, a reducer-driven controller for offset and
// cursor paging, and a renderer for its loading, error and loaded states.
package listview

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"
)

// Direction is a sort direction.
type Direction int

const (
	Asc Direction = iota
	Desc
)

// ParseDirection accepts asc/desc and the portal's labels for them.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "asc", "ascending", "low-to-high", "oldest":
		return Asc, nil
	case "desc", "descending", "high-to-low", "newest":
		return Desc, nil
	default:
		return Asc, fmt.Errorf("unknown sort direction %q", s)
	}
}

func (d Direction) String() string {
	if d == Desc {
		return "desc"
	}
	return "asc"
}

func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Direction) UnmarshalText(b []byte) error {
	parsed, err := ParseDirection(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// SortSpec names the active sort column and direction.
type SortSpec struct {
	Field     string    `json:"field,omitempty"`
	Direction Direction `json:"direction"`
}

// Column describes one field of a list entity. Exactly one of Number or Time
// may be set to make the column compare numerically or chronologically;
// otherwise Text is compared lexicographically.
type Column[T any] struct {
	Key        string
	Title      string
	Text       func(T) string
	Number     func(T) float64
	Time       func(T) time.Time
	Searchable bool
	// Secondary columns are hidden in the condensed layout until the row is
	// expanded.
	Secondary bool
}

// Cell returns the display text of the column for item.
func (c Column[T]) Cell(item T) string {
	switch {
	case c.Text != nil:
		return c.Text(item)
	case c.Number != nil:
		return fmt.Sprintf("%g", c.Number(item))
	case c.Time != nil:
		t := c.Time(item)
		if t.IsZero() {
			return ""
		}
		return t.Format("2006-01-02 15:04")
	default:
		return ""
	}
}

func (c Column[T]) compare(a, b T) int {
	switch {
	case c.Number != nil:
		return cmp.Compare(c.Number(a), c.Number(b))
	case c.Time != nil:
		return c.Time(a).Compare(c.Time(b))
	case c.Text != nil:
		return strings.Compare(c.Text(a), c.Text(b))
	default:
		return 0
	}
}

// Lookup finds a column by key.
func Lookup[T any](cols []Column[T], key string) (Column[T], bool) {
	for _, c := range cols {
		if c.Key == key {
			return c, true
		}
	}
	return Column[T]{}, false
}

// Filter keeps the items whose searchable text columns contain query,
// ignoring case. An empty query keeps everything.
func Filter[T any](items []T, query string, cols []Column[T]) []T {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return slices.Clone(items)
	}
	out := make([]T, 0, len(items))
	for _, item := range items {
		for _, c := range cols {
			if !c.Searchable || c.Text == nil {
				continue
			}
			if strings.Contains(strings.ToLower(c.Text(item)), q) {
				out = append(out, item)
				break
			}
		}
	}
	return out
}

// Sort returns a stably sorted copy of items. An unknown or empty field
// leaves the order unchanged.
func Sort[T any](items []T, spec SortSpec, cols []Column[T]) []T {
	out := slices.Clone(items)
	col, ok := Lookup(cols, spec.Field)
	if !ok {
		return out
	}
	SortStable(out, col.compare, spec.Direction)
	return out
}

// SortStable sorts items in place by compare in the given direction, keeping
// the existing order of equal elements.
func SortStable[T any](items []T, compare func(a, b T) int, dir Direction) {
	slices.SortStableFunc(items, func(a, b T) int {
		if dir == Desc {
			return compare(b, a)
		}
		return compare(a, b)
	})
}
