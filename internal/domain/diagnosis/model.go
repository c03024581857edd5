package diagnosis

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/uhs/uhs/pkg/listview"
)

// Frequency is how often a diagnosis was recorded.
type Frequency struct {
	Diagnosis string `json:"diagnosis"`
	Count     int    `json:"count"`
}

// Frequencies decodes either a {"diagnosis": count} object or an array of
// {"diagnosis", "count"} records, and keeps the result ordered by count
// descending then name.
type Frequencies []Frequency

func (f *Frequencies) UnmarshalJSON(b []byte) error {
	var out []Frequency
	if trimmed := strings.TrimSpace(string(b)); strings.HasPrefix(trimmed, "{") {
		var m map[string]int
		if err := json.Unmarshal(b, &m); err != nil {
			return fmt.Errorf("decode diagnosis frequencies: %w", err)
		}
		out = make([]Frequency, 0, len(m))
		for name, n := range m {
			out = append(out, Frequency{Diagnosis: name, Count: n})
		}
	} else {
		var rows []struct {
			Diagnosis string `json:"diagnosis"`
			Text      string `json:"text"`
			Count     int    `json:"count"`
			Value     int    `json:"value"`
		}
		if err := json.Unmarshal(b, &rows); err != nil {
			return fmt.Errorf("decode diagnosis frequencies: %w", err)
		}
		out = make([]Frequency, 0, len(rows))
		for _, r := range rows {
			name, n := r.Diagnosis, r.Count
			if name == "" {
				name = r.Text
			}
			if n == 0 {
				n = r.Value
			}
			out = append(out, Frequency{Diagnosis: name, Count: n})
		}
	}
	slices.SortStableFunc(out, func(a, b Frequency) int {
		if a.Count != b.Count {
			return b.Count - a.Count
		}
		return strings.Compare(a.Diagnosis, b.Diagnosis)
	})
	*f = out
	return nil
}

// Word is one word-cloud entry with its interpolated font size.
type Word struct {
	Text     string  `json:"text"`
	Count    int     `json:"count"`
	FontSize float64 `json:"fontSize"`
}

func Columns() []listview.Column[Frequency] {
	return []listview.Column[Frequency]{
		{Key: "diagnosis", Title: "Diagnosis", Text: func(f Frequency) string { return f.Diagnosis }, Searchable: true},
		{Key: "count", Title: "Cases", Number: func(f Frequency) float64 { return float64(f.Count) }},
	}
}
