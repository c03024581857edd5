package feedback

import (
	"slices"

	"github.com/uhs/uhs/pkg/listview"
)

// Order sorts feedback for display. Items are first stably sorted newest
// first, then stably sorted by rating in the requested direction, so rating
// is the primary key and recency breaks ties. Sorting on createdAt orders by
// time alone.
func Order(items []Feedback, spec listview.SortSpec) []Feedback {
	out := slices.Clone(items)
	byTime := func(a, b Feedback) int { return a.CreatedAt.Compare(b.CreatedAt) }

	if spec.Field == "createdAt" {
		listview.SortStable(out, byTime, spec.Direction)
		return out
	}
	listview.SortStable(out, byTime, listview.Desc)
	listview.SortStable(out, func(a, b Feedback) int { return a.Rating - b.Rating }, spec.Direction)
	return out
}

// Summarize computes the average rating and per-rating counts. Ratings
// outside 1..5 count towards Count and Average only.
func Summarize(items []Feedback) Stats {
	var st Stats
	if len(items) == 0 {
		return st
	}
	sum := 0
	for _, f := range items {
		sum += f.Rating
		if f.Rating >= MinRating && f.Rating <= MaxRating {
			st.Distribution[f.Rating-1]++
		}
	}
	st.Count = len(items)
	st.Average = float64(sum) / float64(len(items))
	return st
}
