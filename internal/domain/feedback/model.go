package feedback

import (
	"strconv"
	"time"

	"github.com/uhs/uhs/pkg/listview"
)

// Feedback is one patient rating of a visit.
type Feedback struct {
	ID            string    `json:"id"`
	Rating        int       `json:"rating"`
	Comment       string    `json:"comment"`
	CreatedAt     time.Time `json:"createdAt"`
	AppointmentID string    `json:"appointmentId,omitempty"`
}

// Page is one cursor page of /api/feedback/all.
type Page struct {
	Feedbacks  []Feedback `json:"feedbacks"`
	Data       []Feedback `json:"data"`
	NextCursor string     `json:"nextCursor"`
}

// Items returns whichever list field the backend populated.
func (p *Page) Items() []Feedback {
	if len(p.Feedbacks) > 0 {
		return p.Feedbacks
	}
	return p.Data
}

// Submission is the body of POST /api/feedback/submit.
type Submission struct {
	Rating        int    `json:"rating"`
	Comment       string `json:"comment"`
	AppointmentID string `json:"appointmentId,omitempty"`
}

// Stats summarises the loaded feedback.
type Stats struct {
	Count        int     `json:"count"`
	Average      float64 `json:"average"`
	Distribution [5]int  `json:"distribution"`
}

func Columns() []listview.Column[Feedback] {
	return []listview.Column[Feedback]{
		{Key: "rating", Title: "Rating", Number: func(f Feedback) float64 { return float64(f.Rating) }},
		{Key: "comment", Title: "Comment", Text: func(f Feedback) string { return f.Comment }, Searchable: true},
		{Key: "createdAt", Title: "Submitted", Time: func(f Feedback) time.Time { return f.CreatedAt }},
		{Key: "id", Title: "ID", Text: func(f Feedback) string { return f.ID }, Searchable: true, Secondary: true},
		{Key: "stars", Title: "Stars", Text: stars, Secondary: true},
	}
}

func stars(f Feedback) string {
	if f.Rating < MinRating || f.Rating > MaxRating {
		return strconv.Itoa(f.Rating)
	}
	full := []rune("★★★★★")
	empty := []rune("☆☆☆☆☆")
	return string(full[:f.Rating]) + string(empty[:MaxRating-f.Rating])
}
