package feedback

import (
	"context"
	"strings"

	"github.com/uhs/uhs/internal/platform/apiclient"
	"github.com/uhs/uhs/pkg/listview"
)

const (
	MinRating        = 1
	MaxRating        = 5
	MaxCommentLength = 1000
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Submit validates and sends a rating.
func (s *Service) Submit(ctx context.Context, sub *Submission) error {
	if sub.Rating < MinRating || sub.Rating > MaxRating {
		return apiclient.Invalid("rating", "must be between 1 and 5")
	}
	sub.Comment = strings.TrimSpace(sub.Comment)
	if len([]rune(sub.Comment)) > MaxCommentLength {
		return apiclient.Invalid("comment", "must be at most 1000 characters")
	}
	return s.repo.Submit(ctx, sub)
}

// List fetches one cursor page.
func (s *Service) List(ctx context.Context, cursor string, dir listview.Direction) (*Page, error) {
	return s.repo.List(ctx, cursor, dir)
}

// Source adapts List to a list viewer source.
func (s *Service) Source() listview.Source[Feedback] {
	return func(ctx context.Context, req listview.PageRequest) (listview.Page[Feedback], error) {
		p, err := s.repo.List(ctx, req.Cursor, req.Sort.Direction)
		if err != nil {
			return listview.Page[Feedback]{}, err
		}
		return listview.Page[Feedback]{Items: p.Items(), NextCursor: p.NextCursor}, nil
	}
}

// NewViewer returns a cursor-paged viewer sorted by rating, highest first.
func (s *Service) NewViewer(pageSize int) *listview.Viewer[Feedback] {
	return listview.NewViewer(listview.Config[Feedback]{
		Source:   s.Source(),
		Columns:  Columns(),
		Mode:     listview.CursorMode,
		PageSize: pageSize,
		Sort:     listview.SortSpec{Field: "rating", Direction: listview.Desc},
		Order:    Order,
		Explain:  apiclient.Explain,
	})
}
