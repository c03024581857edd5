package diagnosis

import (
	"context"

	"github.com/uhs/uhs/internal/platform/apiclient"
	"github.com/uhs/uhs/pkg/listview"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Frequencies(ctx context.Context) ([]Frequency, error) {
	return s.repo.Frequencies(ctx)
}

// WordCloud fetches the current frequencies and sizes them for display.
func (s *Service) WordCloud(ctx context.Context, opts CloudOptions) ([]Word, error) {
	freqs, err := s.repo.Frequencies(ctx)
	if err != nil {
		return nil, err
	}
	return WordCloud(freqs, opts), nil
}

// NewViewer lists the frequencies as a table, most frequent first.
func (s *Service) NewViewer(pageSize int) *listview.Viewer[Frequency] {
	return listview.NewViewer(listview.Config[Frequency]{
		Source: func(ctx context.Context, _ listview.PageRequest) (listview.Page[Frequency], error) {
			freqs, err := s.repo.Frequencies(ctx)
			return listview.Page[Frequency]{Items: freqs}, err
		},
		Columns:  Columns(),
		Mode:     listview.OffsetMode,
		PageSize: pageSize,
		Sort:     listview.SortSpec{Field: "count", Direction: listview.Desc},
		Explain:  apiclient.Explain,
	})
}
