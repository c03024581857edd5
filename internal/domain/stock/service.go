package stock

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/uhs/uhs/internal/platform/apiclient"
	"github.com/uhs/uhs/internal/platform/session"
	"github.com/uhs/uhs/pkg/listview"
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// SubmitLog validates and records one day's usage.
func (s *Service) SubmitLog(ctx context.Context, in *LogInput) error {
	if err := in.Validate(); err != nil {
		return err
	}
	return s.repo.SubmitLog(ctx, in)
}

// ListLogs fetches logs in an inclusive date range.
func (s *Service) ListLogs(ctx context.Context, q LogQuery) ([]DailyLog, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	return s.repo.ListLogs(ctx, q)
}

// Today returns today's logs for a location.
func (s *Service) Today(ctx context.Context, locationID string) ([]DailyLog, error) {
	day := s.now().Format(DateLayout)
	return s.ListLogs(ctx, LogQuery{LocationID: locationID, StartDate: day, EndDate: day})
}

func (s *Service) ExportLogs(ctx context.Context, locationID string, filter FilterType) (*apiclient.Attachment, error) {
	if !filter.Valid() {
		return nil, apiclient.Invalid("filterType", fmt.Sprintf("must be one of day, week, month, year; got %q", filter))
	}
	return s.repo.ExportLogs(ctx, locationID, filter)
}

// exportRoles may run the advanced stock export.
var exportRoles = []string{session.RoleAdmin, session.RoleDoctor, session.RoleAssistant}

func (s *Service) ExportStock(ctx context.Context, q ExportQuery) (*apiclient.Attachment, error) {
	q.Role = strings.ToUpper(q.Role)
	allowed := false
	for _, r := range exportRoles {
		if r == q.Role {
			allowed = true
		}
	}
	if !allowed {
		return nil, apiclient.Invalid("role", "stock export is available to admins, doctors and assistants")
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}
	return s.repo.ExportStock(ctx, q)
}

func (s *Service) Locations(ctx context.Context) ([]Location, error) {
	return s.repo.Locations(ctx)
}

// NewLogViewer returns an offset-paged viewer over the logs matching q,
// newest day first.
func (s *Service) NewLogViewer(q LogQuery, pageSize int) *listview.Viewer[DailyLog] {
	return listview.NewViewer(listview.Config[DailyLog]{
		Source: func(ctx context.Context, _ listview.PageRequest) (listview.Page[DailyLog], error) {
			logs, err := s.ListLogs(ctx, q)
			return listview.Page[DailyLog]{Items: logs}, err
		},
		Columns:  LogColumns(),
		Mode:     listview.OffsetMode,
		PageSize: pageSize,
		Sort:     listview.SortSpec{Field: "date", Direction: listview.Desc},
		Explain:  apiclient.Explain,
	})
}
