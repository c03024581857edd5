package admin

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/uhs/uhs/internal/platform/apiclient"
	"github.com/uhs/uhs/pkg/listview"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// -- Users --

func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	return s.repo.ListUsers(ctx)
}

func (s *Service) DeleteUser(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return apiclient.Invalid("id", "is required")
	}
	return s.repo.DeleteUser(ctx, id)
}

func (s *Service) DeletedAppointments(ctx context.Context) ([]DeletedAppointment, error) {
	return s.repo.DeletedAppointments(ctx)
}

// SystemLogs returns log entries at or above min. An empty min returns all.
func (s *Service) SystemLogs(ctx context.Context, min LogLevel) ([]LogEntry, error) {
	if min != "" && !min.Valid() {
		return nil, apiclient.Invalid("level", "must be info, warning or error")
	}
	entries, err := s.repo.SystemLogs(ctx)
	if err != nil || min == "" {
		return entries, err
	}
	out := entries[:0:0]
	for _, e := range entries {
		if e.Level.rank() >= min.rank() {
			out = append(out, e)
		}
	}
	return out, nil
}

// -- Staff --

func (s *Service) ListAssistants(ctx context.Context) ([]Assistant, error) {
	return s.repo.ListAssistants(ctx)
}

func (s *Service) UpdateAssistant(ctx context.Context, email string, u *AssistantUpdate) error {
	if strings.TrimSpace(email) == "" {
		return apiclient.Invalid("email", "is required")
	}
	u.Name = strings.TrimSpace(u.Name)
	if u.Name == "" {
		return apiclient.Invalid("name", "is required")
	}
	return s.repo.UpdateAssistant(ctx, email, u)
}

func (s *Service) DeleteAssistant(ctx context.Context, email string) error {
	if strings.TrimSpace(email) == "" {
		return apiclient.Invalid("email", "is required")
	}
	return s.repo.DeleteAssistant(ctx, email)
}

func (s *Service) ListDoctors(ctx context.Context) ([]Doctor, error) {
	return s.repo.ListDoctors(ctx)
}

// SetAssistantStockPermission changes an assistant's stock-edit grant. When
// v is non-nil its loaded copy is updated once the backend confirms, also
// when a refresh is in flight; on failure it keeps the previous value.
func (s *Service) SetAssistantStockPermission(ctx context.Context, email string, canEdit bool, v *listview.Viewer[Assistant]) error {
	if strings.TrimSpace(email) == "" {
		return apiclient.Invalid("email", "is required")
	}
	if err := s.repo.SetAssistantStockPermission(ctx, email, canEdit); err != nil {
		return err
	}
	if v != nil {
		v.Edit(func(items []Assistant) []Assistant {
			for i := range items {
				if items[i].Email == email {
					items[i].CanEditStock = canEdit
				}
			}
			return items
		})
	}
	return nil
}

// SetDoctorStockPermission is SetAssistantStockPermission for doctors.
func (s *Service) SetDoctorStockPermission(ctx context.Context, id string, canEdit bool, v *listview.Viewer[Doctor]) error {
	if strings.TrimSpace(id) == "" {
		return apiclient.Invalid("id", "is required")
	}
	if err := s.repo.SetDoctorStockPermission(ctx, id, canEdit); err != nil {
		return err
	}
	if v != nil {
		v.Edit(func(items []Doctor) []Doctor {
			for i := range items {
				if items[i].ID == id {
					items[i].CanEditStock = canEdit
				}
			}
			return items
		})
	}
	return nil
}

// -- Maintenance --

func (s *Service) Backup(ctx context.Context) (*apiclient.Attachment, error) {
	return s.repo.Backup(ctx)
}

// Restore uploads a backup archive. Exactly one file must be given.
func (s *Service) Restore(ctx context.Context, files []Upload) error {
	if len(files) != 1 {
		return apiclient.Invalid("file", "select exactly one backup archive")
	}
	if len(files[0].Data) == 0 {
		return apiclient.Invalid("file", "backup archive is empty")
	}
	return s.repo.Restore(ctx, files[0])
}

// ImportStudents uploads a CSV of student accounts.
func (s *Service) ImportStudents(ctx context.Context, csv Upload) (*ImportResult, error) {
	if !strings.EqualFold(filepath.Ext(csv.Filename), ".csv") {
		return nil, apiclient.Invalid("file", "must be a .csv file")
	}
	if len(csv.Data) == 0 {
		return nil, apiclient.Invalid("file", "is empty")
	}
	return s.repo.ImportStudents(ctx, csv)
}

// -- Views --

func offsetViewer[T any](fetch func(ctx context.Context) ([]T, error), cols []listview.Column[T], sort listview.SortSpec, pageSize int) *listview.Viewer[T] {
	return listview.NewViewer(listview.Config[T]{
		Source: func(ctx context.Context, _ listview.PageRequest) (listview.Page[T], error) {
			items, err := fetch(ctx)
			return listview.Page[T]{Items: items}, err
		},
		Columns:  cols,
		Mode:     listview.OffsetMode,
		PageSize: pageSize,
		Sort:     sort,
		Explain:  apiclient.Explain,
	})
}

func (s *Service) NewUserViewer(pageSize int) *listview.Viewer[User] {
	return offsetViewer(s.repo.ListUsers, UserColumns(), listview.SortSpec{Field: "name"}, pageSize)
}

func (s *Service) NewDeletedAppointmentViewer(pageSize int) *listview.Viewer[DeletedAppointment] {
	return offsetViewer(s.repo.DeletedAppointments, DeletedAppointmentColumns(),
		listview.SortSpec{Field: "deletedAt", Direction: listview.Desc}, pageSize)
}

func (s *Service) NewLogViewer(min LogLevel, pageSize int) *listview.Viewer[LogEntry] {
	fetch := func(ctx context.Context) ([]LogEntry, error) { return s.SystemLogs(ctx, min) }
	return offsetViewer(fetch, LogColumns(), listview.SortSpec{Field: "timestamp", Direction: listview.Desc}, pageSize)
}

func (s *Service) NewAssistantViewer(pageSize int) *listview.Viewer[Assistant] {
	return offsetViewer(s.repo.ListAssistants, AssistantColumns(), listview.SortSpec{Field: "name"}, pageSize)
}

func (s *Service) NewDoctorViewer(pageSize int) *listview.Viewer[Doctor] {
	return offsetViewer(s.repo.ListDoctors, DoctorColumns(), listview.SortSpec{Field: "name"}, pageSize)
}
