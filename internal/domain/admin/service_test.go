package admin

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/uhs/uhs/internal/platform/apiclient"
)

// -- Mock Repository --

type mockRepo struct {
	users      []User
	deleted    []DeletedAppointment
	logs       []LogEntry
	assistants []Assistant
	doctors    []Doctor

	deletedUsers []string
	updates      map[string]AssistantUpdate
	permissions  map[string]bool
	restored     []Upload
	imported     []Upload
	permErr      error
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		users: []User{
			{ID: "u1", Name: "Asha", Email: "asha@uni.edu", Role: "PATIENT", Status: StatusActive},
			{ID: "u2", Name: "Bilal", Email: "bilal@uni.edu", Role: "DOCTOR", Status: StatusInactive},
		},
		logs: []LogEntry{
			{ID: "l1", Level: LevelInfo, Message: "started", Timestamp: time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)},
			{ID: "l2", Level: LevelWarning, Message: "slow", Timestamp: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)},
			{ID: "l3", Level: LevelError, Message: "failed", Timestamp: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)},
		},
		assistants: []Assistant{
			{Email: "na1@uni.edu", Name: "Nadia"},
			{Email: "na2@uni.edu", Name: "Omar", CanEditStock: true},
		},
		doctors:     []Doctor{{ID: "d1", Name: "Dr. Rao"}},
		updates:     make(map[string]AssistantUpdate),
		permissions: make(map[string]bool),
	}
}

func (m *mockRepo) ListUsers(context.Context) ([]User, error) { return m.users, nil }

func (m *mockRepo) DeleteUser(_ context.Context, id string) error {
	m.deletedUsers = append(m.deletedUsers, id)
	return nil
}

func (m *mockRepo) DeletedAppointments(context.Context) ([]DeletedAppointment, error) {
	return m.deleted, nil
}

func (m *mockRepo) SystemLogs(context.Context) ([]LogEntry, error) { return m.logs, nil }

func (m *mockRepo) ListAssistants(context.Context) ([]Assistant, error) { return m.assistants, nil }

func (m *mockRepo) UpdateAssistant(_ context.Context, email string, u *AssistantUpdate) error {
	m.updates[email] = *u
	return nil
}

func (m *mockRepo) DeleteAssistant(context.Context, string) error { return nil }

func (m *mockRepo) SetAssistantStockPermission(_ context.Context, email string, canEdit bool) error {
	if m.permErr != nil {
		return m.permErr
	}
	m.permissions[email] = canEdit
	return nil
}

func (m *mockRepo) ListDoctors(context.Context) ([]Doctor, error) { return m.doctors, nil }

func (m *mockRepo) SetDoctorStockPermission(_ context.Context, id string, canEdit bool) error {
	if m.permErr != nil {
		return m.permErr
	}
	m.permissions[id] = canEdit
	return nil
}

func (m *mockRepo) Backup(context.Context) (*apiclient.Attachment, error) {
	return &apiclient.Attachment{Filename: "backup.zip", ContentType: "application/zip", Data: []byte("PK")}, nil
}

func (m *mockRepo) Restore(_ context.Context, archive Upload) error {
	m.restored = append(m.restored, archive)
	return nil
}

func (m *mockRepo) ImportStudents(_ context.Context, csv Upload) (*ImportResult, error) {
	m.imported = append(m.imported, csv)
	return &ImportResult{Message: "ok", Imported: 2}, nil
}

func isValidation(err error) bool {
	var ve *apiclient.ValidationError
	return errors.As(err, &ve)
}

// -- Tests --

func TestService_DeleteUserRequiresID(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	if err := svc.DeleteUser(context.Background(), "  "); !isValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
	if err := svc.DeleteUser(context.Background(), "u1"); err != nil {
		t.Fatal(err)
	}
	if len(repo.deletedUsers) != 1 || repo.deletedUsers[0] != "u1" {
		t.Errorf("unexpected deletes %v", repo.deletedUsers)
	}
}

func TestService_SystemLogsLevel(t *testing.T) {
	tests := []struct {
		min   LogLevel
		want  int
		isErr bool
	}{
		{"", 3, false},
		{LevelInfo, 3, false},
		{LevelWarning, 2, false},
		{LevelError, 1, false},
		{"debug", 0, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.min), func(t *testing.T) {
			logs, err := NewService(newMockRepo()).SystemLogs(context.Background(), tt.min)
			if tt.isErr {
				if !isValidation(err) {
					t.Errorf("expected validation error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if len(logs) != tt.want {
				t.Errorf("expected %d entries, got %d", tt.want, len(logs))
			}
		})
	}
}

func TestService_UpdateAssistantValidation(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	ctx := context.Background()

	if err := svc.UpdateAssistant(ctx, "", &AssistantUpdate{Name: "x"}); !isValidation(err) {
		t.Errorf("missing email: expected validation error, got %v", err)
	}
	if err := svc.UpdateAssistant(ctx, "na1@uni.edu", &AssistantUpdate{Name: "   "}); !isValidation(err) {
		t.Errorf("blank name: expected validation error, got %v", err)
	}
	if err := svc.UpdateAssistant(ctx, "na1@uni.edu", &AssistantUpdate{Name: " Nadia K "}); err != nil {
		t.Fatal(err)
	}
	if repo.updates["na1@uni.edu"].Name != "Nadia K" {
		t.Errorf("name should be trimmed, got %q", repo.updates["na1@uni.edu"].Name)
	}
}

func TestService_StockPermissionUpdatesLoadedCopy(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	ctx := context.Background()
	v := svc.NewAssistantViewer(10)
	if err := v.Load(ctx); err != nil {
		t.Fatal(err)
	}

	if err := svc.SetAssistantStockPermission(ctx, "na1@uni.edu", true, v); err != nil {
		t.Fatal(err)
	}
	if !repo.permissions["na1@uni.edu"] {
		t.Error("backend should receive the grant")
	}
	for _, a := range v.Snapshot().Items {
		if a.Email == "na1@uni.edu" && !a.CanEditStock {
			t.Error("loaded copy should reflect the confirmed grant")
		}
	}
	if repo.assistants[0].CanEditStock {
		t.Error("repository data must not be mutated by the view edit")
	}
}

func TestService_StockPermissionFailureKeepsPrevious(t *testing.T) {
	repo := newMockRepo()
	repo.permErr = &apiclient.ServerError{StatusCode: 500, Message: "boom"}
	svc := NewService(repo)
	ctx := context.Background()
	v := svc.NewDoctorViewer(10)
	if err := v.Load(ctx); err != nil {
		t.Fatal(err)
	}

	if err := svc.SetDoctorStockPermission(ctx, "d1", true, v); err == nil {
		t.Fatal("expected backend error")
	}
	if v.Snapshot().Items[0].CanEditStock {
		t.Error("failed toggle must keep the previous value")
	}
}

func TestService_StockPermissionWithoutViewer(t *testing.T) {
	repo := newMockRepo()
	if err := NewService(repo).SetDoctorStockPermission(context.Background(), "d1", true, nil); err != nil {
		t.Fatal(err)
	}
	if !repo.permissions["d1"] {
		t.Error("backend should receive the grant")
	}
}

func TestService_Restore(t *testing.T) {
	archive := Upload{Filename: "b.zip", Data: []byte("PK")}
	tests := []struct {
		name  string
		files []Upload
		ok    bool
	}{
		{"none", nil, false},
		{"two", []Upload{archive, archive}, false},
		{"empty", []Upload{{Filename: "b.zip"}}, false},
		{"one", []Upload{archive}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMockRepo()
			err := NewService(repo).Restore(context.Background(), tt.files)
			if tt.ok != (err == nil) {
				t.Fatalf("ok=%v, got err %v", tt.ok, err)
			}
			if tt.ok && len(repo.restored) != 1 {
				t.Error("archive should be uploaded")
			}
		})
	}
}

func TestService_ImportStudents(t *testing.T) {
	tests := []struct {
		name string
		file Upload
		ok   bool
	}{
		{"csv", Upload{Filename: "students.csv", Data: []byte("a,b\n")}, true},
		{"upper ext", Upload{Filename: "STUDENTS.CSV", Data: []byte("a,b\n")}, true},
		{"xlsx", Upload{Filename: "students.xlsx", Data: []byte("x")}, false},
		{"empty", Upload{Filename: "students.csv"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := NewService(newMockRepo()).ImportStudents(context.Background(), tt.file)
			if !tt.ok {
				if !isValidation(err) {
					t.Errorf("expected validation error, got %v", err)
				}
				return
			}
			if err != nil || res.Imported != 2 {
				t.Errorf("unexpected result %+v, %v", res, err)
			}
		})
	}
}

func TestService_LogViewerNewestFirst(t *testing.T) {
	v := NewService(newMockRepo()).NewLogViewer(LevelWarning, 10)
	if err := v.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	items := v.Snapshot().Items
	if len(items) != 2 || items[0].ID != "l3" || items[1].ID != "l2" {
		t.Errorf("unexpected order %+v", items)
	}
}
