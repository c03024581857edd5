package admin

import (
	"context"

	"github.com/uhs/uhs/internal/platform/apiclient"
)

type UserRepository interface {
	ListUsers(ctx context.Context) ([]User, error)
	DeleteUser(ctx context.Context, id string) error
	DeletedAppointments(ctx context.Context) ([]DeletedAppointment, error)
	SystemLogs(ctx context.Context) ([]LogEntry, error)
}

type StaffRepository interface {
	ListAssistants(ctx context.Context) ([]Assistant, error)
	UpdateAssistant(ctx context.Context, email string, u *AssistantUpdate) error
	DeleteAssistant(ctx context.Context, email string) error
	SetAssistantStockPermission(ctx context.Context, email string, canEdit bool) error
	ListDoctors(ctx context.Context) ([]Doctor, error)
	SetDoctorStockPermission(ctx context.Context, id string, canEdit bool) error
}

type MaintenanceRepository interface {
	Backup(ctx context.Context) (*apiclient.Attachment, error)
	Restore(ctx context.Context, archive Upload) error
	ImportStudents(ctx context.Context, csv Upload) (*ImportResult, error)
}

// Repository is the whole admin surface of the backend.
type Repository interface {
	UserRepository
	StaffRepository
	MaintenanceRepository
}
