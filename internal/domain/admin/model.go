package admin

import (
	"time"
)

// UserStatus is the account state of a portal user.
type UserStatus string

const (
	StatusActive    UserStatus = "active"
	StatusInactive  UserStatus = "inactive"
	StatusSuspended UserStatus = "suspended"
)

func (s UserStatus) Valid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusSuspended:
		return true
	}
	return false
}

type User struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	Role      string     `json:"role"`
	Name      string     `json:"name"`
	LastLogin *time.Time `json:"lastLogin,omitempty"`
	Status    UserStatus `json:"status"`
}

// DeletedAppointment is a read-only audit record.
type DeletedAppointment struct {
	ID            string    `json:"id"`
	AppointmentID string    `json:"appointmentId"`
	PatientName   string    `json:"patientName"`
	PatientEmail  string    `json:"patientEmail"`
	Reason        string    `json:"reason"`
	DeletedAt     time.Time `json:"deletedAt"`
	DeletedBy     string    `json:"deletedBy"`
}

// LogLevel is the severity of a system log entry.
type LogLevel string

const (
	LevelInfo    LogLevel = "info"
	LevelWarning LogLevel = "warning"
	LevelError   LogLevel = "error"
)

func (l LogLevel) Valid() bool {
	switch l {
	case LevelInfo, LevelWarning, LevelError:
		return true
	}
	return false
}

func (l LogLevel) rank() int {
	switch l {
	case LevelWarning:
		return 1
	case LevelError:
		return 2
	default:
		return 0
	}
}

type LogEntry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Level     LogLevel  `json:"level"`
	Message   string    `json:"message"`
	Source    string    `json:"source"`
	UserID    string    `json:"userId"`
}

// Assistant is a nursing assistant account.
type Assistant struct {
	Email        string `json:"email"`
	Name         string `json:"name"`
	Phone        string `json:"phone,omitempty"`
	Gender       string `json:"gender,omitempty"`
	CanEditStock bool   `json:"canEditStock"`
}

// AssistantUpdate is the body of PUT /api/admin/ad/{email}.
type AssistantUpdate struct {
	Name   string `json:"name"`
	Phone  string `json:"phone,omitempty"`
	Gender string `json:"gender,omitempty"`
}

type Doctor struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Designation  string `json:"designation,omitempty"`
	CanEditStock bool   `json:"canEditStock"`
}

// Upload is one file sent to the backend.
type Upload struct {
	Filename string
	Data     []byte
}

// ImportResult is the backend's summary of a student import.
type ImportResult struct {
	Message  string   `json:"message"`
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors,omitempty"`
}
