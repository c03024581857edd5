package admin

import (
	"strings"
	"time"

	"github.com/uhs/uhs/pkg/listview"
)

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func UserColumns() []listview.Column[User] {
	return []listview.Column[User]{
		{Key: "name", Title: "Name", Text: func(u User) string { return u.Name }, Searchable: true},
		{Key: "email", Title: "Email", Text: func(u User) string { return u.Email }, Searchable: true},
		{Key: "role", Title: "Role", Text: func(u User) string { return u.Role }, Searchable: true},
		{Key: "status", Title: "Status", Text: func(u User) string { return string(u.Status) }, Searchable: true},
		{Key: "lastLogin", Title: "Last login", Time: func(u User) time.Time {
			if u.LastLogin == nil {
				return time.Time{}
			}
			return *u.LastLogin
		}, Secondary: true},
		{Key: "id", Title: "ID", Text: func(u User) string { return u.ID }, Secondary: true},
	}
}

func DeletedAppointmentColumns() []listview.Column[DeletedAppointment] {
	return []listview.Column[DeletedAppointment]{
		{Key: "patientName", Title: "Patient", Text: func(a DeletedAppointment) string { return a.PatientName }, Searchable: true},
		{Key: "patientEmail", Title: "Email", Text: func(a DeletedAppointment) string { return a.PatientEmail }, Searchable: true},
		{Key: "reason", Title: "Reason", Text: func(a DeletedAppointment) string { return a.Reason }, Searchable: true},
		{Key: "deletedAt", Title: "Deleted", Time: func(a DeletedAppointment) time.Time { return a.DeletedAt }},
		{Key: "deletedBy", Title: "Deleted by", Text: func(a DeletedAppointment) string { return a.DeletedBy }, Searchable: true, Secondary: true},
		{Key: "appointmentId", Title: "Appointment", Text: func(a DeletedAppointment) string { return a.AppointmentID }, Searchable: true, Secondary: true},
	}
}

func LogColumns() []listview.Column[LogEntry] {
	return []listview.Column[LogEntry]{
		{Key: "timestamp", Title: "Time", Time: func(l LogEntry) time.Time { return l.Timestamp }},
		{Key: "level", Title: "Level", Text: func(l LogEntry) string { return strings.ToUpper(string(l.Level)) }, Searchable: true},
		{Key: "message", Title: "Message", Text: func(l LogEntry) string { return l.Message }, Searchable: true},
		{Key: "source", Title: "Source", Text: func(l LogEntry) string { return l.Source }, Searchable: true, Secondary: true},
		{Key: "userId", Title: "User", Text: func(l LogEntry) string { return l.UserID }, Searchable: true, Secondary: true},
		{Key: "severity", Title: "Severity", Number: func(l LogEntry) float64 { return float64(l.Level.rank()) }, Secondary: true},
	}
}

func AssistantColumns() []listview.Column[Assistant] {
	return []listview.Column[Assistant]{
		{Key: "name", Title: "Name", Text: func(a Assistant) string { return a.Name }, Searchable: true},
		{Key: "email", Title: "Email", Text: func(a Assistant) string { return a.Email }, Searchable: true},
		{Key: "canEditStock", Title: "Stock edit", Text: func(a Assistant) string { return yesNo(a.CanEditStock) }},
		{Key: "phone", Title: "Phone", Text: func(a Assistant) string { return a.Phone }, Searchable: true, Secondary: true},
	}
}

func DoctorColumns() []listview.Column[Doctor] {
	return []listview.Column[Doctor]{
		{Key: "name", Title: "Name", Text: func(d Doctor) string { return d.Name }, Searchable: true},
		{Key: "email", Title: "Email", Text: func(d Doctor) string { return d.Email }, Searchable: true},
		{Key: "canEditStock", Title: "Stock edit", Text: func(d Doctor) string { return yesNo(d.CanEditStock) }},
		{Key: "designation", Title: "Designation", Text: func(d Doctor) string { return d.Designation }, Searchable: true, Secondary: true},
		{Key: "id", Title: "ID", Text: func(d Doctor) string { return d.ID }, Secondary: true},
	}
}
