package admin

import (
	"bytes"
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/uhs/uhs/internal/platform/apiclient"
)

type apiRepo struct {
	client *apiclient.Client
}

func NewAPIRepository(client *apiclient.Client) Repository {
	return &apiRepo{client: client}
}

func (r *apiRepo) get(ctx context.Context, path string, out interface{}) error {
	return r.client.Do(ctx, apiclient.Request{Method: http.MethodGet, Path: path, Auth: true}, out)
}

// -- Users --

func (r *apiRepo) ListUsers(ctx context.Context) ([]User, error) {
	var users []User
	err := r.get(ctx, "/api/admin/users", &users)
	return users, err
}

func (r *apiRepo) DeleteUser(ctx context.Context, id string) error {
	return r.client.Do(ctx, apiclient.Request{
		Method:   http.MethodDelete,
		Path:     "/api/admin/users/" + url.PathEscape(id),
		Auth:     true,
		Endpoint: "/api/admin/users/{id}",
	}, nil)
}

func (r *apiRepo) DeletedAppointments(ctx context.Context) ([]DeletedAppointment, error) {
	var out []DeletedAppointment
	err := r.get(ctx, "/api/admin/deleted-appointments", &out)
	return out, err
}

func (r *apiRepo) SystemLogs(ctx context.Context) ([]LogEntry, error) {
	var out []LogEntry
	err := r.get(ctx, "/api/admin/logs", &out)
	return out, err
}

// -- Staff --

func (r *apiRepo) ListAssistants(ctx context.Context) ([]Assistant, error) {
	var out []Assistant
	err := r.get(ctx, "/api/admin/ad", &out)
	return out, err
}

func (r *apiRepo) UpdateAssistant(ctx context.Context, email string, u *AssistantUpdate) error {
	return r.client.Do(ctx, apiclient.Request{
		Method:   http.MethodPut,
		Path:     "/api/admin/ad/" + url.PathEscape(email),
		Body:     u,
		Auth:     true,
		Endpoint: "/api/admin/ad/{email}",
	}, nil)
}

func (r *apiRepo) DeleteAssistant(ctx context.Context, email string) error {
	return r.client.Do(ctx, apiclient.Request{
		Method:   http.MethodDelete,
		Path:     "/api/admin/ad/" + url.PathEscape(email),
		Auth:     true,
		Endpoint: "/api/admin/ad/{email}",
	}, nil)
}

func (r *apiRepo) SetAssistantStockPermission(ctx context.Context, email string, canEdit bool) error {
	return r.client.Do(ctx, apiclient.Request{
		Method:   http.MethodPatch,
		Path:     "/api/admin/ad/" + url.PathEscape(email) + "/stock-permission",
		Query:    url.Values{"canEdit": {strconv.FormatBool(canEdit)}},
		Auth:     true,
		Endpoint: "/api/admin/ad/{email}/stock-permission",
	}, nil)
}

func (r *apiRepo) ListDoctors(ctx context.Context) ([]Doctor, error) {
	var out []Doctor
	err := r.get(ctx, "/api/admin/doctor", &out)
	return out, err
}

func (r *apiRepo) SetDoctorStockPermission(ctx context.Context, id string, canEdit bool) error {
	return r.client.Do(ctx, apiclient.Request{
		Method:   http.MethodPatch,
		Path:     "/api/admin/doctor/" + url.PathEscape(id) + "/stock-permission",
		Query:    url.Values{"canEdit": {strconv.FormatBool(canEdit)}},
		Auth:     true,
		Endpoint: "/api/admin/doctor/{id}/stock-permission",
	}, nil)
}

// -- Maintenance --

func (r *apiRepo) Backup(ctx context.Context) (*apiclient.Attachment, error) {
	return r.client.Download(ctx, apiclient.Request{
		Method:  http.MethodPost,
		Path:    "/api/admin/backup",
		Auth:    true,
		Timeout: r.client.LongTimeout(),
	}, "uhs-backup.zip")
}

func (r *apiRepo) Restore(ctx context.Context, archive Upload) error {
	return r.client.Do(ctx, apiclient.Request{
		Method:  http.MethodPost,
		Path:    "/api/admin/restore",
		Files:   []apiclient.FilePart{{Field: "file", Filename: archive.Filename, Reader: bytes.NewReader(archive.Data)}},
		Auth:    true,
		Timeout: r.client.LongTimeout(),
	}, nil)
}

func (r *apiRepo) ImportStudents(ctx context.Context, csv Upload) (*ImportResult, error) {
	var res ImportResult
	err := r.client.Do(ctx, apiclient.Request{
		Method:  http.MethodPost,
		Path:    "/api/admin/import-students",
		Files:   []apiclient.FilePart{{Field: "file", Filename: csv.Filename, Reader: bytes.NewReader(csv.Data)}},
		Auth:    true,
		Timeout: r.client.LongTimeout(),
	}, &res)
	if err != nil {
		return nil, err
	}
	return &res, nil
}
