package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/uhs/uhs/internal/platform/session"
)

func TestAudit_RecordsMutations(t *testing.T) {
	var entries []AuditEntry
	rec := AuditRecorderFunc(func(e AuditEntry) error {
		entries = append(entries, e)
		return nil
	})
	s := session.New("tok", []string{session.RoleAdmin}, "admin@uni.edu")
	e := echo.New()

	for _, method := range []string{http.MethodGet, http.MethodDelete} {
		req := httptest.NewRequest(method, "/admin/users/42", nil)
		req = req.WithContext(session.NewContext(req.Context(), s))
		c := e.NewContext(req, httptest.NewRecorder())
		c.Set("request_id", "req-1")
		Audit(zerolog.Nop(), rec)(func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })(c)
	}

	if len(entries) != 1 {
		t.Fatalf("only the DELETE should be audited, got %d entries", len(entries))
	}
	got := entries[0]
	if got.Action != "delete" || got.Target != "users" || got.Email != "admin@uni.edu" || got.RequestID != "req-1" || got.StatusCode != http.StatusNoContent {
		t.Errorf("unexpected entry %+v", got)
	}
}

func TestAudit_HTTPErrorStatus(t *testing.T) {
	var got AuditEntry
	rec := AuditRecorderFunc(func(e AuditEntry) error { got = e; return nil })
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/admin/restore", nil), httptest.NewRecorder())

	Audit(zerolog.Nop(), rec)(func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusBadRequest, "select exactly one backup archive")
	})(c)
	if got.StatusCode != http.StatusBadRequest || got.Target != "restore" {
		t.Errorf("unexpected entry %+v", got)
	}
}

func TestAuditTarget(t *testing.T) {
	tests := map[string]string{
		"/admin/users/42": "users",
		"/admin/assistants/a@b.edu/stock-permission": "assistants.stock-permission",
		"/admin/backup": "backup",
		"/feedback":     "feedback",
		"/":             "",
	}
	for path, want := range tests {
		if got := auditTarget(path); got != want {
			t.Errorf("auditTarget(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestAudit_SkipsPublicPaths(t *testing.T) {
	called := false
	rec := AuditRecorderFunc(func(AuditEntry) error { called = true; return nil })
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/auth/signin", nil), httptest.NewRecorder())
	Audit(zerolog.Nop(), rec)(func(c echo.Context) error { return c.NoContent(http.StatusOK) })(c)
	if called {
		t.Error("sign-in should not be audited")
	}
}
