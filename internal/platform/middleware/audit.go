package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/uhs/uhs/internal/platform/session"
)

// AuditEntry records one administrative change made through the portal.
type AuditEntry struct {
	SessionID  string
	Email      string
	Roles      []string
	Action     string
	Target     string
	Method     string
	Path       string
	IPAddress  string
	RequestID  string
	StatusCode int
	Timestamp  time.Time
}

// AuditRecorder persists audit entries beyond the log stream.
type AuditRecorder interface {
	RecordAccess(entry AuditEntry) error
}

type AuditRecorderFunc func(entry AuditEntry) error

func (f AuditRecorderFunc) RecordAccess(entry AuditEntry) error {
	return f(entry)
}

// Audit logs every state-changing request (anything but GET, HEAD and
// OPTIONS) with the acting session, then hands the entry to recorder when
// one is given. Public paths such as sign-in are not audited.
func Audit(logger zerolog.Logger, recorder AuditRecorder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if !isMutation(req.Method) || session.IsPublicPath(req.URL.Path) {
				return next(c)
			}

			err := next(c)

			entry := AuditEntry{
				Timestamp:  time.Now().UTC(),
				Action:     methodToAction(req.Method),
				Target:     auditTarget(req.URL.Path),
				Method:     req.Method,
				Path:       req.URL.Path,
				IPAddress:  c.RealIP(),
				StatusCode: c.Response().Status,
			}
			if he, ok := err.(*echo.HTTPError); ok && !c.Response().Committed {
				entry.StatusCode = he.Code
			}
			if rid, ok := c.Get("request_id").(string); ok {
				entry.RequestID = rid
			}
			if s := session.FromContext(c.Request().Context()); s != nil {
				entry.SessionID = s.ID.String()
				entry.Email = s.Email
				entry.Roles = s.Roles
			}

			if recorder != nil {
				if recErr := recorder.RecordAccess(entry); recErr != nil {
					logger.Error().Err(recErr).Str("request_id", entry.RequestID).Msg("record audit entry")
				}
			}

			evt := logger.Info()
			if entry.StatusCode >= http.StatusBadRequest {
				evt = logger.Warn()
			}
			evt.
				Str("type", "audit").
				Str("request_id", entry.RequestID).
				Str("session_id", entry.SessionID).
				Str("email", entry.Email).
				Strs("roles", entry.Roles).
				Str("action", entry.Action).
				Str("target", entry.Target).
				Str("path", entry.Path).
				Str("remote_ip", entry.IPAddress).
				Int("status", entry.StatusCode).
				Msg("admin_change")

			return err
		}
	}
}

func isMutation(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return false
	}
	return true
}

func methodToAction(method string) string {
	switch method {
	case http.MethodPost:
		return "create"
	case http.MethodPut, http.MethodPatch:
		return "update"
	case http.MethodDelete:
		return "delete"
	default:
		return strings.ToLower(method)
	}
}

// auditTarget names the resource a path acts on:
//
//	/admin/users/42               -> users
//	/admin/assistants/a@b/stock-permission -> assistants.stock-permission
//	/admin/backup                 -> backup
func auditTarget(path string) string {
	segs := strings.Split(strings.Trim(path, "/"), "/")
	if len(segs) > 0 && segs[0] == "admin" {
		segs = segs[1:]
	}
	switch len(segs) {
	case 0:
		return "unknown"
	case 1, 2:
		return segs[0]
	default:
		return segs[0] + "." + segs[len(segs)-1]
	}
}
