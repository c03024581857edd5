package portal

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/uhs/uhs/internal/platform/middleware"
)

// pgAuditRecorder writes admin changes to the portal_audit table.
type pgAuditRecorder struct {
	pool    *pgxpool.Pool
	timeout time.Duration
}

func NewPGAuditRecorder(pool *pgxpool.Pool) middleware.AuditRecorder {
	return &pgAuditRecorder{pool: pool, timeout: 5 * time.Second}
}

func (r *pgAuditRecorder) RecordAccess(e middleware.AuditEntry) error {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	roles := e.Roles
	if roles == nil {
		roles = []string{}
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO portal_audit (request_id, session_id, email, roles, action, target, method, path, remote_ip, status, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		e.RequestID, e.SessionID, e.Email, roles, e.Action, e.Target, e.Method, e.Path, e.IPAddress, e.StatusCode, e.Timestamp,
	)
	return err
}
