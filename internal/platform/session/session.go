// Package session holds the signed-in user's credentials and the guards that
// depend on them. A Session is created on login, passed explicitly to every
// component that needs it, and destroyed on logout or idle expiry.
package session

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Roles as stored by the backend sign-in responses.
const (
	RoleAdmin     = "ADMIN"
	RoleDoctor    = "DOCTOR"
	RoleAssistant = "AD"
	RolePatient   = "PATIENT"
)

// DefaultIdleTimeout is the inactivity period after which a session ends.
const DefaultIdleTimeout = 5 * time.Minute

var (
	ErrNoSession      = errors.New("no active session")
	ErrTokenExpired   = errors.New("session token expired")
	ErrRoleNotAllowed = errors.New("role not allowed for this view")
	ErrNotFound       = errors.New("session not found")
)

// Session replaces the token, roles, email and appointmentId keys the browser
// portal kept in local storage.
type Session struct {
	ID            uuid.UUID `json:"id"`
	AccessToken   string    `json:"token"`
	Roles         []string  `json:"roles"`
	Email         string    `json:"email"`
	AppointmentID string    `json:"appointmentId,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	LastSeen      time.Time `json:"last_seen"`

	now func() time.Time
}

// New starts a session for a successful sign-in.
func New(token string, roles []string, email string) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:          uuid.New(),
		AccessToken: token,
		Roles:       normalizeRoles(roles),
		Email:       email,
		CreatedAt:   now,
		LastSeen:    now,
	}
}

func normalizeRoles(roles []string) []string {
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		r = strings.ToUpper(strings.TrimSpace(strings.TrimPrefix(r, "ROLE_")))
		if r != "" {
			out = append(out, r)
		}
	}
	return out
}

func (s *Session) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}

// Token implements apiclient.TokenSource. A nil session, an empty token and
// an expired JWT all count as missing credentials.
func (s *Session) Token() (string, error) {
	if s == nil || s.AccessToken == "" {
		return "", ErrNoSession
	}
	if claims, err := ParseClaims(s.AccessToken); err == nil && claims.ExpiredAt(s.clock()) {
		return "", ErrTokenExpired
	}
	return s.AccessToken, nil
}

// HasRole reports whether the session holds role.
func (s *Session) HasRole(role string) bool {
	if s == nil {
		return false
	}
	role = strings.ToUpper(strings.TrimPrefix(role, "ROLE_"))
	for _, r := range s.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// PrimaryRole is the role used to build role-scoped endpoint paths.
func (s *Session) PrimaryRole() string {
	if s == nil || len(s.Roles) == 0 {
		return ""
	}
	return s.Roles[0]
}

// Touch records activity.
func (s *Session) Touch(at time.Time) {
	s.LastSeen = at.UTC()
}

// IdleExpired reports whether no activity was seen for timeout.
func (s *Session) IdleExpired(now time.Time, timeout time.Duration) bool {
	if timeout <= 0 {
		return false
	}
	return now.Sub(s.LastSeen) >= timeout
}

// Authorize checks that s is signed in and, when allowed is non-empty, holds
// one of the allowed roles.
func Authorize(s *Session, allowed ...string) error {
	if _, err := s.Token(); err != nil {
		return err
	}
	if len(allowed) == 0 {
		return nil
	}
	for _, role := range allowed {
		if s.HasRole(role) {
			return nil
		}
	}
	return ErrRoleNotAllowed
}
