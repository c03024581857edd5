package session

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

type contextKey string

const sessionKey contextKey = "session"

// DefaultCookieName names the portal session cookie.
const DefaultCookieName = "uhs_session"

// publicPaths bypass the session guard.
var publicPaths = map[string]bool{
	"/":                 true,
	"/health":           true,
	"/metrics":          true,
	"/auth/signin":      true,
	"/auth/otp":         true,
	"/auth/verify":      true,
	"/auth/user/verify": true,
	"/auth/password":    true,
	"/auth/logout":      true,
	"/stock/places":     true,
}

// IsPublicPath reports whether path is reachable without a session.
func IsPublicPath(path string) bool {
	return publicPaths[path]
}

// NewContext returns ctx carrying s.
func NewContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

// FromContext returns the session stored in ctx, or nil.
func FromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(sessionKey).(*Session)
	return s
}

// MiddlewareConfig configures the cookie session loader.
type MiddlewareConfig struct {
	Store       Store
	CookieName  string
	IdleTimeout time.Duration
	Logger      zerolog.Logger
	// OnActivity is called with every authenticated request's session ID.
	OnActivity func(id uuid.UUID)
	// OnExpire is called after an idle session found on a request is deleted.
	OnExpire func(id uuid.UUID)
	Now      func() time.Time
}

// Middleware resolves the session cookie, ends sessions idle for longer than
// IdleTimeout, records activity and stores the live session on the request
// context. Requests without a valid session continue with no session; Guard
// decides whether that is acceptable.
func Middleware(cfg MiddlewareConfig) echo.MiddlewareFunc {
	if cfg.CookieName == "" {
		cfg.CookieName = DefaultCookieName
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cookie, err := c.Cookie(cfg.CookieName)
			if err != nil || cookie.Value == "" {
				return next(c)
			}
			id, err := uuid.Parse(cookie.Value)
			if err != nil {
				ClearCookie(c, cfg.CookieName)
				return next(c)
			}

			ctx := c.Request().Context()
			s, err := cfg.Store.Get(ctx, id)
			if errors.Is(err, ErrNotFound) {
				ClearCookie(c, cfg.CookieName)
				return next(c)
			}
			if err != nil {
				cfg.Logger.Error().Err(err).Str("session_id", id.String()).Msg("load session")
				return echo.NewHTTPError(http.StatusInternalServerError, "session store unavailable")
			}

			now := cfg.Now()
			if s.IdleExpired(now, cfg.IdleTimeout) {
				cfg.Logger.Info().Str("session_id", id.String()).Msg("session idle, signing out")
				if err := cfg.Store.Delete(ctx, id); err != nil {
					cfg.Logger.Error().Err(err).Msg("delete idle session")
				}
				if cfg.OnExpire != nil {
					cfg.OnExpire(id)
				}
				ClearCookie(c, cfg.CookieName)
				return next(c)
			}

			s.Touch(now)
			if err := cfg.Store.Save(ctx, s); err != nil {
				cfg.Logger.Warn().Err(err).Str("session_id", id.String()).Msg("record session activity")
			}
			if cfg.OnActivity != nil {
				cfg.OnActivity(s.ID)
			}
			c.SetRequest(c.Request().WithContext(NewContext(ctx, s)))
			return next(c)
		}
	}
}

// Guard allows the request through only when it carries a session holding
// one of roles (any role when none are given). Everything else is redirected
// to entryPoint with 303 See Other.
func Guard(entryPoint string, roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if err := Authorize(FromContext(c.Request().Context()), roles...); err != nil {
				return c.Redirect(http.StatusSeeOther, entryPoint)
			}
			return next(c)
		}
	}
}

// SetCookie issues the session cookie for s.
func SetCookie(c echo.Context, name string, s *Session) {
	c.SetCookie(&http.Cookie{
		Name:     name,
		Value:    s.ID.String(),
		Path:     "/",
		HttpOnly: true,
		Secure:   c.IsTLS(),
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie expires the session cookie.
func ClearCookie(c echo.Context, name string) {
	c.SetCookie(&http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}
