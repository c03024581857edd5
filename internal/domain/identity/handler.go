package identity

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/uhs/uhs/internal/platform/session"
	"github.com/uhs/uhs/internal/platform/viewstate"
)

// Lifecycle is notified when portal sessions begin and end.
type Lifecycle interface {
	Begin(ctx context.Context, s *session.Session) error
	End(ctx context.Context, id uuid.UUID, reason string) error
}

type Handler struct {
	svc        *Service
	sessions   Lifecycle
	cookieName string
}

func NewHandler(svc *Service, sessions Lifecycle, cookieName string) *Handler {
	if cookieName == "" {
		cookieName = session.DefaultCookieName
	}
	return &Handler{svc: svc, sessions: sessions, cookieName: cookieName}
}

// RegisterRoutes mounts the /auth routes. signIn wraps the routes that take
// credentials or one-time codes, typically a rate limiter.
func (h *Handler) RegisterRoutes(g *echo.Group, signIn ...echo.MiddlewareFunc) {
	a := g.Group("/auth")
	a.POST("/otp", h.SendOTP, signIn...)
	a.POST("/verify", h.VerifyOTP, signIn...)
	a.POST("/signin", h.AdminSignIn, signIn...)
	a.GET("/user/verify", h.VerifyUser, signIn...)
	a.POST("/password", h.ChangePassword, signIn...)
	a.POST("/logout", h.Logout)
	a.GET("/me", h.Me, session.Guard("/"))
}

// Profile is the public view of the caller's session.
type Profile struct {
	Email         string   `json:"email"`
	Roles         []string `json:"roles"`
	AppointmentID string   `json:"appointmentId,omitempty"`
}

func profileOf(s *session.Session) Profile {
	return Profile{Email: s.Email, Roles: s.Roles, AppointmentID: s.AppointmentID}
}

func (h *Handler) SendOTP(c echo.Context) error {
	var req OTPRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	msg, err := h.svc.SendOTP(c.Request().Context(), req.Email)
	if err != nil {
		return viewstate.Fail(c, err)
	}
	return c.JSON(http.StatusOK, msg)
}

func (h *Handler) VerifyOTP(c echo.Context) error {
	var req OTPVerification
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	s, err := h.svc.VerifyOTP(c.Request().Context(), req.Email, req.OTP)
	if err != nil {
		return h.signInFailed(c, err)
	}
	return h.begin(c, s)
}

func (h *Handler) AdminSignIn(c echo.Context) error {
	var creds Credentials
	if err := c.Bind(&creds); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	s, err := h.svc.AdminSignIn(c.Request().Context(), creds.Email, creds.Password)
	if err != nil {
		return h.signInFailed(c, err)
	}
	return h.begin(c, s)
}

// signInFailed keeps a rejected sign-in on the sign-in form instead of
// redirecting to the entry point the way other auth failures do.
func (h *Handler) signInFailed(c echo.Context, err error) error {
	if errors.Is(err, session.ErrTokenExpired) {
		return echo.NewHTTPError(http.StatusUnauthorized, "the backend issued an expired token")
	}
	return viewstate.Fail(c, err)
}

func (h *Handler) begin(c echo.Context, s *session.Session) error {
	if err := h.sessions.Begin(c.Request().Context(), s); err != nil {
		return err
	}
	session.SetCookie(c, h.cookieName, s)
	return c.JSON(http.StatusOK, profileOf(s))
}

func (h *Handler) VerifyUser(c echo.Context) error {
	msg, err := h.svc.VerifyUser(c.Request().Context(), c.QueryParam("code"))
	if err != nil {
		return viewstate.Fail(c, err)
	}
	return c.JSON(http.StatusOK, msg)
}

type passwordForm struct {
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// ChangePassword takes code and role from the query string, as in the
// emailed link, and both passwords from the body.
func (h *Handler) ChangePassword(c echo.Context) error {
	var form passwordForm
	if err := c.Bind(&form); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	msg, err := h.svc.ChangePassword(c.Request().Context(), PasswordChange{
		Code:            c.QueryParam("code"),
		Role:            c.QueryParam("role"),
		Password:        form.Password,
		ConfirmPassword: form.ConfirmPassword,
	})
	if err != nil {
		return viewstate.Fail(c, err)
	}
	return c.JSON(http.StatusOK, msg)
}

// Logout ends the caller's session, if any, and always clears the cookie.
func (h *Handler) Logout(c echo.Context) error {
	if s := session.FromContext(c.Request().Context()); s != nil {
		if err := h.sessions.End(c.Request().Context(), s.ID, "logout"); err != nil {
			return err
		}
	}
	session.ClearCookie(c, h.cookieName)
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) Me(c echo.Context) error {
	return c.JSON(http.StatusOK, profileOf(session.FromContext(c.Request().Context())))
}
