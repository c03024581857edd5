package identity

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/uhs/uhs/internal/platform/session"
)

type fakeLifecycle struct {
	begun []*session.Session
	ended []uuid.UUID
}

func (f *fakeLifecycle) Begin(_ context.Context, s *session.Session) error {
	f.begun = append(f.begun, s)
	return nil
}

func (f *fakeLifecycle) End(_ context.Context, id uuid.UUID, _ string) error {
	f.ended = append(f.ended, id)
	return nil
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

func TestHandler_AdminSignInSetsCookie(t *testing.T) {
	repo := &mockRepo{auth: &AuthResponse{Token: "opaque", Roles: []string{"ADMIN"}}}
	life := &fakeLifecycle{}
	h := NewHandler(NewService(repo), life, "")
	e := echo.New()

	rec := httptest.NewRecorder()
	err := h.AdminSignIn(e.NewContext(jsonRequest(http.MethodPost, "/auth/signin", `{"email":"a@uni.edu","password":"pw"}`), rec))
	if err != nil {
		t.Fatal(err)
	}
	if len(life.begun) != 1 {
		t.Fatalf("expected one session to begin, got %d", len(life.begun))
	}
	cookie := rec.Result().Cookies()
	if len(cookie) != 1 || cookie[0].Name != session.DefaultCookieName || cookie[0].Value != life.begun[0].ID.String() {
		t.Errorf("unexpected cookies %+v", cookie)
	}
	var p Profile
	json.Unmarshal(rec.Body.Bytes(), &p)
	if p.Email != "a@uni.edu" || len(p.Roles) != 1 || p.Roles[0] != session.RoleAdmin {
		t.Errorf("unexpected profile %+v", p)
	}
}

func TestHandler_SignInRejectedStartsNothing(t *testing.T) {
	life := &fakeLifecycle{}
	h := NewHandler(NewService(&mockRepo{}), life, "")
	e := echo.New()

	err := h.VerifyOTP(e.NewContext(jsonRequest(http.MethodPost, "/auth/verify", `{"email":"bad"}`), httptest.NewRecorder()))
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %v", err)
	}
	if len(life.begun) != 0 {
		t.Error("no session should begin")
	}
}

func TestHandler_ChangePasswordMismatch(t *testing.T) {
	h := NewHandler(NewService(&mockRepo{}), &fakeLifecycle{}, "")
	e := echo.New()
	req := jsonRequest(http.MethodPost, "/auth/password?code=c&role=PATIENT", `{"password":"longenough","confirmPassword":"other-value"}`)
	err := h.ChangePassword(e.NewContext(req, httptest.NewRecorder()))
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %v", err)
	}
}

func TestHandler_Logout(t *testing.T) {
	life := &fakeLifecycle{}
	h := NewHandler(NewService(&mockRepo{}), life, "uhs")
	e := echo.New()
	s := session.New("tok", []string{session.RolePatient}, "p@uni.edu")

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req = req.WithContext(session.NewContext(req.Context(), s))
	rec := httptest.NewRecorder()
	if err := h.Logout(e.NewContext(req, rec)); err != nil {
		t.Fatal(err)
	}
	if len(life.ended) != 1 || life.ended[0] != s.ID {
		t.Errorf("session should end, got %v", life.ended)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != "uhs" || cookies[0].MaxAge >= 0 {
		t.Errorf("cookie should be cleared, got %+v", cookies)
	}
}

func TestHandler_MeRequiresSession(t *testing.T) {
	h := NewHandler(NewService(&mockRepo{}), &fakeLifecycle{}, "")
	e := echo.New()
	h.RegisterRoutes(e.Group(""))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/me", nil))
	if rec.Code != http.StatusSeeOther || rec.Header().Get(echo.HeaderLocation) != "/" {
		t.Errorf("expected redirect to /, got %d %q", rec.Code, rec.Header().Get(echo.HeaderLocation))
	}
}
