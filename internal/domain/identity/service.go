package identity

import (
	"context"
	"net/mail"
	"strings"

	"github.com/uhs/uhs/internal/platform/apiclient"
	"github.com/uhs/uhs/internal/platform/session"
)

// MinPasswordLength is enforced before a password change reaches the backend.
const MinPasswordLength = 8

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func validEmail(field, email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", apiclient.Invalid(field, "is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return "", apiclient.Invalid(field, "is not a valid email address")
	}
	return email, nil
}

func (s *Service) SendOTP(ctx context.Context, email string) (*Message, error) {
	email, err := validEmail("email", email)
	if err != nil {
		return nil, err
	}
	return s.repo.SendOTP(ctx, OTPRequest{Email: email})
}

// VerifyOTP signs a patient in with a mailed code and starts their session.
func (s *Service) VerifyOTP(ctx context.Context, email, otp string) (*session.Session, error) {
	email, err := validEmail("email", email)
	if err != nil {
		return nil, err
	}
	otp = strings.TrimSpace(otp)
	if otp == "" {
		return nil, apiclient.Invalid("otp", "is required")
	}
	resp, err := s.repo.VerifyOTP(ctx, OTPVerification{Email: email, OTP: otp})
	if err != nil {
		return nil, err
	}
	return newSession(resp, email, session.RolePatient)
}

// AdminSignIn signs a staff member in and starts their session.
func (s *Service) AdminSignIn(ctx context.Context, email, password string) (*session.Session, error) {
	email, err := validEmail("email", email)
	if err != nil {
		return nil, err
	}
	if password == "" {
		return nil, apiclient.Invalid("password", "is required")
	}
	resp, err := s.repo.AdminSignIn(ctx, Credentials{Email: email, Password: password})
	if err != nil {
		return nil, err
	}
	return newSession(resp, email, "")
}

func (s *Service) VerifyUser(ctx context.Context, code string) (*Message, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, apiclient.Invalid("code", "is required")
	}
	return s.repo.VerifyUser(ctx, code)
}

// ChangePassword requires the two entered passwords to match.
func (s *Service) ChangePassword(ctx context.Context, pc PasswordChange) (*Message, error) {
	pc.Code = strings.TrimSpace(pc.Code)
	if pc.Code == "" {
		return nil, apiclient.Invalid("code", "is required")
	}
	pc.Role = strings.ToUpper(strings.TrimSpace(pc.Role))
	if pc.Role == "" {
		return nil, apiclient.Invalid("role", "is required")
	}
	if len(pc.Password) < MinPasswordLength {
		return nil, apiclient.Invalid("password", "must be at least 8 characters")
	}
	if pc.Password != pc.ConfirmPassword {
		return nil, apiclient.Invalid("confirmPassword", "passwords do not match")
	}
	return s.repo.ChangePassword(ctx, pc)
}

// newSession builds a session from a sign-in response. Roles and email fall
// back to the token's claims, then to fallbackRole and the entered email.
func newSession(resp *AuthResponse, email, fallbackRole string) (*session.Session, error) {
	if resp == nil || resp.Token == "" {
		return nil, &apiclient.ServerError{StatusCode: 200, Message: "sign-in response carried no token"}
	}
	roles := append([]string(nil), resp.Roles...)
	if resp.Role != "" {
		roles = append(roles, resp.Role)
	}
	if claims, err := session.ParseClaims(resp.Token); err == nil {
		if len(roles) == 0 {
			roles = claims.AllRoles()
		}
		if resp.Email == "" && claims.Email != "" {
			email = claims.Email
		}
	}
	if resp.Email != "" {
		email = resp.Email
	}
	if len(roles) == 0 && fallbackRole != "" {
		roles = []string{fallbackRole}
	}
	s := session.New(resp.Token, roles, email)
	s.AppointmentID = resp.AppointmentID
	if _, err := s.Token(); err != nil {
		return nil, err
	}
	return s, nil
}
