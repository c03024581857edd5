package identity

import "context"

// Repository is the unauthenticated sign-in surface of the backend.
type Repository interface {
	SendOTP(ctx context.Context, req OTPRequest) (*Message, error)
	VerifyOTP(ctx context.Context, req OTPVerification) (*AuthResponse, error)
	AdminSignIn(ctx context.Context, creds Credentials) (*AuthResponse, error)
	VerifyUser(ctx context.Context, code string) (*Message, error)
	ChangePassword(ctx context.Context, pc PasswordChange) (*Message, error)
}
