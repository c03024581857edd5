package identity

import (
	"context"
	"net/http"
	"net/url"

	"github.com/uhs/uhs/internal/platform/apiclient"
)

type apiRepo struct {
	client *apiclient.Client
}

func NewAPIRepository(client *apiclient.Client) Repository {
	return &apiRepo{client: client}
}

func (r *apiRepo) post(ctx context.Context, path string, q url.Values, body, out interface{}) error {
	return r.client.Do(ctx, apiclient.Request{Method: http.MethodPost, Path: path, Query: q, Body: body}, out)
}

func (r *apiRepo) SendOTP(ctx context.Context, req OTPRequest) (*Message, error) {
	var msg Message
	if err := r.post(ctx, "/api/otp/send", nil, req, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func (r *apiRepo) VerifyOTP(ctx context.Context, req OTPVerification) (*AuthResponse, error) {
	var resp AuthResponse
	if err := r.post(ctx, "/api/otp/verify", nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (r *apiRepo) AdminSignIn(ctx context.Context, creds Credentials) (*AuthResponse, error) {
	var resp AuthResponse
	if err := r.post(ctx, "/api/auth/admin/signin", nil, creds, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (r *apiRepo) VerifyUser(ctx context.Context, code string) (*Message, error) {
	var msg Message
	err := r.client.Do(ctx, apiclient.Request{
		Method: http.MethodGet,
		Path:   "/api/auth/user/verify",
		Query:  url.Values{"code": {code}},
	}, &msg)
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

func (r *apiRepo) ChangePassword(ctx context.Context, pc PasswordChange) (*Message, error) {
	var msg Message
	q := url.Values{"code": {pc.Code}, "role": {pc.Role}}
	if err := r.post(ctx, "/api/auth/passwordChange", q, pc, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
