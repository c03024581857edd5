package identity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/uhs/uhs/internal/platform/apiclient"
)

func newTestRepo(t *testing.T, h http.HandlerFunc) Repository {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := apiclient.New(apiclient.Options{BaseURL: srv.URL, Logger: zerolog.Nop()})
	if err != nil {
		t.Fatal(err)
	}
	return NewAPIRepository(c)
}

func TestAPIRepo_AdminSignIn(t *testing.T) {
	repo := newTestRepo(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/auth/admin/signin" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL)
		}
		if r.Header.Get("Authorization") != "" {
			t.Error("sign-in must not send a bearer token")
		}
		var creds Credentials
		json.NewDecoder(r.Body).Decode(&creds)
		if creds.Email != "a@uni.edu" || creds.Password != "pw" {
			t.Errorf("unexpected credentials %+v", creds)
		}
		w.Write([]byte(`{"token":"t","roles":["ADMIN"]}`))
	})
	resp, err := repo.AdminSignIn(context.Background(), Credentials{Email: "a@uni.edu", Password: "pw"})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Token != "t" || len(resp.Roles) != 1 {
		t.Errorf("unexpected response %+v", resp)
	}
}

func TestAPIRepo_ChangePasswordQuery(t *testing.T) {
	repo := newTestRepo(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if r.URL.Path != "/api/auth/passwordChange" || q.Get("code") != "abc" || q.Get("role") != "PATIENT" {
			t.Errorf("unexpected request %s", r.URL)
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["password"] != "newpassword" || len(body) != 1 {
			t.Errorf("body should carry only the password, got %v", body)
		}
		w.Write([]byte(`{"message":"Password changed"}`))
	})
	msg, err := repo.ChangePassword(context.Background(), PasswordChange{Code: "abc", Role: "PATIENT", Password: "newpassword", ConfirmPassword: "newpassword"})
	if err != nil {
		t.Fatal(err)
	}
	if msg.Message != "Password changed" {
		t.Errorf("unexpected message %+v", msg)
	}
}

func TestAPIRepo_VerifyOTPRejected(t *testing.T) {
	repo := newTestRepo(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message":"Invalid OTP"}`))
	})
	_, err := repo.VerifyOTP(context.Background(), OTPVerification{Email: "p@uni.edu", OTP: "000000"})
	if err == nil || err.Error() != "Invalid OTP" {
		t.Errorf("expected server message, got %v", err)
	}
}

func TestAPIRepo_VerifyUserCode(t *testing.T) {
	repo := newTestRepo(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Query().Get("code") != "xyz" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL)
		}
		w.Write([]byte(`{"message":"verified"}`))
	})
	if _, err := repo.VerifyUser(context.Background(), "xyz"); err != nil {
		t.Fatal(err)
	}
}
