package diagnosis

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/uhs/uhs/internal/platform/apiclient"
)

func TestAPIRepo_FrequenciesSendsToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/diagnosis/frequencies" || r.Header.Get("Authorization") != "Bearer tok" {
			t.Errorf("unexpected request %s auth=%q", r.URL, r.Header.Get("Authorization"))
		}
		w.Write([]byte(`{"flu":3,"cold":1}`))
	}))
	defer srv.Close()
	c, err := apiclient.New(apiclient.Options{BaseURL: srv.URL, Logger: zerolog.Nop()})
	if err != nil {
		t.Fatal(err)
	}
	repo := NewAPIRepository(c.WithTokens(apiclient.TokenFunc(func() (string, error) { return "tok", nil })))

	freqs, err := repo.Frequencies(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(freqs) != 2 || freqs[0].Diagnosis != "flu" {
		t.Errorf("unexpected frequencies %+v", freqs)
	}
}

func TestAPIRepo_FrequenciesWithoutToken(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))
	defer srv.Close()
	c, err := apiclient.New(apiclient.Options{BaseURL: srv.URL, Logger: zerolog.Nop()})
	if err != nil {
		t.Fatal(err)
	}

	_, err = NewAPIRepository(c).Frequencies(context.Background())
	if !errors.Is(err, apiclient.ErrAuthenticationMissing) {
		t.Errorf("expected auth error, got %v", err)
	}
	if called {
		t.Error("no request should reach the backend without a token")
	}
}
