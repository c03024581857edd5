package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newTestClient(t *testing.T, srv *httptest.Server, token string) *Client {
	t.Helper()
	c, err := New(Options{BaseURL: srv.URL, Logger: zerolog.Nop()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if token == "" {
		return c
	}
	return c.WithTokens(TokenFunc(func() (string, error) { return token, nil }))
}

type recordingObserver struct {
	calls int
	kind  ErrorKind
	ok    bool
}

func (o *recordingObserver) ObserveRequest(_, _ string, kind ErrorKind, ok bool, _ time.Duration) {
	o.calls++
	o.kind = kind
	o.ok = ok
}

func TestNew_RejectsNonHTTPURL(t *testing.T) {
	if _, err := New(Options{BaseURL: "ftp://example.org"}); err == nil {
		t.Fatal("expected error for ftp base url")
	}
}

func TestDo_AttachesBearerToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok-1" {
			t.Errorf("expected bearer header, got %q", got)
		}
		if r.URL.Query().Get("cursor") != "c9" {
			t.Errorf("expected cursor query, got %q", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"value":42}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv, "tok-1")
	var out struct {
		Value int `json:"value"`
	}
	err := c.Do(context.Background(), Request{
		Path:  "/api/feedback/all",
		Query: map[string][]string{"cursor": {"c9"}},
		Auth:  true,
	}, &out)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Value != 42 {
		t.Errorf("expected 42, got %d", out.Value)
	}
}

func TestDo_MissingTokenMakesNoNetworkCall(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer srv.Close()

	tests := []struct {
		name   string
		client *Client
	}{
		{"no token source", newTestClient(t, srv, "")},
		{"empty token", newTestClient(t, srv, "").WithTokens(TokenFunc(func() (string, error) { return "", nil }))},
		{"token source error", newTestClient(t, srv, "").WithTokens(TokenFunc(func() (string, error) {
			return "", errors.New("token expired")
		}))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.client.Do(context.Background(), Request{Path: "/api/admin/users", Auth: true}, nil)
			if !errors.Is(err, ErrAuthenticationMissing) {
				t.Fatalf("expected ErrAuthenticationMissing, got %v", err)
			}
			if Classify(err) != KindAuthenticationMissing {
				t.Errorf("expected KindAuthenticationMissing, got %v", Classify(err))
			}
		})
	}
	if n := atomic.LoadInt32(&hits); n != 0 {
		t.Errorf("expected no network calls, got %d", n)
	}
}

func TestDo_UnauthenticatedRequestSkipsToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "" {
			t.Error("expected no Authorization header")
		}
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv, "")
	var out []string
	if err := c.Do(context.Background(), Request{Path: "/api/location"}, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDo_ServerErrorCarriesMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"message":"log already exists for this date"}`))
	}))
	defer srv.Close()

	obs := &recordingObserver{}
	c := newTestClient(t, srv, "tok")
	c.observer = obs
	err := c.Do(context.Background(), Request{Method: http.MethodPost, Path: "/api/daily-log/log", Auth: true, Body: map[string]int{"a": 1}}, nil)

	var se *ServerError
	if !errors.As(err, &se) {
		t.Fatalf("expected ServerError, got %T: %v", err, err)
	}
	if se.StatusCode != http.StatusConflict {
		t.Errorf("expected 409, got %d", se.StatusCode)
	}
	if Guidance(err) != "log already exists for this date" {
		t.Errorf("unexpected guidance: %q", Guidance(err))
	}
	if Retryable(err) {
		t.Error("409 should not be retryable")
	}
	if obs.calls != 1 || obs.ok || obs.kind != KindServer {
		t.Errorf("unexpected observation: %+v", obs)
	}
}

func TestDo_ServerErrorGenericMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("<html>bad gateway</html>"))
	}))
	defer srv.Close()

	err := newTestClient(t, srv, "tok").Do(context.Background(), Request{Path: "/api/admin/logs", Auth: true}, nil)
	if err == nil || err.Error() != "server error: 502" {
		t.Fatalf("expected generic server error, got %v", err)
	}
	if !Retryable(err) {
		t.Error("502 should be retryable")
	}
}

func TestDo_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	c := newTestClient(t, srv, "tok")
	srv.Close()

	err := c.Do(context.Background(), Request{Path: "/api/admin/users", Auth: true}, nil)
	var ne *NetworkError
	if !errors.As(err, &ne) {
		t.Fatalf("expected NetworkError, got %T: %v", err, err)
	}
	if Classify(err) != KindNetwork {
		t.Errorf("expected KindNetwork, got %v", Classify(err))
	}
	if !strings.Contains(Guidance(err), "Unable to reach the server") {
		t.Errorf("unexpected guidance: %q", Guidance(err))
	}
}

func TestDo_TimeoutIsNetworkError(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	c := newTestClient(t, srv, "tok")
	err := c.Do(context.Background(), Request{Path: "/slow", Auth: true, Timeout: 20 * time.Millisecond}, nil)
	if Classify(err) != KindNetwork {
		t.Fatalf("expected network error on timeout, got %v", err)
	}
}

func TestDo_MultipartUpload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("FormFile: %v", err)
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		if header.Filename != "students.csv" || string(data) != "email\na@uni.edu\n" {
			t.Errorf("unexpected upload %s: %q", header.Filename, data)
		}
		json.NewEncoder(w).Encode(map[string]int{"imported": 1})
	}))
	defer srv.Close()

	var out struct {
		Imported int `json:"imported"`
	}
	err := newTestClient(t, srv, "tok").Do(context.Background(), Request{
		Method: http.MethodPost,
		Path:   "/api/admin/import-students",
		Auth:   true,
		Files:  []FilePart{{Field: "file", Filename: "students.csv", Reader: strings.NewReader("email\na@uni.edu\n")}},
	}, &out)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Imported != 1 {
		t.Errorf("expected 1 imported, got %d", out.Imported)
	}
}

func TestDownload_UsesContentDisposition(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", `attachment; filename="daily-log-week.xlsx"`)
		w.Write([]byte{0x50, 0x4b, 0x03, 0x04})
	}))
	defer srv.Close()

	att, err := newTestClient(t, srv, "tok").Download(context.Background(), Request{Path: "/api/daily-log/export", Auth: true}, "export.xlsx")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if att.Filename != "daily-log-week.xlsx" {
		t.Errorf("expected server filename, got %q", att.Filename)
	}
	if len(att.Data) != 4 {
		t.Errorf("expected 4 bytes, got %d", len(att.Data))
	}
}

func TestDownload_FallbackFilename(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("zip"))
	}))
	defer srv.Close()

	att, err := newTestClient(t, srv, "tok").Download(context.Background(), Request{Method: http.MethodPost, Path: "/api/admin/backup", Auth: true}, "backup.zip")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if att.Filename != "backup.zip" {
		t.Errorf("expected fallback filename, got %q", att.Filename)
	}
}
