package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

func TestTimeoutConfig_Deadline(t *testing.T) {
	cfg := TimeoutConfig{Default: time.Second, Long: time.Minute, LongSuffixes: DefaultLongSuffixes}
	tests := []struct {
		path string
		want time.Duration
	}{
		{"/feedback", time.Second},
		{"/stock/logs", time.Second},
		{"/stock/logs/export", time.Minute},
		{"/stock/export", time.Minute},
		{"/admin/backup", time.Minute},
		{"/admin/restore", time.Minute},
		{"/admin/import-students", time.Minute},
		{"/admin/exporter", time.Second},
	}
	for _, tt := range tests {
		if got := cfg.deadline(tt.path); got != tt.want {
			t.Errorf("deadline(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestRequestTimeout_CompletesWithinDeadline(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/feedback", nil), rec)

	mw := RequestTimeout(TimeoutConfig{Default: 5 * time.Second})
	if err := mw(func(c echo.Context) error { return c.String(http.StatusOK, "ok") })(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestRequestTimeout_ReturnsRetryableTimeout(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/stock/logs", nil), rec)

	release := make(chan struct{})
	defer close(release)
	handler := func(c echo.Context) error {
		<-release
		return nil
	}

	mw := RequestTimeout(TimeoutConfig{Default: 20 * time.Millisecond, Long: time.Minute, LongSuffixes: DefaultLongSuffixes})
	if err := mw(handler)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusGatewayTimeout {
		t.Fatalf("expected 504, got %d", rec.Code)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["retry"] != true || body["kind"] != "network" {
		t.Errorf("unexpected body %v", body)
	}
}

func TestRequestTimeout_LongRoutesGetLongDeadline(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/admin/backup", nil), httptest.NewRecorder())

	var remaining time.Duration
	handler := func(c echo.Context) error {
		dl, _ := c.Request().Context().Deadline()
		remaining = time.Until(dl)
		return nil
	}
	RequestTimeout(TimeoutConfig{Default: time.Second, Long: time.Minute, LongSuffixes: DefaultLongSuffixes})(handler)(c)
	if remaining < 30*time.Second {
		t.Errorf("backup deadline too short: %v", remaining)
	}
}

func TestRequestTimeout_SkipsWebsocket(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/ws", nil), httptest.NewRecorder())

	handler := func(c echo.Context) error {
		if _, ok := c.Request().Context().Deadline(); ok {
			t.Error("websocket requests must not get a deadline")
		}
		return nil
	}
	RequestTimeout(TimeoutConfig{Default: time.Millisecond})(handler)(c)
}
