package feedback

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/uhs/uhs/internal/platform/apiclient"
	"github.com/uhs/uhs/pkg/listview"
)

func newTestClient(t *testing.T, h http.HandlerFunc, token string) (*apiclient.Client, *int) {
	t.Helper()
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		h(w, r)
	}))
	t.Cleanup(srv.Close)
	c, err := apiclient.New(apiclient.Options{BaseURL: srv.URL, Logger: zerolog.Nop()})
	if err != nil {
		t.Fatal(err)
	}
	return c.WithTokens(apiclient.TokenFunc(func() (string, error) { return token, nil })), &calls
}

func TestAPIRepo_List(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/feedback/all" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("cursor") != "abc" || r.URL.Query().Get("sort") != "desc" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		if r.Header.Get("Authorization") != "Bearer tok" {
			t.Errorf("missing bearer token")
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"feedbacks":[{"id":"f1","rating":4,"comment":"good","createdAt":"2024-05-01T10:00:00Z"}],"nextCursor":"def"}`))
	}, "tok")

	page, err := NewAPIRepository(client).List(context.Background(), "abc", listview.Desc)
	if err != nil {
		t.Fatal(err)
	}
	if len(page.Items()) != 1 || page.Items()[0].Rating != 4 || page.NextCursor != "def" {
		t.Errorf("unexpected page %+v", page)
	}
}

func TestAPIRepo_ListFirstPageOmitsCursor(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Has("cursor") {
			t.Error("first page should not send a cursor")
		}
		w.Write([]byte(`{"data":[]}`))
	}, "tok")
	if _, err := NewAPIRepository(client).List(context.Background(), "", listview.Asc); err != nil {
		t.Fatal(err)
	}
}

func TestAPIRepo_SubmitWithoutTokenMakesNoCall(t *testing.T) {
	client, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {}, "")
	err := NewAPIRepository(client).Submit(context.Background(), &Submission{Rating: 5})
	if !errors.Is(err, apiclient.ErrAuthenticationMissing) {
		t.Fatalf("expected ErrAuthenticationMissing, got %v", err)
	}
	if *calls != 0 {
		t.Errorf("expected no network call, got %d", *calls)
	}
}

func TestAPIRepo_Submit(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/feedback/submit" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var sub Submission
		json.NewDecoder(r.Body).Decode(&sub)
		if sub.Rating != 4 || sub.AppointmentID != "apt-1" {
			t.Errorf("unexpected body %+v", sub)
		}
		w.WriteHeader(http.StatusCreated)
	}, "tok")
	err := NewAPIRepository(client).Submit(context.Background(), &Submission{Rating: 4, AppointmentID: "apt-1"})
	if err != nil {
		t.Fatal(err)
	}
}
