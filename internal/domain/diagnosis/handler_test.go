package diagnosis

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/uhs/uhs/internal/platform/apiclient"
	"github.com/uhs/uhs/internal/platform/session"
	"github.com/uhs/uhs/internal/platform/viewstate"
)

func newTestHandler(repo *mockRepo) (*Handler, *echo.Echo) {
	return NewHandler(func(apiclient.TokenSource) Repository { return repo }, viewstate.NewRegistry(), 10), echo.New()
}

func doctorRequest(method, target string) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	s := session.New("tok", []string{session.RoleDoctor}, "d@uni.edu")
	return req.WithContext(session.NewContext(req.Context(), s))
}

func TestHandler_WordCloud(t *testing.T) {
	h, e := newTestHandler(&mockRepo{freqs: Frequencies{{"flu", 4}, {"cold", 2}, {"sprain", 1}}})
	rec := httptest.NewRecorder()
	if err := h.WordCloud(e.NewContext(doctorRequest(http.MethodGet, "/diagnosis/wordcloud?min=10&max=20&limit=2"), rec)); err != nil {
		t.Fatal(err)
	}
	var words []Word
	if err := json.Unmarshal(rec.Body.Bytes(), &words); err != nil {
		t.Fatal(err)
	}
	if len(words) != 2 || words[0].FontSize != 20 || words[1].FontSize != 10 {
		t.Errorf("unexpected words %+v", words)
	}
}

func TestHandler_WordCloudBadParams(t *testing.T) {
	h, e := newTestHandler(&mockRepo{})
	for _, target := range []string{"/diagnosis/wordcloud?min=abc", "/diagnosis/wordcloud?max=-1", "/diagnosis/wordcloud?limit=x"} {
		err := h.WordCloud(e.NewContext(doctorRequest(http.MethodGet, target), httptest.NewRecorder()))
		var he *echo.HTTPError
		if !errors.As(err, &he) || he.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %v", target, err)
		}
	}
}

func TestHandler_ListFrequencies(t *testing.T) {
	h, e := newTestHandler(&mockRepo{freqs: Frequencies{{"flu", 4}, {"cold", 2}}})
	rec := httptest.NewRecorder()
	if err := h.List(e.NewContext(doctorRequest(http.MethodGet, "/diagnosis/frequencies?q=co"), rec)); err != nil {
		t.Fatal(err)
	}
	var body struct {
		Items []Frequency `json:"items"`
	}
	json.Unmarshal(rec.Body.Bytes(), &body)
	if len(body.Items) != 1 || body.Items[0].Diagnosis != "cold" {
		t.Errorf("unexpected items %+v", body.Items)
	}
}
