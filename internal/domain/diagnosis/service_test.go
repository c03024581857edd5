package diagnosis

import (
	"context"
	"errors"
	"testing"

	"github.com/uhs/uhs/internal/platform/apiclient"
)

type mockRepo struct {
	freqs Frequencies
	err   error
	calls int
}

func (m *mockRepo) Frequencies(context.Context) (Frequencies, error) {
	m.calls++
	return m.freqs, m.err
}

func TestService_WordCloud(t *testing.T) {
	repo := &mockRepo{freqs: Frequencies{{"flu", 4}, {"cold", 2}}}
	words, err := NewService(repo).WordCloud(context.Background(), CloudOptions{MinFont: 10, MaxFont: 30})
	if err != nil {
		t.Fatal(err)
	}
	if len(words) != 2 || words[0].FontSize != 30 || words[1].FontSize != 10 {
		t.Errorf("unexpected words %+v", words)
	}
}

func TestService_WordCloudError(t *testing.T) {
	repo := &mockRepo{err: apiclient.ErrAuthenticationMissing}
	_, err := NewService(repo).WordCloud(context.Background(), CloudOptions{})
	if !errors.Is(err, apiclient.ErrAuthenticationMissing) {
		t.Errorf("expected auth error, got %v", err)
	}
}

func TestService_ViewerMostFrequentFirst(t *testing.T) {
	repo := &mockRepo{freqs: Frequencies{{"cold", 2}, {"flu", 4}, {"sprain", 1}}}
	v := NewService(repo).NewViewer(2)
	if err := v.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	view := v.Snapshot()
	if view.TotalPages != 2 || view.Items[0].Diagnosis != "flu" || view.Items[1].Diagnosis != "cold" {
		t.Errorf("unexpected view pages=%d items=%+v", view.TotalPages, view.Items)
	}
}
