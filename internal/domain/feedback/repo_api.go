package feedback

import (
	"context"
	"net/http"
	"net/url"

	"github.com/uhs/uhs/internal/platform/apiclient"
	"github.com/uhs/uhs/pkg/listview"
)

type apiRepo struct {
	client *apiclient.Client
}

// NewAPIRepository returns a Repository backed by the UHS REST API. client
// must carry the caller's session tokens.
func NewAPIRepository(client *apiclient.Client) Repository {
	return &apiRepo{client: client}
}

func (r *apiRepo) List(ctx context.Context, cursor string, dir listview.Direction) (*Page, error) {
	q := url.Values{}
	if cursor != "" {
		q.Set("cursor", cursor)
	}
	q.Set("sort", dir.String())

	var page Page
	err := r.client.Do(ctx, apiclient.Request{
		Method: http.MethodGet,
		Path:   "/api/feedback/all",
		Query:  q,
		Auth:   true,
	}, &page)
	if err != nil {
		return nil, err
	}
	return &page, nil
}

func (r *apiRepo) Submit(ctx context.Context, s *Submission) error {
	return r.client.Do(ctx, apiclient.Request{
		Method: http.MethodPost,
		Path:   "/api/feedback/submit",
		Body:   s,
		Auth:   true,
	}, nil)
}
