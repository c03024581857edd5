package diagnosis

import (
	"context"
	"net/http"

	"github.com/uhs/uhs/internal/platform/apiclient"
)

type apiRepo struct {
	client *apiclient.Client
}

func NewAPIRepository(client *apiclient.Client) Repository {
	return &apiRepo{client: client}
}

// Frequencies requires a session token and sends it, closing the gap where
// the token was checked but never attached.
func (r *apiRepo) Frequencies(ctx context.Context) (Frequencies, error) {
	var out Frequencies
	err := r.client.Do(ctx, apiclient.Request{
		Method: http.MethodGet,
		Path:   "/api/diagnosis/frequencies",
		Auth:   true,
	}, &out)
	return out, err
}
