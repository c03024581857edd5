package diagnosis

import "context"

type Repository interface {
	Frequencies(ctx context.Context) (Frequencies, error)
}
