package feedback

import (
	"context"

	"github.com/uhs/uhs/pkg/listview"
)

type Repository interface {
	List(ctx context.Context, cursor string, dir listview.Direction) (*Page, error)
	Submit(ctx context.Context, s *Submission) error
}
