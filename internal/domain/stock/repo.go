package stock

import (
	"context"

	"github.com/uhs/uhs/internal/platform/apiclient"
)

type Repository interface {
	SubmitLog(ctx context.Context, in *LogInput) error
	ListLogs(ctx context.Context, q LogQuery) ([]DailyLog, error)
	ExportLogs(ctx context.Context, locationID string, filter FilterType) (*apiclient.Attachment, error)
	ExportStock(ctx context.Context, q ExportQuery) (*apiclient.Attachment, error)
	Locations(ctx context.Context) ([]Location, error)
}
