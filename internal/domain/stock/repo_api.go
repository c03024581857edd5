package stock

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/uhs/uhs/internal/platform/apiclient"
)

type apiRepo struct {
	client *apiclient.Client
}

func NewAPIRepository(client *apiclient.Client) Repository {
	return &apiRepo{client: client}
}

func (r *apiRepo) SubmitLog(ctx context.Context, in *LogInput) error {
	return r.client.Do(ctx, apiclient.Request{
		Method: http.MethodPost,
		Path:   "/api/daily-log/log",
		Body:   in,
		Auth:   true,
	}, nil)
}

func (r *apiRepo) ListLogs(ctx context.Context, q LogQuery) ([]DailyLog, error) {
	params := url.Values{}
	if q.LocationID != "" {
		params.Set("locationId", q.LocationID)
	}
	params.Set("startDate", q.StartDate)
	params.Set("endDate", q.EndDate)

	var logs []DailyLog
	err := r.client.Do(ctx, apiclient.Request{
		Method: http.MethodGet,
		Path:   "/api/daily-log/logs",
		Query:  params,
		Auth:   true,
	}, &logs)
	return logs, err
}

func (r *apiRepo) ExportLogs(ctx context.Context, locationID string, filter FilterType) (*apiclient.Attachment, error) {
	params := url.Values{}
	if locationID != "" {
		params.Set("locationId", locationID)
	}
	params.Set("filterType", string(filter))
	return r.client.Download(ctx, apiclient.Request{
		Method:  http.MethodGet,
		Path:    "/api/daily-log/export",
		Query:   params,
		Auth:    true,
		Timeout: r.client.LongTimeout(),
	}, "daily-log-"+string(filter)+".xlsx")
}

func (r *apiRepo) ExportStock(ctx context.Context, q ExportQuery) (*apiclient.Attachment, error) {
	params := url.Values{}
	for k, v := range map[string]string{
		"locationId": q.LocationID,
		"startDate":  q.StartDate,
		"endDate":    q.EndDate,
		"medicine":   q.Medicine,
	} {
		if v != "" {
			params.Set(k, v)
		}
	}
	role := strings.ToLower(q.Role)
	return r.client.Download(ctx, apiclient.Request{
		Method:   http.MethodGet,
		Path:     "/api/" + url.PathEscape(role) + "/stock/export/advanced",
		Query:    params,
		Auth:     true,
		Timeout:  r.client.LongTimeout(),
		Endpoint: "/api/{role}/stock/export/advanced",
	}, "stock-export.xlsx")
}

func (r *apiRepo) Locations(ctx context.Context) ([]Location, error) {
	var locs []Location
	err := r.client.Do(ctx, apiclient.Request{
		Method: http.MethodGet,
		Path:   "/api/location",
	}, &locs)
	return locs, err
}
