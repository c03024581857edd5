package stock

import (
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"

	"github.com/uhs/uhs/internal/platform/apiclient"
	"github.com/uhs/uhs/internal/platform/session"
	"github.com/uhs/uhs/internal/platform/viewstate"
	"github.com/uhs/uhs/pkg/listview"
)

type RepoFactory func(ts apiclient.TokenSource) Repository

type Handler struct {
	repos    RepoFactory
	views    *viewstate.Registry
	pageSize int
}

func NewHandler(repos RepoFactory, views *viewstate.Registry, pageSize int) *Handler {
	return &Handler{repos: repos, views: views, pageSize: pageSize}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/stock/places", h.Locations)

	staff := g.Group("/stock", session.Guard("/", session.RoleAdmin, session.RoleDoctor, session.RoleAssistant))
	staff.GET("/logs", h.ListLogs)
	staff.GET("/logs/export", h.ExportLogs)
	staff.GET("/export", h.ExportStock)

	write := g.Group("/stock", session.Guard("/", session.RoleAdmin, session.RoleAssistant))
	write.POST("/logs", h.SubmitLog)
}

func (h *Handler) service(s *session.Session) *Service {
	return NewService(h.repos(s))
}

func (h *Handler) ListLogs(c echo.Context) error {
	q := LogQuery{
		LocationID: c.QueryParam("locationId"),
		StartDate:  c.QueryParam("startDate"),
		EndDate:    c.QueryParam("endDate"),
	}
	if err := q.Validate(); err != nil {
		return viewstate.Fail(c, err)
	}
	name := "stock-logs?" + url.Values{
		"locationId": {q.LocationID},
		"startDate":  {q.StartDate},
		"endDate":    {q.EndDate},
	}.Encode()
	return viewstate.Serve(c, h.views, viewstate.Spec[DailyLog]{
		Name:         name,
		Columns:      LogColumns(),
		EmptyMessage: "No logs for this period.",
		Build: func(s *session.Session) *listview.Viewer[DailyLog] {
			return h.service(s).NewLogViewer(q, h.pageSize)
		},
	})
}

func (h *Handler) SubmitLog(c echo.Context) error {
	var in LogInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	s := session.FromContext(c.Request().Context())
	if err := h.service(s).SubmitLog(c.Request().Context(), &in); err != nil {
		return viewstate.Fail(c, err)
	}
	return c.NoContent(http.StatusCreated)
}

func (h *Handler) ExportLogs(c echo.Context) error {
	s := session.FromContext(c.Request().Context())
	att, err := h.service(s).ExportLogs(c.Request().Context(), c.QueryParam("locationId"), FilterType(c.QueryParam("filterType")))
	if err != nil {
		return viewstate.Fail(c, err)
	}
	return viewstate.Attachment(c, att)
}

func (h *Handler) ExportStock(c echo.Context) error {
	s := session.FromContext(c.Request().Context())
	var q ExportQuery
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &q); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	q.Role = s.PrimaryRole()
	att, err := h.service(s).ExportStock(c.Request().Context(), q)
	if err != nil {
		return viewstate.Fail(c, err)
	}
	return viewstate.Attachment(c, att)
}

func (h *Handler) Locations(c echo.Context) error {
	locs, err := NewService(h.repos(nil)).Locations(c.Request().Context())
	if err != nil {
		return viewstate.Fail(c, err)
	}
	return c.JSON(http.StatusOK, locs)
}
