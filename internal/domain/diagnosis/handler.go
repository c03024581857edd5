package diagnosis

import (
	"net/http"
	"strconv"

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
	d := g.Group("/diagnosis", session.Guard("/", session.RoleAdmin, session.RoleDoctor))
	d.GET("/frequencies", h.List)
	d.GET("/wordcloud", h.WordCloud)
}

func (h *Handler) List(c echo.Context) error {
	return viewstate.Serve(c, h.views, viewstate.Spec[Frequency]{
		Name:         "diagnosis",
		Columns:      Columns(),
		EmptyMessage: "No diagnoses recorded.",
		Build: func(s *session.Session) *listview.Viewer[Frequency] {
			return NewService(h.repos(s)).NewViewer(h.pageSize)
		},
	})
}

// WordCloud accepts optional min, max and limit query parameters.
func (h *Handler) WordCloud(c echo.Context) error {
	var opts CloudOptions
	for name, dst := range map[string]*float64{"min": &opts.MinFont, "max": &opts.MaxFont} {
		if raw := c.QueryParam(name); raw != "" {
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil || v <= 0 {
				return echo.NewHTTPError(http.StatusBadRequest, name+" must be a positive number")
			}
			*dst = v
		}
	}
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a non-negative integer")
		}
		opts.Limit = n
	}

	s := session.FromContext(c.Request().Context())
	words, err := NewService(h.repos(s)).WordCloud(c.Request().Context(), opts)
	if err != nil {
		return viewstate.Fail(c, err)
	}
	return c.JSON(http.StatusOK, words)
}
