package feedback

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/uhs/uhs/internal/platform/apiclient"
	"github.com/uhs/uhs/internal/platform/session"
	"github.com/uhs/uhs/internal/platform/viewstate"
	"github.com/uhs/uhs/pkg/listview"
)

// RepoFactory binds a Repository to one caller's credentials.
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
	read := g.Group("/feedback", session.Guard("/", session.RoleAdmin, session.RoleDoctor))
	read.GET("", h.List)
	read.GET("/stats", h.Stats)

	g.POST("/feedback", h.Submit, session.Guard("/", session.RolePatient))
}

func (h *Handler) service(s *session.Session) *Service {
	return NewService(h.repos(s))
}

func (h *Handler) spec() viewstate.Spec[Feedback] {
	return viewstate.Spec[Feedback]{
		Name:         "feedback",
		Columns:      Columns(),
		EmptyMessage: "No feedback yet.",
		Build: func(s *session.Session) *listview.Viewer[Feedback] {
			return h.service(s).NewViewer(h.pageSize)
		},
	}
}

func (h *Handler) List(c echo.Context) error {
	return viewstate.Serve(c, h.views, h.spec())
}

// Stats summarises the feedback page currently held by the caller's view.
func (h *Handler) Stats(c echo.Context) error {
	ctx := c.Request().Context()
	s := session.FromContext(ctx)
	spec := h.spec()
	v, created := viewstate.Viewer(h.views, s.ID, spec.Name, func() *listview.Viewer[Feedback] { return spec.Build(s) })
	if created {
		if err := v.Load(ctx); err != nil {
			return viewstate.Fail(c, err)
		}
	}
	return c.JSON(http.StatusOK, Summarize(v.State().Items))
}

func (h *Handler) Submit(c echo.Context) error {
	s := session.FromContext(c.Request().Context())
	var sub Submission
	if err := c.Bind(&sub); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if sub.AppointmentID == "" {
		sub.AppointmentID = s.AppointmentID
	}
	if err := h.service(s).Submit(c.Request().Context(), &sub); err != nil {
		return viewstate.Fail(c, err)
	}
	return c.NoContent(http.StatusCreated)
}
