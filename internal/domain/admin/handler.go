package admin

import (
	"io"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/uhs/uhs/internal/platform/apiclient"
	"github.com/uhs/uhs/internal/platform/session"
	"github.com/uhs/uhs/internal/platform/viewstate"
	"github.com/uhs/uhs/pkg/listview"
)

const (
	viewUsers               = "admin-users"
	viewDeletedAppointments = "admin-deleted-appointments"
	viewLogs                = "admin-logs"
	viewAssistants          = "admin-assistants"
	viewDoctors             = "admin-doctors"
)

// maxUploadSize bounds restore archives and student CSVs.
const maxUploadSize = 64 << 20

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
	a := g.Group("/admin", session.Guard("/", session.RoleAdmin))

	a.GET("/users", h.ListUsers)
	a.DELETE("/users/:id", h.DeleteUser)
	a.GET("/deleted-appointments", h.ListDeletedAppointments)
	a.GET("/logs", h.ListLogs)

	a.GET("/assistants", h.ListAssistants)
	a.PUT("/assistants/:email", h.UpdateAssistant)
	a.DELETE("/assistants/:email", h.DeleteAssistant)
	a.PATCH("/assistants/:email/stock-permission", h.SetAssistantStockPermission)
	a.GET("/doctors", h.ListDoctors)
	a.PATCH("/doctors/:id/stock-permission", h.SetDoctorStockPermission)

	a.POST("/backup", h.Backup)
	a.POST("/restore", h.Restore)
	a.POST("/import-students", h.ImportStudents)
}

func (h *Handler) service(c echo.Context) (*Service, *session.Session) {
	s := session.FromContext(c.Request().Context())
	return NewService(h.repos(s)), s
}

// -- Views --

func (h *Handler) ListUsers(c echo.Context) error {
	return viewstate.Serve(c, h.views, viewstate.Spec[User]{
		Name:         viewUsers,
		Columns:      UserColumns(),
		EmptyMessage: "No users found.",
		Build: func(s *session.Session) *listview.Viewer[User] {
			return NewService(h.repos(s)).NewUserViewer(h.pageSize)
		},
	})
}

func (h *Handler) ListDeletedAppointments(c echo.Context) error {
	return viewstate.Serve(c, h.views, viewstate.Spec[DeletedAppointment]{
		Name:         viewDeletedAppointments,
		Columns:      DeletedAppointmentColumns(),
		EmptyMessage: "No deleted appointments.",
		Build: func(s *session.Session) *listview.Viewer[DeletedAppointment] {
			return NewService(h.repos(s)).NewDeletedAppointmentViewer(h.pageSize)
		},
	})
}

func (h *Handler) ListLogs(c echo.Context) error {
	level := LogLevel(c.QueryParam("level"))
	if level != "" && !level.Valid() {
		return echo.NewHTTPError(http.StatusBadRequest, "level must be info, warning or error")
	}
	return viewstate.Serve(c, h.views, viewstate.Spec[LogEntry]{
		Name:         viewLogs + ":" + string(level),
		Columns:      LogColumns(),
		EmptyMessage: "No log entries.",
		Build: func(s *session.Session) *listview.Viewer[LogEntry] {
			return NewService(h.repos(s)).NewLogViewer(level, h.pageSize)
		},
	})
}

func (h *Handler) ListAssistants(c echo.Context) error {
	return viewstate.Serve(c, h.views, viewstate.Spec[Assistant]{
		Name:         viewAssistants,
		Columns:      AssistantColumns(),
		EmptyMessage: "No nursing assistants.",
		Build: func(s *session.Session) *listview.Viewer[Assistant] {
			return NewService(h.repos(s)).NewAssistantViewer(h.pageSize)
		},
	})
}

func (h *Handler) ListDoctors(c echo.Context) error {
	return viewstate.Serve(c, h.views, viewstate.Spec[Doctor]{
		Name:         viewDoctors,
		Columns:      DoctorColumns(),
		EmptyMessage: "No doctors.",
		Build: func(s *session.Session) *listview.Viewer[Doctor] {
			return NewService(h.repos(s)).NewDoctorViewer(h.pageSize)
		},
	})
}

// -- Mutations --

func (h *Handler) DeleteUser(c echo.Context) error {
	svc, s := h.service(c)
	id := c.Param("id")
	if err := svc.DeleteUser(c.Request().Context(), id); err != nil {
		return viewstate.Fail(c, err)
	}
	if v, ok := viewstate.Lookup[User](h.views, s.ID, viewUsers); ok {
		v.Edit(func(items []User) []User {
			out := items[:0]
			for _, u := range items {
				if u.ID != id {
					out = append(out, u)
				}
			}
			return out
		})
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) UpdateAssistant(c echo.Context) error {
	svc, s := h.service(c)
	var u AssistantUpdate
	if err := c.Bind(&u); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	email := c.Param("email")
	if err := svc.UpdateAssistant(c.Request().Context(), email, &u); err != nil {
		return viewstate.Fail(c, err)
	}
	if v, ok := viewstate.Lookup[Assistant](h.views, s.ID, viewAssistants); ok {
		v.Edit(func(items []Assistant) []Assistant {
			for i := range items {
				if items[i].Email == email {
					items[i].Name, items[i].Phone, items[i].Gender = u.Name, u.Phone, u.Gender
				}
			}
			return items
		})
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) DeleteAssistant(c echo.Context) error {
	svc, s := h.service(c)
	email := c.Param("email")
	if err := svc.DeleteAssistant(c.Request().Context(), email); err != nil {
		return viewstate.Fail(c, err)
	}
	if v, ok := viewstate.Lookup[Assistant](h.views, s.ID, viewAssistants); ok {
		v.Edit(func(items []Assistant) []Assistant {
			out := items[:0]
			for _, a := range items {
				if a.Email != email {
					out = append(out, a)
				}
			}
			return out
		})
	}
	return c.NoContent(http.StatusNoContent)
}

func canEditParam(c echo.Context) (bool, error) {
	canEdit, err := strconv.ParseBool(c.QueryParam("canEdit"))
	if err != nil {
		return false, echo.NewHTTPError(http.StatusBadRequest, "canEdit must be true or false")
	}
	return canEdit, nil
}

func (h *Handler) SetAssistantStockPermission(c echo.Context) error {
	canEdit, err := canEditParam(c)
	if err != nil {
		return err
	}
	svc, s := h.service(c)
	v, _ := viewstate.Lookup[Assistant](h.views, s.ID, viewAssistants)
	if err := svc.SetAssistantStockPermission(c.Request().Context(), c.Param("email"), canEdit, v); err != nil {
		return viewstate.Fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"canEditStock": canEdit})
}

func (h *Handler) SetDoctorStockPermission(c echo.Context) error {
	canEdit, err := canEditParam(c)
	if err != nil {
		return err
	}
	svc, s := h.service(c)
	v, _ := viewstate.Lookup[Doctor](h.views, s.ID, viewDoctors)
	if err := svc.SetDoctorStockPermission(c.Request().Context(), c.Param("id"), canEdit, v); err != nil {
		return viewstate.Fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"canEditStock": canEdit})
}

// -- Maintenance --

func (h *Handler) Backup(c echo.Context) error {
	svc, _ := h.service(c)
	att, err := svc.Backup(c.Request().Context())
	if err != nil {
		return viewstate.Fail(c, err)
	}
	return viewstate.Attachment(c, att)
}

func (h *Handler) Restore(c echo.Context) error {
	files, err := uploads(c)
	if err != nil {
		return err
	}
	svc, _ := h.service(c)
	if err := svc.Restore(c.Request().Context(), files); err != nil {
		return viewstate.Fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Restore started."})
}

func (h *Handler) ImportStudents(c echo.Context) error {
	files, err := uploads(c)
	if err != nil {
		return err
	}
	if len(files) != 1 {
		return echo.NewHTTPError(http.StatusBadRequest, "select exactly one CSV file")
	}
	svc, _ := h.service(c)
	res, err := svc.ImportStudents(c.Request().Context(), files[0])
	if err != nil {
		return viewstate.Fail(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// uploads reads every file of the multipart "file" field.
func uploads(c echo.Context) ([]Upload, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "expected a multipart upload")
	}
	var out []Upload
	for _, fh := range form.File["file"] {
		if fh.Size > maxUploadSize {
			return nil, echo.NewHTTPError(http.StatusRequestEntityTooLarge, fh.Filename+" is too large")
		}
		f, err := fh.Open()
		if err != nil {
			return nil, echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		out = append(out, Upload{Filename: fh.Filename, Data: data})
	}
	return out, nil
}
