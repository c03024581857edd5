package viewstate

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/uhs/uhs/internal/platform/apiclient"
	"github.com/uhs/uhs/internal/platform/session"
	"github.com/uhs/uhs/pkg/listview"
)

// Spec describes one list view served by Serve.
type Spec[T any] struct {
	Name    string
	Columns []listview.Column[T]
	Build   func(s *session.Session) *listview.Viewer[T]
	// EmptyMessage replaces the default empty-state text.
	EmptyMessage string
	// EntryPoint receives users whose session is no longer usable.
	EntryPoint string
}

// Serve applies the request's view commands to the session's viewer and
// writes the resulting view. Query parameters:
//
//	action  load | refresh | next | prev (default: load on first use)
//	sort    field:direction, e.g. rating:high-to-low
//	q       local filter text
//	page    page number (offset views)
//	format  json (default) or text; width sets the text layout width
func Serve[T any](c echo.Context, reg *Registry, spec Spec[T]) error {
	ctx := c.Request().Context()
	s := session.FromContext(ctx)
	if s == nil {
		return c.Redirect(http.StatusSeeOther, entryPoint(spec))
	}

	v, created := Viewer(reg, s.ID, spec.Name, func() *listview.Viewer[T] { return spec.Build(s) })

	if raw := c.QueryParam("sort"); raw != "" {
		sort, err := ParseSort(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		if sort != v.State().Sort || created {
			// A failed refetch is held in the viewer state and rendered from
			// the snapshot below like any other fetch error.
			_ = v.SetSort(ctx, sort)
			created = false
		}
	}
	if c.QueryParams().Has("q") {
		v.SetQuery(c.QueryParam("q"))
	}

	action := c.QueryParam("action")
	if created && action == "" {
		action = "load"
	}
	var err error
	switch action {
	case "":
	case "load", "refresh":
		err = v.Refresh(ctx)
	case "next":
		err = v.Next(ctx)
	case "prev":
		err = v.Prev(ctx)
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "unknown action "+strconv.Quote(action))
	}
	if errors.Is(err, listview.ErrNoNextPage) || errors.Is(err, listview.ErrNoPreviousPage) {
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}

	if raw := c.QueryParam("page"); raw != "" {
		n, perr := strconv.Atoi(raw)
		if perr != nil || n < 1 {
			return echo.NewHTTPError(http.StatusBadRequest, "page must be a positive integer")
		}
		if gerr := v.GoTo(n); gerr != nil {
			return echo.NewHTTPError(http.StatusBadRequest, gerr.Error())
		}
	}

	view := v.Snapshot()
	if view.Status == listview.StatusErrored && apiclient.Classify(view.Err) == apiclient.KindAuthenticationMissing {
		reg.Drop(s.ID)
		return c.Redirect(http.StatusSeeOther, entryPoint(spec))
	}

	if c.QueryParam("format") == "text" {
		width, _ := strconv.Atoi(c.QueryParam("width"))
		var buf bytes.Buffer
		if rerr := listview.Render(&buf, view, spec.Columns, listview.RenderOptions{
			Width:        width,
			EmptyMessage: spec.EmptyMessage,
			Expanded:     expandedRows(c.QueryParam("expand")),
		}); rerr != nil {
			return rerr
		}
		return c.String(http.StatusOK, buf.String())
	}
	return c.JSON(http.StatusOK, view)
}

func entryPoint[T any](spec Spec[T]) string {
	if spec.EntryPoint == "" {
		return "/"
	}
	return spec.EntryPoint
}

// ParseSort parses "field:direction". A bare field sorts ascending.
func ParseSort(raw string) (listview.SortSpec, error) {
	field, dir, _ := strings.Cut(raw, ":")
	d, err := listview.ParseDirection(dir)
	if err != nil {
		return listview.SortSpec{}, err
	}
	return listview.SortSpec{Field: strings.TrimSpace(field), Direction: d}, nil
}

func expandedRows(raw string) map[int]bool {
	rows := map[int]bool{}
	for _, part := range strings.Split(raw, ",") {
		if n, err := strconv.Atoi(strings.TrimSpace(part)); err == nil && n > 0 {
			rows[n] = true
		}
	}
	return rows
}
