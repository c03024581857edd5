package listview

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

const (
	DefaultBreakpoint   = 80
	defaultSkeletonRows = 3
)

// RenderOptions controls terminal rendering of a View.
type RenderOptions struct {
	// Width is the available width in columns. Below Breakpoint the
	// condensed card layout is used.
	Width        int
	Breakpoint   int
	Expanded     map[int]bool
	EmptyMessage string
	SkeletonRows int
}

// Condensed reports whether the card layout applies.
func (o RenderOptions) Condensed() bool {
	bp := o.Breakpoint
	if bp <= 0 {
		bp = DefaultBreakpoint
	}
	return o.Width > 0 && o.Width < bp
}

// ToggleRow flips the expanded state of a 1-based row in the card layout.
func ToggleRow(expanded map[int]bool, row int) {
	if expanded[row] {
		delete(expanded, row)
		return
	}
	expanded[row] = true
}

// Render writes exactly one of the loading, error or loaded states of view.
func Render[T any](w io.Writer, view View[T], cols []Column[T], opts RenderOptions) error {
	switch view.Status {
	case StatusIdle, StatusLoading:
		return renderSkeleton(w, cols, opts)
	case StatusErrored:
		return renderError(w, view)
	}

	if view.Empty || len(view.Items) == 0 {
		msg := opts.EmptyMessage
		if msg == "" {
			msg = "No records found."
		}
		_, err := fmt.Fprintln(w, msg)
		return err
	}

	var err error
	if opts.Condensed() {
		err = renderCards(w, view, cols, opts)
	} else {
		err = renderTable(w, view, cols)
	}
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, footer(view))
	return err
}

func renderSkeleton[T any](w io.Writer, cols []Column[T], opts RenderOptions) error {
	n := opts.SkeletonRows
	if n <= 0 {
		n = defaultSkeletonRows
	}
	cells := make([]string, 0, len(cols))
	for _, c := range cols {
		if c.Secondary && opts.Condensed() {
			continue
		}
		cells = append(cells, "░░░░░░")
	}
	line := strings.Join(cells, "  ")
	for i := 0; i < n; i++ {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func renderError[T any](w io.Writer, view View[T]) error {
	msg := view.Message
	if msg == "" && view.Err != nil {
		msg = view.Err.Error()
	}
	if _, err := fmt.Fprintf(w, "Error: %s\n", msg); err != nil {
		return err
	}
	if view.Retry {
		_, err := fmt.Fprintln(w, "Try again with [r].")
		return err
	}
	return nil
}

func renderTable[T any](w io.Writer, view View[T], cols []Column[T]) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	titles := make([]string, 0, len(cols)+1)
	titles = append(titles, "#")
	for _, c := range cols {
		titles = append(titles, strings.ToUpper(title(c)))
	}
	fmt.Fprintln(tw, strings.Join(titles, "\t"))
	for i, item := range view.Items {
		cells := make([]string, 0, len(cols)+1)
		cells = append(cells, fmt.Sprintf("%d", i+1))
		for _, c := range cols {
			cells = append(cells, oneLine(c.Cell(item)))
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	return tw.Flush()
}

func renderCards[T any](w io.Writer, view View[T], cols []Column[T], opts RenderOptions) error {
	for i, item := range view.Items {
		row := i + 1
		expanded := opts.Expanded[row]
		marker := "+"
		if expanded {
			marker = "-"
		}
		var primary []string
		for _, c := range cols {
			if !c.Secondary {
				primary = append(primary, oneLine(c.Cell(item)))
			}
		}
		if _, err := fmt.Fprintf(w, "[%s] %d. %s\n", marker, row, strings.Join(primary, " · ")); err != nil {
			return err
		}
		if !expanded {
			continue
		}
		for _, c := range cols {
			if c.Secondary {
				if _, err := fmt.Fprintf(w, "      %s: %s\n", title(c), oneLine(c.Cell(item))); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func footer[T any](view View[T]) string {
	var b strings.Builder
	if view.TotalPages > 0 {
		fmt.Fprintf(&b, "Page %d of %d", view.Page, view.TotalPages)
	} else {
		fmt.Fprintf(&b, "Page %d", view.Page)
	}
	fmt.Fprintf(&b, " · %d shown", len(view.Items))
	if view.HasPrevious {
		b.WriteString(" · [p]rev")
	}
	if view.HasNext {
		b.WriteString(" · [n]ext")
	}
	return b.String()
}

func title[T any](c Column[T]) string {
	if c.Title != "" {
		return c.Title
	}
	return c.Key
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
