package listview

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// BrowseOptions configures Browse.
type BrowseOptions struct {
	Render RenderOptions
	// OnInput runs for every line read, before it is handled. The CLI uses it
	// to reset the idle watcher.
	OnInput func()
}

const browseHelp = `commands:
  n            next page
  p            previous page
  g <page>     go to page (offset views)
  r            reload
  s <field> [asc|desc]  sort
  / <text>     filter; "/" alone clears
  e <row>      expand or collapse a row (narrow layout)
  q            quit`

// Browse runs an interactive terminal session over v until the input ends,
// the user quits, or ctx is cancelled. The cancellation cause is returned.
func Browse[T any](ctx context.Context, v *Viewer[T], cols []Column[T], in io.Reader, out io.Writer, opts BrowseOptions) error {
	if opts.Render.Expanded == nil {
		opts.Render.Expanded = map[int]bool{}
	}

	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	_ = v.Load(ctx)
	for {
		if err := Render(out, v.Snapshot(), cols, opts.Render); err != nil {
			return err
		}
		fmt.Fprint(out, "> ")

		var line string
		select {
		case <-ctx.Done():
			fmt.Fprintln(out)
			return context.Cause(ctx)
		case l, ok := <-lines:
			if !ok {
				return nil
			}
			line = strings.TrimSpace(l)
		}
		if opts.OnInput != nil {
			opts.OnInput()
		}

		quit, err := handleBrowseCommand(ctx, v, line, out, opts.Render.Expanded)
		if quit {
			return nil
		}
		if err != nil && ctx.Err() != nil {
			return context.Cause(ctx)
		}
	}
}

func handleBrowseCommand[T any](ctx context.Context, v *Viewer[T], line string, out io.Writer, expanded map[int]bool) (bool, error) {
	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	var err error
	switch {
	case cmd == "q":
		return true, nil
	case cmd == "n":
		err = v.Next(ctx)
	case cmd == "p":
		err = v.Prev(ctx)
	case cmd == "r":
		err = v.Refresh(ctx)
	case cmd == "g":
		page, perr := strconv.Atoi(arg)
		if perr != nil {
			fmt.Fprintln(out, "usage: g <page>")
			return false, nil
		}
		err = v.GoTo(page)
	case cmd == "s":
		field, dirText, _ := strings.Cut(arg, " ")
		dir, derr := ParseDirection(dirText)
		if field == "" || derr != nil {
			fmt.Fprintln(out, "usage: s <field> [asc|desc]")
			return false, nil
		}
		err = v.SetSort(ctx, SortSpec{Field: field, Direction: dir})
	case strings.HasPrefix(line, "/"):
		v.SetQuery(strings.TrimSpace(strings.TrimPrefix(line, "/")))
	case cmd == "e":
		row, perr := strconv.Atoi(arg)
		if perr != nil || row < 1 {
			fmt.Fprintln(out, "usage: e <row>")
			return false, nil
		}
		ToggleRow(expanded, row)
	case cmd == "" || cmd == "?" || cmd == "h":
		fmt.Fprintln(out, browseHelp)
	default:
		fmt.Fprintf(out, "unknown command %q, ? for help\n", cmd)
	}

	switch {
	case errors.Is(err, ErrNoNextPage):
		fmt.Fprintln(out, "Already on the last page.")
	case errors.Is(err, ErrNoPreviousPage):
		fmt.Fprintln(out, "Already on the first page.")
	case err != nil && !isFetchError(v):
		fmt.Fprintln(out, err)
	}
	return false, err
}

// isFetchError reports whether the last error is already shown by the view.
func isFetchError[T any](v *Viewer[T]) bool {
	return v.State().Status == StatusErrored
}
