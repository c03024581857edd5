package main

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/uhs/uhs/internal/domain/admin"
	"github.com/uhs/uhs/internal/domain/diagnosis"
	"github.com/uhs/uhs/internal/domain/feedback"
	"github.com/uhs/uhs/internal/domain/stock"
	"github.com/uhs/uhs/internal/platform/apiclient"
	"github.com/uhs/uhs/internal/platform/session"
	"github.com/uhs/uhs/internal/platform/viewstate"
	"github.com/uhs/uhs/pkg/listview"
)

type browseFlags struct {
	once     bool
	sort     string
	query    string
	level    string
	location string
	start    string
	end      string
}

// listView opens one list for the browser.
type listView struct {
	roles []string
	run   func(a *app, cmd *cobra.Command, client *apiclient.Client, f browseFlags) error
}

var listViews = map[string]listView{
	"feedback": {
		roles: []string{session.RoleAdmin, session.RoleDoctor},
		run: func(a *app, cmd *cobra.Command, client *apiclient.Client, f browseFlags) error {
			v := feedback.NewService(feedback.NewAPIRepository(client)).NewViewer(a.cfg.PageSize)
			return browseList(a, cmd, v, feedback.Columns(), "No feedback yet.", f)
		},
	},
	"diagnosis": {
		roles: []string{session.RoleAdmin, session.RoleDoctor},
		run: func(a *app, cmd *cobra.Command, client *apiclient.Client, f browseFlags) error {
			v := diagnosis.NewService(diagnosis.NewAPIRepository(client)).NewViewer(a.cfg.PageSize)
			return browseList(a, cmd, v, diagnosis.Columns(), "No diagnoses recorded.", f)
		},
	},
	"stock-logs": {
		roles: []string{session.RoleAdmin, session.RoleDoctor, session.RoleAssistant},
		run: func(a *app, cmd *cobra.Command, client *apiclient.Client, f browseFlags) error {
			q := stock.LogQuery{LocationID: f.location, StartDate: f.start, EndDate: f.end}
			if err := q.Validate(); err != nil {
				return report(err)
			}
			v := stock.NewService(stock.NewAPIRepository(client)).NewLogViewer(q, a.cfg.PageSize)
			return browseList(a, cmd, v, stock.LogColumns(), "No logs for this period.", f)
		},
	},
	"users": {
		roles: []string{session.RoleAdmin},
		run: func(a *app, cmd *cobra.Command, client *apiclient.Client, f browseFlags) error {
			v := adminService(client).NewUserViewer(a.cfg.PageSize)
			return browseList(a, cmd, v, admin.UserColumns(), "No users found.", f)
		},
	},
	"assistants": {
		roles: []string{session.RoleAdmin},
		run: func(a *app, cmd *cobra.Command, client *apiclient.Client, f browseFlags) error {
			v := adminService(client).NewAssistantViewer(a.cfg.PageSize)
			return browseList(a, cmd, v, admin.AssistantColumns(), "No nursing assistants.", f)
		},
	},
	"doctors": {
		roles: []string{session.RoleAdmin},
		run: func(a *app, cmd *cobra.Command, client *apiclient.Client, f browseFlags) error {
			v := adminService(client).NewDoctorViewer(a.cfg.PageSize)
			return browseList(a, cmd, v, admin.DoctorColumns(), "No doctors.", f)
		},
	},
	"deleted-appointments": {
		roles: []string{session.RoleAdmin},
		run: func(a *app, cmd *cobra.Command, client *apiclient.Client, f browseFlags) error {
			v := adminService(client).NewDeletedAppointmentViewer(a.cfg.PageSize)
			return browseList(a, cmd, v, admin.DeletedAppointmentColumns(), "No deleted appointments.", f)
		},
	},
	"logs": {
		roles: []string{session.RoleAdmin},
		run: func(a *app, cmd *cobra.Command, client *apiclient.Client, f browseFlags) error {
			level := admin.LogLevel(strings.ToLower(f.level))
			if !level.Valid() {
				return report(apiclient.Invalid("level", "must be info, warning or error"))
			}
			v := adminService(client).NewLogViewer(level, a.cfg.PageSize)
			return browseList(a, cmd, v, admin.LogColumns(), "No log entries.", f)
		},
	},
}

func viewNames() []string {
	names := make([]string, 0, len(listViews))
	for name := range listViews {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func browseCmd(a *app) *cobra.Command {
	var f browseFlags
	cmd := &cobra.Command{
		Use:       "browse <view>",
		Short:     "Page through a list: " + strings.Join(viewNames(), ", "),
		Args:      cobra.ExactArgs(1),
		ValidArgs: viewNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			view, ok := listViews[args[0]]
			if !ok {
				return fmt.Errorf("unknown view %q; choose one of %s", args[0], strings.Join(viewNames(), ", "))
			}
			client, _, err := a.requireRole(view.roles...)
			if err != nil {
				return report(err)
			}
			return view.run(a, cmd, client, f)
		},
	}
	cmd.Flags().BoolVar(&f.once, "once", false, "print the first page and exit")
	cmd.Flags().StringVar(&f.sort, "sort", "", "initial sort as field:direction, e.g. rating:high-to-low")
	cmd.Flags().StringVar(&f.query, "query", "", "initial filter text")
	cmd.Flags().StringVar(&f.level, "level", string(admin.LevelInfo), "minimum level for the logs view")
	cmd.Flags().StringVar(&f.location, "location", "", "location ID for stock-logs")
	cmd.Flags().StringVar(&f.start, "start", "", "first day for stock-logs (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.end, "end", "", "last day for stock-logs (YYYY-MM-DD)")
	return cmd
}

// browseList renders v once with --once, otherwise runs the interactive
// browser until the user quits or the session idles out.
func browseList[T any](a *app, cmd *cobra.Command, v *listview.Viewer[T], cols []listview.Column[T], empty string, f browseFlags) error {
	if f.sort != "" {
		spec, err := viewstate.ParseSort(f.sort)
		if err != nil {
			return err
		}
		if _, ok := listview.Lookup(cols, spec.Field); !ok {
			return fmt.Errorf("cannot sort by %q", spec.Field)
		}
		v.Dispatch(listview.SortChanged{Sort: spec})
	}
	if f.query != "" {
		v.SetQuery(f.query)
	}
	render := listview.RenderOptions{
		Width:        a.width,
		Breakpoint:   a.cfg.CondensedBreakpoint,
		EmptyMessage: empty,
	}

	if f.once {
		_ = v.Load(commandContext(cmd))
		snap := v.Snapshot()
		if err := listview.Render(a.out, snap, cols, render); err != nil {
			return err
		}
		if snap.Err != nil && errors.Is(snap.Err, apiclient.ErrAuthenticationMissing) {
			return report(snap.Err)
		}
		return nil
	}

	ctx, cancel := context.WithCancelCause(commandContext(cmd))
	defer cancel(nil)
	watcher := session.NewIdleWatcher(a.cfg.IdleTimeout, nil, func() {
		if err := a.store.Clear(); err != nil {
			a.logger.Error().Err(err).Msg("clear idle session")
		}
		cancel(errIdle)
	})
	defer watcher.Stop()

	err := listview.Browse(ctx, v, cols, a.in, a.out, listview.BrowseOptions{
		Render: render,
		OnInput: func() {
			watcher.Touch(session.ActivityKey)
			a.touch()
		},
	})
	if errors.Is(err, errIdle) {
		return errIdle
	}
	return report(err)
}
