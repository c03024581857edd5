package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/uhs/uhs/internal/config"
	"github.com/uhs/uhs/internal/platform/apiclient"
	"github.com/uhs/uhs/internal/platform/session"
)

// errIdle ends a command whose session timed out.
var errIdle = errors.New("session ended after inactivity; run `uhs login` again")

// flagBindings maps config keys to the persistent flags that override them.
var flagBindings = map[string]string{
	"UHS_API_URL":          "api-url",
	"SESSION_FILE":         "session-file",
	"PAGE_SIZE":            "page-size",
	"IDLE_TIMEOUT":         "idle-timeout",
	"CONDENSED_BREAKPOINT": "breakpoint",
}

// app carries what every command needs. It is filled in by the root
// command's PersistentPreRunE.
type app struct {
	in     io.Reader
	lines  *bufio.Reader
	out    io.Writer
	errOut io.Writer

	cfg    *config.Config
	logger zerolog.Logger
	client *apiclient.Client
	store  *session.FileStore
	width  int
	now    func() time.Time
}

func main() {
	if err := newRootCmd(os.Stdin, os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd(in io.Reader, out, errOut io.Writer) *cobra.Command {
	a := &app{in: in, out: out, errOut: errOut, now: time.Now}

	root := &cobra.Command{
		Use:           "uhs",
		Short:         "University Health Service client and portal server",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}
	pf := root.PersistentFlags()
	pf.String("api-url", "", "UHS backend base URL (UHS_API_URL)")
	pf.String("session-file", "", "where the CLI keeps its session (SESSION_FILE)")
	pf.Int("page-size", 0, "rows per page: 5, 10, 20 or 50 (PAGE_SIZE)")
	pf.Duration("idle-timeout", 0, "sign out after this long without input (IDLE_TIMEOUT)")
	pf.Int("breakpoint", 0, "terminal width below which lists use cards (CONDENSED_BREAKPOINT)")
	pf.IntVar(&a.width, "width", 0, "terminal width used for rendering (default $COLUMNS or 120)")
	pf.BoolP("verbose", "v", false, "log backend calls to stderr")

	root.AddCommand(
		serveCmd(a),
		migrateCmd(a),
		loginCmd(a),
		otpCmd(a),
		logoutCmd(a),
		whoamiCmd(a),
		verifyUserCmd(a),
		passwordCmd(a),
		browseCmd(a),
		feedbackCmd(a),
		adminCmd(a),
		stockCmd(a),
		diagnosisCmd(a),
	)

	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.LoadFlags(cmd.Flags(), flagBindings)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	level := zerolog.WarnLevel
	if v, _ := cmd.Flags().GetBool("verbose"); v {
		level = zerolog.DebugLevel
	}
	a.logger = zerolog.New(zerolog.ConsoleWriter{Out: a.errOut, NoColor: true}).Level(level).With().Timestamp().Logger()

	a.client, err = apiclient.New(apiclient.Options{
		BaseURL:       cfg.APIURL,
		Timeout:       cfg.RequestTimeout,
		ExportTimeout: cfg.ExportTimeout,
		Logger:        a.logger,
	})
	if err != nil {
		return err
	}

	path := cfg.SessionFile
	if path == "" {
		path = session.DefaultFilePath()
	}
	a.store = session.NewFileStore(path)

	if a.width <= 0 {
		a.width = terminalWidth()
	}
	return nil
}

func terminalWidth() int {
	var w int
	if _, err := fmt.Sscan(os.Getenv("COLUMNS"), &w); err == nil && w > 0 {
		return w
	}
	return 120
}

// session loads the saved session, ending it if it has been idle longer than
// the idle timeout, and records this command as activity.
func (a *app) session() (*session.Session, error) {
	s, err := a.store.Load()
	if err != nil {
		return nil, err
	}
	now := a.now()
	if s.IdleExpired(now, a.cfg.IdleTimeout) {
		if err := a.store.Clear(); err != nil {
			return nil, err
		}
		return nil, errIdle
	}
	s.Touch(now)
	if err := a.store.Save(s); err != nil {
		return nil, err
	}
	return s, nil
}

// touch records activity on the saved session without the idle check.
func (a *app) touch() {
	s, err := a.store.Load()
	if err != nil {
		return
	}
	s.Touch(a.now())
	if err := a.store.Save(s); err != nil {
		a.logger.Warn().Err(err).Msg("record session activity")
	}
}

// authed returns a client authenticating as the saved session.
func (a *app) authed() (*apiclient.Client, *session.Session, error) {
	s, err := a.session()
	if err != nil {
		return nil, nil, err
	}
	return a.client.WithTokens(s), s, nil
}

// requireRole fails before any network call when the saved session lacks
// every role in roles.
func (a *app) requireRole(roles ...string) (*apiclient.Client, *session.Session, error) {
	client, s, err := a.authed()
	if err != nil {
		return nil, nil, err
	}
	if err := session.Authorize(s, roles...); err != nil {
		return nil, nil, fmt.Errorf("%w (signed in as %s)", err, s.PrimaryRole())
	}
	return client, s, nil
}

// report converts an error into the guidance shown to users.
func report(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, errIdle), errors.Is(err, session.ErrRoleNotAllowed):
		return err
	case errors.Is(err, session.ErrNoSession), errors.Is(err, session.ErrTokenExpired):
		return errors.New("not signed in; run `uhs login`")
	case apiclient.Classify(err) != apiclient.KindUnknown:
		msg := apiclient.Guidance(err)
		if apiclient.Retryable(err) {
			msg += " (you can try again)"
		}
		return errors.New(msg)
	}
	return err
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
