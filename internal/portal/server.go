// Package portal assembles the UHS portal server: the echo router, the
// session lifecycle, the websocket hub and the dashboard poller.
package portal

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/uhs/uhs/internal/config"
	"github.com/uhs/uhs/internal/domain/admin"
	"github.com/uhs/uhs/internal/domain/diagnosis"
	"github.com/uhs/uhs/internal/domain/feedback"
	"github.com/uhs/uhs/internal/domain/identity"
	"github.com/uhs/uhs/internal/domain/stock"
	"github.com/uhs/uhs/internal/platform/apiclient"
	"github.com/uhs/uhs/internal/platform/db"
	"github.com/uhs/uhs/internal/platform/middleware"
	"github.com/uhs/uhs/internal/platform/poller"
	"github.com/uhs/uhs/internal/platform/session"
	"github.com/uhs/uhs/internal/platform/telemetry"
	"github.com/uhs/uhs/internal/platform/viewstate"
	"github.com/uhs/uhs/internal/platform/websocket"
)

const (
	defaultBodyLimit = "1M"
	uploadBodyLimit  = "64M"
	reapInterval     = time.Minute
	// timeoutMargin keeps portal deadlines above the backend client timeouts.
	timeoutMargin = 5 * time.Second
)

// Deps are the collaborators built by the serve command.
type Deps struct {
	Config  *config.Config
	Logger  zerolog.Logger
	Client  *apiclient.Client
	Store   session.Store
	Metrics *telemetry.Metrics
	// Pool is the session database, nil when sessions live in memory.
	Pool  *pgxpool.Pool
	Clock session.Clock
}

type Server struct {
	Echo     *echo.Echo
	Sessions *Sessions
	Hub      *websocket.Hub
	Views    *viewstate.Registry
	Poller   *poller.Poller

	cfg    *config.Config
	logger zerolog.Logger
}

func New(d Deps) *Server {
	cfg := d.Config
	views := viewstate.NewRegistry()
	hub := websocket.NewHub(d.Logger)
	sessions := NewSessions(SessionsConfig{
		Store:       d.Store,
		Views:       views,
		Notifier:    hub,
		Metrics:     d.Metrics,
		Logger:      d.Logger,
		IdleTimeout: cfg.IdleTimeout,
		Clock:       d.Clock,
	})

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	var recorder middleware.AuditRecorder
	if d.Pool != nil {
		recorder = NewPGAuditRecorder(d.Pool)
	}

	e.Use(middleware.Recovery(d.Logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(d.Logger))
	e.Use(d.Metrics.Middleware())
	e.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders:     []string{"Content-Type", middleware.RequestIDHeader},
		AllowCredentials: true,
	}))
	e.Use(middleware.BodyLimit(defaultBodyLimit, uploadBodyLimit))
	e.Use(middleware.RequestTimeout(middleware.TimeoutConfig{
		Default:      cfg.RequestTimeout + timeoutMargin,
		Long:         cfg.ExportTimeout + timeoutMargin,
		LongSuffixes: middleware.DefaultLongSuffixes,
	}))
	e.Use(session.Middleware(session.MiddlewareConfig{
		Store:       d.Store,
		CookieName:  cfg.SessionCookie,
		IdleTimeout: cfg.IdleTimeout,
		Logger:      d.Logger,
		OnActivity:  sessions.Touch,
		OnExpire:    sessions.Expired,
	}))
	e.Use(middleware.Audit(d.Logger, recorder))

	var checks []db.Check
	if d.Pool != nil {
		checks = append(checks, db.PoolCheck(d.Pool))
	}
	e.GET("/", index)
	e.GET("/health", db.HealthHandler(checks...))
	e.GET("/metrics", d.Metrics.Handler())

	client := d.Client
	root := e.Group("")

	identity.NewHandler(identity.NewService(identity.NewAPIRepository(client)), sessions, cfg.SessionCookie).
		RegisterRoutes(root, middleware.RateLimit(middleware.SignInRateLimit()))
	feedback.NewHandler(func(ts apiclient.TokenSource) feedback.Repository {
		return feedback.NewAPIRepository(client.WithTokens(ts))
	}, views, cfg.PageSize).RegisterRoutes(root)
	admin.NewHandler(func(ts apiclient.TokenSource) admin.Repository {
		return admin.NewAPIRepository(client.WithTokens(ts))
	}, views, cfg.PageSize).RegisterRoutes(root)
	stock.NewHandler(func(ts apiclient.TokenSource) stock.Repository {
		return stock.NewAPIRepository(client.WithTokens(ts))
	}, views, cfg.PageSize).RegisterRoutes(root)
	diagnosis.NewHandler(func(ts apiclient.TokenSource) diagnosis.Repository {
		return diagnosis.NewAPIRepository(client.WithTokens(ts))
	}, views, cfg.PageSize).RegisterRoutes(root)

	websocket.NewHandler(hub, websocket.HandlerConfig{
		AllowedOrigins: cfg.CORSOrigins,
		AllowTopic:     AllowTopic,
		OnActivity:     sessions.Activity,
	}).RegisterRoutes(root)

	p := poller.New(cfg.RefreshInterval, hub, d.Logger, DashboardJobs(views), poller.WithRecorder(d.Metrics))

	return &Server{
		Echo:     e,
		Sessions: sessions,
		Hub:      hub,
		Views:    views,
		Poller:   p,
		cfg:      cfg,
		logger:   d.Logger,
	}
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go s.Poller.Start(ctx)
	go s.Sessions.StartReaper(ctx, reapInterval)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("starting portal server")
		if err := s.Echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info().Msg("shutting down portal server")
	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	s.Sessions.Close()
	if err := s.Echo.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.logger.Info().Msg("portal server stopped")
	return nil
}

// entry is one view reachable from the portal entry point.
type entry struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

var entries = []struct {
	entry
	roles []string
}{
	{entry{"Feedback", "/feedback"}, []string{session.RoleAdmin, session.RoleDoctor}},
	{entry{"Diagnosis frequencies", "/diagnosis/frequencies"}, []string{session.RoleAdmin, session.RoleDoctor}},
	{entry{"Daily medicine logs", "/stock/logs"}, []string{session.RoleAdmin, session.RoleDoctor, session.RoleAssistant}},
	{entry{"Users", "/admin/users"}, []string{session.RoleAdmin}},
	{entry{"Assistants", "/admin/assistants"}, []string{session.RoleAdmin}},
	{entry{"Doctors", "/admin/doctors"}, []string{session.RoleAdmin}},
	{entry{"Deleted appointments", "/admin/deleted-appointments"}, []string{session.RoleAdmin}},
	{entry{"System logs", "/admin/logs"}, []string{session.RoleAdmin}},
	{entry{"Submit feedback", "/feedback"}, []string{session.RolePatient}},
}

// index is the public entry point: the sign-in routes for visitors and the
// views the caller's role can open once signed in.
func index(c echo.Context) error {
	s := session.FromContext(c.Request().Context())
	if session.Authorize(s) != nil {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"signed_in": false,
			"sign_in":   []string{"/auth/signin", "/auth/otp"},
		})
	}
	views := []entry{}
	for _, en := range entries {
		if session.Authorize(s, en.roles...) == nil {
			views = append(views, en.entry)
		}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"signed_in": true,
		"email":     s.Email,
		"role":      s.PrimaryRole(),
		"views":     views,
	})
}
