package portal

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/uhs/uhs/internal/platform/session"
	"github.com/uhs/uhs/internal/platform/viewstate"
	"github.com/uhs/uhs/internal/platform/websocket"
)

// End reasons recorded in metrics and sent with session.expired events.
const (
	ReasonLogout = "logout"
	ReasonIdle   = "idle"
)

// Metrics is the part of *telemetry.Metrics the session lifecycle reports to.
type Metrics interface {
	SessionStarted()
	SessionEnded(reason string)
	SetViewsOpen(n int)
}

// Notifier delivers events to every connection of one session.
type Notifier interface {
	SendToSession(id uuid.UUID, event websocket.Event) int
}

type SessionsConfig struct {
	Store       session.Store
	Views       *viewstate.Registry
	Notifier    Notifier
	Metrics     Metrics
	Logger      zerolog.Logger
	IdleTimeout time.Duration
	Clock       session.Clock
}

// Sessions begins and ends portal sessions. Ending a session, whether by
// logout or inactivity, deletes it from the store, discards its views and
// tells its open websocket connections.
type Sessions struct {
	store    session.Store
	views    *viewstate.Registry
	notifier Notifier
	metrics  Metrics
	logger   zerolog.Logger
	idle     time.Duration
	clock    session.Clock
	watchers *session.Watchers[uuid.UUID]
}

func NewSessions(cfg SessionsConfig) *Sessions {
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = session.DefaultIdleTimeout
	}
	if cfg.Clock == nil {
		cfg.Clock = session.SystemClock
	}
	if cfg.Views == nil {
		cfg.Views = viewstate.NewRegistry()
	}
	return &Sessions{
		store:    cfg.Store,
		views:    cfg.Views,
		notifier: cfg.Notifier,
		metrics:  cfg.Metrics,
		logger:   cfg.Logger,
		idle:     cfg.IdleTimeout,
		clock:    cfg.Clock,
		watchers: session.NewWatchers[uuid.UUID](cfg.IdleTimeout, cfg.Clock),
	}
}

// Begin stores s and starts its idle countdown.
func (m *Sessions) Begin(ctx context.Context, s *session.Session) error {
	if err := m.store.Save(ctx, s); err != nil {
		return err
	}
	m.watch(s.ID)
	if m.metrics != nil {
		m.metrics.SessionStarted()
	}
	m.logger.Info().Str("session_id", s.ID.String()).Str("role", s.PrimaryRole()).Msg("session started")
	return nil
}

func (m *Sessions) watch(id uuid.UUID) {
	// The watcher has already removed itself when this runs.
	m.watchers.Start(id, func() {
		if err := m.end(context.Background(), id, ReasonIdle, true); err != nil {
			m.logger.Error().Err(err).Str("session_id", id.String()).Msg("end idle session")
		}
	})
}

// End tears the session down. Ending an unknown session is not an error.
func (m *Sessions) End(ctx context.Context, id uuid.UUID, reason string) error {
	return m.end(ctx, id, reason, m.watchers.Stop(id))
}

// end counts the session as ended only when it was watched, so sessions
// the portal never started are not reported.
func (m *Sessions) end(ctx context.Context, id uuid.UUID, reason string, watched bool) error {
	err := m.store.Delete(ctx, id)
	if err != nil && !errors.Is(err, session.ErrNotFound) {
		m.logger.Error().Err(err).Str("session_id", id.String()).Msg("delete session")
	} else {
		err = nil
	}
	dropped := m.views.Drop(id)

	if m.notifier != nil {
		if ev, evErr := websocket.NewEvent(websocket.EventSessionExpired, "", map[string]string{"reason": reason}); evErr == nil {
			m.notifier.SendToSession(id, ev)
		}
	}
	if m.metrics != nil {
		if watched {
			m.metrics.SessionEnded(reason)
		}
		m.metrics.SetViewsOpen(m.views.Len())
	}
	m.logger.Info().Str("session_id", id.String()).Str("reason", reason).Int("views", dropped).Msg("session ended")
	return err
}

// Expired handles a session the request middleware found idle.
func (m *Sessions) Expired(id uuid.UUID) {
	_ = m.End(context.Background(), id, ReasonIdle)
}

// Activity resets the session's countdown. Sessions restored from a
// persistent store start being watched on their first activity.
func (m *Sessions) Activity(id uuid.UUID, a session.Activity) {
	if !m.watchers.Touch(id, a) {
		m.watch(id)
	}
}

// Touch records a portal request.
func (m *Sessions) Touch(id uuid.UUID) {
	m.Activity(id, session.ActivityRequest)
	if m.metrics != nil {
		m.metrics.SetViewsOpen(m.views.Len())
	}
}

// Watched returns the number of sessions with a running countdown.
func (m *Sessions) Watched() int { return m.watchers.Len() }

// Reap deletes stored sessions idle for longer than the timeout, covering
// sessions no process is watching.
func (m *Sessions) Reap(ctx context.Context) (int, error) {
	n, err := m.store.DeleteIdle(ctx, m.clock.Now().Add(-m.idle))
	if err != nil {
		return 0, err
	}
	if n > 0 {
		m.logger.Info().Int("sessions", n).Msg("reaped idle sessions")
	}
	return n, nil
}

// StartReaper calls Reap every interval until ctx is cancelled.
func (m *Sessions) StartReaper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := m.Reap(ctx); err != nil {
				m.logger.Error().Err(err).Msg("reap idle sessions")
			}
		}
	}
}

// Close stops every countdown without ending the sessions.
func (m *Sessions) Close() {
	m.watchers.StopAll()
}
