// Package poller refreshes dashboard views on a fixed interval and tells
// subscribed portal clients to redraw them.
package poller

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/uhs/uhs/internal/platform/websocket"
)

// Job refreshes one dashboard. It runs only while Topic has subscribers.
type Job struct {
	Name  string
	Topic string
	// Run refetches the data and returns the payload sent with the refresh
	// event (nil for none).
	Run func(ctx context.Context) (interface{}, error)
}

// Hub is the part of *websocket.Hub the poller uses.
type Hub interface {
	HasSubscribers(topic string) bool
	Broadcast(topic string, event websocket.Event)
}

// Recorder counts job outcomes; *telemetry.Metrics satisfies it.
type Recorder interface {
	PollerRun(job string, err error)
}

// Ticker abstracts time.Ticker for tests.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type timeTicker struct{ t *time.Ticker }

func (t timeTicker) C() <-chan time.Time { return t.t.C }
func (t timeTicker) Stop()               { t.t.Stop() }

func NewTimeTicker(d time.Duration) Ticker { return timeTicker{time.NewTicker(d)} }

type Poller struct {
	interval  time.Duration
	jobs      []Job
	hub       Hub
	recorder  Recorder
	logger    zerolog.Logger
	newTicker func(time.Duration) Ticker
}

type Option func(*Poller)

// WithTicker replaces the ticker factory.
func WithTicker(f func(time.Duration) Ticker) Option {
	return func(p *Poller) { p.newTicker = f }
}

// WithRecorder records every job run.
func WithRecorder(r Recorder) Option {
	return func(p *Poller) { p.recorder = r }
}

func New(interval time.Duration, hub Hub, logger zerolog.Logger, jobs []Job, opts ...Option) *Poller {
	p := &Poller{
		interval:  interval,
		jobs:      jobs,
		hub:       hub,
		logger:    logger,
		newTicker: NewTimeTicker,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Start runs every job once per interval until ctx is cancelled.
func (p *Poller) Start(ctx context.Context) {
	ticker := p.newTicker(p.interval)
	defer ticker.Stop()

	p.logger.Info().Dur("interval", p.interval).Int("jobs", len(p.jobs)).Msg("dashboard poller started")
	for {
		select {
		case <-ctx.Done():
			p.logger.Info().Msg("dashboard poller stopped")
			return
		case <-ticker.C():
			p.RunOnce(ctx)
		}
	}
}

// RunOnce runs each job whose topic has subscribers and returns how many
// refresh events were broadcast.
func (p *Poller) RunOnce(ctx context.Context) int {
	sent := 0
	for _, job := range p.jobs {
		if ctx.Err() != nil {
			return sent
		}
		if !p.hub.HasSubscribers(job.Topic) {
			continue
		}
		data, err := job.Run(ctx)
		if p.recorder != nil {
			p.recorder.PollerRun(job.Name, err)
		}
		if err != nil {
			p.logger.Warn().Err(err).Str("job", job.Name).Msg("dashboard refresh failed")
			continue
		}
		ev, err := websocket.NewEvent(websocket.EventRefresh, job.Topic, data)
		if err != nil {
			p.logger.Error().Err(err).Str("job", job.Name).Msg("encode refresh event")
			continue
		}
		p.hub.Broadcast(job.Topic, ev)
		sent++
	}
	return sent
}
