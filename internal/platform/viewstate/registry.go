// Package viewstate keeps one list viewer per portal session and view, and
// serves their state over HTTP.
package viewstate

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/uhs/uhs/pkg/listview"
)

type key struct {
	session uuid.UUID
	view    string
}

// Registry holds live viewers. Viewers are discarded when their session ends.
type Registry struct {
	mu    sync.Mutex
	views map[key]any
}

func NewRegistry() *Registry {
	return &Registry{views: make(map[key]any)}
}

// Viewer returns the session's viewer for view, building it on first use.
// created reports whether build was called.
func Viewer[T any](r *Registry, session uuid.UUID, view string, build func() *listview.Viewer[T]) (v *listview.Viewer[T], created bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := key{session: session, view: view}
	if existing, ok := r.views[k].(*listview.Viewer[T]); ok {
		return existing, false
	}
	v = build()
	r.views[k] = v
	return v, true
}

// Lookup returns the session's viewer for view if one exists.
func Lookup[T any](r *Registry, session uuid.UUID, view string) (*listview.Viewer[T], bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.views[key{session: session, view: view}].(*listview.Viewer[T])
	return v, ok
}

// Drop discards every viewer belonging to session.
func (r *Registry) Drop(session uuid.UUID) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for k := range r.views {
		if k.session == session {
			delete(r.views, k)
			n++
		}
	}
	return n
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.views)
}

// Refresher is implemented by every *listview.Viewer.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// RefreshMatching refetches every viewer whose view name starts with prefix
// and returns the sessions that own them. The registry is not locked while
// viewers fetch.
func (r *Registry) RefreshMatching(ctx context.Context, prefix string) ([]uuid.UUID, error) {
	type target struct {
		session uuid.UUID
		viewer  Refresher
	}
	r.mu.Lock()
	var targets []target
	for k, v := range r.views {
		if rf, ok := v.(Refresher); ok && strings.HasPrefix(k.view, prefix) {
			targets = append(targets, target{session: k.session, viewer: rf})
		}
	}
	r.mu.Unlock()

	var (
		sessions []uuid.UUID
		errs     []error
	)
	for _, t := range targets {
		if err := t.viewer.Refresh(ctx); err != nil {
			errs = append(errs, err)
			continue
		}
		sessions = append(sessions, t.session)
	}
	return sessions, errors.Join(errs...)
}
