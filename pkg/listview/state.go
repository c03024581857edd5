package listview

import (
	"fmt"
	"slices"

	"github.com/uhs/uhs/pkg/pagination"
)

// Status is the fetch state of a list.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusLoaded
	StatusErrored
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusLoaded:
		return "loaded"
	case StatusErrored:
		return "error"
	default:
		return "idle"
	}
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(b []byte) error {
	for _, st := range []Status{StatusIdle, StatusLoading, StatusLoaded, StatusErrored} {
		if st.String() == string(b) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown status %q", b)
}

// Page is one response of a Source.
type Page[T any] struct {
	Items      []T
	NextCursor string
}

// Move says how a successful fetch changes the cursor stack.
type Move int

const (
	MoveStay Move = iota
	MoveForward
	MoveBack
)

// State is the controller state of one list view. It is only changed by
// Reduce.
type State[T any] struct {
	Status     Status
	Items      []T
	NextCursor string
	Err        error
	Sort       SortSpec
	Query      string
	Page       int
	Cursors    pagination.CursorStack
	// Seq is the sequence number of the most recently started fetch.
	// Completions carrying another number are stale and dropped.
	Seq uint64

	// pending holds edits confirmed while a fetch was in flight. They are
	// replayed over that fetch's items, which may predate the edit.
	pending []func(items []T) []T
}

// Action is an input to Reduce.
type Action interface {
	action()
}

type FetchStarted struct {
	Seq uint64
}

type FetchSucceeded[T any] struct {
	Seq    uint64
	Page   Page[T]
	Move   Move
	Cursor string
}

type FetchFailed struct {
	Seq uint64
	Err error
}

type SortChanged struct {
	Sort SortSpec
}

type PageChanged struct {
	Page int
}

type QueryChanged struct {
	Query string
}

// ItemsEdited applies a change the backend has already confirmed to the
// loaded items, without a refetch. An edit arriving while a fetch is in
// flight is replayed over the fetched items. Edits must be idempotent.
type ItemsEdited[T any] struct {
	Edit func(items []T) []T
}

func (FetchStarted) action()      {}
func (FetchSucceeded[T]) action() {}
func (FetchFailed) action()       {}
func (SortChanged) action()       {}
func (PageChanged) action()       {}
func (QueryChanged) action()      {}
func (ItemsEdited[T]) action()    {}

// Reduce applies a to s and returns the new state.
func Reduce[T any](s State[T], a Action) State[T] {
	s.Cursors = s.Cursors.Clone()
	if s.Page < 1 {
		s.Page = 1
	}

	switch a := a.(type) {
	case FetchStarted:
		s.Status = StatusLoading
		s.Seq = a.Seq
		s.Err = nil

	case FetchSucceeded[T]:
		if a.Seq != s.Seq {
			return s
		}
		s.Status = StatusLoaded
		s.Items = a.Page.Items
		if len(s.pending) > 0 {
			s.Items = slices.Clone(s.Items)
			for _, edit := range s.pending {
				s.Items = edit(s.Items)
			}
			s.pending = nil
		}
		s.NextCursor = a.Page.NextCursor
		s.Err = nil
		switch a.Move {
		case MoveForward:
			s.Cursors.Advance(a.Cursor)
		case MoveBack:
			s.Cursors.Back()
		}

	case FetchFailed:
		if a.Seq != s.Seq {
			return s
		}
		s.Status = StatusErrored
		s.Err = a.Err
		s.pending = nil

	case SortChanged:
		s.Sort = a.Sort
		s.Page = 1
		s.Cursors.Reset()

	case PageChanged:
		if a.Page >= 1 {
			s.Page = a.Page
		}

	case QueryChanged:
		s.Query = a.Query
		s.Page = 1

	case ItemsEdited[T]:
		if a.Edit == nil {
			break
		}
		switch s.Status {
		case StatusLoaded:
			s.Items = a.Edit(slices.Clone(s.Items))
		case StatusLoading:
			s.pending = append(slices.Clip(s.pending), a.Edit)
		}
	}
	return s
}
