package listview

import (
	"context"
	"errors"
	"sync"

	"github.com/uhs/uhs/pkg/pagination"
)

var (
	ErrNoNextPage     = errors.New("no next page")
	ErrNoPreviousPage = errors.New("no previous page")
)

// Mode selects offset or cursor paging.
type Mode int

const (
	// OffsetMode pages the locally held list by page number.
	OffsetMode Mode = iota
	// CursorMode pages through server cursors.
	CursorMode
)

// PageRequest is what a Source receives on every fetch.
type PageRequest struct {
	Cursor string
	Sort   SortSpec
}

// Source fetches one page of items from the backend.
type Source[T any] func(ctx context.Context, req PageRequest) (Page[T], error)

// Config parameterizes a Viewer.
type Config[T any] struct {
	Source   Source[T]
	Columns  []Column[T]
	Mode     Mode
	PageSize int
	Sort     SortSpec
	// Order replaces column sorting when set.
	Order func(items []T, spec SortSpec) []T
	// Explain turns a fetch error into the message shown to the user, an
	// error kind label and whether a retry affordance is offered.
	Explain func(err error) (message, kind string, retry bool)
}

// View is the derived, display-ready state of a Viewer.
type View[T any] struct {
	Status      Status   `json:"status"`
	Items       []T      `json:"items"`
	Empty       bool     `json:"empty"`
	Total       int      `json:"total"`
	Page        int      `json:"page"`
	TotalPages  int      `json:"total_pages"`
	HasNext     bool     `json:"has_next"`
	HasPrevious bool     `json:"has_previous"`
	Sort        SortSpec `json:"sort"`
	Query       string   `json:"query,omitempty"`
	Message     string   `json:"message,omitempty"`
	ErrorKind   string   `json:"error_kind,omitempty"`
	Retry       bool     `json:"retry"`
	Err         error    `json:"-"`
}

// Viewer drives one paginated remote list. It is safe for concurrent use.
type Viewer[T any] struct {
	mu    sync.Mutex
	cfg   Config[T]
	state State[T]
	seq   uint64
}

func NewViewer[T any](cfg Config[T]) *Viewer[T] {
	if cfg.PageSize <= 0 {
		cfg.PageSize = pagination.DefaultPageSize
	}
	return &Viewer[T]{
		cfg:   cfg,
		state: State[T]{Sort: cfg.Sort, Page: 1},
	}
}

// Dispatch applies a non-fetch action.
func (v *Viewer[T]) Dispatch(a Action) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.state = Reduce(v.state, a)
}

// Load fetches the page addressed by the current cursor.
func (v *Viewer[T]) Load(ctx context.Context) error {
	v.mu.Lock()
	cursor := v.state.Cursors.Current()
	v.mu.Unlock()
	return v.fetch(ctx, cursor, MoveStay)
}

// Refresh re-fetches the current page.
func (v *Viewer[T]) Refresh(ctx context.Context) error {
	return v.Load(ctx)
}

// Next moves one page forward. In cursor mode the next page is fetched and
// the current cursor is pushed only once the fetch succeeds.
func (v *Viewer[T]) Next(ctx context.Context) error {
	v.mu.Lock()
	if v.cfg.Mode == OffsetMode {
		defer v.mu.Unlock()
		p := v.pagerLocked()
		if !p.HasNext() {
			return ErrNoNextPage
		}
		v.state = Reduce(v.state, PageChanged{Page: p.Page + 1})
		return nil
	}
	next := v.state.NextCursor
	v.mu.Unlock()

	if next == "" {
		return ErrNoNextPage
	}
	return v.fetch(ctx, next, MoveForward)
}

// Prev moves one page back. In cursor mode the previous cursor is popped from
// the stack and re-fetched.
func (v *Viewer[T]) Prev(ctx context.Context) error {
	v.mu.Lock()
	if v.cfg.Mode == OffsetMode {
		defer v.mu.Unlock()
		p := v.pagerLocked()
		if !p.HasPrevious() {
			return ErrNoPreviousPage
		}
		v.state = Reduce(v.state, PageChanged{Page: p.Page - 1})
		return nil
	}
	prev, ok := v.state.Cursors.Peek()
	v.mu.Unlock()

	if !ok {
		return ErrNoPreviousPage
	}
	return v.fetch(ctx, prev, MoveBack)
}

// GoTo jumps to a 1-based page in offset mode.
func (v *Viewer[T]) GoTo(page int) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.cfg.Mode != OffsetMode {
		return errors.New("page numbers are only available in offset mode")
	}
	p := v.pagerLocked()
	p.Page = page
	v.state = Reduce(v.state, PageChanged{Page: p.Clamp().Page})
	return nil
}

// SetSort changes the sort, returns to the first page and re-fetches.
func (v *Viewer[T]) SetSort(ctx context.Context, spec SortSpec) error {
	v.Dispatch(SortChanged{Sort: spec})
	return v.Load(ctx)
}

// SetQuery changes the free-text filter. Filtering is local to the loaded
// items, so no fetch is issued.
func (v *Viewer[T]) SetQuery(query string) {
	v.Dispatch(QueryChanged{Query: query})
}

// Edit applies a backend-confirmed change to the loaded items.
func (v *Viewer[T]) Edit(edit func(items []T) []T) {
	v.Dispatch(ItemsEdited[T]{Edit: edit})
}

// State returns a copy of the controller state.
func (v *Viewer[T]) State() State[T] {
	v.mu.Lock()
	defer v.mu.Unlock()
	s := v.state
	s.Cursors = v.state.Cursors.Clone()
	return s
}

// Snapshot derives the displayed view: filter, order, then page.
func (v *Viewer[T]) Snapshot() View[T] {
	v.mu.Lock()
	defer v.mu.Unlock()

	s := v.state
	view := View[T]{
		Status: s.Status,
		Sort:   s.Sort,
		Query:  s.Query,
		Page:   s.Page,
		Items:  []T{},
		Err:    s.Err,
	}
	if s.Status == StatusErrored {
		view.Message, view.ErrorKind, view.Retry = v.explain(s.Err)
		return view
	}

	derived := v.derivedLocked()
	view.Total = len(derived)

	if v.cfg.Mode == OffsetMode {
		p := v.pagerLocked()
		view.Page = p.Page
		view.TotalPages = p.TotalPages()
		view.HasNext = p.HasNext()
		view.HasPrevious = p.HasPrevious()
		view.Items = pagination.Window(derived, p.Page, p.PageSize)
	} else {
		view.Page = s.Cursors.Depth() + 1
		view.HasNext = s.NextCursor != ""
		view.HasPrevious = s.Cursors.HasPrevious()
		view.Items = derived
	}
	if view.Items == nil {
		view.Items = []T{}
	}
	view.Empty = s.Status == StatusLoaded && len(view.Items) == 0
	return view
}

func (v *Viewer[T]) fetch(ctx context.Context, cursor string, move Move) error {
	v.mu.Lock()
	v.seq++
	seq := v.seq
	v.state = Reduce(v.state, FetchStarted{Seq: seq})
	req := PageRequest{Cursor: cursor, Sort: v.state.Sort}
	v.mu.Unlock()

	page, err := v.cfg.Source(ctx, req)

	v.mu.Lock()
	defer v.mu.Unlock()
	if err != nil {
		v.state = Reduce(v.state, FetchFailed{Seq: seq, Err: err})
		return err
	}
	v.state = Reduce[T](v.state, FetchSucceeded[T]{Seq: seq, Page: page, Move: move, Cursor: cursor})
	return nil
}

func (v *Viewer[T]) explain(err error) (string, string, bool) {
	if err == nil {
		return "", "", false
	}
	if v.cfg.Explain != nil {
		return v.cfg.Explain(err)
	}
	return err.Error(), "", true
}

func (v *Viewer[T]) derivedLocked() []T {
	items := Filter(v.state.Items, v.state.Query, v.cfg.Columns)
	if v.cfg.Order != nil {
		return v.cfg.Order(items, v.state.Sort)
	}
	return Sort(items, v.state.Sort, v.cfg.Columns)
}

func (v *Viewer[T]) pagerLocked() pagination.Pager {
	total := len(Filter(v.state.Items, v.state.Query, v.cfg.Columns))
	return pagination.Pager{Page: v.state.Page, PageSize: v.cfg.PageSize, Total: total}.Clamp()
}
