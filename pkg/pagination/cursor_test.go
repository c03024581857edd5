package pagination

import "testing"

func TestCursorStack_StartsOnFirstPage(t *testing.T) {
	var s CursorStack
	if s.Current() != "" {
		t.Errorf("expected empty cursor, got %q", s.Current())
	}
	if s.HasPrevious() {
		t.Error("fresh stack should have no previous page")
	}
	if _, ok := s.Back(); ok {
		t.Error("Back on a fresh stack should fail")
	}
}

func TestCursorStack_NextThenPrevious(t *testing.T) {
	var s CursorStack
	s.Advance("c1")
	s.Advance("c2")

	if s.Current() != "c2" {
		t.Fatalf("expected current c2, got %q", s.Current())
	}
	if s.Depth() != 2 {
		t.Fatalf("expected depth 2, got %d", s.Depth())
	}

	prev, ok := s.Back()
	if !ok || prev != "c1" {
		t.Fatalf("expected back to c1, got %q ok=%v", prev, ok)
	}
	prev, ok = s.Back()
	if !ok || prev != "" {
		t.Fatalf("expected back to first page, got %q ok=%v", prev, ok)
	}
	if s.HasPrevious() {
		t.Error("expected no previous page after returning to the start")
	}
}

func TestCursorStack_PeekDoesNotPop(t *testing.T) {
	var s CursorStack
	s.Advance("c1")

	if prev, ok := s.Peek(); !ok || prev != "" {
		t.Fatalf("expected peek of first page, got %q ok=%v", prev, ok)
	}
	if s.Depth() != 1 {
		t.Errorf("Peek changed depth to %d", s.Depth())
	}
}

func TestCursorStack_Reset(t *testing.T) {
	var s CursorStack
	s.Advance("c1")
	s.Advance("c2")
	s.Reset()

	if s.Current() != "" || s.Depth() != 0 {
		t.Errorf("expected reset stack, got current=%q depth=%d", s.Current(), s.Depth())
	}
}

type cursorHolder struct {
	Cursors CursorStack
}

func snapshot(s CursorStack) cursorHolder { return cursorHolder{Cursors: s} }

func TestCursorStack_ReadableFromCopies(t *testing.T) {
	var s CursorStack
	s.Advance("c1")
	s.Advance("c2")

	// Read-only methods must work on non-addressable values such as a
	// field of a returned struct.
	if got := snapshot(s).Cursors.Current(); got != "c2" {
		t.Errorf("Current = %q, want c2", got)
	}
	if got := snapshot(s).Cursors.Depth(); got != 2 {
		t.Errorf("Depth = %d, want 2", got)
	}
	if !snapshot(s).Cursors.HasPrevious() {
		t.Error("HasPrevious = false, want true")
	}
	if prev, ok := snapshot(s).Cursors.Peek(); !ok || prev != "c1" {
		t.Errorf("Peek = %q, %v", prev, ok)
	}

	c := snapshot(s).Cursors.Clone()
	c.Back()
	if s.Current() != "c2" || s.Depth() != 2 {
		t.Error("Back on a clone changed the original")
	}
}
