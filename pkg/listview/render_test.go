package listview

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

func loadedView(items ...record) View[record] {
	return View[record]{Status: StatusLoaded, Items: items, Page: 1, TotalPages: 1}
}

func TestRender_Loading(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, View[record]{Status: StatusLoading}, recordColumns(), RenderOptions{SkeletonRows: 2}); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 || !strings.Contains(lines[0], "░") {
		t.Errorf("expected two skeleton rows, got %q", buf.String())
	}
}

func TestRender_ErrorWithRetry(t *testing.T) {
	var buf bytes.Buffer
	view := View[record]{Status: StatusErrored, Message: "Unable to reach the server.", Retry: true}
	Render(&buf, view, recordColumns(), RenderOptions{})

	out := buf.String()
	if !strings.Contains(out, "Error: Unable to reach the server.") || !strings.Contains(out, "Try again") {
		t.Errorf("unexpected error rendering %q", out)
	}
}

func TestRender_ErrorWithoutRetry(t *testing.T) {
	var buf bytes.Buffer
	view := View[record]{Status: StatusErrored, Err: errors.New("forbidden")}
	Render(&buf, view, recordColumns(), RenderOptions{})

	if strings.Contains(buf.String(), "Try again") {
		t.Errorf("retry affordance shown for non-retryable error: %q", buf.String())
	}
	if !strings.Contains(buf.String(), "forbidden") {
		t.Errorf("expected raw error text, got %q", buf.String())
	}
}

func TestRender_Empty(t *testing.T) {
	var buf bytes.Buffer
	view := View[record]{Status: StatusLoaded, Empty: true, Items: []record{}}
	Render(&buf, view, recordColumns(), RenderOptions{EmptyMessage: "No feedback yet."})

	if strings.TrimSpace(buf.String()) != "No feedback yet." {
		t.Errorf("unexpected empty rendering %q", buf.String())
	}
}

func TestRender_Table(t *testing.T) {
	var buf bytes.Buffer
	view := loadedView(record{Name: "Asha", Email: "asha@uni.edu", Score: 5})
	view.HasNext = true
	Render(&buf, view, recordColumns(), RenderOptions{Width: 120})

	out := buf.String()
	for _, want := range []string{"NAME", "EMAIL", "Asha", "asha@uni.edu", "[n]ext", "Page 1 of 1"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
}

func TestRender_CondensedCollapsedAndExpanded(t *testing.T) {
	view := loadedView(
		record{Name: "Asha", Email: "asha@uni.edu", Score: 5},
		record{Name: "Ben", Email: "ben@uni.edu", Score: 3},
	)
	expanded := map[int]bool{}
	opts := RenderOptions{Width: 40, Expanded: expanded}

	var buf bytes.Buffer
	Render(&buf, view, recordColumns(), opts)
	if strings.Contains(buf.String(), "asha@uni.edu") {
		t.Errorf("secondary field shown while collapsed:\n%s", buf.String())
	}
	if !strings.Contains(buf.String(), "[+] 1. Asha · 5") {
		t.Errorf("unexpected card line:\n%s", buf.String())
	}

	ToggleRow(expanded, 1)
	buf.Reset()
	Render(&buf, view, recordColumns(), opts)
	out := buf.String()
	if !strings.Contains(out, "[-] 1. Asha") || !strings.Contains(out, "Email: asha@uni.edu") {
		t.Errorf("expanded row missing secondary fields:\n%s", out)
	}
	if strings.Contains(out, "ben@uni.edu") {
		t.Errorf("row 2 should stay collapsed:\n%s", out)
	}

	ToggleRow(expanded, 1)
	if expanded[1] {
		t.Error("second toggle should collapse the row")
	}
}

func TestRenderOptions_Condensed(t *testing.T) {
	tests := []struct {
		opts RenderOptions
		want bool
	}{
		{RenderOptions{}, false},
		{RenderOptions{Width: 79}, true},
		{RenderOptions{Width: 80}, false},
		{RenderOptions{Width: 100, Breakpoint: 120}, true},
	}
	for _, tt := range tests {
		if got := tt.opts.Condensed(); got != tt.want {
			t.Errorf("Condensed(%+v) = %v, want %v", tt.opts, got, tt.want)
		}
	}
}

func TestBrowse_ScriptedSession(t *testing.T) {
	b := newCursorBackend(2, 2)
	v := newCursorViewer(b)
	in := strings.NewReader("n\np\np\n/ p0-1\nq\n")
	var out bytes.Buffer
	inputs := 0

	err := Browse(context.Background(), v, recordColumns(), in, &out, BrowseOptions{
		Render:  RenderOptions{Width: 120},
		OnInput: func() { inputs++ },
	})
	if err != nil {
		t.Fatalf("Browse: %v", err)
	}
	if inputs != 5 {
		t.Errorf("expected 5 inputs, got %d", inputs)
	}
	s := out.String()
	if !strings.Contains(s, "p1-0") {
		t.Errorf("second page never shown:\n%s", s)
	}
	if !strings.Contains(s, "Already on the first page.") {
		t.Errorf("expected first-page notice:\n%s", s)
	}
	if v.Snapshot().Total != 1 {
		t.Errorf("expected filter to leave one row, got %d", v.Snapshot().Total)
	}
}

func TestBrowse_StopsOnCancel(t *testing.T) {
	v := newCursorViewer(newCursorBackend(1, 1))
	cause := errors.New("session idle")
	ctx, cancel := context.WithCancelCause(context.Background())
	cancel(cause)

	pr, pw := io.Pipe()
	defer pw.Close()

	var out bytes.Buffer
	err := Browse(ctx, v, recordColumns(), pr, &out, BrowseOptions{})
	if !errors.Is(err, cause) {
		t.Errorf("expected cancellation cause, got %v", err)
	}
}
