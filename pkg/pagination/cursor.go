package pagination

// CursorStack tracks cursor navigation for endpoints that only hand out a
// forward cursor. The empty cursor addresses the first page.
type CursorStack struct {
	current string
	history []string
}

// Current returns the cursor of the page on display.
func (s CursorStack) Current() string {
	return s.current
}

// Advance records that the page addressed by next is now on display. The
// previous cursor is pushed so Back can return to it.
func (s *CursorStack) Advance(next string) {
	s.history = append(s.history, s.current)
	s.current = next
}

// Peek returns the cursor Back would restore without changing the stack.
func (s CursorStack) Peek() (string, bool) {
	if len(s.history) == 0 {
		return "", false
	}
	return s.history[len(s.history)-1], true
}

// Back pops the previous cursor and makes it current.
func (s *CursorStack) Back() (string, bool) {
	prev, ok := s.Peek()
	if !ok {
		return "", false
	}
	s.history = s.history[:len(s.history)-1]
	s.current = prev
	return prev, true
}

// HasPrevious reports whether Back would succeed.
func (s CursorStack) HasPrevious() bool {
	return len(s.history) > 0
}

// Depth returns the number of pages behind the current one.
func (s CursorStack) Depth() int {
	return len(s.history)
}

// Reset returns to the first page and forgets the history.
func (s *CursorStack) Reset() {
	s.current = ""
	s.history = nil
}

// Clone returns an independent copy of the stack.
func (s CursorStack) Clone() CursorStack {
	return CursorStack{current: s.current, history: append([]string(nil), s.history...)}
}
