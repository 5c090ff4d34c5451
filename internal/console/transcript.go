package console

import (
	"strings"
	"sync"
)

// Transcript applies ops to an in-memory list of lines. It keeps at most
// limit lines when limit is positive, dropping the oldest.
type Transcript struct {
	mu    sync.Mutex
	lines []string
	limit int
}

// NewTranscript returns a transcript bounded to limit lines (0 = unbounded).
func NewTranscript(limit int) *Transcript {
	return &Transcript{limit: limit}
}

// Apply implements Sink.
func (t *Transcript) Apply(ops []Op) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, op := range ops {
		if op.Kind == OpReplace && len(t.lines) > 0 {
			t.lines[len(t.lines)-1] = op.Text
			continue
		}
		t.lines = append(t.lines, op.Text)
	}
	if t.limit > 0 && len(t.lines) > t.limit {
		t.lines = append([]string(nil), t.lines[len(t.lines)-t.limit:]...)
	}
}

// Finish implements Sink.
func (t *Transcript) Finish() {}

// Lines returns a copy of the rendered lines.
func (t *Transcript) Lines() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.lines...)
}

// Tail returns the last n lines joined by newlines.
func (t *Transcript) Tail(n int) string {
	lines := t.Lines()
	if n > 0 && len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}

// Clear drops all lines.
func (t *Transcript) Clear() {
	t.mu.Lock()
	t.lines = nil
	t.mu.Unlock()
}
