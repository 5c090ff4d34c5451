package console

import (
	"strings"
	"sync"
)

// Sink receives rendered ops.
type Sink interface {
	Apply(ops []Op)
	// Finish is called at end of stream, after the final ops.
	Finish()
}

// Separator is the rule printed around task output.
var Separator = strings.Repeat("=", 50)

// Console feeds text through one Renderer and fans the ops out to sinks.
// It is safe for concurrent use; stdout and stderr of a session share the
// same render buffer.
type Console struct {
	mu       sync.Mutex
	renderer Renderer
	sinks    []Sink
}

// New creates a console writing to sinks.
func New(sinks ...Sink) *Console {
	return &Console{sinks: sinks}
}

// Attach adds a sink. Ops rendered before the call are not replayed.
func (c *Console) Attach(s Sink) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sinks = append(c.sinks, s)
}

// Write implements io.Writer over raw output bytes.
func (c *Console) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.apply(c.renderer.Feed(p))
	return len(p), nil
}

// Line writes text followed by a newline.
func (c *Console) Line(text string) {
	_, _ = c.Write([]byte(text + "\n"))
}

// Progress renders text immediately as a line the next line overwrites.
func (c *Console) Progress(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ops := c.renderer.Feed([]byte(text + "\r"))
	c.apply(append(ops, c.renderer.Release()...))
}

// Flush renders any buffered tail and ends the current line.
func (c *Console) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.apply(c.renderer.Flush())
	for _, s := range c.sinks {
		s.Finish()
	}
}

// Reset clears render state for a new session. Buffered text is dropped.
func (c *Console) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.renderer.Reset()
}

func (c *Console) apply(ops []Op) {
	if len(ops) == 0 {
		return
	}
	for _, s := range c.sinks {
		s.Apply(ops)
	}
}
