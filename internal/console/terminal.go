package console

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/mattn/go-runewidth"
	"golang.org/x/term"
)

const eraseLine = "\r\x1b[2K"

// TerminalSink draws ops on a writer. On an interactive terminal a Replace
// rewrites the current line in place and every line is clipped to the
// terminal width so an overwrite never wraps. Elsewhere each op becomes its
// own output line.
type TerminalSink struct {
	w           io.Writer
	interactive bool
	width       func() int
	open        bool
}

// NewTerminalSink inspects w and returns a sink for it.
func NewTerminalSink(w io.Writer) *TerminalSink {
	s := &TerminalSink{w: w, width: func() int { return 0 }}
	if f, ok := w.(*os.File); ok {
		fd := f.Fd()
		if isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd) {
			s.interactive = true
			s.width = func() int {
				cols, _, err := term.GetSize(int(fd))
				if err != nil {
					return 0
				}
				return cols
			}
		}
	}
	return s
}

// Apply implements Sink.
func (s *TerminalSink) Apply(ops []Op) {
	for _, op := range ops {
		if !s.interactive {
			_, _ = io.WriteString(s.w, op.Text+"\n")
			continue
		}
		text := s.clip(op.Text)
		switch {
		case op.Kind == OpReplace:
			_, _ = io.WriteString(s.w, eraseLine+text)
		case s.open:
			_, _ = io.WriteString(s.w, "\n"+text)
		default:
			_, _ = io.WriteString(s.w, text)
		}
		s.open = true
	}
}

// Finish terminates the line left open by the last op.
func (s *TerminalSink) Finish() {
	if s.interactive && s.open {
		_, _ = io.WriteString(s.w, "\n")
	}
	s.open = false
}

func (s *TerminalSink) clip(text string) string {
	width := s.width()
	if width <= 1 {
		return text
	}
	return clipToWidth(text, width-1)
}

func clipToWidth(text string, width int) string {
	if runewidth.StringWidth(text) <= width {
		return text
	}
	return runewidth.Truncate(text, width, "")
}
