package console

import "bytes"

// OpKind is the type of a line edit.
type OpKind int

const (
	// OpAppend adds a new line below the last rendered one.
	OpAppend OpKind = iota
	// OpReplace rewrites the last rendered line in place.
	OpReplace
)

func (k OpKind) String() string {
	if k == OpReplace {
		return "replace"
	}
	return "append"
}

// Op is one rendering operation.
type Op struct {
	Kind OpKind
	Text string
}

// Renderer splits a byte stream on line breaks. A line terminated by a bare
// carriage return puts the renderer in overwrite mode, so the following line
// replaces it instead of being appended. The zero value is ready to use.
//
// The sequence of ops depends only on the concatenated input, never on how
// it was split across Feed calls.
type Renderer struct {
	pending   []byte
	overwrite bool
}

// Feed consumes a chunk and returns the ops for every line it completes.
// A carriage return at the very end of the buffered data is held back until
// the next byte shows whether it starts a CRLF pair.
func (r *Renderer) Feed(chunk []byte) []Op {
	r.pending = append(r.pending, chunk...)
	var ops []Op
	start := 0
	for {
		idx := bytes.IndexAny(r.pending[start:], "\r\n")
		if idx < 0 {
			break
		}
		pos := start + idx
		next := pos + 1
		carriage := r.pending[pos] == '\r'
		if carriage {
			if next == len(r.pending) {
				break
			}
			if r.pending[next] == '\n' {
				carriage = false
				next++
			}
		}
		ops = append(ops, r.emit(string(r.pending[start:pos])))
		r.overwrite = carriage
		start = next
	}
	r.compact(start)
	return ops
}

// Flush emits any unterminated tail as a final line and leaves overwrite
// mode, as at end of stream.
func (r *Renderer) Flush() []Op {
	tail := bytes.TrimSuffix(r.pending, []byte{'\r'})
	var ops []Op
	if len(tail) > 0 {
		ops = append(ops, r.emit(string(tail)))
	}
	r.pending = r.pending[:0]
	r.overwrite = false
	return ops
}

// Release resolves a held trailing carriage return as a bare one: the
// buffered line is emitted and the next line will replace it.
func (r *Renderer) Release() []Op {
	n := len(r.pending)
	if n == 0 || r.pending[n-1] != '\r' {
		return nil
	}
	op := r.emit(string(r.pending[:n-1]))
	r.pending = r.pending[:0]
	r.overwrite = true
	return []Op{op}
}

// Reset discards buffered text and overwrite state before a new session.
func (r *Renderer) Reset() {
	r.pending = nil
	r.overwrite = false
}

func (r *Renderer) emit(line string) Op {
	if r.overwrite {
		return Op{Kind: OpReplace, Text: line}
	}
	return Op{Kind: OpAppend, Text: line}
}

func (r *Renderer) compact(consumed int) {
	if consumed == 0 {
		return
	}
	n := copy(r.pending, r.pending[consumed:])
	r.pending = r.pending[:n]
}
