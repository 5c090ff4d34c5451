package process

import (
	"bytes"
	"sync/atomic"
)

// markerScanner looks for any of a fixed set of markers in a byte stream
// delivered in arbitrary chunks. It keeps the trailing bytes of the previous
// chunk so a marker split across a chunk boundary is still found.
type markerScanner struct {
	markers [][]byte
	keep    int
	tail    []byte
	seen    *atomic.Bool
}

func newMarkerScanner(markers []string, seen *atomic.Bool) *markerScanner {
	s := &markerScanner{seen: seen}
	for _, m := range markers {
		if m == "" {
			continue
		}
		s.markers = append(s.markers, []byte(m))
		if len(m)-1 > s.keep {
			s.keep = len(m) - 1
		}
	}
	return s
}

func (s *markerScanner) scan(chunk []byte) {
	if len(s.markers) == 0 || s.seen.Load() {
		return
	}
	window := append(s.tail, chunk...)
	for _, m := range s.markers {
		if bytes.Contains(window, m) {
			s.seen.Store(true)
			s.tail = nil
			return
		}
	}
	if len(window) > s.keep {
		window = window[len(window)-s.keep:]
	}
	s.tail = append(s.tail[:0:0], window...)
}
