package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

type failingHandler struct{ slog.Handler }

func (failingHandler) Handle(context.Context, slog.Record) error { return errors.New("disk full") }

func TestRouterAppliesPerRouteMinimum(t *testing.T) {
	var file, stderr bytes.Buffer
	logger := slog.New(newRouter(
		route{handler: newTextHandler(&file, slog.LevelDebug, false, false)},
		route{handler: newTextHandler(&stderr, slog.LevelDebug, true, false), min: slog.LevelWarn},
	)).With(String(FieldComponent, "coordinator"))

	logger.Debug("state changed", String("state", "transcribing"))
	logger.Error("run failed")

	if got := strings.Count(file.String(), "\n"); got != 2 {
		t.Fatalf("file lines = %d, want 2: %q", got, file.String())
	}
	if strings.Contains(stderr.String(), "state changed") {
		t.Fatalf("debug leaked to stderr: %q", stderr.String())
	}
	if !strings.Contains(stderr.String(), "scribe: ERROR [coordinator] run failed") {
		t.Fatalf("missing error on stderr: %q", stderr.String())
	}
}

func TestRouterKeepsDeliveringAfterError(t *testing.T) {
	var buf bytes.Buffer
	text := newTextHandler(&buf, slog.LevelInfo, false, false)
	h := newRouter(route{handler: failingHandler{text}}, route{handler: text})

	rec := slog.NewRecord(time.Time{}, slog.LevelInfo, "hello", 0)
	if err := h.Handle(context.Background(), rec); err == nil {
		t.Fatal("expected first handler error")
	}
	if !strings.Contains(buf.String(), "hello") {
		t.Fatalf("second route not reached: %q", buf.String())
	}
}

func TestRouterWithoutRoutesDiscards(t *testing.T) {
	h := newRouter(route{})
	if h.Enabled(context.Background(), slog.LevelError) {
		t.Fatal("empty router should be disabled")
	}
}
