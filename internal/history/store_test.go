package history

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"scribe/internal/testsupport"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := OpenPath(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("OpenPath: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func fixedClock(start time.Time) func() time.Time {
	current := start
	return func() time.Time {
		current = current.Add(1500 * time.Millisecond)
		return current
	}
}

func TestBeginFinishRoundTrip(t *testing.T) {
	store := openTestStore(t)
	store.now = fixedClock(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
	ctx := context.Background()

	run, err := store.Begin(ctx, KindTranscribe, "/media/talk.mp3")
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if run.ID == "" || run.Status != StatusRunning {
		t.Fatalf("unexpected run %+v", run)
	}

	code := 0
	run.Status = StatusSucceeded
	run.ExitCode = &code
	run.Detail = "Process completed successfully."
	run.Output = "/out/talk.srt"
	if err := store.Finish(ctx, run); err != nil {
		t.Fatalf("Finish: %v", err)
	}

	got, err := store.Get(ctx, run.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Kind != KindTranscribe || got.Input != "/media/talk.mp3" || got.Status != StatusSucceeded {
		t.Fatalf("stored run = %+v", got)
	}
	if got.ExitCode == nil || *got.ExitCode != 0 {
		t.Fatalf("exit code = %v", got.ExitCode)
	}
	if got.Duration() != 1500*time.Millisecond {
		t.Fatalf("duration = %v", got.Duration())
	}
	if got.Output != "/out/talk.srt" || got.Detail != run.Detail {
		t.Fatalf("detail/output lost: %+v", got)
	}
}

func TestFinishRejectsNonTerminalAndUnknown(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	run, err := store.Begin(ctx, KindBootstrap, "")
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := store.Finish(ctx, run); err == nil {
		t.Fatal("expected error for running status")
	}
	ghost := &Run{ID: "missing", Status: StatusFailed}
	if err := store.Finish(ctx, ghost); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if _, err := store.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get err = %v, want ErrNotFound", err)
	}
}

func TestListNewestFirstWithLimit(t *testing.T) {
	store := openTestStore(t)
	store.now = fixedClock(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
	ctx := context.Background()
	var ids []string
	for _, input := range []string{"a", "b", "c"} {
		run, err := store.Begin(ctx, KindFetch, input)
		if err != nil {
			t.Fatalf("Begin: %v", err)
		}
		ids = append(ids, run.ID)
	}
	runs, err := store.List(ctx, 2)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != ids[2] || runs[1].ID != ids[1] {
		t.Fatalf("unexpected order: %+v", runs)
	}
	all, err := store.List(ctx, 0)
	if err != nil || len(all) != 3 {
		t.Fatalf("List all = %d, %v", len(all), err)
	}
}

func TestClearAndMarkAbandoned(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	if _, err := store.Begin(ctx, KindTranscribe, "x"); err != nil {
		t.Fatal(err)
	}
	done, err := store.Begin(ctx, KindTranscribe, "y")
	if err != nil {
		t.Fatal(err)
	}
	done.Status = StatusCancelled
	if err := store.Finish(ctx, done); err != nil {
		t.Fatal(err)
	}

	n, err := store.MarkAbandoned(ctx)
	if err != nil || n != 1 {
		t.Fatalf("MarkAbandoned = %d, %v", n, err)
	}
	runs, _ := store.List(ctx, 0)
	for _, r := range runs {
		if r.Status == StatusRunning {
			t.Fatalf("run %s still running", r.ID)
		}
	}

	cleared, err := store.Clear(ctx)
	if err != nil || cleared != 2 {
		t.Fatalf("Clear = %d, %v", cleared, err)
	}
}

func TestOpenFromConfigAndReopen(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store, err := Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if store.Path() != cfg.HistoryPath() {
		t.Fatalf("path = %s, want %s", store.Path(), cfg.HistoryPath())
	}
	if _, err := store.Begin(context.Background(), KindBootstrap, ""); err != nil {
		t.Fatal(err)
	}
	_ = store.Close()

	reopened, err := Open(cfg)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	runs, err := reopened.List(context.Background(), 0)
	if err != nil || len(runs) != 1 {
		t.Fatalf("runs after reopen = %d, %v", len(runs), err)
	}
}

func TestSchemaMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := OpenPath(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.db.Exec("PRAGMA user_version = 99"); err != nil {
		t.Fatal(err)
	}
	_ = store.Close()
	if _, err := OpenPath(path); !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("err = %v, want ErrSchemaMismatch", err)
	}
}

func TestRetryOnBusy(t *testing.T) {
	attempts := 0
	err := retryOnBusy(context.Background(), func() error {
		attempts++
		if attempts < 3 {
			return errors.New("database is locked (SQLITE_BUSY)")
		}
		return nil
	})
	if err != nil || attempts != 3 {
		t.Fatalf("attempts = %d, err = %v", attempts, err)
	}
	attempts = 0
	boom := errors.New("constraint failed")
	if err := retryOnBusy(context.Background(), func() error { attempts++; return boom }); !errors.Is(err, boom) || attempts != 1 {
		t.Fatalf("non-busy error retried: attempts=%d err=%v", attempts, err)
	}
}

func TestLookupByPrefix(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	a, err := store.Begin(ctx, KindFetch, "https://example.com/a")
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	b, err := store.Begin(ctx, KindFetch, "https://example.com/b")
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}

	got, err := store.Lookup(ctx, a.ID[:8])
	if err != nil || got.ID != a.ID {
		t.Fatalf("Lookup(%s) = %v, %v", a.ID[:8], got, err)
	}
	if got, err := store.Lookup(ctx, b.ID); err != nil || got.Input != b.Input {
		t.Fatalf("Lookup full id = %v, %v", got, err)
	}
	if _, err := store.Lookup(ctx, ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("empty prefix: %v", err)
	}
	if _, err := store.Lookup(ctx, "zz"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown prefix: %v", err)
	}
	if _, err := store.Lookup(ctx, "%"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("wildcard prefix: %v", err)
	}

	for _, id := range []string{"abc-1", "abc-2"} {
		if _, err := store.db.Exec(`INSERT INTO runs (id, kind, status, started_at) VALUES (?, 'fetch', 'running', '')`, id); err != nil {
			t.Fatalf("insert %s: %v", id, err)
		}
	}
	if _, err := store.Lookup(ctx, "abc"); !errors.Is(err, ErrAmbiguous) {
		t.Fatalf("shared prefix: %v", err)
	}
}
