package settings

import (
	"log/slog"
	"sync"
	"time"

	"github.com/bep/debounce"

	"scribe/internal/logging"
)

// DefaultSyncDelay batches changes made in quick succession into one write.
const DefaultSyncDelay = 300 * time.Millisecond

// Syncer persists the newest published snapshot once changes go quiet.
type Syncer struct {
	store       *Store
	logger      *slog.Logger
	debounced   func(func())
	unsubscribe func()

	mu     sync.Mutex
	latest *Settings

	saveMu sync.Mutex
}

// NewSyncer subscribes to m and writes through store after delay.
func NewSyncer(m *Manager, store *Store, delay time.Duration, logger *slog.Logger) *Syncer {
	if delay <= 0 {
		delay = DefaultSyncDelay
	}
	s := &Syncer{
		store:     store,
		logger:    logging.NewComponentLogger(logger, "settings_sync"),
		debounced: debounce.New(delay),
	}
	s.unsubscribe = m.Subscribe(s.onChange)
	return s
}

func (s *Syncer) onChange(c Change) {
	snap := c.Snapshot.Clone()
	s.mu.Lock()
	s.latest = &snap
	s.mu.Unlock()
	s.debounced(func() {
		if err := s.persist(); err != nil {
			logging.ErrorWithContext(s.logger, "settings save failed", "settings_save_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check the settings directory is writable"),
			)
		}
	})
}

// Flush writes any pending snapshot now.
func (s *Syncer) Flush() error {
	return s.persist()
}

// Close stops listening and flushes.
func (s *Syncer) Close() error {
	s.unsubscribe()
	return s.persist()
}

func (s *Syncer) persist() error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	s.mu.Lock()
	snap := s.latest
	s.latest = nil
	s.mu.Unlock()
	if snap == nil {
		return nil
	}
	return s.store.Save(*snap)
}
