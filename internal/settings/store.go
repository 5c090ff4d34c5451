package settings

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sync"

	"github.com/pelletier/go-toml/v2"

	"scribe/internal/fileutil"
	"scribe/internal/logging"
)

// Store reads and writes the settings document at one path.
type Store struct {
	path   string
	logger *slog.Logger
	mu     sync.Mutex
}

// NewStore returns a store for path.
func NewStore(path string, logger *slog.Logger) *Store {
	return &Store{path: path, logger: logging.NewComponentLogger(logger, "settings")}
}

// Path returns the document location.
func (s *Store) Path() string { return s.path }

// Load never fails: a missing or unreadable document yields defaults, and
// invalid individual values are replaced by their defaults.
func (s *Store) Load() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := Default()
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logging.WarnWithContext(s.logger, "settings unreadable; using defaults", "settings_read_failed",
				logging.String("path", s.path),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check file permissions"),
			)
		}
		return out
	}
	if err := toml.Unmarshal(data, &out); err != nil {
		logging.WarnWithContext(s.logger, "settings malformed; using defaults", "settings_parse_failed",
			logging.String("path", s.path),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "fix or delete the settings file"),
		)
		return Default()
	}
	if reset := out.sanitize(); len(reset) > 0 {
		s.logger.Warn("settings values out of range; defaults restored",
			logging.String("path", s.path),
			logging.Any("keys", reset),
		)
	}
	return out
}

// Save writes a snapshot atomically. A reader sees either the previous
// document or the new one.
func (s *Store) Save(settings Settings) error {
	data, err := toml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := fileutil.WriteFileAtomic(s.path, data, 0o644); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	s.logger.Debug("settings saved", logging.String("path", s.path))
	return nil
}
