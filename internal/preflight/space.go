package preflight

import (
	"os"
	"path/filepath"
)

// FreeBytes returns the space available to unprivileged users on the
// filesystem holding path. Missing trailing components are skipped so the
// check works before the directory is created.
func FreeBytes(path string) (uint64, error) {
	dir := filepath.Clean(path)
	for {
		if _, err := os.Stat(dir); err == nil {
			break
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return statFree(dir)
}
