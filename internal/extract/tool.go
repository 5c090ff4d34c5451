package extract

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"scribe/internal/services"
)

var (
	lookPath       = exec.LookPath
	knownLocations = defaultKnownLocations
)

// toolNames are tried on PATH in order.
var toolNames = []string{"7z", "7zz", "7za"}

// ResolveTool finds a 7-Zip executable. A non-empty override must point at an
// existing file. Otherwise PATH is searched, then the usual per-OS install
// locations.
func ResolveTool(override string) (string, error) {
	if override != "" {
		if info, err := os.Stat(override); err == nil && !info.IsDir() {
			return override, nil
		}
		return "", services.Wrap(services.ErrToolNotFound, "extract", "resolve tool",
			fmt.Sprintf("configured extractor %q does not exist", override), nil)
	}
	for _, name := range toolNames {
		if path, err := lookPath(name); err == nil {
			return path, nil
		}
	}
	for _, candidate := range knownLocations(runtime.GOOS) {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}
	return "", services.Wrap(services.ErrToolNotFound, "extract", "resolve tool", "7-Zip (7z) was not found on PATH or in standard locations", nil)
}

func defaultKnownLocations(goos string) []string {
	switch goos {
	case "windows":
		var out []string
		for _, env := range []string{"ProgramFiles", "ProgramFiles(x86)"} {
			if base := os.Getenv(env); base != "" {
				out = append(out, filepath.Join(base, "7-Zip", "7z.exe"))
			}
		}
		return out
	case "darwin":
		return []string{"/opt/homebrew/bin/7z", "/usr/local/bin/7z", "/opt/homebrew/bin/7zz"}
	default:
		return []string{"/usr/bin/7z", "/usr/lib/p7zip/7z", "/usr/local/bin/7z", "/snap/bin/7z"}
	}
}
