package deps

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
)

// Source records where a located executable was found.
type Source string

const (
	SourceInstallDir Source = "install_dir"
	SourcePath       Source = "path"
	SourceMissing    Source = "missing"
)

// Location is the result of Locate.
type Location struct {
	Executable string
	Source     Source
	// Missing lists required files absent from the install directory.
	Missing []string
}

// Found reports whether a runnable executable was located.
func (l Location) Found() bool {
	return l.Source != SourceMissing
}

// ExecutableName appends the platform executable suffix to base.
func ExecutableName(base string) string {
	if runtime.GOOS == "windows" && filepath.Ext(base) != ".exe" {
		return base + ".exe"
	}
	return base
}

// Locate looks for executable inside installDir, requiring every name in
// required to be present there as well. When the install directory is
// incomplete it falls back to resolving executable from PATH.
func Locate(installDir, executable string, required []string) Location {
	name := ExecutableName(executable)
	var missing []string
	if installDir != "" {
		for _, base := range required {
			file := ExecutableName(base)
			info, err := os.Stat(filepath.Join(installDir, file))
			if err != nil || !isExecutable(info) {
				missing = append(missing, file)
			}
		}
		if len(missing) == 0 {
			return Location{Executable: filepath.Join(installDir, name), Source: SourceInstallDir}
		}
	}
	if resolved, err := exec.LookPath(name); err == nil {
		return Location{Executable: resolved, Source: SourcePath, Missing: missing}
	}
	if installDir == "" {
		missing = []string{name}
	}
	return Location{Executable: name, Source: SourceMissing, Missing: missing}
}

func isExecutable(info os.FileInfo) bool {
	if info == nil || info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0o111 != 0
}
