// Package deps reports on and locates the external executables scribe drives.
package deps

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Tool names an external executable and what scribe uses it for.
type Tool struct {
	Name     string
	Purpose  string
	Optional bool
}

// Status is the outcome of probing a Tool. Path is the resolved executable
// when found, otherwise the command that was searched for.
type Status struct {
	Tool
	Path  string
	Found bool
	// Detail explains a failed lookup.
	Detail string
}

// Check resolves command through PATH (or as a path, if it contains a
// separator).
func Check(tool Tool, command string) Status {
	command = strings.TrimSpace(command)
	st := Status{Tool: tool, Path: command}
	if command == "" {
		st.Detail = "command not configured"
		return st
	}
	resolved, err := exec.LookPath(command)
	if err != nil {
		st.Detail = fmt.Sprintf("%q not found", command)
		return st
	}
	st.Path, st.Found = resolved, true
	return st
}

// CheckSidecar looks for base next to primary first and falls back to PATH.
// faster-whisper-xxl releases ship ffmpeg beside the transcriber, and the
// transcriber prefers that copy.
func CheckSidecar(tool Tool, primary, base string) Status {
	name := ExecutableName(base)
	if primary = strings.TrimSpace(primary); primary != "" {
		if resolved, err := exec.LookPath(primary); err == nil {
			beside := filepath.Join(filepath.Dir(resolved), name)
			if info, err := os.Stat(beside); err == nil && isExecutable(info) {
				return Status{Tool: tool, Path: beside, Found: true}
			}
		}
	}
	return Check(tool, name)
}
