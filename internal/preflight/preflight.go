package preflight

import (
	"context"

	"scribe/internal/config"
)

// BootstrapSpace is the free space recommended before provisioning the
// transcription binary: the archive plus its extracted contents.
const BootstrapSpace uint64 = 5 << 30

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes the filesystem checks for the given config. When
// checkRelease is set the release archive URL for the running OS is checked
// as well.
func RunAll(ctx context.Context, cfg *config.Config, checkRelease bool) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Install directory", cfg.Paths.InstallDir),
		CheckDirectoryAccess("State directory", cfg.Paths.StateDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckFreeSpace("Free space", cfg.Paths.StateDir, BootstrapSpace),
	}
	if checkRelease {
		results = append(results, CheckReleaseURL(ctx, cfg))
	}
	return results
}
