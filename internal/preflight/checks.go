package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"runtime"
	"time"

	"github.com/dustin/go-humanize"

	"scribe/internal/config"
	"scribe/internal/deps"
	"scribe/internal/extract"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := checkAccess(path); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckFreeSpace reports whether the filesystem holding path (or its nearest
// existing parent) has at least need bytes available.
func CheckFreeSpace(name, path string, need uint64) Result {
	free, err := FreeBytes(path)
	if err != nil {
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("unknown (%v)", err)}
	}
	detail := fmt.Sprintf("%s available at %s", humanize.IBytes(free), path)
	if free < need {
		return Result{Name: name, Detail: fmt.Sprintf("%s; %s recommended", detail, humanize.IBytes(need))}
	}
	return Result{Name: name, Passed: true, Detail: detail}
}

// CheckReleaseURL issues a HEAD request against the release archive for the
// running OS. It uses a 10-second timeout and a single attempt.
func CheckReleaseURL(ctx context.Context, cfg *config.Config) Result {
	const name = "Release archive"

	url, err := cfg.ArchiveURL(runtime.GOOS)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(checkCtx, http.MethodHead, url, nil)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("bad url (%v)", err)}
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return Result{Name: name, Detail: summarizeNetError(err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Result{Name: name, Detail: fmt.Sprintf("unavailable (%s)", resp.Status)}
	}
	if resp.ContentLength > 0 {
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("reachable (%s)", humanize.IBytes(uint64(resp.ContentLength)))}
	}
	return Result{Name: name, Passed: true, Detail: "reachable"}
}

// CheckSystemDeps evaluates the external executables for the given config.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	transcriber := deps.Locate(cfg.Paths.InstallDir, cfg.Tools.Transcriber, []string{cfg.Tools.Transcriber, cfg.Tools.FFmpeg})

	sevenZip := deps.Status{Tool: deps.Tool{Name: "7-Zip", Purpose: "Unpacks the release archive during 'scribe setup'"}}
	if tool, err := extract.ResolveTool(cfg.Bootstrap.ExtractorPath); err == nil {
		sevenZip.Path, sevenZip.Found = tool, true
	} else {
		sevenZip.Detail = err.Error()
	}

	return []deps.Status{
		deps.Check(deps.Tool{Name: "faster-whisper-xxl", Purpose: "Transcribes media (install with 'scribe setup')"}, transcriber.Executable),
		deps.CheckSidecar(deps.Tool{Name: "FFmpeg", Purpose: "Decodes media for faster-whisper-xxl"}, transcriber.Executable, cfg.Tools.FFmpeg),
		sevenZip,
		deps.Check(deps.Tool{Name: "yt-dlp", Purpose: "Downloads media for 'scribe fetch'", Optional: true}, cfg.Tools.YtDlp),
	}
}

func summarizeNetError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "request timed out"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "request timed out (host unreachable)"
	}
	return err.Error()
}
