package extract

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"scribe/internal/services"
)

// stubExecutor materializes files into the -o directory instead of running 7-Zip.
type stubExecutor struct {
	files    map[string]string
	exitCode int
	stderr   string
	err      error
	calls    int
	args     []string
	ctxErr   error
}

func (s *stubExecutor) Run(ctx context.Context, binary string, args []string) (Output, error) {
	s.calls++
	s.args = append([]string(nil), args...)
	s.ctxErr = ctx.Err()
	if s.err != nil {
		return Output{}, s.err
	}
	var outDir string
	for _, arg := range args {
		if strings.HasPrefix(arg, "-o") {
			outDir = strings.TrimPrefix(arg, "-o")
		}
	}
	for name, body := range s.files {
		path := filepath.Join(outDir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return Output{}, err
		}
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			return Output{}, err
		}
	}
	return Output{ExitCode: s.exitCode, Stderr: s.stderr}, nil
}

type fixture struct {
	tool     string
	archive  string
	dest     string
	tempRoot string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	base := t.TempDir()
	f := fixture{
		tool:     filepath.Join(base, "7z"),
		archive:  filepath.Join(base, "fw.7z"),
		dest:     filepath.Join(base, "install"),
		tempRoot: filepath.Join(base, "tmp"),
	}
	for _, path := range []string{f.tool, f.archive} {
		if err := os.WriteFile(path, []byte("x"), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.MkdirAll(f.tempRoot, 0o755); err != nil {
		t.Fatal(err)
	}
	return f
}

func (f fixture) extractor(exec Executor) *Extractor {
	return New(f.tool, WithExecutor(exec), WithTempRoot(f.tempRoot))
}

func assertTempClean(t *testing.T, f fixture) {
	t.Helper()
	entries, err := os.ReadDir(f.tempRoot)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected temp dir removed, found %d entries", len(entries))
	}
	if _, err := os.Stat(f.archive); !os.IsNotExist(err) {
		t.Fatalf("expected archive removed, stat err=%v", err)
	}
}

var expected = []string{"faster-whisper-xxl", "ffmpeg"}

func TestExtractFromWrapperDirectory(t *testing.T) {
	f := newFixture(t)
	exec := &stubExecutor{files: map[string]string{
		"Faster-Whisper-XXL/faster-whisper-xxl":  "bin",
		"Faster-Whisper-XXL/ffmpeg":              "ff",
		"Faster-Whisper-XXL/_xxl_data/model.bin": "m",
	}}
	if err := os.MkdirAll(filepath.Join(f.dest, "_xxl_data", "stale"), 0o755); err != nil {
		t.Fatal(err)
	}

	if err := f.extractor(exec).Extract(context.Background(), f.archive, expected, f.dest); err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(exec.args) != 4 || exec.args[0] != "x" || exec.args[1] != f.archive || !strings.HasPrefix(exec.args[2], "-o") || exec.args[3] != "-y" {
		t.Fatalf("unexpected args %v", exec.args)
	}
	for _, name := range append(expected, "_xxl_data/model.bin") {
		if _, err := os.Stat(filepath.Join(f.dest, filepath.FromSlash(name))); err != nil {
			t.Fatalf("expected %s installed: %v", name, err)
		}
	}
	if _, err := os.Stat(filepath.Join(f.dest, "_xxl_data", "stale")); !os.IsNotExist(err) {
		t.Fatal("expected existing directory to be replaced")
	}
	info, err := os.Stat(filepath.Join(f.dest, "faster-whisper-xxl"))
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm()&0o100 == 0 {
		t.Fatalf("expected executable mode, got %o", info.Mode().Perm())
	}
	assertTempClean(t, f)
}

func TestExtractFlatArchive(t *testing.T) {
	f := newFixture(t)
	exec := &stubExecutor{files: map[string]string{"faster-whisper-xxl": "bin", "ffmpeg": "ff"}}
	if err := f.extractor(exec).Extract(context.Background(), f.archive, expected, f.dest); err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if _, err := os.Stat(filepath.Join(f.dest, "ffmpeg")); err != nil {
		t.Fatalf("expected ffmpeg installed: %v", err)
	}
}

func TestExtractMissingExpectedFile(t *testing.T) {
	f := newFixture(t)
	exec := &stubExecutor{files: map[string]string{"pkg/faster-whisper-xxl": "bin"}}
	err := f.extractor(exec).Extract(context.Background(), f.archive, expected, f.dest)
	var verr *VerificationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected VerificationError, got %v", err)
	}
	if verr.Name != "ffmpeg" {
		t.Fatalf("expected ffmpeg named, got %q", verr.Name)
	}
	if !errors.Is(err, services.ErrVerificationFailed) {
		t.Fatal("expected verification marker")
	}
	assertTempClean(t, f)
}

func TestExtractEmptyExpectedFile(t *testing.T) {
	f := newFixture(t)
	exec := &stubExecutor{files: map[string]string{"pkg/faster-whisper-xxl": "bin", "pkg/ffmpeg": ""}}
	err := f.extractor(exec).Extract(context.Background(), f.archive, expected, f.dest)
	var verr *VerificationError
	if !errors.As(err, &verr) || verr.Name != "ffmpeg" || verr.Reason != "is empty" {
		t.Fatalf("expected empty ffmpeg verification error, got %v", err)
	}
}

func TestExtractUnrecognizedStructure(t *testing.T) {
	f := newFixture(t)
	exec := &stubExecutor{files: map[string]string{"readme.txt": "hi"}}
	err := f.extractor(exec).Extract(context.Background(), f.archive, expected, f.dest)
	if !errors.Is(err, services.ErrStructureUnrecognized) {
		t.Fatalf("expected structure error, got %v", err)
	}
	if _, statErr := os.Stat(f.dest); !os.IsNotExist(statErr) {
		t.Fatal("destination should not be created")
	}
	assertTempClean(t, f)
}

func TestExtractToolFailure(t *testing.T) {
	f := newFixture(t)
	exec := &stubExecutor{exitCode: 2, stderr: "ERROR: Data Error : fw.7z"}
	err := f.extractor(exec).Extract(context.Background(), f.archive, expected, f.dest)
	if !errors.Is(err, services.ErrExtractionFailed) {
		t.Fatalf("expected extraction failure, got %v", err)
	}
	if !strings.Contains(err.Error(), "Data Error") || !strings.Contains(err.Error(), "exit code 2") {
		t.Fatalf("expected stderr and exit code in error, got %v", err)
	}
	assertTempClean(t, f)
}

func TestExtractRunsDetachedAndHonoursCancelBeforeInstall(t *testing.T) {
	f := newFixture(t)
	exec := &stubExecutor{files: map[string]string{"pkg/faster-whisper-xxl": "bin", "pkg/ffmpeg": "ff"}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := f.extractor(exec).Extract(ctx, f.archive, expected, f.dest)
	if exec.ctxErr != nil {
		t.Fatalf("tool should run with a non-cancelled context, got %v", exec.ctxErr)
	}
	if !errors.Is(err, services.ErrCancelled) {
		t.Fatalf("expected cancelled, got %v", err)
	}
	if _, statErr := os.Stat(f.dest); !os.IsNotExist(statErr) {
		t.Fatal("destination must not be touched after cancellation")
	}
	assertTempClean(t, f)
}

func TestResolveTool(t *testing.T) {
	origLook, origKnown := lookPath, knownLocations
	t.Cleanup(func() { lookPath, knownLocations = origLook, origKnown })

	dir := t.TempDir()
	known := filepath.Join(dir, "7z")
	if err := os.WriteFile(known, []byte("x"), 0o755); err != nil {
		t.Fatal(err)
	}

	lookPath = func(name string) (string, error) {
		if name == "7zz" {
			return "/bin/7zz", nil
		}
		return "", errors.New("not found")
	}
	knownLocations = func(string) []string { return []string{known} }
	if got, err := ResolveTool(""); err != nil || got != "/bin/7zz" {
		t.Fatalf("expected PATH hit, got %q (err=%v)", got, err)
	}

	lookPath = func(string) (string, error) { return "", errors.New("not found") }
	if got, err := ResolveTool(""); err != nil || got != known {
		t.Fatalf("expected known location, got %q (err=%v)", got, err)
	}

	knownLocations = func(string) []string { return nil }
	_, notFound := ResolveTool("")
	if !errors.Is(notFound, services.ErrToolNotFound) {
		t.Fatalf("expected tool not found, got %v", notFound)
	}
	if services.Hint(notFound) == "" {
		t.Fatal("expected remediation hint")
	}

	if _, err := ResolveTool(filepath.Join(dir, "missing")); !errors.Is(err, services.ErrToolNotFound) {
		t.Fatalf("expected override miss to fail, got %v", err)
	}
}

