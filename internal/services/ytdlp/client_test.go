package ytdlp_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"strings"
	"testing"

	"scribe/internal/services"
	"scribe/internal/services/ytdlp"
)

type stubExecutor struct {
	lines  []string
	err    error
	create string
	args   []string
	// onLine runs after each delivered line.
	onLine func(i int)
}

func (s *stubExecutor) Run(ctx context.Context, binary string, args []string, onLine func(string)) error {
	s.args = append([]string(nil), args...)
	if s.create != "" {
		if err := os.WriteFile(s.create, []byte("media"), 0o644); err != nil {
			return err
		}
	}
	for i, line := range s.lines {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		onLine(line)
		if s.onLine != nil {
			s.onLine(i)
		}
	}
	return s.err
}

func TestFetchTranslatesProgressAndReturnsPath(t *testing.T) {
	dir := t.TempDir()
	final := filepath.Join(dir, "Talk.mp3")
	exec := &stubExecutor{
		create: final,
		lines: []string{
			"[youtube] abc: Downloading webpage",
			"[download] Destination: " + filepath.Join(dir, "Talk.webm"),
			"[download]   1.0% of    3.50MiB at  512.00KiB/s ETA 00:07",
			"[download]  42.0% of ~  3.50MiB at    1.20MiB/s ETA 00:03",
			"[download] 100% of    3.50MiB in 00:00:02 at 1.75MiB/s",
			"[ExtractAudio] Destination: " + final,
			"WARNING: something minor",
			final,
		},
	}
	client, err := ytdlp.New("yt-dlp", ytdlp.WithExecutor(exec))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	var got []string
	path, err := client.Fetch(context.Background(), "https://example.com/v", dir, true, func(s string) { got = append(got, s) })
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if path != final {
		t.Fatalf("path = %s, want %s", path, final)
	}
	want := []string{
		"Downloading: 1.0% of 3.50MiB at 512.00KiB/s",
		"Downloading: 42.0% of ~3.50MiB at 1.20MiB/s",
		"Downloading: 100% of 3.50MiB at 1.75MiB/s",
		ytdlp.ProcessingMessage,
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("progress = %q\nwant %q", got, want)
	}
}

func TestArgsAudioAndVideo(t *testing.T) {
	client, _ := ytdlp.New("yt-dlp", ytdlp.WithFFmpegLocation("/opt/bin/ffmpeg"))
	audio := client.Args("https://u", "/dl", true)
	for _, want := range []string{"-x", "mp3", "192K", "bestaudio/best", "--no-playlist", "/opt/bin/ffmpeg"} {
		if !slices.Contains(audio, want) {
			t.Fatalf("audio args %q missing %q", audio, want)
		}
	}
	if audio[len(audio)-1] != "https://u" {
		t.Fatalf("url should be last: %q", audio)
	}
	video := client.Args("https://u", "/dl", false)
	if slices.Contains(video, "-x") || !slices.Contains(video, "bestvideo[ext=mp4]+bestaudio[ext=m4a]/best[ext=mp4]/best") {
		t.Fatalf("video args = %q", video)
	}
	if !slices.Contains(video, filepath.Join("/dl", "%(title)s.%(ext)s")) {
		t.Fatalf("output template missing: %q", video)
	}
}

func TestFetchCancelledAtProgressCheckpoint(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	exec := &stubExecutor{
		lines: []string{
			"[download]  10.0% of 3.50MiB at 1.00MiB/s ETA 00:03",
			"[download]  20.0% of 3.50MiB at 1.00MiB/s ETA 00:02",
			"[download]  30.0% of 3.50MiB at 1.00MiB/s ETA 00:01",
		},
		onLine: func(i int) {
			if i == 0 {
				cancel()
			}
		},
	}
	client, _ := ytdlp.New("yt-dlp", ytdlp.WithExecutor(exec))
	var got []string
	_, err := client.Fetch(ctx, "https://u", t.TempDir(), true, func(s string) { got = append(got, s) })
	if !errors.Is(err, services.ErrCancelled) {
		t.Fatalf("err = %v, want ErrCancelled", err)
	}
	if len(got) != 1 {
		t.Fatalf("progress after cancel should stop, got %q", got)
	}
}

func TestFetchFailureCarriesToolMessage(t *testing.T) {
	exec := &stubExecutor{
		lines: []string{"ERROR: [youtube] abc: Video unavailable"},
		err:   errors.New("exit status 1"),
	}
	client, _ := ytdlp.New("yt-dlp", ytdlp.WithExecutor(exec))
	_, err := client.Fetch(context.Background(), "https://u", t.TempDir(), true, nil)
	if !errors.Is(err, services.ErrTransport) {
		t.Fatalf("err = %v, want ErrTransport", err)
	}
	if want := "Video unavailable"; !strings.Contains(err.Error(), want) {
		t.Fatalf("err %q missing %q", err, want)
	}
}

func TestFetchMissingOutputFails(t *testing.T) {
	exec := &stubExecutor{lines: []string{"/nowhere/file.mp3"}}
	client, _ := ytdlp.New("yt-dlp", ytdlp.WithExecutor(exec))
	_, err := client.Fetch(context.Background(), "https://u", t.TempDir(), true, nil)
	if err == nil || !strings.Contains(err.Error(), "post-processing failed") {
		t.Fatalf("err = %v, want post-processing failure", err)
	}
}

func TestFetchRequiresURL(t *testing.T) {
	client, _ := ytdlp.New("yt-dlp", ytdlp.WithExecutor(&stubExecutor{}))
	if _, err := client.Fetch(context.Background(), "  ", t.TempDir(), true, nil); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
	if _, err := ytdlp.New(" "); err == nil {
		t.Fatal("expected error for empty binary")
	}
}
