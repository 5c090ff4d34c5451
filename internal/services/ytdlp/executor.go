package ytdlp

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"time"
)

// Executor runs a command and hands each line of its combined stdout and
// stderr to onLine, in order, from a single goroutine.
type Executor interface {
	Run(ctx context.Context, binary string, args []string, onLine func(string)) error
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string, onLine func(string)) error {
	pr, pw := io.Pipe()
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	// One writer for both streams keeps them on a single pipe in write order.
	cmd.Stdout = pw
	cmd.Stderr = pw
	cmd.WaitDelay = 2 * time.Second

	scanned := make(chan error, 1)
	go func() {
		sc := bufio.NewScanner(pr)
		sc.Buffer(make([]byte, 64<<10), 1<<20)
		for sc.Scan() {
			onLine(sc.Text())
		}
		err := sc.Err()
		_, _ = io.Copy(io.Discard, pr)
		scanned <- err
	}()

	if err := cmd.Start(); err != nil {
		_ = pw.Close()
		<-scanned
		return fmt.Errorf("start %s: %w", binary, err)
	}
	waitErr := cmd.Wait()
	_ = pw.Close()
	scanErr := <-scanned
	if waitErr != nil {
		return fmt.Errorf("%s: %w", binary, waitErr)
	}
	if scanErr != nil {
		return fmt.Errorf("read %s output: %w", binary, scanErr)
	}
	return nil
}
