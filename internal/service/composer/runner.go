package composer

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"

	"github.com/artesanomultimedia/grelo-installer/internal/logger"
)

// Runner executes a dependency manager command.
type Runner interface {
	// Run executes cmd and returns its exit status.
	// The error is reserved for failures to start or observe the process.
	Run(ctx context.Context, cmd Command, output io.Writer) (int, error)
}

// ShellRunner runs commands through the platform shell.
type ShellRunner struct {
	// openTTY opens the controlling terminal.
	openTTY func() (*os.File, error)
}

// NewShellRunner returns a runner bound to the real terminal device.
func NewShellRunner() *ShellRunner {
	return &ShellRunner{
		openTTY: func() (*os.File, error) {
			return os.OpenFile(ttyDevice, os.O_RDWR, 0)
		},
	}
}

// Run executes cmd. With cmd.TTY the child gets the terminal; when the
// terminal cannot be opened a warning is logged and output is streamed instead.
func (r *ShellRunner) Run(ctx context.Context, cmd Command, output io.Writer) (int, error) {
	process := shellCommand(ctx, cmd.Line)
	process.Dir = cmd.Dir

	if cmd.TTY {
		tty, err := r.openTTY()
		if err == nil {
			defer func() {
				_ = tty.Close()
			}()

			process.Stdin = tty
			process.Stdout = tty
			process.Stderr = tty

			return exitStatus(process.Run())
		}

		logger.WarnKV(ctx, "Unable to attach to the terminal, continuing without it", "error", err)
	}

	return r.stream(process, output)
}

// stream starts the process and forwards combined output line by line as it is produced.
func (r *ShellRunner) stream(process *exec.Cmd, output io.Writer) (int, error) {
	reader, writer := io.Pipe()

	// The same writer for both streams makes exec serialise their writes.
	process.Stdout = writer
	process.Stderr = writer

	if err := process.Start(); err != nil {
		_ = writer.Close()

		return -1, fmt.Errorf("start %q: %w", process.String(), err)
	}

	copied := make(chan error, 1)

	go func() {
		copied <- forwardLines(output, reader)
	}()

	status, waitErr := exitStatus(process.Wait())

	_ = writer.Close()

	if err := <-copied; err != nil && waitErr == nil {
		waitErr = fmt.Errorf("forward output: %w", err)
	}

	return status, waitErr
}

// forwardLines copies r to w one line at a time.
// After a write error the rest of r is drained so the child never blocks.
func forwardLines(w io.Writer, r io.Reader) error {
	buffered := bufio.NewReader(r)

	var writeErr error

	for {
		line, err := buffered.ReadBytes('\n')
		if len(line) > 0 && writeErr == nil {
			_, writeErr = w.Write(line)
		}

		if errors.Is(err, io.EOF) {
			return writeErr
		}

		if err != nil {
			return err
		}
	}
}

// exitStatus converts the result of Wait or Run into an exit code.
func exitStatus(err error) (int, error) {
	if err == nil {
		return 0, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}

	return -1, err
}

// shellCommand wraps line in the platform shell.
func shellCommand(ctx context.Context, line string) *exec.Cmd {
	if runtime.GOOS == "windows" {
		return exec.CommandContext(ctx, "cmd.exe", "/C", line)
	}

	return exec.CommandContext(ctx, "sh", "-c", line)
}
