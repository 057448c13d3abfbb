package composer

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/mattn/go-isatty"
)

// installAction is the composer subcommand run after scaffolding.
const installAction = "install"

// ttyDevice is the controlling terminal on Unix-like hosts.
const ttyDevice = "/dev/tty"

// Command describes one dependency manager run.
type Command struct {
	// Line is the full shell command line.
	Line string
	// Dir is the working directory of the child process.
	Dir string
	// TTY requests attaching the child to the controlling terminal.
	TTY bool
}

// Invocation returns the command prefix that starts composer.
// A phar found in workDir is run with phpBinary, otherwise command is used as is.
func Invocation(workDir, phpBinary, phar, command string) string {
	if phar != "" {
		pharPath := filepath.Join(workDir, phar)
		if info, err := os.Stat(pharPath); err == nil && !info.IsDir() {
			return ShellQuote(phpBinary) + " " + ShellQuote(pharPath)
		}
	}

	return command
}

// InstallLine builds the install command line with the requested verbosity flags.
func InstallLine(invocation string, noANSI, quiet bool) string {
	parts := []string{invocation, installAction}

	if noANSI {
		parts = append(parts, "--no-ansi")
	}

	if quiet {
		parts = append(parts, "--quiet")
	}

	return strings.Join(parts, " ")
}

// TTYAvailable reports whether the child can be attached to a terminal:
// not on Windows, stdout is a terminal and the terminal device is readable.
func TTYAvailable() bool {
	if runtime.GOOS == "windows" {
		return false
	}

	if !isatty.IsTerminal(os.Stdout.Fd()) {
		return false
	}

	tty, err := os.Open(ttyDevice)
	if err != nil {
		return false
	}

	_ = tty.Close()

	return true
}

// ShellQuote quotes s as one word for the platform shell used by ShellRunner.
func ShellQuote(s string) string {
	return quoteFor(runtime.GOOS, s)
}

// quoteFor quotes s for sh, or for cmd.exe when goos is windows.
// Inside sh single quotes nothing expands; an embedded quote is written as '\''.
// cmd.exe takes double quoted text verbatim and Windows paths hold no quotes.
func quoteFor(goos, s string) string {
	if goos == "windows" {
		return `"` + s + `"`
	}

	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
