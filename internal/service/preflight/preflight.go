package preflight

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"golang.org/x/mod/semver"

	"github.com/artesanomultimedia/grelo-installer/internal/logger"
)

// versionProbeTimeout bounds the PHP version probe.
const versionProbeTimeout = 10 * time.Second

var (
	// errPHPUnavailable is returned when the interpreter cannot be executed.
	errPHPUnavailable = errors.New("php is not available")
	// errPHPTooOld is returned when the interpreter is older than required.
	errPHPTooOld = errors.New("php version is too old")
	// errUnparsableVersion is returned for probe output that carries no version.
	errUnparsableVersion = errors.New("unable to parse php version")

	// leadingVersion captures the numeric prefix of PHP_VERSION, dropping distro suffixes.
	leadingVersion = regexp.MustCompile(`^\d+(\.\d+){0,2}`)
)

// CommandFunc runs a program and returns its standard output.
type CommandFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

// Checker validates the PHP runtime composer depends on.
type Checker struct {
	// phpBinary is the interpreter to probe.
	phpBinary string
	// minVersion is the lowest accepted version, for example 7.3.0.
	minVersion string
	// run executes the probe.
	run CommandFunc
}

// NewChecker returns a Checker that probes phpBinary with os/exec.
func NewChecker(phpBinary, minVersion string) *Checker {
	return &Checker{
		phpBinary:  phpBinary,
		minVersion: minVersion,
		run: func(ctx context.Context, name string, args ...string) ([]byte, error) {
			return exec.CommandContext(ctx, name, args...).Output()
		},
	}
}

// WithCommand replaces the probe runner.
func (c *Checker) WithCommand(run CommandFunc) *Checker {
	c.run = run

	return c
}

// Check returns an error when PHP is missing or older than the minimum version.
func (c *Checker) Check(ctx context.Context) error {
	probeCtx, cancel := context.WithTimeout(ctx, versionProbeTimeout)
	defer cancel()

	output, err := c.run(probeCtx, c.phpBinary, "-r", "echo PHP_VERSION;")
	if err != nil {
		return fmt.Errorf("%s: %w: %w", c.phpBinary, errPHPUnavailable, err)
	}

	installed, err := canonical(string(output))
	if err != nil {
		return err
	}

	required, err := canonical(c.minVersion)
	if err != nil {
		return err
	}

	logger.DebugKV(ctx, "Detected PHP runtime", "version", installed, "required", required)

	if semver.Compare(installed, required) < 0 {
		return fmt.Errorf("the Grelo installer requires PHP %s or newer, found %s: %w",
			strings.TrimPrefix(required, "v"), strings.TrimPrefix(installed, "v"), errPHPTooOld)
	}

	return nil
}

// canonical turns "8.1.2-1ubuntu4" into "v8.1.2".
func canonical(raw string) (string, error) {
	version := leadingVersion.FindString(strings.TrimSpace(raw))
	if version == "" {
		return "", fmt.Errorf("%q: %w", raw, errUnparsableVersion)
	}

	result := semver.Canonical("v" + version)
	if result == "" {
		return "", fmt.Errorf("%q: %w", raw, errUnparsableVersion)
	}

	return result, nil
}
