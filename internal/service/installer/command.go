package installer

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/artesanomultimedia/grelo-installer/internal/config"
	"github.com/artesanomultimedia/grelo-installer/internal/logger"
)

// Options are inputs accepted by the `new` command entry point.
type Options struct {
	// ConfigPath is the settings file. A missing file is fine unless ConfigRequired is set.
	ConfigPath string
	// ConfigRequired makes a missing settings file an error.
	ConfigRequired bool
	// Output receives composer output and the completion banner.
	Output io.Writer
	// Request describes the application to scaffold.
	Request Request
}

// Run loads the settings, resolves the working directory and scaffolds the application.
// It returns the process exit code.
func Run(ctx context.Context, opts *Options) (int, error) {
	ctx = logger.WithName(ctx, "grelo-new")

	cfg, err := loadConfig(opts)
	if err != nil {
		return 1, err
	}

	workDir, err := os.Getwd()
	if err != nil {
		return 1, fmt.Errorf("resolve working directory: %w", err)
	}

	status, err := New(cfg, workDir, WithOutput(opts.Output)).Scaffold(ctx, opts.Request)
	if err != nil {
		logger.ErrorKV(ctx, "Scaffolding failed", "error", err)

		return status, err
	}

	return status, nil
}

// loadConfig reads the settings file, falling back to defaults when allowed.
func loadConfig(opts *Options) (*config.Config, error) {
	if opts.ConfigRequired {
		return config.Load(opts.ConfigPath)
	}

	return config.LoadOrDefault(opts.ConfigPath)
}
