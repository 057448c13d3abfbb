package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/artesanomultimedia/grelo-installer/internal/config"
	"github.com/artesanomultimedia/grelo-installer/internal/logger"
	"github.com/artesanomultimedia/grelo-installer/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// logLevel overrides the default info level.
	logLevel string
	// quiet silences informational logs and composer output.
	quiet bool
	// noANSI disables colored output.
	noANSI bool

	// exitCode is the status reported by the last command when it is not an error.
	exitCode int

	// rootCmd represents the base command of the installer.
	rootCmd = &cobra.Command{
		Use:   "grelo",
		Short: "Create new Grelo Framework applications.",
		Long: `Grelo Installer downloads the framework skeleton, extracts it into
a new directory and installs its dependencies with composer.`,
		SilenceUsage: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			logger.Configure(logLevel, quiet, !noANSI)
		},
	}
)

// Execute runs the grelo CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(max(exitCode, 1))
	}

	if exitCode != 0 {
		os.Exit(exitCode)
	}
}

// signalContext is cancelled on SIGINT and SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	flags.StringVar(&logLevel, "log-level", "", "log level: debug, info, warn or error")
	flags.BoolVarP(&quiet, "quiet", "q", false, "do not output any message")
	flags.BoolVar(&noANSI, "no-ansi", false, "disable ANSI output")
}
