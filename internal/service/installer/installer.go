package installer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/artesanomultimedia/grelo-installer/internal/config"
	"github.com/artesanomultimedia/grelo-installer/internal/logger"
	"github.com/artesanomultimedia/grelo-installer/internal/service/common"
	"github.com/artesanomultimedia/grelo-installer/internal/service/composer"
	"github.com/artesanomultimedia/grelo-installer/internal/service/preflight"
)

// completionBanner is printed after composer finished successfully.
const completionBanner = "Application ready! Build something amazing."

// Channel names the source of the skeleton archive.
type Channel string

const (
	// ChannelStable is the default, released skeleton.
	ChannelStable Channel = "stable"
	// ChannelDevelopment is the skeleton under development.
	ChannelDevelopment Channel = "development"
)

// ChannelFor maps the --dev flag to a channel.
func ChannelFor(development bool) Channel {
	if development {
		return ChannelDevelopment
	}

	return ChannelStable
}

// Request is one scaffolding invocation.
type Request struct {
	// Name is the target directory relative to the working directory. Empty or "." means the working directory.
	Name string
	// Development selects the development channel.
	Development bool
	// Force skips the existence guard.
	Force bool
	// Quiet is forwarded to composer as --quiet.
	Quiet bool
	// NoANSI is forwarded to composer as --no-ansi.
	NoANSI bool
}

// Fetcher downloads a remote resource.
type Fetcher interface {
	Get(ctx context.Context, url string) (io.ReadCloser, error)
}

// EnvironmentChecker verifies the host before any side effect.
type EnvironmentChecker interface {
	Check(ctx context.Context) error
}

// Installer runs the scaffolding workflow against explicit collaborators.
type Installer struct {
	// cfg holds URLs, branch names and composer settings.
	cfg *config.Config
	// workDir is the directory the installer was started from.
	workDir string

	fetcher      Fetcher
	environment  EnvironmentChecker
	runner       composer.Runner
	output       io.Writer
	ttyAvailable func() bool
}

// Option configures an Installer.
type Option func(*Installer)

// WithFetcher replaces the HTTP client.
func WithFetcher(fetcher Fetcher) Option {
	return func(i *Installer) {
		i.fetcher = fetcher
	}
}

// WithEnvironmentChecker replaces the PHP preflight check.
func WithEnvironmentChecker(checker EnvironmentChecker) Option {
	return func(i *Installer) {
		i.environment = checker
	}
}

// WithRunner replaces the composer runner.
func WithRunner(runner composer.Runner) Option {
	return func(i *Installer) {
		i.runner = runner
	}
}

// WithOutput sets where composer output and the completion banner are written.
func WithOutput(output io.Writer) Option {
	return func(i *Installer) {
		if output != nil {
			i.output = output
		}
	}
}

// WithTTYDetector replaces the terminal availability check.
func WithTTYDetector(detect func() bool) Option {
	return func(i *Installer) {
		i.ttyAvailable = detect
	}
}

// New builds an Installer rooted at workDir.
func New(cfg *config.Config, workDir string, opts ...Option) *Installer {
	i := &Installer{
		cfg:     cfg,
		workDir: workDir,
		fetcher: common.NewClient(
			common.WithTimeout(cfg.Timeout),
			common.WithUserAgent(cfg.UserAgent),
		),
		environment:  preflight.NewChecker(cfg.PHPBinary, cfg.MinPHPVersion),
		runner:       composer.NewShellRunner(),
		output:       os.Stdout,
		ttyAvailable: composer.TTYAvailable,
	}

	for _, opt := range opts {
		opt(i)
	}

	return i
}

// Scaffold materializes the skeleton for req and installs its dependencies.
// Fatal failures return exit code 1 and a wrapped sentinel error. When
// composer itself fails its exit status is returned with a nil error.
func (i *Installer) Scaffold(ctx context.Context, req Request) (int, error) {
	if err := i.environment.Check(ctx); err != nil {
		return 1, fmt.Errorf("%w: %w", ErrUnsupportedEnvironment, err)
	}

	target := ResolveTarget(i.workDir, req.Name)
	ctx = logger.WithKV(ctx, "target", target)

	if !req.Force {
		if err := i.verifyTargetIsFree(target); err != nil {
			return 1, err
		}
	}

	channel := ChannelFor(req.Development)
	archiveURL := i.cfg.ArchiveURL(i.branch(channel))

	logger.InfoKV(ctx, "Crafting application", "channel", channel, "url", archiveURL)

	archivePath := archiveFilename(i.workDir)

	if err := i.download(ctx, archiveURL, archivePath); err != nil {
		return 1, err
	}

	err := i.extract(ctx, archiveURL, archivePath, target)

	cleanUp(archivePath)

	if err != nil {
		return 1, err
	}

	i.reportManifest(ctx, target)

	return i.installDependencies(ctx, req, target)
}

// branch returns the branch behind channel.
func (i *Installer) branch(channel Channel) string {
	if channel == ChannelDevelopment {
		return i.cfg.DevelopmentBranch
	}

	return i.cfg.StableBranch
}

// reportManifest logs what was scaffolded. A missing manifest is only a warning.
func (i *Installer) reportManifest(ctx context.Context, target string) {
	manifest, err := composer.ReadManifest(target)

	switch {
	case errors.Is(err, composer.ErrManifestNotFound):
		logger.Warn(ctx, "The skeleton has no composer.json, dependency installation will probably fail")
	case err != nil:
		logger.WarnKV(ctx, "Unable to read composer.json", "error", err)
	default:
		logger.InfoKV(ctx, "Scaffolded project", "package", manifest.Name, "dependencies", len(manifest.Require))
	}
}

// installDependencies runs composer install inside target.
func (i *Installer) installDependencies(ctx context.Context, req Request, target string) (int, error) {
	invocation := composer.Invocation(i.workDir, i.cfg.PHPBinary, i.cfg.ComposerPhar, i.cfg.ComposerCommand)

	cmd := composer.Command{
		Line: composer.InstallLine(invocation, req.NoANSI, req.Quiet),
		Dir:  target,
		TTY:  i.ttyAvailable != nil && i.ttyAvailable(),
	}

	logger.InfoKV(ctx, "Installing dependencies", "command", cmd.Line, "tty", cmd.TTY)

	status, err := i.runner.Run(ctx, cmd, i.output)
	if err != nil {
		return 1, fmt.Errorf("run %s: %w", cmd.Line, err)
	}

	if status != 0 {
		logger.WarnKV(ctx, "Dependency installation failed", "status", status)

		return status, nil
	}

	_, _ = fmt.Fprintln(i.output, completionBanner)

	return 0, nil
}
