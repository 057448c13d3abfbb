package updater

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"runtime"

	goupdate "github.com/doitdistributed/go-update"
	"gopkg.in/yaml.v3"

	"github.com/artesanomultimedia/grelo-installer/internal/config"
	"github.com/artesanomultimedia/grelo-installer/internal/logger"
	"github.com/artesanomultimedia/grelo-installer/internal/service/common"
	"github.com/artesanomultimedia/grelo-installer/internal/version"
)

var (
	errUpdateFolderNotSet = errors.New("update_folder is not configured")
	errEmptyDescription   = errors.New("update description is empty")
	errNoArtifact         = errors.New("no release artifact for this platform")
)

// Options are inputs accepted by the self-update entry point.
type Options struct {
	// ConfigPath is the settings file holding update_folder.
	ConfigPath string
	// ConfigRequired makes a missing settings file an error.
	ConfigRequired bool
	// Force reinstalls even when the published version is not newer.
	Force bool
	// TargetPath is the executable to replace. Empty means the running binary.
	TargetPath string
}

// runner holds the state of a single self-update.
type runner struct {
	cfg         *config.Config
	client      *common.Client
	force       bool
	targetPath  string
	description *Description
}

// Run executes the self-update lifecycle and is the public entry point for the CLI.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "grelo-self-update")

	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	if cfg.UpdateFolder == "" {
		return errUpdateFolderNotSet
	}

	u := &runner{
		cfg: cfg,
		client: common.NewClient(
			common.WithTimeout(cfg.Timeout),
			common.WithUserAgent(cfg.UserAgent),
		),
		force:      opts.Force,
		targetPath: opts.TargetPath,
	}

	if err = u.Run(ctx); err != nil {
		logger.ErrorKV(ctx, "Self-update failed", "error", err)
		return err
	}

	return nil
}

// Run fetches the description, decides whether to update and applies the new binary.
func (u *runner) Run(ctx context.Context) error {
	logger.Info(ctx, "Downloading the release description")

	if err := u.fillDescription(ctx); err != nil {
		return fmt.Errorf("download release description: %w", err)
	}

	newer, err := isNewer(u.description.VersionNumber, version.Short())
	if err != nil {
		return err
	}

	if !newer && !u.force {
		logger.InfoKV(ctx, "Installer is up to date", "version", version.Short())
		return nil
	}

	logger.InfoKV(ctx, "Updating installer",
		"local", version.Short(), "remote", u.description.VersionNumber)

	return u.apply(ctx, ArtifactName(runtime.GOOS, runtime.GOARCH))
}

// fillDescription downloads and parses the remote release description.
func (u *runner) fillDescription(ctx context.Context) error {
	data, err := u.download(ctx, VersionFilename)
	if err != nil {
		return err
	}

	var desc Description
	if err = yaml.Unmarshal(data, &desc); err != nil {
		return err
	}

	if desc.VersionNumber == "" {
		return errEmptyDescription
	}

	u.description = &desc

	return nil
}

// apply downloads artifact and swaps it in with checksum verification.
func (u *runner) apply(ctx context.Context, artifact string) error {
	checksumBase64, ok := u.description.Files[artifact]
	if !ok {
		return fmt.Errorf("%s: %w", artifact, errNoArtifact)
	}

	checksum, err := base64.StdEncoding.DecodeString(checksumBase64)
	if err != nil {
		return fmt.Errorf("decode checksum for %s: %w", artifact, err)
	}

	data, err := u.download(ctx, artifact)
	if err != nil {
		return fmt.Errorf("download %s: %w", artifact, err)
	}

	logger.Debug(ctx, "Applying update")

	options := &goupdate.Options{
		TargetPath: u.targetPath,
		TargetMode: DefaultFileMode,
		Checksum:   checksum,
		Hash:       DefaultChecksumFunction,
	}

	if err = goupdate.Apply(bytes.NewReader(data), *options); err != nil {
		return fmt.Errorf("apply %s: %w", artifact, err)
	}

	if u.targetPath != "" {
		oldFileName := u.targetPath + ".old"
		if _, err = os.Stat(oldFileName); err == nil {
			_ = os.Remove(oldFileName)
		}
	}

	logger.InfoKV(ctx, "Installer updated", "version", u.description.VersionNumber)

	return nil
}

// download fetches a file from the update folder.
func (u *runner) download(ctx context.Context, fileName string) ([]byte, error) {
	updateURL, err := url.Parse(u.cfg.UpdateFolder)
	if err != nil {
		return nil, err
	}

	// Use path.Join to normalize duplicate slashes when composing the URL path.
	updateURL.Path = path.Join(updateURL.Path, fileName)

	body, err := u.client.Get(ctx, updateURL.String())
	if err != nil {
		return nil, err
	}

	defer func() {
		_ = body.Close()
	}()

	return io.ReadAll(body)
}

// loadConfig reads the settings file, falling back to defaults when allowed.
func loadConfig(opts *Options) (*config.Config, error) {
	if opts.ConfigRequired {
		return config.Load(opts.ConfigPath)
	}

	return config.LoadOrDefault(opts.ConfigPath)
}
