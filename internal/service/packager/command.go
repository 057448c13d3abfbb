package packager

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/artesanomultimedia/grelo-installer/internal/config"
	"github.com/artesanomultimedia/grelo-installer/internal/logger"
	"github.com/artesanomultimedia/grelo-installer/internal/service/updater"
)

// errNoArtifacts indicates that the release directory holds no installer binaries.
var errNoArtifacts = errors.New("no installer binaries found")

// Options contains inputs for the packager entry point.
type Options struct {
	// ConfigPath is where the settings with the update folder are persisted.
	ConfigPath string
	// Dir is the release directory holding grelo-<os>-<arch> binaries.
	Dir string
	// UpdateFolder is the URL the release directory will be uploaded to.
	UpdateFolder string
	// Version overrides the published version. Empty means the running build.
	Version string
}

// packager prepares release metadata for distribution.
type packager struct {
	cfg         *config.Config
	cfgFilename string
	dir         string
	desc        *updater.Description
}

// Run executes the packaging workflow.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "grelo-package")

	cfg, err := config.LoadOrDefault(opts.ConfigPath)
	if err != nil {
		return err
	}

	if opts.UpdateFolder != "" {
		cfg.UpdateFolder = opts.UpdateFolder
	}

	if err = config.Validate(cfg); err != nil {
		return err
	}

	desc := updater.NewDescription()
	if opts.Version != "" {
		desc.VersionNumber = opts.Version
	}

	pkg := &packager{
		cfg:         cfg,
		cfgFilename: opts.ConfigPath,
		dir:         opts.Dir,
		desc:        desc,
	}

	if err = pkg.Run(ctx); err != nil {
		return fmt.Errorf("packager failed: %w", err)
	}

	logger.Info(ctx, "Packager completed successfully")

	return nil
}

// Run populates and writes the release description to disk.
func (p *packager) Run(ctx context.Context) error {
	logger.InfoKV(ctx, "Preparing release description", "dir", p.dir)

	if err := p.fillDescription(); err != nil {
		return err
	}

	logger.InfoKV(ctx, "Saving release description", "path", p.descriptionPath())

	if err := p.saveDescription(); err != nil {
		return err
	}

	if p.cfgFilename != "" {
		if err := config.Save(p.cfgFilename, p.cfg); err != nil {
			return fmt.Errorf("save settings: %w", err)
		}
	}

	p.printNextSteps(ctx)

	return nil
}

// fillDescription records a checksum for every installer binary in the directory.
func (p *packager) fillDescription() error {
	entries, err := os.ReadDir(p.dir)
	if err != nil {
		return fmt.Errorf("read release directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !updater.IsArtifactName(entry.Name()) {
			continue
		}

		checksum, err := updater.GetFileChecksum(filepath.Join(p.dir, entry.Name()))
		if err != nil {
			return err
		}

		p.desc.Files[entry.Name()] = base64.StdEncoding.EncodeToString(checksum)
	}

	if len(p.desc.Files) == 0 {
		return fmt.Errorf("%s: %w", p.dir, errNoArtifacts)
	}

	return nil
}

func (p *packager) descriptionPath() string {
	return filepath.Join(p.dir, updater.VersionFilename)
}

// saveDescription writes the description to the standard VersionFilename.
func (p *packager) saveDescription() error {
	contents, err := yaml.Marshal(p.desc)
	if err != nil {
		return err
	}

	return os.WriteFile(p.descriptionPath(), contents, config.DefaultFilePermissions)
}

// printNextSteps logs which files must be uploaded to the update folder.
func (p *packager) printNextSteps(ctx context.Context) {
	files := make([]string, 0, len(p.desc.Files)+1)
	for fileName := range p.desc.Files {
		files = append(files, fileName)
	}

	files = append(files, updater.VersionFilename)
	sort.Strings(files)

	var builder strings.Builder

	builder.WriteString("You should upload the following files to the folder ")
	builder.WriteString(p.cfg.UpdateFolder)
	builder.WriteString(":\n")
	builder.WriteString(strings.Join(files, ",\n"))
	builder.WriteString("\nThen run: grelo self-update")

	logger.Info(ctx, builder.String())
}
