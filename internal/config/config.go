package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the settings consumed by the installer commands.
type Config struct {
	// ArchiveURLTemplate is the skeleton archive location with BranchPlaceholder in it.
	ArchiveURLTemplate string `yaml:"archive_url"`
	// StableBranch is the branch downloaded by default.
	StableBranch string `yaml:"stable_branch"`
	// DevelopmentBranch is the branch downloaded with --dev.
	DevelopmentBranch string `yaml:"development_branch"`
	// PHPBinary is the PHP interpreter used for version checks and composer.phar.
	PHPBinary string `yaml:"php_binary"`
	// ComposerCommand is the system-wide composer command.
	ComposerCommand string `yaml:"composer_command"`
	// ComposerPhar is the project-local composer archive looked up in the working directory.
	ComposerPhar string `yaml:"composer_phar"`
	// MinPHPVersion is the lowest PHP version the framework supports.
	MinPHPVersion string `yaml:"min_php_version"`
	// KeepArchiveRoot disables stripping the single top-level folder of the archive.
	KeepArchiveRoot bool `yaml:"keep_archive_root"`
	// Timeout bounds each HTTP download. Zero means no limit.
	Timeout time.Duration `yaml:"timeout"`
	// UserAgent is sent with every HTTP request.
	UserAgent string `yaml:"user_agent"`
	// UpdateFolder is the URL where installer releases are published for self-update.
	UpdateFolder string `yaml:"update_folder"`
}

const (
	// DefaultConfigFilename is the settings file looked up in the working directory.
	DefaultConfigFilename = "grelo-installer.yaml"

	// BranchPlaceholder is substituted with the branch name in ArchiveURL.
	BranchPlaceholder = "{branch}"

	// DefaultArchiveURL points at the framework's GitHub branch archives.
	DefaultArchiveURL = "https://github.com/ArtesanoMultimedia/GreloFramework/archive/refs/heads/" +
		BranchPlaceholder + ".zip"

	// DefaultStableBranch is the branch behind the stable channel.
	DefaultStableBranch = "master"

	// DefaultDevelopmentBranch is the branch behind the development channel.
	DefaultDevelopmentBranch = "develop"

	// DefaultPHPBinary is the PHP interpreter looked up on PATH.
	DefaultPHPBinary = "php"

	// DefaultComposerCommand is the system-wide composer command.
	DefaultComposerCommand = "composer"

	// DefaultComposerPhar is the project-local composer archive name.
	DefaultComposerPhar = "composer.phar"

	// DefaultMinPHPVersion is the lowest PHP version the framework runs on.
	DefaultMinPHPVersion = "7.3.0"

	// DefaultUserAgent identifies the installer to remote servers.
	DefaultUserAgent = "grelo-installer"

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errPlaceholderMissing is returned when the archive URL cannot vary per branch.
	errPlaceholderMissing = errors.New("archive url must contain " + BranchPlaceholder)
	// errInvalidVersion is returned when min_php_version is not a dotted version.
	errInvalidVersion = errors.New("invalid version")
	// errNegativeTimeout is returned for timeouts below zero.
	errNegativeTimeout = errors.New("timeout must not be negative")

	// versionPattern accepts one to three dot separated numeric components.
	versionPattern = regexp.MustCompile(`^\d+(\.\d+){0,2}$`)
)

// Default returns the settings used when no file is present.
func Default() *Config {
	return &Config{
		ArchiveURLTemplate: DefaultArchiveURL,
		StableBranch:       DefaultStableBranch,
		DevelopmentBranch:  DefaultDevelopmentBranch,
		PHPBinary:          DefaultPHPBinary,
		ComposerCommand:    DefaultComposerCommand,
		ComposerPhar:       DefaultComposerPhar,
		MinPHPVersion:      DefaultMinPHPVersion,
		UserAgent:          DefaultUserAgent,
	}
}

// Load reads configuration from the provided path and validates it.
// Fields missing from the file keep their defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	cfg := Default()
	if err = yaml.Unmarshal(contents, cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err = Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadOrDefault behaves like Load but returns Default when the file does not exist.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}

	return cfg, err
}

// Save writes Config to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks the provided settings and fills empty fields with defaults.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	fillDefaults(cfg)

	if !strings.Contains(cfg.ArchiveURLTemplate, BranchPlaceholder) {
		return errPlaceholderMissing
	}

	for _, branch := range []string{cfg.StableBranch, cfg.DevelopmentBranch} {
		if _, err := url.ParseRequestURI(cfg.ArchiveURL(branch)); err != nil {
			return fmt.Errorf("invalid archive url: %w", err)
		}
	}

	if !versionPattern.MatchString(cfg.MinPHPVersion) {
		return fmt.Errorf("min_php_version %q: %w", cfg.MinPHPVersion, errInvalidVersion)
	}

	if cfg.Timeout < 0 {
		return errNegativeTimeout
	}

	if cfg.UpdateFolder == "" {
		return nil
	}

	if _, err := url.ParseRequestURI(cfg.UpdateFolder); err != nil {
		return fmt.Errorf("invalid update folder URI: %w", err)
	}

	return nil
}

// ArchiveURL returns the download location of the given branch.
func (c *Config) ArchiveURL(branch string) string {
	return strings.ReplaceAll(c.ArchiveURLTemplate, BranchPlaceholder, url.PathEscape(branch))
}

// fillDefaults replaces empty string fields with their defaults.
func fillDefaults(cfg *Config) {
	defaults := Default()

	for _, field := range []struct {
		value    *string
		fallback string
	}{
		{&cfg.ArchiveURLTemplate, defaults.ArchiveURLTemplate},
		{&cfg.StableBranch, defaults.StableBranch},
		{&cfg.DevelopmentBranch, defaults.DevelopmentBranch},
		{&cfg.PHPBinary, defaults.PHPBinary},
		{&cfg.ComposerCommand, defaults.ComposerCommand},
		{&cfg.ComposerPhar, defaults.ComposerPhar},
		{&cfg.MinPHPVersion, defaults.MinPHPVersion},
		{&cfg.UserAgent, defaults.UserAgent},
	} {
		if strings.TrimSpace(*field.value) == "" {
			*field.value = field.fallback
		}
	}
}
