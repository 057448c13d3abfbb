package updater

import (
	"crypto"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"golang.org/x/mod/semver"

	"github.com/artesanomultimedia/grelo-installer/internal/version"

	// Ensure SHA512 available for checksum calculation.
	_ "crypto/sha512"
)

var (
	errHashUnavailable = errors.New("hash function unavailable")
	errInvalidVersion  = errors.New("invalid version")

	// artifactPattern matches grelo-<os>-<arch> with an optional .exe suffix.
	artifactPattern = regexp.MustCompile(`^` + baseExecutable + `-[a-z0-9]+-[a-z0-9]+(\.exe)?$`)
)

const (
	// VersionFilename is the release description published next to the artifacts.
	VersionFilename = "grelo-installer-version.yaml"

	// DefaultFileMode is applied to the replaced executable.
	DefaultFileMode os.FileMode = 0o755

	// DefaultChecksumFunction is used to calculate artifact hashes.
	DefaultChecksumFunction crypto.Hash = crypto.SHA512

	// baseExecutable prefixes every artifact name.
	baseExecutable = "grelo"

	// defaultMapCapacity is the default initial capacity for maps.
	defaultMapCapacity = 8
)

// Description contains metadata about a published release.
type Description struct {
	// VersionNumber is the semantic version of this release.
	VersionNumber string `yaml:"version"`
	// Files maps artifact names to their base64-encoded checksums.
	Files map[string]string `yaml:"files"`
}

// NewDescription produces a Description for the running build.
func NewDescription() *Description {
	return &Description{
		VersionNumber: version.Short(),
		Files:         make(map[string]string, defaultMapCapacity),
	}
}

// ArtifactName returns the release artifact for a platform, e.g. grelo-linux-amd64.
func ArtifactName(goos, goarch string) string {
	name := fmt.Sprintf("%s-%s-%s", baseExecutable, goos, goarch)
	if strings.EqualFold(goos, "windows") {
		name += ".exe"
	}

	return name
}

// GetChecksum returns checksum bytes for data using DefaultChecksumFunction.
func GetChecksum(data []byte) ([]byte, error) {
	if !DefaultChecksumFunction.Available() {
		return nil, fmt.Errorf("checksum calculation not possible: %w", errHashUnavailable)
	}

	hasher := DefaultChecksumFunction.New()
	if _, err := hasher.Write(data); err != nil {
		return nil, fmt.Errorf("calculate checksum: %w", err)
	}

	return hasher.Sum(nil), nil
}

// GetFileChecksum returns checksum bytes for the file at path.
func GetFileChecksum(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	return GetChecksum(data)
}

// IsArtifactName reports whether name looks like a published installer binary.
func IsArtifactName(name string) bool {
	return artifactPattern.MatchString(name)
}

// isNewer reports whether remote is a higher semantic version than local.
func isNewer(remote, local string) (bool, error) {
	remoteVersion, err := canonical(remote)
	if err != nil {
		return false, err
	}

	localVersion, err := canonical(local)
	if err != nil {
		return false, err
	}

	return semver.Compare(remoteVersion, localVersion) > 0, nil
}

// canonical adds the "v" prefix semver expects and validates the result.
func canonical(raw string) (string, error) {
	v := strings.TrimSpace(raw)
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}

	if !semver.IsValid(v) {
		return "", fmt.Errorf("%q: %w", raw, errInvalidVersion)
	}

	return v, nil
}
