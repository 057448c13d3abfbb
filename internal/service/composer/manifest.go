package composer

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tidwall/jsonc"
)

// ManifestFilename is composer's project manifest.
const ManifestFilename = "composer.json"

// ErrManifestNotFound is returned when the project has no composer.json.
var ErrManifestNotFound = errors.New("composer.json not found")

// Manifest is the subset of composer.json the installer reports on.
type Manifest struct {
	// Name is the package name, vendor/project.
	Name string `json:"name"`
	// Description is the human readable summary.
	Description string `json:"description"`
	// Type is the composer package type, usually "project".
	Type string `json:"type"`
	// Require maps runtime dependencies to version constraints.
	Require map[string]string `json:"require"`
}

// ReadManifest loads composer.json from dir. Comments and trailing commas are tolerated.
func ReadManifest(dir string) (*Manifest, error) {
	raw, err := os.ReadFile(filepath.Join(dir, ManifestFilename))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrManifestNotFound
		}

		return nil, fmt.Errorf("read %s: %w", ManifestFilename, err)
	}

	var manifest Manifest
	if err = json.Unmarshal(jsonc.ToJSON(raw), &manifest); err != nil {
		return nil, fmt.Errorf("decode %s: %w", ManifestFilename, err)
	}

	return &manifest, nil
}
