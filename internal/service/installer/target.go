package installer

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// currentDirectoryName selects the working directory as the target.
const currentDirectoryName = "."

// ResolveTarget returns workDir for an empty or "." name, workDir/name otherwise.
func ResolveTarget(workDir, name string) string {
	if name == "" || name == currentDirectoryName {
		return filepath.Clean(workDir)
	}

	return filepath.Join(workDir, name)
}

// verifyTargetIsFree fails with ErrTargetAlreadyExists when the target is taken.
// A named target is taken when anything exists at its path. The working
// directory itself always exists, so it is taken only when it holds files
// other than dot-files, the composer phar and in-flight archives.
func (i *Installer) verifyTargetIsFree(target string) error {
	if filepath.Clean(target) == filepath.Clean(i.workDir) {
		return i.verifyWorkDirIsEmpty()
	}

	_, err := os.Lstat(target)
	if err == nil {
		return fmt.Errorf("%w: %s", ErrTargetAlreadyExists, target)
	}

	if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("inspect target: %w", err)
	}

	return nil
}

// verifyWorkDirIsEmpty applies the empty-ish rule to the working directory.
func (i *Installer) verifyWorkDirIsEmpty() error {
	entries, err := os.ReadDir(i.workDir)
	if err != nil {
		return fmt.Errorf("inspect working directory: %w", err)
	}

	for _, entry := range entries {
		if i.ignorableInWorkDir(entry.Name()) {
			continue
		}

		return fmt.Errorf("%w: %s is not empty (found %s), use --force to scaffold anyway",
			ErrTargetAlreadyExists, i.workDir, entry.Name())
	}

	return nil
}

// ignorableInWorkDir reports entries that do not make the working directory a project.
func (i *Installer) ignorableInWorkDir(name string) bool {
	switch {
	case strings.HasPrefix(name, "."):
		return true
	case name == i.cfg.ComposerPhar:
		return true
	case isArchiveName(name):
		return true
	default:
		return false
	}
}
