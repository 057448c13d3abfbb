package installer

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/artesanomultimedia/grelo-installer/internal/archive"
	"github.com/artesanomultimedia/grelo-installer/internal/logger"
)

const (
	// archivePrefix starts every temporary archive name.
	archivePrefix = "grelo_"
	// archiveExtension ends every temporary archive name.
	archiveExtension = ".zip"
	// cleanupFileMode loosens permissions before removal.
	cleanupFileMode os.FileMode = 0o777
)

// archiveFilename returns a fresh temporary archive path inside dir.
// UUIDv7 combines a millisecond timestamp with random bits, so parallel
// installers sharing a directory never collide.
func archiveFilename(dir string) string {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}

	return filepath.Join(dir, archivePrefix+hex.EncodeToString(id[:])+archiveExtension)
}

// isArchiveName reports whether name looks like a temporary archive.
func isArchiveName(name string) bool {
	return strings.HasPrefix(name, archivePrefix) && strings.HasSuffix(name, archiveExtension)
}

// download streams url into path. A partially written file is left in place.
func (i *Installer) download(ctx context.Context, url, path string) error {
	body, err := i.fetcher.Get(ctx, url)
	if err != nil {
		return fmt.Errorf("%w from %s: %w", ErrDownloadFailed, url, err)
	}

	defer func() {
		_ = body.Close()
	}()

	file, err := os.Create(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("%w from %s: %w", ErrDownloadFailed, url, err)
	}

	written, copyErr := io.Copy(file, body)

	if err = errors.Join(copyErr, file.Close()); err != nil {
		logger.WarnKV(ctx, "Partial download left in place", "path", path, "bytes", written)

		return fmt.Errorf("%w from %s: %w", ErrDownloadFailed, url, err)
	}

	logger.DebugKV(ctx, "Downloaded skeleton", "path", path, "bytes", written)

	return nil
}

// extract validates the archive at path and writes it into target.
// url only decorates the error messages.
func (i *Installer) extract(ctx context.Context, url, path, target string) error {
	skeleton, err := archive.Open(path)
	if err != nil {
		if errors.Is(err, archive.ErrNotArchive) {
			return fmt.Errorf("%w: make sure %s is reachable and serves a zip file: %w",
				ErrInvalidArchive, url, err)
		}

		return fmt.Errorf("%w: %w", ErrExtractionFailed, err)
	}

	defer func() {
		_ = skeleton.Close()
	}()

	written, err := skeleton.Extract(target, archive.WithKeepRoot(i.cfg.KeepArchiveRoot))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExtractionFailed, err)
	}

	logger.InfoKV(ctx, "Extracted skeleton", "files", written, "root", skeleton.Root())

	return nil
}

// cleanUp removes the temporary archive, ignoring every error.
func cleanUp(path string) {
	_ = os.Chmod(path, cleanupFileMode)
	_ = os.Remove(path)
}
