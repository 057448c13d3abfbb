package archive

import (
	stdzip "archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"
	"github.com/mholt/archiver"
)

const (
	// defaultDirMode is applied to directories created during extraction.
	defaultDirMode os.FileMode = 0o755
	// defaultFileMode is applied to entries that carry no permission bits.
	defaultFileMode os.FileMode = 0o644
)

var (
	// ErrNotArchive reports content that is not a valid ZIP archive.
	ErrNotArchive = errors.New("not a valid zip archive")

	// errUnsafePath reports an entry that would be written outside the destination.
	errUnsafePath = errors.New("entry escapes destination")
)

// Archive is a strictly validated ZIP file ready for extraction.
type Archive struct {
	// path is the location of the archive on disk.
	path string
	// reader keeps the archive open between validation and extraction.
	reader *zip.ReadCloser
	// root is the single top-level folder shared by all entries, or "".
	root string
}

// ExtractOption tunes Extract.
type ExtractOption func(*extractSettings)

// extractSettings holds the options collected for one Extract call.
type extractSettings struct {
	keepRoot bool
}

// WithKeepRoot controls whether the shared top-level folder is kept.
func WithKeepRoot(keep bool) ExtractOption {
	return func(s *extractSettings) {
		s.keepRoot = keep
	}
}

// Open opens the archive at path and validates its structure and every entry's checksum.
// Content that is not a ZIP archive yields an error wrapping ErrNotArchive.
func Open(path string) (*Archive, error) {
	reader, err := zip.OpenReader(filepath.Clean(path))
	if err != nil {
		if isFormatError(err) {
			return nil, fmt.Errorf("%w: %w", ErrNotArchive, err)
		}

		return nil, fmt.Errorf("open archive: %w", err)
	}

	a := &Archive{
		path:   path,
		reader: reader,
	}

	if err = a.verify(); err != nil {
		_ = reader.Close()

		return nil, err
	}

	a.root = commonRoot(reader.File)

	return a, nil
}

// Entries returns the number of entries in the archive.
func (a *Archive) Entries() int {
	return len(a.reader.File)
}

// Root returns the single top-level folder shared by every entry, or "".
func (a *Archive) Root() string {
	return a.root
}

// Close releases the underlying file handle.
func (a *Archive) Close() error {
	if a == nil || a.reader == nil {
		return nil
	}

	return a.reader.Close()
}

// Extract writes every entry below dest, creating dest and its parents.
// It returns the number of regular files written.
func (a *Archive) Extract(dest string, opts ...ExtractOption) (int, error) {
	settings := new(extractSettings)
	for _, opt := range opts {
		opt(settings)
	}

	if err := os.MkdirAll(dest, defaultDirMode); err != nil {
		return 0, fmt.Errorf("create destination: %w", err)
	}

	strip := ""
	if !settings.keepRoot {
		strip = a.root
	}

	var written int

	walker := &archiver.Zip{
		MkdirAll:          true,
		OverwriteExisting: true,
	}

	err := walker.Walk(a.path, func(f archiver.File) error {
		name := entryName(f)

		rel, ok := relativeName(name, strip)
		if !ok {
			return nil
		}

		target, err := safeJoin(dest, rel)
		if err != nil {
			return err
		}

		switch {
		case f.IsDir():
			return os.MkdirAll(target, defaultDirMode)
		case f.Mode()&os.ModeSymlink != 0:
			return writeSymlink(f, dest, target)
		default:
			if err = writeFile(f, target); err != nil {
				return err
			}

			written++

			return nil
		}
	})
	if err != nil {
		return written, fmt.Errorf("extract %s: %w", filepath.Base(a.path), err)
	}

	return written, nil
}

// verify reads every entry so that checksum mismatches surface before extraction.
func (a *Archive) verify() error {
	for _, f := range a.reader.File {
		if f.FileInfo().IsDir() {
			continue
		}

		if err := drain(f); err != nil {
			if isFormatError(err) {
				return fmt.Errorf("%w: entry %s: %w", ErrNotArchive, f.Name, err)
			}

			return fmt.Errorf("read entry %s: %w", f.Name, err)
		}
	}

	return nil
}

// drain reads one entry to the end, which makes the reader check its CRC.
func drain(f *zip.File) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}

	defer func() {
		_ = rc.Close()
	}()

	_, err = io.Copy(io.Discard, rc)

	return err
}

// isFormatError reports errors meaning the bytes are not a usable ZIP.
func isFormatError(err error) bool {
	return errors.Is(err, zip.ErrFormat) ||
		errors.Is(err, zip.ErrChecksum) ||
		errors.Is(err, zip.ErrAlgorithm) ||
		errors.Is(err, io.ErrUnexpectedEOF)
}

// commonRoot returns the top-level folder every entry lives in, if there is exactly one.
func commonRoot(files []*zip.File) string {
	root := ""

	for _, f := range files {
		name := strings.TrimPrefix(path.Clean("/"+f.Name), "/")

		first, _, nested := strings.Cut(name, "/")
		if !nested && !f.FileInfo().IsDir() {
			return ""
		}

		if root == "" {
			root = first
		} else if first != root {
			return ""
		}
	}

	return root
}

// entryName returns the full slash separated name of a walked entry.
func entryName(f archiver.File) string {
	if header, ok := f.Header.(stdzip.FileHeader); ok {
		return header.Name
	}

	return f.Name()
}

// relativeName strips the root folder from name.
// It reports false for the root folder itself, which has nothing to create.
func relativeName(name, root string) (string, bool) {
	name = strings.TrimPrefix(path.Clean("/"+name), "/")
	if root == "" {
		return name, name != ""
	}

	if name == root {
		return "", false
	}

	return strings.TrimPrefix(name, root+"/"), true
}

// safeJoin joins rel onto dest and rejects results outside dest.
func safeJoin(dest, rel string) (string, error) {
	local := filepath.FromSlash(rel)
	if !filepath.IsLocal(local) {
		return "", fmt.Errorf("%s: %w", rel, errUnsafePath)
	}

	return filepath.Join(dest, local), nil
}

// writeFile copies a regular entry to target.
func writeFile(f archiver.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), defaultDirMode); err != nil {
		return err
	}

	mode := f.Mode().Perm()
	if mode == 0 {
		mode = defaultFileMode
	}

	out, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, mode)
	if err != nil {
		return err
	}

	if _, err = io.Copy(out, f); err != nil {
		_ = out.Close()

		return err
	}

	return out.Close()
}

// writeSymlink recreates a symlink entry whose content is the link target.
func writeSymlink(f archiver.File, dest, target string) error {
	raw, err := io.ReadAll(f)
	if err != nil {
		return err
	}

	link := string(raw)

	resolved := link
	if !filepath.IsAbs(resolved) {
		resolved = filepath.Join(filepath.Dir(target), filepath.FromSlash(link))
	}

	rel, err := filepath.Rel(dest, resolved)
	if err != nil || !filepath.IsLocal(rel) {
		return fmt.Errorf("symlink %s -> %s: %w", target, link, errUnsafePath)
	}

	if err = os.MkdirAll(filepath.Dir(target), defaultDirMode); err != nil {
		return err
	}

	_ = os.Remove(target)

	return os.Symlink(link, target)
}
