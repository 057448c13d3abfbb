// Package archive opens downloaded ZIP archives with strict validation and
// extracts them into a destination directory.
//
// Open rejects anything that is not a well-formed ZIP, including entries
// whose CRC does not match, and reports it as ErrNotArchive so callers can
// tell "we got garbage" apart from "we could not read the file".
// Extract walks the entries, optionally strips the single top-level folder
// produced by GitHub branch archives, and refuses entries that would land
// outside the destination.
package archive
