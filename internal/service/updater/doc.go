// Package updater replaces the running installer with a newer release.
//
// It downloads a YAML release description from the configured update
// folder, compares its version with the running build, downloads the
// artifact for the current platform and atomically swaps the executable
// after verifying the artifact's SHA-512 checksum.
package updater
