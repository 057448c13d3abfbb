// Package packager prepares the release description consumed by self-update.
//
// It computes checksums for the platform binaries found in a release
// directory, writes grelo-installer-version.yaml next to them and records
// the update folder in the settings file.
package packager
