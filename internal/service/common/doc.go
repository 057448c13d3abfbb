// Package common contains the HTTP client shared by the installer and the
// self-updater.
//
// Client wraps net/http with a user agent, an optional per-request timeout
// and strict status handling, so callers only ever see a readable body or
// an error naming the URL.
//
//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common
