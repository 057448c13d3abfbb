// Package preflight verifies the host can run a Grelo project before the
// installer touches the network or the filesystem.
package preflight
