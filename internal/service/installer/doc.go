// Package installer scaffolds a new Grelo application.
//
// Scaffold runs a linear workflow: check the PHP runtime, resolve and guard
// the target directory, download the channel's skeleton archive into a
// temporary file, validate and extract it, remove the temporary file and
// finally hand the project over to composer. Every failure aborts the run
// with one of the exported sentinel errors; removing the temporary archive
// is best-effort and never fails a run.
package installer
