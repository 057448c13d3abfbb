// Package config defines the installer settings and provides helpers to
// load, validate and save them in YAML format.
//
// Every field has a default, so the settings file is optional. The Config
// type carries the archive URL template, the branch names per channel and
// the commands used to run composer.
package config
