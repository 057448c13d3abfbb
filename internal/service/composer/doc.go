// Package composer resolves and runs the dependency manager that finishes a
// scaffolded project.
//
// The invocation prefers a composer.phar sitting in the working directory
// and falls back to the system-wide command. ShellRunner executes the
// resulting command line through the platform shell, streaming combined
// output line by line, or hands the child the controlling terminal so
// credential prompts work.
package composer
