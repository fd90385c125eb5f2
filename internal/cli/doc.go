// Package cli holds the pieces shared by the release command roots: binding
// of INPUT_<FLAG> environment variables to cobra flags, log level handling
// and CI-formatted error reporting.
package cli
