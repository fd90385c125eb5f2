// Package version exposes build metadata for the release binaries.
//
// Version, Commit and BuildTime are injected through -ldflags "-X" by the
// release workflow; local builds report the development defaults.
// Short feeds log fields, Full backs the `version` subcommand.
package version
