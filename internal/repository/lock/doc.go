// Package lock guards a staging directory against concurrent runs with a
// PID lock file. Locks left behind by processes that no longer exist are
// replaced.
package lock
