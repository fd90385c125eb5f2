// Package integration holds end-to-end tests that stage a workspace and
// validate the packages found in the staged output.
package integration
