// Package validator finds the single freshly built package per format and
// checks its metadata and payload against the release expectations.
//
// Locating treats zero or several matches as a failure: signing and
// publishing must act on exactly one artefact. Validation only reads the
// packages directory.
package validator
