// Package release holds the domain model shared by the resolver, the staging
// pipeline and the package validator: staged file records, located packages,
// package formats and the single tagged error type every component returns.
package release
