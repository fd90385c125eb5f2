// Package manifest persists the staging manifest, the record of every file
// produced by one staging run, as YAML inside the staging directory.
package manifest
