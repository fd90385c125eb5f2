// Package stager copies build outputs into a per-target staging directory.
//
// Each configured artefact is resolved against the workspace (direct path or
// glob, newest match wins), copied under the staging directory, hashed, and
// given a checksum sidecar. The run writes staging-manifest.yaml and appends
// its results to the CI output file. A lock file next to the staging
// directory rejects concurrent runs against the same target.
package stager
