// Package checksum computes streaming content digests for staged artefacts
// and writes sha256sum-compatible sidecar files.
//
// Digests depend only on file bytes. The algorithm identifier is recorded
// with every digest so manifests from different runs stay comparable.
package checksum
