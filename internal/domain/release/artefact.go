package release

import (
	"fmt"
	"strings"
)

// Format is a Linux package format handled by the validator.
type Format string

const (
	// FormatDeb is a Debian binary package.
	FormatDeb Format = "deb"
	// FormatRPM is an RPM binary package.
	FormatRPM Format = "rpm"
)

// ParseFormat converts user input into a Format.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatDeb:
		return FormatDeb, nil
	case FormatRPM:
		return FormatRPM, nil
	default:
		return "", NewValidationError("unsupported package format: %s", s)
	}
}

// PayloadLabel names the payload of a package in this format for error messages.
func (f Format) PayloadLabel() string {
	switch f {
	case FormatDeb:
		return "Debian package payload"
	case FormatRPM:
		return "RPM package payload"
	default:
		return fmt.Sprintf("%s package payload", string(f))
	}
}

// StageResult describes one file produced by a staging run.
type StageResult struct {
	// Source is the resolved build output the file was copied from.
	Source string `yaml:"source" json:"source"`
	// Path is the destination path inside the staging directory.
	Path string `yaml:"path" json:"path"`
	// Size is the file size in bytes.
	Size int64 `yaml:"size" json:"size"`
	// Digest is the hex-encoded content hash.
	Digest string `yaml:"digest" json:"digest"`
	// Output is the CI output key bound to this file, if any.
	Output string `yaml:"output,omitempty" json:"output,omitempty"`
}

// StageReport aggregates a completed staging run.
type StageReport struct {
	// StagingDir is the directory holding every staged file.
	StagingDir string
	// Algorithm is the checksum algorithm identifier used for every digest.
	Algorithm string
	// Files lists staged files in configuration order.
	Files []StageResult
	// Outputs maps configured output keys to staged paths.
	Outputs map[string]string
	// Checksums maps staged file names to digests.
	Checksums map[string]string
}

// LocatedPackage is the single artefact matching a package identity.
type LocatedPackage struct {
	// Format is the package format searched for.
	Format Format
	// Path is the absolute or directory-relative path of the artefact.
	Path string
	// Name, Version and Release are the identity used to find it.
	Name    string
	Version string
	Release string
}
