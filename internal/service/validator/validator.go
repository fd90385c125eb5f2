package validator

import (
	"context"
	"slices"
	"strings"

	"pault.ag/go/debian/version"

	"github.com/oshokin/release-kit/internal/domain/release"
	"github.com/oshokin/release-kit/internal/domain/target"
	"github.com/oshokin/release-kit/internal/logger"
	"github.com/oshokin/release-kit/internal/repository/archive"
)

// Expectation describes what a package built for one target must contain.
type Expectation struct {
	// Name is the package name.
	Name string
	// Version is the upstream version without a leading "v".
	Version string
	// Release is the package release or Debian revision.
	Release string
	// Arch is the packaging architecture label.
	Arch string
	// DebianArch is the Debian architecture label.
	DebianArch string
	// ExpectedPaths must all appear in the payload.
	ExpectedPaths []string
	// ExecutablePaths must appear in the payload with an execute bit.
	ExecutablePaths []string
}

// DebianVersion returns version-release.
func (e *Expectation) DebianVersion() string {
	return e.Version + "-" + e.Release
}

// Validator checks located packages against an Expectation.
type Validator struct {
	// inspector reads package metadata.
	inspector archive.Inspector
}

// New creates a Validator reading packages through inspector.
func New(inspector archive.Inspector) *Validator {
	return &Validator{inspector: inspector}
}

// Validate locates the package for format in dir and checks it.
func (v *Validator) Validate(ctx context.Context, format release.Format, dir string, exp *Expectation) (release.LocatedPackage, error) {
	located, err := Locate(format, dir, exp.Name, exp.Version, exp.Release)
	if err != nil {
		return release.LocatedPackage{}, err
	}

	logger.InfoKV(ctx, "Located package", "format", format, "path", located.Path)

	meta, err := v.inspector.Inspect(format, located.Path)
	if err != nil {
		return release.LocatedPackage{}, err
	}

	if err = checkMetadata(format, meta, exp); err != nil {
		return release.LocatedPackage{}, err
	}

	if err = EnsureSubset(exp.ExpectedPaths, meta.Paths(), format.PayloadLabel()); err != nil {
		return release.LocatedPackage{}, err
	}

	if err = checkExecutables(meta, exp.ExecutablePaths); err != nil {
		return release.LocatedPackage{}, err
	}

	logger.InfoKV(ctx, "Package validated",
		"format", format,
		"name", meta.Name,
		"version", meta.Version,
		"architecture", meta.Architecture,
		"files", len(meta.Files))

	return located, nil
}

func checkMetadata(format release.Format, meta *archive.Metadata, exp *Expectation) error {
	if meta.Name != exp.Name {
		return mismatch("unexpected package name", exp.Name, meta.Name)
	}

	switch format {
	case release.FormatDeb:
		return checkDebMetadata(meta, exp)
	case release.FormatRPM:
		return checkRPMMetadata(meta, exp)
	default:
		return release.NewValidationError("unsupported package format: %s", format)
	}
}

func checkDebMetadata(meta *archive.Metadata, exp *Expectation) error {
	if !debVersionMatches(meta.Version, exp.DebianVersion(), exp.Version) {
		return mismatch("unexpected deb version", exp.DebianVersion(), meta.Version)
	}

	if meta.Architecture != exp.DebianArch {
		return mismatch("unexpected deb architecture", exp.DebianArch, meta.Architecture)
	}

	return nil
}

// debVersionMatches compares Debian versions semantically, so 1.0-1 equals 0:1.0-1.
func debVersionMatches(actual string, candidates ...string) bool {
	parsed, err := version.Parse(actual)
	if err != nil {
		return slices.Contains(candidates, actual)
	}

	for _, candidate := range candidates {
		expected, parseErr := version.Parse(candidate)
		if parseErr != nil {
			if candidate == actual {
				return true
			}

			continue
		}

		if version.Compare(parsed, expected) == 0 {
			return true
		}
	}

	return false
}

func checkRPMMetadata(meta *archive.Metadata, exp *Expectation) error {
	if meta.Version != exp.Version {
		return mismatch("unexpected rpm version", exp.Version, meta.Version)
	}

	if meta.Release != "" && !strings.HasPrefix(meta.Release, exp.Release) {
		return release.NewValidationError("unexpected rpm release: expected prefix '%s', found '%s'", exp.Release, meta.Release)
	}

	accepted := target.RPMArchitectures(exp.Arch)
	if !slices.Contains(accepted, meta.Architecture) {
		return release.NewValidationError("unexpected rpm architecture: expected one of %v, found '%s'", accepted, meta.Architecture)
	}

	return nil
}

func checkExecutables(meta *archive.Metadata, paths []string) error {
	for _, p := range paths {
		mode, ok := meta.Files[p]
		if !ok {
			return release.NewMissingPayloadError("executable", []string{p})
		}

		if mode.IsDir() || mode.Perm()&0o111 == 0 {
			return release.NewValidationError("payload path %s is not executable (mode %#o)", p, mode.Perm())
		}
	}

	return nil
}

func mismatch(label, expected, actual string) error {
	return release.NewValidationError("%s: expected '%s', found '%s'", label, expected, actual)
}
