package validator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/oshokin/release-kit/internal/config"
	"github.com/oshokin/release-kit/internal/domain/release"
	"github.com/oshokin/release-kit/internal/domain/target"
	"github.com/oshokin/release-kit/internal/logger"
	"github.com/oshokin/release-kit/internal/repository/archive"
)

const (
	// DefaultTarget is validated when no target triple is given.
	DefaultTarget = "x86_64-unknown-linux-gnu"

	// defaultRelease is the package release used when none is given.
	defaultRelease = "1"

	// defaultPackagesDir is the packages directory relative to the project.
	defaultPackagesDir = "dist"
)

// Options contains inputs for the validation entry point.
// Empty fields fall back to the [packages.<format>] table of ConfigPath when set.
type Options struct {
	// BinName is the primary binary, expected at /usr/bin/<BinName>.
	BinName string
	// PackageName defaults to BinName.
	PackageName string
	// Version may carry a leading "v".
	Version string
	// Release defaults to 1.
	Release string
	// Target is the target triple the packages were built for.
	Target string
	// Arch overrides the packaging architecture derived from Target.
	Arch string
	// Formats lists package formats, comma or whitespace separated. Defaults to deb.
	Formats []string
	// PackagesDir holds the built packages. Defaults to <ProjectDir>/dist.
	PackagesDir string
	// ProjectDir defaults to the working directory.
	ProjectDir string
	// ExpectedPaths and ExecutablePaths are absolute payload paths.
	ExpectedPaths   []string
	ExecutablePaths []string
	// ConfigPath is an optional staging configuration supplying package defaults.
	ConfigPath string
}

// Run validates one package per requested format and returns the located packages.
func Run(ctx context.Context, opts *Options) ([]release.LocatedPackage, error) {
	ctx = logger.WithName(ctx, "release-validate")

	projectDir, err := projectDirectory(opts.ProjectDir)
	if err != nil {
		return nil, err
	}

	var doc *config.Document

	if opts.ConfigPath != "" {
		if doc, err = config.Read(resolveAgainst(projectDir, opts.ConfigPath)); err != nil {
			return nil, err
		}
	}

	packagesDir := resolveAgainst(projectDir, firstNonEmpty(opts.PackagesDir, defaultPackagesDir))
	if info, statErr := os.Stat(packagesDir); statErr != nil || !info.IsDir() {
		return nil, release.NewValidationError("package directory not found: %s", packagesDir)
	}

	formats, err := NormalizeFormats(opts.Formats)
	if err != nil {
		return nil, err
	}

	v := New(archive.NewReader())
	located := make([]release.LocatedPackage, 0, len(formats))

	for _, format := range formats {
		exp, expErr := BuildExpectation(opts, doc, format)
		if expErr != nil {
			return nil, expErr
		}

		logger.InfoKV(ctx, "Validating package",
			"format", format,
			"name", exp.Name,
			"version", exp.Version,
			"release", exp.Release,
			"arch", exp.Arch)

		pkg, validateErr := v.Validate(ctx, format, packagesDir, exp)
		if validateErr != nil {
			return nil, fmt.Errorf("validate %s package: %w", format, validateErr)
		}

		located = append(located, pkg)
	}

	return located, nil
}

// BuildExpectation normalises the inputs for format, filling gaps from doc.
func BuildExpectation(opts *Options, doc *config.Document, format release.Format) (*Expectation, error) {
	var (
		pkg     config.Package
		binName = strings.TrimSpace(opts.BinName)
	)

	if doc != nil {
		var err error
		if pkg, _, err = doc.PackageFor(format); err != nil {
			return nil, err
		}

		binName = firstNonEmpty(binName, doc.BinName())
	}

	if binName == "" {
		return nil, release.NewValidationError("bin-name input is required")
	}

	ver := strings.TrimLeft(firstNonEmpty(strings.TrimSpace(opts.Version), pkg.Version), "v")
	if ver == "" {
		return nil, release.NewValidationError("version input is required")
	}

	triple := firstNonEmpty(strings.TrimSpace(opts.Target), DefaultTarget)

	pair, err := target.Resolve(triple)
	if err != nil {
		return nil, err
	}

	expected, executables, err := preparePaths(binName,
		firstNonEmptySlice(opts.ExpectedPaths, pkg.Payload),
		firstNonEmptySlice(opts.ExecutablePaths, pkg.Executables))
	if err != nil {
		return nil, err
	}

	return &Expectation{
		Name:            firstNonEmpty(strings.TrimSpace(opts.PackageName), pkg.Name, binName),
		Version:         ver,
		Release:         firstNonEmpty(strings.TrimSpace(opts.Release), pkg.Release, defaultRelease),
		Arch:            firstNonEmpty(strings.TrimSpace(opts.Arch), pair.Packaging),
		DebianArch:      pair.Debian,
		ExpectedPaths:   expected,
		ExecutablePaths: executables,
	}, nil
}

func projectDirectory(dir string) (string, error) {
	if dir != "" {
		return filepath.Clean(dir), nil
	}

	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}

	return wd, nil
}

func resolveAgainst(base, path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}

	return filepath.Join(base, path)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}

	return ""
}

func firstNonEmptySlice(values ...[]string) []string {
	for _, v := range values {
		if len(v) > 0 {
			return v
		}
	}

	return nil
}
