package validator

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/oshokin/release-kit/internal/domain/release"
)

//nolint:gochecknoglobals // Constant escaping table.
var globEscaper = strings.NewReplacer(
	`\`, `\\`,
	"*", `\*`,
	"?", `\?`,
	"[", `\[`,
	"]", `\]`,
	"{", `\{`,
	"}", `\}`,
)

// Pattern returns the file name glob for a package identity.
// Name, version and release are matched literally.
func Pattern(format release.Format, name, version, rel string) (string, error) {
	name, version, rel = globEscaper.Replace(name), globEscaper.Replace(version), globEscaper.Replace(rel)

	switch format {
	case release.FormatDeb:
		return fmt.Sprintf("%s_%s-%s_*.deb", name, version, rel), nil
	case release.FormatRPM:
		return fmt.Sprintf("%s-%s-%s*.rpm", name, version, rel), nil
	default:
		return "", release.NewValidationError("unsupported package format: %s", format)
	}
}

// Locate returns the only package in dir matching the identity.
// Zero or several matches are a ValidationError carrying the count.
func Locate(format release.Format, dir, name, version, rel string) (release.LocatedPackage, error) {
	pattern, err := Pattern(format, name, version, rel)
	if err != nil {
		return release.LocatedPackage{}, err
	}

	matches, err := doublestar.Glob(os.DirFS(dir), pattern, doublestar.WithFilesOnly())
	if err != nil {
		return release.LocatedPackage{}, release.NewValidationError("scan %s for %s: %v", dir, pattern, err)
	}

	slices.Sort(matches)

	description := fmt.Sprintf("%s %s package", name, format)
	if len(matches) != 1 {
		return release.LocatedPackage{}, release.NewMatchCountError(description, len(matches))
	}

	return release.LocatedPackage{
		Format:  format,
		Path:    filepath.Join(dir, filepath.FromSlash(matches[0])),
		Name:    name,
		Version: version,
		Release: rel,
	}, nil
}

// EnsureSubset fails when any expected path is absent from actual.
// The error names every missing path and the description.
func EnsureSubset(expected, actual []string, description string) error {
	present := make(map[string]struct{}, len(actual))
	for _, p := range actual {
		present[p] = struct{}{}
	}

	var missing []string

	for _, p := range expected {
		if _, ok := present[p]; !ok {
			missing = append(missing, p)
		}
	}

	if len(missing) > 0 {
		return release.NewMissingPayloadError(description, missing)
	}

	return nil
}
