package validator

import (
	"regexp"
	"strings"

	"github.com/oshokin/release-kit/internal/domain/release"
)

//nolint:gochecknoglobals // Compiled once.
var formatSeparators = regexp.MustCompile(`[\s,]+`)

// NormalizeFormats splits entries on commas and whitespace, lower-cases and
// de-duplicates them. No entries means deb only.
func NormalizeFormats(values []string) ([]release.Format, error) {
	var formats []release.Format

	seen := make(map[release.Format]struct{})

	for _, entry := range values {
		for _, token := range formatSeparators.Split(strings.TrimSpace(entry), -1) {
			if token == "" {
				continue
			}

			format, err := release.ParseFormat(token)
			if err != nil {
				return nil, err
			}

			if _, ok := seen[format]; ok {
				continue
			}

			seen[format] = struct{}{}
			formats = append(formats, format)
		}
	}

	if len(formats) == 0 {
		return []release.Format{release.FormatDeb}, nil
	}

	return formats, nil
}

// NormalizePaths splits entries on newlines, trims them and keeps the first
// occurrence of each. Every path must be absolute.
func NormalizePaths(values []string) ([]string, error) {
	var paths []string

	for _, entry := range values {
		for _, line := range strings.Split(entry, "\n") {
			cleaned := strings.TrimSpace(line)
			if cleaned == "" {
				continue
			}

			if !strings.HasPrefix(cleaned, "/") {
				return nil, release.NewValidationError("expected absolute path but received '%s'", cleaned)
			}

			paths = append(paths, cleaned)
		}
	}

	return dedupe(paths), nil
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))

	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}

		seen[v] = struct{}{}
		result = append(result, v)
	}

	return result
}

// preparePaths returns the expected payload and executable paths.
// The primary binary is always expected, and is the default executable.
// Every executable is also expected in the payload.
func preparePaths(binName string, expected, executables []string) ([]string, []string, error) {
	defaultBinary := "/usr/bin/" + binName

	expectedPaths, err := NormalizePaths(expected)
	if err != nil {
		return nil, nil, err
	}

	executablePaths, err := NormalizePaths(executables)
	if err != nil {
		return nil, nil, err
	}

	expectedPaths = dedupe(append([]string{defaultBinary}, expectedPaths...))

	if len(executablePaths) == 0 {
		executablePaths = []string{defaultBinary}
	}

	expectedPaths = dedupe(append(expectedPaths, executablePaths...))

	return expectedPaths, executablePaths, nil
}
