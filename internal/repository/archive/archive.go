package archive

import (
	"io/fs"
	"path"
	"slices"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/oshokin/release-kit/internal/domain/release"
)

// mediaTypes maps package formats to the media type their files must sniff as.
//
//nolint:gochecknoglobals // Read-only lookup table.
var mediaTypes = map[release.Format]string{
	release.FormatDeb: "application/vnd.debian.binary-package",
	release.FormatRPM: "application/x-rpm",
}

// Metadata is the identity and payload of one package file.
type Metadata struct {
	// Name is the package name.
	Name string
	// Version is the upstream version. For deb packages it is the full
	// Debian version including any revision.
	Version string
	// Release is the RPM release; empty for deb packages.
	Release string
	// Architecture is the architecture recorded in the package.
	Architecture string
	// Files maps absolute payload paths to their modes.
	Files map[string]fs.FileMode
}

// Paths returns the payload paths in sorted order.
func (m *Metadata) Paths() []string {
	paths := make([]string, 0, len(m.Files))
	for p := range m.Files {
		paths = append(paths, p)
	}

	slices.Sort(paths)

	return paths
}

// Inspector reads package metadata.
type Inspector interface {
	Inspect(format release.Format, path string) (*Metadata, error)
}

// Reader inspects packages natively.
type Reader struct{}

// NewReader creates a native package reader.
func NewReader() *Reader {
	return &Reader{}
}

// Inspect checks that path sniffs as a format package and dispatches to its reader.
func (r *Reader) Inspect(format release.Format, path string) (*Metadata, error) {
	if err := sniff(format, path); err != nil {
		return nil, err
	}

	switch format {
	case release.FormatDeb:
		return ReadDeb(path)
	case release.FormatRPM:
		return ReadRPM(path)
	default:
		return nil, release.NewValidationError("unsupported package format: %s", format)
	}
}

func sniff(format release.Format, path string) error {
	expected, ok := mediaTypes[format]
	if !ok {
		return release.NewValidationError("unsupported package format: %s", format)
	}

	detected, err := mimetype.DetectFile(path)
	if err != nil {
		return inspectError(string(format), path, err)
	}

	if !detected.Is(expected) {
		return release.NewValidationError("%s is not a %s package (detected %s)", path, format, detected.String())
	}

	return nil
}

// normalizePayloadPath converts archive member names such as ./usr/bin/tool
// or usr/share/doc/ into absolute slash paths without a trailing slash.
func normalizePayloadPath(name string) string {
	name = strings.TrimPrefix(name, ".")
	if !strings.HasPrefix(name, "/") {
		name = "/" + name
	}

	return path.Clean(name)
}

func inspectError(kind, p string, err error) error {
	return release.NewValidationError("inspect %s package %s: %v", kind, p, err)
}
