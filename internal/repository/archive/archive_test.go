package archive_test

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/release-kit/internal/domain/release"
	"github.com/oshokin/release-kit/internal/repository/archive"
	"github.com/oshokin/release-kit/internal/repository/archive/archivetest"
)

// TestReadDebCompressions verifies control fields and payload listing for every member compression.
func TestReadDebCompressions(t *testing.T) {
	t.Parallel()

	for _, compression := range []archivetest.Compression{archivetest.Gzip, archivetest.XZ, archivetest.Zstd, archivetest.None} {
		compression := compression
		t.Run("compression="+string(compression), func(t *testing.T) {
			t.Parallel()

			deb := &archivetest.Deb{
				Package:      "tool",
				Version:      "1.2.3-1",
				Architecture: "amd64",
				Compression:  compression,
				Files: []archivetest.File{
					{Path: "usr/", Mode: 0o755},
					{Path: "usr/bin/", Mode: 0o755},
					{Path: "usr/bin/tool", Mode: 0o755, Body: "#!/bin/sh\n"},
					{Path: "usr/share/doc/tool/README", Mode: 0o644, Body: "odd"},
				},
			}

			path := filepath.Join(t.TempDir(), deb.Filename())
			require.NoError(t, archivetest.WriteDeb(path, deb))

			meta, err := archive.NewReader().Inspect(release.FormatDeb, path)
			require.NoError(t, err)
			require.Equal(t, "tool", meta.Name)
			require.Equal(t, "1.2.3-1", meta.Version)
			require.Equal(t, "amd64", meta.Architecture)
			require.Empty(t, meta.Release)
			require.Equal(t,
				[]string{"/usr", "/usr/bin", "/usr/bin/tool", "/usr/share/doc/tool/README"},
				meta.Paths())
			require.Equal(t, fs.FileMode(0o755), meta.Files["/usr/bin/tool"].Perm())
			require.True(t, meta.Files["/usr/bin"].IsDir())
		})
	}
}

// TestReadDebRejectsGarbage verifies non-ar input is a validation error naming the file.
func TestReadDebRejectsGarbage(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "broken.deb")
	require.NoError(t, os.WriteFile(path, []byte("not a package"), 0o600))

	_, err := archive.ReadDeb(path)
	require.ErrorIs(t, err, release.ErrValidation)
	require.Contains(t, err.Error(), path)
}

// TestReadRPM verifies header identity and payload modes of a generated RPM.
func TestReadRPM(t *testing.T) {
	t.Parallel()

	rpm := &archivetest.RPM{
		Name:    "tool",
		Version: "1.2.3",
		Release: "1.el9",
		Arch:    "x86_64",
		Files: []archivetest.File{
			{Path: "usr/bin/tool", Mode: 0o755, Body: "#!/bin/sh\n"},
			{Path: "usr/share/doc/tool/", Mode: 0o755},
			{Path: "usr/share/doc/tool/README", Mode: 0o644, Body: "docs"},
		},
	}

	path := filepath.Join(t.TempDir(), rpm.Filename())
	require.NoError(t, archivetest.WriteRPM(path, rpm))

	meta, err := archive.NewReader().Inspect(release.FormatRPM, path)
	require.NoError(t, err)
	require.Equal(t, "tool", meta.Name)
	require.Equal(t, "1.2.3", meta.Version)
	require.Equal(t, "1.el9", meta.Release)
	require.Equal(t, "x86_64", meta.Architecture)
	require.Equal(t,
		[]string{"/usr/bin/tool", "/usr/share/doc/tool", "/usr/share/doc/tool/README"},
		meta.Paths())
	require.Equal(t, fs.FileMode(0o755), meta.Files["/usr/bin/tool"])
	require.Equal(t, fs.FileMode(0o644), meta.Files["/usr/share/doc/tool/README"])
	require.True(t, meta.Files["/usr/share/doc/tool"].IsDir())
}

// TestReadRPMRejectsGarbage verifies unreadable RPM headers are validation errors.
func TestReadRPMRejectsGarbage(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "broken.rpm")
	require.NoError(t, os.WriteFile(path, []byte("not a package"), 0o600))

	_, err := archive.NewReader().Inspect(release.FormatRPM, path)
	require.ErrorIs(t, err, release.ErrValidation)
}

// TestInspectSniffsFormat verifies a deb is refused when inspected as an RPM.
func TestInspectSniffsFormat(t *testing.T) {
	t.Parallel()

	deb := &archivetest.Deb{Package: "tool", Version: "1.0-1", Architecture: "amd64", Compression: archivetest.Gzip}
	path := filepath.Join(t.TempDir(), "tool-1.0-1.x86_64.rpm")
	require.NoError(t, archivetest.WriteDeb(path, deb))

	_, err := archive.NewReader().Inspect(release.FormatRPM, path)
	require.ErrorIs(t, err, release.ErrValidation)
	require.Contains(t, err.Error(), "is not a rpm package (detected application/vnd.debian.binary-package)")
}

// TestParseControl verifies field decoding, continuation lines and required fields.
func TestParseControl(t *testing.T) {
	t.Parallel()

	fields, err := archive.ParseControl(strings.NewReader(
		"Package: tool\nVersion: 1.0-1\nArchitecture: arm64\nDescription: short\n long text\n"))
	require.NoError(t, err)
	require.Equal(t, "tool", fields.Package)
	require.Equal(t, "1.0-1", fields.Version)
	require.Equal(t, "arm64", fields.Architecture)
	require.Contains(t, fields.Description, "long text")

	_, err = archive.ParseControl(strings.NewReader("Version: 1.0-1\nArchitecture: arm64\n"))
	require.Error(t, err)
}
