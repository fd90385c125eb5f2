package manifest

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/release-kit/internal/domain/release"
)

// TestWriteRead verifies the manifest is stored under its fixed name and reads back intact.
func TestWriteRead(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	m := &Manifest{
		Target:    "x86_64-unknown-linux-gnu",
		Platform:  "linux",
		Arch:      "amd64",
		Algorithm: "sha256",
		Files: []release.StageResult{
			{Source: "/w/target/tool", Path: "/w/dist/tool_linux_amd64/tool", Size: 4, Digest: "abcd", Output: "binary_path"},
		},
	}

	path, err := Write(dir, m)
	require.NoError(t, err)
	require.Equal(t, Path(dir), path)

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(contents), "algorithm: sha256")

	loaded, err := Read(dir)
	require.NoError(t, err)
	require.Equal(t, m, loaded)
}

// TestReadMissing verifies a missing manifest is reported.
func TestReadMissing(t *testing.T) {
	t.Parallel()

	_, err := Read(t.TempDir())
	require.ErrorIs(t, err, os.ErrNotExist)
}
