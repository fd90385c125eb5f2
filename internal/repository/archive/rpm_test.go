package archive

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestRPMFileMode verifies raw st_mode values keep permissions and file type.
func TestRPMFileMode(t *testing.T) {
	t.Parallel()

	require.Equal(t, fs.FileMode(0o755), rpmFileMode(0o100755))
	require.True(t, rpmFileMode(0o040755).IsDir())
	require.Equal(t, fs.ModeSymlink|0o777, rpmFileMode(0o120777))
}

// TestNormalizePayloadPath verifies archive member names become absolute paths.
func TestNormalizePayloadPath(t *testing.T) {
	t.Parallel()

	require.Equal(t, "/usr/bin/tool", normalizePayloadPath("./usr/bin/tool"))
	require.Equal(t, "/usr/share/doc", normalizePayloadPath("usr/share/doc/"))
	require.Equal(t, "/usr/bin/tool", normalizePayloadPath("/usr/bin/tool"))
	require.Equal(t, "/", normalizePayloadPath("./"))
}
