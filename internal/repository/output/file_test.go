package output

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestFileWriterAppends verifies values are appended rather than overwriting earlier content.
func TestFileWriterAppends(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "github_output")
	w := NewFileWriter(path)

	require.NoError(t, w.Append(Values{"first": "1"}))
	require.NoError(t, w.Append(Values{"second": "2"}))

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "first=1\nsecond=2\n", string(contents))
}

// TestFormatEscapesAndSorts verifies scalar escaping, list heredocs and key ordering.
func TestFormatEscapesAndSorts(t *testing.T) {
	t.Parallel()

	got, err := Format(Values{
		"zeta":   "line1\nline2",
		"alpha":  "100%",
		"files":  []string{"a", "b"},
		"count":  3,
		"return": "a\rb",
	}, false)
	require.NoError(t, err)
	require.Equal(t,
		"alpha=100%25\ncount=3\nfiles<<gh_FILES\na\nb\ngh_FILES\nreturn=a%0Db\nzeta=line1%0Aline2\n",
		got)
}

// TestFormatNormalizesWindowsPaths verifies optional backslash conversion.
func TestFormatNormalizesWindowsPaths(t *testing.T) {
	t.Parallel()

	got, err := Format(Values{"path": `C:\Users\test`}, true)
	require.NoError(t, err)
	require.Equal(t, "path=C:/Users/test\n", got)

	got, err = Format(Values{"path": `C:\Users\test`}, false)
	require.NoError(t, err)
	require.Equal(t, "path=C:\\Users\\test\n", got)
}

// TestFormatRejectsInvalidKeys verifies keys that would break the stream are refused.
func TestFormatRejectsInvalidKeys(t *testing.T) {
	t.Parallel()

	for _, key := range []string{"", "a=b", "a\nb", "a<<b"} {
		_, err := Format(Values{key: "x"}, false)
		require.ErrorIs(t, err, ErrInvalidKey, key)
	}
}
