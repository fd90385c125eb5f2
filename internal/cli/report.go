package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/oshokin/release-kit/internal/domain/release"
)

// annotationEscaper escapes workflow command values.
//
//nolint:gochecknoglobals // Immutable replacer shared by every report.
var annotationEscaper = strings.NewReplacer("%", "%25", "\r", "%0D", "\n", "%0A")

// FormatError renders err as a workflow error annotation titled by its kind.
func FormatError(err error) string {
	title := release.KindOf(err).Title()

	return fmt.Sprintf("::error title=%s::%s", title, annotationEscaper.Replace(err.Error()))
}

// PrintError writes the annotation for err to w. Nil errors print nothing.
func PrintError(w io.Writer, err error) {
	if err == nil {
		return
	}

	_, _ = fmt.Fprintln(w, FormatError(err))
}
