package output

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
)

const (
	// outputFileMode is the permission used when the output file does not exist yet.
	outputFileMode os.FileMode = 0o644

	// outputDirMode is the permission for missing parent directories.
	outputDirMode os.FileMode = 0o755
)

// ErrInvalidKey is returned for keys that would corrupt the output stream.
var ErrInvalidKey = errors.New("invalid output key")

// Values maps output keys to either a string or a []string.
type Values map[string]any

// Writer appends values to the CI output file.
type Writer interface {
	Append(values Values) error
}

// FileWriter appends values to a file, one key per line.
type FileWriter struct {
	// path is the output file location.
	path string
	// normalizeWindowsPaths converts backslashes to slashes in scalar values.
	normalizeWindowsPaths bool
	// mu serialises appends from the same process.
	mu sync.Mutex
}

// Option configures a FileWriter.
type Option func(*FileWriter)

// WithWindowsPathNormalization converts backslashes to forward slashes in scalar values.
func WithWindowsPathNormalization(enabled bool) Option {
	return func(w *FileWriter) {
		w.normalizeWindowsPaths = enabled
	}
}

// NewFileWriter creates a writer appending to path.
func NewFileWriter(path string, opts ...Option) *FileWriter {
	w := &FileWriter{
		path: filepath.Clean(path),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Path returns the output file location.
func (w *FileWriter) Path() string {
	return w.path
}

// Append writes values in sorted key order. Existing content is preserved.
func (w *FileWriter) Append(values Values) error {
	payload, err := Format(values, w.normalizeWindowsPaths)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if err = os.MkdirAll(filepath.Dir(w.path), outputDirMode); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	file, err := os.OpenFile(w.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, outputFileMode)
	if err != nil {
		return fmt.Errorf("open output file: %w", err)
	}

	if _, err = file.WriteString(payload); err != nil {
		_ = file.Close()
		return fmt.Errorf("write output file: %w", err)
	}

	if err = file.Close(); err != nil {
		return fmt.Errorf("close output file: %w", err)
	}

	return nil
}

// Format renders values in sorted key order.
func Format(values Values, normalizeWindowsPaths bool) (string, error) {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}

	slices.Sort(keys)

	var builder strings.Builder

	for _, key := range keys {
		if key == "" || strings.ContainsAny(key, "=\r\n<") {
			return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
		}

		switch value := values[key].(type) {
		case []string:
			formatList(&builder, key, value)
		case string:
			formatScalar(&builder, key, value, normalizeWindowsPaths)
		default:
			formatScalar(&builder, key, fmt.Sprint(value), normalizeWindowsPaths)
		}
	}

	return builder.String(), nil
}

func formatList(builder *strings.Builder, key string, values []string) {
	delimiter := "gh_" + strings.ToUpper(key)

	builder.WriteString(key)
	builder.WriteString("<<")
	builder.WriteString(delimiter)
	builder.WriteByte('\n')
	builder.WriteString(strings.Join(values, "\n"))
	builder.WriteByte('\n')
	builder.WriteString(delimiter)
	builder.WriteByte('\n')
}

//nolint:gochecknoglobals // Constant escaping table.
var scalarEscaper = strings.NewReplacer("%", "%25", "\r", "%0D", "\n", "%0A")

func formatScalar(builder *strings.Builder, key, value string, normalizeWindowsPaths bool) {
	if normalizeWindowsPaths {
		value = strings.ReplaceAll(value, `\`, "/")
	}

	builder.WriteString(key)
	builder.WriteByte('=')
	builder.WriteString(scalarEscaper.Replace(value))
	builder.WriteByte('\n')
}
