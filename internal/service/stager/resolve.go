package stager

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/oshokin/release-kit/internal/config"
)

// attempt records one rendered source pattern.
type attempt struct {
	template string
	rendered string
}

func (a attempt) String() string {
	return fmt.Sprintf("'%s' -> '%s'", a.template, a.rendered)
}

// resolveSource renders each pattern in turn and returns the first existing match.
// An empty path with a nil error means nothing matched.
func resolveSource(workspace string, artefact *config.Artefact, values map[string]string) (string, []attempt, error) {
	patterns := artefact.Patterns()
	attempts := make([]attempt, 0, len(patterns))

	for _, pattern := range patterns {
		rendered, err := config.Render(pattern, values)
		if err != nil {
			return "", attempts, err
		}

		attempts = append(attempts, attempt{template: pattern, rendered: rendered})

		candidate, err := matchCandidate(workspace, rendered)
		if err != nil {
			return "", attempts, err
		}

		if candidate != "" {
			return candidate, attempts, nil
		}
	}

	return "", attempts, nil
}

func hasGlobMeta(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[{")
}

// matchCandidate resolves rendered relative to workspace unless it is absolute.
func matchCandidate(workspace, rendered string) (string, error) {
	if !hasGlobMeta(rendered) {
		candidate := rendered
		if !filepath.IsAbs(candidate) {
			candidate = filepath.Join(workspace, candidate)
		}

		if isRegularFile(candidate) {
			return candidate, nil
		}

		return "", nil
	}

	matches, err := globMatches(workspace, rendered)
	if err != nil {
		return "", fmt.Errorf("expand glob %q: %w", rendered, err)
	}

	return newestFile(matches), nil
}

func globMatches(workspace, rendered string) ([]string, error) {
	if filepath.IsAbs(rendered) {
		return doublestar.FilepathGlob(rendered, doublestar.WithFilesOnly())
	}

	pattern := path.Clean(filepath.ToSlash(rendered))
	if !fs.ValidPath(pattern) {
		// Patterns climbing out of the workspace are matched on the joined path.
		return doublestar.FilepathGlob(filepath.Join(workspace, rendered), doublestar.WithFilesOnly())
	}

	relative, err := doublestar.Glob(os.DirFS(workspace), pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, err
	}

	matches := make([]string, 0, len(relative))
	for _, match := range relative {
		matches = append(matches, filepath.Join(workspace, filepath.FromSlash(match)))
	}

	return matches, nil
}

// newestFile picks the regular file with the latest modification time.
// Ties are broken by the lexically greatest path.
func newestFile(candidates []string) string {
	var (
		best     string
		bestTime int64
	)

	for _, candidate := range candidates {
		info, err := os.Stat(candidate)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}

		mtime := info.ModTime().UnixNano()
		if best == "" || mtime > bestTime || (mtime == bestTime && candidate > best) {
			best = candidate
			bestTime = mtime
		}
	}

	return best
}

func isRegularFile(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}

	return info.Mode().IsRegular()
}
