package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/oshokin/release-kit/internal/domain/release"
)

const (
	// Filename is the manifest name inside the staging directory.
	Filename = "staging-manifest.yaml"

	// fileMode is the permission of the manifest file.
	fileMode os.FileMode = 0o644
)

// Manifest describes one staging run.
type Manifest struct {
	// Target is the target triple that was staged.
	Target string `yaml:"target"`
	// Platform and Arch are the staging labels used for the directory name.
	Platform string `yaml:"platform"`
	Arch     string `yaml:"arch"`
	// Algorithm is the checksum algorithm identifier for every digest.
	Algorithm string `yaml:"algorithm"`
	// Files lists staged files in configuration order.
	Files []release.StageResult `yaml:"files"`
}

// Path returns the manifest location for stagingDir.
func Path(stagingDir string) string {
	return filepath.Join(stagingDir, Filename)
}

// Write stores m in stagingDir and returns the manifest path.
func Write(stagingDir string, m *Manifest) (string, error) {
	contents, err := yaml.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("marshal staging manifest: %w", err)
	}

	path := Path(stagingDir)
	if err = os.WriteFile(path, contents, fileMode); err != nil {
		return "", fmt.Errorf("write staging manifest: %w", err)
	}

	return path, nil
}

// Read loads the manifest stored in stagingDir.
func Read(stagingDir string) (*Manifest, error) {
	contents, err := os.ReadFile(filepath.Clean(Path(stagingDir)))
	if err != nil {
		return nil, fmt.Errorf("read staging manifest: %w", err)
	}

	m := new(Manifest)
	if err = yaml.Unmarshal(contents, m); err != nil {
		return nil, fmt.Errorf("parse staging manifest: %w", err)
	}

	return m, nil
}
