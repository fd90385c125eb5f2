package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/oshokin/release-kit/internal/domain/release"
)

const (
	// WorkspaceEnv names the checkout root; source paths resolve against it.
	WorkspaceEnv = "GITHUB_WORKSPACE"

	// OutputEnv names the append-only CI output file.
	OutputEnv = "GITHUB_OUTPUT"
)

// RequireEnv returns the value of name or a MissingEnvironment error when it is unset or blank.
func RequireEnv(name string) (string, error) {
	value := os.Getenv(name)
	if strings.TrimSpace(value) == "" {
		return "", release.NewMissingEnvironment(name)
	}

	return value, nil
}

// RequireEnvPath is RequireEnv for variables holding filesystem paths.
func RequireEnvPath(name string) (string, error) {
	value, err := RequireEnv(name)
	if err != nil {
		return "", err
	}

	return filepath.Clean(value), nil
}
