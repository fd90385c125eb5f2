package stager

import (
	"context"
	"path/filepath"

	"github.com/oshokin/release-kit/internal/config"
	"github.com/oshokin/release-kit/internal/domain/release"
	"github.com/oshokin/release-kit/internal/logger"
	"github.com/oshokin/release-kit/internal/repository/output"
)

// Options contains inputs for the staging entry point.
type Options struct {
	// ConfigPath is the staging configuration, relative to the workspace unless absolute.
	ConfigPath string
	// TargetKey selects the [targets.<key>] section.
	TargetKey string
	// NormalizeWindowsPaths converts backslashes to slashes in CI output values.
	NormalizeWindowsPaths bool
}

// Run resolves the environment and configuration, then stages the selected target.
// Once the output file is known, a failed run appends stage_outcome=failure.
func Run(ctx context.Context, opts *Options) (*release.StageReport, error) {
	ctx = logger.WithName(ctx, "release-stage")

	workspace, err := config.RequireEnvPath(config.WorkspaceEnv)
	if err != nil {
		return nil, err
	}

	outputPath, err := config.RequireEnvPath(config.OutputEnv)
	if err != nil {
		return nil, err
	}

	writer := output.NewFileWriter(outputPath, output.WithWindowsPathNormalization(opts.NormalizeWindowsPaths))

	report, err := stage(ctx, workspace, writer, opts)
	if err != nil {
		if appendErr := writer.Append(output.Values{OutcomeKey: OutcomeFailure}); appendErr != nil {
			logger.WarnKV(ctx, "Failed to record staging outcome", "path", writer.Path(), "error", appendErr)
		}

		return nil, err
	}

	return report, nil
}

func stage(ctx context.Context, workspace string, writer output.Writer, opts *Options) (*release.StageReport, error) {
	if opts.TargetKey == "" {
		return nil, release.NewConfigError("targets", "target key is required")
	}

	configPath := opts.ConfigPath
	if configPath == "" {
		configPath = config.DefaultConfigFilename
	}

	if !filepath.IsAbs(configPath) {
		configPath = filepath.Join(workspace, configPath)
	}

	logger.InfoKV(ctx, "Loading staging configuration", "path", configPath, "target_key", opts.TargetKey)

	cfg, err := config.Load(configPath, opts.TargetKey, workspace)
	if err != nil {
		return nil, err
	}

	return New(writer).Stage(ctx, cfg)
}
