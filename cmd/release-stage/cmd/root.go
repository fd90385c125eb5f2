package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/release-kit/internal/cli"
	"github.com/oshokin/release-kit/internal/config"
	"github.com/oshokin/release-kit/internal/service/stager"
	"github.com/oshokin/release-kit/internal/version"
)

var (
	// common holds the shared log level flag.
	common cli.Common
	// options collects the staging inputs.
	options stager.Options

	// rootCmd represents the base command for staging release artefacts.
	rootCmd = &cobra.Command{
		Use:   "release-stage",
		Short: "Stage release artefacts and publish their digests.",
		Long: `Copy the artefacts of one configured target into a fresh staging directory.

Sources are resolved relative to GITHUB_WORKSPACE, each staged file gets a checksum
sidecar, a staging manifest is written next to them and the resulting paths, digests
and maps are appended to GITHUB_OUTPUT as step outputs.
Every flag may also be supplied as an INPUT_<FLAG> environment variable.`,
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			ctx, err := common.Prepare(ctx, cmd)
			if err != nil {
				return err
			}

			_, err = stager.Run(ctx, &options)

			return err
		},
	}
)

// Execute runs the release-stage CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		cli.Exit(err)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	common.Register(rootCmd)

	rootCmd.Flags().StringVarP(&options.ConfigPath, "config-file", "c", config.DefaultConfigFilename, "path to the staging configuration, relative to the workspace")
	rootCmd.Flags().StringVarP(&options.TargetKey, "target", "t", "", "key of the [targets.<key>] table to stage")
	rootCmd.Flags().BoolVar(&options.NormalizeWindowsPaths, "normalize-windows-paths", false, "replace backslashes with slashes in step outputs")
}
