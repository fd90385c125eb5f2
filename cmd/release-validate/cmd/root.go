package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/release-kit/internal/cli"
	"github.com/oshokin/release-kit/internal/logger"
	"github.com/oshokin/release-kit/internal/service/validator"
	"github.com/oshokin/release-kit/internal/version"
)

var (
	// common holds the shared log level flag.
	common cli.Common
	// options collects the validation inputs.
	options validator.Options

	// rootCmd represents the base command for validating built packages.
	rootCmd = &cobra.Command{
		Use:   "release-validate",
		Short: "Check built deb and rpm packages before publishing.",
		Long: `Locate exactly one package per requested format and verify its metadata and payload.

The package name, version and release must match, the architecture must match the
label derived from the target triple, every expected path must be in the payload
and every executable path must carry an execute bit.
Defaults may come from the [packages.<format>] tables of a staging configuration.
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

			located, err := validator.Run(ctx, &options)
			if err != nil {
				return err
			}

			for _, pkg := range located {
				logger.InfoKV(ctx, "Package ready", "format", pkg.Format, "path", pkg.Path)
			}

			return nil
		},
	}
)

// Execute runs the release-validate CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		cli.Exit(err)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	common.Register(rootCmd)

	flags := rootCmd.Flags()
	flags.StringVar(&options.BinName, "bin-name", "", "primary binary, expected at /usr/bin/<bin-name>")
	flags.StringVar(&options.PackageName, "package-name", "", "package name (defaults to bin-name)")
	flags.StringVar(&options.Version, "version", "", "package version, a leading v is ignored")
	flags.StringVar(&options.Release, "release", "", "package release (defaults to 1)")
	flags.StringVarP(&options.Target, "target", "t", validator.DefaultTarget, "target triple the packages were built for")
	flags.StringVar(&options.Arch, "arch", "", "packaging architecture override")
	flags.StringArrayVar(&options.Formats, "formats", nil, "package formats, comma or whitespace separated (defaults to deb)")
	flags.StringVar(&options.PackagesDir, "packages-dir", "", "directory holding the packages (defaults to <project-dir>/dist)")
	flags.StringVar(&options.ProjectDir, "project-dir", "", "project directory (defaults to the working directory)")
	flags.StringArrayVar(&options.ExpectedPaths, "expected-path", nil, "absolute payload path that must exist (repeatable)")
	flags.StringArrayVar(&options.ExecutablePaths, "executable-path", nil, "absolute payload path that must be executable (repeatable)")
	flags.StringVarP(&options.ConfigPath, "config-file", "c", "", "optional staging configuration supplying package defaults")
}
