package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/release-kit/internal/cli"
	"github.com/oshokin/release-kit/internal/service/resolver"
	"github.com/oshokin/release-kit/internal/version"
)

var (
	// common holds the shared log level flag.
	common cli.Common
	// options collects the resolver inputs.
	options resolver.Options

	// rootCmd represents the base command for resolving target triples.
	rootCmd = &cobra.Command{
		Use:   "release-target",
		Short: "Resolve a target triple to packaging labels.",
		Long: `Map a compiler target triple to the architecture labels used by packaging tools.

Prints the requested fields (platform, nfpm-arch, deb-arch, staging-arch, triple)
either space separated on one line or as FIELD_NAME=value lines.
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

			return resolver.Run(ctx, &options, cmd.OutOrStdout())
		},
	}
)

// Execute runs the release-target CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		cli.Exit(err)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	common.Register(rootCmd)

	rootCmd.Flags().StringVarP(&options.Target, "target", "t", "", "target triple, e.g. x86_64-unknown-linux-gnu")
	rootCmd.Flags().StringArrayVarP(&options.Fields, "field", "f", nil, "field to print (repeatable): platform, nfpm-arch, deb-arch, staging-arch, triple")
	rootCmd.Flags().StringVar(&options.Format, "format", resolver.FormatPlain, "output format: plain or env")
}
