package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/oshokin/release-kit/internal/domain/release"
	"github.com/oshokin/release-kit/internal/logger"
)

// LogLevelFlag is the flag every binary registers for log verbosity.
const LogLevelFlag = "log-level"

// Common holds flags shared by all command roots.
type Common struct {
	// LogLevel is a zap level name.
	LogLevel string
}

// Register adds the shared flags to cmd.
func (c *Common) Register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&c.LogLevel, LogLevelFlag, "info", "log level (debug, info, warn, error)")
}

// Prepare binds INPUT_<FLAG> variables to cmd, applies the log level and
// returns ctx carrying a logger tagged with a fresh run id.
func (c *Common) Prepare(ctx context.Context, cmd *cobra.Command) (context.Context, error) {
	NormalizeInputEnv()

	if err := BindInputs(cmd.Flags(), os.LookupEnv); err != nil {
		return ctx, release.NewConfigError("inputs", "bind inputs: %v", err)
	}

	level, ok := logger.ParseLogLevel(c.LogLevel)
	if !ok {
		return ctx, release.NewConfigError(LogLevelFlag, "unsupported log level: %s", c.LogLevel)
	}

	logger.SetLevel(level)

	ctx, _ = logger.WithRunID(ctx)
	logger.DebugKV(ctx, "Starting", "command", cmd.Name())

	return ctx, nil
}

// Exit prints err as an annotation and terminates the process with status 1.
func Exit(err error) {
	PrintError(os.Stderr, err)
	logger.Sync()

	os.Exit(1)
}
