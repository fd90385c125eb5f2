package resolver

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/oshokin/release-kit/internal/domain/release"
	"github.com/oshokin/release-kit/internal/domain/target"
	"github.com/oshokin/release-kit/internal/logger"
)

const (
	// FormatPlain prints the requested values on one line, space separated.
	FormatPlain = "plain"
	// FormatEnv prints one FIELD_NAME=value line per requested field.
	FormatEnv = "env"

	// defaultField is printed when no field is requested.
	defaultField = "staging-arch"
)

// Options contains inputs for the resolver entry point.
type Options struct {
	// Target is the triple to resolve.
	Target string
	// Fields lists the labels to print, in order.
	Fields []string
	// Format is FormatPlain or FormatEnv.
	Format string
}

// Run resolves opts.Target and writes the requested fields to w.
func Run(ctx context.Context, opts *Options, w io.Writer) error {
	ctx = logger.WithName(ctx, "release-target")

	info, err := target.Describe(opts.Target)
	if err != nil {
		return err
	}

	fields := opts.Fields
	if len(fields) == 0 {
		fields = []string{defaultField}
	}

	names := make([]string, 0, len(fields))
	values := make([]string, 0, len(fields))

	for _, field := range fields {
		name := strings.ToLower(strings.TrimSpace(field))

		value, ok := info.Field(name)
		if !ok {
			return release.NewConfigError(field, "unsupported field: %s (expected one of %s)",
				field, strings.Join(target.FieldNames(), ", "))
		}

		names = append(names, name)
		values = append(values, value)
	}

	logger.DebugKV(ctx, "Resolved target", "triple", info.Triple, "fields", names)

	switch strings.ToLower(opts.Format) {
	case "", FormatPlain:
		_, err = fmt.Fprintln(w, strings.Join(values, " "))
	case FormatEnv:
		var builder strings.Builder
		for i, name := range names {
			builder.WriteString(strings.ToUpper(strings.ReplaceAll(name, "-", "_")))
			builder.WriteByte('=')
			builder.WriteString(values[i])
			builder.WriteByte('\n')
		}

		_, err = io.WriteString(w, builder.String())
	default:
		return release.NewConfigError("format", "unsupported output format: %s", opts.Format)
	}

	if err != nil {
		return fmt.Errorf("write target fields: %w", err)
	}

	return nil
}
