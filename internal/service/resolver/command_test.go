package resolver

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/release-kit/internal/domain/release"
)

// TestRunPlain verifies the default field and space separated output.
func TestRunPlain(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer

	require.NoError(t, Run(context.Background(), &Options{Target: "armv7-unknown-linux-gnueabihf"}, &out))
	require.Equal(t, "armhf\n", out.String())

	out.Reset()
	require.NoError(t, Run(context.Background(), &Options{
		Target: "aarch64-apple-darwin",
		Fields: []string{"platform", "NFPM-ARCH", "triple"},
	}, &out))
	require.Equal(t, "macos arm64 aarch64-apple-darwin\n", out.String())
}

// TestRunEnv verifies NAME=value output.
func TestRunEnv(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer

	require.NoError(t, Run(context.Background(), &Options{
		Target: " x86_64-unknown-linux-gnu ",
		Fields: []string{"nfpm-arch", "deb-arch"},
		Format: FormatEnv,
	}, &out))
	require.Equal(t, "NFPM_ARCH=amd64\nDEB_ARCH=amd64\n", out.String())
}

// TestRunErrors verifies unsupported triples, fields and formats.
func TestRunErrors(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer

	err := Run(context.Background(), &Options{Target: "mips64-unknown-linux-gnu"}, &out)
	require.ErrorIs(t, err, release.ErrUnsupportedTarget)
	require.Contains(t, err.Error(), "mips64-unknown-linux-gnu")

	err = Run(context.Background(), &Options{Target: "x86_64-unknown-linux-gnu", Fields: []string{"os"}}, &out)
	require.ErrorIs(t, err, release.ErrConfig)
	require.Contains(t, err.Error(), "unsupported field: os")

	err = Run(context.Background(), &Options{Target: "x86_64-unknown-linux-gnu", Format: "json"}, &out)
	require.ErrorIs(t, err, release.ErrConfig)

	require.Empty(t, out.String())
}
