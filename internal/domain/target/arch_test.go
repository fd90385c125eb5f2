package target

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/release-kit/internal/domain/release"
)

// TestResolveKnownTriples verifies labels for every supported architecture family.
func TestResolveKnownTriples(t *testing.T) {
	t.Parallel()

	cases := map[string]Pair{
		"x86_64-unknown-linux-gnu":       {Packaging: "amd64", Debian: "amd64"},
		"x86_64-pc-windows-msvc":         {Packaging: "amd64", Debian: "amd64"},
		"aarch64-unknown-linux-gnu":      {Packaging: "arm64", Debian: "arm64"},
		"arm64-apple-darwin":             {Packaging: "arm64", Debian: "arm64"},
		"i686-unknown-linux-musl":        {Packaging: "386", Debian: "i386"},
		"armv7-unknown-linux-gnueabihf":  {Packaging: "arm", Debian: "armhf"},
		"arm-unknown-linux-musleabihf":   {Packaging: "arm", Debian: "armhf"},
		"riscv64gc-unknown-linux-gnu":    {Packaging: "riscv64", Debian: "riscv64"},
		"powerpc64le-unknown-linux-gnu":  {Packaging: "ppc64le", Debian: "ppc64el"},
		"s390x-unknown-linux-gnu":        {Packaging: "s390x", Debian: "s390x"},
		"loongarch64-unknown-linux-gnu":  {Packaging: "loong64", Debian: "loong64"},
		"x86_64_unknown_linux_gnu":       {Packaging: "amd64", Debian: "amd64"},
		"AARCH64-UNKNOWN-LINUX-GNU":      {Packaging: "arm64", Debian: "arm64"},
		"PowerPC64LE-Unknown-Linux-Musl": {Packaging: "ppc64le", Debian: "ppc64el"},
	}

	for triple, want := range cases {
		got, err := Resolve(triple)
		require.NoError(t, err, triple)
		require.Equal(t, want, got, triple)
	}
}

// TestResolveUnsupported verifies the error kind and that the original spelling is reported.
func TestResolveUnsupported(t *testing.T) {
	t.Parallel()

	for _, triple := range []string{"mips64-unknown-linux-gnu", "MIPS64-Unknown-Linux-GNU", "", "arm-unknown-linux-gnueabi"} {
		_, err := Resolve(triple)
		require.ErrorIs(t, err, release.ErrUnsupportedTarget)
		require.Contains(t, err.Error(), "unsupported target triple: "+triple)
	}
}

// TestLabelProjections checks the convenience accessors.
func TestLabelProjections(t *testing.T) {
	t.Parallel()

	packaging, err := PackagingLabel("armv7-unknown-linux-gnueabihf")
	require.NoError(t, err)
	require.Equal(t, "arm", packaging)

	debian, err := DebianLabel("armv7-unknown-linux-gnueabihf")
	require.NoError(t, err)
	require.Equal(t, "armhf", debian)

	_, err = DebianLabel("wasm32-unknown-unknown")
	require.ErrorIs(t, err, release.ErrUnsupportedTarget)
}

// TestTableFirstMatchWins verifies declaration order decides between overlapping entries.
func TestTableFirstMatchWins(t *testing.T) {
	t.Parallel()

	table, err := NewTable([]Entry{
		{Prefixes: []string{"arm-unknown-linux-gnueabihf"}, Arch: Pair{Packaging: "arm", Debian: "armhf"}},
		{Prefixes: []string{"ARM-"}, Arch: Pair{Packaging: "armel", Debian: "armel"}},
	})
	require.NoError(t, err)

	got, err := table.Resolve("arm-unknown-linux-gnueabihf")
	require.NoError(t, err)
	require.Equal(t, "armhf", got.Debian)

	got, err = table.Resolve("arm-unknown-linux-gnueabi")
	require.NoError(t, err)
	require.Equal(t, "armel", got.Debian)
}

// TestNewTableRejectsShadowedEntries verifies that unreachable entries are refused.
func TestNewTableRejectsShadowedEntries(t *testing.T) {
	t.Parallel()

	_, err := NewTable([]Entry{
		{Prefixes: []string{"arm"}, Arch: Pair{Packaging: "arm", Debian: "armhf"}},
		{Prefixes: []string{"arm64-"}, Arch: Pair{Packaging: "arm64", Debian: "arm64"}},
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "shadowed")

	_, err = NewTable([]Entry{{Prefixes: []string{""}}})
	require.ErrorIs(t, err, errEmptyPrefix)

	_, err = NewTable(nil)
	require.ErrorIs(t, err, errEmptyTable)
}

// TestRPMArchitectures checks alias expansion and the identity fallback.
func TestRPMArchitectures(t *testing.T) {
	t.Parallel()

	require.ElementsMatch(t, []string{"amd64", "x86_64"}, RPMArchitectures("amd64"))
	require.Contains(t, RPMArchitectures("arm64"), "aarch64")
	require.Equal(t, []string{"mips"}, RPMArchitectures("mips"))

	// Callers must not be able to corrupt the shared table.
	aliases := RPMArchitectures("amd64")
	aliases[0] = "broken"
	require.Equal(t, "amd64", RPMArchitectures("amd64")[0])
}

// TestDescribe verifies derived platform and field lookup.
func TestDescribe(t *testing.T) {
	t.Parallel()

	info, err := Describe("  aarch64-apple-darwin ")
	require.NoError(t, err)
	require.Equal(t, "aarch64-apple-darwin", info.Triple)
	require.Equal(t, "macos", info.Platform)

	for _, name := range FieldNames() {
		_, ok := info.Field(name)
		require.True(t, ok, name)
	}

	value, ok := info.Field("NFPM-ARCH")
	require.True(t, ok)
	require.Equal(t, "arm64", value)

	_, ok = info.Field("unknown")
	require.False(t, ok)

	require.Equal(t, "windows", Platform("x86_64-pc-windows-gnu"))
	require.Equal(t, "linux", Platform("riscv64gc-unknown-none-elf"))
}
