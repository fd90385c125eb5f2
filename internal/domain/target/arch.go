package target

import (
	"errors"
	"fmt"
	"strings"

	"github.com/oshokin/release-kit/internal/domain/release"
)

// Pair holds the architecture labels expected by each packaging backend.
type Pair struct {
	// Packaging is the label used by the generic multi-format packager (nfpm/GOARCH style).
	Packaging string
	// Debian is the label used by Debian tooling.
	Debian string
}

// Entry binds a set of triple prefixes to an architecture pair.
type Entry struct {
	Prefixes []string
	Arch     Pair
}

// Table is an immutable, ordered prefix table. Lookups scan entries in
// declaration order and the first entry owning a matching prefix wins.
type Table struct {
	entries []Entry
}

var (
	errEmptyTable  = errors.New("architecture table has no entries")
	errEmptyPrefix = errors.New("architecture table contains an empty prefix")
)

// NewTable validates entries and returns a table.
// A prefix that starts with a prefix from an earlier entry can never match,
// so such tables are rejected instead of silently shadowing the later entry.
func NewTable(entries []Entry) (*Table, error) {
	if len(entries) == 0 {
		return nil, errEmptyTable
	}

	owned := make([]Entry, 0, len(entries))

	for i, entry := range entries {
		prefixes := make([]string, 0, len(entry.Prefixes))

		for _, prefix := range entry.Prefixes {
			lowered := strings.ToLower(prefix)
			if lowered == "" {
				return nil, errEmptyPrefix
			}

			for _, earlier := range owned {
				for _, shadow := range earlier.Prefixes {
					if strings.HasPrefix(lowered, shadow) {
						return nil, fmt.Errorf("entry #%d prefix %q is shadowed by earlier prefix %q", i+1, prefix, shadow)
					}
				}
			}

			prefixes = append(prefixes, lowered)
		}

		owned = append(owned, Entry{Prefixes: prefixes, Arch: entry.Arch})
	}

	return &Table{entries: owned}, nil
}

// MustNewTable is NewTable for statically declared tables.
func MustNewTable(entries []Entry) *Table {
	table, err := NewTable(entries)
	if err != nil {
		panic(err)
	}

	return table
}

// Resolve returns the architecture pair for triple.
// Matching is case-insensitive; the error carries the triple as given.
func (t *Table) Resolve(triple string) (Pair, error) {
	lowered := strings.ToLower(triple)

	for _, entry := range t.entries {
		for _, prefix := range entry.Prefixes {
			if strings.HasPrefix(lowered, prefix) {
				return entry.Arch, nil
			}
		}
	}

	return Pair{}, release.NewUnsupportedTarget(triple)
}

// defaultTable is shared by every caller and never mutated.
//
//nolint:gochecknoglobals // Process-wide constant lookup table.
var defaultTable = MustNewTable([]Entry{
	{
		Prefixes: []string{"x86_64-", "x86_64_"},
		Arch:     Pair{Packaging: "amd64", Debian: "amd64"},
	},
	{
		Prefixes: []string{"i686-", "i686_", "i586-", "i586_", "i386-", "i386_"},
		Arch:     Pair{Packaging: "386", Debian: "i386"},
	},
	{
		Prefixes: []string{"aarch64-", "aarch64_", "arm64-", "arm64_"},
		Arch:     Pair{Packaging: "arm64", Debian: "arm64"},
	},
	{
		Prefixes: []string{
			"armv7-", "armv7_", "armv7l-", "armv7l_",
			"armv6-", "armv6_", "armv6l-", "armv6l_",
			"arm-unknown-linux-gnueabihf", "arm-unknown-linux-musleabihf",
		},
		Arch: Pair{Packaging: "arm", Debian: "armhf"},
	},
	{
		Prefixes: []string{"riscv64"},
		Arch:     Pair{Packaging: "riscv64", Debian: "riscv64"},
	},
	{
		Prefixes: []string{"powerpc64le-", "powerpc64le_", "ppc64le-", "ppc64le_"},
		Arch:     Pair{Packaging: "ppc64le", Debian: "ppc64el"},
	},
	{
		Prefixes: []string{"s390x-", "s390x_"},
		Arch:     Pair{Packaging: "s390x", Debian: "s390x"},
	},
	{
		Prefixes: []string{"loongarch64-", "loongarch64_", "loong64-", "loong64_"},
		Arch:     Pair{Packaging: "loong64", Debian: "loong64"},
	},
})

// Default returns the built-in table.
func Default() *Table {
	return defaultTable
}

// Resolve looks triple up in the built-in table.
func Resolve(triple string) (Pair, error) {
	return defaultTable.Resolve(triple)
}

// PackagingLabel returns the generic packaging label for triple.
func PackagingLabel(triple string) (string, error) {
	pair, err := Resolve(triple)
	if err != nil {
		return "", err
	}

	return pair.Packaging, nil
}

// DebianLabel returns the Debian architecture label for triple.
func DebianLabel(triple string) (string, error) {
	pair, err := Resolve(triple)
	if err != nil {
		return "", err
	}

	return pair.Debian, nil
}

// rpmAliases lists the RPM architecture spellings accepted for each packaging label.
//
//nolint:gochecknoglobals // Constant lookup table.
var rpmAliases = map[string][]string{
	"amd64":   {"amd64", "x86_64"},
	"386":     {"386", "i386", "i486", "i586", "i686"},
	"arm":     {"arm", "armhfp", "armv7hl"},
	"arm64":   {"arm64", "aarch64"},
	"riscv64": {"riscv64"},
	"ppc64le": {"ppc64le"},
	"s390x":   {"s390x"},
	"loong64": {"loong64", "loongarch64"},
}

// RPMArchitectures returns the RPM architecture names accepted for a packaging label.
// Unknown labels accept only themselves.
func RPMArchitectures(packaging string) []string {
	if aliases, ok := rpmAliases[packaging]; ok {
		return append([]string(nil), aliases...)
	}

	return []string{packaging}
}
