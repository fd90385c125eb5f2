package target

import (
	"strings"
)

// Info describes a triple together with every label derived from it.
type Info struct {
	Triple      string
	Platform    string
	Packaging   string
	Debian      string
	StagingArch string
}

// platformMarkers maps OS components of a triple to platform names, checked in order.
//
//nolint:gochecknoglobals // Constant lookup table.
var platformMarkers = []struct {
	marker   string
	platform string
}{
	{"windows", "windows"},
	{"darwin", "macos"},
	{"freebsd", "freebsd"},
	{"linux", "linux"},
}

// Platform returns the operating-system family encoded in triple, defaulting to linux.
func Platform(triple string) string {
	lowered := strings.ToLower(triple)
	for _, m := range platformMarkers {
		if strings.Contains(lowered, m.marker) {
			return m.platform
		}
	}

	return "linux"
}

// Describe resolves triple against the built-in table and fills every derived field.
// Surrounding whitespace is dropped before lookup.
func Describe(triple string) (Info, error) {
	candidate := strings.TrimSpace(triple)

	pair, err := Resolve(candidate)
	if err != nil {
		return Info{}, err
	}

	return Info{
		Triple:      candidate,
		Platform:    Platform(candidate),
		Packaging:   pair.Packaging,
		Debian:      pair.Debian,
		StagingArch: pair.Debian,
	}, nil
}

// Field returns a named field of the info. Names follow the CLI spelling.
func (i Info) Field(name string) (string, bool) {
	switch strings.ToLower(name) {
	case "platform":
		return i.Platform, true
	case "nfpm-arch":
		return i.Packaging, true
	case "deb-arch":
		return i.Debian, true
	case "staging-arch":
		return i.StagingArch, true
	case "triple":
		return i.Triple, true
	default:
		return "", false
	}
}

// FieldNames lists the names accepted by Field.
func FieldNames() []string {
	return []string{"platform", "nfpm-arch", "deb-arch", "staging-arch", "triple"}
}
