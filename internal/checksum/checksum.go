package checksum

import (
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/zeebo/blake3"
)

// DefaultAlgorithm is used when a configuration does not name one.
const DefaultAlgorithm = "sha256"

// sidecarFileMode is the permission of written checksum files.
const sidecarFileMode os.FileMode = 0o644

// ErrUnsupportedAlgorithm is returned for algorithm names without a constructor.
var ErrUnsupportedAlgorithm = errors.New("unsupported checksum algorithm")

//nolint:gochecknoglobals // Constant constructor table.
var constructors = map[string]func() hash.Hash{
	"sha256": sha256.New,
	"sha384": sha512.New384,
	"sha512": sha512.New,
	"blake3": func() hash.Hash { return blake3.New() },
}

// Normalize lower-cases name and substitutes the default for an empty value.
func Normalize(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return DefaultAlgorithm
	}

	return name
}

// Supported lists algorithm identifiers in sorted order.
func Supported() []string {
	names := make([]string, 0, len(constructors))
	for name := range constructors {
		names = append(names, name)
	}

	slices.Sort(names)

	return names
}

// New returns a fresh hasher for algorithm.
func New(algorithm string) (hash.Hash, error) {
	constructor, ok := constructors[Normalize(algorithm)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedAlgorithm, algorithm)
	}

	return constructor(), nil
}

// Digest is a computed content hash.
type Digest struct {
	Algorithm string
	Hex       string
	Size      int64
}

// File streams the file at path through algorithm and returns its digest.
func File(path, algorithm string) (Digest, error) {
	hasher, err := New(algorithm)
	if err != nil {
		return Digest{}, err
	}

	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		return Digest{}, fmt.Errorf("opening %s for hashing: %w", path, err)
	}
	defer file.Close()

	size, err := io.Copy(hasher, file)
	if err != nil {
		return Digest{}, fmt.Errorf("hashing %s: %w", path, err)
	}

	return Digest{
		Algorithm: Normalize(algorithm),
		Hex:       hex.EncodeToString(hasher.Sum(nil)),
		Size:      size,
	}, nil
}

// SidecarPath returns the checksum file path written next to path.
func SidecarPath(path, algorithm string) string {
	return path + "." + Normalize(algorithm)
}

// WriteSidecar writes "<digest>  <name>\n" next to path in the format read by sha256sum -c.
func WriteSidecar(path string, digest Digest) (string, error) {
	sidecar := SidecarPath(path, digest.Algorithm)
	line := digest.Hex + "  " + filepath.Base(path) + "\n"

	if err := os.WriteFile(sidecar, []byte(line), sidecarFileMode); err != nil {
		return "", fmt.Errorf("write checksum %s: %w", sidecar, err)
	}

	return sidecar, nil
}
