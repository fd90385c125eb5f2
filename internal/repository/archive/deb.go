package archive

import (
	"archive/tar"
	"bufio"
	"compress/bzip2"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
	"pault.ag/go/debian/control"
)

const (
	arMagic      = "!<arch>\n"
	arHeaderSize = 60

	controlMemberPrefix = "control.tar"
	dataMemberPrefix    = "data.tar"
)

var (
	errNotDeb          = errors.New("not an ar archive")
	errMalformedMember = errors.New("malformed ar member header")
	errMissingMember   = errors.New("missing archive member")
	errMissingControl  = errors.New("control file not found")
)

// ReadDeb extracts the control fields and data listing of a .deb file.
func ReadDeb(path string) (*Metadata, error) {
	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, inspectError("deb", path, err)
	}
	defer file.Close()

	meta, err := readDeb(file)
	if err != nil {
		return nil, inspectError("deb", path, err)
	}

	return meta, nil
}

func readDeb(r io.Reader) (*Metadata, error) {
	br := bufio.NewReader(r)

	magic := make([]byte, len(arMagic))
	if _, err := io.ReadFull(br, magic); err != nil || string(magic) != arMagic {
		return nil, errNotDeb
	}

	var (
		meta        *Metadata
		files       map[string]fs.FileMode
		sawControl  bool
		sawData     bool
		header      = make([]byte, arHeaderSize)
		memberError error
	)

	for {
		if _, err := io.ReadFull(br, header); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}

			return nil, fmt.Errorf("read ar header: %w", err)
		}

		name, size, err := parseArHeader(header)
		if err != nil {
			return nil, err
		}

		body := io.LimitReader(br, size)

		switch {
		case strings.HasPrefix(name, controlMemberPrefix):
			meta, memberError = readControlMember(name, body)
			sawControl = true
		case strings.HasPrefix(name, dataMemberPrefix):
			files, memberError = readDataMember(name, body)
			sawData = true
		}

		if memberError != nil {
			return nil, fmt.Errorf("%s: %w", name, memberError)
		}

		// Drain the remainder of the member and its even-boundary padding.
		if _, err = io.Copy(io.Discard, body); err != nil {
			return nil, fmt.Errorf("skip %s: %w", name, err)
		}

		if size%2 == 1 {
			if _, err = br.Discard(1); err != nil && !errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("skip padding: %w", err)
			}
		}
	}

	if !sawControl {
		return nil, fmt.Errorf("%w: %s.*", errMissingMember, controlMemberPrefix)
	}

	if !sawData {
		return nil, fmt.Errorf("%w: %s.*", errMissingMember, dataMemberPrefix)
	}

	meta.Files = files

	return meta, nil
}

func parseArHeader(header []byte) (string, int64, error) {
	if string(header[58:60]) != "`\n" {
		return "", 0, errMalformedMember
	}

	name := strings.TrimSuffix(strings.TrimSpace(string(header[0:16])), "/")

	size, err := strconv.ParseInt(strings.TrimSpace(string(header[48:58])), 10, 64)
	if err != nil || size < 0 {
		return "", 0, fmt.Errorf("%w: size of %q", errMalformedMember, name)
	}

	return name, size, nil
}

// decompress wraps r according to the compression suffix of an ar member name.
func decompress(member string, r io.Reader) (io.ReadCloser, error) {
	switch filepath.Ext(member) {
	case ".gz":
		return gzip.NewReader(r)
	case ".xz":
		xr, err := xz.NewReader(r)
		if err != nil {
			return nil, err
		}

		return io.NopCloser(xr), nil
	case ".zst":
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}

		return zr.IOReadCloser(), nil
	case ".bz2":
		return io.NopCloser(bzip2.NewReader(r)), nil
	case ".tar":
		return io.NopCloser(r), nil
	default:
		return nil, fmt.Errorf("unsupported compression for %s", member)
	}
}

func readControlMember(member string, r io.Reader) (*Metadata, error) {
	stream, err := decompress(member, r)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	tr := tar.NewReader(stream)

	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil, errMissingControl
		}

		if err != nil {
			return nil, err
		}

		if normalizePayloadPath(hdr.Name) != "/control" {
			continue
		}

		fields, err := ParseControl(tr)
		if err != nil {
			return nil, err
		}

		return &Metadata{
			Name:         fields.Package,
			Version:      fields.Version,
			Architecture: fields.Architecture,
		}, nil
	}
}

func readDataMember(member string, r io.Reader) (map[string]fs.FileMode, error) {
	stream, err := decompress(member, r)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	tr := tar.NewReader(stream)
	files := make(map[string]fs.FileMode)

	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return files, nil
		}

		if err != nil {
			return nil, err
		}

		p := normalizePayloadPath(hdr.Name)
		if p == "/" {
			continue
		}

		files[p] = hdr.FileInfo().Mode()
	}
}

// Control holds the fields of a binary package control file that inspection reads.
type Control struct {
	control.Paragraph

	Package      string `required:"true"`
	Version      string `required:"true"`
	Architecture string `required:"true"`
	Description  string
}

// ParseControl decodes the deb822 control paragraph of a binary package.
func ParseControl(r io.Reader) (*Control, error) {
	var c Control
	if err := control.Unmarshal(&c, r); err != nil {
		return nil, fmt.Errorf("parse control file: %w", err)
	}

	return &c, nil
}
