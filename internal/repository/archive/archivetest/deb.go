// Package archivetest builds package fixtures for tests.
package archivetest

import (
	"archive/tar"
	"bytes"
	"fmt"
	"io"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

// Compression selects the tar member compression of a generated deb.
type Compression string

const (
	// Gzip produces control.tar.gz and data.tar.gz.
	Gzip Compression = "gz"
	// XZ produces control.tar.xz and data.tar.xz.
	XZ Compression = "xz"
	// Zstd produces control.tar.zst and data.tar.zst.
	Zstd Compression = "zst"
	// None produces plain control.tar and data.tar.
	None Compression = ""
)

// File is one payload entry. Paths ending in "/" are directories.
type File struct {
	Path string
	Mode int64
	Body string
}

// Deb describes a package to generate.
type Deb struct {
	Package      string
	Version      string
	Architecture string
	Compression  Compression
	Files        []File
}

// Filename returns the conventional name_version_arch.deb file name.
func (d *Deb) Filename() string {
	return fmt.Sprintf("%s_%s_%s.deb", d.Package, d.Version, d.Architecture)
}

// WriteDeb writes d to path as a Debian binary package.
func WriteDeb(path string, d *Deb) error {
	control := fmt.Sprintf("Package: %s\nVersion: %s\nArchitecture: %s\nMaintainer: Release Kit <release@example.invalid>\nDescription: test package\n continuation line\n",
		d.Package, d.Version, d.Architecture)

	controlTar, err := tarball([]File{{Path: "./control", Mode: 0o644, Body: control}}, d.Compression)
	if err != nil {
		return fmt.Errorf("build control member: %w", err)
	}

	dataTar, err := tarball(d.Files, d.Compression)
	if err != nil {
		return fmt.Errorf("build data member: %w", err)
	}

	suffix := ""
	if d.Compression != None {
		suffix = "." + string(d.Compression)
	}

	var buf bytes.Buffer

	buf.WriteString("!<arch>\n")
	writeArMember(&buf, "debian-binary", []byte("2.0\n"))
	writeArMember(&buf, "control.tar"+suffix, controlTar)
	writeArMember(&buf, "data.tar"+suffix, dataTar)

	return os.WriteFile(path, buf.Bytes(), 0o644)
}

func writeArMember(buf *bytes.Buffer, name string, body []byte) {
	fmt.Fprintf(buf, "%-16s%-12d%-6d%-6d%-8s%-10d`\n", name+"/", 0, 0, 0, "100644", len(body))
	buf.Write(body)

	if len(body)%2 == 1 {
		buf.WriteByte('\n')
	}
}

func tarball(files []File, compression Compression) ([]byte, error) {
	var buf bytes.Buffer

	w, err := compressor(&buf, compression)
	if err != nil {
		return nil, err
	}

	tw := tar.NewWriter(w)

	sorted := append([]File(nil), files...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })

	for _, f := range sorted {
		hdr := &tar.Header{
			Name:     "./" + strings.TrimPrefix(path.Clean("/"+f.Path), "/"),
			Mode:     f.Mode,
			Typeflag: tar.TypeReg,
			Size:     int64(len(f.Body)),
		}

		if strings.HasSuffix(f.Path, "/") {
			hdr.Name += "/"
			hdr.Typeflag = tar.TypeDir
			hdr.Size = 0
		}

		if err = tw.WriteHeader(hdr); err != nil {
			return nil, err
		}

		if hdr.Typeflag == tar.TypeReg {
			if _, err = io.WriteString(tw, f.Body); err != nil {
				return nil, err
			}
		}
	}

	if err = tw.Close(); err != nil {
		return nil, err
	}

	if err = w.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error {
	return nil
}

func compressor(w io.Writer, compression Compression) (io.WriteCloser, error) {
	switch compression {
	case Gzip:
		return gzip.NewWriter(w), nil
	case XZ:
		return xz.NewWriter(w)
	case Zstd:
		return zstd.NewWriter(w)
	case None:
		return nopWriteCloser{Writer: w}, nil
	default:
		return nil, fmt.Errorf("unknown compression %q", compression)
	}
}
