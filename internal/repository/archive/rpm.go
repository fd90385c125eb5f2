package archive

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/sassoftware/go-rpmutils"
)

// Unix file type bits as stored in RPM file modes.
const (
	unixTypeMask  = 0o170000
	unixDirectory = 0o040000
	unixSymlink   = 0o120000
)

// ReadRPM extracts the header identity and file listing of an .rpm file.
func ReadRPM(path string) (*Metadata, error) {
	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, inspectError("rpm", path, err)
	}
	defer file.Close()

	header, err := rpmutils.ReadHeader(file)
	if err != nil {
		return nil, inspectError("rpm", path, err)
	}

	meta := new(Metadata)

	for tag, dst := range map[int]*string{
		rpmutils.NAME:    &meta.Name,
		rpmutils.VERSION: &meta.Version,
		rpmutils.RELEASE: &meta.Release,
		rpmutils.ARCH:    &meta.Architecture,
	} {
		if *dst, err = header.GetString(tag); err != nil {
			return nil, inspectError("rpm", path, err)
		}
	}

	entries, err := header.GetFiles()
	if err != nil {
		return nil, inspectError("rpm", path, err)
	}

	meta.Files = make(map[string]fs.FileMode, len(entries))
	for _, entry := range entries {
		meta.Files[normalizePayloadPath(entry.Name())] = rpmFileMode(entry.Mode())
	}

	return meta, nil
}

// rpmFileMode converts a raw st_mode value into an fs.FileMode.
func rpmFileMode(raw int) fs.FileMode {
	mode := fs.FileMode(raw) & fs.ModePerm

	switch raw & unixTypeMask {
	case unixDirectory:
		mode |= fs.ModeDir
	case unixSymlink:
		mode |= fs.ModeSymlink
	}

	return mode
}
