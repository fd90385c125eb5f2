package archivetest

import (
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/google/rpmpack"
)

// Unix file type bits for generated RPM entries.
const (
	rpmRegular   = 0o100000
	rpmDirectory = 0o040000
)

// RPM describes an rpm package to generate.
type RPM struct {
	Name    string
	Version string
	Release string
	Arch    string
	Files   []File
}

// Filename returns the conventional name-version-release.arch.rpm file name.
func (r *RPM) Filename() string {
	return fmt.Sprintf("%s-%s-%s.%s.rpm", r.Name, r.Version, r.Release, r.Arch)
}

// WriteRPM writes r to path as a binary RPM.
func WriteRPM(p string, r *RPM) error {
	pkg, err := rpmpack.NewRPM(rpmpack.RPMMetaData{
		Name:        r.Name,
		Version:     r.Version,
		Release:     r.Release,
		Arch:        r.Arch,
		Summary:     "test package",
		Description: "test package",
		Licence:     "MIT",
	})
	if err != nil {
		return fmt.Errorf("create rpm: %w", err)
	}

	for _, f := range r.Files {
		entry := rpmpack.RPMFile{
			Name:  path.Clean("/" + f.Path),
			Body:  []byte(f.Body),
			Mode:  uint(rpmRegular | f.Mode),
			Owner: "root",
			Group: "root",
		}

		if strings.HasSuffix(f.Path, "/") {
			entry.Mode = uint(rpmDirectory | f.Mode)
			entry.Body = nil
		}

		pkg.AddFile(entry)
	}

	out, err := os.Create(p)
	if err != nil {
		return err
	}

	if err = pkg.Write(out); err != nil {
		_ = out.Close()

		return fmt.Errorf("write rpm: %w", err)
	}

	return out.Close()
}
