package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/oshokin/release-kit/internal/checksum"
	"github.com/oshokin/release-kit/internal/domain/release"
	"github.com/oshokin/release-kit/internal/domain/target"
)

const (
	// DefaultConfigFilename is the staging configuration looked up when none is given.
	DefaultConfigFilename = ".github/release-staging.toml"

	// DefaultDistDir is the directory under the workspace receiving staged artefacts.
	DefaultDistDir = "dist"

	// DefaultStagingDirTemplate names the per-target staging directory.
	DefaultStagingDirTemplate = "{bin_name}_{platform}_{arch}"
)

// Artefact describes one build output to stage.
type Artefact struct {
	// Source is the path template, relative to the workspace or absolute, possibly a glob.
	Source string
	// Alternatives are tried in order when Source matches nothing.
	Alternatives []string
	// Required makes a missing source fatal; otherwise it is skipped with a warning.
	Required bool
	// Output is the CI output key receiving the staged path.
	Output string
	// Destination is the file name template inside the staging directory.
	Destination string
}

// Patterns returns Source followed by Alternatives.
func (a *Artefact) Patterns() []string {
	return append([]string{a.Source}, a.Alternatives...)
}

// Package describes the expected contents of one package format.
type Package struct {
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Release     string   `json:"release"`
	Payload     []string `json:"payload"`
	Executables []string `json:"executables"`
}

// Staging is the resolved configuration for one target.
type Staging struct {
	// Workspace is the source root every relative pattern resolves against.
	Workspace string
	// BinName is the primary binary name.
	BinName string
	// DistDir is the workspace-relative directory holding staging directories.
	DistDir string
	// ChecksumAlgorithm is the normalised digest identifier.
	ChecksumAlgorithm string
	// Artefacts lists common artefacts followed by target artefacts.
	Artefacts []Artefact
	// Platform, Arch and Target describe the build target.
	Platform string
	Arch     string
	Target   string
	// BinExt is the executable extension, such as ".exe".
	BinExt string
	// StagingDirTemplate names the staging directory.
	StagingDirTemplate string
	// TargetKey is the targets table key that was selected.
	TargetKey string
	// Packages holds per-format package expectations.
	Packages map[string]Package
}

type artefactSection struct {
	Source       string   `json:"source"`
	Required     *bool    `json:"required"`
	Output       string   `json:"output"`
	Destination  string   `json:"destination"`
	Alternatives []string `json:"alternatives"`
}

type commonSection struct {
	BinName            string            `json:"bin_name"`
	DistDir            string            `json:"dist_dir"`
	ChecksumAlgorithm  string            `json:"checksum_algorithm"`
	StagingDirTemplate string            `json:"staging_dir_template"`
	Artefacts          []artefactSection `json:"artefacts"`
}

type targetSection struct {
	Platform           string            `json:"platform"`
	Arch               string            `json:"arch"`
	Target             string            `json:"target"`
	BinExt             string            `json:"bin_ext"`
	StagingDirTemplate string            `json:"staging_dir_template"`
	Artefacts          []artefactSection `json:"artefacts"`
}

// Document is a validated staging configuration file.
type Document struct {
	Common   commonSection            `json:"common"`
	Targets  map[string]targetSection `json:"targets"`
	Packages map[string]Package       `json:"packages"`

	source string
}

// Read parses and schema-validates the configuration at path.
// Files ending in .yaml or .yml are YAML, .json and .jsonc are JSON with
// comments allowed; everything else is TOML.
func Read(path string) (*Document, error) {
	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, release.NewConfigError(path, "configuration file not found at %s", path)
		}

		return nil, fmt.Errorf("read configuration: %w", err)
	}

	raw, err := decode(path, contents)
	if err != nil {
		return nil, release.NewConfigError("", "parse configuration %s: %v", path, err)
	}

	// Round-trip through JSON so the schema sees plain JSON values regardless of the source format.
	encoded, err := json.Marshal(raw)
	if err != nil {
		return nil, release.NewConfigError("", "configuration %s is not a key/value document: %v", path, err)
	}

	decoder := json.NewDecoder(bytes.NewReader(encoded))
	decoder.UseNumber()

	var generic any
	if err = decoder.Decode(&generic); err != nil {
		return nil, fmt.Errorf("decode configuration: %w", err)
	}

	if err = validateDocument(path, generic); err != nil {
		return nil, err
	}

	doc := &Document{source: path}
	if err = json.Unmarshal(encoded, doc); err != nil {
		return nil, release.NewConfigError("", "decode configuration %s: %v", path, err)
	}

	return doc, nil
}

func decode(path string, contents []byte) (any, error) {
	var raw map[string]any

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(contents, &raw); err != nil {
			return nil, err
		}
	case ".json", ".jsonc":
		if err := json.Unmarshal(jsonc.ToJSON(contents), &raw); err != nil {
			return nil, err
		}
	default:
		if err := toml.Unmarshal(contents, &raw); err != nil {
			return nil, err
		}
	}

	if raw == nil {
		raw = map[string]any{}
	}

	return raw, nil
}

// Load reads path and resolves the section for targetKey against workspace.
func Load(path, targetKey, workspace string) (*Staging, error) {
	doc, err := Read(path)
	if err != nil {
		return nil, err
	}

	return doc.Resolve(targetKey, workspace)
}

// Resolve selects targetKey and merges it with the common section.
func (d *Document) Resolve(targetKey, workspace string) (*Staging, error) {
	section, ok := d.Targets[targetKey]
	if !ok {
		key := "targets." + targetKey

		return nil, release.NewConfigError(key, "missing configuration key %s in %s", key, d.source)
	}

	algorithm := checksum.Normalize(d.Common.ChecksumAlgorithm)
	if _, err := checksum.New(algorithm); err != nil {
		return nil, release.NewConfigError("common.checksum_algorithm", "unsupported checksum algorithm: %s", algorithm)
	}

	artefacts, err := mergeArtefacts(d.Common.Artefacts, section.Artefacts)
	if err != nil {
		return nil, err
	}

	arch := section.Arch
	if arch == "" {
		if arch, err = target.PackagingLabel(section.Target); err != nil {
			return nil, fmt.Errorf("derive arch for targets.%s: %w", targetKey, err)
		}
	}

	cfg := &Staging{
		Workspace:          workspace,
		BinName:            d.Common.BinName,
		DistDir:            firstNonEmpty(d.Common.DistDir, DefaultDistDir),
		ChecksumAlgorithm:  algorithm,
		Artefacts:          artefacts,
		Platform:           section.Platform,
		Arch:               arch,
		Target:             section.Target,
		BinExt:             section.BinExt,
		StagingDirTemplate: firstNonEmpty(section.StagingDirTemplate, d.Common.StagingDirTemplate, DefaultStagingDirTemplate),
		TargetKey:          targetKey,
		Packages:           d.Packages,
	}

	return cfg, nil
}

// PackageFor returns the package expectations for format with templates rendered.
func (d *Document) PackageFor(format release.Format) (Package, bool, error) {
	pkg, ok := d.Packages[string(format)]
	if !ok {
		return Package{}, false, nil
	}

	name, err := Render(firstNonEmpty(pkg.Name, d.Common.BinName), map[string]string{"bin_name": d.Common.BinName})
	if err != nil {
		return Package{}, false, err
	}

	pkg.Name = name

	return pkg, true, nil
}

// BinName returns the configured primary binary name.
func (d *Document) BinName() string {
	return d.Common.BinName
}

func mergeArtefacts(common, specific []artefactSection) ([]Artefact, error) {
	sections := append(append([]artefactSection(nil), common...), specific...)
	if len(sections) == 0 {
		return nil, release.NewConfigError("artefacts", "no artefacts configured to stage")
	}

	artefacts := make([]Artefact, 0, len(sections))

	for _, s := range sections {
		required := true
		if s.Required != nil {
			required = *s.Required
		}

		artefacts = append(artefacts, Artefact{
			Source:       s.Source,
			Alternatives: s.Alternatives,
			Required:     required,
			Output:       s.Output,
			Destination:  s.Destination,
		})
	}

	return artefacts, nil
}

// TemplateContext returns the values available to source, destination and staging directory templates.
func (c *Staging) TemplateContext() (map[string]string, error) {
	values := map[string]string{
		"workspace":            filepath.ToSlash(c.Workspace),
		"bin_name":             c.BinName,
		"dist_dir":             c.DistDir,
		"checksum_algorithm":   c.ChecksumAlgorithm,
		"platform":             c.Platform,
		"arch":                 c.Arch,
		"target":               c.Target,
		"bin_ext":              c.BinExt,
		"target_key":           c.TargetKey,
		"staging_dir_template": c.StagingDirTemplate,
	}

	if pair, err := target.Resolve(c.Target); err == nil {
		values["packaging_arch"] = pair.Packaging
		values["deb_arch"] = pair.Debian
	}

	name, err := Render(c.StagingDirTemplate, values)
	if err != nil {
		return nil, err
	}

	values["staging_dir_name"] = name

	return values, nil
}

// StagingDirName renders the staging directory template.
func (c *Staging) StagingDirName() (string, error) {
	values, err := c.TemplateContext()
	if err != nil {
		return "", err
	}

	return values["staging_dir_name"], nil
}

// StagingDir returns the absolute staging directory.
func (c *Staging) StagingDir() (string, error) {
	name, err := c.StagingDirName()
	if err != nil {
		return "", err
	}

	return filepath.Join(c.Workspace, c.DistDir, name), nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}

	return ""
}
