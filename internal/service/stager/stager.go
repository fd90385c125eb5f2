package stager

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"strings"

	securejoin "github.com/cyphar/filepath-securejoin"

	"github.com/oshokin/release-kit/internal/checksum"
	"github.com/oshokin/release-kit/internal/config"
	"github.com/oshokin/release-kit/internal/domain/release"
	"github.com/oshokin/release-kit/internal/logger"
	"github.com/oshokin/release-kit/internal/repository/lock"
	"github.com/oshokin/release-kit/internal/repository/manifest"
	"github.com/oshokin/release-kit/internal/repository/output"
)

const (
	// stagingDirMode is the permission for the staging directory and its subdirectories.
	stagingDirMode os.FileMode = 0o755

	// defaultMapCapacity is the initial capacity for per-run maps.
	defaultMapCapacity = 8
)

var errEscapesStagingDir = errors.New("path escapes its parent directory")

// Stager stages artefacts for one resolved target configuration.
type Stager struct {
	// writer receives the CI outputs of a successful run.
	writer output.Writer
}

// New creates a Stager appending its outputs to writer.
func New(writer output.Writer) *Stager {
	return &Stager{writer: writer}
}

// Stage copies every configured artefact into the staging directory, hashes it
// and publishes the results. Files staged before a failure are left in place.
func (s *Stager) Stage(ctx context.Context, cfg *config.Staging) (*release.StageReport, error) {
	values, err := cfg.TemplateContext()
	if err != nil {
		return nil, err
	}

	distRoot := filepath.Join(cfg.Workspace, cfg.DistDir)
	name := values["staging_dir_name"]

	stagingDir, err := containedPath(distRoot, name)
	if err != nil {
		return nil, release.NewStageError(name, err, "staging directory %q escapes %s", name, distRoot)
	}

	held, err := lock.Acquire(filepath.Join(distRoot, "."+name+".lock"))
	if err != nil {
		return nil, release.NewStageError(stagingDir, err, "cannot lock staging directory %s: %v", stagingDir, err)
	}

	defer func() {
		if releaseErr := held.Release(); releaseErr != nil {
			logger.WarnKV(ctx, "Failed to release staging lock", "path", held.Path(), "error", releaseErr)
		}
	}()

	if err = resetDir(stagingDir); err != nil {
		return nil, release.NewStageError(stagingDir, err, "prepare staging directory %s: %v", stagingDir, err)
	}

	logger.InfoKV(ctx, "Staging artefacts",
		"target", cfg.Target,
		"staging_dir", stagingDir,
		"algorithm", cfg.ChecksumAlgorithm)

	report := &release.StageReport{
		StagingDir: stagingDir,
		Algorithm:  cfg.ChecksumAlgorithm,
		Outputs:    make(map[string]string, defaultMapCapacity),
		Checksums:  make(map[string]string, defaultMapCapacity),
	}

	for i := range cfg.Artefacts {
		artefact := &cfg.Artefacts[i]

		result, staged, stageErr := stageArtefact(ctx, cfg, stagingDir, artefact, values)
		if stageErr != nil {
			return nil, stageErr
		}

		if !staged {
			continue
		}

		report.Files = append(report.Files, result)
		report.Checksums[filepath.Base(result.Path)] = result.Digest

		if artefact.Output != "" {
			report.Outputs[artefact.Output] = result.Path
		}
	}

	if len(report.Files) == 0 {
		return nil, release.NewStageError(stagingDir, nil, "no artefacts were staged")
	}

	if err = checkReservedKeys(report.Outputs); err != nil {
		return nil, err
	}

	manifestPath, err := manifest.Write(stagingDir, &manifest.Manifest{
		Target:    cfg.Target,
		Platform:  cfg.Platform,
		Arch:      cfg.Arch,
		Algorithm: cfg.ChecksumAlgorithm,
		Files:     report.Files,
	})
	if err != nil {
		return nil, release.NewStageError(stagingDir, err, "write staging manifest: %v", err)
	}

	if err = s.writer.Append(outputValues(report)); err != nil {
		return nil, release.NewStageError(stagingDir, err, "write CI outputs: %v", err)
	}

	logger.InfoKV(ctx, "Staging completed",
		"staging_dir", stagingDir,
		"files", len(report.Files),
		"manifest", manifestPath)

	return report, nil
}

// stageArtefact resolves, copies and hashes one artefact.
// The boolean is false when an optional artefact had no source.
func stageArtefact(
	ctx context.Context,
	cfg *config.Staging,
	stagingDir string,
	artefact *config.Artefact,
	values map[string]string,
) (release.StageResult, bool, error) {
	source, attempts, err := resolveSource(cfg.Workspace, artefact, values)
	if err != nil {
		return release.StageResult{}, false, toStageError(artefact.Source, err)
	}

	if source == "" {
		if artefact.Required {
			return release.StageResult{}, false, missingSourceError(cfg.Workspace, artefact, attempts)
		}

		logger.WarnKV(ctx, "Optional artefact missing, skipping", "source", artefact.Source)

		return release.StageResult{}, false, nil
	}

	destination, err := destinationPath(stagingDir, artefact, source, values)
	if err != nil {
		return release.StageResult{}, false, err
	}

	if err = copyFile(source, destination); err != nil {
		return release.StageResult{}, false, release.NewStageError(source, err, "copy %s to %s: %v", source, destination, err)
	}

	digest, err := checksum.File(destination, cfg.ChecksumAlgorithm)
	if err != nil {
		return release.StageResult{}, false, release.NewStageError(destination, err, "checksum %s: %v", destination, err)
	}

	if _, err = checksum.WriteSidecar(destination, digest); err != nil {
		return release.StageResult{}, false, release.NewStageError(destination, err, "%v", err)
	}

	logger.InfoKV(ctx, "Staged artefact",
		"source", relativeTo(cfg.Workspace, source),
		"destination", relativeTo(cfg.Workspace, destination),
		"digest", digest.Hex)

	return release.StageResult{
		Source: source,
		Path:   destination,
		Size:   digest.Size,
		Digest: digest.Hex,
		Output: artefact.Output,
	}, true, nil
}

func missingSourceError(workspace string, artefact *config.Artefact, attempts []attempt) error {
	lines := make([]string, 0, len(attempts))
	for _, a := range attempts {
		lines = append(lines, a.String())
	}

	path := artefact.Source
	if len(attempts) > 0 {
		path = attempts[0].rendered
	}

	return release.NewStageError(path, nil,
		"required artefact not found: workspace=%s attempts=[%s]",
		filepath.ToSlash(workspace), strings.Join(lines, ", "))
}

func toStageError(path string, err error) error {
	if release.KindOf(err) != "" {
		return err
	}

	return release.NewStageError(path, err, "resolve %s: %v", path, err)
}

// destinationPath renders the destination name, defaulting to the source base name.
func destinationPath(stagingDir string, artefact *config.Artefact, source string, values map[string]string) (string, error) {
	name := filepath.Base(source)

	if artefact.Destination != "" {
		artefactValues := maps.Clone(values)
		artefactValues["source_path"] = filepath.ToSlash(source)
		artefactValues["source_name"] = filepath.Base(source)

		rendered, err := config.Render(artefact.Destination, artefactValues)
		if err != nil {
			return "", err
		}

		name = rendered
	}

	destination, err := containedPath(stagingDir, name)
	if err != nil {
		return "", release.NewStageError(name, err, "destination escapes staging directory: %s", name)
	}

	if err = os.MkdirAll(filepath.Dir(destination), stagingDirMode); err != nil {
		return "", release.NewStageError(destination, err, "create destination directory: %v", err)
	}

	return destination, nil
}

// containedPath joins name under root and rejects names that would leave it.
// Symlinks inside root are resolved so a link cannot redirect the result.
func containedPath(root, name string) (string, error) {
	if name == "" || filepath.IsAbs(name) {
		return "", fmt.Errorf("%w: %q", errEscapesStagingDir, name)
	}

	root = filepath.Clean(root)
	joined := filepath.Join(root, name)

	secured, err := securejoin.SecureJoin(root, name)
	if err != nil {
		return "", err
	}

	if secured != joined || joined == root {
		return "", fmt.Errorf("%w: %q", errEscapesStagingDir, name)
	}

	return secured, nil
}

func resetDir(dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return err
	}

	return os.MkdirAll(dir, stagingDirMode)
}

// copyFile copies src to dst keeping its permissions and modification time.
func copyFile(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}

	if err = os.Remove(dst); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	in, err := os.Open(filepath.Clean(src))
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, info.Mode().Perm())
	if err != nil {
		return err
	}

	if _, err = io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}

	if err = out.Close(); err != nil {
		return err
	}

	return os.Chtimes(dst, info.ModTime(), info.ModTime())
}

func relativeTo(base, path string) string {
	rel, err := filepath.Rel(base, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(path)
	}

	return filepath.ToSlash(rel)
}
