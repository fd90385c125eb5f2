package stager

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/release-kit/internal/config"
	"github.com/oshokin/release-kit/internal/domain/release"
	"github.com/oshokin/release-kit/internal/repository/manifest"
	"github.com/oshokin/release-kit/internal/repository/output"
)

// helloSHA256 is the SHA-256 digest of "hello".
const helloSHA256 = "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"

const baseConfig = `
[common]
bin_name = "tool"

[[common.artefacts]]
source = "target/{target}/release/{bin_name}{bin_ext}"
output = "binary_path"

[[common.artefacts]]
source = "LICENSE"
alternatives = ["LICENSE.txt"]
required = false
output = "license_path"

[targets.linux-x86_64]
platform = "linux"
target = "x86_64-unknown-linux-gnu"
`

func writeFile(t *testing.T, path, contents string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o755))
}

// newWorkspace creates a workspace holding the release binary and the given configuration.
func newWorkspace(t *testing.T, cfgText string) string {
	t.Helper()

	workspace := t.TempDir()
	writeFile(t, filepath.Join(workspace, "target", "x86_64-unknown-linux-gnu", "release", "tool"), "hello")
	writeFile(t, filepath.Join(workspace, config.DefaultConfigFilename), cfgText)

	return workspace
}

func loadConfig(t *testing.T, workspace string) *config.Staging {
	t.Helper()

	cfg, err := config.Load(filepath.Join(workspace, config.DefaultConfigFilename), "linux-x86_64", workspace)
	require.NoError(t, err)

	return cfg
}

// TestStageCopiesAndHashes verifies the staged file, sidecar, manifest and outputs of a run.
func TestStageCopiesAndHashes(t *testing.T) {
	t.Parallel()

	workspace := newWorkspace(t, baseConfig)
	outputPath := filepath.Join(t.TempDir(), "github_output")

	report, err := New(output.NewFileWriter(outputPath)).Stage(context.Background(), loadConfig(t, workspace))
	require.NoError(t, err)

	stagingDir := filepath.Join(workspace, "dist", "tool_linux_amd64")
	staged := filepath.Join(stagingDir, "tool")

	require.Equal(t, stagingDir, report.StagingDir)
	require.Len(t, report.Files, 1)
	require.Equal(t, release.StageResult{
		Source: filepath.Join(workspace, "target", "x86_64-unknown-linux-gnu", "release", "tool"),
		Path:   staged,
		Size:   5,
		Digest: helloSHA256,
		Output: "binary_path",
	}, report.Files[0])
	require.Equal(t, map[string]string{"binary_path": staged}, report.Outputs)

	info, err := os.Stat(staged)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o755), info.Mode().Perm())

	sidecar, err := os.ReadFile(staged + ".sha256")
	require.NoError(t, err)
	require.Equal(t, helloSHA256+"  tool\n", string(sidecar))

	m, err := manifest.Read(stagingDir)
	require.NoError(t, err)
	require.Equal(t, "sha256", m.Algorithm)
	require.Equal(t, report.Files, m.Files)

	contents, err := os.ReadFile(outputPath)
	require.NoError(t, err)

	text := string(contents)
	require.Contains(t, text, "artifact_dir="+filepath.ToSlash(stagingDir)+"\n")
	require.Contains(t, text, "dist_dir="+filepath.ToSlash(filepath.Join(workspace, "dist"))+"\n")
	require.Contains(t, text, "staged_files<<gh_STAGED_FILES\ntool\ngh_STAGED_FILES\n")
	require.Contains(t, text, `checksum_map={"tool":"`+helloSHA256+`"}`)
	require.Contains(t, text, "binary_path="+filepath.ToSlash(staged)+"\n")
	require.Contains(t, text, "staged_1_digest="+helloSHA256+"\n")
	require.Contains(t, text, "staged_1_size=5\n")
	require.Contains(t, text, "stage_outcome=success\n")
	require.NotContains(t, text, "license_path")

	require.NoFileExists(t, filepath.Join(workspace, "dist", ".tool_linux_amd64.lock"))
}

// TestStageIsIdempotent verifies repeated runs produce identical digests and outputs.
func TestStageIsIdempotent(t *testing.T) {
	t.Parallel()

	workspace := newWorkspace(t, baseConfig)
	cfg := loadConfig(t, workspace)
	stager := New(output.NewFileWriter(filepath.Join(t.TempDir(), "out")))

	first, err := stager.Stage(context.Background(), cfg)
	require.NoError(t, err)

	// A leftover file must not survive the staging directory reset.
	writeFile(t, filepath.Join(first.StagingDir, "stale.txt"), "old")

	second, err := stager.Stage(context.Background(), cfg)
	require.NoError(t, err)

	require.Equal(t, first.Files, second.Files)

	firstOutputs, err := output.Format(outputValues(first), false)
	require.NoError(t, err)

	secondOutputs, err := output.Format(outputValues(second), false)
	require.NoError(t, err)
	require.Equal(t, firstOutputs, secondOutputs)

	require.NoFileExists(t, filepath.Join(second.StagingDir, "stale.txt"))
}

// TestStageDigestDependsOnBytesOnly verifies identical contents under different names share a digest.
func TestStageDigestDependsOnBytesOnly(t *testing.T) {
	t.Parallel()

	workspace := newWorkspace(t, baseConfig+`
[[targets.linux-x86_64.artefacts]]
source = "copy/other-name"
`)
	writeFile(t, filepath.Join(workspace, "copy", "other-name"), "hello")

	report, err := New(output.NewFileWriter(filepath.Join(t.TempDir(), "out"))).Stage(context.Background(), loadConfig(t, workspace))
	require.NoError(t, err)
	require.Len(t, report.Files, 2)
	require.Equal(t, report.Files[0].Digest, report.Files[1].Digest)
	require.NotEqual(t, report.Files[0].Path, report.Files[1].Path)
}

// TestStageOptionalAlternative verifies alternatives are tried and the destination template applies.
func TestStageOptionalAlternative(t *testing.T) {
	t.Parallel()

	workspace := newWorkspace(t, strings.Replace(baseConfig,
		`output = "license_path"`,
		`output = "license_path"`+"\ndestination = \"{bin_name}-{source_name}\"", 1))
	writeFile(t, filepath.Join(workspace, "LICENSE.txt"), "MIT")

	report, err := New(output.NewFileWriter(filepath.Join(t.TempDir(), "out"))).Stage(context.Background(), loadConfig(t, workspace))
	require.NoError(t, err)
	require.Len(t, report.Files, 2)
	require.Equal(t, filepath.Join(report.StagingDir, "tool-LICENSE.txt"), report.Outputs["license_path"])
}

// TestStageGlobPicksNewest verifies the newest glob match wins.
func TestStageGlobPicksNewest(t *testing.T) {
	t.Parallel()

	workspace := newWorkspace(t, baseConfig+`
[[targets.linux-x86_64.artefacts]]
source = "dist-in/**/*.deb"
output = "deb_path"
`)

	older := filepath.Join(workspace, "dist-in", "a", "tool_1.0_amd64.deb")
	newer := filepath.Join(workspace, "dist-in", "b", "c", "tool_1.1_amd64.deb")
	writeFile(t, older, "old")
	writeFile(t, newer, "new")

	now := time.Now()
	require.NoError(t, os.Chtimes(older, now, now))
	require.NoError(t, os.Chtimes(newer, now.Add(time.Minute), now.Add(time.Minute)))

	report, err := New(output.NewFileWriter(filepath.Join(t.TempDir(), "out"))).Stage(context.Background(), loadConfig(t, workspace))
	require.NoError(t, err)
	require.Equal(t, newer, report.Files[1].Source)
	require.Equal(t, filepath.Join(report.StagingDir, "tool_1.1_amd64.deb"), report.Outputs["deb_path"])
}

// TestStageFailures verifies fatal conditions surface as StageErrors naming the offending value.
func TestStageFailures(t *testing.T) {
	t.Parallel()

	cases := map[string]struct {
		extra    string
		contains string
	}{
		"missing required artefact": {
			extra:    "[[targets.linux-x86_64.artefacts]]\nsource = \"missing/{bin_name}.bin\"\n",
			contains: "missing/tool.bin",
		},
		"destination escapes": {
			extra:    "[[targets.linux-x86_64.artefacts]]\nsource = \"LICENSE.md\"\ndestination = \"../evil\"\n",
			contains: "../evil",
		},
		"reserved output key": {
			extra:    "[[targets.linux-x86_64.artefacts]]\nsource = \"LICENSE.md\"\noutput = \"dist_dir\"\n",
			contains: "dist_dir",
		},
		"invalid template key": {
			extra:    "[[targets.linux-x86_64.artefacts]]\nsource = \"{nope}\"\n",
			contains: "invalid template key 'nope'",
		},
	}

	for name, tc := range cases {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			workspace := newWorkspace(t, baseConfig+tc.extra)
			writeFile(t, filepath.Join(workspace, "LICENSE.md"), "MIT")

			_, err := New(output.NewFileWriter(filepath.Join(t.TempDir(), "out"))).Stage(context.Background(), loadConfig(t, workspace))
			require.ErrorIs(t, err, release.ErrStage)
			require.Contains(t, err.Error(), tc.contains)
		})
	}
}

// TestStageRejectsLockedDirectory verifies a live foreign lock owner blocks the run.
func TestStageRejectsLockedDirectory(t *testing.T) {
	t.Parallel()

	workspace := newWorkspace(t, baseConfig)
	writeFile(t, filepath.Join(workspace, "dist", ".tool_linux_amd64.lock"), strconv.Itoa(os.Getppid()))

	_, err := New(output.NewFileWriter(filepath.Join(t.TempDir(), "out"))).Stage(context.Background(), loadConfig(t, workspace))
	require.ErrorIs(t, err, release.ErrStage)
	require.Contains(t, err.Error(), "lock")
}

// TestContainedPath verifies destination containment rules.
func TestContainedPath(t *testing.T) {
	t.Parallel()

	root := t.TempDir()

	got, err := containedPath(root, "sub/../file")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(root, "file"), got)

	for _, name := range []string{"", ".", "../x", "/etc/passwd", "a/../../x"} {
		_, err = containedPath(root, name)
		require.ErrorIs(t, err, errEscapesStagingDir, name)
	}
}

// TestRunRequiresEnvironment verifies missing variables fail before any filesystem work.
func TestRunRequiresEnvironment(t *testing.T) {
	t.Setenv(config.WorkspaceEnv, "")
	t.Setenv(config.OutputEnv, "")

	_, err := Run(context.Background(), &Options{TargetKey: "linux-x86_64"})
	require.ErrorIs(t, err, release.ErrMissingEnvironment)
	require.Contains(t, err.Error(), config.WorkspaceEnv)
}

// TestRunRecordsOutcome verifies success and failure outcomes are appended to the output file.
func TestRunRecordsOutcome(t *testing.T) {
	workspace := newWorkspace(t, baseConfig)
	outputPath := filepath.Join(t.TempDir(), "github_output")

	t.Setenv(config.WorkspaceEnv, workspace)
	t.Setenv(config.OutputEnv, outputPath)

	report, err := Run(context.Background(), &Options{TargetKey: "linux-x86_64"})
	require.NoError(t, err)
	require.Len(t, report.Files, 1)

	_, err = Run(context.Background(), &Options{TargetKey: "windows-x86_64"})
	require.ErrorIs(t, err, release.ErrConfig)

	contents, err := os.ReadFile(outputPath)
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(string(contents), "stage_outcome=failure\n"))
	require.Contains(t, string(contents), "stage_outcome=success\n")
}
