package stager

import (
	"encoding/json"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"

	"github.com/oshokin/release-kit/internal/domain/release"
	"github.com/oshokin/release-kit/internal/repository/output"
)

const (
	// OutcomeKey reports whether the staging run succeeded.
	OutcomeKey = "stage_outcome"
	// OutcomeSuccess and OutcomeFailure are the OutcomeKey values.
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

//nolint:gochecknoglobals // Fixed output vocabulary.
var (
	reservedOutputKeys = []string{
		"artefact_map",
		"artifact_dir",
		"checksum_map",
		"dist_dir",
		OutcomeKey,
		"staged_files",
	}

	perFileOutputKey = regexp.MustCompile(`^staged_\d+_(path|digest|size)$`)
)

// checkReservedKeys rejects artefact output keys that would overwrite pipeline outputs.
func checkReservedKeys(outputs map[string]string) error {
	var collisions []string

	for key := range outputs {
		if slices.Contains(reservedOutputKeys, key) || perFileOutputKey.MatchString(key) {
			collisions = append(collisions, key)
		}
	}

	if len(collisions) == 0 {
		return nil
	}

	slices.Sort(collisions)

	return release.NewStageError("", nil, "artefact outputs collide with reserved keys: %v", collisions)
}

// outputValues assembles the CI outputs describing a successful run.
func outputValues(report *release.StageReport) output.Values {
	names := make([]string, 0, len(report.Files))
	for _, file := range report.Files {
		names = append(names, filepath.Base(file.Path))
	}

	slices.Sort(names)

	artefactMap := make(map[string]string, len(report.Outputs))
	for key, path := range report.Outputs {
		artefactMap[key] = filepath.ToSlash(path)
	}

	values := output.Values{
		"artifact_dir": filepath.ToSlash(report.StagingDir),
		"dist_dir":     filepath.ToSlash(filepath.Dir(report.StagingDir)),
		"staged_files": names,
		"artefact_map": mustJSON(artefactMap),
		"checksum_map": mustJSON(report.Checksums),
		OutcomeKey:     OutcomeSuccess,
	}

	for key, path := range artefactMap {
		values[key] = path
	}

	for i, file := range report.Files {
		prefix := "staged_" + strconv.Itoa(i+1) + "_"

		values[prefix+"path"] = filepath.ToSlash(file.Path)
		values[prefix+"digest"] = file.Digest
		values[prefix+"size"] = strconv.FormatInt(file.Size, 10)
	}

	return values
}

// mustJSON encodes a string map with sorted keys.
func mustJSON(m map[string]string) string {
	encoded, _ := json.Marshal(m) //nolint:errchkjson // String maps always encode.

	return string(encoded)
}
