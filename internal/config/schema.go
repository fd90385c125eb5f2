package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/oshokin/release-kit/internal/domain/release"
)

const schemaURL = "staging.schema.json"

//go:embed staging.schema.json
var stagingSchema []byte

//nolint:gochecknoglobals // Compiled once per process.
var (
	compileOnce    sync.Once
	compiledSchema *jsonschema.Schema
	errCompile     error

	// missingPropertyPattern extracts the first name from "missing properties: 'a', 'b'".
	missingPropertyPattern = regexp.MustCompile(`missing propert(?:y|ies): '([^']+)'`)
)

func schema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020

		if err := compiler.AddResource(schemaURL, bytes.NewReader(stagingSchema)); err != nil {
			errCompile = fmt.Errorf("add staging schema: %w", err)
			return
		}

		compiledSchema, errCompile = compiler.Compile(schemaURL)
	})

	return compiledSchema, errCompile
}

// validateDocument checks a decoded JSON document against the staging schema.
// The first violation is reported as a ConfigError naming its dotted key.
func validateDocument(source string, doc any) error {
	sch, err := schema()
	if err != nil {
		return err
	}

	err = sch.Validate(doc)
	if err == nil {
		return nil
	}

	var validationErr *jsonschema.ValidationError
	if !errors.As(err, &validationErr) {
		return release.NewConfigError("", "invalid configuration in %s: %v", source, err)
	}

	leaf := firstLeaf(validationErr)
	key := dottedKey(leaf.InstanceLocation)

	if m := missingPropertyPattern.FindStringSubmatch(leaf.Message); m != nil {
		key = joinKey(key, m[1])

		return release.NewConfigError(key, "missing required key %s in %s", key, source)
	}

	return release.NewConfigError(key, "invalid value for %s in %s: %s", displayKey(key), source, leaf.Message)
}

func firstLeaf(err *jsonschema.ValidationError) *jsonschema.ValidationError {
	for len(err.Causes) > 0 {
		err = err.Causes[0]
	}

	return err
}

// dottedKey turns a JSON pointer such as /common/artefacts/0/required into common.artefacts[0].required.
func dottedKey(pointer string) string {
	var key string

	for _, segment := range strings.Split(strings.TrimPrefix(pointer, "/"), "/") {
		if segment == "" {
			continue
		}

		segment = strings.ReplaceAll(strings.ReplaceAll(segment, "~1", "/"), "~0", "~")

		if _, err := strconv.Atoi(segment); err == nil {
			key += "[" + segment + "]"
			continue
		}

		key = joinKey(key, segment)
	}

	return key
}

func joinKey(parent, child string) string {
	if parent == "" {
		return child
	}

	return parent + "." + child
}

func displayKey(key string) string {
	if key == "" {
		return "document root"
	}

	return key
}
