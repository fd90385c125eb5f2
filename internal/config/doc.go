// Package config loads the declarative staging configuration (TOML or YAML),
// validates its structure against an embedded JSON Schema, resolves the
// section for one build target and renders {key} path templates.
//
// It also owns the lookup of the environment variables that supply the
// workspace root and the CI output file.
package config
