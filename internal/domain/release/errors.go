package release

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies a failure so callers can branch without string matching.
type ErrorKind string

const (
	// KindUnsupportedTarget indicates a target triple missing from the architecture table.
	KindUnsupportedTarget ErrorKind = "UNSUPPORTED_TARGET"

	// KindMissingEnvironment indicates a required environment variable is unset or empty.
	KindMissingEnvironment ErrorKind = "MISSING_ENVIRONMENT"

	// KindConfig indicates a structurally invalid configuration document.
	KindConfig ErrorKind = "CONFIG_ERROR"

	// KindStage indicates a missing source artefact or an I/O failure while staging.
	KindStage ErrorKind = "STAGE_ERROR"

	// KindValidation indicates a package that failed location or content checks.
	KindValidation ErrorKind = "VALIDATION_ERROR"
)

// Sentinels for errors.Is checks. They match any *Error of the same kind.
var (
	ErrUnsupportedTarget  = &Error{Kind: KindUnsupportedTarget}
	ErrMissingEnvironment = &Error{Kind: KindMissingEnvironment}
	ErrConfig             = &Error{Kind: KindConfig}
	ErrStage              = &Error{Kind: KindStage}
	ErrValidation         = &Error{Kind: KindValidation}
)

// Error is the tagged failure returned by every release component.
type Error struct {
	// Kind is the failure class.
	Kind ErrorKind
	// Value is the offending value: a triple, a variable name or a configuration key.
	Value string
	// Path is the offending filesystem or payload path, if any.
	Path string
	// Count is the number of matches found for locate failures, -1 otherwise.
	Count int
	// Message is the human-readable description.
	Message string
	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}

	return e.Message + ": " + e.Err.Error()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is a sentinel of the same kind.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}

	return t.Message == "" && t.Kind == e.Kind
}

// Title returns the short annotation title used for CI error lines.
func (k ErrorKind) Title() string {
	switch k {
	case KindUnsupportedTarget:
		return "Unsupported Target"
	case KindMissingEnvironment:
		return "Missing Environment"
	case KindConfig:
		return "Configuration Error"
	case KindStage:
		return "Staging Failure"
	case KindValidation:
		return "Validation Failure"
	default:
		return "Failure"
	}
}

// KindOf returns the kind of the first *Error in err's chain, or "" if there is none.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}

	return ""
}

// NewUnsupportedTarget reports a triple that no mapping entry accepts.
// The triple is kept exactly as the caller passed it.
func NewUnsupportedTarget(triple string) *Error {
	return &Error{
		Kind:    KindUnsupportedTarget,
		Value:   triple,
		Count:   -1,
		Message: "unsupported target triple: " + triple,
	}
}

// NewMissingEnvironment reports an unset or empty environment variable.
func NewMissingEnvironment(name string) *Error {
	return &Error{
		Kind:    KindMissingEnvironment,
		Value:   name,
		Count:   -1,
		Message: fmt.Sprintf("environment variable '%s' is not set", name),
	}
}

// NewConfigError reports an invalid configuration key or section.
func NewConfigError(key, format string, args ...any) *Error {
	return &Error{
		Kind:    KindConfig,
		Value:   key,
		Count:   -1,
		Message: fmt.Sprintf(format, args...),
	}
}

// NewStageError reports a staging failure tied to path.
func NewStageError(path string, cause error, format string, args ...any) *Error {
	return &Error{
		Kind:    KindStage,
		Path:    path,
		Count:   -1,
		Message: fmt.Sprintf(format, args...),
		Err:     cause,
	}
}

// NewValidationError reports a generic validation failure.
func NewValidationError(format string, args ...any) *Error {
	return &Error{
		Kind:    KindValidation,
		Count:   -1,
		Message: fmt.Sprintf(format, args...),
	}
}

// NewMatchCountError reports a locate that did not find exactly one artefact.
func NewMatchCountError(description string, count int) *Error {
	return &Error{
		Kind:    KindValidation,
		Value:   description,
		Count:   count,
		Message: fmt.Sprintf("expected exactly one %s, found %d", description, count),
	}
}

// NewMissingPayloadError reports expected paths absent from an artefact.
// Path holds the first missing entry.
func NewMissingPayloadError(description string, missing []string) *Error {
	first := ""
	if len(missing) > 0 {
		first = missing[0]
	}

	return &Error{
		Kind:    KindValidation,
		Value:   description,
		Path:    first,
		Count:   len(missing),
		Message: fmt.Sprintf("missing %s: %s", description, strings.Join(missing, ", ")),
	}
}
