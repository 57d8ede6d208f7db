package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode represents a unique error identifier
type ErrorCode string

// Error categories
const (
	// Configuration errors (CONFIG-001 to CONFIG-099): malformed audit definition blocks
	ErrCodeConfigIncomplete        ErrorCode = "CONFIG-001"
	ErrCodeConfigHeaderRequired    ErrorCode = "CONFIG-002"
	ErrCodeConfigMissingFields     ErrorCode = "CONFIG-003"
	ErrCodeConfigExtraFields       ErrorCode = "CONFIG-004"
	ErrCodeConfigMissingQuery      ErrorCode = "CONFIG-005"
	ErrCodeConfigStandaloneBlocked ErrorCode = "CONFIG-006"
	ErrCodeConfigInvalidDefaults   ErrorCode = "CONFIG-007"

	// Render errors (RENDER-001 to RENDER-099)
	ErrCodeRenderEmptyResult ErrorCode = "RENDER-001"
	ErrCodeRenderNoRenderer  ErrorCode = "RENDER-002"

	// Diff errors (DIFF-001 to DIFF-099)
	ErrCodeDiffTypeMismatch ErrorCode = "DIFF-001"
)

// AuditError represents an enhanced error with code, source path, and suggestions
type AuditError struct {
	Code        ErrorCode
	Message     string
	Path        string
	Suggestions []string
	Cause       error
}

// Error implements the error interface
func (e *AuditError) Error() string {
	var b strings.Builder

	// Error code and message
	b.WriteString(fmt.Sprintf("[%s] %s", e.Code, e.Message))

	// Add source location if present
	if e.Path != "" {
		b.WriteString(fmt.Sprintf(" (%s)", e.Path))
	}

	// Add cause if present
	if e.Cause != nil {
		b.WriteString(fmt.Sprintf(": %v", e.Cause))
	}

	// Add suggestions
	if len(e.Suggestions) > 0 {
		b.WriteString("\n\nSuggestions:")
		for _, suggestion := range e.Suggestions {
			b.WriteString(fmt.Sprintf("\n  • %s", suggestion))
		}
	}

	return b.String()
}

// Unwrap implements error unwrapping for errors.Is and errors.As
func (e *AuditError) Unwrap() error {
	return e.Cause
}

// New creates a new AuditError
func New(code ErrorCode, message string) *AuditError {
	return &AuditError{
		Code:    code,
		Message: message,
	}
}

// Wrap creates a new AuditError wrapping an existing error
func Wrap(code ErrorCode, message string, cause error) *AuditError {
	return &AuditError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// WithPath attaches the source file path the error originated from
func (e *AuditError) WithPath(path string) *AuditError {
	e.Path = path
	return e
}

// WithSuggestion adds a suggestion to the error
func (e *AuditError) WithSuggestion(suggestion string) *AuditError {
	e.Suggestions = append(e.Suggestions, suggestion)
	return e
}

// WithSuggestions adds multiple suggestions to the error
func (e *AuditError) WithSuggestions(suggestions ...string) *AuditError {
	e.Suggestions = append(e.Suggestions, suggestions...)
	return e
}

// IsConfigError reports whether err is a malformed-definition error
func IsConfigError(err error) bool {
	return hasCodePrefix(err, "CONFIG-")
}

// IsRenderError reports whether err is a render failure
func IsRenderError(err error) bool {
	return hasCodePrefix(err, "RENDER-")
}

// IsDiffError reports whether err is a diff type mismatch
func IsDiffError(err error) bool {
	return hasCodePrefix(err, "DIFF-")
}

func hasCodePrefix(err error, prefix string) bool {
	var ae *AuditError
	if !errors.As(err, &ae) {
		return false
	}
	return strings.HasPrefix(string(ae.Code), prefix)
}

// Common error constructors for frequently used errors

// NewIncompleteDefinitionError reports a definition block with too few statements
func NewIncompleteDefinitionError(path string) *AuditError {
	return New(ErrCodeConfigIncomplete, "incomplete audit definition, missing AUDIT or QUERY").
		WithPath(path).
		WithSuggestion("An audit definition needs an AUDIT header statement followed by a SELECT query")
}

// NewHeaderRequiredError reports a block whose first statement is not an AUDIT header
func NewHeaderRequiredError(path string) *AuditError {
	return New(ErrCodeConfigHeaderRequired, "AUDIT statement is required as the first statement in the definition").
		WithPath(path)
}

// NewMissingFieldsError reports required header fields that were not provided
func NewMissingFieldsError(fields []string, path string) *AuditError {
	return New(ErrCodeConfigMissingFields,
		fmt.Sprintf("missing required fields [%s] in the audit definition", strings.Join(fields, ", "))).
		WithPath(path)
}

// NewExtraFieldsError reports header fields outside the declared schema
func NewExtraFieldsError(fields []string, path string) *AuditError {
	return New(ErrCodeConfigExtraFields,
		fmt.Sprintf("invalid extra fields [%s] in the audit definition", strings.Join(fields, ", "))).
		WithPath(path)
}

// NewMissingQueryError reports a block whose final statement is not a SELECT-class query
func NewMissingQueryError(path string) *AuditError {
	return New(ErrCodeConfigMissingQuery, "missing SELECT query in the audit definition").
		WithPath(path)
}

// NewStandaloneBlockingError reports the standalone-blocking invariant violation
func NewStandaloneBlockingError(name string) *AuditError {
	return New(ErrCodeConfigStandaloneBlocked,
		fmt.Sprintf("standalone audits cannot be blocking: '%s'", name)).
		WithSuggestion("Remove 'blocking true' or attach the audit to a model")
}

// NewInvalidDefaultsError reports a defaults value of an unsupported shape
func NewInvalidDefaultsError(detail string) *AuditError {
	return New(ErrCodeConfigInvalidDefaults,
		fmt.Sprintf("defaults must be a tuple of equality expressions or a map: %s", detail))
}

// NewRenderError reports a renderer that produced no result
func NewRenderError(audit, target string) *AuditError {
	return New(ErrCodeRenderEmptyResult,
		fmt.Sprintf("failed to render query for audit '%s', node '%s'", audit, target))
}

// NewNoRendererError reports a render attempt without a configured renderer
func NewNoRendererError(audit string) *AuditError {
	return New(ErrCodeRenderNoRenderer,
		fmt.Sprintf("no query renderer configured for audit '%s'", audit)).
		WithSuggestion("Pass a QueryRenderer through the loader options")
}

// NewDiffTypeError reports an attempt to diff against a non-audit node
func NewDiffTypeError(name, other string) *AuditError {
	return New(ErrCodeDiffTypeMismatch,
		fmt.Sprintf("cannot diff audit '%s' against a non-audit node '%s'", name, other))
}
