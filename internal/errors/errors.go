package errors

import (
	"errors"
	"fmt"
)

// Kind represents different categories of pipeline errors
type Kind string

const (
	KindValidation        Kind = "validation"
	KindTemplateNotLoaded Kind = "template_not_loaded"
	KindImageNotFound     Kind = "image_not_found"
	KindInvalidImage      Kind = "invalid_image"
	KindOCREngine         Kind = "ocr_engine"
	KindBadPattern        Kind = "bad_pattern"
	KindCancelled         Kind = "cancelled"
)

// PipelineError represents a structured pipeline error
type PipelineError struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
	Path    string `json:"path,omitempty"`
	Cause   error  `json:"-"`
}

// Error implements the error interface
func (e *PipelineError) Error() string {
	msg := e.Message
	if e.Path != "" {
		msg = fmt.Sprintf("%s (at %s)", e.Message, e.Path)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Kind, msg, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, msg)
}

// Unwrap returns the underlying error
func (e *PipelineError) Unwrap() error {
	return e.Cause
}

// NewValidationError creates a template validation error. The path names the
// offending value, e.g. "regions.invoice_number.rect_ratio.x".
func NewValidationError(path, message string) *PipelineError {
	return &PipelineError{
		Kind:    KindValidation,
		Message: message,
		Path:    path,
	}
}

// NewTemplateNotLoadedError signals Process was called before LoadTemplate
func NewTemplateNotLoadedError() *PipelineError {
	return &PipelineError{
		Kind:    KindTemplateNotLoaded,
		Message: "no template loaded, call LoadTemplate first",
	}
}

// NewImageNotFoundError signals a path-like image input did not resolve
func NewImageNotFoundError(path string, cause error) *PipelineError {
	return &PipelineError{
		Kind:    KindImageNotFound,
		Message: "image file not found",
		Path:    path,
		Cause:   cause,
	}
}

// NewInvalidImageError signals a nil image or one below minimum dimensions
func NewInvalidImageError(message string) *PipelineError {
	return &PipelineError{
		Kind:    KindInvalidImage,
		Message: message,
	}
}

// NewOCREngineError signals a failure in the underlying OCR engine
func NewOCREngineError(message string, cause error) *PipelineError {
	return &PipelineError{
		Kind:    KindOCREngine,
		Message: message,
		Cause:   cause,
	}
}

// NewBadPatternError signals a regular expression that refused to compile.
// Per-field and non-fatal: the field yields no candidates.
func NewBadPatternError(field, pattern string, cause error) *PipelineError {
	return &PipelineError{
		Kind:    KindBadPattern,
		Message: fmt.Sprintf("invalid pattern %q", pattern),
		Path:    field,
		Cause:   cause,
	}
}

// NewCancelledError signals cooperative cancellation of a Process call
func NewCancelledError(cause error) *PipelineError {
	return &PipelineError{
		Kind:    KindCancelled,
		Message: "processing cancelled",
		Cause:   cause,
	}
}

// IsKind checks if the error is of a specific kind
func IsKind(err error, kind Kind) bool {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Kind == kind
	}
	return false
}

// KindOf extracts the kind from an error, or empty when it is not a
// PipelineError
func KindOf(err error) Kind {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}
