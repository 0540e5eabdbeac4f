package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Common application errors
var (
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrInternal     = errors.New("internal error")
	ErrDatabase     = errors.New("database error")
	ErrValidation   = errors.New("validation failed")
)

// Extraction and verification errors
var (
	// ErrUnextractableDocument aborts a job: there is no usable text at all.
	ErrUnextractableDocument = errors.New("unextractable document")
	// ErrEnrichmentUnavailable is non-fatal: the pipeline continues heuristics-only.
	ErrEnrichmentUnavailable = errors.New("enrichment unavailable")
	// ErrUnresolvableLink is non-fatal: the link is skipped.
	ErrUnresolvableLink = errors.New("unresolvable link")
	// ErrJobAlreadyTerminal rejects re-running a completed or failed job.
	ErrJobAlreadyTerminal = errors.New("job already terminal")
	// ErrJobInProgress rejects a second concurrent run of the same job.
	ErrJobInProgress = errors.New("job already running")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// NotFoundf builds a NOT_FOUND AppError wrapping ErrNotFound.
func NotFoundf(format string, args ...any) error {
	return NewAppError("NOT_FOUND", fmt.Sprintf(format, args...), ErrNotFound)
}

// Validationf builds a VALIDATION_ERROR AppError wrapping ErrValidation.
func Validationf(format string, args ...any) error {
	return NewAppError("VALIDATION_ERROR", fmt.Sprintf(format, args...), ErrValidation)
}

// Unextractablef builds an UNEXTRACTABLE_DOCUMENT AppError.
func Unextractablef(format string, args ...any) error {
	return NewAppError("UNEXTRACTABLE_DOCUMENT", fmt.Sprintf(format, args...), ErrUnextractableDocument)
}

// IsNotFound reports whether err is (or wraps) ErrNotFound.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsValidation reports whether err is a validation or input error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) || errors.Is(err, ErrInvalidInput)
}
