package model

import (
	"errors"
	"fmt"
)

// ErrorType categorizes failures raised while analyzing, editing or
// generating a template.
type ErrorType int

const (
	ErrorTypeUnknown ErrorType = iota
	ErrorTypeAnalysis
	ErrorTypeGeneration
	ErrorTypeFieldWrite
	ErrorTypeStaleMapping
	ErrorTypeMissingGeometry
	ErrorTypePageOutOfRange
	ErrorTypeUnknownField
)

// ErrorSeverity indicates whether a failure aborts the operation.
type ErrorSeverity int

const (
	SeverityWarning ErrorSeverity = iota
	SeverityError
)

// String returns a string representation of the ErrorType
func (et ErrorType) String() string {
	switch et {
	case ErrorTypeAnalysis:
		return "ANALYSIS_ERROR"
	case ErrorTypeGeneration:
		return "GENERATION_ERROR"
	case ErrorTypeFieldWrite:
		return "FIELD_WRITE_WARNING"
	case ErrorTypeStaleMapping:
		return "STALE_MAPPING_WARNING"
	case ErrorTypeMissingGeometry:
		return "MISSING_GEOMETRY_WARNING"
	case ErrorTypePageOutOfRange:
		return "PAGE_OUT_OF_RANGE_WARNING"
	case ErrorTypeUnknownField:
		return "UNKNOWN_FIELD"
	default:
		return "UNKNOWN"
	}
}

// Severity returns how critical errors of this type are. Warnings are
// field-local and never abort a generation.
func (et ErrorType) Severity() ErrorSeverity {
	switch et {
	case ErrorTypeFieldWrite, ErrorTypeStaleMapping, ErrorTypeMissingGeometry, ErrorTypePageOutOfRange:
		return SeverityWarning
	default:
		return SeverityError
	}
}

// FillError carries the type of failure, the field it concerns (if any) and
// the underlying cause.
type FillError struct {
	Type    ErrorType
	Message string
	FieldID string
	Cause   error
}

// Sentinels for errors.Is matching by type.
var (
	ErrAnalysis     = &FillError{Type: ErrorTypeAnalysis}
	ErrGeneration   = &FillError{Type: ErrorTypeGeneration}
	ErrFieldWrite   = &FillError{Type: ErrorTypeFieldWrite}
	ErrStaleMapping = &FillError{Type: ErrorTypeStaleMapping}
	ErrUnknownField = &FillError{Type: ErrorTypeUnknownField}
)

// Error implements the error interface
func (e *FillError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Type, e.Message)
	if e.FieldID != "" {
		msg += fmt.Sprintf(" (field %s)", e.FieldID)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *FillError) Unwrap() error {
	return e.Cause
}

// Is matches any FillError of the same type.
func (e *FillError) Is(target error) bool {
	var fe *FillError
	if !errors.As(target, &fe) {
		return false
	}
	return fe.Type == e.Type
}

// IsWarning reports whether the error is field-local.
func (e *FillError) IsWarning() bool {
	return e.Type.Severity() == SeverityWarning
}

// NewAnalysisError reports a source document that cannot be parsed.
func NewAnalysisError(cause error) *FillError {
	return &FillError{Type: ErrorTypeAnalysis, Message: "cannot analyze document", Cause: cause}
}

// NewGenerationError reports stored document bytes that cannot be re-opened
// or serialized.
func NewGenerationError(message string, cause error) *FillError {
	return &FillError{Type: ErrorTypeGeneration, Message: message, Cause: cause}
}

// NewFieldError creates a field-scoped error of the given type.
func NewFieldError(errorType ErrorType, fieldID, message string, cause error) *FillError {
	return &FillError{Type: errorType, Message: message, FieldID: fieldID, Cause: cause}
}
