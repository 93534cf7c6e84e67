// Package errors provides structured error types for the Colonnade system.
// All errors include a category, code, message, and optional details for
// consistent error handling across components.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCategory classifies errors by system component.
type ErrorCategory string

const (
	ErrCategoryValidation ErrorCategory = "VALIDATION"
	ErrCategoryContainer  ErrorCategory = "CONTAINER"
	ErrCategoryColumn     ErrorCategory = "COLUMN"
	ErrCategoryTable      ErrorCategory = "TABLE"
	ErrCategorySelection  ErrorCategory = "SELECTION"
	ErrCategoryStorage    ErrorCategory = "STORAGE"
	ErrCategoryCatalog    ErrorCategory = "CATALOG"
	ErrCategoryInternal   ErrorCategory = "INTERNAL"
)

// Error codes for each category.
const (
	// Validation codes
	CodeInvalidName          = "INVALID_NAME"
	CodeInvalidColumnSpec    = "INVALID_COLUMN_SPEC"
	CodeInvalidFieldSpec     = "INVALID_FIELD_SPEC"
	CodeLengthMismatch       = "LENGTH_MISMATCH"
	CodeDuplicateColumn      = "DUPLICATE_COLUMN"
	CodeDuplicateIndexTarget = "DUPLICATE_INDEX_TARGET"

	// Container codes
	CodeAlreadySet    = "ALREADY_SET"
	CodeOwnership     = "OWNERSHIP"
	CodeChildNotFound = "CHILD_NOT_FOUND"

	// Column codes
	CodeTermSetRejected    = "TERM_SET_REJECTED"
	CodeIndexWidthOverflow = "INDEX_WIDTH_OVERFLOW"
	CodeInvalidData        = "INVALID_DATA"

	// Table codes
	CodeMissingColumn         = "MISSING_COLUMN"
	CodeUnexpectedColumn      = "UNEXPECTED_COLUMN"
	CodeDuplicateID           = "DUPLICATE_ID"
	CodeConflictingColumnKind = "CONFLICTING_COLUMN_KIND"

	// Selection codes
	CodeRowIndexOutOfRange   = "ROW_INDEX_OUT_OF_RANGE"
	CodeUnsupportedSelection = "UNSUPPORTED_SELECTION"
	CodeUnknownColumn        = "UNKNOWN_COLUMN"

	// Storage codes
	CodeUploadFailed   = "UPLOAD_FAILED"
	CodeDownloadFailed = "DOWNLOAD_FAILED"
	CodeObjectNotFound = "OBJECT_NOT_FOUND"
	CodeChecksum       = "CHECKSUM_MISMATCH"

	// Catalog codes
	CodeSnapshotNotFound = "SNAPSHOT_NOT_FOUND"
	CodeWriteConflict    = "WRITE_CONFLICT"

	// Internal codes
	CodeUnexpected = "UNEXPECTED"
)

// ColonnadeError is the structured error type used throughout the system.
type ColonnadeError struct {
	Category ErrorCategory
	Code     string
	Message  string
	Details  map[string]interface{}
	Cause    error
}

// Error returns a formatted error string.
func (e *ColonnadeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Category, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Category, e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *ColonnadeError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches this error's category and code.
func (e *ColonnadeError) Is(target error) bool {
	var t *ColonnadeError
	if errors.As(target, &t) {
		return e.Category == t.Category && e.Code == t.Code
	}
	return false
}

// New creates a new ColonnadeError.
func New(category ErrorCategory, code, message string) *ColonnadeError {
	return &ColonnadeError{
		Category: category,
		Code:     code,
		Message:  message,
	}
}

// Newf creates a new ColonnadeError with a formatted message.
func Newf(category ErrorCategory, code, format string, args ...interface{}) *ColonnadeError {
	return New(category, code, fmt.Sprintf(format, args...))
}

// Wrap creates a new ColonnadeError wrapping an existing error.
func Wrap(category ErrorCategory, code, message string, cause error) *ColonnadeError {
	return &ColonnadeError{
		Category: category,
		Code:     code,
		Message:  message,
		Cause:    cause,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *ColonnadeError) WithDetails(details map[string]interface{}) *ColonnadeError {
	cp := *e
	cp.Details = details
	return &cp
}

// GetCategory extracts the error category from an error chain.
// Returns empty string if the error is not a ColonnadeError.
func GetCategory(err error) ErrorCategory {
	var ce *ColonnadeError
	if errors.As(err, &ce) {
		return ce.Category
	}
	return ""
}

// GetCode extracts the error code from an error chain.
// Returns empty string if the error is not a ColonnadeError.
func GetCode(err error) string {
	var ce *ColonnadeError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ""
}

// HasCode reports whether the error chain carries the given code.
func HasCode(err error, code string) bool {
	var ce *ColonnadeError
	if errors.As(err, &ce) {
		return ce.Code == code
	}
	return false
}

// Convenience constructors for common errors.

func NewValidationError(code, message string) *ColonnadeError {
	return New(ErrCategoryValidation, code, message)
}

func NewContainerError(code, message string) *ColonnadeError {
	return New(ErrCategoryContainer, code, message)
}

func NewColumnError(code, message string) *ColonnadeError {
	return New(ErrCategoryColumn, code, message)
}

func NewTableError(code, message string) *ColonnadeError {
	return New(ErrCategoryTable, code, message)
}

func NewSelectionError(code, message string) *ColonnadeError {
	return New(ErrCategorySelection, code, message)
}

func NewStorageError(code, message string, cause error) *ColonnadeError {
	return Wrap(ErrCategoryStorage, code, message, cause)
}

func NewCatalogError(code, message string, cause error) *ColonnadeError {
	return Wrap(ErrCategoryCatalog, code, message, cause)
}

func NewInternalError(message string, cause error) *ColonnadeError {
	return Wrap(ErrCategoryInternal, CodeUnexpected, message, cause)
}
