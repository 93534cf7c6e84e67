package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestColonnadeError_Error(t *testing.T) {
	err := New(ErrCategoryTable, CodeMissingColumn, "column 'x' missing")
	expected := "[TABLE:MISSING_COLUMN] column 'x' missing"
	if err.Error() != expected {
		t.Errorf("got %q, want %q", err.Error(), expected)
	}
}

func TestColonnadeError_ErrorWithCause(t *testing.T) {
	cause := fmt.Errorf("disk full")
	err := Wrap(ErrCategoryStorage, CodeUploadFailed, "upload failed", cause)
	expected := "[STORAGE:UPLOAD_FAILED] upload failed: disk full"
	if err.Error() != expected {
		t.Errorf("got %q, want %q", err.Error(), expected)
	}
}

func TestColonnadeError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("root cause")
	err := Wrap(ErrCategoryCatalog, CodeWriteConflict, "conflict", cause)
	if !errors.Is(err, cause) {
		t.Error("Unwrap should allow errors.Is to find the cause")
	}
}

func TestColonnadeError_Is(t *testing.T) {
	err1 := New(ErrCategorySelection, CodeRowIndexOutOfRange, "first")
	err2 := New(ErrCategorySelection, CodeRowIndexOutOfRange, "second")
	err3 := New(ErrCategorySelection, CodeUnsupportedSelection, "different code")

	if !errors.Is(err1, err2) {
		t.Error("errors with same category+code should match via Is")
	}
	if errors.Is(err1, err3) {
		t.Error("errors with different codes should not match via Is")
	}
}

func TestGetCategoryAndCode(t *testing.T) {
	err := NewTableError(CodeDuplicateID, "id 3 already in the table")
	wrapped := fmt.Errorf("adding row: %w", err)

	if got := GetCategory(wrapped); got != ErrCategoryTable {
		t.Errorf("GetCategory got %q, want %q", got, ErrCategoryTable)
	}
	if got := GetCode(wrapped); got != CodeDuplicateID {
		t.Errorf("GetCode got %q, want %q", got, CodeDuplicateID)
	}
	if GetCategory(fmt.Errorf("plain")) != "" {
		t.Error("GetCategory on a plain error should be empty")
	}
}

func TestHasCode(t *testing.T) {
	err := NewColumnError(CodeTermSetRejected, "\"x\" is not in the term set")
	if !HasCode(err, CodeTermSetRejected) {
		t.Error("HasCode should match the error's own code")
	}
	if HasCode(err, CodeIndexWidthOverflow) {
		t.Error("HasCode should not match a different code")
	}
}

func TestWithDetails(t *testing.T) {
	err := New(ErrCategoryTable, CodeMissingColumn, "row data keys don't match")
	detailed := err.WithDetails(map[string]interface{}{"missing": []string{"x", "y"}})

	if detailed.Details == nil {
		t.Fatal("details should be set")
	}
	if err.Details != nil {
		t.Error("WithDetails should not mutate the original error")
	}
}
