package participant

import (
	"errors"
	"fmt"
)

// Error is the error type returned by registration and verification.
//
// Error categories:
//   - Missing field: a required input is blank
//   - Invalid format: an input does not parse or is outside its value set
//   - Duplicate ID: a record with the same UserID already exists
//   - Not found: no record has the requested UserID
//   - Store failure: the underlying table engine failed
//
// Message is suitable for showing to the user as is.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Field names the offending input, if any.
	Field Field

	// Message is a human-readable description.
	Message string

	// UserID is set for duplicate and not-found errors.
	UserID int

	// Err is the underlying cause (parse or store error).
	Err error
}

// ErrorCode categorizes participant errors.
type ErrorCode string

const (
	// CodeMissingField indicates a required input was blank.
	CodeMissingField ErrorCode = "MISSING_FIELD"

	// CodeInvalidFormat indicates an input did not parse or is out of range.
	CodeInvalidFormat ErrorCode = "INVALID_FORMAT"

	// CodeDuplicateID indicates the UserID is already registered.
	CodeDuplicateID ErrorCode = "DUPLICATE_ID"

	// CodeNotFound indicates no record exists for the UserID.
	CodeNotFound ErrorCode = "NOT_FOUND"

	// CodeStoreFailure wraps any error from the record store.
	CodeStoreFailure ErrorCode = "STORE_FAILURE"
)

// Field names a draft input.
type Field string

const (
	FieldUserID           Field = "user_id"
	FieldFullName         Field = "full_name"
	FieldTitle            Field = "title"
	FieldRegistrationType Field = "registration_type"
	FieldPhotoPath        Field = "photo_path"
)

// ParseField maps a field name to a Field.
func ParseField(s string) (Field, error) {
	switch f := Field(s); f {
	case FieldUserID, FieldFullName, FieldTitle, FieldRegistrationType, FieldPhotoPath:
		return f, nil
	}
	return "", fmt.Errorf("unknown field %q", s)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil && e.Code == CodeStoreFailure {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	if e.Field != "" {
		return fmt.Sprintf("%s: %s (field=%s)", e.Code, e.Message, e.Field)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// UserMessage returns the text shown to the user for err.
// Store failures render as "Error: <cause>", everything else as its Message.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var pe *Error
	if !errors.As(err, &pe) {
		return "Error: " + err.Error()
	}
	if pe.Code == CodeStoreFailure {
		if pe.Err != nil {
			return "Error: " + pe.Err.Error()
		}
		return "Error: " + pe.Message
	}
	return pe.Message
}

// CodeOf returns the ErrorCode of err, or "" if err is not an *Error.
// Uses errors.As to handle wrapped errors.
func CodeOf(err error) ErrorCode {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Code
	}
	return ""
}

// HasCode reports whether err is an *Error with the given code.
func HasCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}

// NewMissingField creates an Error for a blank required input.
func NewMissingField(field Field, message string) *Error {
	return &Error{Code: CodeMissingField, Field: field, Message: message}
}

// NewInvalidFormat creates an Error for an input that does not parse.
func NewInvalidFormat(field Field, message string) *Error {
	return &Error{Code: CodeInvalidFormat, Field: field, Message: message}
}

// NewDuplicateID creates an Error for an already registered UserID.
func NewDuplicateID(id int) *Error {
	return &Error{
		Code:    CodeDuplicateID,
		Field:   FieldUserID,
		Message: fmt.Sprintf("User ID %d already exists. Please use a different ID.", id),
		UserID:  id,
	}
}

// NewNotFound creates an Error for a UserID with no record.
func NewNotFound(id int) *Error {
	return &Error{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("User ID %d not found", id),
		UserID:  id,
	}
}

// NewStoreFailure wraps a store error.
func NewStoreFailure(op string, err error) *Error {
	return &Error{
		Code:    CodeStoreFailure,
		Message: op,
		Err:     err,
	}
}
