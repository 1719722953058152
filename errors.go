package plandok

import (
	"errors"
	"fmt"
)

// Application error codes.
//
// These are meant to be generic and map well to caller-correctable
// conditions. Storage and transport failures surface as EINTERNAL.
const (
	ECONFLICT   = "conflict"    // duplicate document fingerprint
	EIMMUTABLE  = "immutable"   // attempt to change an immutable field
	EINPROGRESS = "in_progress" // verification already running for the document
	EINTERNAL   = "internal"    // unexpected internal error
	EINVALID    = "invalid"     // validation failed
	ENOTFOUND   = "not_found"   // entity does not exist
)

// Error represents an application-specific error. Application errors can be
// unwrapped by the caller to extract the machine-readable code and a
// human-readable message.
type Error struct {
	// Code is one of the E* constants above.
	Code string

	// Message is a human-readable description of the error.
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("plandok error: code=%s message=%s", e.Code, e.Message)
}

// ErrorCode returns the code of the root error, if available.
// Returns EINTERNAL for non-application errors and an empty string for nil.
func ErrorCode(err error) string {
	var e *Error
	if err == nil {
		return ""
	} else if errors.As(err, &e) {
		return e.Code
	}
	return EINTERNAL
}

// ErrorMessage returns the message of the root error, if available.
// Returns a generic message for non-application errors and an empty
// string for nil.
func ErrorMessage(err error) string {
	var e *Error
	if err == nil {
		return ""
	} else if errors.As(err, &e) {
		return e.Message
	}
	return "Internal error."
}

// Errorf is a helper function to return an Error with a given code and
// formatted message.
func Errorf(code string, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}
