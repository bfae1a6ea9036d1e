package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for the transport layer.
type Kind string

// Error kinds.
const (
	KindNotFound   Kind = "not_found"
	KindConflict   Kind = "conflict"
	KindValidation Kind = "validation"
	KindInternal   Kind = "internal"
)

// Stable machine-readable codes returned to callers.
const (
	CodeMemberNotFound  = "member_not_found"
	CodeMachineNotFound = "machine_not_found"
	CodeRecordNotFound  = "record_not_found"
	CodeUserNotFound    = "user_not_found"

	CodeMemberAlreadyActive = "member_already_active"
	CodeMachineBusy         = "machine_busy"
	CodeNoActiveSession     = "no_active_session"
	CodeSessionMustEnd      = "session_must_end_first"
	CodeInsufficientBalance = "insufficient_balance"
	CodeMemberInSession     = "member_in_session"
	CodeRecordActive        = "record_active"
	CodeMachineNumberTaken  = "machine_number_taken"
	CodeUsernameTaken       = "username_taken"

	CodeInvalidInput = "invalid_input"

	CodeInvariantViolation = "invariant_violation"
	CodeInvalidTimestamp   = "invalid_timestamp"
	CodeTransactionTimeout = "transaction_timeout"
	CodeStorage            = "storage_failure"
)

// Error carries a kind, a stable code and a human-readable message plus
// optional context for the caller (ids, current state).
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Context map[string]interface{}
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause for errors.Is/As chains.
func (e *Error) Unwrap() error { return e.cause }

// Is matches another *Error by kind and code so sentinel-style comparison
// works: errors.Is(err, apperr.Conflict(apperr.CodeMachineBusy, "")).
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Kind == t.Kind && (t.Code == "" || e.Code == t.Code)
}

// With attaches a context field and returns the same error.
func (e *Error) With(key string, value interface{}) *Error {
	if e.Context == nil {
		e.Context = map[string]interface{}{}
	}
	e.Context[key] = value
	return e
}

// NotFound builds a missing-entity error.
func NotFound(code, message string) *Error {
	return &Error{Kind: KindNotFound, Code: code, Message: message}
}

// Conflict builds an exclusivity/state error.
func Conflict(code, message string) *Error {
	return &Error{Kind: KindConflict, Code: code, Message: message}
}

// Validation builds a malformed-input error.
func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Code: CodeInvalidInput, Message: message}
}

// Internal builds an unexpected-failure error wrapping its cause.
func Internal(code, message string, cause error) *Error {
	return &Error{Kind: KindInternal, Code: code, Message: message, cause: cause}
}

// KindOf extracts the kind, defaulting unknown errors to internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// From extracts the *Error from a chain, or wraps the error as an
// internal storage failure.
func From(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Internal(CodeStorage, "unexpected internal error", err)
}
