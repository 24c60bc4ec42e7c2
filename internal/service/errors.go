package service

import (
	"errors"
	"fmt"
)

type Code string

const (
	CodeNotFound         Code = "NOT_FOUND"
	CodeTokenMismatch    Code = "TOKEN_MISMATCH"
	CodeLinkageMismatch  Code = "LINKAGE_MISMATCH"
	CodeValidation       Code = "VALIDATION_ERROR"
	CodeDuplicateIgnored Code = "DUPLICATE_IGNORED"
	CodeIO               Code = "IO_ERROR"
	CodeConfirmRequired  Code = "CONFIRM_REQUIRED"
	CodeNotReady         Code = "NOT_READY"
	CodePolicyBlocked    Code = "POLICY_BLOCKED"
	CodeLockTimeout      Code = "LOCK_TIMEOUT"
)

// Error is an expected pipeline failure. Detail is safe to show to the
// operator and never contains a confirm token.
type Error struct {
	Code   Code
	Detail string
	Err    error
}

func newError(code Code, detail string, err error) *Error {
	return &Error{Code: code, Detail: detail, Err: err}
}

// Validation reports a malformed request that never reached a component,
// e.g. a body that does not decode.
func Validation(detail string) error {
	return newError(CodeValidation, detail, nil)
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Detail, e.Err)
	}
	if e.Detail == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Detail)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// CodeOf returns the pipeline code carried by err, or "" for nil and
// unclassified errors.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) && e != nil {
		return e.Code
	}
	return ""
}

// DetailOf returns the operator-facing detail of err.
func DetailOf(err error) string {
	var e *Error
	if errors.As(err, &e) && e != nil {
		return e.Detail
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
