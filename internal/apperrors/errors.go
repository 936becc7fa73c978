package apperrors

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrUnsatisfiable indicates that no voucher subset fits under the requested
// amount. Benign: no state is changed.
var ErrUnsatisfiable = errors.New("no voucher combination satisfies the requested amount")

// ErrBusy indicates that transaction contention exhausted the retry budget.
// The caller may retry later.
var ErrBusy = errors.New("ledger busy, try again later")

// ErrConflict indicates that a status-transition precondition failed: a lost
// race or a logic bug. The enclosing transaction must be aborted.
var ErrConflict = errors.New("voucher status conflict")

// ErrForbidden indicates the caller may not perform the operation.
var ErrForbidden = errors.New("forbidden")

// AppError carries an HTTP-ish status code alongside the wrapped cause.
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

// NewAppError creates a new AppError wrapping err.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}
