package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique identifier for specific error conditions in verboten.
type ErrorCode int

const (
	ErrCodeUnknown       ErrorCode = 1000
	ErrCodeConfigInvalid ErrorCode = 1001
	ErrCodeConfigMissing ErrorCode = 1002

	// Child process
	ErrCodeSpawnFailed     ErrorCode = 2001
	ErrCodeTerminateFailed ErrorCode = 2002
	ErrCodeAlreadyExited   ErrorCode = 2003
	ErrCodePollFailed      ErrorCode = 2004

	// Host protocol and internal channels
	ErrCodeHostReportFailed ErrorCode = 3001
	ErrCodeChannelClosed    ErrorCode = 3002
	ErrCodeWorkerPanic      ErrorCode = 3003

	// Service registration
	ErrCodeServiceInstall   ErrorCode = 4001
	ErrCodeServiceUninstall ErrorCode = 4002
	ErrCodeUnsupported      ErrorCode = 4003
)

// ServiceError is a custom error type that provides structured error information,
// including an error code, the operation being performed, and the underlying cause.
type ServiceError struct {
	// Code is the specific error code.
	Code ErrorCode
	// Msg is a human-readable description of the error.
	Msg string
	// Operation describes the action being performed when the error occurred.
	Operation string
	// Err is the underlying error that caused this error, if any.
	Err error
}

// Error returns a formatted string representation of the error.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%d] %s: %s (cause: %v)", e.Code, e.Operation, e.Msg, e.Err)
	}
	return fmt.Sprintf("[%d] %s: %s", e.Code, e.Operation, e.Msg)
}

// Unwrap returns the underlying error.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// New creates a new ServiceError with the specified code, operation, message, and underlying error.
func New(code ErrorCode, op, msg string, err error) error {
	return &ServiceError{
		Code:      code,
		Msg:       msg,
		Operation: op,
		Err:       err,
	}
}

// CodeOf returns the code of the outermost ServiceError in err's chain,
// or ErrCodeUnknown when there is none.
func CodeOf(err error) ErrorCode {
	var se *ServiceError
	if errors.As(err, &se) {
		return se.Code
	}
	return ErrCodeUnknown
}

// Is reports whether err carries the given code.
func Is(err error, code ErrorCode) bool {
	return err != nil && CodeOf(err) == code
}

// Personal.AI order the ending
