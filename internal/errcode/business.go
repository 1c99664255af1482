package errcode

import (
	"errors"
	"fmt"
)

// BusinessError is an expected failure that carries its own client-facing
// code and message.
type BusinessError struct {
	code    int
	message string
	cause   error
}

// New builds a BusinessError from a table entry.
func New(entry Entry) *BusinessError {
	return &BusinessError{code: entry.Code, message: entry.Message}
}

// NewWithMessage keeps entry's code but replaces the message.
func NewWithMessage(entry Entry, message string) *BusinessError {
	return &BusinessError{code: entry.Code, message: message}
}

// NewCode builds a BusinessError from an explicit code/message pair.
func NewCode(code int, message string) *BusinessError {
	return &BusinessError{code: code, message: message}
}

// Wrap builds a BusinessError from entry and records cause for logging.
func Wrap(entry Entry, cause error) *BusinessError {
	return &BusinessError{code: entry.Code, message: entry.Message, cause: cause}
}

// Code returns the numeric error code.
func (e *BusinessError) Code() int { return e.code }

// Message returns the client-facing message.
func (e *BusinessError) Message() string { return e.message }

func (e *BusinessError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%d %s: %v", e.code, e.message, e.cause)
	}
	return fmt.Sprintf("%d %s", e.code, e.message)
}

func (e *BusinessError) Unwrap() error { return e.cause }

// Is matches another BusinessError with the same code, so sentinel values
// built with New work with errors.Is.
func (e *BusinessError) Is(target error) bool {
	other, ok := target.(*BusinessError)
	if !ok || other == nil {
		return false
	}
	return other.code == e.code
}

// AsBusiness extracts the first BusinessError in err's chain.
func AsBusiness(err error) (*BusinessError, bool) {
	var be *BusinessError
	if errors.As(err, &be) {
		return be, true
	}
	return nil, false
}
