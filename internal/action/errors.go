package action

import (
	"errors"
	"fmt"
)

// Code classifies engine errors for callers that map them onto a transport.
type Code string

const (
	CodeNotFound            Code = "not_found"
	CodeUnsupportedProtocol Code = "unsupported_protocol"
	CodeInvalidState        Code = "invalid_state"
	CodeInvalidRequest      Code = "invalid_request"
	CodeTransientStore      Code = "transient_store"
	CodeInternal            Code = "internal"
)

// Error is the typed error surfaced by the action engine. Validation errors
// carry no wrapped cause; infrastructure errors wrap the underlying failure.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NewNotFoundError(format string, args ...any) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

func NewUnsupportedProtocolError(format string, args ...any) *Error {
	return &Error{Code: CodeUnsupportedProtocol, Message: fmt.Sprintf(format, args...)}
}

func NewInvalidStateError(format string, args ...any) *Error {
	return &Error{Code: CodeInvalidState, Message: fmt.Sprintf(format, args...)}
}

func NewInvalidRequestError(format string, args ...any) *Error {
	return &Error{Code: CodeInvalidRequest, Message: fmt.Sprintf(format, args...)}
}

func NewTransientStoreError(cause error, format string, args ...any) *Error {
	return &Error{Code: CodeTransientStore, Message: fmt.Sprintf(format, args...), Err: cause}
}

func NewInternalError(cause error, format string, args ...any) *Error {
	return &Error{Code: CodeInternal, Message: fmt.Sprintf(format, args...), Err: cause}
}

// CodeOf extracts the engine error code, or CodeInternal for foreign errors.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}
