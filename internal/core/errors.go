// Package core implements the shared foundation for ciforge: configuration,
// workspace path resolution, and the coded error taxonomy used by every
// transport and handler.
package core

import (
	"errors"
	"fmt"
)

// Error codes carried by CodedError implementations. Transports map these to
// HTTP statuses and JSON-RPC error codes; handlers map them to tool results.
const (
	ErrCodeSchemaInvalid = "schema_invalid"
	ErrCodeToolUnknown   = "tool_unknown"
	ErrCodeBinaryMissing = "binary_missing"
	ErrCodeTimeout       = "timeout"
	ErrCodeAuthFailed    = "auth_failed"
	ErrCodePathEscape    = "path_escape"
	ErrCodeYAMLInvalid   = "yaml_invalid"
	ErrCodeInternal      = "internal_error"
)

// CodedError is implemented by domain errors that carry a machine-readable code.
type CodedError interface {
	error
	ErrorCode() string
}

// Error is the standard CodedError implementation.
type Error struct {
	Code   string
	Detail string
}

func (e *Error) Error() string { return e.Detail }

func (e *Error) ErrorCode() string { return e.Code }

// NewError builds a coded error with a formatted detail message.
func NewError(code, format string, args ...any) *Error {
	return &Error{Code: code, Detail: fmt.Sprintf(format, args...)}
}

type ErrorInfo struct {
	Code       string
	Message    string
	HTTPStatus int
}

// MapError translates an error into transport-facing code, message, and
// HTTP status. Unknown errors fall back to the given status.
func MapError(err error, fallbackStatus int) ErrorInfo {
	if err == nil {
		return ErrorInfo{Code: ErrCodeInternal, Message: "internal server error", HTTPStatus: fallbackStatus}
	}

	var coded CodedError
	if errors.As(err, &coded) {
		switch code := coded.ErrorCode(); code {
		case ErrCodeSchemaInvalid, ErrCodeYAMLInvalid:
			return ErrorInfo{Code: code, Message: err.Error(), HTTPStatus: 400}
		case ErrCodeToolUnknown:
			return ErrorInfo{Code: code, Message: err.Error(), HTTPStatus: 404}
		case ErrCodePathEscape, ErrCodeAuthFailed:
			return ErrorInfo{Code: code, Message: err.Error(), HTTPStatus: 403}
		case ErrCodeBinaryMissing, ErrCodeTimeout:
			return ErrorInfo{Code: code, Message: err.Error(), HTTPStatus: 502}
		default:
			return ErrorInfo{Code: code, Message: err.Error(), HTTPStatus: fallbackStatus}
		}
	}

	code := ErrCodeInternal
	if fallbackStatus >= 400 && fallbackStatus < 500 {
		code = "bad_request"
	}
	return ErrorInfo{Code: code, Message: err.Error(), HTTPStatus: fallbackStatus}
}
