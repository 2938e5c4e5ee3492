package command

import (
	"errors"
	"fmt"
	"strings"
)

// RequestError is a request that could not be served. The connection that
// sent it is closed after the error is reported.
type RequestError struct {
	Code    string // e.g. "RK-REQ-4001"
	Message string
	Details string
	Cause   error
}

// Error implements the error interface.
func (e *RequestError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.Details != "" {
		msg += ": " + e.Details
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *RequestError) Unwrap() error {
	return e.Cause
}

// Is matches any RequestError with the same code.
func (e *RequestError) Is(target error) bool {
	t, ok := target.(*RequestError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithDetails returns a copy of the error with details attached.
func (e *RequestError) WithDetails(format string, args ...any) *RequestError {
	return &RequestError{
		Code:    e.Code,
		Message: e.Message,
		Details: fmt.Sprintf(format, args...),
		Cause:   e.Cause,
	}
}

// Wrap returns a copy of the error with cause attached.
func (e *RequestError) Wrap(cause error) *RequestError {
	return &RequestError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		Cause:   cause,
	}
}

// ReplyText is the text of the "-ERR" line sent to the client. CR and LF are
// replaced so client-supplied words cannot break the framing.
func (e *RequestError) ReplyText() string {
	text := e.Message
	if e.Details != "" {
		text += ": " + e.Details
	}
	return strings.Map(func(r rune) rune {
		if r == '\r' || r == '\n' {
			return ' '
		}
		return r
	}, text)
}

// ErrorCode returns the code of a RequestError in err's chain, or "".
func ErrorCode(err error) string {
	var re *RequestError
	if errors.As(err, &re) {
		return re.Code
	}
	return ""
}

func newRequestError(code, message string) *RequestError {
	return &RequestError{Code: code, Message: message}
}

// Framing errors.
var (
	ErrInputTooShort = newRequestError("RK-REQ-4000", "input too short")
	ErrCRLFNotAtEnd  = newRequestError("RK-REQ-4001", "request does not end with CRLF")
	ErrMalformed     = newRequestError("RK-REQ-4002", "malformed request")
)

// Shape errors.
var (
	ErrNullArray   = newRequestError("RK-REQ-4010", "request is a null array")
	ErrNotArray    = newRequestError("RK-REQ-4011", "request is not an array")
	ErrEmptyArray  = newRequestError("RK-REQ-4012", "request is an empty array")
	ErrNotAllBulk  = newRequestError("RK-REQ-4013", "request array must contain only bulk strings")
	ErrInvalidUTF8 = newRequestError("RK-REQ-4014", "request word is not valid UTF-8")
)

// Argument errors.
var (
	ErrMissingArg     = newRequestError("RK-REQ-4020", "wrong number of arguments")
	ErrWrongArg       = newRequestError("RK-REQ-4021", "syntax error")
	ErrInvalidInteger = newRequestError("RK-REQ-4022", "value is not an integer or out of range")
)

// ErrClock is returned when the wall clock cannot be read as Unix time.
var ErrClock = newRequestError("RK-SYS-5000", "system clock is before the Unix epoch")
