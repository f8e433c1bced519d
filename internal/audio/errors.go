package audio

import (
	"errors"
	"fmt"
)

// ErrorCode identifies the failure taxonomy. Errors are logged and recorded on
// trace spans but never returned from the Service's public methods.
type ErrorCode string

const (
	// CodeUnsupportedCapability means a synthesizer or output is missing.
	CodeUnsupportedCapability ErrorCode = "UNSUPPORTED_CAPABILITY"
	// CodeRemoteUnavailable covers remote synthesis timeouts, transport
	// failures and undecodable remote audio.
	CodeRemoteUnavailable ErrorCode = "REMOTE_UNAVAILABLE"
	// CodeAssetLoadFailure means an asset could not be fetched, decoded or
	// started.
	CodeAssetLoadFailure ErrorCode = "ASSET_LOAD_FAILURE"
	// CodeDisabled is used when a request is dropped because audio is off.
	CodeDisabled ErrorCode = "DISABLED"
)

var (
	// ErrSuperseded is the cancellation cause of narration replaced by a
	// newer request or by StopAll.
	ErrSuperseded = errors.New("narration superseded")

	// ErrClosed is the cancellation cause of work interrupted by Close.
	ErrClosed = errors.New("audio service closed")
)

// Error is an audio failure with a taxonomy code.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

func newError(code ErrorCode, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// CodeOf returns the taxonomy code of err, or "" when err is not an *Error.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
