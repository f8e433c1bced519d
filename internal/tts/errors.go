package tts

import (
	"errors"
	"fmt"
)

// Common synthesis errors
var (
	// ErrEmptyText indicates there was nothing to synthesize
	ErrEmptyText = errors.New("text cannot be empty")

	// ErrTextTooLong indicates the text exceeds the remote endpoint's limit
	ErrTextTooLong = errors.New("text too long for remote synthesis")

	// ErrEmptyAudio indicates the endpoint answered without audio
	ErrEmptyAudio = errors.New("remote synthesis returned no audio")

	// ErrNoSpeechCommand indicates no local speech program was found
	ErrNoSpeechCommand = errors.New("no local speech command available")
)

// StatusError is returned when the remote endpoint answers with a non-2xx
// status.
type StatusError struct {
	Code   int
	Status string
}

// Error implements the error interface
func (e *StatusError) Error() string {
	return fmt.Sprintf("remote synthesis failed: %s", e.Status)
}

// Retryable reports whether the request may succeed if tried again later.
func (e *StatusError) Retryable() bool {
	return e.Code == 429 || e.Code >= 500
}
