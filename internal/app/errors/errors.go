package errors

import (
	"fmt"
)

// Pipeline error taxonomy. Every failure in the system resolves to one of
// these sentinels, either surfaced synchronously at the ingress boundary or
// captured into a job's terminal error state by the worker.
var (
	// Ingress
	ErrUnsupportedFileType = New("unsupported file type")

	// Queue backend
	ErrBackendUnavailable = New("queue backend unavailable")

	// Audio conversion
	ErrConversionUnavailable = New("ffmpeg is not installed")
	ErrConversionFailed      = New("audio conversion failed")

	// Transcription
	ErrInvalidAudioFormat  = New("audio file must be mono 16-bit PCM WAV")
	ErrTranscriptionFailed = New("transcription failed")
	ErrMalformedOutput     = New("unexpected transcription output format")

	// Model resolution
	ErrNoModelAvailable    = New("no model available")
	ErrModelDownloadFailed = New("model download failed")
)

// Error is a message with an optional cause, comparable through errors.Is by
// message identity so the sentinels above survive wrapping.
type Error struct {
	message string
	cause   error
}

// New creates a new error
func New(message string) *Error {
	return &Error{message: message}
}

// Wrap attaches a cause to a sentinel, keeping the sentinel matchable.
func Wrap(sentinel *Error, cause error) error {
	if cause == nil {
		return nil
	}
	return &Error{message: sentinel.message, cause: cause}
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.cause
}

// Is checks if the error matches target
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.message == t.message
}
