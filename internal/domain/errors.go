package domain

import "fmt"

// CaptureErrorKind classifies microphone capture failures.
type CaptureErrorKind string

const (
	CaptureUnsupported      CaptureErrorKind = "unsupported"
	CapturePermissionDenied CaptureErrorKind = "permission_denied"
	CaptureNoDevice         CaptureErrorKind = "no_device"
	CaptureUnavailable      CaptureErrorKind = "unavailable"
)

// CaptureError wraps a capture failure with its classification.
type CaptureError struct {
	Kind CaptureErrorKind
	Err  error
}

func NewCaptureError(kind CaptureErrorKind, err error) *CaptureError {
	return &CaptureError{Kind: kind, Err: err}
}

func (e *CaptureError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("capture error: %s", e.Kind)
	}
	return fmt.Sprintf("capture error (%s): %v", e.Kind, e.Err)
}

func (e *CaptureError) Unwrap() error { return e.Err }

// TranscribeErrorKind classifies transcription failures.
type TranscribeErrorKind string

const (
	TranscribeTimeout            TranscribeErrorKind = "timeout"
	TranscribePayloadTooLarge    TranscribeErrorKind = "payload_too_large"
	TranscribeServiceUnavailable TranscribeErrorKind = "service_unavailable"
	TranscribeGeneric            TranscribeErrorKind = "generic"
)

// TranscribeError wraps a transcription failure with its classification.
type TranscribeError struct {
	Kind TranscribeErrorKind
	Err  error
}

func NewTranscribeError(kind TranscribeErrorKind, err error) *TranscribeError {
	return &TranscribeError{Kind: kind, Err: err}
}

func (e *TranscribeError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("transcription error: %s", e.Kind)
	}
	return fmt.Sprintf("transcription error (%s): %v", e.Kind, e.Err)
}

func (e *TranscribeError) Unwrap() error { return e.Err }

// ReflectionError reports a non-success HTTP status from the reflection
// endpoint.
type ReflectionError struct {
	StatusCode int
}

func (e *ReflectionError) Error() string {
	return fmt.Sprintf("reflection service returned status %d", e.StatusCode)
}
