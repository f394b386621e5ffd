package detection

import (
	"errors"
	"fmt"
)

// Error codes surfaced at the service boundary
const (
	CodeInvalidImage         = "InvalidImage"
	CodeRateLimitExceeded    = "RateLimitExceeded"
	CodeClassificationFailed = "ClassificationFailed"
)

// Error messages
var errorMessages = map[string]string{
	CodeInvalidImage:         "The supplied image data could not be decoded",
	CodeRateLimitExceeded:    "Rate limit exceeded, retry later",
	CodeClassificationFailed: "The classifier failed to produce a result",
}

// Sentinel errors for errors.Is checks across package boundaries.
var (
	ErrInvalidImage         = errors.New(errorMessages[CodeInvalidImage])
	ErrRateLimitExceeded    = errors.New(errorMessages[CodeRateLimitExceeded])
	ErrClassificationFailed = errors.New(errorMessages[CodeClassificationFailed])
)

// PipelineError is a request-level failure with a stable code. It wraps
// the matching sentinel so callers can branch with errors.Is, and keeps
// the underlying cause for logging.
type PipelineError struct {
	Code  string
	Cause error
}

func (e *PipelineError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.Cause)
	}
	if msg, ok := errorMessages[e.Code]; ok {
		return fmt.Sprintf("%s: %s", e.Code, msg)
	}
	return e.Code
}

func (e *PipelineError) Unwrap() error {
	switch e.Code {
	case CodeInvalidImage:
		return ErrInvalidImage
	case CodeRateLimitExceeded:
		return ErrRateLimitExceeded
	case CodeClassificationFailed:
		return ErrClassificationFailed
	}
	return e.Cause
}

// NewPipelineError creates a typed request-level error.
func NewPipelineError(code string, cause error) *PipelineError {
	return &PipelineError{Code: code, Cause: cause}
}

// ErrorCode extracts the boundary code from a request error, or empty
// string for untyped errors.
func ErrorCode(err error) string {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Code
	}
	return ""
}
