package vehicle

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// FailureKind is the closed set of remote-call failure classifications.
type FailureKind string

// Failure kinds.
const (
	KindRateLimited FailureKind = "RATE_LIMITED"
	KindTimeout     FailureKind = "TIMEOUT"
	KindAPIError    FailureKind = "API_ERROR"
	KindUnknown     FailureKind = "UNKNOWN"
)

// Failure wraps a remote-call error with its classification.
type Failure struct {
	Kind FailureKind
	Err  error
}

// Error implements error.
func (f *Failure) Error() string {
	return fmt.Sprintf("vehicle api %s: %v", f.Kind, f.Err)
}

// Unwrap exposes the cause.
func (f *Failure) Unwrap() error {
	return f.Err
}

// NewFailure builds a classified failure.
func NewFailure(kind FailureKind, err error) *Failure {
	return &Failure{Kind: kind, Err: err}
}

// KindOf extracts the classification from any error. Errors that are not a
// *Failure are classified as Unknown, except timeouts from the transport.
func KindOf(err error) FailureKind {
	var failure *Failure
	if errors.As(err, &failure) {
		return failure.Kind
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	return KindUnknown
}
