package usecase

import (
	"context"
	"errors"
	"fmt"
	"net"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("resource not found")
	ErrUnauthorized = errors.New("unauthorized")

	// ErrUpstreamUnavailable means the upstream fetch failed and no usable
	// fallback exists. Always surfaced, never swallowed: it affects the
	// correctness of every downstream computation.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	// ErrUpstreamTimeout wraps ErrUpstreamUnavailable so callers without a
	// cached fallback can treat it as the same transient outcome.
	ErrUpstreamTimeout = fmt.Errorf("%w: fetch timed out", ErrUpstreamUnavailable)
)

// UpstreamRejectionError is a definitive non-success verdict from the
// provider. It is not a connectivity failure: retrying will not change it,
// and handlers relay the verdict instead of reporting an outage.
type UpstreamRejectionError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamRejectionError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("upstream status %d", e.StatusCode)
	}
	return fmt.Sprintf("upstream status %d: %s", e.StatusCode, e.Body)
}

// mapUpstreamError classifies a raw client error into the taxonomy above.
func mapUpstreamError(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s", ErrUpstreamTimeout, op)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %s", ErrUpstreamTimeout, op)
	}
	return fmt.Errorf("%w: %s: %v", ErrUpstreamUnavailable, op, err)
}
