package platform

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// Kind classifies an adapter failure so upstream logic can branch
// without platform-specific knowledge.
type Kind string

const (
	KindRateLimited      Kind = "rate_limited"
	KindUnauthorized     Kind = "unauthorized"
	KindPermissionDenied Kind = "permission_denied"
	KindTimeout          Kind = "timeout"
	KindOther            Kind = "other"
)

// Transient reports whether the failure is worth another attempt on a
// later poller tick.
func (k Kind) Transient() bool {
	return k == KindRateLimited || k == KindTimeout
}

// Error is a classified adapter failure.
type Error struct {
	Kind       Kind
	Op         string // remote operation, e.g. "publish"
	StatusCode int    // HTTP status, 0 for transport failures
	Message    string
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: %s (status %d): %s", e.Op, e.Kind, e.StatusCode, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf extracts the classification from an error chain.
// Unclassified errors map to KindOther; context deadline errors map to
// KindTimeout so a hung platform call is handled like a rate limit.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return KindTimeout
	}
	return KindOther
}

// classifyStatus maps a non-2xx platform response to a classified error.
func classifyStatus(op string, statusCode int, body []byte) *Error {
	kind := KindOther
	switch {
	case statusCode == http.StatusTooManyRequests:
		kind = KindRateLimited
	case statusCode == http.StatusUnauthorized:
		kind = KindUnauthorized
	case statusCode == http.StatusForbidden:
		kind = KindPermissionDenied
	case statusCode == http.StatusRequestTimeout || statusCode == http.StatusGatewayTimeout:
		kind = KindTimeout
	}

	msg := string(body)
	if len(msg) > 512 {
		msg = msg[:512]
	}

	return &Error{
		Kind:       kind,
		Op:         op,
		StatusCode: statusCode,
		Message:    msg,
	}
}

// classifyTransport wraps a transport-level failure (connection refused,
// DNS, timeout) from an HTTP round trip.
func classifyTransport(op string, err error) *Error {
	kind := KindOther
	if errors.Is(err, context.DeadlineExceeded) {
		kind = KindTimeout
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		kind = KindTimeout
	}

	return &Error{
		Kind: kind,
		Op:   op,
		Err:  err,
	}
}
