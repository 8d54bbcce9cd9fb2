package model

import (
	"errors"
	"fmt"
)

// Kind classifies the outcome of a vendor API interaction. It is the only
// error vocabulary surfaced to callers; raw HTTP codes stay inside the
// adapter.
type Kind string

const (
	// KindSuccess is a 2xx response. It never appears inside a ClientError.
	KindSuccess Kind = "success"
	// KindAuthUnavailable means no usable credential exists at all. The user
	// must re-authorize; retrying cannot help.
	KindAuthUnavailable Kind = "auth_unavailable"
	// KindAuthExpired means the credential needs a refresh. Callers may retry
	// once after refreshing.
	KindAuthExpired Kind = "auth_expired"
	// KindPermissionDenied means authenticated but not authorized for the
	// resource. Not retried.
	KindPermissionDenied Kind = "permission_denied"
	// KindNotFound means the resource or endpoint is absent on this
	// account/region.
	KindNotFound Kind = "not_found"
	// KindInvalidRequest means malformed parameters, a caller bug.
	KindInvalidRequest Kind = "invalid_request"
	// KindRateLimited means the vendor asked us to back off.
	KindRateLimited Kind = "rate_limited"
	// KindTransient covers network failures and 5xx responses; safe to retry
	// with backoff.
	KindTransient Kind = "transient"
	// KindMalformedResponse means the payload could not be mapped to a domain
	// record. Treated as a data-integrity bug, never coerced to empty.
	KindMalformedResponse Kind = "malformed_response"
)

// ClientError is the classified failure of a vendor API operation.
type ClientError struct {
	Kind      Kind
	Operation string
	Status    int    // HTTP status of the failing attempt, 0 when none was made
	Message   string // vendor-supplied detail, if any
	Err       error  // underlying cause, if any
}

func (e *ClientError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Status != 0 {
		return fmt.Sprintf("%s: %s (HTTP %d): %s", e.Operation, e.Kind, e.Status, msg)
	}
	return fmt.Sprintf("%s: %s: %s", e.Operation, e.Kind, msg)
}

func (e *ClientError) Unwrap() error { return e.Err }

// KindOf extracts the classification from err, or "" when err is not a
// ClientError.
func KindOf(err error) Kind {
	var ce *ClientError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return ""
}

// IsKind reports whether err is a ClientError of the given kind.
func IsKind(err error, k Kind) bool {
	return KindOf(err) == k
}

// IsRetryable reports whether a caller may safely retry err with backoff.
// Only transient and rate-limited failures qualify; everything else needs a
// credential refresh, a configuration fix, or user action.
func IsRetryable(err error) bool {
	switch KindOf(err) {
	case KindTransient, KindRateLimited:
		return true
	default:
		return false
	}
}
