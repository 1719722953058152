package plandok

import (
	"context"
	"time"
)

// VerificationOutcome classifies one completed liveness check.
type VerificationOutcome string

// VerificationOutcome values.
const (
	OutcomeVerified    VerificationOutcome = "verified"
	OutcomeUnreachable VerificationOutcome = "unreachable"
	OutcomeError       VerificationOutcome = "error"
)

// Status maps an outcome to the document verification status it implies.
func (o VerificationOutcome) Status() VerificationStatus {
	switch o {
	case OutcomeVerified:
		return VerificationVerified
	case OutcomeUnreachable:
		return VerificationUnreachable
	default:
		return VerificationError
	}
}

// VerificationRecord is one entry in the append-only log of liveness
// checks. HTTPStatus is nil when the check failed before receiving a
// response (network error or timeout).
type VerificationRecord struct {
	ID          string              `json:"id"`
	DocumentID  string              `json:"documentId"`
	AttemptedAt time.Time           `json:"attemptedAt"`
	HTTPStatus  *int                `json:"httpStatus"`
	Outcome     VerificationOutcome `json:"outcome"`
	Note        string              `json:"note"`
}

// CheckResult holds the classification of a single completed HTTP check.
type CheckResult struct {
	StatusCode int
	Outcome    VerificationOutcome
	Note       string
}

// LinkChecker performs a single liveness check against a URL.
// Implementations hide HEAD vs GET selection and response
// classification. A non-nil error means the check never completed
// (network failure or timeout) and may be retried by the caller.
type LinkChecker interface {
	Check(ctx context.Context, url string) (*CheckResult, error)
}

// HostLimiter provides per-host rate limiting for outbound checks.
type HostLimiter interface {
	// Wait blocks until the rate limit allows a request to the host.
	// Returns an error if the context is canceled.
	Wait(ctx context.Context, host string) error
}
