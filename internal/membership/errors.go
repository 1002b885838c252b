package membership

import (
	"errors"
	"fmt"
)

// Kind classifies a reconciliation failure so the webhook receiver can decide
// whether redelivery is worthwhile.
type Kind string

const (
	// KindValidation means a required argument was missing or empty. Caller
	// bug; retrying the same delivery cannot succeed.
	KindValidation Kind = "validation"

	// KindDependency means an external fetch from the payment provider
	// failed. Possibly transient; the provider's redelivery may succeed.
	KindDependency Kind = "dependency"

	// KindDataIntegrity means the product's declared membership tier is not a
	// recognized value. Requires a manual fix upstream; not retryable.
	KindDataIntegrity Kind = "data_integrity"

	// KindPersistence means the profile write failed or no profile matched.
	// May be transient or a data-consistency bug.
	KindPersistence Kind = "persistence"
)

// Error is a classified reconciliation failure.
type Error struct {
	Kind Kind
	Op   string // "bind_payment_identifiers" or "reconcile_subscription_change"
	msg  string
	err  error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.msg, e.err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.msg)
}

func (e *Error) Unwrap() error {
	return e.err
}

// KindOf returns the failure classification of err, or "" if err is not a
// reconciliation error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func newError(kind Kind, op, msg string, cause error) *Error {
	return &Error{Kind: kind, Op: op, msg: msg, err: cause}
}
