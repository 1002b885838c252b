package membership

import (
	"fmt"
	"strings"
)

// Tier is a member's access level. Pro members can view model picks.
type Tier string

const (
	TierFree Tier = "free"
	TierPro  Tier = "pro"
)

// Subscription lifecycle statuses as reported by the payment provider.
const (
	StatusActive            = "active"
	StatusTrialing          = "trialing"
	StatusCanceled          = "canceled"
	StatusIncomplete        = "incomplete"
	StatusIncompleteExpired = "incomplete_expired"
	StatusPastDue           = "past_due"
	StatusPaused            = "paused"
	StatusUnpaid            = "unpaid"
)

// ParseTier parses a product's declared membership tier. The value must be
// exactly "free" or "pro"; anything else indicates misconfigured product
// metadata upstream.
func ParseTier(s string) (Tier, error) {
	switch Tier(s) {
	case TierFree:
		return TierFree, nil
	case TierPro:
		return TierPro, nil
	default:
		return "", fmt.Errorf("unrecognized membership tier %q", s)
	}
}

// EffectiveTier maps a subscription lifecycle status and the product's
// declared tier to the member's effective tier. A subscription in good
// standing (active or trialing) passes the declared tier through; every
// terminal or delinquent status drops to free. Unknown statuses fail
// closed: they never grant pro.
func EffectiveTier(status string, declared Tier) Tier {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case StatusActive, StatusTrialing:
		return declared
	case StatusCanceled, StatusIncomplete, StatusIncompleteExpired,
		StatusPastDue, StatusPaused, StatusUnpaid:
		return TierFree
	default:
		return TierFree
	}
}
