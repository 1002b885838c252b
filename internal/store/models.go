package store

import (
	"crypto/rand"
	"fmt"
	"strings"
	"time"

	"github.com/courtsideapp/courtside/internal/membership"
)

// Profile is a member record. PasswordHash never leaves the store layer in
// API responses.
type Profile struct {
	UserID                string          `json:"user_id"`
	Email                 string          `json:"email"`
	PasswordHash          string          `json:"-"`
	Membership            membership.Tier `json:"membership"`
	PaymentCustomerID     string          `json:"payment_customer_id,omitempty"`
	PaymentSubscriptionID string          `json:"payment_subscription_id,omitempty"`
	CreatedAt             time.Time       `json:"created_at"`
	UpdatedAt             time.Time       `json:"updated_at"`
}

// View returns the reconciler's view of the profile.
func (p *Profile) View() *membership.Profile {
	if p == nil {
		return nil
	}
	return &membership.Profile{
		UserID:                p.UserID,
		Email:                 p.Email,
		Membership:            p.Membership,
		PaymentCustomerID:     p.PaymentCustomerID,
		PaymentSubscriptionID: p.PaymentSubscriptionID,
	}
}

// PickResult is the settled outcome of a spread pick.
type PickResult string

const (
	PickPending PickResult = "pending"
	PickWin     PickResult = "win"
	PickLoss    PickResult = "loss"
	PickPush    PickResult = "push"
)

// ParsePickResult parses a settlement result. Pending is not a valid
// settlement target.
func ParsePickResult(s string) (PickResult, bool) {
	switch PickResult(strings.ToLower(strings.TrimSpace(s))) {
	case PickWin:
		return PickWin, true
	case PickLoss:
		return PickLoss, true
	case PickPush:
		return PickPush, true
	default:
		return "", false
	}
}

// Pick is a user-submitted spread pick on an NBA game.
type Pick struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	Game      string     `json:"game"`
	Team      string     `json:"team"`
	Spread    float64    `json:"spread"`
	Result    PickResult `json:"result"`
	CreatedAt time.Time  `json:"created_at"`
	SettledAt *time.Time `json:"settled_at,omitempty"`
}

// crockfordBase32 is the Crockford base32 alphabet (excludes I, L, O, U).
const crockfordBase32 = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

// GenerateUserID returns a user ID of the form "u_" followed by 10 random
// Crockford base32 characters (50 bits of entropy).
func GenerateUserID() (string, error) {
	b := make([]byte, 10)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate user id: %w", err)
	}
	var sb strings.Builder
	sb.WriteString("u_")
	for _, v := range b {
		sb.WriteByte(crockfordBase32[int(v)%len(crockfordBase32)])
	}
	return sb.String(), nil
}
