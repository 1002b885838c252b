package membership

import (
	"context"
	"strings"

	"github.com/courtsideapp/courtside/internal/appmetrics"
	"github.com/rs/zerolog/log"
)

// Subscription is the subset of the payment provider's subscription record
// the reconciler consumes, already parsed and validated at the client
// boundary.
type Subscription struct {
	ID         string
	CustomerID string
	Status     string
}

// Product is the subset of the payment provider's product record the
// reconciler consumes. Metadata carries the declared membership tier under
// the "membership" key.
type Product struct {
	ID       string
	Metadata map[string]string
}

// PaymentsClient fetches subscription and product records from the payment
// provider. Implemented by payments.Client.
type PaymentsClient interface {
	FetchSubscription(ctx context.Context, id string) (*Subscription, error)
	FetchProduct(ctx context.Context, id string) (*Product, error)
}

// Profile is the reconciler's view of a member profile.
type Profile struct {
	UserID                string `json:"user_id"`
	Email                 string `json:"email"`
	Membership            Tier   `json:"membership"`
	PaymentCustomerID     string `json:"payment_customer_id,omitempty"`
	PaymentSubscriptionID string `json:"payment_subscription_id,omitempty"`
}

// ProfileUpdate names the profile fields an operation writes. Nil fields are
// left untouched.
type ProfileUpdate struct {
	Membership            *Tier
	PaymentCustomerID     *string
	PaymentSubscriptionID *string
}

// ProfileStore persists member profiles. Both update methods return
// (nil, nil) when no profile matches, so "not found" stays distinguishable
// from a failed write. Implemented by store.Store.
type ProfileStore interface {
	UpdateProfileByUserID(ctx context.Context, userID string, fields ProfileUpdate) (*Profile, error)
	UpdateProfileByCustomerID(ctx context.Context, customerID string, fields ProfileUpdate) (*Profile, error)
}

// Reconciler derives and persists a member's effective tier in response to
// payment lifecycle events. Collaborators are injected at construction; the
// reconciler holds no other state and performs no retries; a failed
// operation surfaces to the webhook receiver, which relies on the payment
// provider's own redelivery.
type Reconciler struct {
	payments PaymentsClient
	profiles ProfileStore
}

// NewReconciler creates a Reconciler with the given collaborators.
func NewReconciler(payments PaymentsClient, profiles ProfileStore) *Reconciler {
	return &Reconciler{payments: payments, profiles: profiles}
}

const (
	opBind      = "bind_payment_identifiers"
	opReconcile = "reconcile_subscription_change"
)

// BindPaymentIdentifiers attaches the payment customer and subscription IDs
// to the profile identified by userID after checkout completes. The
// subscription ID written is the one returned by the provider fetch, not the
// caller-supplied one, to guard against mismatched deliveries.
func (r *Reconciler) BindPaymentIdentifiers(ctx context.Context, userID, subscriptionID, customerID string) (*Profile, error) {
	outcome := "error"
	defer func() { appmetrics.ReconcileTotal.WithLabelValues(opBind, outcome).Inc() }()

	if strings.TrimSpace(userID) == "" {
		return nil, newError(KindValidation, opBind, "missing user id", nil)
	}
	if strings.TrimSpace(subscriptionID) == "" {
		return nil, newError(KindValidation, opBind, "missing subscription id", nil)
	}
	if strings.TrimSpace(customerID) == "" {
		return nil, newError(KindValidation, opBind, "missing customer id", nil)
	}

	sub, err := r.payments.FetchSubscription(ctx, subscriptionID)
	if err != nil {
		return nil, newError(KindDependency, opBind, "fetch subscription", err)
	}
	if sub == nil {
		return nil, newError(KindDependency, opBind, "subscription not found", nil)
	}

	profile, err := r.profiles.UpdateProfileByUserID(ctx, userID, ProfileUpdate{
		PaymentCustomerID:     &customerID,
		PaymentSubscriptionID: &sub.ID,
	})
	if err != nil {
		return nil, newError(KindPersistence, opBind, "update profile", err)
	}
	if profile == nil {
		return nil, newError(KindPersistence, opBind, "profile not found for user "+userID, nil)
	}

	outcome = "success"
	log.Info().
		Str("user_id", userID).
		Str("customer_id", customerID).
		Str("subscription_id", sub.ID).
		Msg("Payment identifiers bound to profile")
	return profile, nil
}

// ReconcileSubscriptionChange recomputes and persists the effective
// membership tier after a subscription lifecycle event. The profile is looked
// up by payment customer ID because the provider event carries no internal
// user identity. Returns the effective tier.
func (r *Reconciler) ReconcileSubscriptionChange(ctx context.Context, subscriptionID, customerID, productID string) (Tier, error) {
	outcome := "error"
	defer func() { appmetrics.ReconcileTotal.WithLabelValues(opReconcile, outcome).Inc() }()

	if strings.TrimSpace(subscriptionID) == "" {
		return "", newError(KindValidation, opReconcile, "missing subscription id", nil)
	}
	if strings.TrimSpace(customerID) == "" {
		return "", newError(KindValidation, opReconcile, "missing customer id", nil)
	}
	if strings.TrimSpace(productID) == "" {
		return "", newError(KindValidation, opReconcile, "missing product id", nil)
	}

	sub, err := r.payments.FetchSubscription(ctx, subscriptionID)
	if err != nil {
		return "", newError(KindDependency, opReconcile, "fetch subscription", err)
	}
	if sub == nil {
		return "", newError(KindDependency, opReconcile, "subscription not found", nil)
	}

	product, err := r.payments.FetchProduct(ctx, productID)
	if err != nil {
		return "", newError(KindDependency, opReconcile, "fetch product", err)
	}
	if product == nil || product.Metadata == nil {
		return "", newError(KindDependency, opReconcile, "product missing metadata", nil)
	}

	declared, err := ParseTier(product.Metadata["membership"])
	if err != nil {
		return "", newError(KindDataIntegrity, opReconcile, "product "+product.ID+" metadata", err)
	}

	tier := EffectiveTier(sub.Status, declared)

	profile, err := r.profiles.UpdateProfileByCustomerID(ctx, customerID, ProfileUpdate{
		Membership:            &tier,
		PaymentSubscriptionID: &sub.ID,
	})
	if err != nil {
		return "", newError(KindPersistence, opReconcile, "update profile", err)
	}
	if profile == nil {
		return "", newError(KindPersistence, opReconcile, "no profile for customer "+customerID, nil)
	}

	outcome = "success"
	log.Info().
		Str("customer_id", customerID).
		Str("subscription_id", sub.ID).
		Str("status", sub.Status).
		Str("membership", string(tier)).
		Msg("Membership reconciled from subscription change")
	return tier, nil
}
