package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/courtsideapp/courtside/internal/appmetrics"
	"github.com/courtsideapp/courtside/internal/membership"
	"github.com/rs/zerolog/log"
	stripelib "github.com/stripe/stripe-go/v82"
	stripewebhook "github.com/stripe/stripe-go/v82/webhook"
)

const webhookBodyLimit = 1024 * 1024 // 1 MiB

// Reconciler is the membership reconciliation contract the webhook dispatches
// to. Implemented by membership.Reconciler.
type Reconciler interface {
	BindPaymentIdentifiers(ctx context.Context, userID, subscriptionID, customerID string) (*membership.Profile, error)
	ReconcileSubscriptionChange(ctx context.Context, subscriptionID, customerID, productID string) (membership.Tier, error)
}

// Handler handles incoming Stripe webhook events. Signature verification is
// the only authentication; the reconciler assumes events that reach it are
// authentic.
type Handler struct {
	secret     string
	reconciler Reconciler
}

type errorResponse struct {
	Error string `json:"error"`
}

type receivedResponse struct {
	Received bool `json:"received"`
}

// NewHandler creates a Stripe webhook HTTP handler.
func NewHandler(secret string, reconciler Reconciler) *Handler {
	return &Handler{
		secret:     secret,
		reconciler: reconciler,
	}
}

// ServeHTTP verifies the Stripe signature and dispatches the event. Any
// processing failure answers 500 so the provider's redelivery mechanism
// retries; no retry happens here.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	eventType := "unknown"
	status := http.StatusOK
	defer func() {
		appmetrics.WebhookRequestsTotal.WithLabelValues(eventType, strconv.Itoa(status)).Inc()
		appmetrics.WebhookDuration.WithLabelValues(eventType).Observe(time.Since(start).Seconds())
	}()

	if r.Method != http.MethodPost {
		status = http.StatusMethodNotAllowed
		writeJSON(w, status, errorResponse{Error: "method not allowed"})
		return
	}
	if strings.TrimSpace(h.secret) == "" {
		status = http.StatusServiceUnavailable
		writeJSON(w, status, errorResponse{Error: "webhook secret not configured"})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, webhookBodyLimit)
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		status = http.StatusBadRequest
		writeJSON(w, status, errorResponse{Error: "failed to read request body"})
		return
	}

	sigHeader := r.Header.Get("Stripe-Signature")
	if strings.TrimSpace(sigHeader) == "" {
		status = http.StatusBadRequest
		writeJSON(w, status, errorResponse{Error: "missing Stripe signature"})
		return
	}

	event, err := stripewebhook.ConstructEventWithOptions(payload, sigHeader, h.secret, stripewebhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		status = http.StatusBadRequest
		writeJSON(w, status, errorResponse{Error: "invalid Stripe signature"})
		return
	}
	eventType = string(event.Type)

	if err := h.handleEvent(r.Context(), &event); err != nil {
		log.Error().Err(err).
			Str("event_id", event.ID).
			Str("type", string(event.Type)).
			Str("error_kind", string(membership.KindOf(err))).
			Msg("Stripe webhook processing failed")
		status = http.StatusInternalServerError
		writeJSON(w, status, errorResponse{Error: "processing failed"})
		return
	}

	status = http.StatusOK
	writeJSON(w, status, receivedResponse{Received: true})
}

func (h *Handler) handleEvent(ctx context.Context, event *stripelib.Event) error {
	switch event.Type {
	case "checkout.session.completed":
		var session CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return fmt.Errorf("decode checkout.session: %w", err)
		}
		if session.Mode != "" && session.Mode != "subscription" {
			log.Info().
				Str("event_id", event.ID).
				Str("mode", session.Mode).
				Msg("Checkout session ignored (not a subscription)")
			return nil
		}
		_, err := h.reconciler.BindPaymentIdentifiers(ctx, session.UserID(), session.Subscription, session.Customer)
		return err

	case "customer.subscription.updated", "customer.subscription.deleted":
		var sub Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return fmt.Errorf("decode subscription: %w", err)
		}
		_, err := h.reconciler.ReconcileSubscriptionChange(ctx, sub.ID, sub.Customer, sub.FirstProductID())
		return err

	default:
		log.Info().
			Str("type", string(event.Type)).
			Str("event_id", event.ID).
			Msg("Stripe webhook ignored (unhandled type)")
		return nil
	}
}

// CheckoutSession is a minimal representation of a Stripe checkout.session
// event payload.
type CheckoutSession struct {
	ID                string            `json:"id"`
	Mode              string            `json:"mode"`
	Customer          string            `json:"customer"`
	Subscription      string            `json:"subscription"`
	ClientReferenceID string            `json:"client_reference_id"`
	Metadata          map[string]string `json:"metadata"`
}

// UserID returns the internal user identity the checkout was started for.
// The checkout flow sets it as the client reference ID; metadata is a
// fallback for older sessions.
func (s *CheckoutSession) UserID() string {
	if id := strings.TrimSpace(s.ClientReferenceID); id != "" {
		return id
	}
	return strings.TrimSpace(s.Metadata["user_id"])
}

// Subscription is a minimal representation of a Stripe subscription event
// payload.
type Subscription struct {
	ID       string `json:"id"`
	Customer string `json:"customer"`
	Status   string `json:"status"`
	Items    struct {
		Data []struct {
			Price struct {
				ID      string `json:"id"`
				Product string `json:"product"`
			} `json:"price"`
		} `json:"data"`
	} `json:"items"`
	Metadata map[string]string `json:"metadata"`
}

// FirstProductID returns the product ID from the first subscription item.
func (s *Subscription) FirstProductID() string {
	for _, item := range s.Items.Data {
		if productID := strings.TrimSpace(item.Price.Product); productID != "" {
			return productID
		}
	}
	return ""
}

func writeJSON[T any](w http.ResponseWriter, status int, v T) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Int("status", status).Msg("webhook: encode response")
	}
}
