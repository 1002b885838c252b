package payments

import (
	"context"
	"fmt"
	"strings"

	"github.com/courtsideapp/courtside/internal/membership"
	stripelib "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
)

// Client wraps the Stripe API behind the reconciler's collaborator contract.
// It is constructed explicitly at bootstrap and injected where needed; no
// package-level client handle exists. Raw Stripe responses are parsed into
// validated types at this boundary.
type Client struct {
	api *client.API
}

// New creates a Client using the given secret API key.
func New(apiKey string) *Client {
	api := &client.API{}
	api.Init(apiKey, nil)
	return &Client{api: api}
}

// FetchSubscription retrieves and validates a subscription record.
func (c *Client) FetchSubscription(ctx context.Context, id string) (*membership.Subscription, error) {
	if !IsSafeStripeID(id) {
		return nil, fmt.Errorf("invalid stripe subscription id: %q", id)
	}
	sub, err := c.api.Subscriptions.Get(id, &stripelib.SubscriptionParams{
		Params: stripelib.Params{Context: ctx},
	})
	if err != nil {
		return nil, fmt.Errorf("fetch subscription %s: %w", id, err)
	}
	return parseSubscription(sub)
}

// FetchProduct retrieves and validates a product record.
func (c *Client) FetchProduct(ctx context.Context, id string) (*membership.Product, error) {
	if !IsSafeStripeID(id) {
		return nil, fmt.Errorf("invalid stripe product id: %q", id)
	}
	product, err := c.api.Products.Get(id, &stripelib.ProductParams{
		Params: stripelib.Params{Context: ctx},
	})
	if err != nil {
		return nil, fmt.Errorf("fetch product %s: %w", id, err)
	}
	return parseProduct(product)
}

func parseSubscription(sub *stripelib.Subscription) (*membership.Subscription, error) {
	if sub == nil {
		return nil, fmt.Errorf("stripe returned nil subscription")
	}
	if strings.TrimSpace(sub.ID) == "" {
		return nil, fmt.Errorf("stripe subscription missing id")
	}
	if sub.Status == "" {
		return nil, fmt.Errorf("stripe subscription %s missing status", sub.ID)
	}
	customerID := ""
	if sub.Customer != nil {
		customerID = sub.Customer.ID
	}
	return &membership.Subscription{
		ID:         sub.ID,
		CustomerID: customerID,
		Status:     string(sub.Status),
	}, nil
}

func parseProduct(product *stripelib.Product) (*membership.Product, error) {
	if product == nil {
		return nil, fmt.Errorf("stripe returned nil product")
	}
	if strings.TrimSpace(product.ID) == "" {
		return nil, fmt.Errorf("stripe product missing id")
	}
	metadata := make(map[string]string, len(product.Metadata))
	for k, v := range product.Metadata {
		metadata[k] = v
	}
	return &membership.Product{
		ID:       product.ID,
		Metadata: metadata,
	}, nil
}

// IsSafeStripeID validates that a Stripe ID (cus_..., sub_..., prod_...) is
// safe for use as a lookup key.
func IsSafeStripeID(stripeID string) bool {
	if len(stripeID) < 5 || len(stripeID) > 128 {
		return false
	}
	for i := 0; i < len(stripeID); i++ {
		c := stripeID[i]
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_' || c == '-' {
			continue
		}
		return false
	}
	return true
}
