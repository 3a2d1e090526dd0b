package payment

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/marketplace/backend/internal/domain/payment"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/webhook"
	"go.uber.org/zap"
)

var ErrInvalidWebhookSignature = errors.New("payment: invalid webhook signature")

// VerifyWebhook checks the Stripe-Signature header against the configured
// webhook secret and decodes the event payload.
func (a *StripeAdapter) VerifyWebhook(payload []byte, signature string) (*payment.Event, error) {
	if a.config.WebhookSecret == "" {
		return nil, payment.ErrGatewayNotConfigured
	}

	// Stripe pins the event schema to the API version configured in the
	// dashboard, which rarely matches the SDK's pinned version exactly.
	// Signature verification is what authenticates the payload.
	event, err := webhook.ConstructEventWithOptions(payload, signature, a.config.WebhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		a.logger.Warn("Rejected webhook with bad signature", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrInvalidWebhookSignature, err)
	}

	out := &payment.Event{Type: string(event.Type)}

	switch event.Type {
	case payment.EventIntentSucceeded, payment.EventIntentFailed:
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			return nil, fmt.Errorf("%w: %v", payment.ErrGatewayRequestFailed, err)
		}
		out.IntentID = pi.ID
		out.OrderID = pi.Metadata["order_id"]
	}

	return out, nil
}

// Ensure StripeAdapter implements payment.WebhookVerifier
var _ payment.WebhookVerifier = (*StripeAdapter)(nil)
