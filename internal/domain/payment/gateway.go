package payment

import (
	"context"
	"errors"

	"github.com/marketplace/backend/internal/domain/shared/valueobject"
)

var (
	ErrInvalidAmount        = errors.New("payment: amount must be positive")
	ErrInvalidCurrency      = errors.New("payment: invalid currency")
	ErrIntentNotFound       = errors.New("payment: intent not found")
	ErrGatewayNotConfigured = errors.New("payment: gateway not configured")
	ErrGatewayRequestFailed = errors.New("payment: gateway request failed")
)

// CreateIntentRequest describes a payment the buyer is about to confirm.
// Amount is in the currency's minor units (cents), the way providers bill.
type CreateIntentRequest struct {
	Amount   int64
	Currency valueobject.Currency
	OrderID  string
	Metadata map[string]string
}

// Intent is the provider-side payment intent handed back to the client.
// ClientSecret is what the frontend needs to confirm the payment.
type Intent struct {
	IntentID     string
	ClientSecret string
	Amount       int64
	Currency     valueobject.Currency
	Status       string
}

// Gateway is the port to the external payment provider.
// Intent creation is not authoritative for order status; a separate
// confirmation path marks orders PAID.
type Gateway interface {
	// CreateIntent registers a payment intent with the provider
	CreateIntent(ctx context.Context, req CreateIntentRequest) (*Intent, error)

	// RetrieveIntent fetches the current state of an intent
	RetrieveIntent(ctx context.Context, intentID string) (*Intent, error)
}

// Webhook event types the order path cares about.
const (
	EventIntentSucceeded = "payment_intent.succeeded"
	EventIntentFailed    = "payment_intent.payment_failed"
)

// Event is a provider callback notification. OrderID comes from the
// metadata attached at intent creation and may be empty for intents
// created before an order existed.
type Event struct {
	Type     string
	IntentID string
	OrderID  string
}

// WebhookVerifier authenticates provider callbacks before they are
// allowed to drive order status.
type WebhookVerifier interface {
	// VerifyWebhook checks the payload signature and decodes the event
	VerifyWebhook(payload []byte, signature string) (*Event, error)
}
