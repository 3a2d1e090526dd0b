package payment

import (
	"context"

	"github.com/marketplace/backend/internal/domain/payment"
)

// UnconfiguredGateway is the gateway used when no payment provider keys are
// present. Every call fails with ErrGatewayNotConfigured so the rest of the
// system can boot and serve non-payment traffic.
type UnconfiguredGateway struct{}

// NewUnconfiguredGateway creates a gateway that rejects every operation.
func NewUnconfiguredGateway() *UnconfiguredGateway {
	return &UnconfiguredGateway{}
}

// CreateIntent always fails with ErrGatewayNotConfigured.
func (g *UnconfiguredGateway) CreateIntent(ctx context.Context, req payment.CreateIntentRequest) (*payment.Intent, error) {
	return nil, payment.ErrGatewayNotConfigured
}

// RetrieveIntent always fails with ErrGatewayNotConfigured.
func (g *UnconfiguredGateway) RetrieveIntent(ctx context.Context, intentID string) (*payment.Intent, error) {
	return nil, payment.ErrGatewayNotConfigured
}

// VerifyWebhook always fails with ErrGatewayNotConfigured.
func (g *UnconfiguredGateway) VerifyWebhook(payload []byte, signature string) (*payment.Event, error) {
	return nil, payment.ErrGatewayNotConfigured
}

var (
	_ payment.Gateway         = (*UnconfiguredGateway)(nil)
	_ payment.WebhookVerifier = (*UnconfiguredGateway)(nil)
)
