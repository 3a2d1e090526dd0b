// Package payment contains provider adapters for the payment gateway port.
package payment

import (
	"context"
	"fmt"
	"strings"

	"github.com/marketplace/backend/internal/domain/payment"
	"github.com/marketplace/backend/internal/domain/shared/valueobject"
	"github.com/marketplace/backend/internal/infrastructure/config"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/paymentintent"
	"go.uber.org/zap"
)

// StripeAdapter implements payment.Gateway on top of Stripe PaymentIntents.
type StripeAdapter struct {
	config *config.StripeConfig
	logger *zap.Logger
}

// NewStripeAdapter creates a new Stripe adapter and initializes the
// package-level Stripe client with the configured API key.
func NewStripeAdapter(cfg *config.StripeConfig, logger *zap.Logger) (*StripeAdapter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.SecretKey == "" {
		return nil, payment.ErrGatewayNotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	stripe.Key = cfg.SecretKey

	return &StripeAdapter{
		config: cfg,
		logger: logger,
	}, nil
}

// CreateIntent registers a payment intent with Stripe.
// Amount is in the currency's minor units, which is also what Stripe expects.
func (a *StripeAdapter) CreateIntent(ctx context.Context, req payment.CreateIntentRequest) (*payment.Intent, error) {
	if req.Amount <= 0 {
		return nil, payment.ErrInvalidAmount
	}

	currency := string(req.Currency)
	if currency == "" {
		currency = a.config.DefaultCurrency
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(req.Amount),
		Currency: stripe.String(strings.ToLower(currency)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx

	params.Metadata = map[string]string{}
	if req.OrderID != "" {
		params.Metadata["order_id"] = req.OrderID
	}
	for k, v := range req.Metadata {
		params.Metadata[k] = v
	}

	pi, err := paymentintent.New(params)
	if err != nil {
		a.logger.Error("Failed to create Stripe payment intent",
			zap.String("order_id", req.OrderID),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %v", payment.ErrGatewayRequestFailed, err)
	}

	a.logger.Info("Created Stripe payment intent",
		zap.String("intent_id", pi.ID),
		zap.String("order_id", req.OrderID),
		zap.Int64("amount", pi.Amount))

	return toIntent(pi), nil
}

// RetrieveIntent fetches the current state of a payment intent.
func (a *StripeAdapter) RetrieveIntent(ctx context.Context, intentID string) (*payment.Intent, error) {
	if intentID == "" {
		return nil, payment.ErrIntentNotFound
	}

	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := paymentintent.Get(intentID, params)
	if err != nil {
		if stripeErr, ok := err.(*stripe.Error); ok && stripeErr.HTTPStatusCode == 404 {
			return nil, payment.ErrIntentNotFound
		}
		a.logger.Error("Failed to retrieve Stripe payment intent",
			zap.String("intent_id", intentID),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %v", payment.ErrGatewayRequestFailed, err)
	}

	return toIntent(pi), nil
}

func toIntent(pi *stripe.PaymentIntent) *payment.Intent {
	return &payment.Intent{
		IntentID:     pi.ID,
		ClientSecret: pi.ClientSecret,
		Amount:       pi.Amount,
		Currency:     valueobject.Currency(strings.ToUpper(string(pi.Currency))),
		Status:       string(pi.Status),
	}
}

// Ensure StripeAdapter implements payment.Gateway
var _ payment.Gateway = (*StripeAdapter)(nil)
