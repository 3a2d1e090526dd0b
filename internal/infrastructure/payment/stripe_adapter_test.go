package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/form"
	"go.uber.org/zap"

	domainpayment "github.com/marketplace/backend/internal/domain/payment"
	"github.com/marketplace/backend/internal/domain/shared/valueobject"
	"github.com/marketplace/backend/internal/infrastructure/config"
)

// mockBackend implements stripe.Backend for testing
type mockBackend struct {
	handler func(method, path string, params stripe.ParamsContainer) ([]byte, error)
}

func (m *mockBackend) Call(method, path, key string, params stripe.ParamsContainer, v stripe.LastResponseSetter) error {
	data, err := m.handler(method, path, params)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func (m *mockBackend) CallStreaming(method, path, key string, params stripe.ParamsContainer, v stripe.StreamingLastResponseSetter) error {
	return nil
}

func (m *mockBackend) CallRaw(method, path, key string, body *form.Values, params *stripe.Params, v stripe.LastResponseSetter) error {
	return nil
}

func (m *mockBackend) CallMultipart(method, path, key, boundary string, body *bytes.Buffer, params *stripe.Params, v stripe.LastResponseSetter) error {
	return nil
}

func (m *mockBackend) SetMaxNetworkRetries(maxNetworkRetries int64) {}

// setupMockBackend sets up a mock Stripe backend for testing
func setupMockBackend(handler func(method, path string, params stripe.ParamsContainer) ([]byte, error)) func() {
	mock := &mockBackend{handler: handler}
	stripe.SetBackend(stripe.APIBackend, mock)
	return func() {
		stripe.SetBackend(stripe.APIBackend, nil)
	}
}

func testStripeConfig() *config.StripeConfig {
	return &config.StripeConfig{
		SecretKey:       "sk_test_123456789",
		PublishableKey:  "pk_test_123456789",
		WebhookSecret:   "whsec_test_123456789",
		IsTestMode:      true,
		DefaultCurrency: "eur",
	}
}

func TestNewStripeAdapter(t *testing.T) {
	t.Run("valid config", func(t *testing.T) {
		adapter, err := NewStripeAdapter(testStripeConfig(), zap.NewNop())

		require.NoError(t, err)
		assert.NotNil(t, adapter)
	})

	t.Run("empty key means unconfigured", func(t *testing.T) {
		cfg := testStripeConfig()
		cfg.SecretKey = ""

		adapter, err := NewStripeAdapter(cfg, zap.NewNop())

		assert.Nil(t, adapter)
		assert.ErrorIs(t, err, domainpayment.ErrGatewayNotConfigured)
	})

	t.Run("live key in test mode rejected", func(t *testing.T) {
		cfg := testStripeConfig()
		cfg.SecretKey = "sk_live_123456789"

		adapter, err := NewStripeAdapter(cfg, zap.NewNop())

		assert.Nil(t, adapter)
		assert.Error(t, err)
	})
}

func TestStripeAdapter_CreateIntent(t *testing.T) {
	t.Run("creates an intent", func(t *testing.T) {
		cleanup := setupMockBackend(func(method, path string, params stripe.ParamsContainer) ([]byte, error) {
			assert.Equal(t, "POST", method)
			assert.Contains(t, path, "/payment_intents")
			return json.Marshal(map[string]interface{}{
				"id":            "pi_test_123",
				"client_secret": "pi_test_123_secret_456",
				"amount":        2550,
				"currency":      "eur",
				"status":        "requires_payment_method",
			})
		})
		defer cleanup()

		adapter, err := NewStripeAdapter(testStripeConfig(), zap.NewNop())
		require.NoError(t, err)

		intent, err := adapter.CreateIntent(context.Background(), domainpayment.CreateIntentRequest{
			Amount:   2550,
			Currency: valueobject.EUR,
			OrderID:  "order-1",
		})

		require.NoError(t, err)
		assert.Equal(t, "pi_test_123", intent.IntentID)
		assert.Equal(t, "pi_test_123_secret_456", intent.ClientSecret)
		assert.Equal(t, int64(2550), intent.Amount)
		assert.Equal(t, valueobject.EUR, intent.Currency)
	})

	t.Run("rejects non-positive amount without calling the provider", func(t *testing.T) {
		called := false
		cleanup := setupMockBackend(func(method, path string, params stripe.ParamsContainer) ([]byte, error) {
			called = true
			return nil, nil
		})
		defer cleanup()

		adapter, err := NewStripeAdapter(testStripeConfig(), zap.NewNop())
		require.NoError(t, err)

		_, err = adapter.CreateIntent(context.Background(), domainpayment.CreateIntentRequest{
			Amount:   0,
			Currency: valueobject.EUR,
		})

		assert.ErrorIs(t, err, domainpayment.ErrInvalidAmount)
		assert.False(t, called)
	})

	t.Run("provider failure wraps gateway error", func(t *testing.T) {
		cleanup := setupMockBackend(func(method, path string, params stripe.ParamsContainer) ([]byte, error) {
			return nil, fmt.Errorf("connection refused")
		})
		defer cleanup()

		adapter, err := NewStripeAdapter(testStripeConfig(), zap.NewNop())
		require.NoError(t, err)

		_, err = adapter.CreateIntent(context.Background(), domainpayment.CreateIntentRequest{
			Amount:   1000,
			Currency: valueobject.EUR,
		})

		assert.ErrorIs(t, err, domainpayment.ErrGatewayRequestFailed)
	})
}

func TestStripeAdapter_RetrieveIntent(t *testing.T) {
	t.Run("fetches intent state", func(t *testing.T) {
		cleanup := setupMockBackend(func(method, path string, params stripe.ParamsContainer) ([]byte, error) {
			assert.Equal(t, "GET", method)
			assert.Contains(t, path, "/payment_intents/pi_test_123")
			return json.Marshal(map[string]interface{}{
				"id":       "pi_test_123",
				"amount":   2550,
				"currency": "eur",
				"status":   "succeeded",
			})
		})
		defer cleanup()

		adapter, err := NewStripeAdapter(testStripeConfig(), zap.NewNop())
		require.NoError(t, err)

		intent, err := adapter.RetrieveIntent(context.Background(), "pi_test_123")

		require.NoError(t, err)
		assert.Equal(t, "succeeded", intent.Status)
	})

	t.Run("empty id maps to not found", func(t *testing.T) {
		adapter, err := NewStripeAdapter(testStripeConfig(), zap.NewNop())
		require.NoError(t, err)

		_, err = adapter.RetrieveIntent(context.Background(), "")

		assert.ErrorIs(t, err, domainpayment.ErrIntentNotFound)
	})
}

// signPayload builds a valid Stripe-Signature header for the payload
func signPayload(payload []byte, secret string, ts time.Time) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(fmt.Sprintf("%d.%s", ts.Unix(), payload)))
	return fmt.Sprintf("t=%d,v1=%s", ts.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

func TestStripeAdapter_VerifyWebhook(t *testing.T) {
	newSignedEvent := func(t *testing.T, eventType string) ([]byte, string) {
		t.Helper()
		intent := map[string]interface{}{
			"id":       "pi_test_123",
			"metadata": map[string]string{"order_id": "order-1"},
		}
		raw, err := json.Marshal(intent)
		require.NoError(t, err)

		payload, err := json.Marshal(map[string]interface{}{
			"id":   "evt_test_1",
			"type": eventType,
			"data": map[string]interface{}{"object": json.RawMessage(raw)},
		})
		require.NoError(t, err)

		return payload, signPayload(payload, "whsec_test_123456789", time.Now())
	}

	t.Run("accepts a signed success event", func(t *testing.T) {
		adapter, err := NewStripeAdapter(testStripeConfig(), zap.NewNop())
		require.NoError(t, err)

		payload, signature := newSignedEvent(t, "payment_intent.succeeded")

		event, err := adapter.VerifyWebhook(payload, signature)

		require.NoError(t, err)
		assert.Equal(t, domainpayment.EventIntentSucceeded, event.Type)
		assert.Equal(t, "pi_test_123", event.IntentID)
		assert.Equal(t, "order-1", event.OrderID)
	})

	t.Run("rejects a tampered payload", func(t *testing.T) {
		adapter, err := NewStripeAdapter(testStripeConfig(), zap.NewNop())
		require.NoError(t, err)

		payload, signature := newSignedEvent(t, "payment_intent.succeeded")
		payload = append(payload, ' ')

		_, err = adapter.VerifyWebhook(payload, signature)

		assert.ErrorIs(t, err, ErrInvalidWebhookSignature)
	})

	t.Run("unrelated event types pass through without intent data", func(t *testing.T) {
		adapter, err := NewStripeAdapter(testStripeConfig(), zap.NewNop())
		require.NoError(t, err)

		payload, signature := newSignedEvent(t, "customer.created")

		event, err := adapter.VerifyWebhook(payload, signature)

		require.NoError(t, err)
		assert.Equal(t, "customer.created", event.Type)
		assert.Empty(t, event.IntentID)
	})
}
