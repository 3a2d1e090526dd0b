package handler

import (
	"errors"
	"io"
	"net/http"

	orderapp "github.com/marketplace/backend/internal/application/order"
	"github.com/marketplace/backend/internal/domain/payment"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Maximum webhook payload size (64KB - provider webhooks are small)
const maxWebhookPayloadSize = 65536

// PaymentWebhookHandler receives payment provider callbacks. These
// endpoints are called by the provider and are authenticated by
// signature, not by session.
type PaymentWebhookHandler struct {
	BaseHandler
	verifier     payment.WebhookVerifier
	orderService *orderapp.Service
	logger       *zap.Logger
}

// NewPaymentWebhookHandler creates a new PaymentWebhookHandler
func NewPaymentWebhookHandler(verifier payment.WebhookVerifier, orderService *orderapp.Service, logger *zap.Logger) *PaymentWebhookHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentWebhookHandler{
		verifier:     verifier,
		orderService: orderService,
		logger:       logger,
	}
}

// WebhookResponse represents the webhook acknowledgement
type WebhookResponse struct {
	Received  bool   `json:"received" example:"true"`
	EventType string `json:"event_type,omitempty" example:"payment_intent.succeeded"`
	Message   string `json:"message,omitempty"`
}

// Handle godoc
// @Summary      Handle payment provider webhook
// @Description  Verify the provider signature and apply payment results to orders
// @Tags         webhooks
// @Accept       json
// @Produce      json
// @Param        Stripe-Signature header string true "Webhook signature"
// @Success      200 {object} WebhookResponse
// @Failure      400 {object} WebhookResponse
// @Failure      401 {object} WebhookResponse
// @Router       /payments/webhook [post]
func (h *PaymentWebhookHandler) Handle(c *gin.Context) {
	// The raw body is needed for signature verification
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookPayloadSize+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, WebhookResponse{Message: "Failed to read request body"})
		return
	}
	if len(body) > maxWebhookPayloadSize {
		c.JSON(http.StatusRequestEntityTooLarge, WebhookResponse{Message: "Payload too large"})
		return
	}

	signature := c.GetHeader("Stripe-Signature")
	if signature == "" {
		c.JSON(http.StatusUnauthorized, WebhookResponse{Message: "Missing Stripe-Signature header"})
		return
	}

	event, err := h.verifier.VerifyWebhook(body, signature)
	if err != nil {
		h.logger.Warn("Webhook verification failed", zap.Error(err))
		c.JSON(http.StatusUnauthorized, WebhookResponse{Message: "Invalid signature"})
		return
	}

	switch event.Type {
	case payment.EventIntentSucceeded:
		if err := h.applyPaymentSuccess(c, event); err != nil {
			// Transient failure: a non-2xx answer makes the provider retry
			c.JSON(http.StatusInternalServerError, WebhookResponse{Message: "Failed to apply payment"})
			return
		}
	case payment.EventIntentFailed:
		h.logger.Info("Payment failed",
			zap.String("intent_id", event.IntentID),
			zap.String("order_id", event.OrderID))
	default:
		// Unhandled event types are acknowledged so the provider stops retrying
		h.logger.Debug("Ignoring webhook event", zap.String("type", event.Type))
	}

	c.JSON(http.StatusOK, WebhookResponse{Received: true, EventType: event.Type})
}

// applyPaymentSuccess moves the referenced order to PAID. A missing or
// unparseable order reference is logged and acknowledged: the provider
// would retry forever on a payload we can never apply. Only transient
// failures return an error.
func (h *PaymentWebhookHandler) applyPaymentSuccess(c *gin.Context, event *payment.Event) error {
	if event.OrderID == "" {
		h.logger.Warn("Payment succeeded without order reference",
			zap.String("intent_id", event.IntentID))
		return nil
	}

	orderID, err := uuid.Parse(event.OrderID)
	if err != nil {
		h.logger.Warn("Payment succeeded with malformed order reference",
			zap.String("intent_id", event.IntentID),
			zap.String("order_id", event.OrderID))
		return nil
	}

	if _, err := h.orderService.MarkPaid(c.Request.Context(), orderID, event.IntentID); err != nil {
		h.logger.Error("Failed to mark order paid",
			zap.String("order_id", event.OrderID),
			zap.String("intent_id", event.IntentID),
			zap.Error(err))
		var domainErr *shared.DomainError
		if errors.As(err, &domainErr) {
			// Duplicate deliveries hit ILLEGAL_TRANSITION on an already
			// paid order; retrying cannot help a domain rejection.
			return nil
		}
		return err
	}
	return nil
}
