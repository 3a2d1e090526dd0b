package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/marketplace/backend/internal/domain/cart"
	"github.com/marketplace/backend/internal/domain/order"
	"github.com/marketplace/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// CartClearHandler empties purchased listings from the buyer's cart once
// an order is placed. It runs outside the checkout transaction, so a
// failure here leaves stale cart items but never touches the order.
type CartClearHandler struct {
	cartRepo cart.Repository
	logger   *zap.Logger
}

// NewCartClearHandler creates a new handler for order created events
func NewCartClearHandler(cartRepo cart.Repository, logger *zap.Logger) *CartClearHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CartClearHandler{
		cartRepo: cartRepo,
		logger:   logger,
	}
}

// EventTypes returns the event types this handler is interested in
func (h *CartClearHandler) EventTypes() []string {
	return []string{order.EventTypeOrderCreated}
}

// Handle removes the ordered listings from the buyer's cart
func (h *CartClearHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	createdEvent, ok := event.(*order.OrderCreatedEvent)
	if !ok {
		return fmt.Errorf("unexpected event type %s", event.EventType())
	}

	cleared := 0
	for _, item := range createdEvent.Items {
		cartItem, err := h.cartRepo.FindByBuyerAndListing(ctx, createdEvent.BuyerID, item.ListingID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				continue
			}
			h.logger.Warn("Failed to look up cart item after checkout",
				zap.String("buyer_id", createdEvent.BuyerID.String()),
				zap.String("listing_id", item.ListingID.String()),
				zap.Error(err))
			continue
		}

		if err := h.cartRepo.Delete(ctx, cartItem.ID); err != nil {
			h.logger.Warn("Failed to clear cart item after checkout",
				zap.String("cart_item_id", cartItem.ID.String()),
				zap.Error(err))
			continue
		}
		cleared++
	}

	h.logger.Debug("Cart cleared after checkout",
		zap.String("buyer_id", createdEvent.BuyerID.String()),
		zap.String("order_id", createdEvent.OrderID.String()),
		zap.Int("cleared", cleared))
	return nil
}

var _ shared.EventHandler = (*CartClearHandler)(nil)
