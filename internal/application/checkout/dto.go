package checkout

import (
	"github.com/google/uuid"
	orderapp "github.com/marketplace/backend/internal/application/order"
)

// LineRequest is one requested listing in a checkout
type LineRequest struct {
	ListingID uuid.UUID `json:"listing_id" binding:"required"`
	Quantity  int       `json:"quantity" binding:"required,min=1"`
}

// PlaceOrderRequest represents a checkout request. Lines may repeat a
// listing id; repeats are merged before reservation.
type PlaceOrderRequest struct {
	Lines           []LineRequest `json:"lines" binding:"required,min=1,dive"`
	ShippingAddress string        `json:"shipping_address" binding:"omitempty,max=500"`
}

// PlaceOrderResponse is the created order
type PlaceOrderResponse = orderapp.Response
