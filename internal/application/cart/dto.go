package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AddItemRequest adds a listing to the cart
type AddItemRequest struct {
	ListingID uuid.UUID `json:"listing_id" binding:"required"`
	Quantity  int       `json:"quantity" binding:"required,min=1"`
}

// UpdateItemRequest changes the quantity of a cart item
type UpdateItemRequest struct {
	Quantity int `json:"quantity" binding:"required,min=1"`
}

// ItemResponse is a cart line joined with its current listing state.
// Prices here are informational; the binding price is snapshotted at
// checkout.
type ItemResponse struct {
	ID           uuid.UUID       `json:"id"`
	ListingID    uuid.UUID       `json:"listing_id"`
	ProductTitle string          `json:"product_title"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	Quantity     int             `json:"quantity"`
	Subtotal     decimal.Decimal `json:"subtotal"`
	Available    bool            `json:"available"`
	AddedAt      time.Time       `json:"added_at"`
}

// Response is the whole cart
type Response struct {
	BuyerID uuid.UUID       `json:"buyer_id"`
	Items   []ItemResponse  `json:"items"`
	Total   decimal.Decimal `json:"total"`
}
