package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/shared"
)

// CartItem represents one listing in a buyer's cart.
// A buyer has at most one cart item per listing; adding the same listing
// again merges into the existing item.
type CartItem struct {
	shared.BaseEntity
	BuyerID   uuid.UUID
	ListingID uuid.UUID
	Quantity  int
	AddedAt   time.Time
}

// NewCartItem creates a new cart item
func NewCartItem(buyerID, listingID uuid.UUID, quantity int) (*CartItem, error) {
	if buyerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_BUYER", "Buyer ID cannot be empty")
	}
	if listingID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_LISTING", "Listing ID cannot be empty")
	}
	if quantity <= 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}

	return &CartItem{
		BaseEntity: shared.NewBaseEntity(),
		BuyerID:    buyerID,
		ListingID:  listingID,
		Quantity:   quantity,
		AddedAt:    time.Now(),
	}, nil
}

// IncreaseQuantity merges an additional quantity into the item
func (c *CartItem) IncreaseQuantity(quantity int) error {
	if quantity <= 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	c.Quantity += quantity
	c.Touch()
	return nil
}

// SetQuantity replaces the item quantity
func (c *CartItem) SetQuantity(quantity int) error {
	if quantity <= 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	c.Quantity = quantity
	c.Touch()
	return nil
}
