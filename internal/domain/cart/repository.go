package cart

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the interface for cart persistence
type Repository interface {
	// FindByID finds a cart item by ID
	FindByID(ctx context.Context, id uuid.UUID) (*CartItem, error)

	// FindByBuyer finds all cart items of a buyer, oldest first
	FindByBuyer(ctx context.Context, buyerID uuid.UUID) ([]CartItem, error)

	// FindByBuyerAndListing finds the buyer's cart item for a listing, if any
	FindByBuyerAndListing(ctx context.Context, buyerID, listingID uuid.UUID) (*CartItem, error)

	// Save creates or updates a cart item
	Save(ctx context.Context, item *CartItem) error

	// Delete removes a cart item
	Delete(ctx context.Context, id uuid.UUID) error

	// DeleteByBuyer removes all cart items of a buyer
	DeleteByBuyer(ctx context.Context, buyerID uuid.UUID) error
}
