package listing

import (
	"context"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/shared"
)

// Repository defines the interface for listing persistence
type Repository interface {
	// FindByID finds a listing by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Listing, error)

	// FindByIDForUpdate finds a listing by ID holding a row lock until the
	// surrounding transaction ends. Must be called inside a transaction.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Listing, error)

	// FindAll finds listings with filtering
	FindAll(ctx context.Context, filter shared.Filter) ([]Listing, error)

	// FindActive finds active listings with filtering
	FindActive(ctx context.Context, filter shared.Filter) ([]Listing, error)

	// FindBySeller finds listings owned by a seller
	FindBySeller(ctx context.Context, sellerID uuid.UUID, filter shared.Filter) ([]Listing, error)

	// FindByProduct finds listings for a product
	FindByProduct(ctx context.Context, productID uuid.UUID, filter shared.Filter) ([]Listing, error)

	// Save creates or updates a listing
	Save(ctx context.Context, l *Listing) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, l *Listing) error

	// Delete deletes a listing
	Delete(ctx context.Context, id uuid.UUID) error

	// Count counts listings matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)
}
