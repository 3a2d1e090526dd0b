package listing

import (
	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Aggregate type constant
const AggregateTypeListing = "Listing"

// Event type constants
const (
	EventTypeListingCreated = "ListingCreated"
	EventTypeListingSoldOut = "ListingSoldOut"
)

// ListingCreatedEvent is raised when a seller publishes a new listing
type ListingCreatedEvent struct {
	shared.BaseDomainEvent
	ListingID uuid.UUID       `json:"listing_id"`
	ProductID uuid.UUID       `json:"product_id"`
	SellerID  uuid.UUID       `json:"seller_id"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
}

// NewListingCreatedEvent creates a new ListingCreatedEvent
func NewListingCreatedEvent(l *Listing) *ListingCreatedEvent {
	return &ListingCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeListingCreated, AggregateTypeListing, l.ID),
		ListingID:       l.ID,
		ProductID:       l.ProductID,
		SellerID:        l.SellerID,
		UnitPrice:       l.UnitPrice,
		Quantity:        l.Quantity,
	}
}

// EventType returns the event type name
func (e *ListingCreatedEvent) EventType() string {
	return EventTypeListingCreated
}

// ListingSoldOutEvent is raised when the last unit of a listing is reserved
type ListingSoldOutEvent struct {
	shared.BaseDomainEvent
	ListingID uuid.UUID `json:"listing_id"`
	SellerID  uuid.UUID `json:"seller_id"`
}

// NewListingSoldOutEvent creates a new ListingSoldOutEvent
func NewListingSoldOutEvent(l *Listing) *ListingSoldOutEvent {
	return &ListingSoldOutEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeListingSoldOut, AggregateTypeListing, l.ID),
		ListingID:       l.ID,
		SellerID:        l.SellerID,
	}
}

// EventType returns the event type name
func (e *ListingSoldOutEvent) EventType() string {
	return EventTypeListingSoldOut
}
