package listing

import (
	"time"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/listing"
	"github.com/shopspring/decimal"
)

// CreateRequest publishes a listing for sale
type CreateRequest struct {
	ProductID     uuid.UUID       `json:"product_id" binding:"required"`
	ProductTitle  string          `json:"product_title" binding:"required,max=200"`
	UnitPrice     decimal.Decimal `json:"unit_price" binding:"required"`
	Quantity      int             `json:"quantity" binding:"min=0"`
	ConditionNote string          `json:"condition_note" binding:"omitempty,max=1000"`
}

// UpdateRequest changes mutable listing fields. Nil fields stay as they are.
type UpdateRequest struct {
	UnitPrice     *decimal.Decimal `json:"unit_price"`
	Quantity      *int             `json:"quantity" binding:"omitempty,min=0"`
	ConditionNote *string          `json:"condition_note" binding:"omitempty,max=1000"`
}

// ListFilter represents filter options for listing queries
type ListFilter struct {
	Search   string `form:"search"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// Response represents a listing in API responses
type Response struct {
	ID            uuid.UUID       `json:"id"`
	ProductID     uuid.UUID       `json:"product_id"`
	ProductTitle  string          `json:"product_title"`
	SellerID      uuid.UUID       `json:"seller_id"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	Quantity      int             `json:"quantity"`
	ConditionNote string          `json:"condition_note,omitempty"`
	Active        bool            `json:"active"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// ToResponse converts a listing aggregate to its API representation
func ToResponse(l *listing.Listing) Response {
	return Response{
		ID:            l.ID,
		ProductID:     l.ProductID,
		ProductTitle:  l.ProductTitle,
		SellerID:      l.SellerID,
		UnitPrice:     l.UnitPrice,
		Quantity:      l.Quantity,
		ConditionNote: l.ConditionNote,
		Active:        l.Active,
		CreatedAt:     l.CreatedAt,
		UpdatedAt:     l.UpdatedAt,
	}
}

// ToResponseList converts a slice of listings
func ToResponseList(listings []listing.Listing) []Response {
	out := make([]Response, len(listings))
	for i := range listings {
		out[i] = ToResponse(&listings[i])
	}
	return out
}
