package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/cart"
	"github.com/marketplace/backend/internal/domain/shared"
)

// CartItemModel is the persistence model for the CartItem entity.
// A buyer holds at most one row per listing.
type CartItemModel struct {
	BaseModel
	BuyerID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_cart_buyer_listing,priority:1"`
	ListingID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_cart_buyer_listing,priority:2"`
	Quantity  int       `gorm:"not null"`
	AddedAt   time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CartItemModel) TableName() string {
	return "cart_items"
}

// ToDomain converts the persistence model to a domain CartItem entity.
func (m *CartItemModel) ToDomain() *cart.CartItem {
	return &cart.CartItem{
		BaseEntity: shared.BaseEntity{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		BuyerID:   m.BuyerID,
		ListingID: m.ListingID,
		Quantity:  m.Quantity,
		AddedAt:   m.AddedAt,
	}
}

// FromDomain populates the persistence model from a domain CartItem entity.
func (m *CartItemModel) FromDomain(item *cart.CartItem) {
	m.FromDomainBaseEntity(item.BaseEntity)
	m.BuyerID = item.BuyerID
	m.ListingID = item.ListingID
	m.Quantity = item.Quantity
	m.AddedAt = item.AddedAt
}

// CartItemModelFromDomain creates a new persistence model from a domain CartItem entity.
func CartItemModelFromDomain(item *cart.CartItem) *CartItemModel {
	m := &CartItemModel{}
	m.FromDomain(item)
	return m
}
