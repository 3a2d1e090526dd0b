package models

import (
	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/listing"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ListingModel is the persistence model for the Listing aggregate root.
type ListingModel struct {
	AggregateModel
	ProductID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductTitle  string          `gorm:"type:varchar(200);not null"`
	SellerID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	UnitPrice     decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Quantity      int             `gorm:"not null;default:0"`
	ConditionNote string          `gorm:"type:varchar(500)"`
	Active        bool            `gorm:"not null;default:false;index"`
}

// TableName returns the table name for GORM
func (ListingModel) TableName() string {
	return "listings"
}

// ToDomain converts the persistence model to a domain Listing entity.
func (m *ListingModel) ToDomain() *listing.Listing {
	return &listing.Listing{
		BaseAggregateRoot: shared.BaseAggregateRoot{
			BaseEntity: shared.BaseEntity{
				ID:        m.ID,
				CreatedAt: m.CreatedAt,
				UpdatedAt: m.UpdatedAt,
			},
			Version: m.Version,
		},
		ProductID:     m.ProductID,
		ProductTitle:  m.ProductTitle,
		SellerID:      m.SellerID,
		UnitPrice:     m.UnitPrice,
		Quantity:      m.Quantity,
		ConditionNote: m.ConditionNote,
		Active:        m.Active,
	}
}

// FromDomain populates the persistence model from a domain Listing entity.
func (m *ListingModel) FromDomain(l *listing.Listing) {
	m.FromDomainAggregateRoot(l.BaseAggregateRoot)
	m.ProductID = l.ProductID
	m.ProductTitle = l.ProductTitle
	m.SellerID = l.SellerID
	m.UnitPrice = l.UnitPrice
	m.Quantity = l.Quantity
	m.ConditionNote = l.ConditionNote
	m.Active = l.Active
}

// ListingModelFromDomain creates a new persistence model from a domain Listing entity.
func ListingModelFromDomain(l *listing.Listing) *ListingModel {
	m := &ListingModel{}
	m.FromDomain(l)
	return m
}
