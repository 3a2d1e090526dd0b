package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/order"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// OrderModel is the persistence model for the Order aggregate root.
type OrderModel struct {
	AggregateModel
	BuyerID         uuid.UUID        `gorm:"type:uuid;not null;index"`
	Items           []OrderItemModel `gorm:"foreignKey:OrderID;references:ID"`
	Total           decimal.Decimal  `gorm:"type:decimal(18,4);not null;default:0"`
	Status          order.Status     `gorm:"type:varchar(20);not null;default:'CREATED';index"`
	PaymentIntentID string           `gorm:"type:varchar(100);index"`
	PaymentStatus   string           `gorm:"type:varchar(50)"`
	ShippingAddress string           `gorm:"type:varchar(500)"`
	PaidAt          *time.Time       `gorm:"index"`
	ShippedAt       *time.Time
	CompletedAt     *time.Time
	CancelledAt     *time.Time
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// ToDomain converts the persistence model to a domain Order entity.
func (m *OrderModel) ToDomain() *order.Order {
	o := &order.Order{
		BaseAggregateRoot: shared.BaseAggregateRoot{
			BaseEntity: shared.BaseEntity{
				ID:        m.ID,
				CreatedAt: m.CreatedAt,
				UpdatedAt: m.UpdatedAt,
			},
			Version: m.Version,
		},
		BuyerID:         m.BuyerID,
		Total:           m.Total,
		Status:          m.Status,
		PaymentIntentID: m.PaymentIntentID,
		PaymentStatus:   m.PaymentStatus,
		ShippingAddress: m.ShippingAddress,
		PaidAt:          m.PaidAt,
		ShippedAt:       m.ShippedAt,
		CompletedAt:     m.CompletedAt,
		CancelledAt:     m.CancelledAt,
		Items:           make([]order.Item, len(m.Items)),
	}
	for i, item := range m.Items {
		o.Items[i] = *item.ToDomain()
	}
	return o
}

// FromDomain populates the persistence model from a domain Order entity.
func (m *OrderModel) FromDomain(o *order.Order) {
	m.FromDomainAggregateRoot(o.BaseAggregateRoot)
	m.BuyerID = o.BuyerID
	m.Total = o.Total
	m.Status = o.Status
	m.PaymentIntentID = o.PaymentIntentID
	m.PaymentStatus = o.PaymentStatus
	m.ShippingAddress = o.ShippingAddress
	m.PaidAt = o.PaidAt
	m.ShippedAt = o.ShippedAt
	m.CompletedAt = o.CompletedAt
	m.CancelledAt = o.CancelledAt
	m.Items = make([]OrderItemModel, len(o.Items))
	for i, item := range o.Items {
		m.Items[i] = *OrderItemModelFromDomain(&item)
	}
}

// OrderModelFromDomain creates a new persistence model from a domain Order entity.
func OrderModelFromDomain(o *order.Order) *OrderModel {
	m := &OrderModel{}
	m.FromDomain(o)
	return m
}

// OrderItemModel is the persistence model for the Order item entity.
// UnitPrice is the price captured at reservation time, not the current
// listing price.
type OrderItemModel struct {
	ID           uuid.UUID       `gorm:"type:uuid;primary_key"`
	OrderID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	ListingID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	SellerID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductTitle string          `gorm:"type:varchar(200);not null"`
	Quantity     int             `gorm:"not null"`
	UnitPrice    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Amount       decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	CreatedAt    time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (OrderItemModel) TableName() string {
	return "order_items"
}

// ToDomain converts the persistence model to a domain order Item entity.
func (m *OrderItemModel) ToDomain() *order.Item {
	return &order.Item{
		ID:           m.ID,
		OrderID:      m.OrderID,
		ListingID:    m.ListingID,
		SellerID:     m.SellerID,
		ProductTitle: m.ProductTitle,
		Quantity:     m.Quantity,
		UnitPrice:    m.UnitPrice,
		Amount:       m.Amount,
		CreatedAt:    m.CreatedAt,
	}
}

// OrderItemModelFromDomain creates a new persistence model from a domain order Item entity.
func OrderItemModelFromDomain(item *order.Item) *OrderItemModel {
	return &OrderItemModel{
		ID:           item.ID,
		OrderID:      item.OrderID,
		ListingID:    item.ListingID,
		SellerID:     item.SellerID,
		ProductTitle: item.ProductTitle,
		Quantity:     item.Quantity,
		UnitPrice:    item.UnitPrice,
		Amount:       item.Amount,
		CreatedAt:    item.CreatedAt,
	}
}
