package listing

import (
	"time"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// Listing represents a seller's offer of a product at a price.
// It is the aggregate root for stock operations: QuantityAvailable is
// only mutated through Decrement, Restock and SetQuantity, all of which
// keep the quantity non-negative and Active consistent with it.
type Listing struct {
	shared.BaseAggregateRoot
	ProductID     uuid.UUID
	ProductTitle  string
	SellerID      uuid.UUID
	UnitPrice     decimal.Decimal
	Quantity      int
	ConditionNote string
	Active        bool
}

// NewListing creates a new listing
func NewListing(productID, sellerID uuid.UUID, productTitle string, unitPrice valueobject.Money, quantity int, conditionNote string) (*Listing, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if sellerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_SELLER", "Seller ID cannot be empty")
	}
	if productTitle == "" {
		return nil, shared.NewDomainError("INVALID_PRODUCT_TITLE", "Product title cannot be empty")
	}
	if !unitPrice.IsPositive() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Unit price must be positive")
	}
	if quantity < 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity cannot be negative")
	}

	l := &Listing{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ProductID:         productID,
		ProductTitle:      productTitle,
		SellerID:          sellerID,
		UnitPrice:         unitPrice.Amount(),
		Quantity:          quantity,
		ConditionNote:     conditionNote,
		Active:            quantity > 0,
	}

	l.AddDomainEvent(NewListingCreatedEvent(l))

	return l, nil
}

// CanFulfill returns true if the listing is active and has at least
// the requested quantity in stock
func (l *Listing) CanFulfill(quantity int) bool {
	return l.Active && l.Quantity >= quantity
}

// Decrement removes the requested quantity from stock.
// When stock reaches zero the listing is deactivated in the same step,
// so an active listing always has stock.
func (l *Listing) Decrement(quantity int) error {
	if quantity <= 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Decrement quantity must be positive")
	}
	if !l.Active || l.Quantity < quantity {
		return shared.ErrOutOfStock
	}

	l.Quantity -= quantity
	if l.Quantity == 0 {
		l.Active = false
		l.AddDomainEvent(NewListingSoldOutEvent(l))
	}
	l.UpdatedAt = time.Now()
	l.IncrementVersion()

	return nil
}

// Restock adds quantity back to stock and reactivates the listing
func (l *Listing) Restock(quantity int) error {
	if quantity <= 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Restock quantity must be positive")
	}

	l.Quantity += quantity
	l.Active = true
	l.UpdatedAt = time.Now()
	l.IncrementVersion()

	return nil
}

// SetQuantity replaces the available quantity, keeping Active consistent
func (l *Listing) SetQuantity(quantity int) error {
	if quantity < 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity cannot be negative")
	}

	l.Quantity = quantity
	l.Active = quantity > 0
	l.UpdatedAt = time.Now()
	l.IncrementVersion()

	return nil
}

// ChangePrice updates the unit price. Orders already placed keep the
// price that was captured at reservation time.
func (l *Listing) ChangePrice(unitPrice valueobject.Money) error {
	if !unitPrice.IsPositive() {
		return shared.NewDomainError("INVALID_PRICE", "Unit price must be positive")
	}

	l.UnitPrice = unitPrice.Amount()
	l.UpdatedAt = time.Now()
	l.IncrementVersion()

	return nil
}

// SetConditionNote updates the seller's condition description
func (l *Listing) SetConditionNote(note string) {
	l.ConditionNote = note
	l.UpdatedAt = time.Now()
}

// Deactivate takes the listing off the market without touching stock
func (l *Listing) Deactivate() {
	if !l.Active {
		return
	}
	l.Active = false
	l.UpdatedAt = time.Now()
	l.IncrementVersion()
}

// Activate puts the listing back on the market.
// A listing without stock cannot be activated.
func (l *Listing) Activate() error {
	if l.Quantity == 0 {
		return shared.NewDomainError("NO_STOCK", "Cannot activate a listing without stock")
	}
	l.Active = true
	l.UpdatedAt = time.Now()
	l.IncrementVersion()

	return nil
}

// UnitPriceMoney returns the unit price as Money value object
func (l *Listing) UnitPriceMoney() valueobject.Money {
	return valueobject.NewMoneyEUR(l.UnitPrice)
}

// IsSoldOut returns true if there is no stock left
func (l *Listing) IsSoldOut() bool {
	return l.Quantity == 0
}
