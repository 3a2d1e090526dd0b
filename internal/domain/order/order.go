package order

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// ReservedLine is one successfully reserved listing line, carrying the
// unit price captured at the moment stock was decremented. The order is
// built from these snapshots, never from live listing data.
type ReservedLine struct {
	ListingID    uuid.UUID
	SellerID     uuid.UUID
	ProductTitle string
	Quantity     int
	UnitPrice    valueobject.Money
}

// Item represents a line item in an order. Items are fixed at creation;
// the price is the reservation-time snapshot and is never re-read from
// the listing.
type Item struct {
	ID           uuid.UUID
	OrderID      uuid.UUID
	ListingID    uuid.UUID
	SellerID     uuid.UUID
	ProductTitle string
	Quantity     int
	UnitPrice    decimal.Decimal
	Amount       decimal.Decimal // Quantity * UnitPrice
	CreatedAt    time.Time
}

func newItem(orderID uuid.UUID, line ReservedLine) (*Item, error) {
	if line.ListingID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_LISTING", "Listing ID cannot be empty")
	}
	if line.Quantity <= 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if !line.UnitPrice.IsPositive() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Unit price must be positive")
	}

	return &Item{
		ID:           uuid.New(),
		OrderID:      orderID,
		ListingID:    line.ListingID,
		SellerID:     line.SellerID,
		ProductTitle: line.ProductTitle,
		Quantity:     line.Quantity,
		UnitPrice:    line.UnitPrice.Amount(),
		Amount:       line.UnitPrice.Amount().Mul(decimal.NewFromInt(int64(line.Quantity))),
		CreatedAt:    time.Now(),
	}, nil
}

// UnitPriceMoney returns the unit price as Money value object
func (i *Item) UnitPriceMoney() valueobject.Money {
	return valueobject.NewMoneyEUR(i.UnitPrice)
}

// AmountMoney returns the line amount as Money value object
func (i *Item) AmountMoney() valueobject.Money {
	return valueobject.NewMoneyEUR(i.Amount)
}

// Order represents a buyer's order aggregate root.
// Total is computed once from the reserved lines at construction; it is
// never recomputed or settable afterwards.
type Order struct {
	shared.BaseAggregateRoot
	BuyerID         uuid.UUID
	Items           []Item
	Total           decimal.Decimal
	Status          Status
	PaymentIntentID string
	PaymentStatus   string
	ShippingAddress string
	PaidAt          *time.Time
	ShippedAt       *time.Time
	CompletedAt     *time.Time
	CancelledAt     *time.Time
}

// NewOrder builds an order from reserved lines. The reservation engine
// is the only caller; it guarantees the lines were decremented from
// stock in the same transaction that persists the order.
func NewOrder(buyerID uuid.UUID, lines []ReservedLine) (*Order, error) {
	if buyerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_BUYER", "Buyer ID cannot be empty")
	}
	if len(lines) == 0 {
		return nil, shared.NewDomainError("NO_ITEMS", "Order must contain at least one item")
	}

	o := &Order{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		BuyerID:           buyerID,
		Items:             make([]Item, 0, len(lines)),
		Total:             decimal.Zero,
		Status:            StatusCreated,
	}

	total := decimal.Zero
	for _, line := range lines {
		item, err := newItem(o.ID, line)
		if err != nil {
			return nil, err
		}
		o.Items = append(o.Items, *item)
		total = total.Add(item.Amount)
	}
	o.Total = total

	o.AddDomainEvent(NewOrderCreatedEvent(o))

	return o, nil
}

// Transition moves the order to the target status if both the state
// machine and the actor's role allow it. On failure the order is left
// untouched.
func (o *Order) Transition(target Status, actor Actor) error {
	if !target.IsValid() {
		return shared.NewDomainError("INVALID_STATUS", fmt.Sprintf("Unknown order status %q", target))
	}
	if !o.Status.CanTransitionTo(target) {
		return shared.ErrIllegalTransition
	}
	if !CanActorTransition(o.Status, target, actor) {
		return shared.ErrForbidden
	}

	from := o.Status
	now := time.Now()
	o.Status = target
	switch target {
	case StatusPaid:
		o.PaidAt = &now
	case StatusShipped:
		o.ShippedAt = &now
	case StatusCompleted:
		o.CompletedAt = &now
	case StatusCancelled:
		o.CancelledAt = &now
	}
	o.UpdatedAt = now
	o.IncrementVersion()

	o.AddDomainEvent(NewOrderStatusChangedEvent(o, from, target, actor))

	return nil
}

// MarkPaid records the payment confirmation. Cancellation does not
// restock reserved quantities; see the status transition rules.
func (o *Order) MarkPaid(paymentIntentID string) error {
	if err := o.Transition(StatusPaid, ActorSystem); err != nil {
		return err
	}
	o.PaymentIntentID = paymentIntentID
	o.PaymentStatus = "succeeded"
	return nil
}

// AttachPaymentIntent records the created payment intent without
// changing the order status. Intent creation is not authoritative for
// payment state.
func (o *Order) AttachPaymentIntent(paymentIntentID string) {
	o.PaymentIntentID = paymentIntentID
	if o.PaymentStatus == "" {
		o.PaymentStatus = "pending"
	}
	o.UpdatedAt = time.Now()
}

// MaxShippingAddressLength matches the shipping_address column width.
const MaxShippingAddressLength = 500

// SetShippingAddress sets the delivery address
func (o *Order) SetShippingAddress(address string) error {
	if len(address) > MaxShippingAddressLength {
		return shared.NewDomainError("INVALID_ADDRESS", "Shipping address exceeds maximum length")
	}
	o.ShippingAddress = address
	o.UpdatedAt = time.Now()
	return nil
}

// TotalMoney returns the order total as Money value object
func (o *Order) TotalMoney() valueobject.Money {
	return valueobject.NewMoneyEUR(o.Total)
}

// ItemCount returns the number of line items
func (o *Order) ItemCount() int {
	return len(o.Items)
}

// IsTerminal returns true if the order is COMPLETED or CANCELLED
func (o *Order) IsTerminal() bool {
	return o.Status.IsTerminal()
}

// BelongsTo returns true if the order was placed by the given buyer
func (o *Order) BelongsTo(buyerID uuid.UUID) bool {
	return o.BuyerID == buyerID
}

// ContainsListing returns true if any item references the listing
func (o *Order) ContainsListing(listingID uuid.UUID) bool {
	for idx := range o.Items {
		if o.Items[idx].ListingID == listingID {
			return true
		}
	}
	return false
}

// SoldBy returns true if any item in the order belongs to the seller
func (o *Order) SoldBy(sellerID uuid.UUID) bool {
	for idx := range o.Items {
		if o.Items[idx].SellerID == sellerID {
			return true
		}
	}
	return false
}
