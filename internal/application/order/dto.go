package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/order"
	"github.com/shopspring/decimal"
)

// TransitionRequest represents a request to change an order's status
type TransitionRequest struct {
	Target string `json:"status" form:"status" binding:"required"`
}

// ListFilter represents filter options for order lists
type ListFilter struct {
	Status   *order.Status `form:"status"`
	Page     int           `form:"page"`
	PageSize int           `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// CreatePaymentIntentRequest asks the payment gateway for a client secret.
// Amount is in minor currency units (cents), matching the provider API.
type CreatePaymentIntentRequest struct {
	Amount  int64      `json:"amount" binding:"required,min=1"`
	OrderID *uuid.UUID `json:"order_id"`
}

// PaymentIntentResponse carries what the frontend needs to confirm payment
type PaymentIntentResponse struct {
	ClientSecret    string `json:"clientSecret"`
	PaymentIntentID string `json:"paymentIntentId"`
}

// ItemResponse represents an order line in API responses
type ItemResponse struct {
	ID           uuid.UUID       `json:"id"`
	ListingID    uuid.UUID       `json:"listing_id"`
	ProductTitle string          `json:"product_title"`
	Quantity     int             `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	Amount       decimal.Decimal `json:"amount"`
}

// Response represents an order in API responses
type Response struct {
	ID              uuid.UUID       `json:"id"`
	BuyerID         uuid.UUID       `json:"buyer_id"`
	Items           []ItemResponse  `json:"items"`
	Total           decimal.Decimal `json:"total"`
	Status          string          `json:"status"`
	PaymentIntentID string          `json:"payment_intent_id,omitempty"`
	PaymentStatus   string          `json:"payment_status,omitempty"`
	ShippingAddress string          `json:"shipping_address,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// ToResponse converts an order aggregate to its API representation
func ToResponse(o *order.Order) Response {
	items := make([]ItemResponse, len(o.Items))
	for i, item := range o.Items {
		items[i] = ItemResponse{
			ID:           item.ID,
			ListingID:    item.ListingID,
			ProductTitle: item.ProductTitle,
			Quantity:     item.Quantity,
			UnitPrice:    item.UnitPrice,
			Amount:       item.Amount,
		}
	}

	return Response{
		ID:              o.ID,
		BuyerID:         o.BuyerID,
		Items:           items,
		Total:           o.Total,
		Status:          o.Status.String(),
		PaymentIntentID: o.PaymentIntentID,
		PaymentStatus:   o.PaymentStatus,
		ShippingAddress: o.ShippingAddress,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}

// ToResponseList converts a slice of orders
func ToResponseList(orders []order.Order) []Response {
	out := make([]Response, len(orders))
	for i := range orders {
		out[i] = ToResponse(&orders[i])
	}
	return out
}
