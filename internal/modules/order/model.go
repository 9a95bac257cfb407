package order

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status is the order lifecycle state.
type Status string

const (
	StatusPendingPayment Status = "pending_payment"
	StatusProcessing     Status = "processing"
	StatusFulfilled      Status = "fulfilled"
	StatusCancelled      Status = "cancelled"
)

// CanonicalStatus maps input (including legacy aliases still sent by older
// clients) to a canonical status.
func CanonicalStatus(s string) (Status, bool) {
	switch s {
	case string(StatusPendingPayment), "pending":
		return StatusPendingPayment, true
	case string(StatusProcessing), "confirmed", "shipped":
		return StatusProcessing, true
	case string(StatusFulfilled), "delivered":
		return StatusFulfilled, true
	case string(StatusCancelled):
		return StatusCancelled, true
	}
	return "", false
}

// validTransitions is the order FSM. Cancellation is reachable from any
// non-terminal state; fulfilled and cancelled are terminal.
var validTransitions = map[Status][]Status{
	StatusPendingPayment: {StatusProcessing, StatusCancelled},
	StatusProcessing:     {StatusFulfilled, StatusCancelled},
	StatusFulfilled:      {},
	StatusCancelled:      {},
}

// CanTransition reports whether from → to is a legal status change.
func CanTransition(from, to Status) bool {
	for _, next := range validTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// PaymentStatus tracks the money side independently of fulfillment.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentFailed  PaymentStatus = "failed"
)

// FulfillmentStatus is per order line, flipped exactly once by the owning
// vendor.
type FulfillmentStatus string

const (
	FulfillmentPending   FulfillmentStatus = "pending"
	FulfillmentFulfilled FulfillmentStatus = "fulfilled"
)

// Repository sentinels; the service maps them onto the HTTP error taxonomy.
var (
	ErrOrderClosed     = errors.New("order is cancelled or fulfilled")
	ErrItemNotVendors  = errors.New("item belongs to another vendor")
	ErrItemFulfilled   = errors.New("item already fulfilled")
	ErrOrderCancelled  = errors.New("parent order is cancelled")
	ErrStatusConflict  = errors.New("order status changed concurrently")
	ErrProductInactive = errors.New("product is not active")
)

// Order is the purchase aggregate. Totals are computed once at checkout and
// satisfy total = subtotal - discount_total + shipping_fee + tax.
type Order struct {
	ID              uuid.UUID       `json:"id"`
	BuyerID         uuid.UUID       `json:"buyer_id"`
	Status          Status          `json:"status"`
	PaymentStatus   PaymentStatus   `json:"payment_status"`
	PaymentMethod   string          `json:"payment_method,omitempty"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	DiscountTotal   decimal.Decimal `json:"discount_total"`
	ShippingFee     decimal.Decimal `json:"shipping_fee"`
	Tax             decimal.Decimal `json:"tax"`
	Total           decimal.Decimal `json:"total"`
	CouponCode      string          `json:"coupon_code,omitempty"`
	ShippingAddress json.RawMessage `json:"shipping_address,omitempty"`
	TrackingNumber  string          `json:"tracking_number,omitempty"`
	Items           []*Item         `json:"items"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// Item is one order line, snapshotted from the cart at checkout.
type Item struct {
	ID                uuid.UUID         `json:"id"`
	OrderID           uuid.UUID         `json:"order_id"`
	ProductID         uuid.UUID         `json:"product_id"`
	VendorID          uuid.UUID         `json:"vendor_id"`
	Name              string            `json:"name"`
	UnitPrice         decimal.Decimal   `json:"unit_price"`
	Quantity          int               `json:"quantity"`
	FulfillmentStatus FulfillmentStatus `json:"fulfillment_status"`
	FulfilledAt       *time.Time        `json:"fulfilled_at,omitempty"`
}

// LineTotal is unit price times quantity.
func (i *Item) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// RestoredLine reports one stock restoration performed by a cancel.
type RestoredLine struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
}

// CheckoutRequest is the payload for POST /api/orders.
type CheckoutRequest struct {
	ShippingAddress json.RawMessage `json:"shipping_address"`
	PaymentMethod   string          `json:"payment_method"`
	CouponCode      string          `json:"coupon_code,omitempty"`
}

// UpdateStatusRequest is the admin PATCH payload. Legacy status names are
// accepted and canonicalized.
type UpdateStatusRequest struct {
	Status         string `json:"status"`
	TrackingNumber string `json:"tracking_number,omitempty"`
}

// CancelResult is returned by an admin cancel.
type CancelResult struct {
	Order    *Order         `json:"order"`
	Restored []RestoredLine `json:"restored"`
}
