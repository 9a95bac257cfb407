package payment

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Provider identifies a payment gateway.
type Provider string

const (
	ProviderPaystack Provider = "paystack"
)

// TransactionStatus is the provider-side money state of one attempt.
type TransactionStatus string

const (
	TransactionPending TransactionStatus = "pending"
	TransactionSuccess TransactionStatus = "success"
	TransactionFailed  TransactionStatus = "failed"
)

// Transaction is one payment attempt against an order. The idempotency key
// makes repeated initialize calls return the same row instead of a new
// provider charge.
type Transaction struct {
	ID               uuid.UUID         `json:"id"`
	OrderID          uuid.UUID         `json:"order_id"`
	Provider         Provider          `json:"provider"`
	Reference        string            `json:"reference"`
	AmountKobo       int64             `json:"amount_kobo"`
	Email            string            `json:"email"`
	Status           TransactionStatus `json:"status"`
	AuthorizationURL string            `json:"authorization_url,omitempty"`
	IdempotencyKey   string            `json:"-"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

// InitializeRequest is the payload for POST /api/payments/initialize.
type InitializeRequest struct {
	OrderID        string `json:"order_id"`
	IdempotencyKey string `json:"idempotency_key,omitempty"`
}

// KoboAmount converts a naira decimal to kobo, the integer unit Paystack
// charges in.
func KoboAmount(naira decimal.Decimal) int64 {
	return naira.Mul(decimal.NewFromInt(100)).IntPart()
}

// WebhookEvent is the envelope Paystack posts to the webhook endpoint.
type WebhookEvent struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// ChargeData is the payload of a charge.* event.
type ChargeData struct {
	Reference  string `json:"reference"`
	Status     string `json:"status"`
	AmountKobo int64  `json:"amount"`
}
