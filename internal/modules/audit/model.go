package audit

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Outcome classifies what the audited action resulted in.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeBlocked Outcome = "blocked"
	OutcomeDenied  Outcome = "denied"
)

// Well-known actions.
const (
	ActionPublishBlocked     = "PRODUCT_PUBLISH_BLOCKED"
	ActionPublishRejected    = "PRODUCT_PUBLISH_REJECTED"
	ActionVendorReviewed     = "VENDOR_VERIFICATION_CHANGED"
	ActionOrderCancelled     = "ORDER_CANCELLED"
	ActionOrderItemFulfilled = "ORDER_ITEM_FULFILLED"
	ActionPaymentConfirmed   = "ORDER_PAYMENT_CONFIRMED"
	ActionUserRoleChanged    = "USER_ROLE_CHANGED"
	ActionUserDeactivated    = "USER_DEACTIVATED"
)

// Event is one append-only audit record.
type Event struct {
	ID           uuid.UUID       `json:"id"`
	ActorID      *uuid.UUID      `json:"actor_id,omitempty"` // nil for system/webhook actors
	ActorRole    string          `json:"actor_role"`
	Action       string          `json:"action"`
	ResourceType string          `json:"resource_type"`
	ResourceID   string          `json:"resource_id"`
	Outcome      Outcome         `json:"outcome"`
	Detail       json.RawMessage `json:"detail,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}
