package order

import (
	"context"

	"github.com/google/uuid"
	"github.com/sokoplace/soko-backend/internal/modules/identity"
)

// VendorSource resolves the acting user's vendor for fulfillment and the
// vendor order view. Implemented by the vendor service.
type VendorSource interface {
	VendorForUser(ctx context.Context, userID uuid.UUID) (uuid.UUID, error)
}

// Service defines order business logic. Every read and mutation is scoped by
// the actor: buyers see only their own orders (anything else is NOT_FOUND,
// hiding existence), vendors see orders containing their lines, admins see
// everything.
type Service interface {
	// Checkout converts the buyer's cart into a pending_payment order,
	// decrementing stock and clearing the cart atomically.
	Checkout(ctx context.Context, actor identity.Identity, req CheckoutRequest) (*Order, error)

	GetOrder(ctx context.Context, actor identity.Identity, orderID string) (*Order, error)
	ListOrders(ctx context.Context, actor identity.Identity, status string) ([]*Order, error)

	// Cancel is admin-only; it restores tracked stock exactly once.
	Cancel(ctx context.Context, actor identity.Identity, orderID string) (*CancelResult, error)

	// FulfillItem marks one of the acting vendor's lines fulfilled.
	FulfillItem(ctx context.Context, actor identity.Identity, itemID string) (*Item, error)

	// UpdateStatus is the admin advance (processing → fulfilled etc).
	UpdateStatus(ctx context.Context, actor identity.Identity, orderID string, req UpdateStatusRequest) (*Order, error)

	// ConfirmPayment is called by the payment webhook, never by a handler
	// acting for a user.
	ConfirmPayment(ctx context.Context, orderID uuid.UUID, reference string) error
}
