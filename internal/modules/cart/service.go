package cart

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sokoplace/soko-backend/internal/modules/identity"
)

// ProductSource supplies the product snapshot taken when a line is added.
// Implemented by the catalog service.
type ProductSource interface {
	// ActiveProduct returns the product only when its status is active.
	ActiveProduct(ctx context.Context, productID uuid.UUID) (*ProductSnapshot, error)
}

// ProductSnapshot is the subset of product fields a cart line copies.
type ProductSnapshot struct {
	ID       uuid.UUID
	VendorID uuid.UUID
	Name     string
	Price    decimal.Decimal
	Image    string
}

// Service defines cart business logic. Every operation is scoped by the
// resolved request identity: a cart row's owner key always equals the
// caller's, so one identity can never see another's cart.
type Service interface {
	// GetCart returns the caller's cart, creating it on first use.
	GetCart(ctx context.Context, id identity.Identity) (*Cart, error)

	// AddItem appends a product (or adds onto an existing line). Quantity
	// must be a positive integer.
	AddItem(ctx context.Context, id identity.Identity, req AddItemRequest) (*Cart, error)

	// RemoveItem deletes a line. Removing an absent line is a no-op.
	RemoveItem(ctx context.Context, id identity.Identity, itemID string) (*Cart, error)

	// UpdateQuantity sets a line's quantity; zero or negative removes the
	// line. An absent line is NOT_FOUND.
	UpdateQuantity(ctx context.Context, id identity.Identity, itemID string, quantity int) (*Cart, error)

	// Clear empties the caller's cart.
	Clear(ctx context.Context, id identity.Identity) error

	// MergeGuestToUser folds a guest cart into a user cart, idempotently.
	MergeGuestToUser(ctx context.Context, guestID string, userID uuid.UUID) (*Cart, error)
}
