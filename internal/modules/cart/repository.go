package cart

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines data access for carts. Every method is scoped by the
// cart's owner key; callers never address another identity's cart.
type Repository interface {
	// GetOrCreate returns the cart for the owner, creating an empty one if
	// absent.
	GetOrCreate(ctx context.Context, ownerType OwnerType, ownerID string) (*Cart, error)

	// UpsertItem appends the item, or adds its quantity onto an existing line
	// for the same product.
	UpsertItem(ctx context.Context, cartID uuid.UUID, item *Item) error

	// RemoveItem deletes a line, reporting whether it existed.
	RemoveItem(ctx context.Context, cartID, itemID uuid.UUID) (bool, error)

	// SetQuantity updates a line's quantity, reporting whether it existed.
	SetQuantity(ctx context.Context, cartID, itemID uuid.UUID, quantity int) (bool, error)

	// Clear removes every line from the cart.
	Clear(ctx context.Context, cartID uuid.UUID) error

	// MergeGuestToUser folds the guest cart into the user cart in one
	// transaction: matching products sum quantities, others move across, and
	// the guest cart is deleted. When no guest cart exists the user cart is
	// returned unchanged, so retries are no-ops.
	MergeGuestToUser(ctx context.Context, guestID string, userID string) (*Cart, error)
}
