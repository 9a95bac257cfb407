package order

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
)

// StockLedger is the slice of the catalog repository the order module drives
// from inside its own transactions.
type StockLedger interface {
	DecrementStock(ctx context.Context, tx *sql.Tx, productID uuid.UUID, qty int) error
	RestoreStock(ctx context.Context, tx *sql.Tx, productID uuid.UUID, qty int) (bool, error)
}

// Repository defines order data access. The multi-row operations (checkout,
// cancel, fulfill) are transactional in the implementation so their
// exactly-once guarantees hold under concurrency.
type Repository interface {
	// Checkout persists the order and its lines, decrements tracked stock,
	// and empties the source cart, all in one serializable transaction.
	Checkout(ctx context.Context, o *Order, cartID uuid.UUID) error

	GetOrderByID(ctx context.Context, id uuid.UUID) (*Order, error)
	ListByBuyer(ctx context.Context, buyerID uuid.UUID) ([]*Order, error)
	ListByVendor(ctx context.Context, vendorID uuid.UUID) ([]*Order, error)
	ListAll(ctx context.Context, status Status) ([]*Order, error)

	// CancelWithRestore flips the order to cancelled and restores tracked
	// stock for every line, in one transaction. The returned lines cover
	// only products whose stock was actually restored; untracked lines are
	// omitted. ErrOrderClosed when the order is already cancelled or
	// fulfilled.
	CancelWithRestore(ctx context.Context, orderID uuid.UUID) ([]RestoredLine, error)

	// FulfillItem marks one line fulfilled exactly once. Sentinel errors
	// distinguish missing item, wrong vendor, repeat call, and cancelled
	// parent.
	FulfillItem(ctx context.Context, itemID, vendorID uuid.UUID) (*Item, error)

	// UpdateStatus applies from → to conditionally; ErrStatusConflict when
	// the stored status is no longer from.
	UpdateStatus(ctx context.Context, orderID uuid.UUID, from, to Status, trackingNumber string) error

	// ConfirmPayment moves pending_payment → processing and marks the order
	// paid. Already-paid orders return nil so webhook retries are no-ops.
	ConfirmPayment(ctx context.Context, orderID uuid.UUID) error
}
