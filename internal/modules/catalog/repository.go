package catalog

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
)

// Repository defines data access for products and the stock ledger.
type Repository interface {
	CreateProduct(ctx context.Context, p *Product) error
	GetProductByID(ctx context.Context, id uuid.UUID) (*Product, error)
	UpdateProduct(ctx context.Context, p *Product) error

	// ListProducts filters by vendor and/or status; empty values mean "any".
	ListProducts(ctx context.Context, vendorID uuid.UUID, status Status) ([]*Product, error)

	// DecrementStock atomically reduces a tracked product's quantity. It is a
	// no-op for untracked products and returns database.ErrInsufficientStock
	// when the guard fails. When tx is non-nil the update joins that
	// transaction (the checkout path).
	DecrementStock(ctx context.Context, tx *sql.Tx, productID uuid.UUID, qty int) error

	// RestoreStock atomically adds quantity back for a tracked product,
	// inside the caller's transaction when tx is non-nil. Reports false for
	// untracked products, which are left untouched.
	RestoreStock(ctx context.Context, tx *sql.Tx, productID uuid.UUID, qty int) (bool, error)
}
