package payment

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines payment transaction storage.
type Repository interface {
	// CreateTransaction inserts the row, or returns the existing row when
	// the idempotency key has been seen before.
	CreateTransaction(ctx context.Context, t *Transaction) (*Transaction, error)

	GetByReference(ctx context.Context, reference string) (*Transaction, error)
	GetByIdempotencyKey(ctx context.Context, key string) (*Transaction, error)
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]*Transaction, error)

	// MarkStatus flips a transaction's status by reference.
	MarkStatus(ctx context.Context, reference string, status TransactionStatus) error
}
