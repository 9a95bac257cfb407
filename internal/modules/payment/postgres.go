package payment

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sokoplace/soko-backend/internal/database"
)

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

const transactionColumns = `id, order_id, provider, reference, amount_kobo, email,
	status, authorization_url, idempotency_key, created_at, updated_at`

func (r *postgresRepo) CreateTransaction(ctx context.Context, t *Transaction) (*Transaction, error) {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO payment_transactions (id, order_id, provider, reference, amount_kobo,
			email, status, authorization_url, idempotency_key)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		t.ID, t.OrderID, t.Provider, t.Reference, t.AmountKobo,
		t.Email, t.Status, t.AuthorizationURL, nullIfEmpty(t.IdempotencyKey))
	if err != nil {
		if database.IsUniqueViolation(err) && t.IdempotencyKey != "" {
			return r.GetByIdempotencyKey(ctx, t.IdempotencyKey)
		}
		return nil, fmt.Errorf("insert payment transaction: %w", err)
	}
	return t, nil
}

func (r *postgresRepo) GetByReference(ctx context.Context, reference string) (*Transaction, error) {
	return r.scanOne(r.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM payment_transactions WHERE reference=$1`, reference))
}

func (r *postgresRepo) GetByIdempotencyKey(ctx context.Context, key string) (*Transaction, error) {
	return r.scanOne(r.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM payment_transactions WHERE idempotency_key=$1`, key))
}

func (r *postgresRepo) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]*Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+transactionColumns+` FROM payment_transactions
		WHERE order_id=$1 ORDER BY created_at DESC`, orderID)
	if err != nil {
		return nil, fmt.Errorf("list payment transactions: %w", err)
	}
	defer rows.Close()

	var out []*Transaction
	for rows.Next() {
		t, err := r.scanOne(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *postgresRepo) MarkStatus(ctx context.Context, reference string, status TransactionStatus) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE payment_transactions SET status=$1, updated_at=$2 WHERE reference=$3`,
		status, time.Now(), reference)
	if err != nil {
		return fmt.Errorf("update payment transaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

type rowScanner interface{ Scan(dest ...interface{}) error }

func (r *postgresRepo) scanOne(row rowScanner) (*Transaction, error) {
	t := &Transaction{}
	var (
		authURL        sql.NullString
		idempotencyKey sql.NullString
	)
	err := row.Scan(&t.ID, &t.OrderID, &t.Provider, &t.Reference, &t.AmountKobo,
		&t.Email, &t.Status, &authURL, &idempotencyKey, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	t.AuthorizationURL = authURL.String
	t.IdempotencyKey = idempotencyKey.String
	return t, nil
}
