package catalog

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

const productColumns = `id, vendor_id, name, description, price, compare_price, quantity,
	track_quantity, status, category_attributes, is_featured, image, created_at, updated_at`

func (r *postgresRepo) CreateProduct(ctx context.Context, p *Product) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO products
		  (id, vendor_id, name, description, price, compare_price, quantity,
		   track_quantity, status, category_attributes, is_featured, image)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		p.ID, p.VendorID, p.Name, p.Description, p.Price, p.ComparePrice, p.Quantity,
		p.TrackQuantity, p.Status, nullableJSON(p.CategoryAttributes), p.IsFeatured, p.Image)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (r *postgresRepo) GetProductByID(ctx context.Context, id uuid.UUID) (*Product, error) {
	return scanProduct(r.db.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE id=$1`, id))
}

func (r *postgresRepo) UpdateProduct(ctx context.Context, p *Product) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE products SET
		  name=$1, description=$2, price=$3, compare_price=$4, quantity=$5,
		  track_quantity=$6, status=$7, category_attributes=$8, is_featured=$9,
		  image=$10, updated_at=$11
		WHERE id=$12`,
		p.Name, p.Description, p.Price, p.ComparePrice, p.Quantity,
		p.TrackQuantity, p.Status, nullableJSON(p.CategoryAttributes), p.IsFeatured,
		p.Image, time.Now(), p.ID)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *postgresRepo) ListProducts(ctx context.Context, vendorID uuid.UUID, status Status) ([]*Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE 1=1`
	args := []interface{}{}
	if vendorID != uuid.Nil {
		args = append(args, vendorID)
		query += fmt.Sprintf(` AND vendor_id=$%d`, len(args))
	}
	if status != "" {
		args = append(args, status)
		query += fmt.Sprintf(` AND status=$%d`, len(args))
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []*Product
	for rows.Next() {
		p, err := scanProductRows(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// DecrementStock is the order-placement side of the ledger. The WHERE guard
// makes the decrement atomic: a concurrent checkout that would overdraw the
// stock affects zero rows instead of going negative. Untracked products
// match the guard but keep their stored quantity.
func (r *postgresRepo) DecrementStock(ctx context.Context, tx *sql.Tx, productID uuid.UUID, qty int) error {
	res, err := r.exec(ctx, tx, `
		UPDATE products
		SET quantity = CASE WHEN track_quantity THEN quantity - $1 ELSE quantity END,
		    updated_at = NOW()
		WHERE id = $2 AND (NOT track_quantity OR quantity >= $1)`,
		qty, productID)
	if err != nil {
		return fmt.Errorf("decrement stock: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return database.ErrInsufficientStock
	}
	return nil
}

// RestoreStock is the cancellation side of the ledger. Exactly-once
// restoration is guaranteed by the order status CAS in the calling
// transaction, not here. Returns whether a row was actually restored, so
// callers can report untracked lines as skipped.
func (r *postgresRepo) RestoreStock(ctx context.Context, tx *sql.Tx, productID uuid.UUID, qty int) (bool, error) {
	res, err := r.exec(ctx, tx, `
		UPDATE products
		SET quantity = quantity + $1, updated_at = NOW()
		WHERE id = $2 AND track_quantity`,
		qty, productID)
	if err != nil {
		return false, fmt.Errorf("restore stock: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ── helpers ──────────────────────────────────────────────────────────────────

func (r *postgresRepo) exec(ctx context.Context, tx *sql.Tx, query string, args ...interface{}) (sql.Result, error) {
	if tx != nil {
		return tx.ExecContext(ctx, query, args...)
	}
	return r.db.ExecContext(ctx, query, args...)
}

type rowScanner interface{ Scan(dest ...interface{}) error }

func scanProduct(row rowScanner) (*Product, error) {
	p := &Product{}
	var attrs []byte
	err := row.Scan(&p.ID, &p.VendorID, &p.Name, &p.Description, &p.Price, &p.ComparePrice,
		&p.Quantity, &p.TrackQuantity, &p.Status, &attrs, &p.IsFeatured, &p.Image,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.CategoryAttributes = attrs
	return p, nil
}

func scanProductRows(rows *sql.Rows) (*Product, error) {
	return scanProduct(rows)
}

func nullableJSON(b []byte) interface{} {
	if len(b) == 0 {
		return nil
	}
	return b
}
