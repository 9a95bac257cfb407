package cart

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

func (r *postgresRepo) GetOrCreate(ctx context.Context, ownerType OwnerType, ownerID string) (*Cart, error) {
	// The unique index on (owner_type, owner_id) makes the insert a no-op
	// when a concurrent request created the cart first.
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO carts (id, owner_type, owner_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (owner_type, owner_id) DO NOTHING`,
		uuid.New(), ownerType, ownerID)
	if err != nil {
		return nil, fmt.Errorf("create cart: %w", err)
	}
	return r.getByOwner(ctx, r.db, ownerType, ownerID)
}

func (r *postgresRepo) UpsertItem(ctx context.Context, cartID uuid.UUID, item *Item) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO cart_items (id, cart_id, product_id, vendor_id, name, unit_price, quantity, image)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (cart_id, product_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity`,
		item.ID, cartID, item.ProductID, item.VendorID, item.Name, item.UnitPrice, item.Quantity, item.Image)
	if err != nil {
		return fmt.Errorf("upsert cart item: %w", err)
	}
	return r.touch(ctx, cartID)
}

func (r *postgresRepo) RemoveItem(ctx context.Context, cartID, itemID uuid.UUID) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM cart_items WHERE cart_id=$1 AND id=$2`, cartID, itemID)
	if err != nil {
		return false, fmt.Errorf("delete cart item: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n > 0 {
		return true, r.touch(ctx, cartID)
	}
	return false, nil
}

func (r *postgresRepo) SetQuantity(ctx context.Context, cartID, itemID uuid.UUID, quantity int) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE cart_items SET quantity=$1 WHERE cart_id=$2 AND id=$3`,
		quantity, cartID, itemID)
	if err != nil {
		return false, fmt.Errorf("update cart item quantity: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n > 0 {
		return true, r.touch(ctx, cartID)
	}
	return false, nil
}

func (r *postgresRepo) Clear(ctx context.Context, cartID uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id=$1`, cartID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return r.touch(ctx, cartID)
}

func (r *postgresRepo) MergeGuestToUser(ctx context.Context, guestID string, userID string) (*Cart, error) {
	var merged *Cart

	err := database.WithTransaction(ctx, r.db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		var guestCartID uuid.UUID
		err := tx.QueryRowContext(ctx,
			`SELECT id FROM carts WHERE owner_type=$1 AND owner_id=$2 FOR UPDATE`,
			OwnerGuest, guestID).Scan(&guestCartID)
		if err != nil && err != sql.ErrNoRows {
			return fmt.Errorf("lock guest cart: %w", err)
		}
		guestGone := err == sql.ErrNoRows

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO carts (id, owner_type, owner_id)
			VALUES ($1, $2, $3)
			ON CONFLICT (owner_type, owner_id) DO NOTHING`,
			uuid.New(), OwnerUser, userID); err != nil {
			return fmt.Errorf("create user cart: %w", err)
		}

		var userCartID uuid.UUID
		if err := tx.QueryRowContext(ctx,
			`SELECT id FROM carts WHERE owner_type=$1 AND owner_id=$2 FOR UPDATE`,
			OwnerUser, userID).Scan(&userCartID); err != nil {
			return fmt.Errorf("lock user cart: %w", err)
		}

		if !guestGone {
			// Matching products sum quantities; everything else moves across.
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO cart_items (id, cart_id, product_id, vendor_id, name, unit_price, quantity, image)
				SELECT gen_random_uuid(), $1, product_id, vendor_id, name, unit_price, quantity, image
				FROM cart_items WHERE cart_id=$2
				ON CONFLICT (cart_id, product_id)
				DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity`,
				userCartID, guestCartID); err != nil {
				return fmt.Errorf("merge cart items: %w", err)
			}

			// Items cascade with the cart row, making a retried merge a no-op.
			if _, err := tx.ExecContext(ctx, `DELETE FROM carts WHERE id=$1`, guestCartID); err != nil {
				return fmt.Errorf("delete guest cart: %w", err)
			}

			if _, err := tx.ExecContext(ctx,
				`UPDATE carts SET updated_at=$1 WHERE id=$2`, time.Now(), userCartID); err != nil {
				return err
			}
		}

		merged, err = r.getByOwner(ctx, tx, OwnerUser, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return merged, nil
}

// ── helpers ──────────────────────────────────────────────────────────────────

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

func (r *postgresRepo) getByOwner(ctx context.Context, q queryer, ownerType OwnerType, ownerID string) (*Cart, error) {
	c := &Cart{}
	err := q.QueryRowContext(ctx, `
		SELECT id, owner_type, owner_id, created_at, updated_at
		FROM carts WHERE owner_type=$1 AND owner_id=$2`,
		ownerType, ownerID).Scan(&c.ID, &c.OwnerType, &c.OwnerID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}

	rows, err := q.QueryContext(ctx, `
		SELECT id, cart_id, product_id, vendor_id, name, unit_price, quantity, image, created_at
		FROM cart_items WHERE cart_id=$1 ORDER BY created_at ASC`, c.ID)
	if err != nil {
		return nil, fmt.Errorf("list cart items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		it := &Item{}
		if err := rows.Scan(&it.ID, &it.CartID, &it.ProductID, &it.VendorID,
			&it.Name, &it.UnitPrice, &it.Quantity, &it.Image, &it.CreatedAt); err != nil {
			return nil, err
		}
		c.Items = append(c.Items, it)
	}
	return c, rows.Err()
}

func (r *postgresRepo) touch(ctx context.Context, cartID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `UPDATE carts SET updated_at=$1 WHERE id=$2`, time.Now(), cartID)
	return err
}
