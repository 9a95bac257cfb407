package order

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/sokoplace/soko-backend/internal/database"
)

type postgresRepo struct {
	db    *sql.DB
	stock StockLedger
}

func NewPostgresRepository(db *sql.DB, stock StockLedger) Repository {
	return &postgresRepo{db: db, stock: stock}
}

func (r *postgresRepo) Checkout(ctx context.Context, o *Order, cartID uuid.UUID) error {
	return database.WithRetry(ctx, r.db, database.SerializableTxOptions(), func(tx *sql.Tx) error {
		// Lock every product first so stock checks and decrements see a
		// stable row. NOWAIT surfaces lock contention as a retryable error
		// instead of queueing behind a slow transaction.
		for _, it := range o.Items {
			var status string
			err := tx.QueryRowContext(ctx,
				`SELECT status FROM products WHERE id=$1 FOR UPDATE NOWAIT`,
				it.ProductID).Scan(&status)
			if err == sql.ErrNoRows {
				return fmt.Errorf("product %s: %w", it.ProductID, ErrProductInactive)
			}
			if err != nil {
				return fmt.Errorf("lock product: %w", err)
			}
			if status != "active" {
				return fmt.Errorf("product %s: %w", it.ProductID, ErrProductInactive)
			}
			if err := r.stock.DecrementStock(ctx, tx, it.ProductID, it.Quantity); err != nil {
				return err
			}
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO orders (id, buyer_id, status, payment_status, payment_method,
				subtotal, discount_total, shipping_fee, tax, total,
				coupon_code, shipping_address)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
			o.ID, o.BuyerID, o.Status, o.PaymentStatus, o.PaymentMethod,
			o.Subtotal, o.DiscountTotal, o.ShippingFee, o.Tax, o.Total,
			nullIfEmpty(o.CouponCode), []byte(o.ShippingAddress)); err != nil {
			return fmt.Errorf("insert order: %w", err)
		}

		for _, it := range o.Items {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO order_items (id, order_id, product_id, vendor_id, name,
					unit_price, quantity, fulfillment_status)
				VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
				it.ID, o.ID, it.ProductID, it.VendorID, it.Name,
				it.UnitPrice, it.Quantity, it.FulfillmentStatus); err != nil {
				return fmt.Errorf("insert order item: %w", err)
			}
		}

		if _, err := tx.ExecContext(ctx,
			`DELETE FROM cart_items WHERE cart_id=$1`, cartID); err != nil {
			return fmt.Errorf("clear cart: %w", err)
		}
		_, err := tx.ExecContext(ctx,
			`UPDATE carts SET updated_at=$1 WHERE id=$2`, time.Now(), cartID)
		return err
	})
}

func (r *postgresRepo) GetOrderByID(ctx context.Context, id uuid.UUID) (*Order, error) {
	o, err := r.scanOrder(r.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id=$1`, id))
	if err != nil {
		return nil, err
	}
	if err := r.attachItems(ctx, []*Order{o}); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *postgresRepo) ListByBuyer(ctx context.Context, buyerID uuid.UUID) ([]*Order, error) {
	return r.list(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE buyer_id=$1 ORDER BY created_at DESC`, buyerID)
}

func (r *postgresRepo) ListByVendor(ctx context.Context, vendorID uuid.UUID) ([]*Order, error) {
	return r.list(ctx, `
		SELECT `+orderColumns+` FROM orders
		WHERE id IN (SELECT DISTINCT order_id FROM order_items WHERE vendor_id=$1)
		ORDER BY created_at DESC`, vendorID)
}

func (r *postgresRepo) ListAll(ctx context.Context, status Status) ([]*Order, error) {
	if status == "" {
		return r.list(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC`)
	}
	return r.list(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE status=$1 ORDER BY created_at DESC`, status)
}

func (r *postgresRepo) CancelWithRestore(ctx context.Context, orderID uuid.UUID) ([]RestoredLine, error) {
	var restored []RestoredLine

	err := database.WithTransaction(ctx, r.db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		// The conditional flip is the idempotency guard: only the one
		// transaction that wins it restores stock.
		res, err := tx.ExecContext(ctx, `
			UPDATE orders SET status=$1, updated_at=$2
			WHERE id=$3 AND status IN ($4, $5)`,
			StatusCancelled, time.Now(), orderID, StatusPendingPayment, StatusProcessing)
		if err != nil {
			return fmt.Errorf("cancel order: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			var current Status
			err := tx.QueryRowContext(ctx,
				`SELECT status FROM orders WHERE id=$1`, orderID).Scan(&current)
			if err == sql.ErrNoRows {
				return sql.ErrNoRows
			}
			if err != nil {
				return err
			}
			return ErrOrderClosed
		}

		rows, err := tx.QueryContext(ctx,
			`SELECT product_id, quantity FROM order_items WHERE order_id=$1`, orderID)
		if err != nil {
			return fmt.Errorf("list order items: %w", err)
		}
		defer rows.Close()
		var lines []RestoredLine
		for rows.Next() {
			var l RestoredLine
			if err := rows.Scan(&l.ProductID, &l.Quantity); err != nil {
				return err
			}
			lines = append(lines, l)
		}
		if err := rows.Err(); err != nil {
			return err
		}

		restored = restored[:0]
		for _, l := range lines {
			ok, err := r.stock.RestoreStock(ctx, tx, l.ProductID, l.Quantity)
			if err != nil {
				return err
			}
			if ok {
				restored = append(restored, l)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return restored, nil
}

func (r *postgresRepo) FulfillItem(ctx context.Context, itemID, vendorID uuid.UUID) (*Item, error) {
	now := time.Now()
	res, err := r.db.ExecContext(ctx, `
		UPDATE order_items oi SET fulfillment_status=$1, fulfilled_at=$2
		FROM orders o
		WHERE oi.id=$3 AND oi.order_id=o.id
		  AND oi.vendor_id=$4
		  AND oi.fulfillment_status=$5
		  AND o.status <> $6`,
		FulfillmentFulfilled, now, itemID, vendorID, FulfillmentPending, StatusCancelled)
	if err != nil {
		return nil, fmt.Errorf("fulfill order item: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, r.classifyFulfillFailure(ctx, itemID, vendorID)
	}

	it := &Item{}
	err = r.db.QueryRowContext(ctx, `
		SELECT id, order_id, product_id, vendor_id, name, unit_price, quantity,
			fulfillment_status, fulfilled_at
		FROM order_items WHERE id=$1`, itemID).Scan(
		&it.ID, &it.OrderID, &it.ProductID, &it.VendorID, &it.Name,
		&it.UnitPrice, &it.Quantity, &it.FulfillmentStatus, &it.FulfilledAt)
	if err != nil {
		return nil, err
	}
	return it, nil
}

// classifyFulfillFailure re-reads the row to tell the caller which guard of
// the conditional update failed.
func (r *postgresRepo) classifyFulfillFailure(ctx context.Context, itemID, vendorID uuid.UUID) error {
	var (
		rowVendor   uuid.UUID
		fulfillment FulfillmentStatus
		orderStatus Status
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT oi.vendor_id, oi.fulfillment_status, o.status
		FROM order_items oi JOIN orders o ON o.id = oi.order_id
		WHERE oi.id=$1`, itemID).Scan(&rowVendor, &fulfillment, &orderStatus)
	if err == sql.ErrNoRows {
		return sql.ErrNoRows
	}
	if err != nil {
		return err
	}
	switch {
	case rowVendor != vendorID:
		return ErrItemNotVendors
	case orderStatus == StatusCancelled:
		return ErrOrderCancelled
	case fulfillment == FulfillmentFulfilled:
		return ErrItemFulfilled
	}
	return ErrStatusConflict
}

func (r *postgresRepo) UpdateStatus(ctx context.Context, orderID uuid.UUID, from, to Status, trackingNumber string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE orders SET status=$1,
			tracking_number = COALESCE(NULLIF($2, ''), tracking_number),
			updated_at=$3
		WHERE id=$4 AND status=$5`,
		to, trackingNumber, time.Now(), orderID, from)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrStatusConflict
	}
	return nil
}

func (r *postgresRepo) ConfirmPayment(ctx context.Context, orderID uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE orders SET status=$1, payment_status=$2, updated_at=$3
		WHERE id=$4 AND status=$5`,
		StatusProcessing, PaymentPaid, time.Now(), orderID, StatusPendingPayment)
	if err != nil {
		return fmt.Errorf("confirm payment: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	var paymentStatus PaymentStatus
	err = r.db.QueryRowContext(ctx,
		`SELECT payment_status FROM orders WHERE id=$1`, orderID).Scan(&paymentStatus)
	if err == sql.ErrNoRows {
		return sql.ErrNoRows
	}
	if err != nil {
		return err
	}
	// A retried webhook for an already-paid order is acknowledged, not
	// an error.
	if paymentStatus == PaymentPaid {
		return nil
	}
	return ErrStatusConflict
}

// ── helpers ──────────────────────────────────────────────────────────────────

const orderColumns = `id, buyer_id, status, payment_status, payment_method,
	subtotal, discount_total, shipping_fee, tax, total,
	coupon_code, shipping_address, tracking_number, created_at, updated_at`

type rowScanner interface{ Scan(dest ...interface{}) error }

func (r *postgresRepo) scanOrder(row rowScanner) (*Order, error) {
	o := &Order{}
	var (
		paymentMethod  sql.NullString
		couponCode     sql.NullString
		trackingNumber sql.NullString
		address        []byte
	)
	err := row.Scan(&o.ID, &o.BuyerID, &o.Status, &o.PaymentStatus, &paymentMethod,
		&o.Subtotal, &o.DiscountTotal, &o.ShippingFee, &o.Tax, &o.Total,
		&couponCode, &address, &trackingNumber, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	o.PaymentMethod = paymentMethod.String
	o.CouponCode = couponCode.String
	o.TrackingNumber = trackingNumber.String
	o.ShippingAddress = address
	return o, nil
}

func (r *postgresRepo) list(ctx context.Context, query string, args ...interface{}) ([]*Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []*Order
	for rows.Next() {
		o, err := r.scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.attachItems(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *postgresRepo) attachItems(ctx context.Context, orders []*Order) error {
	if len(orders) == 0 {
		return nil
	}
	byID := make(map[uuid.UUID]*Order, len(orders))
	ids := make([]uuid.UUID, 0, len(orders))
	for _, o := range orders {
		byID[o.ID] = o
		ids = append(ids, o.ID)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, order_id, product_id, vendor_id, name, unit_price, quantity,
			fulfillment_status, fulfilled_at
		FROM order_items WHERE order_id = ANY($1::uuid[]) ORDER BY name ASC`,
		uuidArray(ids))
	if err != nil {
		return fmt.Errorf("list order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		it := &Item{}
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.VendorID,
			&it.Name, &it.UnitPrice, &it.Quantity, &it.FulfillmentStatus, &it.FulfilledAt); err != nil {
			return err
		}
		byID[it.OrderID].Items = append(byID[it.OrderID].Items, it)
	}
	return rows.Err()
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func uuidArray(ids []uuid.UUID) interface{} {
	ss := make([]string, len(ids))
	for i, id := range ids {
		ss[i] = id.String()
	}
	return pq.Array(ss)
}
