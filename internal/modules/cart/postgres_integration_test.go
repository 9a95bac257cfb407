package cart

import (
	"context"
	"database/sql"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sokoplace/soko-backend/internal/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		// testcontainers keeps a reaper connection alive for the process.
		goleak.IgnoreTopFunction("github.com/testcontainers/testcontainers-go.(*Reaper).connect.func1"),
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
	)
}

// seedProduct inserts the user → vendor → product chain cart lines reference.
func seedProduct(t *testing.T, db *sql.DB, price string) uuid.UUID {
	t.Helper()
	ctx := context.Background()

	userID := uuid.New()
	_, err := db.ExecContext(ctx, `
		INSERT INTO users (id, email, password_hash, first_name, last_name)
		VALUES ($1,$2,'x',$3,$4)`,
		userID, gofakeit.Email(), gofakeit.FirstName(), gofakeit.LastName())
	require.NoError(t, err)

	vendorID := uuid.New()
	_, err = db.ExecContext(ctx, `
		INSERT INTO vendors (id, owner_user_id, business_name, verification_status)
		VALUES ($1,$2,$3,'verified')`,
		vendorID, userID, gofakeit.Company())
	require.NoError(t, err)

	productID := uuid.New()
	_, err = db.ExecContext(ctx, `
		INSERT INTO products (id, vendor_id, name, price, quantity, status)
		VALUES ($1,$2,$3,$4,100,'active')`,
		productID, vendorID, gofakeit.ProductName(), price)
	require.NoError(t, err)
	return productID
}

func newLine(productID uuid.UUID, qty int, price string) *Item {
	return &Item{
		ID:        uuid.New(),
		ProductID: productID,
		VendorID:  uuid.New(),
		Name:      gofakeit.ProductName(),
		UnitPrice: decimal.RequireFromString(price),
		Quantity:  qty,
	}
}

func TestPostgresGetOrCreateIsIdempotent(t *testing.T) {
	db := testdb.New(t, "../../../migrations")
	repo := NewPostgresRepository(db)
	ctx := context.Background()

	first, err := repo.GetOrCreate(ctx, OwnerGuest, "guest_abc")
	require.NoError(t, err)
	second, err := repo.GetOrCreate(ctx, OwnerGuest, "guest_abc")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}

func TestPostgresUpsertSumsQuantities(t *testing.T) {
	db := testdb.New(t, "../../../migrations")
	repo := NewPostgresRepository(db)
	ctx := context.Background()

	productID := seedProduct(t, db, "4500.00")
	c, err := repo.GetOrCreate(ctx, OwnerGuest, "guest_abc")
	require.NoError(t, err)

	require.NoError(t, repo.UpsertItem(ctx, c.ID, newLine(productID, 2, "4500.00")))
	require.NoError(t, repo.UpsertItem(ctx, c.ID, newLine(productID, 3, "4500.00")))

	c, err = repo.GetOrCreate(ctx, OwnerGuest, "guest_abc")
	require.NoError(t, err)
	require.Len(t, c.Items, 1)
	assert.Equal(t, 5, c.Items[0].Quantity)
}

func TestPostgresMergeGuestToUser(t *testing.T) {
	db := testdb.New(t, "../../../migrations")
	repo := NewPostgresRepository(db)
	ctx := context.Background()

	shared := seedProduct(t, db, "4500.00")
	guestOnly := seedProduct(t, db, "2000.00")
	userID := uuid.New().String()

	guestCart, err := repo.GetOrCreate(ctx, OwnerGuest, "guest_merge")
	require.NoError(t, err)
	require.NoError(t, repo.UpsertItem(ctx, guestCart.ID, newLine(shared, 2, "4500.00")))
	require.NoError(t, repo.UpsertItem(ctx, guestCart.ID, newLine(guestOnly, 1, "2000.00")))

	userCart, err := repo.GetOrCreate(ctx, OwnerUser, userID)
	require.NoError(t, err)
	require.NoError(t, repo.UpsertItem(ctx, userCart.ID, newLine(shared, 3, "4500.00")))

	merged, err := repo.MergeGuestToUser(ctx, "guest_merge", userID)
	require.NoError(t, err)
	require.Len(t, merged.Items, 2)

	quantities := map[uuid.UUID]int{}
	for _, it := range merged.Items {
		quantities[it.ProductID] = it.Quantity
	}
	want := map[uuid.UUID]int{shared: 5, guestOnly: 1}
	if diff := cmp.Diff(want, quantities); diff != "" {
		t.Errorf("merged quantities mismatch (-want +got):\n%s", diff)
	}

	// The guest cart is gone, so a retry changes nothing.
	again, err := repo.MergeGuestToUser(ctx, "guest_merge", userID)
	require.NoError(t, err)
	assert.Equal(t, merged.ID, again.ID)
	require.Len(t, again.Items, 2)
	assert.Equal(t, 5, quantityFor(again, shared))

	var count int
	require.NoError(t, db.QueryRowContext(ctx,
		`SELECT count(*) FROM carts WHERE owner_type='guest' AND owner_id='guest_merge'`).Scan(&count))
	assert.Zero(t, count)
}

func quantityFor(c *Cart, productID uuid.UUID) int {
	for _, it := range c.Items {
		if it.ProductID == productID {
			return it.Quantity
		}
	}
	return 0
}

func TestPostgresRemoveAndSetQuantity(t *testing.T) {
	db := testdb.New(t, "../../../migrations")
	repo := NewPostgresRepository(db)
	ctx := context.Background()

	productID := seedProduct(t, db, "4500.00")
	c, err := repo.GetOrCreate(ctx, OwnerGuest, "guest_rm")
	require.NoError(t, err)
	line := newLine(productID, 2, "4500.00")
	require.NoError(t, repo.UpsertItem(ctx, c.ID, line))

	ok, err := repo.SetQuantity(ctx, c.ID, line.ID, 7)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.RemoveItem(ctx, c.ID, line.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.RemoveItem(ctx, c.ID, line.ID)
	require.NoError(t, err)
	assert.False(t, ok, "removing an absent line reports false")
}
