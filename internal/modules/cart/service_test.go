package cart

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sokoplace/soko-backend/internal/httpx"
	"github.com/sokoplace/soko-backend/internal/modules/identity"
	"github.com/sokoplace/soko-backend/internal/policy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRepo mirrors the postgres repository's semantics in memory, including
// the upsert-sum and merge-then-delete behaviour.
type fakeRepo struct {
	carts map[string]*Cart
}

func newFakeRepo() *fakeRepo { return &fakeRepo{carts: map[string]*Cart{}} }

func ownerKey(ownerType OwnerType, ownerID string) string {
	return string(ownerType) + "/" + ownerID
}

func (f *fakeRepo) GetOrCreate(_ context.Context, ownerType OwnerType, ownerID string) (*Cart, error) {
	key := ownerKey(ownerType, ownerID)
	if c, ok := f.carts[key]; ok {
		return c, nil
	}
	c := &Cart{ID: uuid.New(), OwnerType: ownerType, OwnerID: ownerID}
	f.carts[key] = c
	return c, nil
}

func (f *fakeRepo) findByID(cartID uuid.UUID) *Cart {
	for _, c := range f.carts {
		if c.ID == cartID {
			return c
		}
	}
	return nil
}

func (f *fakeRepo) UpsertItem(_ context.Context, cartID uuid.UUID, item *Item) error {
	c := f.findByID(cartID)
	if c == nil {
		return fmt.Errorf("cart %s not found", cartID)
	}
	for _, existing := range c.Items {
		if existing.ProductID == item.ProductID {
			existing.Quantity += item.Quantity
			return nil
		}
	}
	item.CartID = cartID
	c.Items = append(c.Items, item)
	return nil
}

func (f *fakeRepo) RemoveItem(_ context.Context, cartID, itemID uuid.UUID) (bool, error) {
	c := f.findByID(cartID)
	if c == nil {
		return false, nil
	}
	for i, it := range c.Items {
		if it.ID == itemID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRepo) SetQuantity(_ context.Context, cartID, itemID uuid.UUID, quantity int) (bool, error) {
	c := f.findByID(cartID)
	if c == nil {
		return false, nil
	}
	for _, it := range c.Items {
		if it.ID == itemID {
			it.Quantity = quantity
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRepo) Clear(_ context.Context, cartID uuid.UUID) error {
	if c := f.findByID(cartID); c != nil {
		c.Items = nil
	}
	return nil
}

func (f *fakeRepo) MergeGuestToUser(ctx context.Context, guestID string, userID string) (*Cart, error) {
	userCart, _ := f.GetOrCreate(ctx, OwnerUser, userID)

	guestKey := ownerKey(OwnerGuest, guestID)
	guestCart, ok := f.carts[guestKey]
	if !ok {
		return userCart, nil
	}

	for _, gi := range guestCart.Items {
		merged := false
		for _, ui := range userCart.Items {
			if ui.ProductID == gi.ProductID {
				ui.Quantity += gi.Quantity
				merged = true
				break
			}
		}
		if !merged {
			moved := *gi
			moved.CartID = userCart.ID
			userCart.Items = append(userCart.Items, &moved)
		}
	}
	delete(f.carts, guestKey)
	return userCart, nil
}

type fakeProducts struct {
	byID map[uuid.UUID]*ProductSnapshot
}

func (f *fakeProducts) ActiveProduct(_ context.Context, productID uuid.UUID) (*ProductSnapshot, error) {
	p, ok := f.byID[productID]
	if !ok {
		return nil, httpx.Validation("PRODUCT_NOT_AVAILABLE", "product is not available")
	}
	return p, nil
}

func newTestService() (Service, *fakeRepo, *fakeProducts) {
	repo := newFakeRepo()
	products := &fakeProducts{byID: map[uuid.UUID]*ProductSnapshot{}}
	return NewService(repo, products), repo, products
}

func (f *fakeProducts) add(price string) *ProductSnapshot {
	p := &ProductSnapshot{
		ID:       uuid.New(),
		VendorID: uuid.New(),
		Name:     "product-" + uuid.NewString()[:8],
		Price:    decimal.RequireFromString(price),
	}
	f.byID[p.ID] = p
	return p
}

func guestIdentity(id string) identity.Identity {
	return identity.Identity{Kind: identity.KindGuest, GuestID: id}
}

func userIdentity(userID uuid.UUID) identity.Identity {
	return identity.Identity{Kind: identity.KindUser, UserID: userID, Role: policy.RoleBuyer}
}

func TestAddItemValidatesQuantity(t *testing.T) {
	svc, _, products := newTestService()
	p := products.add("100.00")

	for _, qty := range []int{0, -1} {
		_, err := svc.AddItem(context.Background(), guestIdentity("guest_a"), AddItemRequest{
			ProductID: p.ID.String(),
			Quantity:  qty,
		})
		require.Error(t, err)
		appErr := httpx.AsError(err)
		require.NotNil(t, appErr)
		assert.Equal(t, "INVALID_QUANTITY", appErr.Code)
	}
}

func TestAddItemSumsQuantityForSameProduct(t *testing.T) {
	svc, _, products := newTestService()
	p := products.add("250.00")
	id := guestIdentity("guest_a")

	_, err := svc.AddItem(context.Background(), id, AddItemRequest{ProductID: p.ID.String(), Quantity: 2})
	require.NoError(t, err)
	c, err := svc.AddItem(context.Background(), id, AddItemRequest{ProductID: p.ID.String(), Quantity: 3})
	require.NoError(t, err)

	require.Len(t, c.Items, 1)
	assert.Equal(t, 5, c.Items[0].Quantity)
}

func TestCartOwnershipIsolation(t *testing.T) {
	svc, _, products := newTestService()
	p := products.add("10.00")
	ctx := context.Background()

	g1 := guestIdentity("guest_one")
	g2 := guestIdentity("guest_two")
	u1 := userIdentity(uuid.New())

	_, err := svc.AddItem(ctx, g1, AddItemRequest{ProductID: p.ID.String(), Quantity: 1})
	require.NoError(t, err)

	c2, err := svc.GetCart(ctx, g2)
	require.NoError(t, err)
	assert.Empty(t, c2.Items, "guest two must not see guest one's items")

	cu, err := svc.GetCart(ctx, u1)
	require.NoError(t, err)
	assert.Empty(t, cu.Items, "user must not see guest items before merging")
}

func TestRemoveItemIsIdempotent(t *testing.T) {
	svc, _, products := newTestService()
	p := products.add("10.00")
	id := guestIdentity("guest_a")
	ctx := context.Background()

	c, err := svc.AddItem(ctx, id, AddItemRequest{ProductID: p.ID.String(), Quantity: 1})
	require.NoError(t, err)
	itemID := c.Items[0].ID.String()

	c, err = svc.RemoveItem(ctx, id, itemID)
	require.NoError(t, err)
	assert.Empty(t, c.Items)

	// Removing again, or removing garbage, is a no-op.
	c, err = svc.RemoveItem(ctx, id, itemID)
	require.NoError(t, err)
	assert.Empty(t, c.Items)

	c, err = svc.RemoveItem(ctx, id, "not-a-uuid")
	require.NoError(t, err)
	assert.Empty(t, c.Items)
}

func TestUpdateQuantity(t *testing.T) {
	svc, _, products := newTestService()
	p := products.add("10.00")
	id := guestIdentity("guest_a")
	ctx := context.Background()

	c, err := svc.AddItem(ctx, id, AddItemRequest{ProductID: p.ID.String(), Quantity: 2})
	require.NoError(t, err)
	itemID := c.Items[0].ID.String()

	c, err = svc.UpdateQuantity(ctx, id, itemID, 7)
	require.NoError(t, err)
	require.Len(t, c.Items, 1)
	assert.Equal(t, 7, c.Items[0].Quantity)

	// Zero removes the line.
	c, err = svc.UpdateQuantity(ctx, id, itemID, 0)
	require.NoError(t, err)
	assert.Empty(t, c.Items)

	// A missing line is NOT_FOUND.
	_, err = svc.UpdateQuantity(ctx, id, itemID, 3)
	require.Error(t, err)
	appErr := httpx.AsError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, "NOT_FOUND", appErr.Code)
}

func TestMergeSumsQuantities(t *testing.T) {
	svc, _, products := newTestService()
	shared := products.add("100.00")
	guestOnly := products.add("50.00")
	ctx := context.Background()

	userID := uuid.New()
	user := userIdentity(userID)
	guest := guestIdentity("guest_m")

	_, err := svc.AddItem(ctx, user, AddItemRequest{ProductID: shared.ID.String(), Quantity: 2})
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, guest, AddItemRequest{ProductID: shared.ID.String(), Quantity: 3})
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, guest, AddItemRequest{ProductID: guestOnly.ID.String(), Quantity: 1})
	require.NoError(t, err)

	merged, err := svc.MergeGuestToUser(ctx, "guest_m", userID)
	require.NoError(t, err)

	require.Len(t, merged.Items, 2)
	byProduct := map[uuid.UUID]int{}
	for _, it := range merged.Items {
		byProduct[it.ProductID] = it.Quantity
	}
	assert.Equal(t, 5, byProduct[shared.ID], "quantities for the shared product must sum")
	assert.Equal(t, 1, byProduct[guestOnly.ID])
}

func TestMergeIsIdempotent(t *testing.T) {
	svc, _, products := newTestService()
	p := products.add("100.00")
	ctx := context.Background()

	userID := uuid.New()
	guest := guestIdentity("guest_m")

	_, err := svc.AddItem(ctx, guest, AddItemRequest{ProductID: p.ID.String(), Quantity: 3})
	require.NoError(t, err)

	first, err := svc.MergeGuestToUser(ctx, "guest_m", userID)
	require.NoError(t, err)
	require.Len(t, first.Items, 1)
	assert.Equal(t, 3, first.Items[0].Quantity)

	// The guest cart is gone; a retry must change nothing and not error.
	second, err := svc.MergeGuestToUser(ctx, "guest_m", userID)
	require.NoError(t, err)
	require.Len(t, second.Items, 1)
	assert.Equal(t, 3, second.Items[0].Quantity)
}

func TestMergeIntoEmptyUserCart(t *testing.T) {
	svc, _, products := newTestService()
	p := products.add("40.00")
	ctx := context.Background()

	guest := guestIdentity("guest_n")
	_, err := svc.AddItem(ctx, guest, AddItemRequest{ProductID: p.ID.String(), Quantity: 4})
	require.NoError(t, err)

	merged, err := svc.MergeGuestToUser(ctx, "guest_n", uuid.New())
	require.NoError(t, err)
	require.Len(t, merged.Items, 1)
	assert.Equal(t, 4, merged.Items[0].Quantity)

	// The guest identity now resolves to a fresh empty cart.
	guestCart, err := svc.GetCart(ctx, guest)
	require.NoError(t, err)
	assert.Empty(t, guestCart.Items)
}
