package order

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sokoplace/soko-backend/internal/database"
	"github.com/sokoplace/soko-backend/internal/httpx"
	"github.com/sokoplace/soko-backend/internal/modules/audit"
	"github.com/sokoplace/soko-backend/internal/modules/cart"
	"github.com/sokoplace/soko-backend/internal/modules/identity"
	"github.com/sokoplace/soko-backend/internal/policy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeOrderRepo mirrors the conditional-update semantics of the postgres
// implementation: the status flip is the idempotency guard for cancel, and
// fulfillment flips a line at most once.
type fakeOrderRepo struct {
	orders map[uuid.UUID]*Order
	stock  map[uuid.UUID]int
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: map[uuid.UUID]*Order{}, stock: map[uuid.UUID]int{}}
}

func (f *fakeOrderRepo) Checkout(_ context.Context, o *Order, _ uuid.UUID) error {
	for _, it := range o.Items {
		if f.stock[it.ProductID] < it.Quantity {
			return database.ErrInsufficientStock
		}
	}
	for _, it := range o.Items {
		f.stock[it.ProductID] -= it.Quantity
	}
	f.orders[o.ID] = o
	return nil
}

func (f *fakeOrderRepo) GetOrderByID(_ context.Context, id uuid.UUID) (*Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return o, nil
}

func (f *fakeOrderRepo) ListByBuyer(_ context.Context, buyerID uuid.UUID) ([]*Order, error) {
	var out []*Order
	for _, o := range f.orders {
		if o.BuyerID == buyerID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeOrderRepo) ListByVendor(_ context.Context, vendorID uuid.UUID) ([]*Order, error) {
	var out []*Order
	for _, o := range f.orders {
		for _, it := range o.Items {
			if it.VendorID == vendorID {
				out = append(out, o)
				break
			}
		}
	}
	return out, nil
}

func (f *fakeOrderRepo) ListAll(_ context.Context, status Status) ([]*Order, error) {
	var out []*Order
	for _, o := range f.orders {
		if status == "" || o.Status == status {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeOrderRepo) CancelWithRestore(_ context.Context, orderID uuid.UUID) ([]RestoredLine, error) {
	o, ok := f.orders[orderID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	if o.Status != StatusPendingPayment && o.Status != StatusProcessing {
		return nil, ErrOrderClosed
	}
	o.Status = StatusCancelled
	var restored []RestoredLine
	for _, it := range o.Items {
		f.stock[it.ProductID] += it.Quantity
		restored = append(restored, RestoredLine{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	return restored, nil
}

func (f *fakeOrderRepo) FulfillItem(_ context.Context, itemID, vendorID uuid.UUID) (*Item, error) {
	for _, o := range f.orders {
		for _, it := range o.Items {
			if it.ID != itemID {
				continue
			}
			switch {
			case it.VendorID != vendorID:
				return nil, ErrItemNotVendors
			case o.Status == StatusCancelled:
				return nil, ErrOrderCancelled
			case it.FulfillmentStatus == FulfillmentFulfilled:
				return nil, ErrItemFulfilled
			}
			now := time.Now()
			it.FulfillmentStatus = FulfillmentFulfilled
			it.FulfilledAt = &now
			return it, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeOrderRepo) UpdateStatus(_ context.Context, orderID uuid.UUID, from, to Status, trackingNumber string) error {
	o, ok := f.orders[orderID]
	if !ok || o.Status != from {
		return ErrStatusConflict
	}
	o.Status = to
	if trackingNumber != "" {
		o.TrackingNumber = trackingNumber
	}
	return nil
}

func (f *fakeOrderRepo) ConfirmPayment(_ context.Context, orderID uuid.UUID) error {
	o, ok := f.orders[orderID]
	if !ok {
		return sql.ErrNoRows
	}
	if o.Status == StatusPendingPayment {
		o.Status = StatusProcessing
		o.PaymentStatus = PaymentPaid
		return nil
	}
	if o.PaymentStatus == PaymentPaid {
		return nil
	}
	return ErrStatusConflict
}

type fakeCartService struct{ cart *cart.Cart }

func (f *fakeCartService) GetCart(_ context.Context, _ identity.Identity) (*cart.Cart, error) {
	return f.cart, nil
}

func (f *fakeCartService) AddItem(_ context.Context, _ identity.Identity, _ cart.AddItemRequest) (*cart.Cart, error) {
	return f.cart, nil
}

func (f *fakeCartService) RemoveItem(_ context.Context, _ identity.Identity, _ string) (*cart.Cart, error) {
	return f.cart, nil
}

func (f *fakeCartService) UpdateQuantity(_ context.Context, _ identity.Identity, _ string, _ int) (*cart.Cart, error) {
	return f.cart, nil
}

func (f *fakeCartService) Clear(_ context.Context, _ identity.Identity) error { return nil }

func (f *fakeCartService) MergeGuestToUser(_ context.Context, _ string, _ uuid.UUID) (*cart.Cart, error) {
	return f.cart, nil
}

type fakeVendorSource struct{ byUser map[uuid.UUID]uuid.UUID }

func (f *fakeVendorSource) VendorForUser(_ context.Context, userID uuid.UUID) (uuid.UUID, error) {
	id, ok := f.byUser[userID]
	if !ok {
		return uuid.Nil, sql.ErrNoRows
	}
	return id, nil
}

type recordedEvents struct{ events []audit.Event }

func (r *recordedEvents) Record(_ context.Context, e audit.Event) {
	r.events = append(r.events, e)
}

type orderFixture struct {
	svc        Service
	repo       *fakeOrderRepo
	rec        *recordedEvents
	buyer      identity.Identity
	vendorUser identity.Identity
	admin      identity.Identity
	vendorID   uuid.UUID
	productA   uuid.UUID
	productB   uuid.UUID
}

func setupOrderTest(t *testing.T) *orderFixture {
	t.Helper()
	repo := newFakeOrderRepo()
	rec := &recordedEvents{}

	buyerID := uuid.New()
	vendorUserID := uuid.New()
	vendorID := uuid.New()
	productA := uuid.New()
	productB := uuid.New()
	repo.stock[productA] = 10
	repo.stock[productB] = 5

	carts := &fakeCartService{cart: &cart.Cart{
		ID: uuid.New(),
		Items: []*cart.Item{
			{ID: uuid.New(), ProductID: productA, VendorID: vendorID, Name: "Ankara Tote", UnitPrice: decimal.RequireFromString("4500.00"), Quantity: 2},
			{ID: uuid.New(), ProductID: productB, VendorID: vendorID, Name: "Beaded Necklace", UnitPrice: decimal.RequireFromString("2000.00"), Quantity: 1},
		},
	}}
	vendors := &fakeVendorSource{byUser: map[uuid.UUID]uuid.UUID{vendorUserID: vendorID}}

	pricing := Pricing{
		ShippingFlatFee: decimal.RequireFromString("1500.00"),
		TaxRate:         decimal.RequireFromString("0.075"),
	}
	svc := NewService(repo, carts, vendors, rec, pricing)

	return &orderFixture{
		svc:        svc,
		repo:       repo,
		rec:        rec,
		buyer:      identity.Identity{Kind: identity.KindUser, UserID: buyerID, Role: policy.RoleBuyer},
		vendorUser: identity.Identity{Kind: identity.KindUser, UserID: vendorUserID, Role: policy.RoleVendor},
		admin:      identity.Identity{Kind: identity.KindUser, UserID: uuid.New(), Role: policy.RoleAdmin},
		vendorID:   vendorID,
		productA:   productA,
		productB:   productB,
	}
}

func checkoutReq() CheckoutRequest {
	return CheckoutRequest{
		ShippingAddress: json.RawMessage(`{"street":"14 Allen Avenue","city":"Ikeja","state":"Lagos"}`),
		PaymentMethod:   "paystack",
	}
}

func TestCheckoutComputesTotals(t *testing.T) {
	fx := setupOrderTest(t)

	o, err := fx.svc.Checkout(context.Background(), fx.buyer, checkoutReq())
	require.NoError(t, err)

	// 2×4500 + 1×2000 = 11000; tax 7.5% = 825; shipping 1500.
	assert.True(t, o.Subtotal.Equal(decimal.RequireFromString("11000.00")), o.Subtotal.String())
	assert.True(t, o.Tax.Equal(decimal.RequireFromString("825.00")), o.Tax.String())
	assert.True(t, o.Total.Equal(decimal.RequireFromString("13325.00")), o.Total.String())
	assert.Equal(t, StatusPendingPayment, o.Status)
	assert.Equal(t, PaymentPending, o.PaymentStatus)
	for _, it := range o.Items {
		assert.Equal(t, FulfillmentPending, it.FulfillmentStatus)
	}
	assert.Equal(t, 8, fx.repo.stock[fx.productA])
	assert.Equal(t, 4, fx.repo.stock[fx.productB])
}

func TestCheckoutEmptyCart(t *testing.T) {
	fx := setupOrderTest(t)
	fx.repo.stock[fx.productA] = 10
	svc := NewService(fx.repo, &fakeCartService{cart: &cart.Cart{ID: uuid.New()}}, &fakeVendorSource{}, fx.rec, Pricing{})

	_, err := svc.Checkout(context.Background(), fx.buyer, checkoutReq())
	appErr := httpx.AsError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, "EMPTY_CART", appErr.Code)
}

func TestCheckoutInsufficientStock(t *testing.T) {
	fx := setupOrderTest(t)
	fx.repo.stock[fx.productB] = 0

	_, err := fx.svc.Checkout(context.Background(), fx.buyer, checkoutReq())
	appErr := httpx.AsError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, "INSUFFICIENT_STOCK", appErr.Code)
}

func TestCancelRestoresStockExactly(t *testing.T) {
	fx := setupOrderTest(t)
	o, err := fx.svc.Checkout(context.Background(), fx.buyer, checkoutReq())
	require.NoError(t, err)
	require.Equal(t, 8, fx.repo.stock[fx.productA])

	res, err := fx.svc.Cancel(context.Background(), fx.admin, o.ID.String())
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, res.Order.Status)
	assert.Len(t, res.Restored, 2)
	assert.Equal(t, 10, fx.repo.stock[fx.productA])
	assert.Equal(t, 5, fx.repo.stock[fx.productB])

	var actions []string
	for _, e := range fx.rec.events {
		actions = append(actions, e.Action)
	}
	assert.Contains(t, actions, audit.ActionOrderCancelled)
}

func TestDoubleCancelRestoresOnce(t *testing.T) {
	fx := setupOrderTest(t)
	o, err := fx.svc.Checkout(context.Background(), fx.buyer, checkoutReq())
	require.NoError(t, err)

	_, err = fx.svc.Cancel(context.Background(), fx.admin, o.ID.String())
	require.NoError(t, err)

	_, err = fx.svc.Cancel(context.Background(), fx.admin, o.ID.String())
	appErr := httpx.AsError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, "ORDER_ALREADY_CLOSED", appErr.Code)
	assert.Equal(t, 10, fx.repo.stock[fx.productA], "stock must not be restored twice")
}

func TestCancelRequiresAdmin(t *testing.T) {
	fx := setupOrderTest(t)
	o, err := fx.svc.Checkout(context.Background(), fx.buyer, checkoutReq())
	require.NoError(t, err)

	_, err = fx.svc.Cancel(context.Background(), fx.buyer, o.ID.String())
	appErr := httpx.AsError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, "FORBIDDEN", appErr.Code)
}

func TestFulfillItemExactlyOnce(t *testing.T) {
	fx := setupOrderTest(t)
	o, err := fx.svc.Checkout(context.Background(), fx.buyer, checkoutReq())
	require.NoError(t, err)
	require.NoError(t, fx.svc.ConfirmPayment(context.Background(), o.ID, "ref-1"))
	itemID := o.Items[0].ID.String()

	it, err := fx.svc.FulfillItem(context.Background(), fx.vendorUser, itemID)
	require.NoError(t, err)
	assert.Equal(t, FulfillmentFulfilled, it.FulfillmentStatus)
	assert.NotNil(t, it.FulfilledAt)

	_, err = fx.svc.FulfillItem(context.Background(), fx.vendorUser, itemID)
	appErr := httpx.AsError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, "ITEM_ALREADY_FULFILLED", appErr.Code)
}

func TestFulfillItemWrongVendor(t *testing.T) {
	fx := setupOrderTest(t)
	o, err := fx.svc.Checkout(context.Background(), fx.buyer, checkoutReq())
	require.NoError(t, err)

	otherVendorUser := identity.Identity{Kind: identity.KindUser, UserID: uuid.New(), Role: policy.RoleVendor}
	fx.repo.orders[o.ID].Items[0].VendorID = uuid.New()
	vendors := &fakeVendorSource{byUser: map[uuid.UUID]uuid.UUID{otherVendorUser.UserID: fx.vendorID}}
	svc := NewService(fx.repo, &fakeCartService{cart: &cart.Cart{}}, vendors, fx.rec, Pricing{})

	_, err = svc.FulfillItem(context.Background(), otherVendorUser, o.Items[0].ID.String())
	appErr := httpx.AsError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, "NOT_ITEM_VENDOR", appErr.Code)
}

func TestFulfillItemOnCancelledOrder(t *testing.T) {
	fx := setupOrderTest(t)
	o, err := fx.svc.Checkout(context.Background(), fx.buyer, checkoutReq())
	require.NoError(t, err)
	_, err = fx.svc.Cancel(context.Background(), fx.admin, o.ID.String())
	require.NoError(t, err)

	_, err = fx.svc.FulfillItem(context.Background(), fx.vendorUser, o.Items[0].ID.String())
	appErr := httpx.AsError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, "ORDER_CANCELLED", appErr.Code)
}

func TestBuyerCannotSeeOthersOrder(t *testing.T) {
	fx := setupOrderTest(t)
	o, err := fx.svc.Checkout(context.Background(), fx.buyer, checkoutReq())
	require.NoError(t, err)

	stranger := identity.Identity{Kind: identity.KindUser, UserID: uuid.New(), Role: policy.RoleBuyer}
	_, err = fx.svc.GetOrder(context.Background(), stranger, o.ID.String())
	appErr := httpx.AsError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, "NOT_FOUND", appErr.Code, "existence must be hidden from non-owners")
}

func TestVendorSeesOrderContainingTheirLine(t *testing.T) {
	fx := setupOrderTest(t)
	o, err := fx.svc.Checkout(context.Background(), fx.buyer, checkoutReq())
	require.NoError(t, err)

	got, err := fx.svc.GetOrder(context.Background(), fx.vendorUser, o.ID.String())
	require.NoError(t, err)
	assert.Equal(t, o.ID, got.ID)
	assert.Len(t, got.Items, 2, "vendor sees the full item list")

	orders, err := fx.svc.ListOrders(context.Background(), fx.vendorUser, "")
	require.NoError(t, err)
	assert.Len(t, orders, 1)
}

func TestConfirmPaymentIsIdempotent(t *testing.T) {
	fx := setupOrderTest(t)
	o, err := fx.svc.Checkout(context.Background(), fx.buyer, checkoutReq())
	require.NoError(t, err)

	require.NoError(t, fx.svc.ConfirmPayment(context.Background(), o.ID, "ref-1"))
	got, err := fx.svc.GetOrder(context.Background(), fx.admin, o.ID.String())
	require.NoError(t, err)
	assert.Equal(t, StatusProcessing, got.Status)
	assert.Equal(t, PaymentPaid, got.PaymentStatus)

	require.NoError(t, fx.svc.ConfirmPayment(context.Background(), o.ID, "ref-1"))
}

func TestUpdateStatusRejectsIllegalTransition(t *testing.T) {
	fx := setupOrderTest(t)
	o, err := fx.svc.Checkout(context.Background(), fx.buyer, checkoutReq())
	require.NoError(t, err)

	// fulfilled is not reachable from pending_payment.
	_, err = fx.svc.UpdateStatus(context.Background(), fx.admin, o.ID.String(), UpdateStatusRequest{Status: "fulfilled"})
	appErr := httpx.AsError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, "INVALID_TRANSITION", appErr.Code)
}

func TestUpdateStatusAcceptsLegacyAlias(t *testing.T) {
	fx := setupOrderTest(t)
	o, err := fx.svc.Checkout(context.Background(), fx.buyer, checkoutReq())
	require.NoError(t, err)
	require.NoError(t, fx.svc.ConfirmPayment(context.Background(), o.ID, "ref-1"))

	got, err := fx.svc.UpdateStatus(context.Background(), fx.admin, o.ID.String(), UpdateStatusRequest{
		Status:         "delivered",
		TrackingNumber: "NG-TRACK-001",
	})
	require.NoError(t, err)
	assert.Equal(t, StatusFulfilled, got.Status)
	assert.Equal(t, "NG-TRACK-001", got.TrackingNumber)
}

func TestCanonicalStatusMapping(t *testing.T) {
	tests := []struct {
		in   string
		want Status
		ok   bool
	}{
		{"pending", StatusPendingPayment, true},
		{"pending_payment", StatusPendingPayment, true},
		{"confirmed", StatusProcessing, true},
		{"shipped", StatusProcessing, true},
		{"delivered", StatusFulfilled, true},
		{"cancelled", StatusCancelled, true},
		{"refunded", "", false},
	}
	for _, tc := range tests {
		got, ok := CanonicalStatus(tc.in)
		assert.Equal(t, tc.ok, ok, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}
