package catalog

import (
	"context"
	"database/sql"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/sokoplace/soko-backend/internal/httpx"
	"github.com/sokoplace/soko-backend/internal/modules/audit"
	"github.com/sokoplace/soko-backend/internal/modules/identity"
	"github.com/sokoplace/soko-backend/internal/policy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProductRepo struct {
	products map[uuid.UUID]*Product
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{products: map[uuid.UUID]*Product{}}
}

func (f *fakeProductRepo) CreateProduct(_ context.Context, p *Product) error {
	f.products[p.ID] = p
	return nil
}

func (f *fakeProductRepo) GetProductByID(_ context.Context, id uuid.UUID) (*Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProductRepo) UpdateProduct(_ context.Context, p *Product) error {
	if _, ok := f.products[p.ID]; !ok {
		return sql.ErrNoRows
	}
	f.products[p.ID] = p
	return nil
}

func (f *fakeProductRepo) ListProducts(_ context.Context, vendorID uuid.UUID, status Status) ([]*Product, error) {
	var out []*Product
	for _, p := range f.products {
		if vendorID != uuid.Nil && p.VendorID != vendorID {
			continue
		}
		if status != "" && p.Status != status {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeProductRepo) DecrementStock(_ context.Context, _ *sql.Tx, productID uuid.UUID, qty int) error {
	p := f.products[productID]
	if p.TrackQuantity && p.Quantity < qty {
		return assert.AnError
	}
	if p.TrackQuantity {
		p.Quantity -= qty
	}
	return nil
}

func (f *fakeProductRepo) RestoreStock(_ context.Context, _ *sql.Tx, productID uuid.UUID, qty int) (bool, error) {
	if p := f.products[productID]; p.TrackQuantity {
		p.Quantity += qty
		return true, nil
	}
	return false, nil
}

type fakeVendorGate struct {
	vendorByUser map[uuid.UUID]uuid.UUID
	verified     map[uuid.UUID]bool
}

func (f *fakeVendorGate) VendorForUser(_ context.Context, userID uuid.UUID) (uuid.UUID, error) {
	id, ok := f.vendorByUser[userID]
	if !ok {
		return uuid.Nil, sql.ErrNoRows
	}
	return id, nil
}

func (f *fakeVendorGate) CanPublish(_ context.Context, vendorID uuid.UUID) (bool, error) {
	return f.verified[vendorID], nil
}

type recordedEvents struct{ events []audit.Event }

func (r *recordedEvents) Record(_ context.Context, e audit.Event) {
	r.events = append(r.events, e)
}

func (r *recordedEvents) actions() []string {
	var out []string
	for _, e := range r.events {
		out = append(out, e.Action)
	}
	return out
}

func setupGateTest(verified bool) (Service, *fakeVendorGate, *recordedEvents, identity.Identity, uuid.UUID) {
	repo := newFakeProductRepo()
	vendorUserID := uuid.New()
	vendorID := uuid.New()
	gate := &fakeVendorGate{
		vendorByUser: map[uuid.UUID]uuid.UUID{vendorUserID: vendorID},
		verified:     map[uuid.UUID]bool{vendorID: verified},
	}
	rec := &recordedEvents{}
	svc := NewService(repo, gate, rec)
	vendorActor := identity.Identity{Kind: identity.KindUser, UserID: vendorUserID, Role: policy.RoleVendor}
	return svc, gate, rec, vendorActor, vendorID
}

func TestUnverifiedVendorPublishIsCoercedToDraft(t *testing.T) {
	svc, _, rec, vendorActor, _ := setupGateTest(false)

	res, err := svc.CreateProduct(context.Background(), vendorActor, CreateProductRequest{
		Name:     "Handwoven Basket",
		Price:    "4500.00",
		Quantity: 10,
		Status:   "active",
	})
	require.NoError(t, err, "vendor save must never fail on verification")

	assert.True(t, res.Success)
	assert.Equal(t, StatusDraft, res.Product.Status)
	assert.NotEmpty(t, res.Message)
	assert.Contains(t, rec.actions(), audit.ActionPublishBlocked)
}

func TestUnverifiedVendorOmittedStatusIsCoerced(t *testing.T) {
	svc, _, _, vendorActor, _ := setupGateTest(false)

	res, err := svc.CreateProduct(context.Background(), vendorActor, CreateProductRequest{
		Name:     "Handwoven Basket",
		Price:    "4500.00",
		Quantity: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, StatusDraft, res.Product.Status)
}

func TestAdminPublishForUnverifiedVendorIsRejected(t *testing.T) {
	svc, _, rec, _, vendorID := setupGateTest(false)
	admin := identity.Identity{Kind: identity.KindUser, UserID: uuid.New(), Role: policy.RoleAdmin}

	_, err := svc.CreateProduct(context.Background(), admin, CreateProductRequest{
		VendorID: vendorID.String(),
		Name:     "Handwoven Basket",
		Price:    "4500.00",
		Quantity: 10,
		Status:   "active",
	})
	require.Error(t, err)

	appErr := httpx.AsError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, http.StatusForbidden, appErr.Status)
	assert.Equal(t, "VENDOR_NOT_VERIFIED", appErr.Code)
	assert.Contains(t, rec.actions(), audit.ActionPublishRejected)
}

func TestVerifiedVendorPublishesActive(t *testing.T) {
	svc, _, rec, vendorActor, _ := setupGateTest(true)

	res, err := svc.CreateProduct(context.Background(), vendorActor, CreateProductRequest{
		Name:     "Handwoven Basket",
		Price:    "4500.00",
		Quantity: 10,
		Status:   "active",
	})
	require.NoError(t, err)
	assert.Equal(t, StatusActive, res.Product.Status)
	assert.Empty(t, rec.events)
}

func TestDraftRequestSkipsGate(t *testing.T) {
	svc, _, rec, vendorActor, _ := setupGateTest(false)

	res, err := svc.CreateProduct(context.Background(), vendorActor, CreateProductRequest{
		Name:     "Handwoven Basket",
		Price:    "4500.00",
		Quantity: 10,
		Status:   "draft",
	})
	require.NoError(t, err)
	assert.Equal(t, StatusDraft, res.Product.Status)
	assert.Empty(t, rec.events, "an explicit draft save is not a blocked publish")
}

func TestUpdateToActiveRerunsGate(t *testing.T) {
	svc, gate, _, vendorActor, vendorID := setupGateTest(false)

	res, err := svc.CreateProduct(context.Background(), vendorActor, CreateProductRequest{
		Name:     "Handwoven Basket",
		Price:    "4500.00",
		Quantity: 10,
		Status:   "draft",
	})
	require.NoError(t, err)

	active := "active"
	res, err = svc.UpdateProduct(context.Background(), vendorActor, res.Product.ID.String(), UpdateProductRequest{Status: &active})
	require.NoError(t, err)
	assert.Equal(t, StatusDraft, res.Product.Status, "still unverified, still a draft")

	gate.verified[vendorID] = true
	res, err = svc.UpdateProduct(context.Background(), vendorActor, res.Product.ID.String(), UpdateProductRequest{Status: &active})
	require.NoError(t, err)
	assert.Equal(t, StatusActive, res.Product.Status)
}

func TestProductTextIsContentChecked(t *testing.T) {
	svc, _, _, vendorActor, _ := setupGateTest(true)

	_, err := svc.CreateProduct(context.Background(), vendorActor, CreateProductRequest{
		Name:     "Great shoes",
		Price:    "100.00",
		Quantity: 1,
		// Off-platform contact details are blocked by the content scanner.
		Description: "bargain! whatsapp 08031234567",
	})
	require.Error(t, err)
	appErr := httpx.AsError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, "CONTENT_CONTACT_INFO", appErr.Code)
}
