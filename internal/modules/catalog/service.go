package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/sokoplace/soko-backend/internal/modules/cart"
	"github.com/sokoplace/soko-backend/internal/modules/identity"
)

// VendorGate is the verification-gate view of the vendor module consumed at
// publish time.
type VendorGate interface {
	// VendorForUser returns the vendor owned by a user, or an error when the
	// user has no vendor profile.
	VendorForUser(ctx context.Context, userID uuid.UUID) (uuid.UUID, error)

	// CanPublish reports whether the vendor's verification status permits
	// public listings.
	CanPublish(ctx context.Context, vendorID uuid.UUID) (bool, error)
}

// Service defines catalog business logic, including the publish gate and the
// stock ledger consumed by checkout and cancellation.
type Service interface {
	// CreateProduct saves a product. When the owning vendor is unverified and
	// active status was requested, vendor actors get a coerced draft save and
	// admin actors get VENDOR_NOT_VERIFIED.
	CreateProduct(ctx context.Context, actor identity.Identity, req CreateProductRequest) (*CreateProductResponse, error)

	// UpdateProduct applies changes to an owned product, re-running the
	// publish gate when the update requests active status.
	UpdateProduct(ctx context.Context, actor identity.Identity, productID string, req UpdateProductRequest) (*CreateProductResponse, error)

	// GetProduct returns a product. Non-active products are visible only to
	// the owning vendor and admins; everyone else gets NOT_FOUND.
	GetProduct(ctx context.Context, actor identity.Identity, productID string) (*Product, error)

	// ListPublic returns active products.
	ListPublic(ctx context.Context) ([]*Product, error)

	// ListVendorProducts returns the actor's own products in every status.
	ListVendorProducts(ctx context.Context, actor identity.Identity, status string) ([]*Product, error)

	// ListAll is the admin view, optionally filtered by status.
	ListAll(ctx context.Context, status string) ([]*Product, error)

	// ArchiveProduct retires a product from sale.
	ArchiveProduct(ctx context.Context, actor identity.Identity, productID string) error

	// ActiveProduct implements the cart's product source.
	ActiveProduct(ctx context.Context, productID uuid.UUID) (*cart.ProductSnapshot, error)
}
