package cart

import (
	"context"

	"github.com/google/uuid"
	"github.com/sokoplace/soko-backend/internal/httpx"
	"github.com/sokoplace/soko-backend/internal/modules/identity"
)

type service struct {
	repo     Repository
	products ProductSource
}

// NewService creates a new cart service.
func NewService(repo Repository, products ProductSource) Service {
	return &service{repo: repo, products: products}
}

func (s *service) GetCart(ctx context.Context, id identity.Identity) (*Cart, error) {
	ownerType, ownerID := id.OwnerKey()
	return s.repo.GetOrCreate(ctx, OwnerType(ownerType), ownerID)
}

func (s *service) AddItem(ctx context.Context, id identity.Identity, req AddItemRequest) (*Cart, error) {
	if req.Quantity <= 0 {
		return nil, httpx.Validation("INVALID_QUANTITY", "quantity must be a positive integer")
	}
	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		return nil, httpx.Validation("INVALID_PRODUCT_ID", "product_id is not a valid id")
	}

	product, err := s.products.ActiveProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	c, err := s.GetCart(ctx, id)
	if err != nil {
		return nil, err
	}

	item := &Item{
		ID:        uuid.New(),
		CartID:    c.ID,
		ProductID: product.ID,
		VendorID:  product.VendorID,
		Name:      product.Name,
		UnitPrice: product.Price,
		Quantity:  req.Quantity,
		Image:     product.Image,
	}
	if err := s.repo.UpsertItem(ctx, c.ID, item); err != nil {
		return nil, err
	}
	return s.GetCart(ctx, id)
}

func (s *service) RemoveItem(ctx context.Context, id identity.Identity, itemID string) (*Cart, error) {
	c, err := s.GetCart(ctx, id)
	if err != nil {
		return nil, err
	}

	parsed, err := uuid.Parse(itemID)
	if err != nil {
		// An unparsable id cannot match a line; removal stays a no-op.
		return c, nil
	}
	if _, err := s.repo.RemoveItem(ctx, c.ID, parsed); err != nil {
		return nil, err
	}
	return s.GetCart(ctx, id)
}

func (s *service) UpdateQuantity(ctx context.Context, id identity.Identity, itemID string, quantity int) (*Cart, error) {
	c, err := s.GetCart(ctx, id)
	if err != nil {
		return nil, err
	}

	parsed, err := uuid.Parse(itemID)
	if err != nil {
		return nil, httpx.NotFound("cart item not found")
	}

	var found bool
	if quantity <= 0 {
		found, err = s.repo.RemoveItem(ctx, c.ID, parsed)
	} else {
		found, err = s.repo.SetQuantity(ctx, c.ID, parsed, quantity)
	}
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, httpx.NotFound("cart item not found")
	}
	return s.GetCart(ctx, id)
}

func (s *service) Clear(ctx context.Context, id identity.Identity) error {
	c, err := s.GetCart(ctx, id)
	if err != nil {
		return err
	}
	return s.repo.Clear(ctx, c.ID)
}

func (s *service) MergeGuestToUser(ctx context.Context, guestID string, userID uuid.UUID) (*Cart, error) {
	return s.repo.MergeGuestToUser(ctx, guestID, userID.String())
}
