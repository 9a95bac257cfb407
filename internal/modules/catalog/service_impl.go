package catalog

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sokoplace/soko-backend/internal/httpx"
	"github.com/sokoplace/soko-backend/internal/modules/audit"
	"github.com/sokoplace/soko-backend/internal/modules/cart"
	"github.com/sokoplace/soko-backend/internal/modules/identity"
	"github.com/sokoplace/soko-backend/internal/policy"
	"github.com/sokoplace/soko-backend/internal/validation"
)

type service struct {
	repo     Repository
	vendors  VendorGate
	recorder audit.Recorder
}

// NewService creates a new catalog service.
func NewService(repo Repository, vendors VendorGate, recorder audit.Recorder) Service {
	return &service{repo: repo, vendors: vendors, recorder: recorder}
}

func (s *service) CreateProduct(ctx context.Context, actor identity.Identity, req CreateProductRequest) (*CreateProductResponse, error) {
	vendorID, err := s.resolveVendor(ctx, actor, req.VendorID)
	if err != nil {
		return nil, err
	}

	if err := validateProductText(req.Name, req.Description); err != nil {
		return nil, err
	}

	price, err := parsePrice(req.Price)
	if err != nil {
		return nil, err
	}
	comparePrice, err := parseOptionalPrice(req.ComparePrice)
	if err != nil {
		return nil, err
	}
	if req.Quantity < 0 {
		return nil, httpx.Validation("INVALID_QUANTITY", "quantity must not be negative")
	}

	// Omitted status on create counts as a publish request.
	requested := StatusActive
	if req.Status != "" {
		requested = Status(strings.ToLower(req.Status))
		if !requested.valid() {
			return nil, httpx.Validation("INVALID_STATUS", "status must be draft, active or archived")
		}
	}

	status, message, err := s.applyPublishGate(ctx, actor, vendorID, requested, "")
	if err != nil {
		return nil, err
	}

	trackQuantity := true
	if req.TrackQuantity != nil {
		trackQuantity = *req.TrackQuantity
	}

	p := &Product{
		ID:                 uuid.New(),
		VendorID:           vendorID,
		Name:               strings.TrimSpace(req.Name),
		Description:        strings.TrimSpace(req.Description),
		Price:              price,
		ComparePrice:       comparePrice,
		Quantity:           req.Quantity,
		TrackQuantity:      trackQuantity,
		Status:             status,
		CategoryAttributes: req.CategoryAttributes,
		IsFeatured:         req.IsFeatured,
		Image:              req.Image,
	}
	if err := s.repo.CreateProduct(ctx, p); err != nil {
		return nil, err
	}

	if status != requested {
		s.recordPublishBlocked(ctx, actor, p.ID.String(), vendorID)
	}
	return &CreateProductResponse{Success: true, Product: p, Message: message}, nil
}

func (s *service) UpdateProduct(ctx context.Context, actor identity.Identity, productID string, req UpdateProductRequest) (*CreateProductResponse, error) {
	p, err := s.ownedProduct(ctx, actor, productID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		p.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		p.Description = strings.TrimSpace(*req.Description)
	}
	if err := validateProductText(p.Name, p.Description); err != nil {
		return nil, err
	}

	if req.Price != nil {
		if p.Price, err = parsePrice(*req.Price); err != nil {
			return nil, err
		}
	}
	if req.ComparePrice != nil {
		if p.ComparePrice, err = parseOptionalPrice(*req.ComparePrice); err != nil {
			return nil, err
		}
	}
	if req.Quantity != nil {
		if *req.Quantity < 0 {
			return nil, httpx.Validation("INVALID_QUANTITY", "quantity must not be negative")
		}
		p.Quantity = *req.Quantity
	}
	if req.TrackQuantity != nil {
		p.TrackQuantity = *req.TrackQuantity
	}
	if req.CategoryAttributes != nil {
		p.CategoryAttributes = req.CategoryAttributes
	}
	if req.IsFeatured != nil {
		p.IsFeatured = *req.IsFeatured
	}
	if req.Image != nil {
		p.Image = *req.Image
	}

	var message string
	if req.Status != nil {
		requested := Status(strings.ToLower(*req.Status))
		if !requested.valid() {
			return nil, httpx.Validation("INVALID_STATUS", "status must be draft, active or archived")
		}
		p.Status, message, err = s.applyPublishGate(ctx, actor, p.VendorID, requested, p.ID.String())
		if err != nil {
			return nil, err
		}
	}

	if err := s.repo.UpdateProduct(ctx, p); err != nil {
		return nil, err
	}
	return &CreateProductResponse{Success: true, Product: p, Message: message}, nil
}

func (s *service) GetProduct(ctx context.Context, actor identity.Identity, productID string) (*Product, error) {
	id, err := uuid.Parse(productID)
	if err != nil {
		return nil, httpx.NotFound("product not found")
	}
	p, err := s.repo.GetProductByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, httpx.NotFound("product not found")
		}
		return nil, err
	}
	if p.Status == StatusActive {
		return p, nil
	}

	// Drafts and archived products exist only for their owner and admins.
	if actor.IsUser() {
		if policy.IsAdmin(actor.Role) {
			return p, nil
		}
		if vendorID, err := s.vendors.VendorForUser(ctx, actor.UserID); err == nil && vendorID == p.VendorID {
			return p, nil
		}
	}
	return nil, httpx.NotFound("product not found")
}

func (s *service) ListPublic(ctx context.Context) ([]*Product, error) {
	return s.repo.ListProducts(ctx, uuid.Nil, StatusActive)
}

func (s *service) ListVendorProducts(ctx context.Context, actor identity.Identity, status string) ([]*Product, error) {
	vendorID, err := s.vendors.VendorForUser(ctx, actor.UserID)
	if err != nil {
		return nil, httpx.Forbidden("VENDOR_PROFILE_REQUIRED", "no vendor profile for this account")
	}
	return s.repo.ListProducts(ctx, vendorID, Status(status))
}

func (s *service) ListAll(ctx context.Context, status string) ([]*Product, error) {
	return s.repo.ListProducts(ctx, uuid.Nil, Status(status))
}

func (s *service) ArchiveProduct(ctx context.Context, actor identity.Identity, productID string) error {
	p, err := s.ownedProduct(ctx, actor, productID)
	if err != nil {
		return err
	}
	p.Status = StatusArchived
	return s.repo.UpdateProduct(ctx, p)
}

func (s *service) ActiveProduct(ctx context.Context, productID uuid.UUID) (*cart.ProductSnapshot, error) {
	p, err := s.repo.GetProductByID(ctx, productID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, httpx.Validation("PRODUCT_NOT_AVAILABLE", "product is not available")
		}
		return nil, err
	}
	if p.Status != StatusActive {
		return nil, httpx.Validation("PRODUCT_NOT_AVAILABLE", "product is not available")
	}
	return &cart.ProductSnapshot{
		ID:       p.ID,
		VendorID: p.VendorID,
		Name:     p.Name,
		Price:    p.Price,
		Image:    p.Image,
	}, nil
}

// ── publish gate ─────────────────────────────────────────────────────────────

// applyPublishGate decides the persisted status for a requested one. The
// asymmetry is deliberate policy: vendor saves are coerced to draft so the
// save flow never breaks, admin requests fail loudly.
func (s *service) applyPublishGate(ctx context.Context, actor identity.Identity, vendorID uuid.UUID, requested Status, productID string) (Status, string, error) {
	if requested != StatusActive {
		return requested, "", nil
	}

	verified, err := s.vendors.CanPublish(ctx, vendorID)
	if err != nil {
		return "", "", err
	}
	if verified {
		return StatusActive, "", nil
	}

	switch policy.PublishPolicyFor(actor.Role) {
	case policy.PublishReject:
		s.recorder.Record(ctx, audit.Event{
			ActorID:      &actor.UserID,
			ActorRole:    string(actor.Role),
			Action:       audit.ActionPublishRejected,
			ResourceType: "vendor",
			ResourceID:   vendorID.String(),
			Outcome:      audit.OutcomeDenied,
		})
		return "", "", httpx.Forbidden("VENDOR_NOT_VERIFIED", "vendor is not verified; choose draft status")
	default:
		if productID != "" {
			s.recordPublishBlocked(ctx, actor, productID, vendorID)
		}
		return StatusDraft, "vendor not verified yet; product saved as draft", nil
	}
}

func (s *service) recordPublishBlocked(ctx context.Context, actor identity.Identity, productID string, vendorID uuid.UUID) {
	s.recorder.Record(ctx, audit.Event{
		ActorID:      &actor.UserID,
		ActorRole:    string(actor.Role),
		Action:       audit.ActionPublishBlocked,
		ResourceType: "product",
		ResourceID:   productID,
		Outcome:      audit.OutcomeBlocked,
		Detail:       audit.Detail(map[string]string{"vendor_id": vendorID.String()}),
	})
}

// ── helpers ──────────────────────────────────────────────────────────────────

func (s *service) resolveVendor(ctx context.Context, actor identity.Identity, requestedVendorID string) (uuid.UUID, error) {
	if policy.IsAdmin(actor.Role) {
		if requestedVendorID == "" {
			return uuid.Nil, httpx.Validation("VENDOR_ID_REQUIRED", "vendor_id is required when creating on behalf of a vendor")
		}
		id, err := uuid.Parse(requestedVendorID)
		if err != nil {
			return uuid.Nil, httpx.Validation("INVALID_VENDOR_ID", "vendor_id is not a valid id")
		}
		return id, nil
	}

	vendorID, err := s.vendors.VendorForUser(ctx, actor.UserID)
	if err != nil {
		return uuid.Nil, httpx.Forbidden("VENDOR_PROFILE_REQUIRED", "no vendor profile for this account")
	}
	return vendorID, nil
}

func (s *service) ownedProduct(ctx context.Context, actor identity.Identity, productID string) (*Product, error) {
	id, err := uuid.Parse(productID)
	if err != nil {
		return nil, httpx.NotFound("product not found")
	}
	p, err := s.repo.GetProductByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, httpx.NotFound("product not found")
		}
		return nil, err
	}

	if policy.IsAdmin(actor.Role) {
		return p, nil
	}
	vendorID, err := s.vendors.VendorForUser(ctx, actor.UserID)
	if err != nil || vendorID != p.VendorID {
		// Hide existence from non-owners.
		return nil, httpx.NotFound("product not found")
	}
	return p, nil
}

func validateProductText(name, description string) error {
	if r := validation.First(name, validation.BusinessName, validation.Content); !r.Valid {
		return httpx.Validation(r.Code, "name: "+r.Message)
	}
	if description != "" {
		if r := validation.Content(description); !r.Valid {
			return httpx.Validation(r.Code, "description: "+r.Message)
		}
	}
	return nil
}

func parsePrice(raw string) (decimal.Decimal, error) {
	if strings.TrimSpace(raw) == "" {
		return decimal.Zero, httpx.Validation("PRICE_REQUIRED", "price is required")
	}
	price, err := decimal.NewFromString(raw)
	if err != nil || price.IsNegative() || price.IsZero() {
		return decimal.Zero, httpx.Validation("INVALID_PRICE", "price must be a positive amount")
	}
	return price, nil
}

func parseOptionalPrice(raw string) (*decimal.Decimal, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	price, err := decimal.NewFromString(raw)
	if err != nil || price.IsNegative() {
		return nil, httpx.Validation("INVALID_PRICE", "compare_price must be a non-negative amount")
	}
	return &price, nil
}
