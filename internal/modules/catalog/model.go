package catalog

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status is a product's lifecycle state. Only active products are publicly
// listed and purchasable.
type Status string

const (
	StatusDraft    Status = "draft"
	StatusActive   Status = "active"
	StatusArchived Status = "archived"
)

func (s Status) valid() bool {
	return s == StatusDraft || s == StatusActive || s == StatusArchived
}

// Product is a vendor's listing. Stock lives on the product row: quantity is
// the inventory ledger, mutated only through atomic guarded updates.
type Product struct {
	ID                 uuid.UUID        `json:"id"`
	VendorID           uuid.UUID        `json:"vendor_id"`
	Name               string           `json:"name"`
	Description        string           `json:"description,omitempty"`
	Price              decimal.Decimal  `json:"price"`
	ComparePrice       *decimal.Decimal `json:"compare_price,omitempty"`
	Quantity           int              `json:"quantity"`
	TrackQuantity      bool             `json:"track_quantity"`
	Status             Status           `json:"status"`
	CategoryAttributes json.RawMessage  `json:"category_attributes,omitempty"`
	IsFeatured         bool             `json:"is_featured"`
	Image              string           `json:"image,omitempty"`
	CreatedAt          time.Time        `json:"created_at"`
	UpdatedAt          time.Time        `json:"updated_at"`
}

// CreateProductRequest is the payload for POST /api/products. VendorID is
// honoured only for admin actors creating on a vendor's behalf.
type CreateProductRequest struct {
	VendorID           string          `json:"vendor_id,omitempty"`
	Name               string          `json:"name"`
	Description        string          `json:"description,omitempty"`
	Price              string          `json:"price"`
	ComparePrice       string          `json:"compare_price,omitempty"`
	Quantity           int             `json:"quantity"`
	TrackQuantity      *bool           `json:"track_quantity,omitempty"`
	Status             string          `json:"status,omitempty"`
	CategoryAttributes json.RawMessage `json:"category_attributes,omitempty"`
	IsFeatured         bool            `json:"is_featured"`
	Image              string          `json:"image,omitempty"`
}

// UpdateProductRequest mirrors CreateProductRequest for PUT. Nil fields are
// left unchanged.
type UpdateProductRequest struct {
	Name               *string         `json:"name,omitempty"`
	Description        *string         `json:"description,omitempty"`
	Price              *string         `json:"price,omitempty"`
	ComparePrice       *string         `json:"compare_price,omitempty"`
	Quantity           *int            `json:"quantity,omitempty"`
	TrackQuantity      *bool           `json:"track_quantity,omitempty"`
	Status             *string         `json:"status,omitempty"`
	CategoryAttributes json.RawMessage `json:"category_attributes,omitempty"`
	IsFeatured         *bool           `json:"is_featured,omitempty"`
	Image              *string         `json:"image,omitempty"`
}

// CreateProductResponse wraps the saved product with the gate outcome so a
// coerced save can explain itself without being an error.
type CreateProductResponse struct {
	Success bool     `json:"success"`
	Product *Product `json:"product"`
	Message string   `json:"message,omitempty"`
}
