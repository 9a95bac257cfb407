package order

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/sokoplace/soko-backend/internal/database"
	"github.com/sokoplace/soko-backend/internal/httpx"
	"github.com/sokoplace/soko-backend/internal/modules/audit"
	"github.com/sokoplace/soko-backend/internal/modules/cart"
	"github.com/sokoplace/soko-backend/internal/modules/identity"
	"github.com/sokoplace/soko-backend/internal/policy"
)

// Pricing holds the checkout fee schedule.
type Pricing struct {
	ShippingFlatFee decimal.Decimal
	TaxRate         decimal.Decimal // fraction of subtotal, e.g. 0.075
}

type service struct {
	repo     Repository
	carts    cart.Service
	vendors  VendorSource
	recorder audit.Recorder
	pricing  Pricing
}

// NewService creates a new order service.
func NewService(repo Repository, carts cart.Service, vendors VendorSource, recorder audit.Recorder, pricing Pricing) Service {
	return &service{repo: repo, carts: carts, vendors: vendors, recorder: recorder, pricing: pricing}
}

func (s *service) Checkout(ctx context.Context, actor identity.Identity, req CheckoutRequest) (*Order, error) {
	c, err := s.carts.GetCart(ctx, actor)
	if err != nil {
		return nil, err
	}
	if len(c.Items) == 0 {
		return nil, httpx.Validation("EMPTY_CART", "cannot checkout an empty cart")
	}
	if len(req.ShippingAddress) == 0 {
		return nil, httpx.Validation("MISSING_ADDRESS", "shipping_address is required")
	}

	items := lo.Map(c.Items, func(ci *cart.Item, _ int) *Item {
		return &Item{
			ID:                uuid.New(),
			ProductID:         ci.ProductID,
			VendorID:          ci.VendorID,
			Name:              ci.Name,
			UnitPrice:         ci.UnitPrice,
			Quantity:          ci.Quantity,
			FulfillmentStatus: FulfillmentPending,
		}
	})

	subtotal := c.Subtotal()
	discount := decimal.Zero
	shipping := s.pricing.ShippingFlatFee
	tax := subtotal.Mul(s.pricing.TaxRate).Round(2)

	o := &Order{
		ID:              uuid.New(),
		BuyerID:         actor.UserID,
		Status:          StatusPendingPayment,
		PaymentStatus:   PaymentPending,
		PaymentMethod:   req.PaymentMethod,
		Subtotal:        subtotal,
		DiscountTotal:   discount,
		ShippingFee:     shipping,
		Tax:             tax,
		Total:           subtotal.Sub(discount).Add(shipping).Add(tax),
		CouponCode:      req.CouponCode,
		ShippingAddress: req.ShippingAddress,
		Items:           items,
	}
	for _, it := range items {
		it.OrderID = o.ID
	}

	if err := s.repo.Checkout(ctx, o, c.ID); err != nil {
		if errors.Is(err, database.ErrInsufficientStock) {
			return nil, httpx.Conflict("INSUFFICIENT_STOCK", "one or more items exceed available stock")
		}
		if errors.Is(err, ErrProductInactive) {
			return nil, httpx.Conflict("PRODUCT_UNAVAILABLE", "one or more items are no longer for sale")
		}
		return nil, err
	}
	return s.repo.GetOrderByID(ctx, o.ID)
}

func (s *service) GetOrder(ctx context.Context, actor identity.Identity, orderID string) (*Order, error) {
	id, err := uuid.Parse(orderID)
	if err != nil {
		return nil, httpx.NotFound("order not found")
	}
	o, err := s.repo.GetOrderByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, httpx.NotFound("order not found")
		}
		return nil, err
	}
	if err := s.authorizeRead(ctx, actor, o); err != nil {
		return nil, err
	}
	return o, nil
}

// authorizeRead hides orders the actor may not see behind NOT_FOUND so
// probing ids leaks nothing.
func (s *service) authorizeRead(ctx context.Context, actor identity.Identity, o *Order) error {
	if policy.IsAdmin(actor.Role) {
		return nil
	}
	if o.BuyerID == actor.UserID {
		return nil
	}
	if actor.Role == policy.RoleVendor {
		vendorID, err := s.vendors.VendorForUser(ctx, actor.UserID)
		if err == nil && lo.SomeBy(o.Items, func(it *Item) bool { return it.VendorID == vendorID }) {
			return nil
		}
	}
	return httpx.NotFound("order not found")
}

func (s *service) ListOrders(ctx context.Context, actor identity.Identity, status string) ([]*Order, error) {
	if policy.IsAdmin(actor.Role) {
		var st Status
		if status != "" {
			canonical, ok := CanonicalStatus(status)
			if !ok {
				return nil, httpx.Validation("INVALID_STATUS", "unknown order status")
			}
			st = canonical
		}
		return s.repo.ListAll(ctx, st)
	}
	if actor.Role == policy.RoleVendor {
		vendorID, err := s.vendors.VendorForUser(ctx, actor.UserID)
		if err == nil {
			return s.repo.ListByVendor(ctx, vendorID)
		}
		// A vendor role without a vendor profile still buys like anyone.
	}
	return s.repo.ListByBuyer(ctx, actor.UserID)
}

func (s *service) Cancel(ctx context.Context, actor identity.Identity, orderID string) (*CancelResult, error) {
	if !policy.Allows(actor.Role, policy.ActionCancelOrder) {
		return nil, httpx.Forbidden("FORBIDDEN", "only an admin may cancel orders")
	}
	id, err := uuid.Parse(orderID)
	if err != nil {
		return nil, httpx.NotFound("order not found")
	}

	restored, err := s.repo.CancelWithRestore(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, httpx.NotFound("order not found")
		}
		if errors.Is(err, ErrOrderClosed) {
			return nil, httpx.Conflict("ORDER_ALREADY_CLOSED", "order is already cancelled or fulfilled")
		}
		return nil, err
	}

	s.recorder.Record(ctx, audit.Event{
		ActorID:      &actor.UserID,
		ActorRole:    string(actor.Role),
		Action:       audit.ActionOrderCancelled,
		ResourceType: "order",
		ResourceID:   id.String(),
		Outcome:      audit.OutcomeSuccess,
		Detail:       audit.Detail(map[string]interface{}{"restored_lines": len(restored)}),
	})

	o, err := s.repo.GetOrderByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &CancelResult{Order: o, Restored: restored}, nil
}

func (s *service) FulfillItem(ctx context.Context, actor identity.Identity, itemID string) (*Item, error) {
	if !policy.Allows(actor.Role, policy.ActionFulfillItem) {
		return nil, httpx.Forbidden("FORBIDDEN", "only a vendor may fulfill items")
	}
	id, err := uuid.Parse(itemID)
	if err != nil {
		return nil, httpx.NotFound("order item not found")
	}
	vendorID, err := s.vendors.VendorForUser(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}

	it, err := s.repo.FulfillItem(ctx, id, vendorID)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, httpx.NotFound("order item not found")
		case errors.Is(err, ErrItemNotVendors):
			return nil, httpx.Forbidden("NOT_ITEM_VENDOR", "this item belongs to another vendor")
		case errors.Is(err, ErrItemFulfilled):
			return nil, httpx.Conflict("ITEM_ALREADY_FULFILLED", "item has already been fulfilled")
		case errors.Is(err, ErrOrderCancelled):
			return nil, httpx.Conflict("ORDER_CANCELLED", "cannot fulfill an item on a cancelled order")
		}
		return nil, err
	}

	s.recorder.Record(ctx, audit.Event{
		ActorID:      &actor.UserID,
		ActorRole:    string(actor.Role),
		Action:       audit.ActionOrderItemFulfilled,
		ResourceType: "order_item",
		ResourceID:   id.String(),
		Outcome:      audit.OutcomeSuccess,
	})
	return it, nil
}

func (s *service) UpdateStatus(ctx context.Context, actor identity.Identity, orderID string, req UpdateStatusRequest) (*Order, error) {
	if !policy.Allows(actor.Role, policy.ActionAdvanceOrder) {
		return nil, httpx.Forbidden("FORBIDDEN", "only an admin may change order status")
	}
	id, err := uuid.Parse(orderID)
	if err != nil {
		return nil, httpx.NotFound("order not found")
	}
	to, ok := CanonicalStatus(req.Status)
	if !ok {
		return nil, httpx.Validation("INVALID_STATUS", "unknown order status")
	}

	o, err := s.repo.GetOrderByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, httpx.NotFound("order not found")
		}
		return nil, err
	}
	if !CanTransition(o.Status, to) {
		return nil, httpx.Conflict("INVALID_TRANSITION",
			"cannot move order from "+string(o.Status)+" to "+string(to))
	}

	if err := s.repo.UpdateStatus(ctx, id, o.Status, to, req.TrackingNumber); err != nil {
		if errors.Is(err, ErrStatusConflict) {
			return nil, httpx.Conflict("INVALID_TRANSITION", "order status changed concurrently")
		}
		return nil, err
	}
	return s.repo.GetOrderByID(ctx, id)
}

func (s *service) ConfirmPayment(ctx context.Context, orderID uuid.UUID, reference string) error {
	err := s.repo.ConfirmPayment(ctx, orderID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return httpx.NotFound("order not found")
		}
		if errors.Is(err, ErrStatusConflict) {
			return httpx.Conflict("ORDER_ALREADY_CLOSED", "order cannot accept payment")
		}
		return err
	}

	s.recorder.Record(ctx, audit.Event{
		ActorRole:    "system",
		Action:       audit.ActionPaymentConfirmed,
		ResourceType: "order",
		ResourceID:   orderID.String(),
		Outcome:      audit.OutcomeSuccess,
		Detail:       audit.Detail(map[string]string{"reference": reference}),
	})
	return nil
}
