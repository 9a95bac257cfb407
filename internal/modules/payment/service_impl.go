package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/sokoplace/soko-backend/internal/httpx"
	"github.com/sokoplace/soko-backend/internal/modules/identity"
	"github.com/sokoplace/soko-backend/internal/modules/order"
	"github.com/sokoplace/soko-backend/internal/modules/user"
)

type service struct {
	repo     Repository
	orders   order.Service
	users    user.Repository
	gateways GatewayRegistry
}

// NewService creates a new payment service.
func NewService(repo Repository, orders order.Service, users user.Repository, gateways GatewayRegistry) Service {
	return &service{repo: repo, orders: orders, users: users, gateways: gateways}
}

func (s *service) Initialize(ctx context.Context, actor identity.Identity, req InitializeRequest) (*Transaction, error) {
	if req.IdempotencyKey != "" {
		if existing, err := s.repo.GetByIdempotencyKey(ctx, req.IdempotencyKey); err == nil {
			return existing, nil
		}
	}

	// GetOrder applies actor scoping, so a buyer can only pay for an order
	// they can see.
	o, err := s.orders.GetOrder(ctx, actor, req.OrderID)
	if err != nil {
		return nil, err
	}
	if o.BuyerID != actor.UserID {
		return nil, httpx.NotFound("order not found")
	}
	if o.Status != order.StatusPendingPayment {
		return nil, httpx.Conflict("ORDER_NOT_PAYABLE", "order is not awaiting payment")
	}

	buyer, err := s.users.GetUserByID(ctx, o.BuyerID.String())
	if err != nil {
		return nil, err
	}

	gw, ok := s.gateways[ProviderPaystack]
	if !ok {
		return nil, fmt.Errorf("no gateway registered for %s", ProviderPaystack)
	}

	reference := "SOKO-" + strings.ToUpper(uuid.New().String()[:18])
	charge, err := gw.Initialize(ctx, &InitializeCharge{
		Reference:  reference,
		AmountKobo: KoboAmount(o.Total),
		Email:      buyer.Email,
	})
	if err != nil {
		return nil, httpx.Upstream("payment provider is unavailable")
	}

	t := &Transaction{
		ID:               uuid.New(),
		OrderID:          o.ID,
		Provider:         ProviderPaystack,
		Reference:        charge.Reference,
		AmountKobo:       KoboAmount(o.Total),
		Email:            buyer.Email,
		Status:           TransactionPending,
		AuthorizationURL: charge.AuthorizationURL,
		IdempotencyKey:   req.IdempotencyKey,
	}
	return s.repo.CreateTransaction(ctx, t)
}

func (s *service) HandleWebhook(ctx context.Context, provider Provider, signature string, body []byte) error {
	gw, ok := s.gateways[provider]
	if !ok {
		return httpx.NotFound("unknown payment provider")
	}
	if !gw.VerifySignature(signature, body) {
		return httpx.Forbidden("INVALID_SIGNATURE", "webhook signature mismatch")
	}

	var event WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return httpx.Validation("INVALID_BODY", "webhook body is not valid JSON")
	}

	switch event.Event {
	case "charge.success":
		return s.applyChargeSuccess(ctx, event.Data)
	case "charge.failed":
		return s.applyChargeFailed(ctx, event.Data)
	default:
		// Paystack sends many event types; anything unhandled is
		// acknowledged so it stops retrying.
		log.Printf("payment: ignoring webhook event %q", event.Event)
		return nil
	}
}

func (s *service) applyChargeSuccess(ctx context.Context, data json.RawMessage) error {
	var charge ChargeData
	if err := json.Unmarshal(data, &charge); err != nil {
		return httpx.Validation("INVALID_BODY", "charge data is not valid JSON")
	}

	t, err := s.repo.GetByReference(ctx, charge.Reference)
	if err != nil {
		// A reference we never issued is acknowledged, not retried.
		log.Printf("payment: charge.success for unknown reference %q", charge.Reference)
		return nil
	}
	if charge.AmountKobo != t.AmountKobo {
		return httpx.Conflict("AMOUNT_MISMATCH", "charged amount does not match the transaction")
	}

	if err := s.repo.MarkStatus(ctx, t.Reference, TransactionSuccess); err != nil {
		return err
	}
	return s.orders.ConfirmPayment(ctx, t.OrderID, t.Reference)
}

func (s *service) applyChargeFailed(ctx context.Context, data json.RawMessage) error {
	var charge ChargeData
	if err := json.Unmarshal(data, &charge); err != nil {
		return httpx.Validation("INVALID_BODY", "charge data is not valid JSON")
	}
	if _, err := s.repo.GetByReference(ctx, charge.Reference); err != nil {
		return nil
	}
	return s.repo.MarkStatus(ctx, charge.Reference, TransactionFailed)
}
