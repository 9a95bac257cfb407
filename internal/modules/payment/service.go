package payment

import (
	"context"

	"github.com/sokoplace/soko-backend/internal/modules/identity"
)

// Service defines payment business logic.
type Service interface {
	// Initialize starts a provider charge for one of the actor's
	// pending_payment orders. Repeats with the same idempotency key return
	// the original transaction.
	Initialize(ctx context.Context, actor identity.Identity, req InitializeRequest) (*Transaction, error)

	// HandleWebhook applies one provider event. The raw body is needed
	// because the signature covers the exact bytes sent. Unknown events are
	// acknowledged and ignored.
	HandleWebhook(ctx context.Context, provider Provider, signature string, body []byte) error
}
