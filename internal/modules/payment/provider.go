package payment

import "context"

// Provider order statuses.
const (
	ProviderStatusCreated   = "created"
	ProviderStatusAttempted = "attempted"
	ProviderStatusPaid      = "paid"
	ProviderStatusFailed    = "failed"
)

// OrderRef is the provider's order as returned on creation. Raw is handed to
// the client unmodified so checkout widgets can use it.
type OrderRef struct {
	ID  string
	Raw map[string]interface{}
}

type ProviderOrder struct {
	ID          string
	Status      string
	Receipt     string
	AmountMinor int64
	Currency    string
}

// Provider is the external payment gateway.
type Provider interface {
	CreateOrder(ctx context.Context, amountMinor int64, currency, receipt string) (OrderRef, error)
	FetchOrder(ctx context.Context, orderID string) (ProviderOrder, error)
}
