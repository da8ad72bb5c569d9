package application

import (
	"context"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
	"github.com/skalarhq/orders-service/internal/orders/domain"
)

type OrderRepository interface {
	// Create persists the order header and all its items atomically.
	Create(ctx context.Context, o domain.Order) (domain.Order, error)
	FindByID(ctx context.Context, id string) (domain.Order, error)
	// FindMany returns a page of orders plus the total count matching the
	// filter. A nil status means all statuses.
	FindMany(ctx context.Context, status *domain.OrderStatus, limit, offset int) ([]domain.Order, int64, error)
	UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) (domain.Order, error)
	// MarkPaid transitions the order to PAID and creates its receipt in one
	// transaction. The bool reports whether the transition happened now; it
	// is false when the order was already PAID (redelivery).
	MarkPaid(ctx context.Context, id, paymentReference, receiptURL string, paidAt time.Time) (domain.Order, bool, error)
}

type ProductCatalog interface {
	// Validate resolves the given product ids to authoritative name and
	// price data in a single batched call.
	Validate(ctx context.Context, ids []string) ([]domain.Product, error)
}

type SessionLineItem struct {
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

type PaymentSessionRequest struct {
	OrderID  string            `json:"order"`
	Currency string            `json:"currency"`
	Items    []SessionLineItem `json:"items"`
}

type PaymentProvider interface {
	// CreateSession returns the processor's session handle, opaque to us.
	CreateSession(ctx context.Context, req PaymentSessionRequest) (json.RawMessage, error)
}
