package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	StatusPending   OrderStatus = "PENDING"
	StatusPaid      OrderStatus = "PAID"
	StatusCancelled OrderStatus = "CANCELLED"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusPaid, StatusCancelled:
		return true
	}
	return false
}

// manualTransitions lists the status moves a caller may request directly.
// PENDING -> PAID is reserved for the payment-succeeded event; PAID and
// CANCELLED are terminal.
var manualTransitions = map[OrderStatus][]OrderStatus{
	StatusPending: {StatusCancelled},
}

func CanChangeTo(from, to OrderStatus) bool {
	for _, allowed := range manualTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

type Order struct {
	ID               string          `json:"id"`
	TotalAmount      decimal.Decimal `json:"totalAmount"`
	TotalItems       int             `json:"totalItems"`
	Status           OrderStatus     `json:"status"`
	Paid             bool            `json:"paid"`
	PaidAt           *time.Time      `json:"paidAt,omitempty"`
	PaymentReference string          `json:"paymentReference,omitempty"`
	Items            []OrderItem     `json:"items,omitempty"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
}

type OrderItem struct {
	ProductID string          `json:"productId"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`

	// Name is attached on enriched reads from the catalog, never persisted.
	Name string `json:"name,omitempty"`
}

// Product is the catalog's view of a referenced product.
type Product struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// NewOrder builds a PENDING order from priced items, computing both totals
// once. Prices on the items are snapshots and are never recomputed.
func NewOrder(id string, items []OrderItem) Order {
	total := decimal.Zero
	count := 0
	for _, item := range items {
		total = total.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
		count += item.Quantity
	}
	now := time.Now().UTC()
	return Order{
		ID:          id,
		TotalAmount: total,
		TotalItems:  count,
		Status:      StatusPending,
		Items:       items,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
