package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestNewOrderComputesTotals(t *testing.T) {
	items := []OrderItem{
		{ProductID: "p1", Quantity: 2, Price: decimal.NewFromInt(10)},
		{ProductID: "p2", Quantity: 1, Price: decimal.NewFromInt(5)},
	}

	o := NewOrder("order-1", items)

	require.True(t, o.TotalAmount.Equal(decimal.NewFromInt(25)), "totalAmount = %s", o.TotalAmount)
	require.Equal(t, 3, o.TotalItems)
	require.Equal(t, StatusPending, o.Status)
	require.False(t, o.Paid)
	require.Nil(t, o.PaidAt)
}

func TestNewOrderFractionalPrices(t *testing.T) {
	items := []OrderItem{
		{ProductID: "p1", Quantity: 3, Price: decimal.RequireFromString("19.99")},
	}

	o := NewOrder("order-1", items)

	require.True(t, o.TotalAmount.Equal(decimal.RequireFromString("59.97")), "totalAmount = %s", o.TotalAmount)
	require.Equal(t, 3, o.TotalItems)
}

func TestNewOrderEmptyItems(t *testing.T) {
	o := NewOrder("order-1", nil)

	require.True(t, o.TotalAmount.IsZero())
	require.Equal(t, 0, o.TotalItems)
}

func TestOrderStatusValid(t *testing.T) {
	require.True(t, StatusPending.Valid())
	require.True(t, StatusPaid.Valid())
	require.True(t, StatusCancelled.Valid())
	require.False(t, OrderStatus("SHIPPED").Valid())
	require.False(t, OrderStatus("").Valid())
}

func TestCanChangeTo(t *testing.T) {
	cases := []struct {
		from, to OrderStatus
		want     bool
	}{
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusPaid, false}, // reserved for the payment event
		{StatusPaid, StatusPending, false},
		{StatusPaid, StatusCancelled, false},
		{StatusCancelled, StatusPending, false},
		{StatusCancelled, StatusPaid, false},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, CanChangeTo(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}
