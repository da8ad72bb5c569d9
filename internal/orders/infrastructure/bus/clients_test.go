package bus

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/skalarhq/orders-service/internal/orders/application"
)

type fakeRequester struct {
	subject string
	payload []byte
	reply   []byte
	err     error
}

func (r *fakeRequester) Request(ctx context.Context, subject string, payload []byte) ([]byte, error) {
	r.subject = subject
	r.payload = payload
	return r.reply, r.err
}

func TestCatalogClientValidate(t *testing.T) {
	gw := &fakeRequester{reply: []byte(`[{"id":"p1","name":"Keyboard","price":10},{"id":"p2","name":"Mouse","price":5.5}]`)}
	c := NewCatalogClient(gw)

	products, err := c.Validate(context.Background(), []string{"p1", "p2"})
	require.NoError(t, err)

	require.Equal(t, SubjectValidateProducts, gw.subject)
	require.JSONEq(t, `["p1","p2"]`, string(gw.payload))
	require.Len(t, products, 2)
	require.Equal(t, "Keyboard", products[0].Name)
	require.True(t, products[1].Price.Equal(decimal.RequireFromString("5.5")))
}

func TestCatalogClientUpstreamError(t *testing.T) {
	gw := &fakeRequester{reply: []byte(`{"error":{"status":400,"message":"some products were not found"}}`)}
	c := NewCatalogClient(gw)

	_, err := c.Validate(context.Background(), []string{"ghost"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "some products were not found")
}

func TestCatalogClientTransportError(t *testing.T) {
	gw := &fakeRequester{err: errors.New("request validate_products: context deadline exceeded")}
	c := NewCatalogClient(gw)

	_, err := c.Validate(context.Background(), []string{"p1"})
	require.Error(t, err)
}

func TestPaymentClientCreateSession(t *testing.T) {
	gw := &fakeRequester{reply: []byte(`{"id":"sess_1","url":"https://pay.example/sess_1"}`)}
	c := NewPaymentClient(gw)

	session, err := c.CreateSession(context.Background(), application.PaymentSessionRequest{
		OrderID:  "order-1",
		Currency: "usd",
		Items: []application.SessionLineItem{
			{Name: "Keyboard", Price: decimal.NewFromInt(10), Quantity: 2},
		},
	})
	require.NoError(t, err)
	require.Equal(t, SubjectCreatePaymentSession, gw.subject)
	require.JSONEq(t, `{"id":"sess_1","url":"https://pay.example/sess_1"}`, string(session))

	var sent map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(gw.payload, &sent))
	require.Contains(t, string(sent["order"]), "order-1")
	require.JSONEq(t, `"usd"`, string(sent["currency"]))
}

func TestPaymentClientUpstreamError(t *testing.T) {
	gw := &fakeRequester{reply: []byte(`{"error":{"status":502,"message":"processor unavailable"}}`)}
	c := NewPaymentClient(gw)

	_, err := c.CreateSession(context.Background(), application.PaymentSessionRequest{OrderID: "order-1", Currency: "usd"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "processor unavailable")
}
