package bus

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/skalarhq/orders-service/internal/orders/application"
	"github.com/skalarhq/orders-service/internal/orders/domain"
)

// Requester is the slice of the gateway the outbound clients need.
type Requester interface {
	Request(ctx context.Context, subject string, payload []byte) ([]byte, error)
}

// CatalogClient resolves product ids against the product catalog service.
type CatalogClient struct {
	gw Requester
}

func NewCatalogClient(gw Requester) *CatalogClient {
	return &CatalogClient{gw: gw}
}

func (c *CatalogClient) Validate(ctx context.Context, ids []string) ([]domain.Product, error) {
	payload, err := json.Marshal(ids)
	if err != nil {
		return nil, err
	}
	resp, err := c.gw.Request(ctx, SubjectValidateProducts, payload)
	if err != nil {
		return nil, err
	}
	if err := replyError(resp); err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}

	var products []domain.Product
	if err := json.Unmarshal(resp, &products); err != nil {
		return nil, fmt.Errorf("catalog reply: %w", err)
	}
	return products, nil
}

// PaymentClient opens payment sessions with the payment processor.
type PaymentClient struct {
	gw Requester
}

func NewPaymentClient(gw Requester) *PaymentClient {
	return &PaymentClient{gw: gw}
}

func (c *PaymentClient) CreateSession(ctx context.Context, req application.PaymentSessionRequest) (json.RawMessage, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	resp, err := c.gw.Request(ctx, SubjectCreatePaymentSession, payload)
	if err != nil {
		return nil, err
	}
	if err := replyError(resp); err != nil {
		return nil, fmt.Errorf("payment: %w", err)
	}
	return json.RawMessage(resp), nil
}

// replyError detects the shared `{"error":{...}}` envelope a collaborator
// sends instead of a result.
func replyError(resp []byte) error {
	var env struct {
		Error *errorBody `json:"error"`
	}
	if err := json.Unmarshal(resp, &env); err != nil || env.Error == nil {
		return nil
	}
	return fmt.Errorf("upstream error %d: %s", env.Error.Status, env.Error.Message)
}
