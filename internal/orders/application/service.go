package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/skalarhq/orders-service/internal/orders/domain"
	"github.com/skalarhq/orders-service/pkg/pagination"
)

// Service orchestrates the order lifecycle: the creation saga, lookups,
// manual status changes and payment reconciliation. It holds no state of its
// own; every operation completes within one inbound message.
type Service struct {
	log      *slog.Logger
	repo     OrderRepository
	catalog  ProductCatalog
	payments PaymentProvider
	currency string
}

func NewService(log *slog.Logger, repo OrderRepository, catalog ProductCatalog, payments PaymentProvider, currency string) *Service {
	return &Service{
		log:      log,
		repo:     repo,
		catalog:  catalog,
		payments: payments,
		currency: currency,
	}
}

type ListResult struct {
	Data     []domain.Order      `json:"data"`
	Metadata pagination.Metadata `json:"metadata"`
}

// CreateOrder runs the creation saga. Any failure aborts the whole saga and
// surfaces as the generic saga error; the underlying cause is only logged.
func (s *Service) CreateOrder(ctx context.Context, items []domain.OrderItem) (domain.Order, json.RawMessage, error) {
	order, session, err := s.createOrder(ctx, items)
	if err != nil {
		s.log.Error("order creation saga failed", "err", err)
		return domain.Order{}, nil, domain.ErrSagaFailed
	}
	return order, session, nil
}

func (s *Service) createOrder(ctx context.Context, items []domain.OrderItem) (domain.Order, json.RawMessage, error) {
	products, err := s.validateProducts(ctx, productIDs(items))
	if err != nil {
		return domain.Order{}, nil, err
	}

	priced := make([]domain.OrderItem, 0, len(items))
	for _, item := range items {
		priced = append(priced, domain.OrderItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     products[item.ProductID].Price,
		})
	}

	order, err := s.repo.Create(ctx, domain.NewOrder(uuid.NewString(), priced))
	if err != nil {
		return domain.Order{}, nil, fmt.Errorf("persist order: %w", err)
	}

	lines := make([]SessionLineItem, 0, len(order.Items))
	for _, item := range order.Items {
		lines = append(lines, SessionLineItem{
			Name:     products[item.ProductID].Name,
			Price:    item.Price,
			Quantity: item.Quantity,
		})
	}
	session, err := s.payments.CreateSession(ctx, PaymentSessionRequest{
		OrderID:  order.ID,
		Currency: s.currency,
		Items:    lines,
	})
	if err != nil {
		return domain.Order{}, nil, fmt.Errorf("create payment session: %w", err)
	}

	s.log.Info("order created", "order_id", order.ID, "total_amount", order.TotalAmount, "total_items", order.TotalItems)
	return order, session, nil
}

func (s *Service) FindAll(ctx context.Context, page pagination.Params, status *domain.OrderStatus) (ListResult, error) {
	orders, total, err := s.repo.FindMany(ctx, status, page.Limit, page.Offset())
	if err != nil {
		return ListResult{}, err
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	return ListResult{Data: orders, Metadata: pagination.NewMetadata(total, page)}, nil
}

// FindOne returns the order with its items, each enriched with the catalog's
// display name via one batched call. A lookup miss stays a precise NotFound;
// catalog trouble collapses into the generic saga error.
func (s *Service) FindOne(ctx context.Context, id string) (domain.Order, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}

	products, err := s.validateProducts(ctx, productIDs(order.Items))
	if err != nil {
		s.log.Error("order enrichment failed", "order_id", id, "err", err)
		return domain.Order{}, domain.ErrSagaFailed
	}
	for i := range order.Items {
		order.Items[i].Name = products[order.Items[i].ProductID].Name
	}
	return order, nil
}

// ChangeStatus applies a manual status move. Same-status calls are idempotent
// no-ops; everything else must be in the manual transition table.
func (s *Service) ChangeStatus(ctx context.Context, id string, status domain.OrderStatus) (domain.Order, error) {
	order, err := s.FindOne(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}
	if order.Status == status {
		return order, nil
	}
	if !domain.CanChangeTo(order.Status, status) {
		return domain.Order{}, fmt.Errorf("%w: %s to %s", domain.ErrInvalidTransition, order.Status, status)
	}
	return s.repo.UpdateStatus(ctx, id, status)
}

// MarkOrderAsPaid reconciles a payment-succeeded event onto the order:
// status PAID, paid flag, paidAt, payment reference and the receipt, all in
// one atomic update. Redelivered events find the order already PAID and are
// logged no-ops.
func (s *Service) MarkOrderAsPaid(ctx context.Context, orderID, paymentReference, receiptURL string) (domain.Order, error) {
	order, transitioned, err := s.repo.MarkPaid(ctx, orderID, paymentReference, receiptURL, time.Now().UTC())
	if err != nil {
		return domain.Order{}, err
	}
	if !transitioned {
		s.log.Info("payment event redelivered, order already paid", "order_id", orderID)
		return order, nil
	}
	s.log.Info("order paid", "order_id", orderID, "payment_reference", paymentReference)
	return order, nil
}

// validateProducts issues the batched catalog request and indexes the reply,
// requiring coverage of every requested id.
func (s *Service) validateProducts(ctx context.Context, ids []string) (map[string]domain.Product, error) {
	products, err := s.catalog.Validate(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("validate products: %w", err)
	}
	byID := make(map[string]domain.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	for _, id := range ids {
		if _, ok := byID[id]; !ok {
			return nil, errors.New("catalog response missing product " + id)
		}
	}
	return byID, nil
}

func productIDs(items []domain.OrderItem) []string {
	seen := make(map[string]struct{}, len(items))
	ids := make([]string, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item.ProductID]; ok {
			continue
		}
		seen[item.ProductID] = struct{}{}
		ids = append(ids, item.ProductID)
	}
	return ids
}
