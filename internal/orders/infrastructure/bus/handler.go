package bus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/skalarhq/orders-service/internal/orders/application"
	"github.com/skalarhq/orders-service/internal/orders/domain"
	"github.com/skalarhq/orders-service/pkg/gateway"
	"github.com/skalarhq/orders-service/pkg/metrics"
	"github.com/skalarhq/orders-service/pkg/pagination"
)

// OrderService is the orchestrator surface the adapter maps subjects onto.
type OrderService interface {
	CreateOrder(ctx context.Context, items []domain.OrderItem) (domain.Order, json.RawMessage, error)
	FindAll(ctx context.Context, page pagination.Params, status *domain.OrderStatus) (application.ListResult, error)
	FindOne(ctx context.Context, id string) (domain.Order, error)
	ChangeStatus(ctx context.Context, id string, status domain.OrderStatus) (domain.Order, error)
	MarkOrderAsPaid(ctx context.Context, orderID, paymentReference, receiptURL string) (domain.Order, error)
}

// EventDeduper drops redelivered events before they reach the orchestrator.
type EventDeduper interface {
	Key(subject, eventID string) string
	Seen(ctx context.Context, key string) (bool, error)
}

// Registrar is the slice of the gateway the adapter registers against.
type Registrar interface {
	Handle(subject string, h gateway.Handler)
}

type Handler struct {
	log    *slog.Logger
	svc    OrderService
	dedup  EventDeduper
	bus    *metrics.BusMetrics
	tracer trace.Tracer
}

func NewHandler(log *slog.Logger, svc OrderService, dedup EventDeduper, bus *metrics.BusMetrics) *Handler {
	return &Handler{
		log:    log,
		svc:    svc,
		dedup:  dedup,
		bus:    bus,
		tracer: otel.Tracer("orders-bus"),
	}
}

func (h *Handler) Register(r Registrar) {
	r.Handle(SubjectCreateOrder, h.instrument(SubjectCreateOrder, h.createOrder))
	r.Handle(SubjectFindAllOrders, h.instrument(SubjectFindAllOrders, h.findAllOrders))
	r.Handle(SubjectFindOneOrder, h.instrument(SubjectFindOneOrder, h.findOneOrder))
	r.Handle(SubjectChangeOrderStatus, h.instrument(SubjectChangeOrderStatus, h.changeOrderStatus))
	r.Handle(SubjectPaymentSucceeded, h.instrument(SubjectPaymentSucceeded, h.paymentSucceeded))
}

func (h *Handler) instrument(subject string, fn gateway.Handler) gateway.Handler {
	return func(ctx context.Context, payload []byte) ([]byte, error) {
		ctx, span := h.tracer.Start(ctx, subject)
		defer span.End()

		start := time.Now()
		reply, err := fn(ctx, payload)
		if h.bus != nil {
			outcome := "ok"
			if err != nil {
				outcome = "error"
			}
			h.bus.Messages.WithLabelValues(subject, outcome).Inc()
			h.bus.HandleMS.WithLabelValues(subject).Observe(float64(time.Since(start).Milliseconds()))
		}
		return reply, err
	}
}

type orderItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type createOrderRequest struct {
	Items []orderItemRequest `json:"items"`
}

type createOrderReply struct {
	Order          domain.Order    `json:"order"`
	PaymentSession json.RawMessage `json:"paymentSession"`
}

func (h *Handler) createOrder(ctx context.Context, payload []byte) ([]byte, error) {
	var req createOrderRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return h.replyError(malformed(err)), nil
	}
	if err := validateCreateOrder(req); err != nil {
		return h.replyError(err), nil
	}

	items := make([]domain.OrderItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, domain.OrderItem{ProductID: item.ProductID, Quantity: item.Quantity})
	}

	order, session, err := h.svc.CreateOrder(ctx, items)
	if err != nil {
		return h.replyError(err), nil
	}
	return h.reply(createOrderReply{Order: order, PaymentSession: session})
}

type findAllRequest struct {
	Page   int    `json:"page"`
	Limit  int    `json:"limit"`
	Status string `json:"status,omitempty"`
}

func (h *Handler) findAllOrders(ctx context.Context, payload []byte) ([]byte, error) {
	var req findAllRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return h.replyError(malformed(err)), nil
	}
	if err := validateFindAll(req); err != nil {
		return h.replyError(err), nil
	}

	var status *domain.OrderStatus
	if req.Status != "" {
		s := domain.OrderStatus(req.Status)
		status = &s
	}

	result, err := h.svc.FindAll(ctx, pagination.Params{Page: req.Page, Limit: req.Limit}, status)
	if err != nil {
		return h.replyError(err), nil
	}
	return h.reply(result)
}

type findOneRequest struct {
	ID string `json:"id"`
}

func (h *Handler) findOneOrder(ctx context.Context, payload []byte) ([]byte, error) {
	var req findOneRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return h.replyError(malformed(err)), nil
	}
	if err := validateOrderID(req.ID); err != nil {
		return h.replyError(err), nil
	}

	order, err := h.svc.FindOne(ctx, req.ID)
	if err != nil {
		return h.replyError(err), nil
	}
	return h.reply(order)
}

type changeStatusRequest struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

func (h *Handler) changeOrderStatus(ctx context.Context, payload []byte) ([]byte, error) {
	var req changeStatusRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return h.replyError(malformed(err)), nil
	}
	if err := validateChangeStatus(req); err != nil {
		return h.replyError(err), nil
	}

	order, err := h.svc.ChangeStatus(ctx, req.ID, domain.OrderStatus(req.Status))
	if err != nil {
		return h.replyError(err), nil
	}
	return h.reply(order)
}

type paidOrderEvent struct {
	OrderID          string `json:"orderId"`
	PaymentReference string `json:"paymentReference"`
	ReceiptURL       string `json:"receiptUrl"`
}

// paymentSucceeded has no reply channel: bad payloads and unknown orders are
// logged and dropped, duplicates are skipped before the orchestrator.
func (h *Handler) paymentSucceeded(ctx context.Context, payload []byte) ([]byte, error) {
	var ev paidOrderEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		h.log.Error("payment event malformed", "err", err)
		return nil, nil
	}
	if err := validatePaidOrder(ev); err != nil {
		h.log.Error("payment event rejected", "order_id", ev.OrderID, "err", err)
		return nil, nil
	}

	if h.dedup != nil {
		key := h.dedup.Key(SubjectPaymentSucceeded, ev.OrderID+":"+ev.PaymentReference)
		seen, err := h.dedup.Seen(ctx, key)
		if err != nil {
			// Dedup store trouble is not fatal; MarkOrderAsPaid is
			// idempotent at the store level anyway.
			h.log.Error("idempotency check failed", "key", key, "err", err)
		} else if seen {
			h.log.Info("duplicate payment event skipped", "order_id", ev.OrderID)
			return nil, nil
		}
	}

	if _, err := h.svc.MarkOrderAsPaid(ctx, ev.OrderID, ev.PaymentReference, ev.ReceiptURL); err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			h.log.Warn("payment event for unknown order dropped", "order_id", ev.OrderID)
			return nil, nil
		}
		return nil, err
	}
	return nil, nil
}

type errorBody struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

func (h *Handler) reply(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// replyError maps an operation error onto the reply envelope. NotFound and
// transition/validation errors are surfaced precisely; anything else gets the
// generic message so internal detail never leaks to callers.
func (h *Handler) replyError(err error) []byte {
	body := errorBody{Status: 400, Message: err.Error()}
	switch {
	case errors.Is(err, domain.ErrOrderNotFound):
		body.Status = 404
	case errors.Is(err, errValidation),
		errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrSagaFailed):
	default:
		h.log.Error("unexpected handler error", "err", err)
		body.Message = domain.ErrSagaFailed.Error()
	}
	b, _ := json.Marshal(errorEnvelope{Error: body})
	return b
}

func malformed(err error) error {
	return fmt.Errorf("%w: malformed payload: %v", errValidation, err)
}
