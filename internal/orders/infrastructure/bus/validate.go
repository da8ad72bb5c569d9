package bus

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/skalarhq/orders-service/internal/orders/domain"
)

// errValidation marks malformed input rejected before it reaches the
// orchestrator.
var errValidation = errors.New("validation failed")

func validateCreateOrder(req createOrderRequest) error {
	if len(req.Items) == 0 {
		return fmt.Errorf("%w: items must not be empty", errValidation)
	}
	for i, item := range req.Items {
		if item.ProductID == "" {
			return fmt.Errorf("%w: items[%d].productId must not be empty", errValidation, i)
		}
		if item.Quantity <= 0 {
			return fmt.Errorf("%w: items[%d].quantity must be positive", errValidation, i)
		}
	}
	return nil
}

func validateFindAll(req findAllRequest) error {
	if req.Page < 1 {
		return fmt.Errorf("%w: page must be a positive integer", errValidation)
	}
	if req.Limit < 1 {
		return fmt.Errorf("%w: limit must be a positive integer", errValidation)
	}
	if req.Status != "" && !domain.OrderStatus(req.Status).Valid() {
		return fmt.Errorf("%w: invalid order status %q", errValidation, req.Status)
	}
	return nil
}

func validateOrderID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: id must be a valid uuid", errValidation)
	}
	return nil
}

func validateChangeStatus(req changeStatusRequest) error {
	if err := validateOrderID(req.ID); err != nil {
		return err
	}
	if !domain.OrderStatus(req.Status).Valid() {
		return fmt.Errorf("%w: invalid order status %q", errValidation, req.Status)
	}
	return nil
}

func validatePaidOrder(ev paidOrderEvent) error {
	if err := validateOrderID(ev.OrderID); err != nil {
		return err
	}
	if ev.PaymentReference == "" {
		return fmt.Errorf("%w: paymentReference must not be empty", errValidation)
	}
	if ev.ReceiptURL == "" {
		return fmt.Errorf("%w: receiptUrl must not be empty", errValidation)
	}
	return nil
}
