package bus

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestValidateCreateOrder(t *testing.T) {
	require.ErrorIs(t, validateCreateOrder(createOrderRequest{}), errValidation)

	err := validateCreateOrder(createOrderRequest{Items: []orderItemRequest{{ProductID: "", Quantity: 1}}})
	require.ErrorIs(t, err, errValidation)

	err = validateCreateOrder(createOrderRequest{Items: []orderItemRequest{{ProductID: "p1", Quantity: 0}}})
	require.ErrorIs(t, err, errValidation)

	err = validateCreateOrder(createOrderRequest{Items: []orderItemRequest{{ProductID: "p1", Quantity: -2}}})
	require.ErrorIs(t, err, errValidation)

	err = validateCreateOrder(createOrderRequest{Items: []orderItemRequest{{ProductID: "p1", Quantity: 2}}})
	require.NoError(t, err)
}

func TestValidateFindAll(t *testing.T) {
	require.ErrorIs(t, validateFindAll(findAllRequest{Page: 0, Limit: 10}), errValidation)
	require.ErrorIs(t, validateFindAll(findAllRequest{Page: 1, Limit: 0}), errValidation)
	require.ErrorIs(t, validateFindAll(findAllRequest{Page: 1, Limit: 10, Status: "SHIPPED"}), errValidation)
	require.NoError(t, validateFindAll(findAllRequest{Page: 1, Limit: 10}))
	require.NoError(t, validateFindAll(findAllRequest{Page: 1, Limit: 10, Status: "PAID"}))
}

func TestValidateOrderID(t *testing.T) {
	require.ErrorIs(t, validateOrderID("not-a-uuid"), errValidation)
	require.NoError(t, validateOrderID(uuid.NewString()))
}

func TestValidateChangeStatus(t *testing.T) {
	id := uuid.NewString()
	require.ErrorIs(t, validateChangeStatus(changeStatusRequest{ID: "nope", Status: "PAID"}), errValidation)
	require.ErrorIs(t, validateChangeStatus(changeStatusRequest{ID: id, Status: "nonsense"}), errValidation)
	require.NoError(t, validateChangeStatus(changeStatusRequest{ID: id, Status: "CANCELLED"}))
}

func TestValidatePaidOrder(t *testing.T) {
	id := uuid.NewString()
	require.ErrorIs(t, validatePaidOrder(paidOrderEvent{OrderID: "nope"}), errValidation)
	require.ErrorIs(t, validatePaidOrder(paidOrderEvent{OrderID: id, ReceiptURL: "https://x"}), errValidation)
	require.ErrorIs(t, validatePaidOrder(paidOrderEvent{OrderID: id, PaymentReference: "py_1"}), errValidation)
	require.NoError(t, validatePaidOrder(paidOrderEvent{OrderID: id, PaymentReference: "py_1", ReceiptURL: "https://x"}))
}
