package bus

// Inbound subjects served by this service.
const (
	SubjectCreateOrder       = "createOrder"
	SubjectFindAllOrders     = "findAllOrders"
	SubjectFindOneOrder      = "findOneOrder"
	SubjectChangeOrderStatus = "changeOrderStatus"
	SubjectPaymentSucceeded  = "payment.succeeded"
)

// Outbound subjects owned by the collaborating services.
const (
	SubjectValidateProducts     = "validate_products"
	SubjectCreatePaymentSession = "create.payment.session"
)
