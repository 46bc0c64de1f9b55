package enums

// OrderStatus is the backend's order lifecycle, stored in Spanish.
type OrderStatus string

const (
	OrderStatusPendingPayment OrderStatus = "PENDIENTE_PAGO"
	OrderStatusPaid           OrderStatus = "PAGADO"
	OrderStatusPreparing      OrderStatus = "EN_PREPARACION"
	OrderStatusShipped        OrderStatus = "ENVIADO"
	OrderStatusDelivered      OrderStatus = "ENTREGADO"
	OrderStatusCanceled       OrderStatus = "CANCELADO"
)

// orderStatuses is in lifecycle order.
var orderStatuses = []OrderStatus{
	OrderStatusPendingPayment,
	OrderStatusPaid,
	OrderStatusPreparing,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCanceled,
}

func (o OrderStatus) String() string { return string(o) }

func (o OrderStatus) IsValid() bool { return member(orderStatuses, o) }

// IsTerminal reports whether no further transition is expected.
func (o OrderStatus) IsTerminal() bool {
	return o == OrderStatusDelivered || o == OrderStatusCanceled
}

// ParseOrderStatus is exact: the backend never sends other casings.
func ParseOrderStatus(value string) (OrderStatus, error) {
	return parse("order status", orderStatuses, value)
}
