package domain

import "strings"

// OrderStatus values keep the Spanish names the storefront displays.
type OrderStatus string

const (
	OrderPendiente  OrderStatus = "Pendiente"
	OrderConfirmado OrderStatus = "Confirmado"
	OrderPreparando OrderStatus = "Preparando"
	OrderListo      OrderStatus = "Listo"
	OrderEntregado  OrderStatus = "Entregado"
	OrderCancelado  OrderStatus = "Cancelado"
)

var orderStatuses = []OrderStatus{
	OrderPendiente, OrderConfirmado, OrderPreparando,
	OrderListo, OrderEntregado, OrderCancelado,
}

// ParseOrderStatus resolves a status name case-insensitively.
func ParseOrderStatus(s string) (OrderStatus, bool) {
	for _, st := range orderStatuses {
		if strings.EqualFold(s, string(st)) {
			return st, true
		}
	}
	return "", false
}

var orderNext = map[OrderStatus]map[OrderStatus]bool{
	OrderPendiente:  {OrderConfirmado: true, OrderCancelado: true},
	OrderConfirmado: {OrderPreparando: true, OrderCancelado: true},
	OrderPreparando: {OrderListo: true, OrderCancelado: true},
	OrderListo:      {OrderEntregado: true},
	OrderEntregado:  {},
	OrderCancelado:  {},
}

// CanTransition reports whether an order may move from one status to
// another. Entregado and Cancelado are terminal.
func (from OrderStatus) CanTransition(to OrderStatus) bool {
	return orderNext[from][to]
}

// ReservationStatus values mirror the order status naming scheme.
type ReservationStatus string

const (
	ReservationPendiente  ReservationStatus = "Pendiente"
	ReservationConfirmada ReservationStatus = "Confirmada"
	ReservationCancelada  ReservationStatus = "Cancelada"
	ReservationNoShow     ReservationStatus = "NoShow"
)

var reservationStatuses = []ReservationStatus{
	ReservationPendiente, ReservationConfirmada,
	ReservationCancelada, ReservationNoShow,
}

func ParseReservationStatus(s string) (ReservationStatus, bool) {
	for _, st := range reservationStatuses {
		if strings.EqualFold(s, string(st)) {
			return st, true
		}
	}
	return "", false
}

// Blocking reports whether a reservation in this status holds its
// table+timestamp slot against new bookings.
func (s ReservationStatus) Blocking() bool {
	return s == ReservationPendiente || s == ReservationConfirmada
}
