package domain

import "testing"

func TestParseOrderStatus_CaseInsensitive(t *testing.T) {
	for _, in := range []string{"pendiente", "PENDIENTE", "Pendiente"} {
		st, ok := ParseOrderStatus(in)
		if !ok || st != OrderPendiente {
			t.Fatalf("ParseOrderStatus(%q) = %v, %v", in, st, ok)
		}
	}
	if _, ok := ParseOrderStatus("Shipped"); ok {
		t.Fatalf("unrecognized status accepted")
	}
}

func TestOrderTransitions(t *testing.T) {
	allowed := []struct{ from, to OrderStatus }{
		{OrderPendiente, OrderConfirmado},
		{OrderPendiente, OrderCancelado},
		{OrderConfirmado, OrderPreparando},
		{OrderConfirmado, OrderCancelado},
		{OrderPreparando, OrderListo},
		{OrderPreparando, OrderCancelado},
		{OrderListo, OrderEntregado},
	}
	for _, tc := range allowed {
		if !tc.from.CanTransition(tc.to) {
			t.Fatalf("%s -> %s should be allowed", tc.from, tc.to)
		}
	}
	denied := []struct{ from, to OrderStatus }{
		{OrderPendiente, OrderListo},
		{OrderListo, OrderCancelado},
		{OrderEntregado, OrderPendiente},
		{OrderCancelado, OrderConfirmado},
		{OrderEntregado, OrderEntregado},
	}
	for _, tc := range denied {
		if tc.from.CanTransition(tc.to) {
			t.Fatalf("%s -> %s should be rejected", tc.from, tc.to)
		}
	}
}

func TestReservationStatusBlocking(t *testing.T) {
	if !ReservationPendiente.Blocking() || !ReservationConfirmada.Blocking() {
		t.Fatalf("active statuses must block the slot")
	}
	if ReservationCancelada.Blocking() || ReservationNoShow.Blocking() {
		t.Fatalf("inactive statuses must not block the slot")
	}
}
