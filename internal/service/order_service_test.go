package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"blackcoffe/internal/apperr"
	"blackcoffe/internal/domain"
	"blackcoffe/internal/repository"
)

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return d
}

func setup(t *testing.T) (*repository.MemoryStore, *OrderService) {
	t.Helper()
	store := repository.NewMemoryStore()
	orders := repository.NewMemoryOrders(store)
	return store, NewOrderService(store, orders)
}

func stockProduct(t *testing.T, store *repository.MemoryStore, name, price string, available bool) *domain.Product {
	t.Helper()
	p := &domain.Product{Name: name, Price: dec(t, price), IsAvailable: available}
	if err := store.UpsertProduct(context.Background(), p); err != nil {
		t.Fatalf("upsert %s: %v", name, err)
	}
	return p
}

func wantKind(t *testing.T, err error, kind apperr.Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error of kind %v, got nil", kind)
	}
	if got := apperr.KindOf(err); got != kind {
		t.Fatalf("error kind = %v, want %v (err: %v)", got, kind, err)
	}
}

func TestPreview_RoundingExample(t *testing.T) {
	ctx := context.Background()
	store, svc := setup(t)
	americano := stockProduct(t, store, "Americano", "25.00", true)

	resp, err := svc.Preview(ctx, []PreviewItem{{ProductID: americano.ID, Quantity: 2, Variant: "Tall"}})
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	if len(resp.Items) != 1 {
		t.Fatalf("lines = %d, want 1", len(resp.Items))
	}
	line := resp.Items[0]
	if line.Quantity != 2 || !line.UnitPrice.Equal(dec(t, "25.00")) || !line.LineTotal.Equal(dec(t, "50.00")) {
		t.Fatalf("line = %+v", line)
	}
	sum := resp.Summary
	if !sum.Subtotal.Equal(dec(t, "50.00")) ||
		!sum.Shipping.Equal(decimal.Zero) ||
		!sum.IvaRate.Equal(dec(t, "0.12")) ||
		!sum.IvaAmount.Equal(dec(t, "6.00")) ||
		!sum.Total.Equal(dec(t, "56.00")) {
		t.Fatalf("summary = %+v", sum)
	}
}

func TestPreview_NormalizationIdempotent(t *testing.T) {
	ctx := context.Background()
	store, svc := setup(t)
	a := stockProduct(t, store, "Americano", "25.00", true)
	b := stockProduct(t, store, "Capuchino", "30.50", true)

	merged, err := svc.Preview(ctx, []PreviewItem{
		{ProductID: a.ID, Quantity: 2, Variant: "Tall"},
		{ProductID: b.ID, Quantity: 1},
	})
	if err != nil {
		t.Fatalf("preview merged: %v", err)
	}
	// same order split into fragments, reordered, variant padded
	split, err := svc.Preview(ctx, []PreviewItem{
		{ProductID: b.ID, Quantity: 1},
		{ProductID: a.ID, Quantity: 1, Variant: " Tall "},
		{ProductID: a.ID, Quantity: 1, Variant: "Tall"},
	})
	if err != nil {
		t.Fatalf("preview split: %v", err)
	}

	if len(merged.Items) != 2 || len(split.Items) != 2 {
		t.Fatalf("line counts: merged %d, split %d", len(merged.Items), len(split.Items))
	}
	byKey := func(resp *PreviewResponse) map[string]PreviewLine {
		out := make(map[string]PreviewLine)
		for _, l := range resp.Items {
			out[l.ProductID.String()+"/"+l.Variant] = l
		}
		return out
	}
	mergedLines, splitLines := byKey(merged), byKey(split)
	for k, ml := range mergedLines {
		sl, ok := splitLines[k]
		if !ok {
			t.Fatalf("line %s missing in split preview", k)
		}
		if ml.Quantity != sl.Quantity || !ml.LineTotal.Equal(sl.LineTotal) {
			t.Fatalf("line %s differs: %+v vs %+v", k, ml, sl)
		}
	}
	if !merged.Summary.Total.Equal(split.Summary.Total) {
		t.Fatalf("totals differ: %s vs %s", merged.Summary.Total, split.Summary.Total)
	}
}

func TestPreview_EmptyItems(t *testing.T) {
	_, svc := setup(t)
	_, err := svc.Preview(context.Background(), nil)
	wantKind(t, err, apperr.KindValidation)
}

func TestPreview_UnavailableProductFailsWhole(t *testing.T) {
	ctx := context.Background()
	store, svc := setup(t)
	ok := stockProduct(t, store, "Americano", "25.00", true)
	off := stockProduct(t, store, "Capuchino", "30.00", false)

	_, err := svc.Preview(ctx, []PreviewItem{
		{ProductID: ok.ID, Quantity: 1},
		{ProductID: off.ID, Quantity: 1},
	})
	wantKind(t, err, apperr.KindNotFound)

	// unknown id fails the same way
	_, err = svc.Preview(ctx, []PreviewItem{
		{ProductID: ok.ID, Quantity: 1},
		{ProductID: uuid.New(), Quantity: 1},
	})
	wantKind(t, err, apperr.KindNotFound)
}

func placeRequest(p *domain.Product) PlaceOrderRequest {
	return PlaceOrderRequest{
		CustomerName:  "Ana Lopez",
		CustomerPhone: "5555-1234",
		Items:         []PreviewItem{{ProductID: p.ID, Quantity: 2}},
	}
}

func TestCreate_RequiresAuth(t *testing.T) {
	store, svc := setup(t)
	p := stockProduct(t, store, "Americano", "25.00", true)
	_, err := svc.Create(context.Background(), uuid.Nil, placeRequest(p))
	wantKind(t, err, apperr.KindAuth)
}

func TestCreate_PriceSnapshot(t *testing.T) {
	ctx := context.Background()
	store, svc := setup(t)
	orders := repository.NewMemoryOrders(store)
	p := stockProduct(t, store, "Americano", "25.00", true)

	resp, err := svc.Create(ctx, uuid.New(), placeRequest(p))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if resp.Status != string(domain.OrderPendiente) {
		t.Fatalf("status = %s, want Pendiente", resp.Status)
	}
	if !resp.Summary.Total.Equal(dec(t, "56.00")) {
		t.Fatalf("total = %s, want 56.00", resp.Summary.Total)
	}

	// raise the menu price after placement
	p.Price = dec(t, "99.00")
	if err := store.UpsertProduct(ctx, p); err != nil {
		t.Fatal(err)
	}

	placed, err := orders.GetByID(ctx, resp.OrderID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !placed.TotalAmount.Equal(dec(t, "56.00")) {
		t.Fatalf("total after price change = %s, want 56.00", placed.TotalAmount)
	}
	if !placed.Items[0].UnitPrice.Equal(dec(t, "25.00")) {
		t.Fatalf("unit price snapshot = %s, want 25.00", placed.Items[0].UnitPrice)
	}
}

func TestCreate_IdempotentReference(t *testing.T) {
	ctx := context.Background()
	store, svc := setup(t)
	p := stockProduct(t, store, "Americano", "25.00", true)

	req := placeRequest(p)
	req.ClientReference = "cart-42"

	first, err := svc.Create(ctx, uuid.New(), req)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	second, err := svc.Create(ctx, uuid.New(), req)
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if first.OrderID != second.OrderID {
		t.Fatalf("retry created a new order: %v vs %v", first.OrderID, second.OrderID)
	}
	if !second.Summary.Total.Equal(first.Summary.Total) {
		t.Fatalf("retry total %s, want %s", second.Summary.Total, first.Summary.Total)
	}
}

func TestUpdateStatus(t *testing.T) {
	ctx := context.Background()
	store, svc := setup(t)
	p := stockProduct(t, store, "Americano", "25.00", true)

	resp, err := svc.Create(ctx, uuid.New(), placeRequest(p))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.UpdateStatus(ctx, resp.OrderID, "confirmado"); err != nil {
		t.Fatalf("confirm (case-insensitive): %v", err)
	}
	wantKind(t, svc.UpdateStatus(ctx, resp.OrderID, "Enviado"), apperr.KindValidation)
	wantKind(t, svc.UpdateStatus(ctx, resp.OrderID, "Entregado"), apperr.KindValidation)
	wantKind(t, svc.UpdateStatus(ctx, uuid.New(), "Confirmado"), apperr.KindNotFound)

	if err := svc.UpdateStatus(ctx, resp.OrderID, "Preparando"); err != nil {
		t.Fatalf("preparando: %v", err)
	}
	if err := svc.UpdateStatus(ctx, resp.OrderID, "Listo"); err != nil {
		t.Fatalf("listo: %v", err)
	}
	if err := svc.UpdateStatus(ctx, resp.OrderID, "Entregado"); err != nil {
		t.Fatalf("entregado: %v", err)
	}
	// terminal
	wantKind(t, svc.UpdateStatus(ctx, resp.OrderID, "Pendiente"), apperr.KindValidation)
}
