package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"blackcoffe/internal/domain"
)

// MemoryStore is the in-memory backend used by tests and the demo
// binary. One RWMutex guards all maps, so every repository method is a
// single critical section and check-then-insert stays atomic.
type MemoryStore struct {
	mu           sync.RWMutex
	productsByID map[uuid.UUID]domain.Product
	ordersByID   map[uuid.UUID]domain.Order
	orderByRef   map[string]uuid.UUID
	tablesByID   map[uuid.UUID]domain.CafeTable
	reservations map[uuid.UUID]domain.Reservation

	invoiceSeq int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		productsByID: make(map[uuid.UUID]domain.Product),
		ordersByID:   make(map[uuid.UUID]domain.Order),
		orderByRef:   make(map[string]uuid.UUID),
		tablesByID:   make(map[uuid.UUID]domain.CafeTable),
		reservations: make(map[uuid.UUID]domain.Reservation),
	}
}

// Ensure interfaces
var _ CatalogRepository = (*MemoryStore)(nil)
var _ TableRepository = (*MemoryStore)(nil)

// CatalogRepository implementation

func (m *MemoryStore) GetAvailableProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]domain.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[uuid.UUID]domain.Product, len(ids))
	for _, id := range ids {
		p, ok := m.productsByID[id]
		if !ok || !p.IsAvailable {
			continue
		}
		out[id] = p
	}
	return out, nil
}

func (m *MemoryStore) UpsertProduct(ctx context.Context, p *domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	m.productsByID[p.ID] = *p
	return nil
}

func (m *MemoryStore) ListProducts(ctx context.Context) ([]domain.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Product, 0, len(m.productsByID))
	for _, p := range m.productsByID {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// TableRepository implementation

func (m *MemoryStore) GetActive(ctx context.Context, id uuid.UUID) (*domain.CafeTable, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tablesByID[id]
	if !ok || !t.IsActive {
		return nil, ErrNotFound
	}
	cp := t
	return &cp, nil
}

func (m *MemoryStore) Upsert(ctx context.Context, t *domain.CafeTable) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	m.tablesByID[t.ID] = *t
	return nil
}

// OrderRepository implementation on wrapper type

type MemoryOrders struct{ store *MemoryStore }

func NewMemoryOrders(store *MemoryStore) *MemoryOrders { return &MemoryOrders{store: store} }

var _ OrderRepository = (*MemoryOrders)(nil)

func (mo *MemoryOrders) Create(ctx context.Context, o *domain.Order) error {
	mo.store.mu.Lock()
	defer mo.store.mu.Unlock()
	if o.ExternalRef != "" {
		if _, taken := mo.store.orderByRef[o.ExternalRef]; taken {
			return ErrConflict
		}
	}
	o.ID = uuid.New()
	o.CreatedAt = time.Now().UTC()
	cp := *o
	cp.Items = append([]domain.OrderItem(nil), o.Items...)
	mo.store.ordersByID[o.ID] = cp
	if o.ExternalRef != "" {
		mo.store.orderByRef[o.ExternalRef] = o.ID
	}
	return nil
}

func (mo *MemoryOrders) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	mo.store.mu.RLock()
	defer mo.store.mu.RUnlock()
	o, ok := mo.store.ordersByID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyOrder(o), nil
}

func (mo *MemoryOrders) GetByExternalRef(ctx context.Context, ref string) (*domain.Order, error) {
	mo.store.mu.RLock()
	defer mo.store.mu.RUnlock()
	id, ok := mo.store.orderByRef[ref]
	if !ok {
		return nil, ErrNotFound
	}
	o := mo.store.ordersByID[id]
	return copyOrder(o), nil
}

func (mo *MemoryOrders) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Order, error) {
	mo.store.mu.RLock()
	defer mo.store.mu.RUnlock()
	out := make([]domain.Order, 0)
	for _, o := range mo.store.ordersByID {
		if o.UserID == userID {
			out = append(out, *copyOrder(o))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (mo *MemoryOrders) UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.OrderStatus) error {
	mo.store.mu.Lock()
	defer mo.store.mu.Unlock()
	o, ok := mo.store.ordersByID[id]
	if !ok {
		return ErrNotFound
	}
	if o.Status != from {
		return ErrConflict
	}
	o.Status = to
	mo.store.ordersByID[id] = o
	return nil
}

func (mo *MemoryOrders) AssignInvoiceNumber(ctx context.Context, id uuid.UUID) (string, error) {
	mo.store.mu.Lock()
	defer mo.store.mu.Unlock()
	o, ok := mo.store.ordersByID[id]
	if !ok {
		return "", ErrNotFound
	}
	if o.InvoiceNumber != "" {
		return o.InvoiceNumber, nil
	}
	n := atomic.AddInt64(&mo.store.invoiceSeq, 1)
	o.InvoiceNumber = fmt.Sprintf("BC-%06d", n)
	mo.store.ordersByID[id] = o
	return o.InvoiceNumber, nil
}

func copyOrder(o domain.Order) *domain.Order {
	cp := o
	cp.Items = append([]domain.OrderItem(nil), o.Items...)
	return &cp
}

// ReservationRepository implementation on wrapper type

type MemoryReservations struct{ store *MemoryStore }

func NewMemoryReservations(store *MemoryStore) *MemoryReservations {
	return &MemoryReservations{store: store}
}

var _ ReservationRepository = (*MemoryReservations)(nil)

func (mr *MemoryReservations) Create(ctx context.Context, r *domain.Reservation) error {
	mr.store.mu.Lock()
	defer mr.store.mu.Unlock()
	// slot check and insert happen under the same lock
	for _, existing := range mr.store.reservations {
		if existing.TableID == r.TableID &&
			existing.ReservationAt.Equal(r.ReservationAt) &&
			existing.Status.Blocking() {
			return ErrConflict
		}
	}
	r.ID = uuid.New()
	r.CreatedAt = time.Now().UTC()
	mr.store.reservations[r.ID] = *r
	return nil
}

func (mr *MemoryReservations) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Reservation, error) {
	mr.store.mu.RLock()
	defer mr.store.mu.RUnlock()
	out := make([]domain.Reservation, 0)
	for _, r := range mr.store.reservations {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (mr *MemoryReservations) ListAll(ctx context.Context) ([]domain.Reservation, error) {
	mr.store.mu.RLock()
	defer mr.store.mu.RUnlock()
	out := make([]domain.Reservation, 0, len(mr.store.reservations))
	for _, r := range mr.store.reservations {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (mr *MemoryReservations) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.ReservationStatus) error {
	mr.store.mu.Lock()
	defer mr.store.mu.Unlock()
	r, ok := mr.store.reservations[id]
	if !ok {
		return ErrNotFound
	}
	r.Status = status
	mr.store.reservations[id] = r
	return nil
}
