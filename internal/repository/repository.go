package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"blackcoffe/internal/domain"
)

// ErrNotFound is returned when an entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a write loses to a uniqueness rule:
// a taken reservation slot, a reused order reference, a stale status.
var ErrConflict = errors.New("conflict")

// CatalogRepository resolves products for pricing. Only available
// products are returned by GetAvailableProducts; a missing key means
// the product does not exist or is switched off.
type CatalogRepository interface {
	GetAvailableProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]domain.Product, error)
	UpsertProduct(ctx context.Context, p *domain.Product) error
	ListProducts(ctx context.Context) ([]domain.Product, error)
}

// OrderRepository persists orders together with their items.
type OrderRepository interface {
	// Create writes the order and all of its items atomically.
	Create(ctx context.Context, o *domain.Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	GetByExternalRef(ctx context.Context, ref string) (*domain.Order, error)
	// ListByUser returns the user's orders, newest first.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Order, error)
	// UpdateStatus applies a compare-and-set: it fails with ErrConflict
	// if the order is no longer in the expected status.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.OrderStatus) error
	// AssignInvoiceNumber returns the order's invoice number, minting
	// the next sequential one exactly once per order. Concurrent first
	// calls for the same order all observe the same number.
	AssignInvoiceNumber(ctx context.Context, id uuid.UUID) (string, error)
}

// TableRepository looks up cafe tables for the reservation flow.
type TableRepository interface {
	GetActive(ctx context.Context, id uuid.UUID) (*domain.CafeTable, error)
	Upsert(ctx context.Context, t *domain.CafeTable) error
}

// ReservationRepository persists reservations. The store, not the
// caller, arbitrates slot uniqueness: Create fails with ErrConflict if
// a blocking reservation already holds (table_id, reservation_at).
type ReservationRepository interface {
	Create(ctx context.Context, r *domain.Reservation) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Reservation, error)
	ListAll(ctx context.Context) ([]domain.Reservation, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.ReservationStatus) error
}
