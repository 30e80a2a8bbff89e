package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"blackcoffe/internal/apperr"
	"blackcoffe/internal/domain"
	"blackcoffe/internal/repository"
)

func setupReservations(t *testing.T) (*repository.MemoryStore, *ReservationService) {
	t.Helper()
	store := repository.NewMemoryStore()
	svc := NewReservationService(store, repository.NewMemoryReservations(store))
	return store, svc
}

func addTable(t *testing.T, store *repository.MemoryStore, name string, capacity int, active bool) *domain.CafeTable {
	t.Helper()
	tbl := &domain.CafeTable{Name: name, Capacity: capacity, IsActive: active}
	if err := store.Upsert(context.Background(), tbl); err != nil {
		t.Fatalf("upsert table: %v", err)
	}
	return tbl
}

func TestCreateReservation_Capacity(t *testing.T) {
	ctx := context.Background()
	store, svc := setupReservations(t)
	tbl := addTable(t, store, "Mesa 1", 4, true)
	at := time.Date(2026, 3, 14, 19, 0, 0, 0, time.UTC)

	_, err := svc.Create(ctx, uuid.New(), CreateReservationRequest{
		TableID: tbl.ID, ReservationAt: at, PartySize: 5,
	})
	wantKind(t, err, apperr.KindValidation)

	// exact capacity is fine
	res, err := svc.Create(ctx, uuid.New(), CreateReservationRequest{
		TableID: tbl.ID, ReservationAt: at, PartySize: 4,
	})
	if err != nil {
		t.Fatalf("party size == capacity rejected: %v", err)
	}
	if res.Status != domain.ReservationPendiente {
		t.Fatalf("status = %s, want Pendiente", res.Status)
	}
	if res.TableName != "Mesa 1" {
		t.Fatalf("table name = %q", res.TableName)
	}
}

func TestCreateReservation_TableChecks(t *testing.T) {
	ctx := context.Background()
	store, svc := setupReservations(t)
	inactive := addTable(t, store, "Mesa vieja", 4, false)
	at := time.Now().Add(24 * time.Hour)

	_, err := svc.Create(ctx, uuid.New(), CreateReservationRequest{
		TableID: inactive.ID, ReservationAt: at, PartySize: 2,
	})
	wantKind(t, err, apperr.KindNotFound)

	_, err = svc.Create(ctx, uuid.New(), CreateReservationRequest{
		TableID: uuid.New(), ReservationAt: at, PartySize: 2,
	})
	wantKind(t, err, apperr.KindNotFound)

	_, err = svc.Create(ctx, uuid.Nil, CreateReservationRequest{
		TableID: inactive.ID, ReservationAt: at, PartySize: 2,
	})
	wantKind(t, err, apperr.KindAuth)
}

func TestCreateReservation_SlotConflict(t *testing.T) {
	ctx := context.Background()
	store, svc := setupReservations(t)
	tbl := addTable(t, store, "Mesa 2", 6, true)
	at := time.Date(2026, 3, 14, 19, 0, 0, 0, time.UTC)

	if _, err := svc.Create(ctx, uuid.New(), CreateReservationRequest{
		TableID: tbl.ID, ReservationAt: at, PartySize: 2,
	}); err != nil {
		t.Fatalf("first booking: %v", err)
	}
	_, err := svc.Create(ctx, uuid.New(), CreateReservationRequest{
		TableID: tbl.ID, ReservationAt: at, PartySize: 2,
	})
	wantKind(t, err, apperr.KindConflict)

	// a different minute is a different slot
	if _, err := svc.Create(ctx, uuid.New(), CreateReservationRequest{
		TableID: tbl.ID, ReservationAt: at.Add(time.Minute), PartySize: 2,
	}); err != nil {
		t.Fatalf("different slot rejected: %v", err)
	}
}

func TestCreateReservation_ConcurrentSameSlot(t *testing.T) {
	ctx := context.Background()
	store, svc := setupReservations(t)
	tbl := addTable(t, store, "Mesa 3", 8, true)
	at := time.Date(2026, 6, 1, 20, 0, 0, 0, time.UTC)

	const racers = 12
	errs := make([]error, racers)
	var wg sync.WaitGroup
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Create(ctx, uuid.New(), CreateReservationRequest{
				TableID: tbl.ID, ReservationAt: at, PartySize: 2,
			})
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
			continue
		}
		if apperr.KindOf(err) != apperr.KindConflict {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if winners != 1 {
		t.Fatalf("winners = %d, want exactly 1", winners)
	}
}

func TestReservation_Lists(t *testing.T) {
	ctx := context.Background()
	store, svc := setupReservations(t)
	tbl := addTable(t, store, "Mesa 4", 4, true)
	user := uuid.New()

	for i := 0; i < 3; i++ {
		at := time.Date(2026, 7, 1+i, 19, 0, 0, 0, time.UTC)
		if _, err := svc.Create(ctx, user, CreateReservationRequest{
			TableID: tbl.ID, ReservationAt: at, PartySize: 2,
		}); err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
	}
	if _, err := svc.Create(ctx, uuid.New(), CreateReservationRequest{
		TableID: tbl.ID, ReservationAt: time.Date(2026, 8, 1, 19, 0, 0, 0, time.UTC), PartySize: 2,
	}); err != nil {
		t.Fatalf("other user: %v", err)
	}

	mine, err := svc.GetMyReservations(ctx, user)
	if err != nil {
		t.Fatalf("my reservations: %v", err)
	}
	if len(mine) != 3 {
		t.Fatalf("mine = %d, want 3", len(mine))
	}
	all, err := svc.GetAll(ctx)
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("all = %d, want 4", len(all))
	}
}

func TestReservation_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	store, svc := setupReservations(t)
	tbl := addTable(t, store, "Mesa 5", 4, true)

	res, err := svc.Create(ctx, uuid.New(), CreateReservationRequest{
		TableID: tbl.ID, ReservationAt: time.Now().Add(time.Hour), PartySize: 2,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.UpdateStatus(ctx, res.ID, "confirmada"); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	wantKind(t, svc.UpdateStatus(ctx, res.ID, "Fantasma"), apperr.KindValidation)
	wantKind(t, svc.UpdateStatus(ctx, uuid.New(), "Cancelada"), apperr.KindNotFound)
}
