package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"blackcoffe/internal/apperr"
	"blackcoffe/internal/domain"
	"blackcoffe/internal/repository"
)

type CreateReservationRequest struct {
	TableID       uuid.UUID `json:"table_id" binding:"required"`
	ReservationAt time.Time `json:"reservation_at" binding:"required"`
	PartySize     int       `json:"party_size" binding:"required,min=1"`
	Notes         string    `json:"notes" binding:"max=500"`
}

// ReservationService books tables. The slot uniqueness check lives in
// the repository, so two concurrent requests for the same table and
// timestamp cannot both succeed.
type ReservationService struct {
	tables       repository.TableRepository
	reservations repository.ReservationRepository
}

func NewReservationService(tables repository.TableRepository, reservations repository.ReservationRepository) *ReservationService {
	return &ReservationService{tables: tables, reservations: reservations}
}

func (s *ReservationService) Create(ctx context.Context, userID uuid.UUID, req CreateReservationRequest) (*domain.Reservation, error) {
	if userID == uuid.Nil {
		return nil, apperr.Auth("Debes iniciar sesion para reservar.")
	}
	if req.PartySize < 1 {
		return nil, apperr.Validation("El numero de personas debe ser al menos 1.")
	}

	table, err := s.tables.GetActive(ctx, req.TableID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("Mesa no encontrada.")
		}
		return nil, apperr.Unavailable("No se pudo consultar la mesa.", err)
	}
	if req.PartySize > table.Capacity {
		return nil, apperr.Validation("La capacidad de la mesa es insuficiente.")
	}

	res := &domain.Reservation{
		UserID:        userID,
		TableID:       table.ID,
		TableName:     table.Name,
		ReservationAt: req.ReservationAt,
		PartySize:     req.PartySize,
		Status:        domain.ReservationPendiente,
		Notes:         strings.TrimSpace(req.Notes),
	}
	if err := s.reservations.Create(ctx, res); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, apperr.Conflict("La mesa ya esta reservada en ese horario.")
		}
		return nil, apperr.Unavailable("No se pudo guardar la reserva.", err)
	}
	return res, nil
}

func (s *ReservationService) GetMyReservations(ctx context.Context, userID uuid.UUID) ([]domain.Reservation, error) {
	if userID == uuid.Nil {
		return nil, apperr.Auth("Debes iniciar sesion para ver tus reservas.")
	}
	out, err := s.reservations.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperr.Unavailable("No se pudieron consultar las reservas.", err)
	}
	return out, nil
}

func (s *ReservationService) GetAll(ctx context.Context) ([]domain.Reservation, error) {
	out, err := s.reservations.ListAll(ctx)
	if err != nil {
		return nil, apperr.Unavailable("No se pudieron consultar las reservas.", err)
	}
	return out, nil
}

func (s *ReservationService) UpdateStatus(ctx context.Context, reservationID uuid.UUID, newStatus string) error {
	parsed, ok := domain.ParseReservationStatus(newStatus)
	if !ok {
		return apperr.Validation("Estado de reserva invalido.")
	}
	if err := s.reservations.UpdateStatus(ctx, reservationID, parsed); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("Reserva no encontrada.")
		}
		return apperr.Unavailable("No se pudo actualizar la reserva.", err)
	}
	return nil
}
