package booking

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/groomly/groomly-api/internal/domain/notification"
	"github.com/groomly/groomly-api/internal/domain/slot"
	"github.com/groomly/groomly-api/internal/pkg/actor"
	"github.com/groomly/groomly-api/internal/pkg/apperr"
	"github.com/groomly/groomly-api/internal/pkg/lock"
	"github.com/groomly/groomly-api/internal/pkg/validator"
)

// SlotResolver resolves a sub-slot through its time slot to the owning shop
type SlotResolver interface {
	GetSubSlot(ctx context.Context, id uuid.UUID) (*slot.ConfiguredSlot, error)
}

// Service handles booking business logic
type Service struct {
	repo     Repository
	slots    SlotResolver
	locker   lock.Locker
	notifier notification.Notifier
	now      func() time.Time
}

// NewService creates booking service. locker may be nil when the repository
// enforces slot uniqueness on its own.
func NewService(repo Repository, slots SlotResolver, locker lock.Locker, notifier notification.Notifier) *Service {
	if notifier == nil {
		notifier = notification.Nop{}
	}
	return &Service{
		repo:     repo,
		slots:    slots,
		locker:   locker,
		notifier: notifier,
		now:      time.Now,
	}
}

// Authorize hides bookings of other shops behind ErrBookingNotFound
func Authorize(a actor.Actor, b *Booking) error {
	if !a.CanAccessShop(b.ShopID) {
		return ErrBookingNotFound
	}
	return nil
}

// CreateBooking validates the details and claims the sub-slot, if any.
// The occupancy pre-check fails fast; the repository re-checks atomically.
func (s *Service) CreateBooking(ctx context.Context, a actor.Actor, req *CreateBookingRequest) (*Booking, error) {
	if errs := validator.Validate(req); errs != nil {
		return nil, apperr.ValidationErrors(errs)
	}

	shopID, err := resolveShop(a, req.ShopID)
	if err != nil {
		return nil, err
	}
	date, err := validator.ParseDate(req.BookingDate)
	if err != nil {
		return nil, apperr.Invalid("booking_date", "Invalid date. Expected YYYY-MM-DD")
	}

	now := s.now().UTC()
	b := &Booking{
		ID:            uuid.New(),
		ShopID:        shopID,
		CustomerName:  strings.TrimSpace(req.CustomerName),
		ContactNumber: strings.TrimSpace(req.ContactNumber),
		DogName:       strings.TrimSpace(req.DogName),
		DogBreed:      strings.TrimSpace(req.DogBreed),
		BookingDate:   date,
		Status:        StatusReserved,
		CreatedBy:     a.CreatedBy(),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if req.Notes != nil && strings.TrimSpace(*req.Notes) != "" {
		b.Notes = sql.NullString{String: strings.TrimSpace(*req.Notes), Valid: true}
	}

	if req.SubTimeSlotID == nil {
		if err := s.repo.Create(ctx, b); err != nil {
			return nil, err
		}
		s.emit(ctx, a, b, notification.TypeBookingCreated)
		return b, nil
	}

	cs, err := s.resolveSlot(ctx, shopID, *req.SubTimeSlotID, date)
	if err != nil {
		return nil, err
	}
	b.SubTimeSlotID = uuid.NullUUID{UUID: cs.SubTimeSlotID, Valid: true}
	b.SlotTime = sql.NullString{String: cs.StartTime, Valid: true}

	release, err := s.lockSlot(ctx, date, cs.SubTimeSlotID)
	if err != nil {
		return nil, err
	}
	defer release()

	if err := s.ensureFree(ctx, date, cs.SubTimeSlotID, uuid.Nil); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, b); err != nil {
		return nil, err
	}

	s.emit(ctx, a, b, notification.TypeBookingCreated)
	return b, nil
}

// RescheduleBooking moves an open booking to another sub-slot and/or date.
// The old slot is freed by the same write.
func (s *Service) RescheduleBooking(ctx context.Context, a actor.Actor, id uuid.UUID, req *RescheduleRequest) (*Booking, error) {
	if errs := validator.Validate(req); errs != nil {
		return nil, apperr.ValidationErrors(errs)
	}

	b, err := s.GetBooking(ctx, a, id)
	if err != nil {
		return nil, err
	}
	if err := GuardOpen(b.Status); err != nil {
		return nil, err
	}

	date := b.BookingDate
	if req.BookingDate != nil {
		if date, err = validator.ParseDate(*req.BookingDate); err != nil {
			return nil, apperr.Invalid("booking_date", "Invalid date. Expected YYYY-MM-DD")
		}
	}
	sameDate := validator.TruncateDate(date).Equal(validator.TruncateDate(b.BookingDate))

	if req.SubTimeSlotID == nil {
		if !b.IsScheduled() && sameDate {
			return b, nil
		}
		updated, err := s.repo.UpdateSlot(ctx, b.ID, date, sql.NullString{}, uuid.NullUUID{}, s.now().UTC())
		if err != nil {
			return nil, err
		}
		s.emit(ctx, a, updated, notification.TypeBookingRescheduled)
		return updated, nil
	}

	target := *req.SubTimeSlotID
	if sameDate && b.SubTimeSlotID.Valid && b.SubTimeSlotID.UUID == target {
		return b, nil
	}

	cs, err := s.resolveSlot(ctx, b.ShopID, target, date)
	if err != nil {
		return nil, err
	}

	release, err := s.lockSlot(ctx, date, target)
	if err != nil {
		return nil, err
	}
	defer release()

	if err := s.ensureFree(ctx, date, target, b.ID); err != nil {
		return nil, err
	}

	updated, err := s.repo.UpdateSlot(ctx, b.ID, date,
		sql.NullString{String: cs.StartTime, Valid: true},
		uuid.NullUUID{UUID: target, Valid: true},
		s.now().UTC())
	if err != nil {
		return nil, err
	}

	s.emit(ctx, a, updated, notification.TypeBookingRescheduled)
	return updated, nil
}

// CancelBooking moves a reserved or in-progress booking to cancelled, which
// releases its slot.
func (s *Service) CancelBooking(ctx context.Context, a actor.Actor, id uuid.UUID) (*Booking, error) {
	if _, err := s.GetBooking(ctx, a, id); err != nil {
		return nil, err
	}

	b, err := s.repo.TransitionStatus(ctx, id, ActiveStatuses, StatusCancelled, s.now().UTC())
	if err != nil {
		return nil, err
	}

	s.emit(ctx, a, b, notification.TypeBookingCancelled)
	return b, nil
}

// GetBooking returns a booking visible to the actor
func (s *Service) GetBooking(ctx context.Context, a actor.Actor, id uuid.UUID) (*Booking, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := Authorize(a, b); err != nil {
		return nil, err
	}
	return b, nil
}

// ListBookings lists bookings. Non-admin actors only see their shop.
func (s *Service) ListBookings(ctx context.Context, a actor.Actor, filter ListFilter) ([]*Booking, int, error) {
	if !a.IsAdmin() {
		filter.ShopID = uuid.NullUUID{UUID: a.ShopID, Valid: true}
	}
	filter.Normalize()
	return s.repo.List(ctx, filter)
}

// DeleteBooking removes a booking with its selections and feedback
func (s *Service) DeleteBooking(ctx context.Context, a actor.Actor, id uuid.UUID) error {
	b, err := s.GetBooking(ctx, a, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.emit(ctx, a, b, notification.TypeBookingDeleted)
	return nil
}

func resolveShop(a actor.Actor, requested *uuid.UUID) (uuid.UUID, error) {
	if requested != nil && *requested != uuid.Nil {
		if !a.CanAccessShop(*requested) {
			return uuid.Nil, slot.ErrShopNotFound
		}
		return *requested, nil
	}
	if a.ShopID == uuid.Nil {
		return uuid.Nil, apperr.Invalid("shop_id", "This field is required")
	}
	return a.ShopID, nil
}

func (s *Service) resolveSlot(ctx context.Context, shopID, subSlotID uuid.UUID, date time.Time) (*slot.ConfiguredSlot, error) {
	cs, err := s.slots.GetSubSlot(ctx, subSlotID)
	if err != nil {
		return nil, err
	}
	if cs.ShopID != shopID {
		return nil, slot.ErrSubSlotNotFound
	}
	if !cs.OfferedOn(date) {
		return nil, ErrSlotNotOffered
	}
	return cs, nil
}

func (s *Service) ensureFree(ctx context.Context, date time.Time, subSlotID, self uuid.UUID) error {
	holder, err := s.repo.FindActiveOnSlot(ctx, date, subSlotID)
	if err != nil {
		return err
	}
	if holder != nil && holder.ID != self {
		return ErrSlotTaken
	}
	return nil
}

func (s *Service) lockSlot(ctx context.Context, date time.Time, subSlotID uuid.UUID) (func(), error) {
	if s.locker == nil {
		return func() {}, nil
	}

	release, err := s.locker.Acquire(ctx, SlotKey(date, subSlotID))
	switch {
	case err == nil:
		return release, nil
	case errors.Is(err, lock.ErrNotAcquired):
		return nil, ErrSlotBusy
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return nil, err
	default:
		return nil, apperr.Storage("acquire slot lock", err)
	}
}

func (s *Service) emit(ctx context.Context, a actor.Actor, b *Booking, t notification.Type) {
	s.notifier.Send(ctx, notification.Event{
		BookingID:  b.ID,
		ShopID:     b.ShopID,
		Type:       t,
		Status:     string(b.Status),
		ActorID:    a.UserID,
		OccurredAt: s.now().UTC(),
	})
}
