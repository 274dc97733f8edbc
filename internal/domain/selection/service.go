package selection

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/groomly/groomly-api/internal/domain/booking"
	"github.com/groomly/groomly-api/internal/domain/catalog"
	"github.com/groomly/groomly-api/internal/pkg/actor"
	"github.com/groomly/groomly-api/internal/pkg/apperr"
	"github.com/groomly/groomly-api/internal/pkg/validator"
)

// BookingReader loads bookings by id
type BookingReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*booking.Booking, error)
}

// CatalogReader loads catalog entries by id
type CatalogReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*catalog.ServiceEntry, error)
}

// Service manages the services attached to a booking
type Service struct {
	repo     Repository
	bookings BookingReader
	catalog  CatalogReader
	now      func() time.Time
}

// NewService creates selection service
func NewService(repo Repository, bookings BookingReader, catalog CatalogReader) *Service {
	return &Service{
		repo:     repo,
		bookings: bookings,
		catalog:  catalog,
		now:      time.Now,
	}
}

// SelectService attaches a catalog service to an open booking.
// Input services need a non-blank note.
func (s *Service) SelectService(ctx context.Context, a actor.Actor, bookingID uuid.UUID, req *SelectRequest) (*SelectedService, error) {
	if errs := validator.Validate(req); errs != nil {
		return nil, apperr.ValidationErrors(errs)
	}

	b, err := s.openBooking(ctx, a, bookingID)
	if err != nil {
		return nil, err
	}

	entry, err := s.catalog.GetByID(ctx, req.ServiceID)
	if err != nil {
		return nil, err
	}
	if !entry.IsActive {
		return nil, catalog.ErrServiceNotFound
	}

	note := normalizeNote(req.InputValue)
	if entry.Type.RequiresNote() && !note.Valid {
		return nil, ErrNoteRequired
	}

	now := s.now().UTC()
	sel := &SelectedService{
		ID:         uuid.New(),
		BookingID:  b.ID,
		ServiceID:  entry.ID,
		InputValue: note,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.Insert(ctx, sel); err != nil {
		return nil, err
	}
	return sel, nil
}

// UpdateSelectionNote overwrites the care tip of a selection
func (s *Service) UpdateSelectionNote(ctx context.Context, a actor.Actor, selectionID uuid.UUID, req *UpdateNoteRequest) (*SelectedService, error) {
	if errs := validator.Validate(req); errs != nil {
		return nil, apperr.ValidationErrors(errs)
	}

	sel, err := s.repo.GetByID(ctx, selectionID)
	if err != nil {
		return nil, err
	}
	if _, err := s.openBooking(ctx, a, sel.BookingID); err != nil {
		if errors.Is(err, booking.ErrBookingNotFound) {
			return nil, ErrSelectionNotFound
		}
		return nil, err
	}

	entry, err := s.catalog.GetByID(ctx, sel.ServiceID)
	if err != nil {
		return nil, err
	}

	note := normalizeNote(req.InputValue)
	if entry.Type.RequiresNote() && !note.Valid {
		return nil, ErrNoteRequired
	}

	return s.repo.UpdateNote(ctx, selectionID, note, s.now().UTC())
}

// DeselectService detaches a service from an open booking
func (s *Service) DeselectService(ctx context.Context, a actor.Actor, bookingID, serviceID uuid.UUID) error {
	if _, err := s.openBooking(ctx, a, bookingID); err != nil {
		return err
	}
	return s.repo.Delete(ctx, bookingID, serviceID)
}

// ListSelections returns the booking's selections with catalog name and
// price. Completed bookings return their frozen snapshot.
func (s *Service) ListSelections(ctx context.Context, a actor.Actor, bookingID uuid.UUID) ([]SelectionView, error) {
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := booking.Authorize(a, b); err != nil {
		return nil, err
	}
	return s.ListForBooking(ctx, b)
}

// ListForBooking lists selections of an already authorized booking
func (s *Service) ListForBooking(ctx context.Context, b *booking.Booking) ([]SelectionView, error) {
	if b.Status == booking.StatusCompleted {
		frozen, err := s.repo.ListFrozen(ctx, b.ID)
		if err != nil {
			return nil, err
		}
		return FrozenViews(frozen), nil
	}
	return s.repo.ListLive(ctx, b.ID)
}

// openBooking loads a booking the actor may edit. The repository repeats the
// status check atomically with the write.
func (s *Service) openBooking(ctx context.Context, a actor.Actor, bookingID uuid.UUID) (*booking.Booking, error) {
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := booking.Authorize(a, b); err != nil {
		return nil, err
	}
	if err := GuardWritable(b.Status); err != nil {
		return nil, err
	}
	return b, nil
}

func normalizeNote(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: trimmed, Valid: true}
}
