package report

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/groomly/groomly-api/internal/domain/booking"
	"github.com/groomly/groomly-api/internal/domain/selection"
	"github.com/groomly/groomly-api/internal/domain/workflow"
	"github.com/groomly/groomly-api/internal/pkg/actor"
	"github.com/groomly/groomly-api/internal/pkg/apperr"
	"github.com/groomly/groomly-api/internal/pkg/storage"
)

const pageSize = 500

// BookingLister reads bookings
type BookingLister interface {
	GetByID(ctx context.Context, id uuid.UUID) (*booking.Booking, error)
	List(ctx context.Context, filter booking.ListFilter) ([]*booking.Booking, int, error)
}

// FrozenReader reads frozen selection snapshots
type FrozenReader interface {
	ListFrozenForBookings(ctx context.Context, bookingIDs []uuid.UUID) (map[uuid.UUID][]selection.FrozenSelection, error)
}

// FeedbackReader reads feedback
type FeedbackReader interface {
	GetFeedback(ctx context.Context, bookingID uuid.UUID) (*workflow.Feedback, error)
	ListFeedback(ctx context.Context, bookingIDs []uuid.UUID) (map[uuid.UUID]*workflow.Feedback, error)
}

// Service is the read-only facade used by reporting and receipt consumers
type Service struct {
	bookings   BookingLister
	frozen     FrozenReader
	feedback   FeedbackReader
	selections *selection.Service
	archiver   *Archiver
	now        func() time.Time
}

// NewService creates report service. archiver may be nil.
func NewService(bookings BookingLister, frozen FrozenReader, feedback FeedbackReader, selections *selection.Service, archiver *Archiver) *Service {
	return &Service{
		bookings:   bookings,
		frozen:     frozen,
		feedback:   feedback,
		selections: selections,
		archiver:   archiver,
		now:        time.Now,
	}
}

// CompletedBookings returns bookings completed in [from, to) with their
// frozen selections and feedback. Non-admin actors are scoped to their shop;
// admins may narrow with shopID.
func (s *Service) CompletedBookings(ctx context.Context, a actor.Actor, shopID uuid.NullUUID, from, to time.Time) ([]CompletedBooking, error) {
	if to.Before(from) {
		return nil, ErrInvalidRange
	}

	filter := booking.ListFilter{
		ShopID:        shopID,
		Status:        booking.StatusCompleted,
		CompletedFrom: &from,
		CompletedTo:   &to,
		Limit:         pageSize,
	}
	if !a.IsAdmin() {
		filter.ShopID = uuid.NullUUID{UUID: a.ShopID, Valid: true}
	}

	var all []*booking.Booking
	for page := 1; ; page++ {
		filter.Page = page
		rows, total, err := s.bookings.List(ctx, filter)
		if err != nil {
			return nil, err
		}
		all = append(all, rows...)
		if len(rows) == 0 || len(all) >= total {
			break
		}
	}

	ids := make([]uuid.UUID, len(all))
	for i, b := range all {
		ids[i] = b.ID
	}

	frozen, err := s.frozen.ListFrozenForBookings(ctx, ids)
	if err != nil {
		return nil, err
	}
	feedback, err := s.feedback.ListFeedback(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]CompletedBooking, len(all))
	for i, b := range all {
		views := selection.FrozenViews(frozen[b.ID])
		out[i] = CompletedBooking{
			Booking:    b,
			Selections: views,
			Feedback:   feedback[b.ID],
			Total:      selection.Total(views),
		}
	}
	return out, nil
}

// Receipt returns booking fields with the same selections ListSelections
// reports, plus the total.
func (s *Service) Receipt(ctx context.Context, a actor.Actor, bookingID uuid.UUID) (*Receipt, error) {
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := booking.Authorize(a, b); err != nil {
		return nil, err
	}

	views, err := s.selections.ListForBooking(ctx, b)
	if err != nil {
		return nil, err
	}

	receipt := &Receipt{
		Booking:     b,
		Selections:  views,
		Total:       selection.Total(views),
		GeneratedAt: s.now().UTC(),
	}

	if b.Status == booking.StatusCompleted {
		f, err := s.feedback.GetFeedback(ctx, b.ID)
		switch {
		case err == nil:
			receipt.Feedback = f
		case !errors.Is(err, workflow.ErrFeedbackNotFound):
			return nil, err
		}
	}
	return receipt, nil
}

// ArchivedCompletion reads the archived document of a completed booking
func (s *Service) ArchivedCompletion(ctx context.Context, a actor.Actor, bookingID uuid.UUID) (*ArchiveRecord, string, error) {
	if s.archiver == nil {
		return nil, "", ErrArchiveNotFound
	}

	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, "", err
	}
	if err := booking.Authorize(a, b); err != nil {
		return nil, "", err
	}
	if b.Status != booking.StatusCompleted {
		return nil, "", ErrArchiveNotFound
	}

	record, err := s.archiver.Load(ctx, b)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, "", ErrArchiveNotFound
		}
		return nil, "", apperr.Storage("load archive", err)
	}
	return record, s.archiver.URL(b), nil
}
