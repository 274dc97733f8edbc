package slot

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/groomly/groomly-api/internal/pkg/actor"
	"github.com/groomly/groomly-api/internal/pkg/validator"
)

// Service handles slot catalog logic
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates slot service
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// ListAvailableSlots returns every sub-slot offered by the shop on date with
// its occupancy. A shop with nothing configured for that weekday is
// ErrNoSlotsConfigured; a fully booked day is a list with every row occupied.
func (s *Service) ListAvailableSlots(ctx context.Context, a actor.Actor, shopID uuid.UUID, date time.Time) ([]Availability, error) {
	if !a.CanAccessShop(shopID) {
		return nil, ErrShopNotFound
	}

	rows, err := s.repo.ListAvailability(ctx, shopID, validator.TruncateDate(date))
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNoSlotsConfigured
	}
	return rows, nil
}

// GetSubSlot resolves a sub-slot to its time slot and shop.
func (s *Service) GetSubSlot(ctx context.Context, id uuid.UUID) (*ConfiguredSlot, error) {
	return s.repo.GetSubSlot(ctx, id)
}

// ListConfigured returns the shop's full slot configuration
func (s *Service) ListConfigured(ctx context.Context, a actor.Actor, shopID uuid.UUID) ([]ConfiguredSlot, error) {
	if !a.CanAccessShop(shopID) {
		return nil, ErrShopNotFound
	}
	return s.repo.ListConfigured(ctx, shopID)
}

func (s *Service) CreateTimeSlot(ctx context.Context, a actor.Actor, shopID uuid.UUID, req *CreateTimeSlotRequest) (*TimeSlot, error) {
	if !a.CanAccessShop(shopID) {
		return nil, ErrShopNotFound
	}

	ts := &TimeSlot{
		ID:        uuid.New(),
		ShopID:    shopID,
		StartTime: req.StartTime,
		SortOrder: req.SortOrder,
		CreatedAt: s.now().UTC(),
	}
	if req.DayOfWeek != nil {
		ts.DayOfWeek = sql.NullInt16{Int16: int16(*req.DayOfWeek), Valid: true}
	}

	if err := s.repo.CreateTimeSlot(ctx, ts); err != nil {
		return nil, err
	}
	return ts, nil
}

func (s *Service) CreateSubSlot(ctx context.Context, a actor.Actor, timeSlotID uuid.UUID, req *CreateSubSlotRequest) (*SubTimeSlot, error) {
	ts, err := s.repo.GetTimeSlot(ctx, timeSlotID)
	if err != nil {
		return nil, err
	}
	if !a.CanAccessShop(ts.ShopID) {
		return nil, ErrTimeSlotNotFound
	}

	sub := &SubTimeSlot{
		ID:         uuid.New(),
		TimeSlotID: timeSlotID,
		SlotNumber: req.SlotNumber,
		CreatedAt:  s.now().UTC(),
	}
	if req.Description != nil && strings.TrimSpace(*req.Description) != "" {
		sub.Description = sql.NullString{String: strings.TrimSpace(*req.Description), Valid: true}
	}

	if err := s.repo.CreateSubSlot(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// DeleteSubSlot removes a sub-slot. Bookings that referenced it become unscheduled.
func (s *Service) DeleteSubSlot(ctx context.Context, a actor.Actor, id uuid.UUID) error {
	sub, err := s.repo.GetSubSlot(ctx, id)
	if err != nil {
		return err
	}
	if !a.CanAccessShop(sub.ShopID) {
		return ErrSubSlotNotFound
	}
	return s.repo.DeleteSubSlot(ctx, id)
}
