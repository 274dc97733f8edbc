package catalog

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/groomly/groomly-api/internal/pkg/apperr"
)

// Service exposes the catalog read-only to the booking core, plus the
// import path used by operators.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates catalog service
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*ServiceEntry, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, activeOnly bool) ([]*ServiceEntry, error) {
	return s.repo.List(ctx, activeOnly)
}

// Import upserts entries. Entries without an id get a new one.
func (s *Service) Import(ctx context.Context, entries []ImportEntry) ([]*ServiceEntry, error) {
	now := s.now().UTC()
	saved := make([]*ServiceEntry, 0, len(entries))

	for i, in := range entries {
		if strings.TrimSpace(in.Name) == "" {
			return saved, apperr.Invalid("name", "entry "+strconv.Itoa(i)+": name is required")
		}
		if in.Price < 0 {
			return saved, apperr.Invalid("price", "entry "+strconv.Itoa(i)+": price must not be negative")
		}
		t := ServiceType(in.Type)
		if !t.Valid() {
			return saved, ErrInvalidType
		}

		e := &ServiceEntry{
			ID:        in.ID,
			Name:      strings.TrimSpace(in.Name),
			Price:     in.Price,
			Type:      t,
			IsActive:  in.Active == nil || *in.Active,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if e.ID == uuid.Nil {
			e.ID = uuid.New()
		}
		if err := s.repo.Save(ctx, e); err != nil {
			return saved, err
		}
		saved = append(saved, e)
	}
	return saved, nil
}
