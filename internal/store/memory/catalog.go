package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/groomly/groomly-api/internal/domain/catalog"
)

type catalogRepo struct{ s *Store }

func (r catalogRepo) GetByID(ctx context.Context, id uuid.UUID) (*catalog.ServiceEntry, error) {
	if err := r.s.lock(ctx); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()

	e, ok := r.s.services[id]
	if !ok {
		return nil, catalog.ErrServiceNotFound
	}
	cp := *e
	return &cp, nil
}

func (r catalogRepo) List(ctx context.Context, activeOnly bool) ([]*catalog.ServiceEntry, error) {
	if err := r.s.lock(ctx); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()

	out := make([]*catalog.ServiceEntry, 0, len(r.s.services))
	for _, e := range r.s.services {
		if activeOnly && !e.IsActive {
			continue
		}
		cp := *e
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r catalogRepo) Save(ctx context.Context, e *catalog.ServiceEntry) error {
	if err := r.s.lock(ctx); err != nil {
		return err
	}
	defer r.s.mu.Unlock()

	cp := *e
	if existing, ok := r.s.services[e.ID]; ok {
		cp.CreatedAt = existing.CreatedAt
	}
	r.s.services[e.ID] = &cp
	return nil
}
