package supabase

import (
	"context"

	"github.com/google/uuid"

	"github.com/groomly/groomly-api/internal/domain/catalog"
)

type catalogRepo struct{ s *Store }

func (r catalogRepo) GetByID(ctx context.Context, id uuid.UUID) (*catalog.ServiceEntry, error) {
	var rows []serviceRow
	q := r.s.from("service_catalog").Select("*", "", false).Eq("id", id.String())
	if _, err := run(ctx, "catalog.GetByID", q, &rows); err != nil {
		return nil, storageErr(ctx, "get service", err)
	}
	if len(rows) == 0 {
		return nil, catalog.ErrServiceNotFound
	}
	return rows[0].entity(), nil
}

func (r catalogRepo) List(ctx context.Context, activeOnly bool) ([]*catalog.ServiceEntry, error) {
	q := r.s.from("service_catalog").Select("*", "", false)
	if activeOnly {
		q = q.Eq("is_active", "true")
	}
	q = q.Order("name", ascending)

	var rows []serviceRow
	if _, err := run(ctx, "catalog.List", q, &rows); err != nil {
		return nil, storageErr(ctx, "list services", err)
	}
	out := make([]*catalog.ServiceEntry, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.entity())
	}
	return out, nil
}

func (r catalogRepo) Save(ctx context.Context, e *catalog.ServiceEntry) error {
	q := r.s.from("service_catalog").Insert(serviceRow(*e), true, "id", "minimal", "")
	if _, err := run(ctx, "catalog.Save", q, nil); err != nil {
		return storageErr(ctx, "save service", err)
	}
	return nil
}
