package catalog

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/groomly/groomly-api/internal/pkg/apperr"
	"github.com/groomly/groomly-api/internal/pkg/errorhandler"
)

const queryTimeout = 5 * time.Second

// Repository defines service catalog data access
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*ServiceEntry, error)
	List(ctx context.Context, activeOnly bool) ([]*ServiceEntry, error)
	// Save inserts or replaces an entry by id
	Save(ctx context.Context, entry *ServiceEntry) error
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates a PostgreSQL catalog repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

const selectColumns = `id, name, price, type, is_active, created_at, updated_at`

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*ServiceEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var e ServiceEntry
	if err := r.db.GetContext(ctx, &e, `SELECT `+selectColumns+` FROM service_catalog WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrServiceNotFound
		}
		errorhandler.LogDatabaseError(ctx, "catalog.GetByID", err)
		return nil, apperr.Storage("get service", err)
	}
	return &e, nil
}

func (r *repository) List(ctx context.Context, activeOnly bool) ([]*ServiceEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `SELECT ` + selectColumns + ` FROM service_catalog`
	if activeOnly {
		query += ` WHERE is_active`
	}
	query += ` ORDER BY name`

	var entries []*ServiceEntry
	if err := r.db.SelectContext(ctx, &entries, query); err != nil {
		errorhandler.LogDatabaseError(ctx, "catalog.List", err)
		return nil, apperr.Storage("list services", err)
	}
	return entries, nil
}

func (r *repository) Save(ctx context.Context, e *ServiceEntry) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO service_catalog (id, name, price, type, is_active, created_at, updated_at)
		VALUES (:id, :name, :price, :type, :is_active, :created_at, :updated_at)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			price = EXCLUDED.price,
			type = EXCLUDED.type,
			is_active = EXCLUDED.is_active,
			updated_at = EXCLUDED.updated_at`, e)
	if err != nil {
		errorhandler.LogDatabaseError(ctx, "catalog.Save", err)
		return apperr.Storage("save service", err)
	}
	return nil
}
