// Package store opens the configured storage driver and hands out its
// repositories.
package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/groomly/groomly-api/internal/config"
	"github.com/groomly/groomly-api/internal/domain/booking"
	"github.com/groomly/groomly-api/internal/domain/catalog"
	"github.com/groomly/groomly-api/internal/domain/selection"
	"github.com/groomly/groomly-api/internal/domain/slot"
	"github.com/groomly/groomly-api/internal/domain/workflow"
	"github.com/groomly/groomly-api/internal/pkg/database"
	"github.com/groomly/groomly-api/internal/pkg/lock"
	"github.com/groomly/groomly-api/internal/store/memory"
	"github.com/groomly/groomly-api/internal/store/supabase"
)

// Repositories is one driver's set of repositories
type Repositories struct {
	Driver     string
	Slots      slot.Repository
	Catalog    catalog.Repository
	Bookings   booking.Repository
	Selections selection.Repository
	Workflow   workflow.Repository

	// DB is set for the postgres driver only
	DB *sqlx.DB
}

// Close releases the driver's connections
func (r *Repositories) Close() {
	if r.DB != nil {
		database.ClosePostgres(r.DB)
	}
}

// view is implemented by the in-process and REST drivers
type view interface {
	Slots() slot.Repository
	Catalog() catalog.Repository
	Bookings() booking.Repository
	Selections() selection.Repository
	Workflow() workflow.Repository
}

func fromView(driver string, v view) *Repositories {
	return &Repositories{
		Driver:     driver,
		Slots:      v.Slots(),
		Catalog:    v.Catalog(),
		Bookings:   v.Bookings(),
		Selections: v.Selections(),
		Workflow:   v.Workflow(),
	}
}

// Postgres builds repositories on an open database handle
func Postgres(db *sqlx.DB) *Repositories {
	return &Repositories{
		Driver:     config.DriverPostgres,
		Slots:      slot.NewRepository(db),
		Catalog:    catalog.NewRepository(db),
		Bookings:   booking.NewRepository(db),
		Selections: selection.NewRepository(db),
		Workflow:   workflow.NewRepository(db),
		DB:         db,
	}
}

// Memory builds repositories on a fresh in-process store
func Memory() (*Repositories, *memory.Store) {
	m := memory.New()
	return fromView(config.DriverMemory, m), m
}

// OpenOptions tunes Open
type OpenOptions struct {
	// Migrate brings the postgres schema up to date first
	Migrate bool
	// Locker serializes multi-request booking writes in the supabase driver
	Locker lock.Locker
}

// Open connects the driver named by cfg.StorageDriver.
func Open(ctx context.Context, cfg *config.Config, opts OpenOptions) (*Repositories, error) {
	switch cfg.StorageDriver {
	case config.DriverPostgres:
		db, err := database.NewPostgres(ctx, cfg.DatabaseURL, PoolConfig(cfg))
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if opts.Migrate {
			applied, err := database.Migrate(ctx, db)
			if err != nil {
				database.ClosePostgres(db)
				return nil, fmt.Errorf("migrate: %w", err)
			}
			log.Info().Int("applied", applied).Msg("Database migrations applied")
		}
		return Postgres(db), nil

	case config.DriverSupabase:
		client, err := database.NewSupabase(cfg.SupabaseURL, cfg.SupabaseServiceKey)
		if err != nil {
			return nil, fmt.Errorf("connect supabase: %w", err)
		}
		return fromView(config.DriverSupabase, supabase.New(client, opts.Locker)), nil

	case config.DriverMemory:
		log.Warn().Msg("Using in-memory storage, data is lost on restart")
		repos, _ := Memory()
		return repos, nil
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
}

// PoolConfig returns the postgres pool sizing from cfg
func PoolConfig(cfg *config.Config) database.PoolConfig {
	return database.PoolConfig{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnLifetime,
	}
}
