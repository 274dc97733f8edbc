// Package supabase is a storage driver for a hosted Supabase project. Every
// call goes through the PostgREST API, so there are no client-side
// transactions: slot uniqueness relies on the same partial unique index as
// the Postgres driver, and multi-row writes compensate on failure.
package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/supabase-community/postgrest-go"

	"github.com/groomly/groomly-api/internal/domain/booking"
	"github.com/groomly/groomly-api/internal/domain/catalog"
	"github.com/groomly/groomly-api/internal/domain/selection"
	"github.com/groomly/groomly-api/internal/domain/slot"
	"github.com/groomly/groomly-api/internal/domain/workflow"
	"github.com/groomly/groomly-api/internal/pkg/apperr"
	"github.com/groomly/groomly-api/internal/pkg/errorhandler"
	"github.com/groomly/groomly-api/internal/pkg/lock"
)

// Client is satisfied by *supabase.Client and *postgrest.Client
type Client interface {
	From(table string) *postgrest.QueryBuilder
}

// bookingLockWait bounds how long a selection write waits for a completion
// of the same booking, and the other way round.
const bookingLockWait = 5 * time.Second

// Store implements every repository on top of PostgREST
type Store struct {
	client Client
	locker lock.Locker
}

// New creates a Supabase backed store. Completion and selection writes of one
// booking are serialized by locker. A nil locker means an in-process lock,
// which only covers a single API replica; pass the Redis locker otherwise.
func New(client Client, locker lock.Locker) *Store {
	if locker == nil {
		locker = lock.NewLocalLocker(bookingLockWait)
	}
	return &Store{client: client, locker: locker}
}

// lockBooking holds the booking's lock for a multi-request write
func (s *Store) lockBooking(ctx context.Context, op string, bookingID uuid.UUID) (func(), error) {
	release, err := s.locker.Acquire(ctx, booking.LockKey(bookingID))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, apperr.Storage(op, err)
	}
	return release, nil
}

func (s *Store) Slots() slot.Repository           { return slotRepo{s} }
func (s *Store) Catalog() catalog.Repository      { return catalogRepo{s} }
func (s *Store) Bookings() booking.Repository     { return bookingRepo{s} }
func (s *Store) Selections() selection.Repository { return selectionRepo{s} }
func (s *Store) Workflow() workflow.Repository    { return workflowRepo{s} }

func (s *Store) from(table string) *postgrest.QueryBuilder {
	return s.client.From(table)
}

// run executes a query and decodes the JSON rows into out. PostgREST calls
// cannot be cancelled mid-flight, so ctx is checked before sending.
func run(ctx context.Context, op string, q *postgrest.FilterBuilder, out interface{}) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	data, count, err := q.Execute()
	if err != nil {
		return 0, err
	}
	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return 0, apperr.Storage(op, fmt.Errorf("decode response: %w", err))
		}
	}
	return count, nil
}

// isUniqueViolation matches PostgREST errors carrying SQLSTATE 23505
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "23505")
}

// isForeignKeyViolation matches SQLSTATE 23503
func isForeignKeyViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "23503")
}

func storageErr(ctx context.Context, op string, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	errorhandler.LogDatabaseError(ctx, op, err, "driver", "supabase")
	return apperr.Storage(op, err)
}

// errConcurrentUpdate means a conditional update matched nothing although a
// re-read shows the row would qualify
var errConcurrentUpdate = errors.New("row changed concurrently, retry")

var ascending = &postgrest.OrderOpts{Ascending: true}

func statusStrings(statuses []booking.Status) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
