package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/groomly/groomly-api/internal/domain/booking"
	"github.com/groomly/groomly-api/internal/domain/selection"
	"github.com/groomly/groomly-api/internal/domain/workflow"
	"github.com/groomly/groomly-api/internal/pkg/logger"
	"github.com/groomly/groomly-api/internal/pkg/storage"
	"github.com/groomly/groomly-api/internal/pkg/validator"
)

// Archiver writes every completed booking with its frozen selections to
// object storage. It is a workflow.CompletionSink.
type Archiver struct {
	store storage.Storage
	now   func() time.Time
}

// NewArchiver creates an archiver on top of S3 or a local directory
func NewArchiver(store storage.Storage) *Archiver {
	return &Archiver{store: store, now: time.Now}
}

// ArchiveKey returns completed/{shop}/{date}/{booking}.json
func ArchiveKey(b *booking.Booking) string {
	return fmt.Sprintf("completed/%s/%s/%s.json",
		b.ShopID, b.BookingDate.Format(validator.DateLayout), b.ID)
}

// OnCompleted implements workflow.CompletionSink
func (a *Archiver) OnCompleted(ctx context.Context, result workflow.CompletionResult) error {
	record := ArchiveRecord{
		Booking:    booking.ResponseFromEntity(result.Booking),
		Selections: selection.ViewResponses(result.Views()),
		Total:      result.Total(),
		ArchivedAt: a.now().UTC(),
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode archive record: %w", err)
	}

	key := ArchiveKey(result.Booking)
	if err := a.store.Save(ctx, key, bytes.NewReader(data), "application/json"); err != nil {
		return fmt.Errorf("failed to archive completion: %w", err)
	}

	logger.LogDebug(ctx, "Completion archived", "booking_id", result.Booking.ID.String(), "key", key)
	return nil
}

// Load reads an archived completion back
func (a *Archiver) Load(ctx context.Context, b *booking.Booking) (*ArchiveRecord, error) {
	rc, err := a.store.Open(ctx, ArchiveKey(b))
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var record ArchiveRecord
	if err := json.NewDecoder(rc).Decode(&record); err != nil {
		return nil, fmt.Errorf("failed to decode archive record: %w", err)
	}
	return &record, nil
}

// URL returns where the archived completion lives
func (a *Archiver) URL(b *booking.Booking) string {
	return a.store.GetURL(ArchiveKey(b))
}
