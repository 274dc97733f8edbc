package workflow_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/groomly/groomly-api/internal/domain/booking"
	"github.com/groomly/groomly-api/internal/domain/catalog"
	"github.com/groomly/groomly-api/internal/domain/notification"
	"github.com/groomly/groomly-api/internal/domain/selection"
	"github.com/groomly/groomly-api/internal/domain/workflow"
	"github.com/groomly/groomly-api/internal/pkg/actor"
	"github.com/groomly/groomly-api/internal/pkg/apperr"
	"github.com/groomly/groomly-api/internal/store/memory"
)

type recordingNotifier struct {
	mu    sync.Mutex
	types []notification.Type
}

func (n *recordingNotifier) Send(_ context.Context, e notification.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.types = append(n.types, e.Type)
}

func (n *recordingNotifier) has(t notification.Type) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, got := range n.types {
		if got == t {
			return true
		}
	}
	return false
}

type sinkFunc func(ctx context.Context, r workflow.CompletionResult) error

func (f sinkFunc) OnCompleted(ctx context.Context, r workflow.CompletionResult) error {
	return f(ctx, r)
}

type fixture struct {
	store      *memory.Store
	bookings   *booking.Service
	selections *selection.Service
	workflow   *workflow.Service
	notifier   *recordingNotifier
	staff      actor.Actor
}

func newFixture(opts workflow.Options) *fixture {
	store := memory.New()
	n := &recordingNotifier{}
	return &fixture{
		store:      store,
		bookings:   booking.NewService(store.Bookings(), store.Slots(), nil, n),
		selections: selection.NewService(store.Selections(), store.Bookings(), store.Catalog()),
		workflow:   workflow.NewService(store.Workflow(), store.Bookings(), n, opts),
		notifier:   n,
		staff:      actor.Actor{UserID: uuid.New(), ShopID: uuid.New(), Role: actor.RoleStaff},
	}
}

func (f *fixture) newBooking(t *testing.T) *booking.Booking {
	t.Helper()
	b, err := f.bookings.CreateBooking(context.Background(), f.staff, &booking.CreateBookingRequest{
		CustomerName:  "Aigerim",
		ContactNumber: "+7 700 000 0000",
		DogName:       "Bobik",
		BookingDate:   "2024-06-03",
	})
	if err != nil {
		t.Fatalf("create booking: %v", err)
	}
	return b
}

func TestLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(workflow.Options{})
	b := f.newBooking(t)

	started, err := f.workflow.StartService(ctx, f.staff, b.ID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if started.Status != booking.StatusInProgress || !started.StartedAt.Valid {
		t.Fatalf("unexpected booking after start %+v", started)
	}

	if _, err := f.workflow.StartService(ctx, f.staff, b.ID); !errors.Is(err, apperr.ErrInvalidTransition) {
		t.Fatalf("second start: expected invalid transition, got %v", err)
	}

	result, err := f.workflow.CompleteBooking(ctx, f.staff, b.ID)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if result.Booking.Status != booking.StatusCompleted || !result.Booking.CompletedAt.Valid {
		t.Fatalf("unexpected booking after completion %+v", result.Booking)
	}

	for _, op := range []func() error{
		func() error { _, err := f.workflow.StartService(ctx, f.staff, b.ID); return err },
		func() error { _, err := f.workflow.CompleteBooking(ctx, f.staff, b.ID); return err },
		func() error { _, err := f.bookings.CancelBooking(ctx, f.staff, b.ID); return err },
	} {
		if err := op(); !errors.Is(err, apperr.ErrInvalidTransition) {
			t.Fatalf("expected invalid transition out of completed, got %v", err)
		}
	}

	if !f.notifier.has(notification.TypeBookingStarted) || !f.notifier.has(notification.TypeBookingCompleted) {
		t.Fatalf("expected started and completed events, got %v", f.notifier.types)
	}
}

func TestDirectCompletionPolicy(t *testing.T) {
	ctx := context.Background()

	strict := newFixture(workflow.Options{})
	b := strict.newBooking(t)
	if _, err := strict.workflow.CompleteBooking(ctx, strict.staff, b.ID); !errors.Is(err, apperr.ErrInvalidTransition) {
		t.Fatalf("expected reserved -> completed to be rejected, got %v", err)
	}

	walkIn := newFixture(workflow.Options{AllowDirectCompletion: true})
	b = walkIn.newBooking(t)
	if _, err := walkIn.workflow.CompleteBooking(ctx, walkIn.staff, b.ID); err != nil {
		t.Fatalf("walk-in completion: %v", err)
	}
}

func TestCompletionFreezesSelectionsAndFeedsSink(t *testing.T) {
	ctx := context.Background()

	var (
		mu   sync.Mutex
		seen []workflow.CompletionResult
	)
	sink := sinkFunc(func(_ context.Context, r workflow.CompletionResult) error {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, r)
		return nil
	})

	f := newFixture(workflow.Options{AllowDirectCompletion: true, Sink: sink})
	b := f.newBooking(t)
	bath := f.store.SeedService("Bath", 300, catalog.TypeCheckbox)
	trim := f.store.SeedService("Nail Trim", 150, catalog.TypeInput)
	tip := "trim short"
	f.selections.SelectService(ctx, f.staff, b.ID, &selection.SelectRequest{ServiceID: bath})
	f.selections.SelectService(ctx, f.staff, b.ID, &selection.SelectRequest{ServiceID: trim, InputValue: &tip})

	result, err := f.workflow.CompleteBooking(ctx, f.staff, b.ID)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if len(result.FrozenSelections) != 2 || result.Total() != 450 {
		t.Fatalf("unexpected frozen set %+v", result.FrozenSelections)
	}

	f.workflow.Wait()
	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 1 || seen[0].Booking.ID != b.ID {
		t.Fatalf("expected sink to receive the completion, got %d", len(seen))
	}
}

func TestFailedSnapshotKeepsPriorStatus(t *testing.T) {
	ctx := context.Background()
	f := newFixture(workflow.Options{})
	b := f.newBooking(t)
	f.workflow.StartService(ctx, f.staff, b.ID)

	f.store.FailSnapshotWrites(errors.New("connection reset"))
	if _, err := f.workflow.CompleteBooking(ctx, f.staff, b.ID); !errors.Is(err, apperr.ErrStorage) {
		t.Fatalf("expected storage error, got %v", err)
	}

	got, _ := f.bookings.GetBooking(ctx, f.staff, b.ID)
	if got.Status != booking.StatusInProgress {
		t.Fatalf("expected in_progress after failed completion, got %s", got.Status)
	}
	if f.notifier.has(notification.TypeBookingCompleted) {
		t.Fatalf("no completed event expected")
	}
}

func TestFeedbackOptionalFields(t *testing.T) {
	ctx := context.Background()
	rating := 5
	comment := "Great groom"

	cases := []workflow.FeedbackRequest{
		{},
		{Rating: &rating},
		{Comment: &comment},
		{Rating: &rating, Comment: &comment},
	}
	for i, req := range cases {
		f := newFixture(workflow.Options{AllowDirectCompletion: true})
		b := f.newBooking(t)
		if _, err := f.workflow.CompleteBooking(ctx, f.staff, b.ID); err != nil {
			t.Fatalf("case %d complete: %v", i, err)
		}

		req := req
		if _, err := f.workflow.SubmitFeedback(ctx, f.staff, b.ID, &req); err != nil {
			t.Fatalf("case %d submit: %v", i, err)
		}
		if _, err := f.workflow.SubmitFeedback(ctx, f.staff, b.ID, &req); !errors.Is(err, apperr.ErrInvalidTransition) {
			t.Fatalf("case %d second submit: expected invalid transition, got %v", i, err)
		}
	}
}

func TestFeedbackRules(t *testing.T) {
	ctx := context.Background()
	f := newFixture(workflow.Options{AllowDirectCompletion: true})
	b := f.newBooking(t)

	if _, err := f.workflow.SubmitFeedback(ctx, f.staff, b.ID, &workflow.FeedbackRequest{}); !errors.Is(err, workflow.ErrFeedbackNotAllowed) {
		t.Fatalf("feedback before completion: expected ErrFeedbackNotAllowed, got %v", err)
	}

	f.workflow.CompleteBooking(ctx, f.staff, b.ID)

	bad := 6
	if _, err := f.workflow.SubmitFeedback(ctx, f.staff, b.ID, &workflow.FeedbackRequest{Rating: &bad}); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("rating 6: expected validation error, got %v", err)
	}

	if err := f.workflow.SkipFeedback(ctx, f.staff, b.ID); err != nil {
		t.Fatalf("skip: %v", err)
	}
	if !f.notifier.has(notification.TypeFeedbackSkipped) {
		t.Fatalf("expected feedback.skipped event")
	}
	if _, err := f.workflow.GetFeedback(ctx, f.staff, b.ID); !errors.Is(err, workflow.ErrFeedbackNotFound) {
		t.Fatalf("skip must not store feedback, got %v", err)
	}

	// Skipping does not close the door on a later submission
	four := 4
	fb, err := f.workflow.SubmitFeedback(ctx, f.staff, b.ID, &workflow.FeedbackRequest{Rating: &four})
	if err != nil {
		t.Fatalf("submit after skip: %v", err)
	}
	if !fb.Rating.Valid || fb.Rating.Int16 != 4 {
		t.Fatalf("unexpected feedback %+v", fb)
	}
	if err := f.workflow.SkipFeedback(ctx, f.staff, b.ID); !errors.Is(err, workflow.ErrFeedbackExists) {
		t.Fatalf("skip after submit: expected ErrFeedbackExists, got %v", err)
	}
}
