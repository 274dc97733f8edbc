package catalog_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/groomly/groomly-api/internal/domain/catalog"
	"github.com/groomly/groomly-api/internal/pkg/apperr"
	"github.com/groomly/groomly-api/internal/store/memory"
)

func TestImportAndList(t *testing.T) {
	ctx := context.Background()
	svc := catalog.NewService(memory.New().Catalog())

	inactive := false
	saved, err := svc.Import(ctx, []catalog.ImportEntry{
		{Name: "  Nail trim ", Price: 10, Type: "checkbox"},
		{Name: "Care tips", Price: 0, Type: "input"},
		{Name: "Flea bath", Price: 30, Type: "checkbox", Active: &inactive},
	})
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if len(saved) != 3 || saved[0].Name != "Nail trim" {
		t.Fatalf("unexpected import result %+v", saved)
	}

	active, err := svc.List(ctx, true)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(active) != 2 {
		t.Fatalf("expected 2 active services, got %d", len(active))
	}
	if active[0].Name != "Care tips" || !active[0].Type.RequiresNote() {
		t.Fatalf("expected services ordered by name, got %s first", active[0].Name)
	}

	all, _ := svc.List(ctx, false)
	if len(all) != 3 {
		t.Fatalf("expected 3 services, got %d", len(all))
	}

	got, err := svc.GetByID(ctx, saved[2].ID)
	if err != nil || got.IsActive {
		t.Fatalf("expected inactive entry, got %+v (%v)", got, err)
	}
}

func TestImportRejectsBadEntries(t *testing.T) {
	svc := catalog.NewService(memory.New().Catalog())

	tests := []struct {
		name  string
		entry catalog.ImportEntry
		want  error
	}{
		{"blank name", catalog.ImportEntry{Name: " ", Type: "checkbox"}, apperr.ErrValidation},
		{"negative price", catalog.ImportEntry{Name: "Bath", Price: -1, Type: "checkbox"}, apperr.ErrValidation},
		{"unknown type", catalog.ImportEntry{Name: "Bath", Type: "radio"}, catalog.ErrInvalidType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Import(context.Background(), []catalog.ImportEntry{tt.entry})
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestUnknownService(t *testing.T) {
	svc := catalog.NewService(memory.New().Catalog())
	_, err := svc.GetByID(context.Background(), uuid.New())
	if !errors.Is(err, catalog.ErrServiceNotFound) {
		t.Fatalf("expected ErrServiceNotFound, got %v", err)
	}
}
