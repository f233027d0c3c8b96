package badger

import (
	"context"
	"errors"
	"testing"

	"github.com/bobmcallan/catalyst/internal/common"
	"github.com/bobmcallan/catalyst/internal/models"
)

func TestCompanyStore_RoundTrip(t *testing.T) {
	store := NewCompanyStorage(newTestStore(t), common.NewSilentLogger())
	ctx := context.Background()

	err := store.Save(ctx, &models.Company{Ticker: "VRTX", CIK: "0000875320", Name: "Vertex Pharmaceuticals Inc"})
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	company, err := store.Get(ctx, "VRTX")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if company.CIK != "0000875320" {
		t.Errorf("cik = %s", company.CIK)
	}
	if company.AddedAt.IsZero() {
		t.Error("added_at not stamped on save")
	}

	// Re-save refreshes, not duplicates.
	company.Name = "Vertex Pharmaceuticals Incorporated"
	if err := store.Save(ctx, company); err != nil {
		t.Fatalf("re-save failed: %v", err)
	}

	companies, err := store.List(ctx)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(companies) != 1 {
		t.Fatalf("expected 1 company after upsert, got %d", len(companies))
	}
	if companies[0].Name != "Vertex Pharmaceuticals Incorporated" {
		t.Errorf("name not refreshed: %s", companies[0].Name)
	}
}

func TestCompanyStore_ListSorted(t *testing.T) {
	store := NewCompanyStorage(newTestStore(t), common.NewSilentLogger())
	ctx := context.Background()

	for _, tk := range []string{"VRTX", "ACAD", "IONS"} {
		store.Save(ctx, &models.Company{Ticker: tk, CIK: "0000000001", Name: tk})
	}

	companies, _ := store.List(ctx)
	if len(companies) != 3 {
		t.Fatalf("expected 3 companies, got %d", len(companies))
	}
	if companies[0].Ticker != "ACAD" || companies[1].Ticker != "IONS" || companies[2].Ticker != "VRTX" {
		t.Errorf("not sorted by ticker: %s, %s, %s", companies[0].Ticker, companies[1].Ticker, companies[2].Ticker)
	}
}

func TestCompanyStore_Delete(t *testing.T) {
	store := NewCompanyStorage(newTestStore(t), common.NewSilentLogger())
	ctx := context.Background()

	store.Save(ctx, &models.Company{Ticker: "ACAD", CIK: "0001070494", Name: "ACADIA"})
	if err := store.Delete(ctx, "ACAD"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	_, err := store.Get(ctx, "ACAD")
	if !errors.Is(err, models.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}

	// Deleting a missing company is idempotent.
	if err := store.Delete(ctx, "ACAD"); err != nil {
		t.Errorf("second delete errored: %v", err)
	}
}
