package markers

import (
	"context"
	"testing"

	"github.com/cbc-energia/fieldops-backend/internal/visits"
	"github.com/cbc-energia/fieldops-backend/pkg/enums"
	pkgerrors "github.com/cbc-energia/fieldops-backend/pkg/errors"
	"github.com/cbc-energia/fieldops-backend/pkg/kv"
	"github.com/cbc-energia/fieldops-backend/pkg/logger"
)

func newTestService(t *testing.T, store kv.Store) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Store:  store,
		Logger: logger.New(logger.Options{ServiceName: "test"}),
	})
	if err != nil {
		t.Fatalf("NewService returned error: %v", err)
	}
	return svc
}

func TestStyleForResolution(t *testing.T) {
	svc := newTestService(t, kv.NewMemoryStore())

	// Specific key first.
	style, ok := svc.StyleFor(enums.VisitSaleAttempt, enums.VisitStatusSuccess)
	if !ok || style.Color != "green" {
		t.Fatalf("sale success style = %+v, %v", style, ok)
	}

	// Default key fallback.
	style, ok = svc.StyleFor(enums.VisitInspection, enums.VisitStatusCancelled)
	if !ok || style.Color != "violet" {
		t.Fatalf("inspection fallback style = %+v, %v", style, ok)
	}

	// No key at all.
	if _, ok := svc.StyleFor(enums.VisitProspection, enums.VisitStatusCancelled); ok {
		t.Fatal("expected no style for unstyled combination")
	}
}

func TestUpdatePersistsAndHydrates(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()
	svc := newTestService(t, store)

	err := svc.Update(ctx, "PROSPECTION_PENDING", Style{Color: "red", Label: "Prospecção (Urgente)"})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}

	reloaded := newTestService(t, store)
	if err := reloaded.Hydrate(ctx); err != nil {
		t.Fatalf("Hydrate returned error: %v", err)
	}
	style, ok := reloaded.StyleFor(enums.VisitProspection, enums.VisitStatusPending)
	if !ok || style.Color != "red" {
		t.Fatalf("hydrated style = %+v, %v", style, ok)
	}
}

func TestUpdateValidation(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, kv.NewMemoryStore())

	if err := svc.Update(ctx, "", Style{Color: "red", Label: "x"}); !pkgerrors.Is(err, pkgerrors.CodeValidation) {
		t.Fatalf("empty key error = %v", err)
	}
	if err := svc.Update(ctx, "K", Style{Color: "magenta", Label: "x"}); !pkgerrors.Is(err, pkgerrors.CodeValidation) {
		t.Fatalf("bad color error = %v", err)
	}
	if err := svc.Update(ctx, "K", Style{Color: "red"}); !pkgerrors.Is(err, pkgerrors.CodeValidation) {
		t.Fatalf("empty label error = %v", err)
	}
}

func TestResetRestoresDefaults(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, kv.NewMemoryStore())

	svc.Update(ctx, "INSPECTION_DEFAULT", Style{Color: "red", Label: "Vistoria Urgente"})
	if err := svc.Reset(ctx); err != nil {
		t.Fatalf("Reset returned error: %v", err)
	}

	style, _ := svc.StyleFor(enums.VisitInspection, enums.VisitStatusPending)
	if style.Color != "violet" {
		t.Fatalf("style after reset = %+v", style)
	}
}

func TestBuildMarkers(t *testing.T) {
	svc := newTestService(t, kv.NewMemoryStore())

	records := []visits.VisitRecord{
		{
			ID:       "r1",
			Type:     enums.VisitSaleAttempt,
			Status:   enums.VisitStatusSuccess,
			UserName: "Ana",
			Location: visits.GeoLocation{Lat: -8.0, Lng: -34.0},
		},
		{
			ID:       "r2",
			Type:     enums.VisitProspection,
			Status:   enums.VisitStatusCancelled,
			UserName: "Carlos",
			Location: visits.GeoLocation{Lat: -8.1, Lng: -34.1},
		},
	}

	markers := svc.BuildMarkers(records)
	if len(markers) != 2 {
		t.Fatalf("markers = %d, want 2", len(markers))
	}
	if markers[0].Color != "green" || !markers[0].IsCompleted {
		t.Fatalf("sale marker = %+v", markers[0])
	}
	if markers[0].Title != "Venda (Fechada) - Ana" {
		t.Fatalf("title = %q", markers[0].Title)
	}
	// Unstyled combination falls back to blue with the raw type label.
	if markers[1].Color != "blue" || markers[1].Type != "PROSPECTION" {
		t.Fatalf("fallback marker = %+v", markers[1])
	}
}
