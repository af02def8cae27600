package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cbc-energia/fieldops-backend/api/middleware"
	"github.com/cbc-energia/fieldops-backend/internal/visits"
	"github.com/cbc-energia/fieldops-backend/pkg/enums"
	pkgerrors "github.com/cbc-energia/fieldops-backend/pkg/errors"
)

type stubVisitService struct {
	records   []visits.VisitRecord
	gotInput  visits.AppendInput
	appendErr error

	byUserID string
}

func (s *stubVisitService) Hydrate(ctx context.Context) error { return nil }

func (s *stubVisitService) Append(ctx context.Context, input visits.AppendInput) (visits.VisitRecord, error) {
	s.gotInput = input
	if s.appendErr != nil {
		return visits.VisitRecord{}, s.appendErr
	}
	return visits.VisitRecord{ID: "rec-1", Type: input.Type, SyncStatus: enums.SyncPending}, nil
}

func (s *stubVisitService) List() []visits.VisitRecord { return s.records }

func (s *stubVisitService) ListByUser(userID string) []visits.VisitRecord {
	s.byUserID = userID
	return s.records
}

func (s *stubVisitService) TodayByUser(userID string, now time.Time) []visits.VisitRecord {
	s.byUserID = userID
	return s.records
}

func (s *stubVisitService) Pending() []visits.VisitRecord { return nil }

func (s *stubVisitService) PendingCount() int { return 0 }

func (s *stubVisitService) MarkAllPendingSynced(ctx context.Context) (int, error) { return 0, nil }

func (s *stubVisitService) SetChangeListener(fn func()) {}

func TestVisitCreateForwardsInput(t *testing.T) {
	svc := &stubVisitService{}
	handler := VisitCreate(svc, nil)

	body := []byte(`{
		"type": "PROSPECTION",
		"notes": "telhado bom",
		"leadTemperature": "HOT",
		"location": {"lat": -23.55, "lng": -46.63},
		"metadata": {"prospection": {"clientName": "Dona Maria"}}
	}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/visits", bytes.NewReader(body))
	resp := httptest.NewRecorder()

	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}

	if svc.gotInput.Type != enums.VisitProspection {
		t.Fatalf("type = %q, want PROSPECTION", svc.gotInput.Type)
	}
	if svc.gotInput.LeadTemperature == nil || *svc.gotInput.LeadTemperature != enums.LeadHot {
		t.Fatalf("lead temperature not forwarded: %+v", svc.gotInput.LeadTemperature)
	}
	if svc.gotInput.Metadata.Prospection == nil || svc.gotInput.Metadata.Prospection.ClientName != "Dona Maria" {
		t.Fatalf("metadata not forwarded: %+v", svc.gotInput.Metadata)
	}
	if svc.gotInput.Location.Lat != -23.55 {
		t.Fatalf("location not forwarded: %+v", svc.gotInput.Location)
	}
}

func TestVisitCreateRejectsUnknownType(t *testing.T) {
	handler := VisitCreate(&stubVisitService{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/visits", bytes.NewReader([]byte(`{"type":"COFFEE_BREAK"}`)))
	resp := httptest.NewRecorder()

	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestVisitCreateSurfacesServiceError(t *testing.T) {
	svc := &stubVisitService{
		appendErr: pkgerrors.New(pkgerrors.CodeValidation, "acting identity is required"),
	}
	handler := VisitCreate(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/visits", bytes.NewReader([]byte(`{"type":"PROSPECTION"}`)))
	resp := httptest.NewRecorder()

	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestVisitListScopes(t *testing.T) {
	svc := &stubVisitService{records: []visits.VisitRecord{{ID: "rec-1"}}}
	handler := VisitList(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/visits?scope=mine", nil)
	req = req.WithContext(middleware.WithUserID(req.Context(), "user-2"))
	resp := httptest.NewRecorder()

	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.byUserID != "user-2" {
		t.Fatalf("expected user scope forwarded, got %q", svc.byUserID)
	}

	var envelope struct {
		Data []visits.VisitRecord `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data) != 1 || envelope.Data[0].ID != "rec-1" {
		t.Fatalf("unexpected records: %+v", envelope.Data)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/visits?scope=nonsense", nil)
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown scope got %d", resp.Code)
	}
}
