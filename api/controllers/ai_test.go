package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cbc-energia/fieldops-backend/internal/visits"
	pkgerrors "github.com/cbc-energia/fieldops-backend/pkg/errors"
)

type stubAIService struct {
	text string
	err  error

	gotLat   float64
	gotLng   float64
	gotQuery string
	gotCount int
}

func (s *stubAIService) Analyze(ctx context.Context, lat, lng float64, query string) (string, error) {
	s.gotLat = lat
	s.gotLng = lng
	s.gotQuery = query
	return s.text, s.err
}

func (s *stubAIService) Report(ctx context.Context, records []visits.VisitRecord) (string, error) {
	s.gotCount = len(records)
	return s.text, s.err
}

func TestAIAnalyzeForwardsCoordinates(t *testing.T) {
	svc := &stubAIService{text: "Bairro residencial com bom potencial."}
	handler := AIAnalyze(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/ai/analyze?lat=-23.55&lng=-46.63&q=potencial+solar", nil)
	resp := httptest.NewRecorder()

	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.gotLat != -23.55 || svc.gotLng != -46.63 {
		t.Fatalf("coordinates not forwarded: %v %v", svc.gotLat, svc.gotLng)
	}
	if svc.gotQuery != "potencial solar" {
		t.Fatalf("query not forwarded: %q", svc.gotQuery)
	}

	var envelope struct {
		Data struct {
			Text string `json:"text"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Text != svc.text {
		t.Fatalf("unexpected text %q", envelope.Data.Text)
	}
}

func TestAIAnalyzeRequiresCoordinates(t *testing.T) {
	handler := AIAnalyze(&stubAIService{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/ai/analyze?lat=-23.55", nil)
	resp := httptest.NewRecorder()

	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestAIAnalyzeSurfacesOfflineRefusal(t *testing.T) {
	svc := &stubAIService{err: pkgerrors.New(pkgerrors.CodeOffline, "análise indisponível offline")}
	handler := AIAnalyze(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/ai/analyze?lat=1&lng=2&q=teste", nil)
	resp := httptest.NewRecorder()

	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", resp.Code)
	}
}

func TestAIReportUsesFullCollection(t *testing.T) {
	aiSvc := &stubAIService{text: "Relatório consolidado."}
	visitSvc := &stubVisitService{records: []visits.VisitRecord{{ID: "rec-1"}, {ID: "rec-2"}}}
	handler := AIReport(aiSvc, visitSvc, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/ai/report", nil)
	resp := httptest.NewRecorder()

	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if aiSvc.gotCount != 2 {
		t.Fatalf("expected 2 records forwarded got %d", aiSvc.gotCount)
	}
}
