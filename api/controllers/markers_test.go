package controllers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/cbc-energia/fieldops-backend/internal/markers"
	"github.com/cbc-energia/fieldops-backend/pkg/kv"
	"github.com/cbc-energia/fieldops-backend/pkg/logger"
)

func newMarkerService(t *testing.T) markers.Service {
	t.Helper()
	svc, err := markers.NewService(markers.ServiceParams{
		Store:  kv.NewMemoryStore(),
		Logger: logger.New(logger.Options{ServiceName: "test"}),
	})
	if err != nil {
		t.Fatalf("NewService returned error: %v", err)
	}
	return svc
}

func TestMarkerConfigUpdateAndGet(t *testing.T) {
	svc := newMarkerService(t)

	r := chi.NewRouter()
	r.Put("/markers/config/{key}", MarkerConfigUpdate(svc, nil))

	body := []byte(`{"color":"violet","label":"Prospecção VIP"}`)
	req := httptest.NewRequest(http.MethodPut, "/markers/config/PROSPECTION_COMPLETED", bytes.NewReader(body))
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}

	var envelope struct {
		Data markers.Config `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	style, ok := envelope.Data["PROSPECTION_COMPLETED"]
	if !ok || style.Color != "violet" || style.Label != "Prospecção VIP" {
		t.Fatalf("unexpected style: %+v", style)
	}
}

func TestMarkerConfigUpdateRejectsUnknownColor(t *testing.T) {
	r := chi.NewRouter()
	r.Put("/markers/config/{key}", MarkerConfigUpdate(newMarkerService(t), nil))

	req := httptest.NewRequest(http.MethodPut, "/markers/config/PROSPECTION_COMPLETED", bytes.NewReader([]byte(`{"color":"purple","label":"x"}`)))
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestMarkerColorsListsPalette(t *testing.T) {
	handler := MarkerColors(nil)

	req := httptest.NewRequest(http.MethodGet, "/markers/config/colors", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	var envelope struct {
		Data []string `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data) != len(markers.AvailableColors()) {
		t.Fatalf("expected %d colors got %d", len(markers.AvailableColors()), len(envelope.Data))
	}
}
