package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/cbc-energia/fieldops-backend/api/middleware"
	"github.com/cbc-energia/fieldops-backend/internal/alerts"
	"github.com/cbc-energia/fieldops-backend/internal/routelog"
	"github.com/cbc-energia/fieldops-backend/pkg/config"
	"github.com/cbc-energia/fieldops-backend/pkg/enums"
	"github.com/cbc-energia/fieldops-backend/pkg/kv"
	"github.com/cbc-energia/fieldops-backend/pkg/logger"
)

func newRouteService(t *testing.T) routelog.Service {
	t.Helper()
	svc, err := routelog.NewService(routelog.ServiceParams{
		Store:  kv.NewMemoryStore(),
		Config: config.RouteConfig{JitterThreshold: 0.0001},
		Alerts: alerts.NewSink(),
		Logger: logger.New(logger.Options{ServiceName: "test"}),
	})
	if err != nil {
		t.Fatalf("NewService returned error: %v", err)
	}
	if err := svc.Hydrate(context.Background(), time.Now()); err != nil {
		t.Fatalf("Hydrate returned error: %v", err)
	}
	return svc
}

func TestRouteSampleIngestsFix(t *testing.T) {
	svc := newRouteService(t)
	handler := RouteSample(svc, nil)

	body := []byte(`{"lat":-23.55,"lng":-46.63}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/routes/samples", bytes.NewReader(body))
	req = req.WithContext(middleware.WithRole(req.Context(), string(enums.RoleProspector)))
	resp := httptest.NewRecorder()

	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusAccepted {
		t.Fatalf("expected 202 got %d: %s", resp.Code, resp.Body.String())
	}

	var envelope struct {
		Data struct {
			Kept bool   `json:"kept"`
			Day  string `json:"day"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !envelope.Data.Kept {
		t.Fatal("first fix of the day should be kept")
	}
	if envelope.Data.Day != routelog.DayKey(time.Now()) {
		t.Fatalf("unexpected day key %q", envelope.Data.Day)
	}

	// Near-identical fix is acknowledged but dropped.
	req = httptest.NewRequest(http.MethodPost, "/api/v1/routes/samples", bytes.NewReader([]byte(`{"lat":-23.550001,"lng":-46.630001}`)))
	req = req.WithContext(middleware.WithRole(req.Context(), string(enums.RoleProspector)))
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusAccepted {
		t.Fatalf("expected 202 got %d", resp.Code)
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Kept {
		t.Fatal("jittery fix should be dropped")
	}
}

func TestRouteSampleIgnoresDeskRoles(t *testing.T) {
	svc := newRouteService(t)
	handler := RouteSample(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/routes/samples", bytes.NewReader([]byte(`{"lat":-23.55,"lng":-46.63}`)))
	req = req.WithContext(middleware.WithRole(req.Context(), string(enums.RoleAdmin)))
	resp := httptest.NewRecorder()

	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusAccepted {
		t.Fatalf("expected 202 got %d", resp.Code)
	}

	day := routelog.DayKey(time.Now())
	if points := svc.ActiveRoute(day); len(points) != 0 {
		t.Fatalf("admin sample should not be archived, got %d points", len(points))
	}
}

func TestRouteByDayNavigatesArchive(t *testing.T) {
	svc := newRouteService(t)

	ctx := context.Background()
	if _, err := svc.RecordSample(ctx, routelog.Point{Lat: -23.55, Lng: -46.63}, time.Now()); err != nil {
		t.Fatalf("RecordSample returned error: %v", err)
	}

	r := chi.NewRouter()
	r.Get("/routes/days/{day}", RouteByDay(svc, nil))

	day := routelog.DayKey(time.Now())
	path := "/routes/days/" + timeToPathDay(day)

	req := httptest.NewRequest(http.MethodGet, path, nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}

	var envelope struct {
		Data struct {
			Day    string           `json:"day"`
			Points []routelog.Point `json:"points"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Day != day {
		t.Fatalf("day = %q, want %q", envelope.Data.Day, day)
	}
	if len(envelope.Data.Points) != 1 {
		t.Fatalf("expected 1 point got %d", len(envelope.Data.Points))
	}
}

func TestRouteByDayRejectsMalformedKey(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/routes/days/{day}", RouteByDay(newRouteService(t), nil))

	req := httptest.NewRequest(http.MethodGet, "/routes/days/not-a-day", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestRouteDaysListsKeys(t *testing.T) {
	svc := newRouteService(t)
	handler := RouteDays(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/routes/days", nil)
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
	if len(envelope.Data) != 1 || envelope.Data[0] != routelog.DayKey(time.Now()) {
		t.Fatalf("unexpected keys: %+v", envelope.Data)
	}
}

func timeToPathDay(day string) string {
	out := []byte(day)
	for i, c := range out {
		if c == '/' {
			out[i] = '-'
		}
	}
	return string(out)
}
