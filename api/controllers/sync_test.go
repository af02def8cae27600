package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cbc-energia/fieldops-backend/internal/connectivity"
	"github.com/cbc-energia/fieldops-backend/internal/syncengine"
	"github.com/cbc-energia/fieldops-backend/internal/visits"
	"github.com/cbc-energia/fieldops-backend/pkg/logger"
)

type emptySource struct{}

func (emptySource) Pending() []visits.VisitRecord { return nil }

func (emptySource) PendingCount() int { return 0 }

func (emptySource) MarkAllPendingSynced(ctx context.Context) (int, error) { return 0, nil }

func newTestEngine(t *testing.T, monitor *connectivity.Monitor) *syncengine.Engine {
	t.Helper()
	engine, err := syncengine.NewEngine(syncengine.EngineParams{
		Source:   emptySource{},
		Monitor:  monitor,
		Uploader: syncengine.SimulatedUploader{Latency: time.Millisecond},
		Logger:   logger.New(logger.Options{ServiceName: "test"}),
	})
	if err != nil {
		t.Fatalf("NewEngine returned error: %v", err)
	}
	engine.Start(context.Background())
	return engine
}

func TestSyncStatusSnapshot(t *testing.T) {
	monitor := connectivity.NewMonitor(false)
	handler := SyncStatus(newTestEngine(t, monitor), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sync/status", nil)
	resp := httptest.NewRecorder()

	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	var envelope struct {
		Data syncengine.Status `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Online {
		t.Fatal("expected offline status")
	}
	if envelope.Data.PendingCount != 0 {
		t.Fatalf("expected no pending records got %d", envelope.Data.PendingCount)
	}
}

func TestSyncSetOnlineFlipsMonitor(t *testing.T) {
	monitor := connectivity.NewMonitor(false)
	handler := SyncSetOnline(monitor, newTestEngine(t, monitor), nil)

	req := httptest.NewRequest(http.MethodPut, "/api/v1/sync/online", bytes.NewReader([]byte(`{"online":true}`)))
	resp := httptest.NewRecorder()

	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if !monitor.Online() {
		t.Fatal("expected monitor flipped online")
	}
}

func TestSyncSetOnlineRequiresFlag(t *testing.T) {
	monitor := connectivity.NewMonitor(false)
	handler := SyncSetOnline(monitor, newTestEngine(t, monitor), nil)

	req := httptest.NewRequest(http.MethodPut, "/api/v1/sync/online", bytes.NewReader([]byte(`{}`)))
	resp := httptest.NewRecorder()

	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestSyncTriggerAccepted(t *testing.T) {
	monitor := connectivity.NewMonitor(true)
	handler := SyncTrigger(newTestEngine(t, monitor), nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sync/trigger", nil)
	resp := httptest.NewRecorder()

	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusAccepted {
		t.Fatalf("expected 202 got %d", resp.Code)
	}
}
