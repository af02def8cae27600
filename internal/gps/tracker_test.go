package gps

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cbc-energia/fieldops-backend/internal/alerts"
	"github.com/cbc-energia/fieldops-backend/internal/routelog"
	"github.com/cbc-energia/fieldops-backend/pkg/config"
	"github.com/cbc-energia/fieldops-backend/pkg/enums"
	"github.com/cbc-energia/fieldops-backend/pkg/kv"
	"github.com/cbc-energia/fieldops-backend/pkg/logger"
)

type staticGate struct {
	role enums.Role
	ok   bool
}

func (g staticGate) CurrentRole() (enums.Role, bool) { return g.role, g.ok }

func newTestRoutes(t *testing.T) routelog.Service {
	t.Helper()
	svc, err := routelog.NewService(routelog.ServiceParams{
		Store:  kv.NewMemoryStore(),
		Config: config.RouteConfig{JitterThreshold: 0.0001},
		Alerts: alerts.NewSink(),
		Logger: logger.New(logger.Options{ServiceName: "test"}),
	})
	if err != nil {
		t.Fatalf("routelog.NewService returned error: %v", err)
	}
	if err := svc.Hydrate(context.Background(), time.Now()); err != nil {
		t.Fatalf("Hydrate returned error: %v", err)
	}
	return svc
}

func newTestTracker(t *testing.T, source Source, routes routelog.Service, gate RoleGate) *Tracker {
	t.Helper()
	tracker, err := NewTracker(TrackerParams{
		Source: source,
		Routes: routes,
		Gate:   gate,
		Logger: logger.New(logger.Options{ServiceName: "test"}),
	})
	if err != nil {
		t.Fatalf("NewTracker returned error: %v", err)
	}
	return tracker
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached before timeout")
}

func TestTrackedRoleSamplesReachArchive(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	source := NewChannelSource(4)
	routes := newTestRoutes(t)
	tracker := newTestTracker(t, source, routes, staticGate{role: enums.RoleProspector, ok: true})
	go tracker.Run(ctx)

	now := time.Now()
	source.Samples <- Sample{Lat: -8.0, Lng: -34.0, At: now}
	source.Samples <- Sample{Lat: -8.1, Lng: -34.1, At: now}

	today := routelog.DayKey(now)
	waitFor(t, time.Second, func() bool { return len(routes.ActiveRoute(today)) == 2 })

	if !tracker.Active() {
		t.Fatal("tracker must be active after a good fix")
	}
	fix, ok := tracker.LastFix()
	if !ok || fix.Lat != -8.1 {
		t.Fatalf("last fix = %+v, %v", fix, ok)
	}
}

func TestUntrackedRoleKeepsLastFixOnly(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	source := NewChannelSource(4)
	routes := newTestRoutes(t)
	tracker := newTestTracker(t, source, routes, staticGate{role: enums.RoleAdmin, ok: true})
	go tracker.Run(ctx)

	now := time.Now()
	source.Samples <- Sample{Lat: -8.0, Lng: -34.0, At: now}

	waitFor(t, time.Second, func() bool { _, ok := tracker.LastFix(); return ok })
	if n := len(routes.ActiveRoute(routelog.DayKey(now))); n != 0 {
		t.Fatalf("admin movement archived, route length = %d", n)
	}
}

func TestReceiverErrorFlipsActiveFlag(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	source := NewChannelSource(4)
	tracker := newTestTracker(t, source, newTestRoutes(t), staticGate{role: enums.RoleInstaller, ok: true})
	go tracker.Run(ctx)

	source.Samples <- Sample{Lat: -8.0, Lng: -34.0, At: time.Now()}
	waitFor(t, time.Second, tracker.Active)

	source.Errs <- errors.New("position unavailable")
	waitFor(t, time.Second, func() bool { return !tracker.Active() })

	// Next good fix re-activates tracking.
	source.Samples <- Sample{Lat: -8.2, Lng: -34.2, At: time.Now()}
	waitFor(t, time.Second, tracker.Active)
}

func TestContextCancelStopsTracker(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	source := NewChannelSource(1)
	tracker := newTestTracker(t, source, newTestRoutes(t), staticGate{role: enums.RoleProspector, ok: true})
	go tracker.Run(ctx)

	cancel()
	select {
	case <-tracker.Stopped():
	case <-time.After(time.Second):
		t.Fatal("tracker did not stop on context cancellation")
	}
}
