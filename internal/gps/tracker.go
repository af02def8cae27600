package gps

import (
	"context"
	"sync"
	"time"

	"github.com/cbc-energia/fieldops-backend/internal/routelog"
	"github.com/cbc-energia/fieldops-backend/pkg/enums"
	pkgerrors "github.com/cbc-energia/fieldops-backend/pkg/errors"
	"github.com/cbc-energia/fieldops-backend/pkg/logger"
)

// Sample is one position fix from the device receiver.
type Sample struct {
	Lat float64
	Lng float64
	At  time.Time
}

// Source is the high-accuracy position subscription. Watch delivers
// samples until the context is cancelled; receiver failures arrive on
// the error channel without closing the sample stream.
type Source interface {
	Watch(ctx context.Context) (<-chan Sample, <-chan error)
}

// RoleGate decides whose movement is archived.
type RoleGate interface {
	CurrentRole() (enums.Role, bool)
}

// TrackerParams groups dependencies for the GPS tracker.
type TrackerParams struct {
	Source Source
	Routes routelog.Service
	Gate   RoleGate
	Logger *logger.Logger
}

// Tracker pumps position samples into the route archive for field roles.
// A receiver error flips the active flag false until the next good
// sample; stopping the context ends tracking (logout, shutdown).
type Tracker struct {
	source Source
	routes routelog.Service
	gate   RoleGate
	logg   *logger.Logger

	mu       sync.Mutex
	active   bool
	lastFix  *Sample
	stopOnce sync.Once
	stopped  chan struct{}
}

// NewTracker builds a tracker with the required dependencies.
func NewTracker(params TrackerParams) (*Tracker, error) {
	if params.Source == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "gps source is required")
	}
	if params.Routes == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "route service is required")
	}
	if params.Gate == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "role gate is required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "logger is required")
	}
	return &Tracker{
		source:  params.Source,
		routes:  params.Routes,
		gate:    params.Gate,
		logg:    params.Logger,
		stopped: make(chan struct{}),
	}, nil
}

// Run consumes the source until the context is cancelled.
func (t *Tracker) Run(ctx context.Context) {
	defer t.stopOnce.Do(func() { close(t.stopped) })

	samples, errs := t.source.Watch(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			t.setActive(false)
			t.logg.Warn(t.logg.WithField(ctx, "cause", err.Error()), "gps receiver error, tracking inactive")
		case sample, ok := <-samples:
			if !ok {
				return
			}
			t.handleSample(ctx, sample)
		}
	}
}

// Active reports whether the receiver is currently delivering fixes.
func (t *Tracker) Active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active
}

// LastFix returns the most recent position, used as the location stamped
// onto new records.
func (t *Tracker) LastFix() (Sample, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.lastFix == nil {
		return Sample{}, false
	}
	return *t.lastFix, true
}

// Stopped closes once Run has returned.
func (t *Tracker) Stopped() <-chan struct{} {
	return t.stopped
}

func (t *Tracker) handleSample(ctx context.Context, sample Sample) {
	t.setActive(true)
	t.mu.Lock()
	fix := sample
	t.lastFix = &fix
	t.mu.Unlock()

	role, ok := t.gate.CurrentRole()
	if !ok || !role.Tracked() {
		return
	}

	at := sample.At
	if at.IsZero() {
		at = time.Now()
	}
	if _, err := t.routes.RecordSample(ctx, routelog.Point{Lat: sample.Lat, Lng: sample.Lng}, at); err != nil {
		t.logg.Error(ctx, "route sample rejected", err)
	}
}

func (t *Tracker) setActive(active bool) {
	t.mu.Lock()
	t.active = active
	t.mu.Unlock()
}

// ChannelSource adapts raw channels into a Source; replay tooling and
// tests feed it directly.
type ChannelSource struct {
	Samples chan Sample
	Errs    chan error
}

func NewChannelSource(buffer int) *ChannelSource {
	return &ChannelSource{
		Samples: make(chan Sample, buffer),
		Errs:    make(chan error, buffer),
	}
}

func (c *ChannelSource) Watch(ctx context.Context) (<-chan Sample, <-chan error) {
	return c.Samples, c.Errs
}
