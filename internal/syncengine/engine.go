package syncengine

import (
	"context"
	"sync"
	"time"

	"github.com/cbc-energia/fieldops-backend/internal/connectivity"
	"github.com/cbc-energia/fieldops-backend/internal/visits"
	pkgerrors "github.com/cbc-energia/fieldops-backend/pkg/errors"
	"github.com/cbc-energia/fieldops-backend/pkg/logger"
	"github.com/cbc-energia/fieldops-backend/pkg/metrics"
)

// RecordSource is the slice of the visit service the engine drives.
type RecordSource interface {
	Pending() []visits.VisitRecord
	PendingCount() int
	MarkAllPendingSynced(ctx context.Context) (int, error)
}

// EngineParams groups dependencies for the sync engine.
type EngineParams struct {
	Source   RecordSource
	Monitor  *connectivity.Monitor
	Uploader Uploader
	Metrics  *metrics.FieldMetrics
	Logger   *logger.Logger
}

// Engine reconciles pending records with the backend. At most one pass
// is in flight; a new pass starts on a connectivity rise or a record
// change while online, and a connectivity drop cancels the outstanding
// pass before any record transitions.
type Engine struct {
	source   RecordSource
	monitor  *connectivity.Monitor
	uploader Uploader
	metrics  *metrics.FieldMetrics
	logg     *logger.Logger

	mu       sync.Mutex
	baseCtx  context.Context
	inFlight bool
	cancel   context.CancelFunc
	done     chan struct{}
}

// Status is the sync state snapshot served to clients.
type Status struct {
	Online       bool `json:"online"`
	InFlight     bool `json:"inFlight"`
	PendingCount int  `json:"pendingCount"`
}

// NewEngine builds a sync engine with the required dependencies.
func NewEngine(params EngineParams) (*Engine, error) {
	if params.Source == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "record source is required")
	}
	if params.Monitor == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "connectivity monitor is required")
	}
	if params.Uploader == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "uploader is required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "logger is required")
	}
	return &Engine{
		source:   params.Source,
		monitor:  params.Monitor,
		uploader: params.Uploader,
		metrics:  params.Metrics,
		logg:     params.Logger,
	}, nil
}

// Start subscribes to connectivity edges and evaluates once for records
// already pending at boot. The context bounds every pass the engine runs.
func (e *Engine) Start(ctx context.Context) {
	e.mu.Lock()
	e.baseCtx = ctx
	e.mu.Unlock()

	e.monitor.Subscribe(func(online bool) {
		if online {
			e.Notify()
		} else {
			e.cancelPass()
		}
	})
	e.Notify()
}

// Notify re-evaluates whether a pass should run. The visit service calls
// it on every collection change.
func (e *Engine) Notify() {
	e.mu.Lock()
	if e.baseCtx == nil || e.inFlight || !e.monitor.Online() || e.source.PendingCount() == 0 {
		e.mu.Unlock()
		return
	}
	passCtx, cancel := context.WithCancel(e.baseCtx)
	e.inFlight = true
	e.cancel = cancel
	e.done = make(chan struct{})
	done := e.done
	e.mu.Unlock()

	go func() {
		defer close(done)
		e.runPass(passCtx)
	}()
}

// Status reports the snapshot clients poll for the sync indicator.
func (e *Engine) Status() Status {
	e.mu.Lock()
	inFlight := e.inFlight
	e.mu.Unlock()
	return Status{
		Online:       e.monitor.Online(),
		InFlight:     inFlight,
		PendingCount: e.source.PendingCount(),
	}
}

// Wait blocks until the current pass finishes, if one is running. Tests
// and shutdown use it.
func (e *Engine) Wait() {
	e.mu.Lock()
	done := e.done
	e.mu.Unlock()
	if done != nil {
		<-done
	}
}

func (e *Engine) cancelPass() {
	e.mu.Lock()
	cancel := e.cancel
	e.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (e *Engine) runPass(ctx context.Context) {
	start := time.Now()
	pending := e.source.Pending()

	err := e.uploader.Upload(ctx, pending)
	if err != nil {
		e.finishPass()
		if ctx.Err() != nil {
			// Connectivity dropped mid-pass; records stay pending and a
			// later online edge starts a fresh pass.
			e.metrics.IncSyncPass(metrics.SyncOutcomeCancelled)
			e.logg.Info(ctx, "sync pass cancelled before completion")
			return
		}
		e.metrics.IncSyncPass(metrics.SyncOutcomeFailed)
		e.logg.Error(ctx, "sync pass failed, records stay pending", err)
		return
	}

	flipped, err := e.source.MarkAllPendingSynced(ctx)
	e.finishPass()
	if err != nil {
		e.metrics.IncSyncPass(metrics.SyncOutcomeFailed)
		e.logg.Error(ctx, "sync pass could not persist transitions", err)
		return
	}

	e.metrics.IncSyncPass(metrics.SyncOutcomeCompleted)
	e.metrics.ObserveSyncDuration(time.Since(start))
	e.logg.Info(e.logg.WithField(ctx, "records", flipped), "sync pass completed")

	// Records may have gone pending while the pass was uploading.
	e.Notify()
}

func (e *Engine) finishPass() {
	e.mu.Lock()
	e.inFlight = false
	e.cancel = nil
	e.mu.Unlock()
}
