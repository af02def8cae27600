package routelog

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/cbc-energia/fieldops-backend/internal/alerts"
	"github.com/cbc-energia/fieldops-backend/pkg/config"
	pkgerrors "github.com/cbc-energia/fieldops-backend/pkg/errors"
	"github.com/cbc-energia/fieldops-backend/pkg/kv"
	"github.com/cbc-energia/fieldops-backend/pkg/logger"
	"github.com/cbc-energia/fieldops-backend/pkg/metrics"
)

// Point is one retained GPS sample.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// DayKeyLayout renders day keys as dd/mm/yyyy, the format the field teams
// see on the route browser. Keys are parsed for ordering, never compared
// lexically.
const DayKeyLayout = "02/01/2006"

// DayKey formats the calendar day of t.
func DayKey(t time.Time) string {
	return t.Format(DayKeyLayout)
}

// ServiceParams groups dependencies for the route archive service.
type ServiceParams struct {
	Store   kv.Store
	Config  config.RouteConfig
	Alerts  *alerts.Sink
	Metrics *metrics.FieldMetrics
	Logger  *logger.Logger
}

// Service is the per-day GPS route archive. Each day's sequence is
// append-only and deduplicated by a jitter threshold so stationary noise
// does not grow storage.
type Service interface {
	Hydrate(ctx context.Context, now time.Time) error
	// RecordSample appends the point to today's route unless it sits
	// within the jitter threshold of the previous sample. It reports
	// whether the point was kept.
	RecordSample(ctx context.Context, p Point, now time.Time) (bool, error)
	ActiveRoute(day string) []Point
	DateKeys() []string
	PrevDay(day string) (string, bool)
	NextDay(day string) (string, bool)
}

type service struct {
	mu       sync.RWMutex
	store    kv.Store
	alerts   *alerts.Sink
	metrics  *metrics.FieldMetrics
	logg     *logger.Logger
	archives map[string][]Point

	// Euclidean on raw coordinates, roughly ten meters at city scale.
	jitterThreshold float64
}

// NewService builds a route archive service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store is required")
	}
	if params.Alerts == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "alerts sink is required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "logger is required")
	}
	if params.Config.JitterThreshold <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "jitter threshold must be positive")
	}
	return &service{
		store:           params.Store,
		alerts:          params.Alerts,
		metrics:         params.Metrics,
		logg:            params.Logger,
		archives:        map[string][]Point{},
		jitterThreshold: params.Config.JitterThreshold,
	}, nil
}

// Hydrate loads the persisted archive and ensures today's key exists so
// sample recording never branches on a missing day.
func (s *service) Hydrate(ctx context.Context, now time.Time) error {
	var archives map[string][]Point
	found, err := s.store.Load(ctx, kv.KeyRouteArchives, &archives)
	if err != nil {
		return err
	}
	if !found || archives == nil {
		archives = map[string][]Point{}
	}

	today := DayKey(now)
	_, hadToday := archives[today]
	if !hadToday {
		archives[today] = []Point{}
	}

	s.mu.Lock()
	s.archives = archives
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	if !hadToday {
		if err := s.persist(ctx, snapshot); err != nil {
			return err
		}
	}
	return nil
}

func (s *service) RecordSample(ctx context.Context, p Point, now time.Time) (bool, error) {
	today := DayKey(now)

	s.mu.Lock()
	route := s.archives[today]
	if len(route) > 0 {
		last := route[len(route)-1]
		dist := math.Sqrt(math.Pow(p.Lat-last.Lat, 2) + math.Pow(p.Lng-last.Lng, 2))
		if dist < s.jitterThreshold {
			s.mu.Unlock()
			s.metrics.IncRouteSample(metrics.RouteSampleDropped)
			return false, nil
		}
	}
	s.archives[today] = append(route, p)
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.metrics.IncRouteSample(metrics.RouteSampleKept)

	if err := s.persist(ctx, snapshot); err != nil {
		return true, err
	}
	return true, nil
}

func (s *service) ActiveRoute(day string) []Point {
	s.mu.RLock()
	defer s.mu.RUnlock()
	route, ok := s.archives[day]
	if !ok {
		return []Point{}
	}
	out := make([]Point, len(route))
	copy(out, route)
	return out
}

// DateKeys returns the archived days in chronological order. The key
// format is not zero-padded-sortable, so each key is parsed as a date.
func (s *service) DateKeys() []string {
	s.mu.RLock()
	keys := make([]string, 0, len(s.archives))
	for key := range s.archives {
		keys = append(keys, key)
	}
	s.mu.RUnlock()

	sort.Slice(keys, func(i, j int) bool {
		ti, errI := time.Parse(DayKeyLayout, keys[i])
		tj, errJ := time.Parse(DayKeyLayout, keys[j])
		if errI != nil || errJ != nil {
			return keys[i] < keys[j]
		}
		return ti.Before(tj)
	})
	return keys
}

func (s *service) PrevDay(day string) (string, bool) {
	keys := s.DateKeys()
	for i, key := range keys {
		if key == day {
			if i == 0 {
				return "", false
			}
			return keys[i-1], true
		}
	}
	return "", false
}

func (s *service) NextDay(day string) (string, bool) {
	keys := s.DateKeys()
	for i, key := range keys {
		if key == day {
			if i == len(keys)-1 {
				return "", false
			}
			return keys[i+1], true
		}
	}
	return "", false
}

func (s *service) snapshotLocked() map[string][]Point {
	snapshot := make(map[string][]Point, len(s.archives))
	for key, route := range s.archives {
		copied := make([]Point, len(route))
		copy(copied, route)
		snapshot[key] = copied
	}
	return snapshot
}

// persist swallows write failures after surfacing them: a lost route
// point is not worth interrupting tracking for, but quota exhaustion is
// raised to the operator.
func (s *service) persist(ctx context.Context, snapshot map[string][]Point) error {
	err := s.store.Save(ctx, kv.KeyRouteArchives, snapshot)
	if err == nil {
		return nil
	}
	if pkgerrors.Is(err, pkgerrors.CodeStorageQuota) {
		s.alerts.RaiseQuotaWarning()
		s.logg.Warn(ctx, "route archive kept in memory only, storage quota exhausted")
	} else {
		s.logg.Error(ctx, "route archive persist failed", err)
	}
	return nil
}
