package visits

import (
	"context"
	"sync"
	"time"

	"github.com/cbc-energia/fieldops-backend/internal/alerts"
	"github.com/cbc-energia/fieldops-backend/internal/identity"
	"github.com/cbc-energia/fieldops-backend/pkg/enums"
	pkgerrors "github.com/cbc-energia/fieldops-backend/pkg/errors"
	"github.com/cbc-energia/fieldops-backend/pkg/kv"
	"github.com/cbc-energia/fieldops-backend/pkg/logger"
	"github.com/cbc-energia/fieldops-backend/pkg/metrics"
)

// IdentityProvider is the identity surface record creation depends on.
type IdentityProvider interface {
	Current() (identity.User, bool)
	Stage(user identity.User)
}

// ConnectivitySource reports whether the device currently has a backend
// connection; it decides the sync status stamped on new records.
type ConnectivitySource interface {
	Online() bool
}

// AppendInput carries the caller-supplied fields of a new record.
// Draft holds metadata captured by earlier form steps; Metadata is the
// final submission and wins field-by-field.
type AppendInput struct {
	Type            enums.VisitType
	Status          enums.VisitStatus
	Notes           string
	Photos          []string
	Location        GeoLocation
	Draft           Metadata
	Metadata        Metadata
	LeadTemperature *enums.LeadTemperature
}

// ServiceParams groups dependencies for the visit record service.
type ServiceParams struct {
	Repo         *Repository
	Identity     IdentityProvider
	Connectivity ConnectivitySource
	Alerts       *alerts.Sink
	Metrics      *metrics.FieldMetrics
	Logger       *logger.Logger
}

// Service exposes the visit-record audit trail. Records are append-only:
// there is no update or delete because they are field evidence.
type Service interface {
	Hydrate(ctx context.Context) error
	Append(ctx context.Context, input AppendInput) (VisitRecord, error)
	List() []VisitRecord
	ListByUser(userID string) []VisitRecord
	TodayByUser(userID string, now time.Time) []VisitRecord
	Pending() []VisitRecord
	PendingCount() int
	MarkAllPendingSynced(ctx context.Context) (int, error)
	// SetChangeListener registers the hook fired after every collection
	// change. The sync engine uses it to re-evaluate pending work.
	SetChangeListener(fn func())
}

type service struct {
	repo         *Repository
	identity     IdentityProvider
	connectivity ConnectivitySource
	alerts       *alerts.Sink
	metrics      *metrics.FieldMetrics
	logg         *logger.Logger

	mu       sync.Mutex
	onChange func()
}

// NewService builds a visit record service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "repo is required")
	}
	if params.Identity == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "identity provider is required")
	}
	if params.Connectivity == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "connectivity source is required")
	}
	if params.Alerts == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "alerts sink is required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "logger is required")
	}
	return &service{
		repo:         params.Repo,
		identity:     params.Identity,
		connectivity: params.Connectivity,
		alerts:       params.Alerts,
		metrics:      params.Metrics,
		logg:         params.Logger,
	}, nil
}

func (s *service) Hydrate(ctx context.Context) error {
	return s.repo.Hydrate(ctx)
}

func (s *service) List() []VisitRecord {
	return s.repo.All()
}

func (s *service) ListByUser(userID string) []VisitRecord {
	all := s.repo.All()
	out := make([]VisitRecord, 0, len(all))
	for _, rec := range all {
		if rec.UserID == userID {
			out = append(out, rec)
		}
	}
	return out
}

func (s *service) TodayByUser(userID string, now time.Time) []VisitRecord {
	year, month, day := now.Date()
	out := make([]VisitRecord, 0)
	for _, rec := range s.repo.All() {
		if rec.UserID != userID {
			continue
		}
		ry, rm, rd := rec.Timestamp.In(now.Location()).Date()
		if ry == year && rm == month && rd == day {
			out = append(out, rec)
		}
	}
	return out
}

func (s *service) Pending() []VisitRecord {
	return s.repo.Pending()
}

func (s *service) PendingCount() int {
	return s.repo.PendingCount()
}

func (s *service) SetChangeListener(fn func()) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

// Append constructs the full record from the input and the acting
// identity, stamps its sync status from current connectivity, and
// persists it. A prospector submitting a classified lead earns points;
// the updated identity is written in the same batch as the record so
// neither survives without the other.
func (s *service) Append(ctx context.Context, input AppendInput) (VisitRecord, error) {
	user, ok := s.identity.Current()
	if !ok {
		return VisitRecord{}, pkgerrors.New(pkgerrors.CodeValidation, "acting identity is required")
	}

	if !input.Type.IsValid() {
		return VisitRecord{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid visit type")
	}
	status := input.Status
	if status == "" {
		status = s.defaultStatus(input)
	}
	if !status.IsValid() {
		return VisitRecord{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid visit status")
	}
	if input.LeadTemperature != nil && !input.LeadTemperature.IsValid() {
		return VisitRecord{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid lead temperature")
	}

	merged := Merge(input.Draft, input.Metadata)
	if err := merged.Validate(input.Type); err != nil {
		return VisitRecord{}, err
	}

	now := time.Now()
	syncStatus := enums.SyncPending
	if s.connectivity.Online() {
		syncStatus = enums.SyncSynced
	}

	record := VisitRecord{
		ID:         NewRecordID(now),
		Type:       input.Type,
		Status:     status,
		Role:       user.Role,
		UserID:     user.ID,
		UserName:   user.Name,
		Timestamp:  now,
		Location:   input.Location,
		Notes:      input.Notes,
		Photos:     input.Photos,
		Metadata:   merged,
		SyncStatus: syncStatus,
	}

	var extra []kv.Pair
	var staged *identity.User
	if earned := s.earnedPoints(user, input); earned > 0 {
		record.Gamification = &Gamification{
			Points:      earned,
			Temperature: *input.LeadTemperature,
		}
		updated := user
		updated.Points += earned
		staged = &updated
		extra = append(extra, kv.Pair{Key: kv.KeyAuthUser, Value: updated})
	}

	ctx = s.logg.WithRecordID(s.logg.WithUserID(ctx, user.ID), record.ID)
	if err := s.repo.InsertFront(ctx, record, extra...); err != nil {
		// The operator keeps the record on screen either way; quota
		// exhaustion additionally surfaces a warning because a reload
		// may lose it.
		if pkgerrors.Is(err, pkgerrors.CodeStorageQuota) {
			s.alerts.RaiseQuotaWarning()
			s.logg.Warn(ctx, "record kept in memory only, storage quota exhausted")
		} else {
			s.logg.Error(ctx, "record kept in memory only, persist failed", err)
		}
	}
	if staged != nil {
		s.identity.Stage(*staged)
	}

	s.metrics.IncRecordCreated(syncStatus.String())
	s.notifyChange()

	return record, nil
}

// MarkAllPendingSynced transitions every pending record to synced in one
// batch; invoked by the sync engine when a pass completes.
func (s *service) MarkAllPendingSynced(ctx context.Context) (int, error) {
	flipped, err := s.repo.MarkAllPendingSynced(ctx)
	if err != nil {
		return flipped, err
	}
	if flipped > 0 {
		s.notifyChange()
	}
	return flipped, nil
}

// defaultStatus mirrors the form behavior: a classified prospection maps
// temperature onto outcome, everything else starts pending.
func (s *service) defaultStatus(input AppendInput) enums.VisitStatus {
	if input.Type == enums.VisitProspection && input.LeadTemperature != nil {
		switch *input.LeadTemperature {
		case enums.LeadHot:
			return enums.VisitStatusSuccess
		case enums.LeadWarm:
			return enums.VisitStatusPending
		case enums.LeadCold:
			return enums.VisitStatusFailed
		}
	}
	return enums.VisitStatusPending
}

func (s *service) earnedPoints(user identity.User, input AppendInput) int {
	if user.Role != enums.RoleProspector {
		return 0
	}
	if input.Type != enums.VisitProspection || input.LeadTemperature == nil {
		return 0
	}
	return input.LeadTemperature.Points()
}

func (s *service) notifyChange() {
	s.mu.Lock()
	fn := s.onChange
	s.mu.Unlock()
	if fn != nil {
		fn()
	}
}
