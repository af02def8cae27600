package visits

import (
	"context"
	"sync"

	"github.com/cbc-energia/fieldops-backend/pkg/enums"
	"github.com/cbc-energia/fieldops-backend/pkg/kv"
)

// Repository owns the in-memory record collection and mirrors every
// mutation to the durable store. The collection stays small (low
// thousands of records per device), so each write re-serializes the
// whole slice in exchange for crash durability.
type Repository struct {
	mu      sync.RWMutex
	store   kv.Store
	records []VisitRecord
}

func NewRepository(store kv.Store) *Repository {
	return &Repository{store: store}
}

// Hydrate loads the persisted collection. Absent or unreadable content
// starts the repository empty; hydration is never fatal.
func (r *Repository) Hydrate(ctx context.Context) error {
	var records []VisitRecord
	found, err := r.store.Load(ctx, kv.KeyRecords, &records)
	if err != nil {
		return err
	}
	if !found {
		records = nil
	}

	r.mu.Lock()
	r.records = records
	r.mu.Unlock()
	return nil
}

// All returns the collection newest-first.
func (r *Repository) All() []VisitRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]VisitRecord, len(r.records))
	copy(out, r.records)
	return out
}

// Pending returns the records still waiting for backend acknowledgement.
func (r *Repository) Pending() []VisitRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []VisitRecord
	for _, rec := range r.records {
		if rec.SyncStatus == enums.SyncPending {
			out = append(out, rec)
		}
	}
	return out
}

func (r *Repository) PendingCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, rec := range r.records {
		if rec.SyncStatus == enums.SyncPending {
			n++
		}
	}
	return n
}

func (r *Repository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}

// InsertFront prepends the record and persists the collection together
// with any extra pairs in one atomic batch. The in-memory insert happens
// regardless of write outcome so the operator keeps seeing the record;
// the caller decides how to surface the write failure.
func (r *Repository) InsertFront(ctx context.Context, record VisitRecord, extra ...kv.Pair) error {
	r.mu.Lock()
	r.records = append([]VisitRecord{record}, r.records...)
	snapshot := make([]VisitRecord, len(r.records))
	copy(snapshot, r.records)
	r.mu.Unlock()

	pairs := append([]kv.Pair{{Key: kv.KeyRecords, Value: snapshot}}, extra...)
	return r.store.SaveAll(ctx, pairs...)
}

// MarkAllPendingSynced flips every pending record in one batch write and
// returns how many transitioned.
func (r *Repository) MarkAllPendingSynced(ctx context.Context) (int, error) {
	r.mu.Lock()
	flipped := 0
	for i := range r.records {
		if r.records[i].SyncStatus == enums.SyncPending {
			r.records[i].SyncStatus = enums.SyncSynced
			flipped++
		}
	}
	if flipped == 0 {
		r.mu.Unlock()
		return 0, nil
	}
	snapshot := make([]VisitRecord, len(r.records))
	copy(snapshot, r.records)
	r.mu.Unlock()

	if err := r.store.Save(ctx, kv.KeyRecords, snapshot); err != nil {
		return flipped, err
	}
	return flipped, nil
}
