package kv

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
)

// MemoryStore is an in-process Store used by tests and by components that
// need a scratch store without touching disk.
type MemoryStore struct {
	mtx       sync.RWMutex
	data      map[string][]byte
	quotaFull bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (s *MemoryStore) Save(ctx context.Context, key string, value any) error {
	return s.SaveAll(ctx, Pair{Key: key, Value: value})
}

func (s *MemoryStore) SaveAll(ctx context.Context, pairs ...Pair) error {
	if len(pairs) == 0 {
		return nil
	}
	s.mtx.RLock()
	quotaFull := s.quotaFull
	s.mtx.RUnlock()
	if quotaFull {
		return classifyWriteError(pairs[0].Key, errNoSpace)
	}

	encoded := make(map[string][]byte, len(pairs))
	for _, pair := range pairs {
		data, err := encode(pair.Key, pair.Value)
		if err != nil {
			return err
		}
		encoded[pair.Key] = data
	}

	s.mtx.Lock()
	defer s.mtx.Unlock()
	for key, data := range encoded {
		s.data[key] = data
	}
	return nil
}

func (s *MemoryStore) Load(ctx context.Context, key string, dest any) (bool, error) {
	s.mtx.RLock()
	raw, ok := s.data[key]
	s.mtx.RUnlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, nil
	}
	return true, nil
}

func (s *MemoryStore) Close() error {
	return nil
}

// SeedRaw stores pre-encoded bytes under a key, bypassing serialization.
// Tests use it to simulate corrupt persisted content.
func (s *MemoryStore) SeedRaw(key string, raw []byte) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	s.data[key] = raw
}

var errNoSpace = errors.New("write failed: no space left on device")

// FailWritesWithQuota makes every subsequent write fail as if the device
// storage were exhausted. Tests use it to exercise the quota path.
func (s *MemoryStore) FailWritesWithQuota(fail bool) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	s.quotaFull = fail
}
