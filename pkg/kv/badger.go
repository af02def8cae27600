package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v3"

	"github.com/cbc-energia/fieldops-backend/pkg/config"
	"github.com/cbc-energia/fieldops-backend/pkg/logger"
)

// BadgerStore persists values in an embedded Badger database. It is the
// default backend for field devices: pure Go, single directory, survives
// power loss.
type BadgerStore struct {
	db   *badger.DB
	logg *logger.Logger
}

// NewBadgerStore opens (or creates) the Badger database per configuration.
func NewBadgerStore(cfg config.StoreConfig, logg *logger.Logger) (*BadgerStore, error) {
	opts := badger.DefaultOptions(cfg.BadgerPath).WithLogger(nil)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening badger store: %w", err)
	}
	return &BadgerStore{db: db, logg: logg}, nil
}

func (s *BadgerStore) Save(ctx context.Context, key string, value any) error {
	return s.SaveAll(ctx, Pair{Key: key, Value: value})
}

func (s *BadgerStore) SaveAll(ctx context.Context, pairs ...Pair) error {
	if len(pairs) == 0 {
		return nil
	}

	encoded := make(map[string][]byte, len(pairs))
	for _, pair := range pairs {
		data, err := encode(pair.Key, pair.Value)
		if err != nil {
			return err
		}
		encoded[pair.Key] = data
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		for key, data := range encoded {
			if err := txn.Set([]byte(key), data); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return classifyWriteError(pairs[0].Key, err)
	}
	return nil
}

func (s *BadgerStore) Load(ctx context.Context, key string, dest any) (bool, error) {
	var raw []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		raw, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, classifyReadError(key, err)
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		// Corrupt stored content is treated as absent, never fatal.
		if s.logg != nil {
			s.logg.Warn(s.logg.WithField(ctx, "key", key), "store.corrupt_value_discarded")
		}
		return false, nil
	}
	return true, nil
}

func (s *BadgerStore) Close() error {
	return s.db.Close()
}
