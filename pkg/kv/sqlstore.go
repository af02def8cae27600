package kv

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cbc-energia/fieldops-backend/pkg/logger"
)

// Entry is the row shape backing the SQL store.
type Entry struct {
	Key       string    `gorm:"column:k;primaryKey"`
	Value     []byte    `gorm:"column:v;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName provides the explicit table binding for GORM.
func (Entry) TableName() string {
	return "kv_entries"
}

// SQLStore persists values in a kv_entries table through GORM. Used when the
// service runs against sqlite or postgres instead of an embedded Badger dir.
type SQLStore struct {
	db   *gorm.DB
	logg *logger.Logger
}

// NewSQLStore binds the store to an open GORM connection.
func NewSQLStore(db *gorm.DB, logg *logger.Logger) *SQLStore {
	return &SQLStore{db: db, logg: logg}
}

func (s *SQLStore) Save(ctx context.Context, key string, value any) error {
	return s.SaveAll(ctx, Pair{Key: key, Value: value})
}

func (s *SQLStore) SaveAll(ctx context.Context, pairs ...Pair) error {
	if len(pairs) == 0 {
		return nil
	}

	entries := make([]Entry, 0, len(pairs))
	for _, pair := range pairs {
		data, err := encode(pair.Key, pair.Value)
		if err != nil {
			return err
		}
		entries = append(entries, Entry{Key: pair.Key, Value: data})
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "k"}},
			DoUpdates: clause.AssignmentColumns([]string{"v", "updated_at"}),
		}).Create(&entries).Error
	})
	if err != nil {
		return classifyWriteError(pairs[0].Key, err)
	}
	return nil
}

func (s *SQLStore) Load(ctx context.Context, key string, dest any) (bool, error) {
	var entry Entry
	err := s.db.WithContext(ctx).Where("k = ?", key).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, classifyReadError(key, err)
	}

	if err := json.Unmarshal(entry.Value, dest); err != nil {
		if s.logg != nil {
			s.logg.Warn(s.logg.WithField(ctx, "key", key), "store.corrupt_value_discarded")
		}
		return false, nil
	}
	return true, nil
}

// Close is a no-op; the shared DB connection is owned by the db client.
func (s *SQLStore) Close() error {
	return nil
}
