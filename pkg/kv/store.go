package kv

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"syscall"

	pkgerrors "github.com/cbc-energia/fieldops-backend/pkg/errors"
)

// Stable storage keys. They must not change across releases or previously
// persisted field data becomes unreachable.
const (
	KeyRecords       = "records"
	KeyRouteArchives = "route_archives"
	KeyMarkerConfig  = "marker_config"
	KeyAuthUser      = "auth_user"
	KeySessions      = "sessions"
)

// Pair couples a key with the value to persist under it.
type Pair struct {
	Key   string
	Value any
}

// Store is a synchronous durable key/value surface. Values are serialized by
// the store; callers never see raw bytes.
//
// Load reports absence instead of failing: a missing key and a corrupt stored
// value both yield (false, nil), so hydration is never fatal.
type Store interface {
	Save(ctx context.Context, key string, value any) error
	// SaveAll writes every pair in one atomic batch. Either all pairs become
	// durable or none do.
	SaveAll(ctx context.Context, pairs ...Pair) error
	Load(ctx context.Context, key string, dest any) (bool, error)
	Close() error
}

func encode(key string, value any) ([]byte, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "serialize value for "+key)
	}
	return data, nil
}

// classifyWriteError maps backend write failures onto the error taxonomy.
// Exhausted device storage is the one condition callers branch on.
func classifyWriteError(key string, err error) error {
	if err == nil {
		return nil
	}
	if isQuotaError(err) {
		return pkgerrors.Wrap(pkgerrors.CodeStorageQuota, err, "no space left to persist "+key)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist "+key)
}

func classifyReadError(key string, err error) error {
	if err == nil {
		return nil
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load "+key)
}

func isQuotaError(err error) bool {
	if errors.Is(err, syscall.ENOSPC) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "no space left") ||
		strings.Contains(msg, "disk is full") ||
		strings.Contains(msg, "database or disk is full")
}
