package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cbc-energia/fieldops-backend/pkg/config"
	"github.com/cbc-energia/fieldops-backend/pkg/kv"
)

var ErrInvalidSession = errors.New("invalid session")

type entry struct {
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Manager tracks active access sessions in the durable store so logout
// revokes tokens before their expiry. The session table is small on a
// single-operator device, so it is held as one document under the
// sessions key and rewritten on change.
type Manager struct {
	mu    sync.Mutex
	store kv.Store
	ttl   time.Duration
	now   func() time.Time
}

// AccessSessionChecker exposes the read-only surface needed by middleware.
type AccessSessionChecker interface {
	HasSession(ctx context.Context, accessID string) (bool, error)
}

// NewManager constructs a session manager backed by the durable store.
func NewManager(store kv.Store, cfg config.JWTConfig) (*Manager, error) {
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if cfg.ExpirationMinutes <= 0 {
		return nil, fmt.Errorf("jwt expiration minutes must be positive")
	}
	return &Manager{
		store: store,
		ttl:   time.Duration(cfg.ExpirationMinutes) * time.Minute,
		now:   time.Now,
	}, nil
}

// Create registers a new session for the user and returns its access ID,
// which becomes the JWT jti.
func (m *Manager) Create(ctx context.Context, userID string) (string, error) {
	if strings.TrimSpace(userID) == "" {
		return "", fmt.Errorf("user id is required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	sessions, err := m.load(ctx)
	if err != nil {
		return "", err
	}

	accessID := NewAccessID()
	now := m.now()
	sessions[accessID] = entry{
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}

	if err := m.store.Save(ctx, kv.KeySessions, sessions); err != nil {
		return "", err
	}
	return accessID, nil
}

// Revoke deletes the session tied to the access identifier.
func (m *Manager) Revoke(ctx context.Context, accessID string) error {
	if strings.TrimSpace(accessID) == "" {
		return fmt.Errorf("access id is required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	sessions, err := m.load(ctx)
	if err != nil {
		return err
	}
	if _, ok := sessions[accessID]; !ok {
		return ErrInvalidSession
	}
	delete(sessions, accessID)

	return m.store.Save(ctx, kv.KeySessions, sessions)
}

// RevokeUser deletes every session belonging to the user.
func (m *Manager) RevokeUser(ctx context.Context, userID string) error {
	if strings.TrimSpace(userID) == "" {
		return fmt.Errorf("user id is required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	sessions, err := m.load(ctx)
	if err != nil {
		return err
	}
	for id, e := range sessions {
		if e.UserID == userID {
			delete(sessions, id)
		}
	}

	return m.store.Save(ctx, kv.KeySessions, sessions)
}

// HasSession reports whether the access ID maps to a live, unexpired session.
func (m *Manager) HasSession(ctx context.Context, accessID string) (bool, error) {
	if strings.TrimSpace(accessID) == "" {
		return false, fmt.Errorf("access id is required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	sessions, err := m.load(ctx)
	if err != nil {
		return false, err
	}
	e, ok := sessions[accessID]
	if !ok {
		return false, nil
	}
	if m.now().After(e.ExpiresAt) {
		delete(sessions, accessID)
		if err := m.store.Save(ctx, kv.KeySessions, sessions); err != nil {
			return false, err
		}
		return false, nil
	}
	return true, nil
}

// NewAccessID produces a stable identifier used as the JWT jti.
func NewAccessID() string {
	return uuid.NewString()
}

func (m *Manager) load(ctx context.Context) (map[string]entry, error) {
	sessions := map[string]entry{}
	if _, err := m.store.Load(ctx, kv.KeySessions, &sessions); err != nil {
		return nil, err
	}
	if sessions == nil {
		sessions = map[string]entry{}
	}
	return sessions, nil
}
