package session

import (
	"context"
	"testing"
	"time"

	"github.com/cbc-energia/fieldops-backend/pkg/config"
	"github.com/cbc-energia/fieldops-backend/pkg/kv"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	mgr, err := NewManager(kv.NewMemoryStore(), config.JWTConfig{
		Secret:            "test",
		Issuer:            "fieldops",
		ExpirationMinutes: 60,
	})
	if err != nil {
		t.Fatalf("NewManager returned error: %v", err)
	}
	return mgr
}

func TestCreateAndHasSession(t *testing.T) {
	ctx := context.Background()
	mgr := newTestManager(t)

	accessID, err := mgr.Create(ctx, "user-1")
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if accessID == "" {
		t.Fatal("expected non-empty access id")
	}

	ok, err := mgr.HasSession(ctx, accessID)
	if err != nil {
		t.Fatalf("HasSession returned error: %v", err)
	}
	if !ok {
		t.Fatal("expected live session")
	}

	ok, err = mgr.HasSession(ctx, "unknown-id")
	if err != nil {
		t.Fatalf("HasSession returned error: %v", err)
	}
	if ok {
		t.Fatal("expected no session for unknown id")
	}
}

func TestRevoke(t *testing.T) {
	ctx := context.Background()
	mgr := newTestManager(t)

	accessID, err := mgr.Create(ctx, "user-1")
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if err := mgr.Revoke(ctx, accessID); err != nil {
		t.Fatalf("Revoke returned error: %v", err)
	}

	ok, err := mgr.HasSession(ctx, accessID)
	if err != nil {
		t.Fatalf("HasSession returned error: %v", err)
	}
	if ok {
		t.Fatal("expected revoked session to be gone")
	}

	if err := mgr.Revoke(ctx, accessID); err != ErrInvalidSession {
		t.Fatalf("second Revoke = %v, want ErrInvalidSession", err)
	}
}

func TestRevokeUserClearsAllSessions(t *testing.T) {
	ctx := context.Background()
	mgr := newTestManager(t)

	first, _ := mgr.Create(ctx, "user-1")
	second, _ := mgr.Create(ctx, "user-1")
	other, _ := mgr.Create(ctx, "user-2")

	if err := mgr.RevokeUser(ctx, "user-1"); err != nil {
		t.Fatalf("RevokeUser returned error: %v", err)
	}

	for _, id := range []string{first, second} {
		if ok, _ := mgr.HasSession(ctx, id); ok {
			t.Fatalf("expected session %s to be revoked", id)
		}
	}
	if ok, _ := mgr.HasSession(ctx, other); !ok {
		t.Fatal("expected other user's session to survive")
	}
}

func TestHasSessionExpiry(t *testing.T) {
	ctx := context.Background()
	mgr := newTestManager(t)

	accessID, err := mgr.Create(ctx, "user-1")
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	mgr.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	ok, err := mgr.HasSession(ctx, accessID)
	if err != nil {
		t.Fatalf("HasSession returned error: %v", err)
	}
	if ok {
		t.Fatal("expected expired session to be reported absent")
	}
}
