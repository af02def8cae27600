package kv

import (
	"context"
	"errors"
	"fmt"
	"syscall"
	"testing"

	"github.com/cbc-energia/fieldops-backend/pkg/config"
	pkgerrors "github.com/cbc-energia/fieldops-backend/pkg/errors"
)

type payload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func newTestBadger(t *testing.T) *BadgerStore {
	t.Helper()
	store, err := NewBadgerStore(config.StoreConfig{InMemory: true}, nil)
	if err != nil {
		t.Fatalf("open in-memory badger: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("close badger: %v", err)
		}
	})
	return store
}

func TestBadgerStoreRoundTrip(t *testing.T) {
	store := newTestBadger(t)
	ctx := context.Background()

	want := payload{Name: "visit", Count: 3}
	if err := store.Save(ctx, KeyRecords, want); err != nil {
		t.Fatalf("save: %v", err)
	}

	var got payload
	found, err := store.Load(ctx, KeyRecords, &got)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !found {
		t.Fatal("expected key to be present")
	}
	if got != want {
		t.Fatalf("round trip mismatch: got %+v want %+v", got, want)
	}
}

func TestBadgerStoreAbsentKey(t *testing.T) {
	store := newTestBadger(t)

	var got payload
	found, err := store.Load(context.Background(), "never_written", &got)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if found {
		t.Fatal("expected absent key")
	}
}

func TestBadgerStoreSaveAllAtomicVisibility(t *testing.T) {
	store := newTestBadger(t)
	ctx := context.Background()

	err := store.SaveAll(ctx,
		Pair{Key: KeyRecords, Value: payload{Name: "a"}},
		Pair{Key: KeyAuthUser, Value: payload{Name: "b"}},
	)
	if err != nil {
		t.Fatalf("save all: %v", err)
	}

	for _, key := range []string{KeyRecords, KeyAuthUser} {
		var got payload
		found, err := store.Load(ctx, key, &got)
		if err != nil || !found {
			t.Fatalf("expected %s present after batch, found=%v err=%v", key, found, err)
		}
	}
}

func TestMemoryStoreCorruptValueTreatedAbsent(t *testing.T) {
	store := NewMemoryStore()
	store.SeedRaw(KeyRouteArchives, []byte("{not json"))

	var got map[string][]payload
	found, err := store.Load(context.Background(), KeyRouteArchives, &got)
	if err != nil {
		t.Fatalf("corrupt load must not error: %v", err)
	}
	if found {
		t.Fatal("corrupt value must be reported absent")
	}
}

func TestMemoryStoreSaveAllEmptyBatch(t *testing.T) {
	store := NewMemoryStore()
	store.FailWritesWithQuota(true)

	if err := store.SaveAll(context.Background()); err != nil {
		t.Fatalf("empty batch must be a no-op: %v", err)
	}
}

func TestClassifyWriteErrorQuota(t *testing.T) {
	cases := []error{
		syscall.ENOSPC,
		fmt.Errorf("write fieldops.db: no space left on device"),
		errors.New("database or disk is full"),
	}
	for _, cause := range cases {
		err := classifyWriteError(KeyRecords, cause)
		if !pkgerrors.Is(err, pkgerrors.CodeStorageQuota) {
			t.Fatalf("expected quota code for %v, got %v", cause, err)
		}
	}

	err := classifyWriteError(KeyRecords, errors.New("i/o timeout"))
	if !pkgerrors.Is(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency code, got %v", err)
	}
}
