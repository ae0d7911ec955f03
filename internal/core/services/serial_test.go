package services

import (
	"context"
	"errors"
	"testing"

	"github.com/poyrazK/dnsadmin/internal/testutil"
)

func TestSerialHookApply(t *testing.T) {
	store := testutil.NewMemStore()
	seedZone(t, store)
	hook := NewSerialHook(nil)

	for want := int64(2); want <= 4; want++ {
		got, err := hook.Apply(context.Background(), store, "z1")
		if err != nil {
			t.Fatalf("Apply() error = %v", err)
		}
		if got != want {
			t.Errorf("Apply() = %d, want %d", got, want)
		}
	}
}

func TestSerialHookMissingZone(t *testing.T) {
	hook := NewSerialHook(nil)
	_, err := hook.Apply(context.Background(), testutil.NewMemStore(), "ghost")
	if !errors.Is(err, ErrSerialInvariant) {
		t.Errorf("expected ErrSerialInvariant, got %v", err)
	}
}

func TestSerialHookStorageError(t *testing.T) {
	store := testutil.NewMemStore()
	seedZone(t, store)
	store.FailOn("BumpSerial", errors.New("connection reset"))

	_, err := NewSerialHook(nil).Apply(context.Background(), store, "z1")
	if err == nil || errors.Is(err, ErrSerialInvariant) {
		t.Errorf("expected a plain storage error, got %v", err)
	}
}
