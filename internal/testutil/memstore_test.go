package testutil

import (
	"context"
	"errors"
	"testing"

	"github.com/poyrazK/dnsadmin/internal/core/domain"
	"github.com/poyrazK/dnsadmin/internal/core/ports"
)

func TestMemStoreRunInTxRollsBack(t *testing.T) {
	m := NewMemStore()
	ctx := context.Background()
	if err := m.CreateNamespace(ctx, &domain.Namespace{ID: "ns1", Name: "corp"}); err != nil {
		t.Fatal(err)
	}

	boom := errors.New("boom")
	err := m.RunInTx(ctx, func(tx ports.Store) error {
		if err := tx.CreateZone(ctx, &domain.Zone{ID: "z1", Name: "example.com", NamespaceID: "ns1"}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if z, _ := m.GetZone(ctx, "z1"); z != nil {
		t.Errorf("zone survived a rolled back transaction")
	}

	err = m.RunInTx(ctx, func(tx ports.Store) error {
		return tx.CreateZone(ctx, &domain.Zone{ID: "z1", Name: "example.com", NamespaceID: "ns1"})
	})
	if err != nil {
		t.Fatal(err)
	}
	if z, _ := m.GetZone(ctx, "z1"); z == nil {
		t.Errorf("committed zone missing")
	}
}

func TestMemStoreGrantMerges(t *testing.T) {
	m := NewMemStore()
	ctx := context.Background()
	_ = m.GrantPermission(ctx, domain.KindZone, "z1", "g1", domain.ActionRead)
	_ = m.GrantPermission(ctx, domain.KindZone, "z1", "g1", domain.ActionWrite)

	perms, _ := m.GetPermissions(ctx, domain.KindZone, "z1")
	if len(perms) != 1 || perms[0].Action != domain.ActionRead|domain.ActionWrite {
		t.Errorf("unexpected permissions: %+v", perms)
	}

	ids, _ := m.ListPermittedObjectIDs(ctx, domain.KindZone, []string{"g1"}, domain.ActionWrite)
	if len(ids) != 1 || ids[0] != "z1" {
		t.Errorf("unexpected ids: %v", ids)
	}
}

func TestMemStoreBumpSerialMissingZone(t *testing.T) {
	_, err := NewMemStore().BumpSerial(context.Background(), "ghost")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
