package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/poyrazK/dnsadmin/internal/core/domain"
	"github.com/poyrazK/dnsadmin/internal/core/services"
	"github.com/poyrazK/dnsadmin/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *testutil.MemStore {
	t.Helper()
	store := testutil.NewMemStore()
	ctx := context.Background()
	require.NoError(t, store.CreateNamespace(ctx, &domain.Namespace{ID: "ns1", Name: "corp"}))
	require.NoError(t, store.CreateZone(ctx, &domain.Zone{
		ID: "z1", Name: "example.com", NamespaceID: "ns1",
		NSMaster: "ns1.example.com.", Mail: "hostmaster.example.com.", Serial: 1,
	}))
	return store
}

func TestRun_GrantAndShow(t *testing.T) {
	store := newStore(t)
	svc := services.NewAdminService(store, services.AdminOptions{})
	ctx := context.Background()
	out := &bytes.Buffer{}

	require.NoError(t, run(ctx, []string{"permctl", "grant", "-kind", "zone", "-id", "z1", "-group", "ops", "-action", "rw"}, out, svc))
	require.NoError(t, run(ctx, []string{"permctl", "grant", "-kind", "zone", "-id", "z1", "-group", "ops", "-action", "c"}, out, svc))

	perms, err := store.GetPermissions(ctx, domain.KindZone, "z1")
	require.NoError(t, err)
	require.Len(t, perms, 1)
	assert.Equal(t, domain.ActionAll, perms[0].Action)

	out.Reset()
	require.NoError(t, run(ctx, []string{"permctl", "show", "-kind", "zone", "-id", "z1"}, out, svc))
	assert.Contains(t, out.String(), "ops")
	assert.Contains(t, out.String(), "rwc")
}

func TestRun_GrantErrors(t *testing.T) {
	svc := services.NewAdminService(newStore(t), services.AdminOptions{})
	ctx := context.Background()
	out := &bytes.Buffer{}

	assert.Error(t, run(ctx, []string{"permctl", "grant", "-id", "z1", "-group", "ops", "-action", "rx"}, out, svc))

	var refErr *domain.ReferentialError
	err := run(ctx, []string{"permctl", "grant", "-id", "ghost", "-group", "ops"}, out, svc)
	assert.ErrorAs(t, err, &refErr)
}

func TestRun_Rules(t *testing.T) {
	store := newStore(t)
	svc := services.NewAdminService(store, services.AdminOptions{})
	ctx := context.Background()
	out := &bytes.Buffer{}

	require.NoError(t, run(ctx, []string{"permctl", "rule", "-zone", "z1", "-namepat", "www|mail", "-typepat", "A|AAAA"}, out, svc))
	rule, err := store.GetRule(ctx, "z1")
	require.NoError(t, err)
	require.NotNil(t, rule)
	assert.Equal(t, "A|AAAA", rule.TypePat)

	assert.Error(t, run(ctx, []string{"permctl", "rule", "-zone", "z1", "-namepat", "(", "-typepat", "A"}, out, svc))

	require.NoError(t, run(ctx, []string{"permctl", "unrule", "-zone", "z1"}, out, svc))
	rule, err = store.GetRule(ctx, "z1")
	require.NoError(t, err)
	assert.Nil(t, rule)
}

func TestRun_Subcommands(t *testing.T) {
	svc := services.NewAdminService(testutil.NewMemStore(), services.AdminOptions{})
	out := &bytes.Buffer{}

	err := run(context.Background(), []string{"permctl"}, out, svc)
	assert.EqualError(t, err, "expected 'grant', 'show', 'rule' or 'unrule' subcommands")

	err = run(context.Background(), []string{"permctl", "revoke"}, out, svc)
	assert.EqualError(t, err, "unknown subcommand: revoke")
}
