package repository

import (
	"context"
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/poyrazK/dnsadmin/internal/core/domain"
	"github.com/poyrazK/dnsadmin/internal/core/ports"
)

func TestPostgresRepository_Unit(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock: %s", err)
	}
	defer db.Close()

	repo := NewPostgresRepository(db)
	ctx := context.Background()

	t.Run("GetZone", func(t *testing.T) {
		now := time.Now()
		rows := sqlmock.NewRows([]string{"id", "name", "namespace_id", "nsmaster", "mail", "serial", "refresh", "retry", "expire", "minttl", "created_at", "updated_at"}).
			AddRow("z1", "example.com", "ns1", "ns1.example.com.", "hostmaster.example.com.", 7, 1200, 180, 1209600, 3600, now, now)

		mock.ExpectQuery(`SELECT (.+) FROM zones WHERE id = \$1`).
			WithArgs("z1").
			WillReturnRows(rows)

		zone, err := repo.GetZone(ctx, "z1")
		if err != nil {
			t.Fatalf("GetZone failed: %v", err)
		}
		if zone == nil || zone.Serial != 7 || zone.NamespaceID != "ns1" {
			t.Errorf("Unexpected zone: %+v", zone)
		}
	})

	t.Run("GetZone_NotFound", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM zones WHERE id = \$1`).
			WithArgs("ghost").
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		zone, err := repo.GetZone(ctx, "ghost")
		if err != nil || zone != nil {
			t.Errorf("expected nil, nil; got %+v, %v", zone, err)
		}
	})

	t.Run("BumpSerial", func(t *testing.T) {
		mock.ExpectQuery(`UPDATE zones SET serial = serial \+ 1(.+)RETURNING serial`).
			WithArgs("z1").
			WillReturnRows(sqlmock.NewRows([]string{"serial"}).AddRow(8))

		serial, err := repo.BumpSerial(ctx, "z1")
		if err != nil {
			t.Fatalf("BumpSerial failed: %v", err)
		}
		if serial != 8 {
			t.Errorf("expected serial 8, got %d", serial)
		}
	})

	t.Run("BumpSerial_MissingZone", func(t *testing.T) {
		mock.ExpectQuery(`UPDATE zones SET serial = serial \+ 1`).
			WithArgs("ghost").
			WillReturnRows(sqlmock.NewRows([]string{"serial"}))

		if _, err := repo.BumpSerial(ctx, "ghost"); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("GrantPermission", func(t *testing.T) {
		mock.ExpectExec(`INSERT INTO perm_zone AS p (.+) ON CONFLICT \(object_id, group_id\) DO UPDATE SET action = p.action \| EXCLUDED.action`).
			WithArgs(sqlmock.AnyArg(), "z1", "g1", int64(domain.ActionRead|domain.ActionWrite)).
			WillReturnResult(sqlmock.NewResult(1, 1))

		if err := repo.GrantPermission(ctx, domain.KindZone, "z1", "g1", domain.ActionRead|domain.ActionWrite); err != nil {
			t.Errorf("GrantPermission failed: %v", err)
		}
	})

	t.Run("GrantPermission_UnknownKind", func(t *testing.T) {
		if err := repo.GrantPermission(ctx, domain.ObjectKind("tenant"), "x", "g1", domain.ActionRead); err == nil {
			t.Error("expected error for unknown kind")
		}
	})

	t.Run("GrantPermission_MissingObject", func(t *testing.T) {
		mock.ExpectExec(`INSERT INTO perm_rr`).
			WillReturnError(&pgconn.PgError{Code: pgForeignKeyViolation, Detail: "Key (object_id)=(r9) is not present"})

		err := repo.GrantPermission(ctx, domain.KindRr, "r9", "g1", domain.ActionRead)
		var refErr *domain.ReferentialError
		if !errors.As(err, &refErr) || refErr.ID != "r9" {
			t.Errorf("expected ReferentialError, got %v", err)
		}
	})

	t.Run("GetPermissions", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"id", "object_id", "group_id", "action"}).
			AddRow("p1", "ns1", "g1", 7).
			AddRow("p2", "ns1", "g2", 1)

		mock.ExpectQuery(`SELECT id, object_id, group_id, action FROM perm_namespace WHERE object_id = \$1`).
			WithArgs("ns1").
			WillReturnRows(rows)

		perms, err := repo.GetPermissions(ctx, domain.KindNamespace, "ns1")
		if err != nil {
			t.Fatalf("GetPermissions failed: %v", err)
		}
		if len(perms) != 2 || perms[0].Action != domain.ActionAll || perms[1].Action != domain.ActionRead {
			t.Errorf("Unexpected permissions: %+v", perms)
		}
		if perms[0].Kind != domain.KindNamespace {
			t.Errorf("expected kind to be filled, got %q", perms[0].Kind)
		}
	})

	t.Run("ListPermittedObjectIDs", func(t *testing.T) {
		mock.ExpectQuery(`SELECT DISTINCT object_id FROM perm_zone WHERE action & \$1 = \$1 AND group_id IN \(\$2, \$3\)`).
			WithArgs(int64(domain.ActionRead), "g1", "g2").
			WillReturnRows(sqlmock.NewRows([]string{"object_id"}).AddRow("z1").AddRow("z2"))

		ids, err := repo.ListPermittedObjectIDs(ctx, domain.KindZone, []string{"g1", "g2"}, domain.ActionRead)
		if err != nil {
			t.Fatalf("ListPermittedObjectIDs failed: %v", err)
		}
		if len(ids) != 2 || ids[0] != "z1" {
			t.Errorf("Unexpected ids: %v", ids)
		}
	})

	t.Run("ListPermittedObjectIDs_NoGroups", func(t *testing.T) {
		ids, err := repo.ListPermittedObjectIDs(ctx, domain.KindZone, nil, domain.ActionRead)
		if err != nil || len(ids) != 0 {
			t.Errorf("expected empty result without a query, got %v, %v", ids, err)
		}
	})

	t.Run("GetRule", func(t *testing.T) {
		mock.ExpectQuery(`SELECT zone_id, namepat, typepat FROM zonerules WHERE zone_id = \$1`).
			WithArgs("z1").
			WillReturnRows(sqlmock.NewRows([]string{"zone_id", "namepat", "typepat"}).AddRow("z1", "www.*", "A|AAAA"))

		rule, err := repo.GetRule(ctx, "z1")
		if err != nil || rule == nil || rule.TypePat != "A|AAAA" {
			t.Errorf("Unexpected rule: %+v, %v", rule, err)
		}
	})

	t.Run("CreateNamespace_Duplicate", func(t *testing.T) {
		mock.ExpectExec(`INSERT INTO namespaces`).
			WithArgs("ns2", "corp").
			WillReturnError(&pgconn.PgError{Code: pgUniqueViolation, ConstraintName: "namespaces_name_key"})

		err := repo.CreateNamespace(ctx, &domain.Namespace{ID: "ns2", Name: "corp"})
		if !errors.Is(err, domain.ErrAlreadyExists) {
			t.Errorf("expected ErrAlreadyExists, got %v", err)
		}
	})

	t.Run("FindRrByNameType", func(t *testing.T) {
		cols := append([]string{"id", "zone_id", "name", "type", "ttl"}, rrDataColumns...)
		cols = append(cols, "created_at", "updated_at")
		values := make([]driver.Value, len(cols))
		values[0], values[1], values[2], values[3], values[4] = "r1", "z1", "www", "A", 300
		for i, col := range cols {
			if col == "a" {
				values[i] = "192.0.2.1"
			}
		}
		values[len(cols)-2], values[len(cols)-1] = time.Now(), time.Now()

		mock.ExpectQuery(`SELECT (.+) FROM rrs WHERE LOWER\(name\) = LOWER\(\$1\) AND type = \$2`).
			WithArgs("WWW", "A").
			WillReturnRows(sqlmock.NewRows(cols).AddRow(values...))

		rrs, err := repo.FindRrByNameType(ctx, "WWW", domain.TypeA)
		if err != nil {
			t.Fatalf("FindRrByNameType failed: %v", err)
		}
		if len(rrs) != 1 || rrs[0].A == nil || *rrs[0].A != "192.0.2.1" {
			t.Fatalf("Unexpected records: %+v", rrs)
		}
		if rrs[0].MX != nil || rrs[0].Prio != nil {
			t.Errorf("NULL columns should leave fields nil")
		}
	})

	t.Run("UpdateRr_NotFound", func(t *testing.T) {
		mock.ExpectExec(`UPDATE rrs SET name = \$2, type = \$3, ttl = \$4, soa_master = \$5(.+)WHERE id = \$1`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.UpdateRr(ctx, &domain.Rr{ID: "ghost", Name: "www", Type: domain.TypeA})
		if !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("GetAPIKeyByHash", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"id", "name", "key_hash", "key_prefix", "is_administrator", "groups", "default_group", "active", "created_at", "expires_at"}).
			AddRow("k1", "ci", "abc", "dnsa_123", false, "ops,web", "ops", true, time.Now(), nil)

		mock.ExpectQuery(`SELECT (.+) FROM api_keys WHERE key_hash = \$1`).
			WithArgs("abc").
			WillReturnRows(rows)

		key, err := repo.GetAPIKeyByHash(ctx, "abc")
		if err != nil || key == nil {
			t.Fatalf("GetAPIKeyByHash failed: %v", err)
		}
		if len(key.Groups) != 2 || key.Groups[1] != "web" || key.ExpiresAt != nil {
			t.Errorf("Unexpected key: %+v", key)
		}
	})

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func TestPostgresRepository_RunInTx(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock: %s", err)
	}
	defer db.Close()

	repo := NewPostgresRepository(db)
	ctx := context.Background()

	t.Run("Commit", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec(`DELETE FROM rrs WHERE id = \$1`).WithArgs("r1").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := repo.RunInTx(ctx, func(tx ports.Store) error {
			return tx.DeleteRr(ctx, "r1")
		})
		if err != nil {
			t.Errorf("RunInTx failed: %v", err)
		}
	})

	t.Run("Rollback", func(t *testing.T) {
		boom := errors.New("boom")
		mock.ExpectBegin()
		mock.ExpectRollback()

		err := repo.RunInTx(ctx, func(tx ports.Store) error {
			return boom
		})
		if !errors.Is(err, boom) {
			t.Errorf("expected boom, got %v", err)
		}
	})

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}
