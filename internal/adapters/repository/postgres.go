package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/poyrazK/dnsadmin/internal/core/domain"
	"github.com/poyrazK/dnsadmin/internal/core/ports"
)

const (
	pgForeignKeyViolation = "23503"
	pgUniqueViolation     = "23505"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// pgStore implements ports.Store over a querier.
type pgStore struct {
	q querier
}

// PostgresRepository implements ports.Repository using PostgreSQL.
type PostgresRepository struct {
	*pgStore
	db *sql.DB
}

// NewPostgresRepository creates and returns a new PostgresRepository instance.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{pgStore: &pgStore{q: db}, db: db}
}

// RunInTx runs fn inside a single database transaction.
func (r *PostgresRepository) RunInTx(ctx context.Context, fn func(tx ports.Store) error) error {
	tx, errTx := r.db.BeginTx(ctx, nil)
	if errTx != nil {
		return errTx
	}
	defer func() {
		if errRollback := tx.Rollback(); errRollback != nil && !errors.Is(errRollback, sql.ErrTxDone) {
			log.Printf("failed to rollback transaction: %v", errRollback)
		}
	}()

	if err := fn(&pgStore{q: tx}); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func closeRows(rows *sql.Rows) {
	if errClose := rows.Close(); errClose != nil {
		log.Printf("failed to close rows: %v", errClose)
	}
}

// mapError turns constraint violations into domain errors.
func mapError(err error, kind domain.ObjectKind, id string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgForeignKeyViolation:
			return &domain.ReferentialError{Kind: kind, ID: id, Detail: pgErr.Detail}
		case pgUniqueViolation:
			return fmt.Errorf("%w: %s", domain.ErrAlreadyExists, pgErr.ConstraintName)
		}
	}
	return err
}

// placeholders renders "$start, $start+1, ..." for n arguments.
func placeholders(start, n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("$%d", start+i)
	}
	return strings.Join(parts, ", ")
}

func stringArgs(values []string) []any {
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v
	}
	return args
}

// Permissions

func permTable(kind domain.ObjectKind) (string, error) {
	switch kind {
	case domain.KindNamespace:
		return "perm_namespace", nil
	case domain.KindZone:
		return "perm_zone", nil
	case domain.KindRr:
		return "perm_rr", nil
	}
	return "", fmt.Errorf("unknown object kind %q", kind)
}

func (s *pgStore) GetPermissions(ctx context.Context, kind domain.ObjectKind, objectID string) ([]domain.Permission, error) {
	table, err := permTable(kind)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`SELECT id, object_id, group_id, action FROM %s WHERE object_id = $1 ORDER BY group_id`, table)
	rows, errQuery := s.q.QueryContext(ctx, query, objectID)
	if errQuery != nil {
		return nil, errQuery
	}
	defer closeRows(rows)

	var perms []domain.Permission
	for rows.Next() {
		p := domain.Permission{Kind: kind}
		var action int16
		if errScan := rows.Scan(&p.ID, &p.ObjectID, &p.GroupID, &action); errScan != nil {
			return nil, errScan
		}
		p.Action = domain.Action(action)
		perms = append(perms, p)
	}
	return perms, rows.Err()
}

func (s *pgStore) ListPermittedObjectIDs(ctx context.Context, kind domain.ObjectKind, groups []string, want domain.Action) ([]string, error) {
	if len(groups) == 0 {
		return []string{}, nil
	}
	table, err := permTable(kind)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`SELECT DISTINCT object_id FROM %s WHERE action & $1 = $1 AND group_id IN (%s) ORDER BY object_id`,
		table, placeholders(2, len(groups)))
	args := append([]any{int16(want)}, stringArgs(groups)...)

	rows, errQuery := s.q.QueryContext(ctx, query, args...)
	if errQuery != nil {
		return nil, errQuery
	}
	defer closeRows(rows)

	ids := []string{}
	for rows.Next() {
		var id string
		if errScan := rows.Scan(&id); errScan != nil {
			return nil, errScan
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// GrantPermission inserts a grant or ORs action into the existing one for the
// same (object, group).
func (s *pgStore) GrantPermission(ctx context.Context, kind domain.ObjectKind, objectID, groupID string, action domain.Action) error {
	table, err := permTable(kind)
	if err != nil {
		return err
	}
	query := fmt.Sprintf(`INSERT INTO %s AS p (id, object_id, group_id, action) VALUES ($1, $2, $3, $4)
			  ON CONFLICT (object_id, group_id) DO UPDATE SET action = p.action | EXCLUDED.action`, table)
	_, errExec := s.q.ExecContext(ctx, query, uuid.New().String(), objectID, groupID, int16(action))
	return mapError(errExec, kind, objectID)
}

// Zone rules

func (s *pgStore) GetRule(ctx context.Context, zoneID string) (*domain.Zonerule, error) {
	query := `SELECT zone_id, namepat, typepat FROM zonerules WHERE zone_id = $1`
	var rule domain.Zonerule
	errRow := s.q.QueryRowContext(ctx, query, zoneID).Scan(&rule.ZoneID, &rule.NamePat, &rule.TypePat)
	if errors.Is(errRow, sql.ErrNoRows) {
		return nil, nil
	}
	if errRow != nil {
		return nil, errRow
	}
	return &rule, nil
}

func (s *pgStore) SetRule(ctx context.Context, rule *domain.Zonerule) error {
	query := `INSERT INTO zonerules (zone_id, namepat, typepat) VALUES ($1, $2, $3)
			  ON CONFLICT (zone_id) DO UPDATE SET namepat = EXCLUDED.namepat, typepat = EXCLUDED.typepat`
	_, err := s.q.ExecContext(ctx, query, rule.ZoneID, rule.NamePat, rule.TypePat)
	return mapError(err, domain.KindZone, rule.ZoneID)
}

func (s *pgStore) DeleteRule(ctx context.Context, zoneID string) error {
	_, err := s.q.ExecContext(ctx, `DELETE FROM zonerules WHERE zone_id = $1`, zoneID)
	return err
}

// Serial

func (s *pgStore) BumpSerial(ctx context.Context, zoneID string) (int64, error) {
	query := `UPDATE zones SET serial = serial + 1, updated_at = NOW() WHERE id = $1 RETURNING serial`
	var serial int64
	errRow := s.q.QueryRowContext(ctx, query, zoneID).Scan(&serial)
	if errors.Is(errRow, sql.ErrNoRows) {
		return 0, domain.ErrNotFound
	}
	if errRow != nil {
		return 0, errRow
	}
	return serial, nil
}

// Namespaces

func (s *pgStore) GetNamespace(ctx context.Context, id string) (*domain.Namespace, error) {
	var ns domain.Namespace
	errRow := s.q.QueryRowContext(ctx, `SELECT id, name FROM namespaces WHERE id = $1`, id).Scan(&ns.ID, &ns.Name)
	if errors.Is(errRow, sql.ErrNoRows) {
		return nil, nil
	}
	if errRow != nil {
		return nil, errRow
	}
	return &ns, nil
}

func (s *pgStore) ListNamespaces(ctx context.Context) ([]domain.Namespace, error) {
	rows, errQuery := s.q.QueryContext(ctx, `SELECT id, name FROM namespaces ORDER BY name`)
	if errQuery != nil {
		return nil, errQuery
	}
	defer closeRows(rows)

	namespaces := []domain.Namespace{}
	for rows.Next() {
		var ns domain.Namespace
		if errScan := rows.Scan(&ns.ID, &ns.Name); errScan != nil {
			return nil, errScan
		}
		namespaces = append(namespaces, ns)
	}
	return namespaces, rows.Err()
}

func (s *pgStore) CreateNamespace(ctx context.Context, ns *domain.Namespace) error {
	_, err := s.q.ExecContext(ctx, `INSERT INTO namespaces (id, name) VALUES ($1, $2)`, ns.ID, ns.Name)
	return mapError(err, domain.KindNamespace, ns.ID)
}

func (s *pgStore) DeleteNamespace(ctx context.Context, id string) error {
	_, err := s.q.ExecContext(ctx, `DELETE FROM namespaces WHERE id = $1`, id)
	return mapError(err, domain.KindNamespace, id)
}

func (s *pgStore) CountZonesInNamespace(ctx context.Context, namespaceID string) (int, error) {
	var n int
	err := s.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM zones WHERE namespace_id = $1`, namespaceID).Scan(&n)
	return n, err
}

// Zones

const zoneColumns = `id, name, namespace_id, nsmaster, mail, serial, refresh, retry, expire, minttl, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanZone(row rowScanner) (domain.Zone, error) {
	var z domain.Zone
	err := row.Scan(&z.ID, &z.Name, &z.NamespaceID, &z.NSMaster, &z.Mail, &z.Serial,
		&z.Refresh, &z.Retry, &z.Expire, &z.MinTTL, &z.CreatedAt, &z.UpdatedAt)
	return z, err
}

func (s *pgStore) queryZones(ctx context.Context, query string, args ...any) ([]domain.Zone, error) {
	rows, errQuery := s.q.QueryContext(ctx, query, args...)
	if errQuery != nil {
		return nil, errQuery
	}
	defer closeRows(rows)

	zones := []domain.Zone{}
	for rows.Next() {
		z, errScan := scanZone(rows)
		if errScan != nil {
			return nil, errScan
		}
		zones = append(zones, z)
	}
	return zones, rows.Err()
}

func (s *pgStore) GetZone(ctx context.Context, id string) (*domain.Zone, error) {
	z, errRow := scanZone(s.q.QueryRowContext(ctx, `SELECT `+zoneColumns+` FROM zones WHERE id = $1`, id))
	if errors.Is(errRow, sql.ErrNoRows) {
		return nil, nil
	}
	if errRow != nil {
		return nil, errRow
	}
	return &z, nil
}

func (s *pgStore) ListZones(ctx context.Context) ([]domain.Zone, error) {
	return s.queryZones(ctx, `SELECT `+zoneColumns+` FROM zones ORDER BY name`)
}

func (s *pgStore) GetZonesByIDs(ctx context.Context, ids []string) ([]domain.Zone, error) {
	if len(ids) == 0 {
		return []domain.Zone{}, nil
	}
	query := fmt.Sprintf(`SELECT %s FROM zones WHERE id IN (%s) ORDER BY name`, zoneColumns, placeholders(1, len(ids)))
	return s.queryZones(ctx, query, stringArgs(ids)...)
}

func (s *pgStore) CreateZone(ctx context.Context, zone *domain.Zone) error {
	query := `INSERT INTO zones (` + zoneColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := s.q.ExecContext(ctx, query, zone.ID, zone.Name, zone.NamespaceID, zone.NSMaster, zone.Mail, zone.Serial,
		zone.Refresh, zone.Retry, zone.Expire, zone.MinTTL, zone.CreatedAt, zone.UpdatedAt)
	return mapError(err, domain.KindNamespace, zone.NamespaceID)
}

// UpdateZone writes the SOA parameters. The serial is only changed by BumpSerial.
func (s *pgStore) UpdateZone(ctx context.Context, zone *domain.Zone) error {
	query := `UPDATE zones SET nsmaster = $2, mail = $3, refresh = $4, retry = $5, expire = $6, minttl = $7, updated_at = $8
			  WHERE id = $1`
	res, err := s.q.ExecContext(ctx, query, zone.ID, zone.NSMaster, zone.Mail, zone.Refresh, zone.Retry, zone.Expire, zone.MinTTL, zone.UpdatedAt)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *pgStore) DeleteZone(ctx context.Context, id string) error {
	_, err := s.q.ExecContext(ctx, `DELETE FROM zones WHERE id = $1`, id)
	return mapError(err, domain.KindZone, id)
}

func (s *pgStore) CountRrsInZone(ctx context.Context, zoneID string) (int, error) {
	var n int
	err := s.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM rrs WHERE zone_id = $1`, zoneID).Scan(&n)
	return n, err
}

// Records

var rrDataColumns = []string{
	"soa_master", "soa_mail", "soa_serial", "soa_refresh", "soa_retry", "soa_expire", "soa_minttl",
	"a", "aaaa", "cname", "ns", "ptr", "dname", "prio", "mx", "txt",
	"srv_priority", "srv_weight", "srv_port", "srv_target",
	"caa_flag", "caa_tag", "caa_value",
	"dnskey_flag", "dnskey_proto", "dnskey_algorithm", "dnskey_pubkey",
	"rrsig_type", "rrsig_algorithm", "rrsig_labels", "rrsig_origttl", "rrsig_keytag", "rrsig_signer", "rrsig_signature",
	"nsec_nextdomain", "nsec_typebitmaps",
	"ds_keytag", "ds_algorithm", "ds_digesttype", "ds_digest",
	"nsec3_hashalgorithm", "nsec3_flags", "nsec3_iteration", "nsec3_saltlength", "nsec3_salt",
	"nsec3_hashlength", "nsec3_nexthashedownername", "nsec3_typebitmaps",
}

var rrColumns = "id, zone_id, name, type, ttl, " + strings.Join(rrDataColumns, ", ") + ", created_at, updated_at"

// rrData returns the type-specific values of rr in rrDataColumns order.
func rrData(rr *domain.Rr) []any {
	return []any{
		rr.SOAMaster, rr.SOAMail, rr.SOASerial, rr.SOARefresh, rr.SOARetry, rr.SOAExpire, rr.SOAMinTTL,
		rr.A, rr.AAAA, rr.CNAME, rr.NS, rr.PTR, rr.DName, rr.Prio, rr.MX, rr.TXT,
		rr.SRVPriority, rr.SRVWeight, rr.SRVPort, rr.SRVTarget,
		rr.CAAFlag, rr.CAATag, rr.CAAValue,
		rr.DNSKEYFlag, rr.DNSKEYProto, rr.DNSKEYAlgorithm, rr.DNSKEYPubkey,
		rr.RRSIGType, rr.RRSIGAlgorithm, rr.RRSIGLabels, rr.RRSIGOrigTTL, rr.RRSIGKeytag, rr.RRSIGSigner, rr.RRSIGSignature,
		rr.NSECNextDomain, rr.NSECTypeBitmaps,
		rr.DSKeytag, rr.DSAlgorithm, rr.DSDigestType, rr.DSDigest,
		rr.NSEC3HashAlgorithm, rr.NSEC3Flags, rr.NSEC3Iteration, rr.NSEC3SaltLength, rr.NSEC3Salt,
		rr.NSEC3HashLength, rr.NSEC3NextHashedOwner, rr.NSEC3TypeBitmaps,
	}
}

// rrDest returns scan destinations for rrColumns. NULL columns leave the
// pointer fields nil.
func rrDest(rr *domain.Rr) []any {
	dest := []any{&rr.ID, &rr.ZoneID, &rr.Name, &rr.Type, &rr.TTL,
		&rr.SOAMaster, &rr.SOAMail, &rr.SOASerial, &rr.SOARefresh, &rr.SOARetry, &rr.SOAExpire, &rr.SOAMinTTL,
		&rr.A, &rr.AAAA, &rr.CNAME, &rr.NS, &rr.PTR, &rr.DName, &rr.Prio, &rr.MX, &rr.TXT,
		&rr.SRVPriority, &rr.SRVWeight, &rr.SRVPort, &rr.SRVTarget,
		&rr.CAAFlag, &rr.CAATag, &rr.CAAValue,
		&rr.DNSKEYFlag, &rr.DNSKEYProto, &rr.DNSKEYAlgorithm, &rr.DNSKEYPubkey,
		&rr.RRSIGType, &rr.RRSIGAlgorithm, &rr.RRSIGLabels, &rr.RRSIGOrigTTL, &rr.RRSIGKeytag, &rr.RRSIGSigner, &rr.RRSIGSignature,
		&rr.NSECNextDomain, &rr.NSECTypeBitmaps,
		&rr.DSKeytag, &rr.DSAlgorithm, &rr.DSDigestType, &rr.DSDigest,
		&rr.NSEC3HashAlgorithm, &rr.NSEC3Flags, &rr.NSEC3Iteration, &rr.NSEC3SaltLength, &rr.NSEC3Salt,
		&rr.NSEC3HashLength, &rr.NSEC3NextHashedOwner, &rr.NSEC3TypeBitmaps,
		&rr.CreatedAt, &rr.UpdatedAt,
	}
	return dest
}

func (s *pgStore) queryRrs(ctx context.Context, query string, args ...any) ([]domain.Rr, error) {
	rows, errQuery := s.q.QueryContext(ctx, query, args...)
	if errQuery != nil {
		return nil, errQuery
	}
	defer closeRows(rows)

	rrs := []domain.Rr{}
	for rows.Next() {
		var rr domain.Rr
		if errScan := rows.Scan(rrDest(&rr)...); errScan != nil {
			return nil, errScan
		}
		rrs = append(rrs, rr)
	}
	return rrs, rows.Err()
}

func (s *pgStore) GetRr(ctx context.Context, id string) (*domain.Rr, error) {
	var rr domain.Rr
	errRow := s.q.QueryRowContext(ctx, `SELECT `+rrColumns+` FROM rrs WHERE id = $1`, id).Scan(rrDest(&rr)...)
	if errors.Is(errRow, sql.ErrNoRows) {
		return nil, nil
	}
	if errRow != nil {
		return nil, errRow
	}
	return &rr, nil
}

func (s *pgStore) ListRrs(ctx context.Context) ([]domain.Rr, error) {
	return s.queryRrs(ctx, `SELECT `+rrColumns+` FROM rrs ORDER BY name, id`)
}

func (s *pgStore) GetRrsByIDs(ctx context.Context, ids []string) ([]domain.Rr, error) {
	if len(ids) == 0 {
		return []domain.Rr{}, nil
	}
	query := fmt.Sprintf(`SELECT %s FROM rrs WHERE id IN (%s) ORDER BY name, id`, rrColumns, placeholders(1, len(ids)))
	return s.queryRrs(ctx, query, stringArgs(ids)...)
}

func (s *pgStore) ListRrsByZone(ctx context.Context, zoneID string) ([]domain.Rr, error) {
	return s.queryRrs(ctx, `SELECT `+rrColumns+` FROM rrs WHERE zone_id = $1 ORDER BY name, id`, zoneID)
}

func (s *pgStore) FindRrByNameType(ctx context.Context, name string, t domain.RecordType) ([]domain.Rr, error) {
	return s.queryRrs(ctx, `SELECT `+rrColumns+` FROM rrs WHERE LOWER(name) = LOWER($1) AND type = $2 ORDER BY id`, name, t)
}

func (s *pgStore) FindRrByName(ctx context.Context, zoneID, name string) ([]domain.Rr, error) {
	return s.queryRrs(ctx, `SELECT `+rrColumns+` FROM rrs WHERE zone_id = $1 AND LOWER(name) = LOWER($2) ORDER BY id`, zoneID, name)
}

func (s *pgStore) CreateRr(ctx context.Context, rr *domain.Rr) error {
	args := append([]any{rr.ID, rr.ZoneID, rr.Name, rr.Type, rr.TTL}, rrData(rr)...)
	args = append(args, rr.CreatedAt, rr.UpdatedAt)
	query := fmt.Sprintf(`INSERT INTO rrs (%s) VALUES (%s)`, rrColumns, placeholders(1, len(args)))
	_, err := s.q.ExecContext(ctx, query, args...)
	return mapError(err, domain.KindZone, rr.ZoneID)
}

func (s *pgStore) UpdateRr(ctx context.Context, rr *domain.Rr) error {
	sets := make([]string, 0, len(rrDataColumns)+4)
	sets = append(sets, "name = $2", "type = $3", "ttl = $4")
	for i, col := range rrDataColumns {
		sets = append(sets, fmt.Sprintf("%s = $%d", col, i+5))
	}
	sets = append(sets, fmt.Sprintf("updated_at = $%d", len(rrDataColumns)+5))

	args := append([]any{rr.ID, rr.Name, rr.Type, rr.TTL}, rrData(rr)...)
	args = append(args, rr.UpdatedAt)
	query := `UPDATE rrs SET ` + strings.Join(sets, ", ") + ` WHERE id = $1`

	res, err := s.q.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *pgStore) DeleteRr(ctx context.Context, id string) error {
	_, err := s.q.ExecContext(ctx, `DELETE FROM rrs WHERE id = $1`, id)
	return err
}

// Audit

func (s *pgStore) SaveAuditLog(ctx context.Context, log *domain.AuditLog) error {
	query := `INSERT INTO audit_logs (id, actor_group, action, resource_type, resource_id, details, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := s.q.ExecContext(ctx, query, log.ID, log.ActorGroup, log.Action, log.ResourceType, log.ResourceID, log.Details, log.CreatedAt)
	return err
}

func (s *pgStore) GetAuditLogs(ctx context.Context, limit int) ([]domain.AuditLog, error) {
	query := `SELECT id, actor_group, action, resource_type, resource_id, details, created_at FROM audit_logs ORDER BY created_at DESC LIMIT $1`
	rows, errQuery := s.q.QueryContext(ctx, query, limit)
	if errQuery != nil {
		return nil, errQuery
	}
	defer closeRows(rows)

	logs := []domain.AuditLog{}
	for rows.Next() {
		var l domain.AuditLog
		if errScan := rows.Scan(&l.ID, &l.ActorGroup, &l.Action, &l.ResourceType, &l.ResourceID, &l.Details, &l.CreatedAt); errScan != nil {
			return nil, errScan
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

// API keys

func (r *PostgresRepository) CreateAPIKey(ctx context.Context, key *domain.APIKey) error {
	query := `INSERT INTO api_keys (id, name, key_hash, key_prefix, is_administrator, groups, default_group, active, created_at, expires_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.db.ExecContext(ctx, query, key.ID, key.Name, key.KeyHash, key.KeyPrefix, key.IsAdministrator,
		strings.Join(key.Groups, ","), key.DefaultGroup, key.Active, key.CreatedAt, key.ExpiresAt)
	return mapError(err, "", key.ID)
}

const apiKeyColumns = `id, name, key_hash, key_prefix, is_administrator, groups, default_group, active, created_at, expires_at`

func scanAPIKey(row rowScanner) (domain.APIKey, error) {
	var k domain.APIKey
	var groups string
	var expiresAt sql.NullTime
	err := row.Scan(&k.ID, &k.Name, &k.KeyHash, &k.KeyPrefix, &k.IsAdministrator, &groups, &k.DefaultGroup, &k.Active, &k.CreatedAt, &expiresAt)
	if err != nil {
		return k, err
	}
	if groups != "" {
		k.Groups = strings.Split(groups, ",")
	}
	if expiresAt.Valid {
		t := expiresAt.Time
		k.ExpiresAt = &t
	}
	return k, nil
}

func (r *PostgresRepository) GetAPIKeyByHash(ctx context.Context, keyHash string) (*domain.APIKey, error) {
	k, errRow := scanAPIKey(r.db.QueryRowContext(ctx, `SELECT `+apiKeyColumns+` FROM api_keys WHERE key_hash = $1`, keyHash))
	if errors.Is(errRow, sql.ErrNoRows) {
		return nil, nil
	}
	if errRow != nil {
		return nil, errRow
	}
	return &k, nil
}

func (r *PostgresRepository) ListAPIKeys(ctx context.Context) ([]domain.APIKey, error) {
	rows, errQuery := r.db.QueryContext(ctx, `SELECT `+apiKeyColumns+` FROM api_keys ORDER BY created_at`)
	if errQuery != nil {
		return nil, errQuery
	}
	defer closeRows(rows)

	keys := []domain.APIKey{}
	for rows.Next() {
		k, errScan := scanAPIKey(rows)
		if errScan != nil {
			return nil, errScan
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

func (r *PostgresRepository) DeleteAPIKey(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM api_keys WHERE id = $1`, id)
	return err
}

var (
	_ ports.Repository = (*PostgresRepository)(nil)
	_ ports.Store      = (*pgStore)(nil)
)
