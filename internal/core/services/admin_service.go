package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/poyrazK/dnsadmin/internal/core/domain"
	"github.com/poyrazK/dnsadmin/internal/core/ports"
	"github.com/poyrazK/dnsadmin/internal/infrastructure/metrics"
	"github.com/rs/zerolog"
)

// AdminOptions configures the operations layer.
type AdminOptions struct {
	Profile  domain.RecordProfile
	RuleMode domain.RuleMode
	Cache    ports.ViewCache
	Logger   *zerolog.Logger
	Now      func() time.Time
}

type adminService struct {
	repo    ports.Repository
	authz   *Authorizer
	serial  *SerialHook
	profile domain.RecordProfile
	logger  zerolog.Logger
	now     func() time.Time
}

func NewAdminService(repo ports.Repository, opts AdminOptions) ports.AdminService {
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	profile := opts.Profile
	if profile == "" {
		profile = domain.ProfileStandard
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &adminService{
		repo:    repo,
		authz:   NewAuthorizer(repo, AuthorizerOptions{RuleMode: opts.RuleMode, Cache: opts.Cache, Logger: &logger}),
		serial:  NewSerialHook(&logger),
		profile: profile,
		logger:  logger.With().Str("component", "admin").Logger(),
		now:     now,
	}
}

func requireAdministrator(actor domain.Actor, what string) error {
	if !actor.IsAdministrator {
		return domain.Deny(domain.DenyAdministratorOnly, "only administrators can %s", what)
	}
	return nil
}

// mutate runs fn in a transaction and records the outcome.
func (s *adminService) mutate(ctx context.Context, op string, fn func(tx ports.Store) error) error {
	err := s.repo.RunInTx(ctx, fn)
	result := "ok"
	if err != nil {
		result = "error"
	}
	metrics.Mutations.WithLabelValues(op, result).Inc()
	return err
}

func (s *adminService) audit(ctx context.Context, tx ports.Store, actor domain.Actor, action, resourceType, resourceID, details string) error {
	entry := &domain.AuditLog{
		ID:           uuid.New().String(),
		ActorGroup:   actor.DefaultGroup,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Details:      details,
		CreatedAt:    s.now(),
	}
	if err := tx.SaveAuditLog(ctx, entry); err != nil {
		return fmt.Errorf("failed to save audit log: %w", err)
	}
	return nil
}

// Namespaces

func (s *adminService) CreateNamespace(ctx context.Context, actor domain.Actor, ns *domain.Namespace) error {
	if err := requireAdministrator(actor, "create namespaces"); err != nil {
		return err
	}
	if err := domain.ValidateNamespaceName(ns.Name); err != nil {
		return err
	}
	if ns.ID == "" {
		ns.ID = uuid.New().String()
	}

	err := s.mutate(ctx, "create_namespace", func(tx ports.Store) error {
		if err := tx.CreateNamespace(ctx, ns); err != nil {
			return err
		}
		return s.audit(ctx, tx, actor, "CREATE_NAMESPACE", "NAMESPACE", ns.ID, ns.Name)
	})
	if err != nil {
		return err
	}
	s.logger.Info().Str("namespace", ns.Name).Str("id", ns.ID).Msg("namespace created")
	return nil
}

func (s *adminService) GetNamespace(ctx context.Context, actor domain.Actor, id string) (*domain.Namespace, error) {
	if err := s.authz.CanRead(ctx, actor, domain.KindNamespace, id); err != nil {
		return nil, err
	}
	ns, err := s.repo.GetNamespace(ctx, id)
	if err != nil {
		return nil, err
	}
	if ns == nil {
		return nil, domain.ErrNotFound
	}
	return ns, nil
}

func (s *adminService) ListNamespaces(ctx context.Context, actor domain.Actor) ([]domain.Namespace, error) {
	ids, all, err := s.authz.AllowedObjects(ctx, actor, domain.KindNamespace)
	if err != nil {
		return nil, err
	}
	namespaces, err := s.repo.ListNamespaces(ctx)
	if err != nil {
		return nil, err
	}
	if all {
		return namespaces, nil
	}
	allowed := idSet(ids)
	out := make([]domain.Namespace, 0, len(ids))
	for _, ns := range namespaces {
		if allowed[ns.ID] {
			out = append(out, ns)
		}
	}
	return out, nil
}

func (s *adminService) DeleteNamespace(ctx context.Context, actor domain.Actor, id string) error {
	if err := requireAdministrator(actor, "delete namespaces"); err != nil {
		return err
	}
	err := s.mutate(ctx, "delete_namespace", func(tx ports.Store) error {
		ns, err := tx.GetNamespace(ctx, id)
		if err != nil {
			return err
		}
		if ns == nil {
			return domain.ErrNotFound
		}
		n, err := tx.CountZonesInNamespace(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return &domain.ReferentialError{Kind: domain.KindNamespace, ID: id,
				Detail: fmt.Sprintf("namespace '%s' still owns %d zone(s)", ns.Name, n)}
		}
		if err := tx.DeleteNamespace(ctx, id); err != nil {
			return err
		}
		return s.audit(ctx, tx, actor, "DELETE_NAMESPACE", "NAMESPACE", id, ns.Name)
	})
	if err != nil {
		return err
	}
	s.authz.InvalidateViews(ctx, domain.KindNamespace)
	return nil
}

// Zones

func validateZone(zone *domain.Zone) error {
	if err := domain.ValidateZoneName(zone.Name); err != nil {
		return err
	}
	for _, f := range []struct{ name, value string }{{"nsmaster", zone.NSMaster}, {"mail", zone.Mail}} {
		if f.value == "" {
			return &domain.FieldValueError{Field: f.name, Reason: "is required"}
		}
		if err := domain.ValidateTargetName(f.value); err != nil {
			return &domain.FieldValueError{Field: f.name, Value: f.value, Reason: err.Error()}
		}
	}
	for _, f := range []struct {
		name  string
		value int
	}{{"refresh", zone.Refresh}, {"retry", zone.Retry}, {"expire", zone.Expire}, {"minttl", zone.MinTTL}} {
		if f.value < 0 {
			return &domain.FieldValueError{Field: f.name, Value: fmt.Sprint(f.value), Reason: "must be positive"}
		}
	}
	return nil
}

func (s *adminService) CreateZone(ctx context.Context, actor domain.Actor, zone *domain.Zone) error {
	ns, err := s.repo.GetNamespace(ctx, zone.NamespaceID)
	if err != nil {
		return err
	}
	if ns == nil {
		return &domain.ReferentialError{Kind: domain.KindNamespace, ID: zone.NamespaceID}
	}
	zone.ApplyDefaults()
	if err := validateZone(zone); err != nil {
		return err
	}

	now := s.now()
	if zone.ID == "" {
		zone.ID = uuid.New().String()
	}
	zone.Serial = domain.InitialSerial
	zone.CreatedAt = now
	zone.UpdatedAt = now

	err = s.mutate(ctx, "create_zone", func(tx ports.Store) error {
		if err := s.authz.Using(tx).CanCreateChild(ctx, actor, domain.KindNamespace, zone.NamespaceID); err != nil {
			return err
		}
		if err := tx.CreateZone(ctx, zone); err != nil {
			return err
		}
		if err := s.authz.Stamp(ctx, tx, actor, domain.KindZone, zone.ID); err != nil {
			return err
		}
		return s.audit(ctx, tx, actor, "CREATE_ZONE", "ZONE", zone.ID, zone.Name)
	})
	if err != nil {
		return err
	}
	s.authz.InvalidateViews(ctx, domain.KindZone)
	s.logger.Info().Str("zone", zone.Name).Str("id", zone.ID).Str("group", actor.DefaultGroup).Msg("zone created")
	return nil
}

func (s *adminService) GetZone(ctx context.Context, actor domain.Actor, id string) (*domain.Zone, error) {
	if err := s.authz.CanRead(ctx, actor, domain.KindZone, id); err != nil {
		return nil, err
	}
	zone, err := s.repo.GetZone(ctx, id)
	if err != nil {
		return nil, err
	}
	if zone == nil {
		return nil, domain.ErrNotFound
	}
	return zone, nil
}

func (s *adminService) ListZones(ctx context.Context, actor domain.Actor) ([]domain.Zone, error) {
	ids, all, err := s.authz.AllowedObjects(ctx, actor, domain.KindZone)
	if err != nil {
		return nil, err
	}
	if all {
		return s.repo.ListZones(ctx)
	}
	if len(ids) == 0 {
		return []domain.Zone{}, nil
	}
	return s.repo.GetZonesByIDs(ctx, ids)
}

// UpdateZone changes the SOA parameters of a zone. Name and namespace are
// fixed at creation. The serial is bumped only when an SOA field changed.
func (s *adminService) UpdateZone(ctx context.Context, actor domain.Actor, zone *domain.Zone) error {
	var updated domain.Zone
	err := s.mutate(ctx, "update_zone", func(tx ports.Store) error {
		if err := s.authz.Using(tx).CanWrite(ctx, actor, domain.KindZone, zone.ID); err != nil {
			return err
		}
		existing, err := tx.GetZone(ctx, zone.ID)
		if err != nil {
			return err
		}
		if existing == nil {
			return domain.ErrNotFound
		}
		if zone.Name != "" && zone.Name != existing.Name {
			return &domain.FieldValueError{Field: "name", Value: zone.Name, Reason: "cannot be changed"}
		}
		if zone.NamespaceID != "" && zone.NamespaceID != existing.NamespaceID {
			return &domain.FieldValueError{Field: "namespace_id", Value: zone.NamespaceID, Reason: "cannot be changed"}
		}

		updated = *existing
		updated.NSMaster = zone.NSMaster
		updated.Mail = zone.Mail
		updated.Refresh = zone.Refresh
		updated.Retry = zone.Retry
		updated.Expire = zone.Expire
		updated.MinTTL = zone.MinTTL
		updated.ApplyDefaults()
		if err := validateZone(&updated); err != nil {
			return err
		}
		updated.UpdatedAt = s.now()

		if err := tx.UpdateZone(ctx, &updated); err != nil {
			return err
		}
		if existing.SOAChanged(&updated) {
			serial, err := s.serial.Apply(ctx, tx, zone.ID)
			if err != nil {
				return err
			}
			updated.Serial = serial
		}
		return s.audit(ctx, tx, actor, "UPDATE_ZONE", "ZONE", zone.ID, updated.Name)
	})
	if err != nil {
		return err
	}
	*zone = updated
	return nil
}

func (s *adminService) DeleteZone(ctx context.Context, actor domain.Actor, id string) error {
	err := s.mutate(ctx, "delete_zone", func(tx ports.Store) error {
		if err := s.authz.Using(tx).CanWrite(ctx, actor, domain.KindZone, id); err != nil {
			return err
		}
		zone, err := tx.GetZone(ctx, id)
		if err != nil {
			return err
		}
		if zone == nil {
			return domain.ErrNotFound
		}
		n, err := tx.CountRrsInZone(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return &domain.ReferentialError{Kind: domain.KindZone, ID: id,
				Detail: fmt.Sprintf("zone '%s' still owns %d record(s)", zone.Name, n)}
		}
		if err := tx.DeleteRule(ctx, id); err != nil {
			return err
		}
		if err := tx.DeleteZone(ctx, id); err != nil {
			return err
		}
		return s.audit(ctx, tx, actor, "DELETE_ZONE", "ZONE", id, zone.Name)
	})
	if err != nil {
		return err
	}
	s.authz.InvalidateViews(ctx, domain.KindZone)
	s.logger.Info().Str("id", id).Msg("zone deleted")
	return nil
}

// Records

func (s *adminService) validateRr(rr *domain.Rr, zone *domain.Zone) error {
	if rr.TTL == 0 {
		rr.TTL = domain.DefaultTTL
	}
	if err := domain.ValidateRrNameForType(rr.Name, rr.Type, zone.Name); err != nil {
		return err
	}
	// Owner names are stored relative to the zone so every check sees one spelling.
	rr.Name = domain.RelativeName(rr.Name, zone.Name)
	return domain.ValidateRecord(rr, s.profile)
}

func (s *adminService) zoneOf(ctx context.Context, zoneID string) (*domain.Zone, error) {
	zone, err := s.repo.GetZone(ctx, zoneID)
	if err != nil {
		return nil, err
	}
	if zone == nil {
		return nil, &domain.ReferentialError{Kind: domain.KindZone, ID: zoneID}
	}
	return zone, nil
}

func (s *adminService) CreateRr(ctx context.Context, actor domain.Actor, rr *domain.Rr) error {
	zone, err := s.zoneOf(ctx, rr.ZoneID)
	if err != nil {
		return err
	}
	if err := s.validateRr(rr, zone); err != nil {
		return err
	}

	now := s.now()
	if rr.ID == "" {
		rr.ID = uuid.New().String()
	}
	rr.CreatedAt = now
	rr.UpdatedAt = now

	err = s.mutate(ctx, "create_rr", func(tx ports.Store) error {
		if err := s.authz.Using(tx).CanCreateRr(ctx, actor, rr); err != nil {
			return err
		}
		if err := tx.CreateRr(ctx, rr); err != nil {
			return err
		}
		if err := s.authz.Stamp(ctx, tx, actor, domain.KindRr, rr.ID); err != nil {
			return err
		}
		if _, err := s.serial.Apply(ctx, tx, rr.ZoneID); err != nil {
			return err
		}
		return s.audit(ctx, tx, actor, "CREATE_RR", "RR", rr.ID, fmt.Sprintf("%s %s", rr.Name, rr.Type))
	})
	if err != nil {
		return err
	}
	s.authz.InvalidateViews(ctx, domain.KindRr)
	s.logger.Info().Str("zone", zone.Name).Str("name", rr.Name).Str("type", string(rr.Type)).Msg("record created")
	return nil
}

func (s *adminService) GetRr(ctx context.Context, actor domain.Actor, id string) (*domain.Rr, error) {
	if err := s.authz.CanRead(ctx, actor, domain.KindRr, id); err != nil {
		return nil, err
	}
	rr, err := s.repo.GetRr(ctx, id)
	if err != nil {
		return nil, err
	}
	if rr == nil {
		return nil, domain.ErrNotFound
	}
	return rr, nil
}

func (s *adminService) ListRrs(ctx context.Context, actor domain.Actor) ([]domain.Rr, error) {
	ids, all, err := s.authz.AllowedObjects(ctx, actor, domain.KindRr)
	if err != nil {
		return nil, err
	}
	if all {
		return s.repo.ListRrs(ctx)
	}
	if len(ids) == 0 {
		return []domain.Rr{}, nil
	}
	return s.repo.GetRrsByIDs(ctx, ids)
}

func (s *adminService) ListRrsByZone(ctx context.Context, actor domain.Actor, zoneID string) ([]domain.Rr, error) {
	if _, err := s.zoneOf(ctx, zoneID); err != nil {
		return nil, err
	}
	ids, all, err := s.authz.AllowedObjects(ctx, actor, domain.KindRr)
	if err != nil {
		return nil, err
	}
	rrs, err := s.repo.ListRrsByZone(ctx, zoneID)
	if err != nil {
		return nil, err
	}
	if all {
		return rrs, nil
	}
	allowed := idSet(ids)
	out := make([]domain.Rr, 0, len(rrs))
	for _, rr := range rrs {
		if allowed[rr.ID] {
			out = append(out, rr)
		}
	}
	return out, nil
}

// UpdateRr replaces a record's data. The record stays in its zone. A change of
// name or type is gated by the zone rule and the name/type collision check;
// CNAME exclusivity is always re-checked.
func (s *adminService) UpdateRr(ctx context.Context, actor domain.Actor, rr *domain.Rr) error {
	err := s.mutate(ctx, "update_rr", func(tx ports.Store) error {
		authz := s.authz.Using(tx)
		if err := authz.CanWrite(ctx, actor, domain.KindRr, rr.ID); err != nil {
			return err
		}
		existing, err := tx.GetRr(ctx, rr.ID)
		if err != nil {
			return err
		}
		if existing == nil {
			return domain.ErrNotFound
		}
		if rr.ZoneID != "" && rr.ZoneID != existing.ZoneID {
			return &domain.FieldValueError{Field: "zone_id", Value: rr.ZoneID, Reason: "cannot be changed"}
		}
		rr.ZoneID = existing.ZoneID

		zone, err := tx.GetZone(ctx, rr.ZoneID)
		if err != nil {
			return err
		}
		if zone == nil {
			return &domain.ReferentialError{Kind: domain.KindZone, ID: rr.ZoneID}
		}
		if err := s.validateRr(rr, zone); err != nil {
			return err
		}

		if rr.Name != existing.Name || rr.Type != existing.Type {
			if err := authz.CheckRule(ctx, actor, rr.ZoneID, rr.Name, rr.Type); err != nil {
				return err
			}
			if err := authz.CheckNameTypeCollision(ctx, actor, rr.Name, rr.Type, rr.ID); err != nil {
				return err
			}
		}
		if err := authz.CheckCNAMEExclusivity(ctx, rr.ZoneID, rr.Name, rr.Type, rr.ID); err != nil {
			return err
		}

		rr.CreatedAt = existing.CreatedAt
		rr.UpdatedAt = s.now()
		if err := tx.UpdateRr(ctx, rr); err != nil {
			return err
		}
		if _, err := s.serial.Apply(ctx, tx, rr.ZoneID); err != nil {
			return err
		}
		return s.audit(ctx, tx, actor, "UPDATE_RR", "RR", rr.ID, fmt.Sprintf("%s %s", rr.Name, rr.Type))
	})
	return err
}

func (s *adminService) DeleteRr(ctx context.Context, actor domain.Actor, id string) error {
	err := s.mutate(ctx, "delete_rr", func(tx ports.Store) error {
		if err := s.authz.Using(tx).CanWrite(ctx, actor, domain.KindRr, id); err != nil {
			return err
		}
		rr, err := tx.GetRr(ctx, id)
		if err != nil {
			return err
		}
		if rr == nil {
			return domain.ErrNotFound
		}
		if err := tx.DeleteRr(ctx, id); err != nil {
			return err
		}
		if _, err := s.serial.Apply(ctx, tx, rr.ZoneID); err != nil {
			return err
		}
		return s.audit(ctx, tx, actor, "DELETE_RR", "RR", id, fmt.Sprintf("%s %s", rr.Name, rr.Type))
	})
	if err != nil {
		return err
	}
	s.authz.InvalidateViews(ctx, domain.KindRr)
	return nil
}

// Zone rules

func (s *adminService) SetZonerule(ctx context.Context, actor domain.Actor, rule *domain.Zonerule) error {
	if err := requireAdministrator(actor, "set zone rules"); err != nil {
		return err
	}
	if _, err := s.zoneOf(ctx, rule.ZoneID); err != nil {
		return err
	}
	if err := rule.Validate(); err != nil {
		return err
	}
	return s.mutate(ctx, "set_zonerule", func(tx ports.Store) error {
		if err := tx.SetRule(ctx, rule); err != nil {
			return err
		}
		return s.audit(ctx, tx, actor, "SET_ZONERULE", "ZONE", rule.ZoneID,
			fmt.Sprintf("namepat=%s typepat=%s", rule.NamePat, rule.TypePat))
	})
}

func (s *adminService) GetZonerule(ctx context.Context, actor domain.Actor, zoneID string) (*domain.Zonerule, error) {
	if err := s.authz.CanRead(ctx, actor, domain.KindZone, zoneID); err != nil {
		return nil, err
	}
	if _, err := s.zoneOf(ctx, zoneID); err != nil {
		return nil, err
	}
	rule, err := s.repo.GetRule(ctx, zoneID)
	if err != nil {
		return nil, err
	}
	if rule == nil {
		return nil, domain.ErrNotFound
	}
	return rule, nil
}

func (s *adminService) DeleteZonerule(ctx context.Context, actor domain.Actor, zoneID string) error {
	if err := requireAdministrator(actor, "delete zone rules"); err != nil {
		return err
	}
	return s.mutate(ctx, "delete_zonerule", func(tx ports.Store) error {
		if err := tx.DeleteRule(ctx, zoneID); err != nil {
			return err
		}
		return s.audit(ctx, tx, actor, "DELETE_ZONERULE", "ZONE", zoneID, "")
	})
}

// Permissions

func (s *adminService) objectExists(ctx context.Context, kind domain.ObjectKind, id string) (bool, error) {
	switch kind {
	case domain.KindNamespace:
		ns, err := s.repo.GetNamespace(ctx, id)
		return ns != nil, err
	case domain.KindZone:
		zone, err := s.repo.GetZone(ctx, id)
		return zone != nil, err
	case domain.KindRr:
		rr, err := s.repo.GetRr(ctx, id)
		return rr != nil, err
	}
	return false, fmt.Errorf("unknown object kind %q", kind)
}

func (s *adminService) GrantPermission(ctx context.Context, actor domain.Actor, perm *domain.Permission) error {
	if err := requireAdministrator(actor, "grant permissions"); err != nil {
		return err
	}
	if !perm.Kind.Valid() {
		return &domain.FieldValueError{Field: "kind", Value: string(perm.Kind), Reason: "must be namespace, zone or rr"}
	}
	if perm.GroupID == "" {
		return &domain.FieldValueError{Field: "group_id", Reason: "is required"}
	}
	if perm.Action == domain.ActionNone {
		return &domain.FieldValueError{Field: "action", Reason: "is required"}
	}
	ok, err := s.objectExists(ctx, perm.Kind, perm.ObjectID)
	if err != nil {
		return err
	}
	if !ok {
		return &domain.ReferentialError{Kind: perm.Kind, ID: perm.ObjectID}
	}

	err = s.mutate(ctx, "grant_permission", func(tx ports.Store) error {
		if err := tx.GrantPermission(ctx, perm.Kind, perm.ObjectID, perm.GroupID, perm.Action); err != nil {
			return err
		}
		return s.audit(ctx, tx, actor, "GRANT_PERMISSION", string(perm.Kind), perm.ObjectID,
			fmt.Sprintf("group=%s action=%s", perm.GroupID, perm.Action))
	})
	if err != nil {
		return err
	}
	s.authz.InvalidateViews(ctx, perm.Kind)
	return nil
}

func (s *adminService) GetPermissions(ctx context.Context, actor domain.Actor, kind domain.ObjectKind, objectID string) ([]domain.Permission, error) {
	if !kind.Valid() {
		return nil, &domain.FieldValueError{Field: "kind", Value: string(kind), Reason: "must be namespace, zone or rr"}
	}
	if err := s.authz.CanWrite(ctx, actor, kind, objectID); err != nil {
		return nil, err
	}
	ok, err := s.objectExists(ctx, kind, objectID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrNotFound
	}
	return s.repo.GetPermissions(ctx, kind, objectID)
}

// Audit and health

func (s *adminService) GetAuditLogs(ctx context.Context, actor domain.Actor, limit int) ([]domain.AuditLog, error) {
	if err := requireAdministrator(actor, "read audit logs"); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	return s.repo.GetAuditLogs(ctx, limit)
}

func (s *adminService) HealthCheck(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

func idSet(ids []string) map[string]bool {
	m := make(map[string]bool, len(ids))
	for _, id := range ids {
		m[id] = true
	}
	return m
}
