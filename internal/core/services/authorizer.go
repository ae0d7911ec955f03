package services

import (
	"context"
	"fmt"

	"github.com/poyrazK/dnsadmin/internal/core/domain"
	"github.com/poyrazK/dnsadmin/internal/core/ports"
	"github.com/poyrazK/dnsadmin/internal/infrastructure/metrics"
	"github.com/rs/zerolog"
)

// AuthorizerOptions configures an Authorizer.
type AuthorizerOptions struct {
	RuleMode domain.RuleMode
	Cache    ports.ViewCache
	Logger   *zerolog.Logger
}

// Authorizer decides whether an actor may read, write or create objects. It
// holds no mutable state; every decision reads the bound PolicyReader.
type Authorizer struct {
	store  ports.PolicyReader
	mode   domain.RuleMode
	cache  ports.ViewCache
	logger zerolog.Logger
}

func NewAuthorizer(store ports.PolicyReader, opts AuthorizerOptions) *Authorizer {
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = opts.Logger.With().Str("component", "authorizer").Logger()
	}
	mode := opts.RuleMode
	if mode == "" {
		mode = domain.RuleOpenIfUnset
	}
	return &Authorizer{store: store, mode: mode, cache: opts.Cache, logger: logger}
}

// Using returns a copy of the authorizer that reads from store, typically an
// open transaction.
func (a *Authorizer) Using(store ports.PolicyReader) *Authorizer {
	c := *a
	c.store = store
	return &c
}

func (a *Authorizer) record(kind domain.ObjectKind, check string, err error) {
	result := "allow"
	if err != nil {
		result = "deny"
	}
	metrics.AuthzDecisions.WithLabelValues(string(kind), check, result).Inc()
}

func (a *Authorizer) deny(reason domain.DenyReason, format string, args ...any) error {
	pd := domain.Deny(reason, format, args...)
	a.logger.Debug().Str("reason", string(reason)).Msg(pd.Detail)
	return pd
}

// holds reports whether any of the actor's groups has want on the object.
func (a *Authorizer) holds(ctx context.Context, actor domain.Actor, kind domain.ObjectKind, objectID string, want domain.Action) (bool, error) {
	perms, err := a.store.GetPermissions(ctx, kind, objectID)
	if err != nil {
		return false, fmt.Errorf("failed to load %s permissions: %w", kind, err)
	}
	for _, p := range perms {
		if p.Action.Has(want) && actor.InGroup(p.GroupID) {
			return true, nil
		}
	}
	return false, nil
}

func (a *Authorizer) check(ctx context.Context, actor domain.Actor, kind domain.ObjectKind, objectID string, want domain.Action, reason domain.DenyReason, verb string) (err error) {
	defer func() { a.record(kind, verb, err) }()
	if actor.IsAdministrator {
		return nil
	}
	ok, err := a.holds(ctx, actor, kind, objectID, want)
	if err != nil {
		return err
	}
	if !ok {
		return a.deny(reason, "you don't have permission to %s %s '%s'", verb, kind, objectID)
	}
	return nil
}

// CanRead requires a grant containing r on the object.
func (a *Authorizer) CanRead(ctx context.Context, actor domain.Actor, kind domain.ObjectKind, objectID string) error {
	return a.check(ctx, actor, kind, objectID, domain.ActionRead, domain.DenyNotReadable, "read")
}

// CanWrite requires a grant containing w on the object. It covers update and delete.
func (a *Authorizer) CanWrite(ctx context.Context, actor domain.Actor, kind domain.ObjectKind, objectID string) error {
	return a.check(ctx, actor, kind, objectID, domain.ActionWrite, domain.DenyNotWritable, "modify")
}

// CanCreateChild requires a grant containing c on the parent object.
func (a *Authorizer) CanCreateChild(ctx context.Context, actor domain.Actor, parentKind domain.ObjectKind, parentID string) error {
	return a.check(ctx, actor, parentKind, parentID, domain.ActionCreate, domain.DenyNoCreateInParent, "create in")
}

// CheckRule applies the zone rule to a candidate (name, type).
func (a *Authorizer) CheckRule(ctx context.Context, actor domain.Actor, zoneID, name string, t domain.RecordType) (err error) {
	defer func() { a.record(domain.KindZone, "rule", err) }()
	if actor.IsAdministrator {
		return nil
	}
	rule, err := a.store.GetRule(ctx, zoneID)
	if err != nil {
		return fmt.Errorf("failed to load zone rule: %w", err)
	}
	ok, err := domain.IsAdmitted(rule, a.mode, name, t)
	if err != nil {
		a.logger.Error().Err(err).Str("zone_id", zoneID).Msg("zone rule does not compile")
		return a.deny(domain.DenyRuleRejected, "zone rule of zone '%s' is invalid: %v", zoneID, err)
	}
	if !ok {
		if rule == nil {
			return a.deny(domain.DenyRuleRejected, "zone '%s' has no rule and unruled zones are closed", zoneID)
		}
		return a.deny(domain.DenyRuleRejected, "name '%s' with type '%s' is not allowed by the rules of zone '%s'", name, t, zoneID)
	}
	return nil
}

// CheckNameTypeCollision requires w on every existing record sharing
// (name, type), in any zone. excludeID skips the record being updated.
func (a *Authorizer) CheckNameTypeCollision(ctx context.Context, actor domain.Actor, name string, t domain.RecordType, excludeID string) (err error) {
	defer func() { a.record(domain.KindRr, "collision", err) }()
	if actor.IsAdministrator {
		return nil
	}
	existing, err := a.store.FindRrByNameType(ctx, name, t)
	if err != nil {
		return fmt.Errorf("failed to look up records by name and type: %w", err)
	}
	for _, rr := range existing {
		if rr.ID == excludeID {
			continue
		}
		ok, err := a.holds(ctx, actor, domain.KindRr, rr.ID, domain.ActionWrite)
		if err != nil {
			return err
		}
		if !ok {
			return a.deny(domain.DenyNameTypeCollision,
				"a record '%s' of type '%s' already exists and you don't have permission to modify it", name, t)
		}
	}
	return nil
}

// CheckCNAMEExclusivity enforces that a CNAME owns its name alone within the
// zone. It applies to every actor.
func (a *Authorizer) CheckCNAMEExclusivity(ctx context.Context, zoneID, name string, t domain.RecordType, excludeID string) error {
	existing, err := a.store.FindRrByName(ctx, zoneID, name)
	if err != nil {
		return fmt.Errorf("failed to look up records by name: %w", err)
	}
	for _, rr := range existing {
		if rr.ID == excludeID {
			continue
		}
		if t == domain.TypeCNAME {
			return &domain.CollisionError{Kind: domain.CollisionCNAMEOverExisting, Name: name}
		}
		if rr.Type == domain.TypeCNAME {
			return &domain.CollisionError{Kind: domain.CollisionExistingCNAME, Name: name}
		}
	}
	return nil
}

// CanCreateRr runs, in order, the create-in-zone check, the zone rule, the
// name/type collision check and CNAME exclusivity. The first failure wins.
func (a *Authorizer) CanCreateRr(ctx context.Context, actor domain.Actor, rr *domain.Rr) error {
	if err := a.CanCreateChild(ctx, actor, domain.KindZone, rr.ZoneID); err != nil {
		return err
	}
	if err := a.CheckRule(ctx, actor, rr.ZoneID, rr.Name, rr.Type); err != nil {
		return err
	}
	if err := a.CheckNameTypeCollision(ctx, actor, rr.Name, rr.Type, ""); err != nil {
		return err
	}
	return a.CheckCNAMEExclusivity(ctx, rr.ZoneID, rr.Name, rr.Type, "")
}

// AllowedObjects returns the IDs of objects of kind the actor may read. For
// administrators all is true and ids is nil.
func (a *Authorizer) AllowedObjects(ctx context.Context, actor domain.Actor, kind domain.ObjectKind) (ids []string, all bool, err error) {
	if actor.IsAdministrator {
		return nil, true, nil
	}
	if len(actor.Groups) == 0 {
		return []string{}, false, nil
	}

	if a.cache != nil {
		cached, ok, err := a.cache.GetAllowed(ctx, kind, actor.Groups)
		if err != nil {
			a.logger.Warn().Err(err).Str("kind", string(kind)).Msg("view cache read failed")
		} else if ok {
			metrics.CacheOperations.WithLabelValues(string(kind), "hit").Inc()
			return cached, false, nil
		}
		metrics.CacheOperations.WithLabelValues(string(kind), "miss").Inc()
	}

	ids, err = a.store.ListPermittedObjectIDs(ctx, kind, actor.Groups, domain.ActionRead)
	if err != nil {
		return nil, false, fmt.Errorf("failed to list permitted %s objects: %w", kind, err)
	}
	if ids == nil {
		ids = []string{}
	}

	if a.cache != nil {
		if err := a.cache.SetAllowed(ctx, kind, actor.Groups, ids); err != nil {
			a.logger.Warn().Err(err).Str("kind", string(kind)).Msg("view cache write failed")
		}
	}
	return ids, false, nil
}

// Stamp grants the actor's default group read and write on a newly created
// object. It must run in the same transaction as the creation.
func (a *Authorizer) Stamp(ctx context.Context, w ports.PermissionStore, actor domain.Actor, kind domain.ObjectKind, objectID string) error {
	if actor.DefaultGroup == "" {
		return domain.ErrNoDefaultGroup
	}
	if err := w.GrantPermission(ctx, kind, objectID, actor.DefaultGroup, domain.StampedAction); err != nil {
		return fmt.Errorf("failed to stamp %s permission: %w", kind, err)
	}
	return nil
}

// InvalidateViews drops cached allowed-object views for kind.
func (a *Authorizer) InvalidateViews(ctx context.Context, kind domain.ObjectKind) {
	if a.cache == nil {
		return
	}
	if err := a.cache.Invalidate(ctx, kind); err != nil {
		a.logger.Warn().Err(err).Str("kind", string(kind)).Msg("view cache invalidation failed")
	}
}
