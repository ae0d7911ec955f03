package ports

import (
	"context"

	"github.com/poyrazK/dnsadmin/internal/core/domain"
)

// PermissionReader answers permission lookups for one object kind.
type PermissionReader interface {
	// GetPermissions returns every (group, action) grant held on the object.
	GetPermissions(ctx context.Context, kind domain.ObjectKind, objectID string) ([]domain.Permission, error)
	// ListPermittedObjectIDs returns the IDs of objects of kind on which any of
	// groups holds an action containing want.
	ListPermittedObjectIDs(ctx context.Context, kind domain.ObjectKind, groups []string, want domain.Action) ([]string, error)
}

// PermissionStore adds the write side. A grant for an existing (object, group)
// pair merges into the stored action.
type PermissionStore interface {
	PermissionReader
	GrantPermission(ctx context.Context, kind domain.ObjectKind, objectID, groupID string, action domain.Action) error
}

// RuleStore looks up the optional zone rule. A zone without a rule yields nil, nil.
type RuleStore interface {
	GetRule(ctx context.Context, zoneID string) (*domain.Zonerule, error)
}

// RecordFinder serves the collision and CNAME exclusivity queries.
type RecordFinder interface {
	FindRrByNameType(ctx context.Context, name string, t domain.RecordType) ([]domain.Rr, error)
	FindRrByName(ctx context.Context, zoneID, name string) ([]domain.Rr, error)
}

// PolicyReader is everything the authorization engine reads.
type PolicyReader interface {
	PermissionReader
	RuleStore
	RecordFinder
}

// SerialStore increments a zone serial in a single statement. A missing zone
// yields domain.ErrNotFound.
type SerialStore interface {
	BumpSerial(ctx context.Context, zoneID string) (int64, error)
}

// NamespaceStore persists namespaces. Getters return nil, nil when absent.
type NamespaceStore interface {
	GetNamespace(ctx context.Context, id string) (*domain.Namespace, error)
	ListNamespaces(ctx context.Context) ([]domain.Namespace, error)
	CreateNamespace(ctx context.Context, ns *domain.Namespace) error
	DeleteNamespace(ctx context.Context, id string) error
	CountZonesInNamespace(ctx context.Context, namespaceID string) (int, error)
}

// ZoneStore persists zones. Getters return nil, nil when absent.
type ZoneStore interface {
	GetZone(ctx context.Context, id string) (*domain.Zone, error)
	ListZones(ctx context.Context) ([]domain.Zone, error)
	GetZonesByIDs(ctx context.Context, ids []string) ([]domain.Zone, error)
	CreateZone(ctx context.Context, zone *domain.Zone) error
	UpdateZone(ctx context.Context, zone *domain.Zone) error
	DeleteZone(ctx context.Context, id string) error
	CountRrsInZone(ctx context.Context, zoneID string) (int, error)
}

// RrStore persists resource records. Getters return nil, nil when absent.
type RrStore interface {
	GetRr(ctx context.Context, id string) (*domain.Rr, error)
	ListRrs(ctx context.Context) ([]domain.Rr, error)
	GetRrsByIDs(ctx context.Context, ids []string) ([]domain.Rr, error)
	ListRrsByZone(ctx context.Context, zoneID string) ([]domain.Rr, error)
	CreateRr(ctx context.Context, rr *domain.Rr) error
	UpdateRr(ctx context.Context, rr *domain.Rr) error
	DeleteRr(ctx context.Context, id string) error
}

// ZoneruleStore writes zone rules.
type ZoneruleStore interface {
	RuleStore
	SetRule(ctx context.Context, rule *domain.Zonerule) error
	DeleteRule(ctx context.Context, zoneID string) error
}

// AuditStore records committed mutations.
type AuditStore interface {
	SaveAuditLog(ctx context.Context, log *domain.AuditLog) error
	GetAuditLogs(ctx context.Context, limit int) ([]domain.AuditLog, error)
}

// Store is the full set of object and policy operations. Inside RunInTx it is
// bound to a single transaction.
type Store interface {
	PermissionStore
	ZoneruleStore
	RecordFinder
	SerialStore
	NamespaceStore
	ZoneStore
	RrStore
	AuditStore
}

// APIKeyStore resolves bearer keys to actors.
type APIKeyStore interface {
	CreateAPIKey(ctx context.Context, key *domain.APIKey) error
	GetAPIKeyByHash(ctx context.Context, keyHash string) (*domain.APIKey, error)
	ListAPIKeys(ctx context.Context) ([]domain.APIKey, error)
	DeleteAPIKey(ctx context.Context, id string) error
}

// Repository is the storage collaborator. RunInTx commits when fn returns nil
// and rolls back otherwise.
type Repository interface {
	Store
	APIKeyStore
	RunInTx(ctx context.Context, fn func(tx Store) error) error
	Ping(ctx context.Context) error
}

// ViewCache holds derived allowed-object views keyed by kind and group set.
// It is never the source of truth; Invalidate drops every view of a kind.
type ViewCache interface {
	GetAllowed(ctx context.Context, kind domain.ObjectKind, groups []string) ([]string, bool, error)
	SetAllowed(ctx context.Context, kind domain.ObjectKind, groups []string, ids []string) error
	Invalidate(ctx context.Context, kind domain.ObjectKind) error
}

// AdminService is the operations layer the transports call.
type AdminService interface {
	CreateNamespace(ctx context.Context, actor domain.Actor, ns *domain.Namespace) error
	GetNamespace(ctx context.Context, actor domain.Actor, id string) (*domain.Namespace, error)
	ListNamespaces(ctx context.Context, actor domain.Actor) ([]domain.Namespace, error)
	DeleteNamespace(ctx context.Context, actor domain.Actor, id string) error

	CreateZone(ctx context.Context, actor domain.Actor, zone *domain.Zone) error
	GetZone(ctx context.Context, actor domain.Actor, id string) (*domain.Zone, error)
	ListZones(ctx context.Context, actor domain.Actor) ([]domain.Zone, error)
	UpdateZone(ctx context.Context, actor domain.Actor, zone *domain.Zone) error
	DeleteZone(ctx context.Context, actor domain.Actor, id string) error

	CreateRr(ctx context.Context, actor domain.Actor, rr *domain.Rr) error
	GetRr(ctx context.Context, actor domain.Actor, id string) (*domain.Rr, error)
	ListRrs(ctx context.Context, actor domain.Actor) ([]domain.Rr, error)
	ListRrsByZone(ctx context.Context, actor domain.Actor, zoneID string) ([]domain.Rr, error)
	UpdateRr(ctx context.Context, actor domain.Actor, rr *domain.Rr) error
	DeleteRr(ctx context.Context, actor domain.Actor, id string) error

	SetZonerule(ctx context.Context, actor domain.Actor, rule *domain.Zonerule) error
	GetZonerule(ctx context.Context, actor domain.Actor, zoneID string) (*domain.Zonerule, error)
	DeleteZonerule(ctx context.Context, actor domain.Actor, zoneID string) error

	GrantPermission(ctx context.Context, actor domain.Actor, perm *domain.Permission) error
	GetPermissions(ctx context.Context, actor domain.Actor, kind domain.ObjectKind, objectID string) ([]domain.Permission, error)

	GetAuditLogs(ctx context.Context, actor domain.Actor, limit int) ([]domain.AuditLog, error)
	HealthCheck(ctx context.Context) error
}
