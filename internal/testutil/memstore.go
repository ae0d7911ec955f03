package testutil

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/poyrazK/dnsadmin/internal/core/domain"
	"github.com/poyrazK/dnsadmin/internal/core/ports"
)

// MemStore is an in-memory ports.Repository. RunInTx works on a copy of the
// state and swaps it in only on success, so a failing callback leaves no trace.
type MemStore struct {
	mu     sync.Mutex
	st     *memState
	hooks  *memHooks
	Pinged error
}

type memHooks struct {
	mu   sync.Mutex
	fail map[string]error
}

type permKey struct {
	kind     domain.ObjectKind
	objectID string
	groupID  string
}

type memState struct {
	hooks      *memHooks
	namespaces map[string]domain.Namespace
	zones      map[string]domain.Zone
	rrs        map[string]domain.Rr
	rules      map[string]domain.Zonerule
	perms      map[permKey]domain.Action
	audit      []domain.AuditLog
	keys       map[string]domain.APIKey
}

func NewMemStore() *MemStore {
	hooks := &memHooks{fail: map[string]error{}}
	return &MemStore{
		hooks: hooks,
		st: &memState{
			hooks:      hooks,
			namespaces: map[string]domain.Namespace{},
			zones:      map[string]domain.Zone{},
			rrs:        map[string]domain.Rr{},
			rules:      map[string]domain.Zonerule{},
			perms:      map[permKey]domain.Action{},
			keys:       map[string]domain.APIKey{},
		},
	}
}

// FailOn makes every later call of the named operation (e.g. "BumpSerial") return err.
func (m *MemStore) FailOn(op string, err error) {
	m.hooks.mu.Lock()
	defer m.hooks.mu.Unlock()
	m.hooks.fail[op] = err
}

func (h *memHooks) failure(op string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.fail[op]
}

func (s *memState) clone() *memState {
	c := &memState{
		hooks:      s.hooks,
		namespaces: make(map[string]domain.Namespace, len(s.namespaces)),
		zones:      make(map[string]domain.Zone, len(s.zones)),
		rrs:        make(map[string]domain.Rr, len(s.rrs)),
		rules:      make(map[string]domain.Zonerule, len(s.rules)),
		perms:      make(map[permKey]domain.Action, len(s.perms)),
		audit:      slices.Clone(s.audit),
		keys:       make(map[string]domain.APIKey, len(s.keys)),
	}
	for k, v := range s.namespaces {
		c.namespaces[k] = v
	}
	for k, v := range s.zones {
		c.zones[k] = v
	}
	for k, v := range s.rrs {
		c.rrs[k] = v
	}
	for k, v := range s.rules {
		c.rules[k] = v
	}
	for k, v := range s.perms {
		c.perms[k] = v
	}
	for k, v := range s.keys {
		c.keys[k] = v
	}
	return c
}

func locked[T any](m *MemStore, f func(*memState) (T, error)) (T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return f(m.st)
}

func lockedErr(m *MemStore, f func(*memState) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return f(m.st)
}

// RunInTx implements ports.Repository.
func (m *MemStore) RunInTx(ctx context.Context, fn func(tx ports.Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	work := m.st.clone()
	if err := fn(work); err != nil {
		return err
	}
	m.st = work
	return nil
}

func (m *MemStore) Ping(ctx context.Context) error { return m.Pinged }

// Serial returns the current serial of a zone, or -1 when it does not exist.
func (m *MemStore) Serial(zoneID string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	z, ok := m.st.zones[zoneID]
	if !ok {
		return -1
	}
	return z.Serial
}

// AuditCount returns the number of stored audit entries.
func (m *MemStore) AuditCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.st.audit)
}

// Locked wrappers

func (m *MemStore) GetPermissions(ctx context.Context, kind domain.ObjectKind, objectID string) ([]domain.Permission, error) {
	return locked(m, func(s *memState) ([]domain.Permission, error) { return s.GetPermissions(ctx, kind, objectID) })
}

func (m *MemStore) ListPermittedObjectIDs(ctx context.Context, kind domain.ObjectKind, groups []string, want domain.Action) ([]string, error) {
	return locked(m, func(s *memState) ([]string, error) { return s.ListPermittedObjectIDs(ctx, kind, groups, want) })
}

func (m *MemStore) GrantPermission(ctx context.Context, kind domain.ObjectKind, objectID, groupID string, action domain.Action) error {
	return lockedErr(m, func(s *memState) error { return s.GrantPermission(ctx, kind, objectID, groupID, action) })
}

func (m *MemStore) GetRule(ctx context.Context, zoneID string) (*domain.Zonerule, error) {
	return locked(m, func(s *memState) (*domain.Zonerule, error) { return s.GetRule(ctx, zoneID) })
}

func (m *MemStore) SetRule(ctx context.Context, rule *domain.Zonerule) error {
	return lockedErr(m, func(s *memState) error { return s.SetRule(ctx, rule) })
}

func (m *MemStore) DeleteRule(ctx context.Context, zoneID string) error {
	return lockedErr(m, func(s *memState) error { return s.DeleteRule(ctx, zoneID) })
}

func (m *MemStore) FindRrByNameType(ctx context.Context, name string, t domain.RecordType) ([]domain.Rr, error) {
	return locked(m, func(s *memState) ([]domain.Rr, error) { return s.FindRrByNameType(ctx, name, t) })
}

func (m *MemStore) FindRrByName(ctx context.Context, zoneID, name string) ([]domain.Rr, error) {
	return locked(m, func(s *memState) ([]domain.Rr, error) { return s.FindRrByName(ctx, zoneID, name) })
}

func (m *MemStore) BumpSerial(ctx context.Context, zoneID string) (int64, error) {
	return locked(m, func(s *memState) (int64, error) { return s.BumpSerial(ctx, zoneID) })
}

func (m *MemStore) GetNamespace(ctx context.Context, id string) (*domain.Namespace, error) {
	return locked(m, func(s *memState) (*domain.Namespace, error) { return s.GetNamespace(ctx, id) })
}

func (m *MemStore) ListNamespaces(ctx context.Context) ([]domain.Namespace, error) {
	return locked(m, func(s *memState) ([]domain.Namespace, error) { return s.ListNamespaces(ctx) })
}

func (m *MemStore) CreateNamespace(ctx context.Context, ns *domain.Namespace) error {
	return lockedErr(m, func(s *memState) error { return s.CreateNamespace(ctx, ns) })
}

func (m *MemStore) DeleteNamespace(ctx context.Context, id string) error {
	return lockedErr(m, func(s *memState) error { return s.DeleteNamespace(ctx, id) })
}

func (m *MemStore) CountZonesInNamespace(ctx context.Context, namespaceID string) (int, error) {
	return locked(m, func(s *memState) (int, error) { return s.CountZonesInNamespace(ctx, namespaceID) })
}

func (m *MemStore) GetZone(ctx context.Context, id string) (*domain.Zone, error) {
	return locked(m, func(s *memState) (*domain.Zone, error) { return s.GetZone(ctx, id) })
}

func (m *MemStore) ListZones(ctx context.Context) ([]domain.Zone, error) {
	return locked(m, func(s *memState) ([]domain.Zone, error) { return s.ListZones(ctx) })
}

func (m *MemStore) GetZonesByIDs(ctx context.Context, ids []string) ([]domain.Zone, error) {
	return locked(m, func(s *memState) ([]domain.Zone, error) { return s.GetZonesByIDs(ctx, ids) })
}

func (m *MemStore) CreateZone(ctx context.Context, zone *domain.Zone) error {
	return lockedErr(m, func(s *memState) error { return s.CreateZone(ctx, zone) })
}

func (m *MemStore) UpdateZone(ctx context.Context, zone *domain.Zone) error {
	return lockedErr(m, func(s *memState) error { return s.UpdateZone(ctx, zone) })
}

func (m *MemStore) DeleteZone(ctx context.Context, id string) error {
	return lockedErr(m, func(s *memState) error { return s.DeleteZone(ctx, id) })
}

func (m *MemStore) CountRrsInZone(ctx context.Context, zoneID string) (int, error) {
	return locked(m, func(s *memState) (int, error) { return s.CountRrsInZone(ctx, zoneID) })
}

func (m *MemStore) GetRr(ctx context.Context, id string) (*domain.Rr, error) {
	return locked(m, func(s *memState) (*domain.Rr, error) { return s.GetRr(ctx, id) })
}

func (m *MemStore) ListRrs(ctx context.Context) ([]domain.Rr, error) {
	return locked(m, func(s *memState) ([]domain.Rr, error) { return s.ListRrs(ctx) })
}

func (m *MemStore) GetRrsByIDs(ctx context.Context, ids []string) ([]domain.Rr, error) {
	return locked(m, func(s *memState) ([]domain.Rr, error) { return s.GetRrsByIDs(ctx, ids) })
}

func (m *MemStore) ListRrsByZone(ctx context.Context, zoneID string) ([]domain.Rr, error) {
	return locked(m, func(s *memState) ([]domain.Rr, error) { return s.ListRrsByZone(ctx, zoneID) })
}

func (m *MemStore) CreateRr(ctx context.Context, rr *domain.Rr) error {
	return lockedErr(m, func(s *memState) error { return s.CreateRr(ctx, rr) })
}

func (m *MemStore) UpdateRr(ctx context.Context, rr *domain.Rr) error {
	return lockedErr(m, func(s *memState) error { return s.UpdateRr(ctx, rr) })
}

func (m *MemStore) DeleteRr(ctx context.Context, id string) error {
	return lockedErr(m, func(s *memState) error { return s.DeleteRr(ctx, id) })
}

func (m *MemStore) SaveAuditLog(ctx context.Context, log *domain.AuditLog) error {
	return lockedErr(m, func(s *memState) error { return s.SaveAuditLog(ctx, log) })
}

func (m *MemStore) GetAuditLogs(ctx context.Context, limit int) ([]domain.AuditLog, error) {
	return locked(m, func(s *memState) ([]domain.AuditLog, error) { return s.GetAuditLogs(ctx, limit) })
}

func (m *MemStore) CreateAPIKey(ctx context.Context, key *domain.APIKey) error {
	return lockedErr(m, func(s *memState) error {
		s.keys[key.ID] = *key
		return nil
	})
}

func (m *MemStore) GetAPIKeyByHash(ctx context.Context, keyHash string) (*domain.APIKey, error) {
	return locked(m, func(s *memState) (*domain.APIKey, error) {
		for _, k := range s.keys {
			if k.KeyHash == keyHash {
				return &k, nil
			}
		}
		return nil, nil
	})
}

func (m *MemStore) ListAPIKeys(ctx context.Context) ([]domain.APIKey, error) {
	return locked(m, func(s *memState) ([]domain.APIKey, error) {
		out := make([]domain.APIKey, 0, len(s.keys))
		for _, k := range s.keys {
			out = append(out, k)
		}
		sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
		return out, nil
	})
}

func (m *MemStore) DeleteAPIKey(ctx context.Context, id string) error {
	return lockedErr(m, func(s *memState) error {
		delete(s.keys, id)
		return nil
	})
}

// memState implements ports.Store without locking.

func (s *memState) GetPermissions(_ context.Context, kind domain.ObjectKind, objectID string) ([]domain.Permission, error) {
	var out []domain.Permission
	for k, a := range s.perms {
		if k.kind == kind && k.objectID == objectID {
			out = append(out, domain.Permission{Kind: kind, ObjectID: objectID, GroupID: k.groupID, Action: a})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GroupID < out[j].GroupID })
	return out, nil
}

func (s *memState) ListPermittedObjectIDs(_ context.Context, kind domain.ObjectKind, groups []string, want domain.Action) ([]string, error) {
	seen := map[string]bool{}
	for k, a := range s.perms {
		if k.kind == kind && a.Has(want) && slices.Contains(groups, k.groupID) {
			seen[k.objectID] = true
		}
	}
	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}

func (s *memState) GrantPermission(_ context.Context, kind domain.ObjectKind, objectID, groupID string, action domain.Action) error {
	if err := s.hooks.failure("GrantPermission"); err != nil {
		return err
	}
	k := permKey{kind: kind, objectID: objectID, groupID: groupID}
	s.perms[k] |= action
	return nil
}

func (s *memState) dropPermissions(kind domain.ObjectKind, objectID string) {
	for k := range s.perms {
		if k.kind == kind && k.objectID == objectID {
			delete(s.perms, k)
		}
	}
}

func (s *memState) GetRule(_ context.Context, zoneID string) (*domain.Zonerule, error) {
	r, ok := s.rules[zoneID]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (s *memState) SetRule(_ context.Context, rule *domain.Zonerule) error {
	if _, ok := s.zones[rule.ZoneID]; !ok {
		return &domain.ReferentialError{Kind: domain.KindZone, ID: rule.ZoneID}
	}
	s.rules[rule.ZoneID] = *rule
	return nil
}

func (s *memState) DeleteRule(_ context.Context, zoneID string) error {
	delete(s.rules, zoneID)
	return nil
}

func (s *memState) FindRrByNameType(_ context.Context, name string, t domain.RecordType) ([]domain.Rr, error) {
	var out []domain.Rr
	for _, rr := range s.rrs {
		if strings.EqualFold(rr.Name, name) && rr.Type == t {
			out = append(out, rr)
		}
	}
	sortRrs(out)
	return out, nil
}

func (s *memState) FindRrByName(_ context.Context, zoneID, name string) ([]domain.Rr, error) {
	var out []domain.Rr
	for _, rr := range s.rrs {
		if rr.ZoneID == zoneID && strings.EqualFold(rr.Name, name) {
			out = append(out, rr)
		}
	}
	sortRrs(out)
	return out, nil
}

func (s *memState) BumpSerial(_ context.Context, zoneID string) (int64, error) {
	if err := s.hooks.failure("BumpSerial"); err != nil {
		return 0, err
	}
	z, ok := s.zones[zoneID]
	if !ok {
		return 0, domain.ErrNotFound
	}
	z.Serial++
	s.zones[zoneID] = z
	return z.Serial, nil
}

func (s *memState) GetNamespace(_ context.Context, id string) (*domain.Namespace, error) {
	ns, ok := s.namespaces[id]
	if !ok {
		return nil, nil
	}
	return &ns, nil
}

func (s *memState) ListNamespaces(_ context.Context) ([]domain.Namespace, error) {
	out := make([]domain.Namespace, 0, len(s.namespaces))
	for _, ns := range s.namespaces {
		out = append(out, ns)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *memState) CreateNamespace(_ context.Context, ns *domain.Namespace) error {
	for _, existing := range s.namespaces {
		if existing.Name == ns.Name {
			return domain.ErrAlreadyExists
		}
	}
	s.namespaces[ns.ID] = *ns
	return nil
}

func (s *memState) DeleteNamespace(_ context.Context, id string) error {
	if n, _ := s.CountZonesInNamespace(context.Background(), id); n > 0 {
		return &domain.ReferentialError{Kind: domain.KindNamespace, ID: id, Detail: "namespace still owns zones"}
	}
	delete(s.namespaces, id)
	s.dropPermissions(domain.KindNamespace, id)
	return nil
}

func (s *memState) CountZonesInNamespace(_ context.Context, namespaceID string) (int, error) {
	n := 0
	for _, z := range s.zones {
		if z.NamespaceID == namespaceID {
			n++
		}
	}
	return n, nil
}

func (s *memState) GetZone(_ context.Context, id string) (*domain.Zone, error) {
	z, ok := s.zones[id]
	if !ok {
		return nil, nil
	}
	return &z, nil
}

func (s *memState) ListZones(_ context.Context) ([]domain.Zone, error) {
	out := make([]domain.Zone, 0, len(s.zones))
	for _, z := range s.zones {
		out = append(out, z)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *memState) GetZonesByIDs(_ context.Context, ids []string) ([]domain.Zone, error) {
	out := []domain.Zone{}
	for _, id := range ids {
		if z, ok := s.zones[id]; ok {
			out = append(out, z)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *memState) CreateZone(_ context.Context, zone *domain.Zone) error {
	if _, ok := s.namespaces[zone.NamespaceID]; !ok {
		return &domain.ReferentialError{Kind: domain.KindNamespace, ID: zone.NamespaceID}
	}
	for _, existing := range s.zones {
		if existing.NamespaceID == zone.NamespaceID && strings.EqualFold(existing.Name, zone.Name) {
			return domain.ErrAlreadyExists
		}
	}
	s.zones[zone.ID] = *zone
	return nil
}

func (s *memState) UpdateZone(_ context.Context, zone *domain.Zone) error {
	existing, ok := s.zones[zone.ID]
	if !ok {
		return domain.ErrNotFound
	}
	existing.NSMaster = zone.NSMaster
	existing.Mail = zone.Mail
	existing.Refresh = zone.Refresh
	existing.Retry = zone.Retry
	existing.Expire = zone.Expire
	existing.MinTTL = zone.MinTTL
	existing.UpdatedAt = zone.UpdatedAt
	s.zones[zone.ID] = existing
	return nil
}

func (s *memState) DeleteZone(_ context.Context, id string) error {
	if n, _ := s.CountRrsInZone(context.Background(), id); n > 0 {
		return &domain.ReferentialError{Kind: domain.KindZone, ID: id, Detail: "zone still owns records"}
	}
	delete(s.zones, id)
	delete(s.rules, id)
	s.dropPermissions(domain.KindZone, id)
	return nil
}

func (s *memState) CountRrsInZone(_ context.Context, zoneID string) (int, error) {
	n := 0
	for _, rr := range s.rrs {
		if rr.ZoneID == zoneID {
			n++
		}
	}
	return n, nil
}

func (s *memState) GetRr(_ context.Context, id string) (*domain.Rr, error) {
	rr, ok := s.rrs[id]
	if !ok {
		return nil, nil
	}
	return &rr, nil
}

func (s *memState) ListRrs(_ context.Context) ([]domain.Rr, error) {
	out := make([]domain.Rr, 0, len(s.rrs))
	for _, rr := range s.rrs {
		out = append(out, rr)
	}
	sortRrs(out)
	return out, nil
}

func (s *memState) GetRrsByIDs(_ context.Context, ids []string) ([]domain.Rr, error) {
	out := []domain.Rr{}
	for _, id := range ids {
		if rr, ok := s.rrs[id]; ok {
			out = append(out, rr)
		}
	}
	sortRrs(out)
	return out, nil
}

func (s *memState) ListRrsByZone(_ context.Context, zoneID string) ([]domain.Rr, error) {
	out := []domain.Rr{}
	for _, rr := range s.rrs {
		if rr.ZoneID == zoneID {
			out = append(out, rr)
		}
	}
	sortRrs(out)
	return out, nil
}

func (s *memState) CreateRr(_ context.Context, rr *domain.Rr) error {
	if err := s.hooks.failure("CreateRr"); err != nil {
		return err
	}
	if _, ok := s.zones[rr.ZoneID]; !ok {
		return &domain.ReferentialError{Kind: domain.KindZone, ID: rr.ZoneID}
	}
	s.rrs[rr.ID] = *rr
	return nil
}

func (s *memState) UpdateRr(_ context.Context, rr *domain.Rr) error {
	if _, ok := s.rrs[rr.ID]; !ok {
		return domain.ErrNotFound
	}
	s.rrs[rr.ID] = *rr
	return nil
}

func (s *memState) DeleteRr(_ context.Context, id string) error {
	delete(s.rrs, id)
	s.dropPermissions(domain.KindRr, id)
	return nil
}

func (s *memState) SaveAuditLog(_ context.Context, log *domain.AuditLog) error {
	if err := s.hooks.failure("SaveAuditLog"); err != nil {
		return err
	}
	s.audit = append(s.audit, *log)
	return nil
}

func (s *memState) GetAuditLogs(_ context.Context, limit int) ([]domain.AuditLog, error) {
	out := make([]domain.AuditLog, 0, len(s.audit))
	for i := len(s.audit) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.audit[i])
	}
	return out, nil
}

func sortRrs(rrs []domain.Rr) {
	sort.Slice(rrs, func(i, j int) bool {
		if rrs[i].Name != rrs[j].Name {
			return rrs[i].Name < rrs[j].Name
		}
		return rrs[i].ID < rrs[j].ID
	})
}

var (
	_ ports.Repository = (*MemStore)(nil)
	_ ports.Store      = (*memState)(nil)
)
