package domain

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// Action is a closed set of capabilities a group holds on an object.
type Action uint8

const (
	ActionRead   Action = 1 << iota // r: fetch and list
	ActionWrite                     // w: update and delete
	ActionCreate                    // c: create children (zones in a namespace, records in a zone)

	ActionNone Action = 0
	ActionAll         = ActionRead | ActionWrite | ActionCreate
)

// StampedAction is granted to the creator's default group on every new zone or record.
const StampedAction = ActionRead | ActionWrite

// Has reports whether every capability in want is present in a.
func (a Action) Has(want Action) bool {
	return want != ActionNone && a&want == want
}

// String renders the action in its compact letter form, always ordered "rwc".
func (a Action) String() string {
	var b strings.Builder
	if a&ActionRead != 0 {
		b.WriteByte('r')
	}
	if a&ActionWrite != 0 {
		b.WriteByte('w')
	}
	if a&ActionCreate != 0 {
		b.WriteByte('c')
	}
	return b.String()
}

// ParseAction parses the letter form of an action ("r", "rw", "wr", "rwc").
// Each letter may appear at most once.
func ParseAction(s string) (Action, error) {
	if s == "" {
		return ActionNone, fmt.Errorf("action cannot be empty")
	}
	var a Action
	for _, c := range s {
		var bit Action
		switch c {
		case 'r':
			bit = ActionRead
		case 'w':
			bit = ActionWrite
		case 'c':
			bit = ActionCreate
		default:
			return ActionNone, fmt.Errorf("invalid action letter %q in %q", c, s)
		}
		if a&bit != 0 {
			return ActionNone, fmt.Errorf("duplicate action letter %q in %q", c, s)
		}
		a |= bit
	}
	return a, nil
}

// MarshalText implements encoding.TextMarshaler.
func (a Action) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Action) UnmarshalText(text []byte) error {
	parsed, err := ParseAction(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// ObjectKind names one of the three permission relations.
type ObjectKind string

const (
	KindNamespace ObjectKind = "namespace"
	KindZone      ObjectKind = "zone"
	KindRr        ObjectKind = "rr"
)

// Valid reports whether k is a known object kind.
func (k ObjectKind) Valid() bool {
	switch k {
	case KindNamespace, KindZone, KindRr:
		return true
	}
	return false
}

// Permission grants Action to GroupID on one object. A group holds at most one
// Permission per object; further grants merge into it.
type Permission struct {
	ID       string     `json:"id"`
	Kind     ObjectKind `json:"kind"`
	ObjectID string     `json:"object_id"`
	GroupID  string     `json:"group_id"`
	Action   Action     `json:"action"`
}

// Actor is an already-authenticated caller.
type Actor struct {
	IsAdministrator bool     `json:"is_administrator"`
	Groups          []string `json:"groups"`
	DefaultGroup    string   `json:"default_group"`
}

// InGroup reports whether the actor is a member of groupID.
func (a Actor) InGroup(groupID string) bool {
	return slices.Contains(a.Groups, groupID)
}

// APIKey resolves a bearer token to an Actor.
type APIKey struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`       // Human-readable label, e.g. "ci-deploy-key"
	KeyHash         string     `json:"-"`          // SHA-256 hash of the key (never store raw)
	KeyPrefix       string     `json:"key_prefix"` // First 8 chars for identification
	IsAdministrator bool       `json:"is_administrator"`
	Groups          []string   `json:"groups"`
	DefaultGroup    string     `json:"default_group"`
	Active          bool       `json:"active"`
	CreatedAt       time.Time  `json:"created_at"`
	ExpiresAt       *time.Time `json:"expires_at,omitempty"`
}

// Actor returns the identity carried by the key.
func (k *APIKey) Actor() Actor {
	return Actor{
		IsAdministrator: k.IsAdministrator,
		Groups:          slices.Clone(k.Groups),
		DefaultGroup:    k.DefaultGroup,
	}
}
