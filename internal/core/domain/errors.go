package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when a requested object does not exist.
	ErrNotFound = errors.New("object not found")

	// ErrInvalidRule is returned when a zone rule pattern is too long or does not compile.
	ErrInvalidRule = errors.New("invalid zone rule")

	// ErrUnknownType is returned for record types outside the active record profile.
	ErrUnknownType = errors.New("unknown record type")

	// ErrAlreadyExists is returned when a unique name is taken.
	ErrAlreadyExists = errors.New("object already exists")

	// ErrNoDefaultGroup is returned when a creating actor has no group to stamp.
	ErrNoDefaultGroup = errors.New("actor has no default group")
)

// NameErrorKind classifies a grammar violation.
type NameErrorKind string

const (
	NameTooLong             NameErrorKind = "TooLong"
	NameEdgeDashOrDot       NameErrorKind = "EdgeDashOrDot"
	NameDoubleDot           NameErrorKind = "DoubleDot"
	NameInvalidCharacterSet NameErrorKind = "InvalidCharacterSet"
	NameDoesNotEndWithZone  NameErrorKind = "DoesNotEndWithZone"
)

// NameError reports a name that does not satisfy the grammar for its Subject.
type NameError struct {
	Kind    NameErrorKind
	Subject string // "namespace", "zone", "relative", "absolute"
	Value   string
	Limit   int
}

func (e *NameError) Error() string {
	switch e.Kind {
	case NameTooLong:
		return fmt.Sprintf("%s name '%s' is too long (length must be <= %d)", e.Subject, e.Value, e.Limit)
	case NameEdgeDashOrDot:
		return fmt.Sprintf("%s name '%s' must not start or end with dash or dot", e.Subject, e.Value)
	case NameDoubleDot:
		return fmt.Sprintf("%s name '%s' can not contain two successive dots", e.Subject, e.Value)
	case NameDoesNotEndWithZone:
		return fmt.Sprintf("%s name '%s' must end with the zone name", e.Subject, e.Value)
	case NameInvalidCharacterSet:
		if e.Subject == subjectRelative {
			return fmt.Sprintf("relative name '%s' must be '@', '*' or an alpha-numeric string", e.Value)
		}
		return fmt.Sprintf("%s name '%s' contains invalid characters", e.Subject, e.Value)
	}
	return fmt.Sprintf("invalid %s name '%s'", e.Subject, e.Value)
}

// MissingFieldsError lists every required field absent from a record of Type.
type MissingFieldsError struct {
	Type   RecordType
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return fmt.Sprintf("missing fields '%s' for type '%s'", strings.Join(e.Fields, ","), e.Type)
}

// UnexpectedFieldsError lists populated fields that belong to other record types.
type UnexpectedFieldsError struct {
	Type   RecordType
	Fields []string
}

func (e *UnexpectedFieldsError) Error() string {
	return fmt.Sprintf("fields '%s' are not allowed for type '%s'", strings.Join(e.Fields, ","), e.Type)
}

// FieldValueError reports a populated field whose value is malformed.
type FieldValueError struct {
	Field  string
	Value  string
	Reason string
}

func (e *FieldValueError) Error() string {
	return fmt.Sprintf("invalid value '%s' for field '%s': %s", e.Value, e.Field, e.Reason)
}

// DenyReason is the machine-readable cause of a PermissionDenied.
type DenyReason string

const (
	DenyNotReadable       DenyReason = "not-readable"
	DenyNotWritable       DenyReason = "not-writable"
	DenyNoCreateInParent  DenyReason = "no-create-in-parent"
	DenyRuleRejected      DenyReason = "rule-rejected"
	DenyNameTypeCollision DenyReason = "name-type-collision-unmanageable"
	DenyAdministratorOnly DenyReason = "administrator-only"
)

// PermissionDenied is returned by every failed authorization check. Detail is
// surfaced verbatim to the caller.
type PermissionDenied struct {
	Reason DenyReason
	Detail string
}

func (e *PermissionDenied) Error() string {
	if e.Detail == "" {
		return string(e.Reason)
	}
	return e.Detail
}

// Deny builds a PermissionDenied with a formatted detail.
func Deny(reason DenyReason, format string, args ...any) *PermissionDenied {
	return &PermissionDenied{Reason: reason, Detail: fmt.Sprintf(format, args...)}
}

// CollisionKind classifies a CNAME exclusivity violation.
type CollisionKind string

const (
	// CollisionCNAMEOverExisting: a CNAME was requested at a name already in use.
	CollisionCNAMEOverExisting CollisionKind = "cname-over-existing"
	// CollisionExistingCNAME: a record was requested at a name that holds a CNAME.
	CollisionExistingCNAME CollisionKind = "existing-cname"
)

// CollisionError reports a CNAME exclusivity violation. It is independent of permissions.
type CollisionError struct {
	Kind CollisionKind
	Name string
}

func (e *CollisionError) Error() string {
	if e.Kind == CollisionCNAMEOverExisting {
		return fmt.Sprintf("can't create CNAME '%s' because name already exists", e.Name)
	}
	return fmt.Sprintf("can't create '%s' because CNAME with same name already exists", e.Name)
}

// ReferentialError reports a dangling parent reference or a protected delete.
type ReferentialError struct {
	Kind   ObjectKind
	ID     string
	Detail string
}

func (e *ReferentialError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("%s '%s' does not exist", e.Kind, e.ID)
}

// IsDenied reports whether err is a PermissionDenied with the given reason.
func IsDenied(err error, reason DenyReason) bool {
	var pd *PermissionDenied
	return errors.As(err, &pd) && pd.Reason == reason
}
