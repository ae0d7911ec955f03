package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/poyrazK/dnsadmin/internal/core/domain"
)

var validate = validator.New()

// requestError marks a body that could not be decoded or failed validation.
type requestError struct {
	err error
}

func (e *requestError) Error() string { return e.err.Error() }
func (e *requestError) Unwrap() error { return e.err }

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return &requestError{fmt.Errorf("invalid JSON: %w", err)}
	}
	if err := validate.Struct(v); err != nil {
		return &requestError{fmt.Errorf("validation error: %w", err)}
	}
	return nil
}

type namespaceRequest struct {
	Name string `json:"name" validate:"required,max=63"`
}

type createZoneRequest struct {
	Name        string `json:"name" validate:"required,max=255"`
	NamespaceID string `json:"namespace_id" validate:"required"`
	NSMaster    string `json:"nsmaster" validate:"required,max=255"`
	Mail        string `json:"mail" validate:"required,max=255"`
	Refresh     int    `json:"refresh" validate:"gte=0"`
	Retry       int    `json:"retry" validate:"gte=0"`
	Expire      int    `json:"expire" validate:"gte=0"`
	MinTTL      int    `json:"minttl" validate:"gte=0"`
}

func (req createZoneRequest) zone() *domain.Zone {
	return &domain.Zone{
		Name:        req.Name,
		NamespaceID: req.NamespaceID,
		NSMaster:    req.NSMaster,
		Mail:        req.Mail,
		Refresh:     req.Refresh,
		Retry:       req.Retry,
		Expire:      req.Expire,
		MinTTL:      req.MinTTL,
	}
}

type updateZoneRequest struct {
	NSMaster string `json:"nsmaster" validate:"required,max=255"`
	Mail     string `json:"mail" validate:"required,max=255"`
	Refresh  int    `json:"refresh" validate:"gte=0"`
	Retry    int    `json:"retry" validate:"gte=0"`
	Expire   int    `json:"expire" validate:"gte=0"`
	MinTTL   int    `json:"minttl" validate:"gte=0"`
}

func (req updateZoneRequest) zone(id string) *domain.Zone {
	return &domain.Zone{
		ID:       id,
		NSMaster: req.NSMaster,
		Mail:     req.Mail,
		Refresh:  req.Refresh,
		Retry:    req.Retry,
		Expire:   req.Expire,
		MinTTL:   req.MinTTL,
	}
}

// rrRequest carries the type-specific fields through the embedded Rr; the
// shadowing fields are the ones every record needs.
type rrRequest struct {
	domain.Rr
	Name string            `json:"name" validate:"required,max=255"`
	Type domain.RecordType `json:"type" validate:"required,max=10"`
	TTL  int               `json:"ttl" validate:"gte=0"`
}

func (req rrRequest) rr(id, zoneID string) *domain.Rr {
	rr := req.Rr
	rr.ID = id
	rr.ZoneID = zoneID
	rr.Name = req.Name
	rr.Type = req.Type
	rr.TTL = req.TTL
	return &rr
}

type ruleRequest struct {
	NamePat string `json:"namepat" validate:"max=1024"`
	TypePat string `json:"typepat" validate:"max=1024"`
}

type grantRequest struct {
	GroupID string        `json:"group_id" validate:"required"`
	Action  domain.Action `json:"action" validate:"required"`
}
