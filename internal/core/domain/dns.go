// Package domain contains the entities and policy rules of the DNS administration engine.
package domain

import (
	"time"
)

// RecordType represents the type of a DNS record (e.g., A, AAAA, MX).
type RecordType string

const (
	// TypeA represents an IPv4 address record.
	TypeA RecordType = "A"
	// TypeAAAA represents an IPv6 address record.
	TypeAAAA RecordType = "AAAA"
	// TypeNS represents a name server record.
	TypeNS RecordType = "NS"
	// TypeCNAME represents a canonical name record.
	TypeCNAME RecordType = "CNAME"
	// TypeMX represents a mail exchange record.
	TypeMX RecordType = "MX"
	// TypePTR represents a pointer record.
	TypePTR RecordType = "PTR"
	// TypeSRV represents a service locator record (RFC 2782).
	TypeSRV RecordType = "SRV"
	// TypeTXT represents a text record.
	TypeTXT RecordType = "TXT"
	// TypeDNAME represents a delegation name record.
	TypeDNAME RecordType = "DNAME"
	// TypeCAA represents a certification authority authorization record.
	TypeCAA RecordType = "CAA"
	// TypeSOA represents a start of authority record.
	TypeSOA RecordType = "SOA"

	// DNSSEC record types, only admitted under the dnssec record profile.
	TypeDNSKEY RecordType = "DNSKEY"
	TypeRRSIG  RecordType = "RRSIG"
	TypeDS     RecordType = "DS"
	TypeNSEC   RecordType = "NSEC"
	TypeNSEC3  RecordType = "NSEC3"
)

// SOA timing defaults applied to zones created without explicit values.
const (
	DefaultRefresh = 1200
	DefaultRetry   = 180
	DefaultExpire  = 1209600
	DefaultMinTTL  = 3600

	// DefaultTTL is applied to records created with a zero TTL.
	DefaultTTL = 3600

	// InitialSerial is the serial of a freshly created zone.
	InitialSerial = 1
)

// Namespace is the top-level administrative grouping that owns zones.
type Namespace struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Zone represents a DNS domain under administration together with its SOA parameters.
type Zone struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"` // e.g., example.com
	NamespaceID string    `json:"namespace_id"`
	NSMaster    string    `json:"nsmaster"`
	Mail        string    `json:"mail"`
	Serial      int64     `json:"serial"`
	Refresh     int       `json:"refresh"`
	Retry       int       `json:"retry"`
	Expire      int       `json:"expire"`
	MinTTL      int       `json:"minttl"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ApplyDefaults fills unset SOA timing parameters.
func (z *Zone) ApplyDefaults() {
	if z.Refresh == 0 {
		z.Refresh = DefaultRefresh
	}
	if z.Retry == 0 {
		z.Retry = DefaultRetry
	}
	if z.Expire == 0 {
		z.Expire = DefaultExpire
	}
	if z.MinTTL == 0 {
		z.MinTTL = DefaultMinTTL
	}
}

// SOAChanged reports whether any SOA-relevant field differs between z and other.
func (z *Zone) SOAChanged(other *Zone) bool {
	return z.NSMaster != other.NSMaster ||
		z.Mail != other.Mail ||
		z.Refresh != other.Refresh ||
		z.Retry != other.Retry ||
		z.Expire != other.Expire ||
		z.MinTTL != other.MinTTL
}

// Rr is a single resource record within a zone. Only the fields belonging to
// Type are populated; see RequiredFields.
type Rr struct {
	ID     string     `json:"id"`
	Name   string     `json:"name"` // relative (www, @, *) or absolute (www.example.com.)
	Type   RecordType `json:"type"`
	TTL    int        `json:"ttl"`
	ZoneID string     `json:"zone_id"`

	// SOA
	SOAMaster  *string `json:"soa_master,omitempty"`
	SOAMail    *string `json:"soa_mail,omitempty"`
	SOASerial  *int64  `json:"soa_serial,omitempty"`
	SOARefresh *int    `json:"soa_refresh,omitempty"`
	SOARetry   *int    `json:"soa_retry,omitempty"`
	SOAExpire  *int    `json:"soa_expire,omitempty"`
	SOAMinTTL  *int    `json:"soa_minttl,omitempty"`
	// A / AAAA
	A    *string `json:"a,omitempty"`
	AAAA *string `json:"aaaa,omitempty"`
	// CNAME / NS / PTR / DNAME
	CNAME *string `json:"cname,omitempty"`
	NS    *string `json:"ns,omitempty"`
	PTR   *string `json:"ptr,omitempty"`
	DName *string `json:"dname,omitempty"`
	// MX
	Prio *int    `json:"prio,omitempty"`
	MX   *string `json:"mx,omitempty"`
	// TXT
	TXT *string `json:"txt,omitempty"`
	// SRV
	SRVPriority *int    `json:"srv_priority,omitempty"`
	SRVWeight   *int    `json:"srv_weight,omitempty"`
	SRVPort     *int    `json:"srv_port,omitempty"`
	SRVTarget   *string `json:"srv_target,omitempty"`
	// CAA
	CAAFlag  *int    `json:"caa_flag,omitempty"`
	CAATag   *string `json:"caa_tag,omitempty"`
	CAAValue *string `json:"caa_value,omitempty"`
	// DNSKEY
	DNSKEYFlag      *int    `json:"dnskey_flag,omitempty"`
	DNSKEYProto     *int    `json:"dnskey_proto,omitempty"`
	DNSKEYAlgorithm *int    `json:"dnskey_algorithm,omitempty"`
	DNSKEYPubkey    *string `json:"dnskey_pubkey,omitempty"`
	// RRSIG
	RRSIGType      *string `json:"rrsig_type,omitempty"`
	RRSIGAlgorithm *int    `json:"rrsig_algorithm,omitempty"`
	RRSIGLabels    *int    `json:"rrsig_labels,omitempty"`
	RRSIGOrigTTL   *int    `json:"rrsig_origttl,omitempty"`
	RRSIGKeytag    *int    `json:"rrsig_keytag,omitempty"`
	RRSIGSigner    *string `json:"rrsig_signer,omitempty"`
	RRSIGSignature *string `json:"rrsig_signature,omitempty"`
	// NSEC
	NSECNextDomain  *string `json:"nsec_nextdomain,omitempty"`
	NSECTypeBitmaps *string `json:"nsec_typebitmaps,omitempty"`
	// DS
	DSKeytag     *int    `json:"ds_keytag,omitempty"`
	DSAlgorithm  *int    `json:"ds_algorithm,omitempty"`
	DSDigestType *int    `json:"ds_digesttype,omitempty"`
	DSDigest     *string `json:"ds_digest,omitempty"`
	// NSEC3
	NSEC3HashAlgorithm   *int    `json:"nsec3_hashalgorithm,omitempty"`
	NSEC3Flags           *int    `json:"nsec3_flags,omitempty"`
	NSEC3Iteration       *int    `json:"nsec3_iteration,omitempty"`
	NSEC3SaltLength      *int    `json:"nsec3_saltlength,omitempty"`
	NSEC3Salt            *string `json:"nsec3_salt,omitempty"`
	NSEC3HashLength      *int    `json:"nsec3_hashlength,omitempty"`
	NSEC3NextHashedOwner *string `json:"nsec3_nexthashedownername,omitempty"`
	NSEC3TypeBitmaps     *string `json:"nsec3_typebitmaps,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Zonerule restricts which (name, type) pairs non-administrators may create in a zone.
type Zonerule struct {
	ZoneID  string `json:"zone_id"`
	NamePat string `json:"namepat"`
	TypePat string `json:"typepat"`
}

// AuditLog records administrative actions performed on the DNS objects.
type AuditLog struct {
	ID           string    `json:"id"`
	ActorGroup   string    `json:"actor_group"`
	Action       string    `json:"action"`        // e.g., "CREATE_RR", "DELETE_ZONE"
	ResourceType string    `json:"resource_type"` // e.g., "ZONE", "RR"
	ResourceID   string    `json:"resource_id"`
	Details      string    `json:"details"`
	CreatedAt    time.Time `json:"created_at"`
}
