package domain

import (
	"fmt"
	"math"
	"net/netip"
	"strconv"
)

// RecordProfile selects which record types a deployment accepts.
type RecordProfile string

const (
	ProfileStandard RecordProfile = "standard"
	ProfileDNSSEC   RecordProfile = "dnssec"
)

// ParseRecordProfile maps a configuration value to a RecordProfile.
func ParseRecordProfile(s string) (RecordProfile, error) {
	switch RecordProfile(s) {
	case ProfileStandard, ProfileDNSSEC:
		return RecordProfile(s), nil
	case "":
		return ProfileStandard, nil
	}
	return "", fmt.Errorf("unknown record profile %q (want standard or dnssec)", s)
}

var standardTypes = []RecordType{TypeA, TypeAAAA, TypeNS, TypeCNAME, TypeMX, TypePTR, TypeSRV, TypeTXT, TypeDNAME, TypeCAA, TypeSOA}

var dnssecTypes = []RecordType{TypeDNSKEY, TypeRRSIG, TypeDS, TypeNSEC, TypeNSEC3}

// Types lists the record types admitted by the profile.
func (p RecordProfile) Types() []RecordType {
	if p == ProfileDNSSEC {
		return append(append([]RecordType{}, standardTypes...), dnssecTypes...)
	}
	return append([]RecordType{}, standardTypes...)
}

// Allows reports whether t may be stored under the profile.
func (p RecordProfile) Allows(t RecordType) bool {
	for _, allowed := range p.Types() {
		if allowed == t {
			return true
		}
	}
	return false
}

// RequiredFields maps each record type to the fields it must populate. The
// sets are disjoint; any field outside a record's own set must stay unset.
var RequiredFields = map[RecordType][]string{
	TypeA:     {"a"},
	TypeAAAA:  {"aaaa"},
	TypeNS:    {"ns"},
	TypeCNAME: {"cname"},
	TypeMX:    {"prio", "mx"},
	TypePTR:   {"ptr"},
	TypeSRV:   {"srv_priority", "srv_weight", "srv_port", "srv_target"},
	TypeTXT:   {"txt"},
	TypeDNAME: {"dname"},
	TypeCAA:   {"caa_flag", "caa_tag", "caa_value"},
	TypeSOA:   {"soa_master", "soa_mail", "soa_serial", "soa_refresh", "soa_retry", "soa_expire", "soa_minttl"},

	TypeDNSKEY: {"dnskey_flag", "dnskey_proto", "dnskey_algorithm", "dnskey_pubkey"},
	TypeRRSIG:  {"rrsig_type", "rrsig_algorithm", "rrsig_labels", "rrsig_origttl", "rrsig_keytag", "rrsig_signer", "rrsig_signature"},
	TypeNSEC:   {"nsec_nextdomain", "nsec_typebitmaps"},
	TypeDS:     {"ds_keytag", "ds_algorithm", "ds_digesttype", "ds_digest"},
	TypeNSEC3: {"nsec3_hashalgorithm", "nsec3_flags", "nsec3_iteration", "nsec3_saltlength", "nsec3_salt",
		"nsec3_hashlength", "nsec3_nexthashedownername", "nsec3_typebitmaps"},
}

// field describes one type-specific column of an Rr.
type field struct {
	name    string
	present func(*Rr) bool
	check   func(*Rr) error
}

func strField(name string, get func(*Rr) *string, check func(string) error) field {
	return field{
		name:    name,
		present: func(r *Rr) bool { return get(r) != nil },
		check: func(r *Rr) error {
			if check == nil {
				return nil
			}
			v := *get(r)
			if err := check(v); err != nil {
				return &FieldValueError{Field: name, Value: v, Reason: err.Error()}
			}
			return nil
		},
	}
}

func intField(name string, get func(*Rr) *int, lo, hi int) field {
	return field{
		name:    name,
		present: func(r *Rr) bool { return get(r) != nil },
		check: func(r *Rr) error {
			v := *get(r)
			if v < lo || v > hi {
				return &FieldValueError{Field: name, Value: strconv.Itoa(v), Reason: fmt.Sprintf("must be between %d and %d", lo, hi)}
			}
			return nil
		},
	}
}

func maxLen(n int) func(string) error {
	return func(s string) error {
		if len(s) > n {
			return fmt.Errorf("length must be <= %d", n)
		}
		return nil
	}
}

func notEmpty(s string) error {
	if s == "" {
		return fmt.Errorf("must not be empty")
	}
	return nil
}

func ipv4(s string) error {
	addr, err := netip.ParseAddr(s)
	if err != nil || !addr.Is4() {
		return fmt.Errorf("not an IPv4 address")
	}
	return nil
}

func ipv6(s string) error {
	addr, err := netip.ParseAddr(s)
	if err != nil || !addr.Is6() {
		return fmt.Errorf("not an IPv6 address")
	}
	return nil
}

const (
	maxUint8  = math.MaxUint8
	maxUint16 = math.MaxUint16
	maxUint31 = math.MaxInt32
)

var fields = []field{
	strField("soa_master", func(r *Rr) *string { return r.SOAMaster }, ValidateTargetName),
	strField("soa_mail", func(r *Rr) *string { return r.SOAMail }, ValidateTargetName),
	{
		name:    "soa_serial",
		present: func(r *Rr) bool { return r.SOASerial != nil },
		check: func(r *Rr) error {
			if *r.SOASerial < 0 || *r.SOASerial > math.MaxUint32 {
				return &FieldValueError{Field: "soa_serial", Value: strconv.FormatInt(*r.SOASerial, 10), Reason: "must be an unsigned 32-bit integer"}
			}
			return nil
		},
	},
	intField("soa_refresh", func(r *Rr) *int { return r.SOARefresh }, 0, maxUint31),
	intField("soa_retry", func(r *Rr) *int { return r.SOARetry }, 0, maxUint31),
	intField("soa_expire", func(r *Rr) *int { return r.SOAExpire }, 0, maxUint31),
	intField("soa_minttl", func(r *Rr) *int { return r.SOAMinTTL }, 0, maxUint31),

	strField("a", func(r *Rr) *string { return r.A }, ipv4),
	strField("aaaa", func(r *Rr) *string { return r.AAAA }, ipv6),
	strField("cname", func(r *Rr) *string { return r.CNAME }, ValidateTargetName),
	strField("ns", func(r *Rr) *string { return r.NS }, ValidateTargetName),
	strField("ptr", func(r *Rr) *string { return r.PTR }, ValidateTargetName),
	strField("dname", func(r *Rr) *string { return r.DName }, ValidateTargetName),
	intField("prio", func(r *Rr) *int { return r.Prio }, 0, maxUint16),
	strField("mx", func(r *Rr) *string { return r.MX }, ValidateTargetName),
	strField("txt", func(r *Rr) *string { return r.TXT }, maxLen(maxUint16)),

	intField("srv_priority", func(r *Rr) *int { return r.SRVPriority }, 0, maxUint16),
	intField("srv_weight", func(r *Rr) *int { return r.SRVWeight }, 0, maxUint16),
	intField("srv_port", func(r *Rr) *int { return r.SRVPort }, 0, maxUint16),
	strField("srv_target", func(r *Rr) *string { return r.SRVTarget }, ValidateTargetName),

	intField("caa_flag", func(r *Rr) *int { return r.CAAFlag }, 0, maxUint8),
	strField("caa_tag", func(r *Rr) *string { return r.CAATag }, func(s string) error {
		if err := notEmpty(s); err != nil {
			return err
		}
		return maxLen(253)(s)
	}),
	strField("caa_value", func(r *Rr) *string { return r.CAAValue }, maxLen(253)),

	intField("dnskey_flag", func(r *Rr) *int { return r.DNSKEYFlag }, 0, maxUint16),
	intField("dnskey_proto", func(r *Rr) *int { return r.DNSKEYProto }, 0, maxUint8),
	intField("dnskey_algorithm", func(r *Rr) *int { return r.DNSKEYAlgorithm }, 0, maxUint8),
	strField("dnskey_pubkey", func(r *Rr) *string { return r.DNSKEYPubkey }, notEmpty),

	strField("rrsig_type", func(r *Rr) *string { return r.RRSIGType }, notEmpty),
	intField("rrsig_algorithm", func(r *Rr) *int { return r.RRSIGAlgorithm }, 0, maxUint8),
	intField("rrsig_labels", func(r *Rr) *int { return r.RRSIGLabels }, 0, maxUint8),
	intField("rrsig_origttl", func(r *Rr) *int { return r.RRSIGOrigTTL }, 0, maxUint31),
	intField("rrsig_keytag", func(r *Rr) *int { return r.RRSIGKeytag }, 0, maxUint16),
	strField("rrsig_signer", func(r *Rr) *string { return r.RRSIGSigner }, ValidateTargetName),
	strField("rrsig_signature", func(r *Rr) *string { return r.RRSIGSignature }, notEmpty),

	strField("nsec_nextdomain", func(r *Rr) *string { return r.NSECNextDomain }, ValidateTargetName),
	strField("nsec_typebitmaps", func(r *Rr) *string { return r.NSECTypeBitmaps }, nil),

	intField("ds_keytag", func(r *Rr) *int { return r.DSKeytag }, 0, maxUint16),
	intField("ds_algorithm", func(r *Rr) *int { return r.DSAlgorithm }, 0, maxUint8),
	intField("ds_digesttype", func(r *Rr) *int { return r.DSDigestType }, 0, maxUint8),
	strField("ds_digest", func(r *Rr) *string { return r.DSDigest }, notEmpty),

	intField("nsec3_hashalgorithm", func(r *Rr) *int { return r.NSEC3HashAlgorithm }, 0, maxUint8),
	intField("nsec3_flags", func(r *Rr) *int { return r.NSEC3Flags }, 0, maxUint8),
	intField("nsec3_iteration", func(r *Rr) *int { return r.NSEC3Iteration }, 0, maxUint16),
	intField("nsec3_saltlength", func(r *Rr) *int { return r.NSEC3SaltLength }, 0, maxUint8),
	strField("nsec3_salt", func(r *Rr) *string { return r.NSEC3Salt }, nil),
	intField("nsec3_hashlength", func(r *Rr) *int { return r.NSEC3HashLength }, 0, maxUint8),
	strField("nsec3_nexthashedownername", func(r *Rr) *string { return r.NSEC3NextHashedOwner }, notEmpty),
	strField("nsec3_typebitmaps", func(r *Rr) *string { return r.NSEC3TypeBitmaps }, nil),
}

var fieldsByName = func() map[string]field {
	m := make(map[string]field, len(fields))
	for _, f := range fields {
		m[f.name] = f
	}
	return m
}()

// PopulatedFields returns the names of all type-specific fields set on r, in
// declaration order.
func PopulatedFields(r *Rr) []string {
	var names []string
	for _, f := range fields {
		if f.present(r) {
			names = append(names, f.name)
		}
	}
	return names
}

// ValidateFields checks that r carries every field its type requires and no
// field of another type. All missing fields are reported together.
func ValidateFields(r *Rr) error {
	required, ok := RequiredFields[r.Type]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownType, r.Type)
	}

	var missing []string
	for _, name := range required {
		if !fieldsByName[name].present(r) {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return &MissingFieldsError{Type: r.Type, Fields: missing}
	}

	own := make(map[string]bool, len(required))
	for _, name := range required {
		own[name] = true
	}
	var unexpected []string
	for _, name := range PopulatedFields(r) {
		if !own[name] {
			unexpected = append(unexpected, name)
		}
	}
	if len(unexpected) > 0 {
		return &UnexpectedFieldsError{Type: r.Type, Fields: unexpected}
	}
	return nil
}

// ValidateContent checks the value of every required field of r. It assumes
// ValidateFields has passed.
func ValidateContent(r *Rr) error {
	if r.TTL < 0 || r.TTL > maxUint31 {
		return &FieldValueError{Field: "ttl", Value: strconv.Itoa(r.TTL), Reason: fmt.Sprintf("must be between 0 and %d", maxUint31)}
	}
	for _, name := range RequiredFields[r.Type] {
		if err := fieldsByName[name].check(r); err != nil {
			return err
		}
	}
	return nil
}

// ValidateRecord runs the profile, field-set and content checks on r.
func ValidateRecord(r *Rr, profile RecordProfile) error {
	if !profile.Allows(r.Type) {
		return fmt.Errorf("%w: %s (profile %s)", ErrUnknownType, r.Type, profile)
	}
	if err := ValidateFields(r); err != nil {
		return err
	}
	return ValidateContent(r)
}
