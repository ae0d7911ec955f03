// Package importer reads RFC 1035 master files into record candidates and
// creates them through the administration service.
package importer

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/miekg/dns"
	"github.com/poyrazK/dnsadmin/internal/core/domain"
	"github.com/poyrazK/dnsadmin/internal/core/ports"
	"github.com/rs/zerolog"
)

// typeOrder is the creation order of parsed records.
var typeOrder = []domain.RecordType{
	domain.TypeSOA, domain.TypeNS, domain.TypeCNAME, domain.TypeDNAME, domain.TypeMX, domain.TypePTR,
	domain.TypeSRV, domain.TypeTXT, domain.TypeCAA, domain.TypeAAAA, domain.TypeA,
	domain.TypeDNSKEY, domain.TypeDS, domain.TypeRRSIG, domain.TypeNSEC, domain.TypeNSEC3,
}

// Parsed is the outcome of reading one master file.
type Parsed struct {
	Records []domain.Rr
	// Skipped counts records of types with no Rr representation, by type name.
	Skipped map[string]int
}

// Parse reads a master file for the zone named origin. Owner names inside the
// zone become relative ("@", "www"); targets are kept fully qualified.
func Parse(r io.Reader, origin, filename string) (*Parsed, error) {
	origin = dns.Fqdn(strings.ToLower(origin))
	zp := dns.NewZoneParser(r, origin, filename)

	out := &Parsed{Skipped: map[string]int{}}
	for rr, ok := zp.Next(); ok; rr, ok = zp.Next() {
		rec, supported := convert(rr)
		if !supported {
			out.Skipped[dns.TypeToString[rr.Header().Rrtype]]++
			continue
		}
		rec.Name = relativeName(rr.Header().Name, origin)
		rec.TTL = int(rr.Header().Ttl)
		out.Records = append(out.Records, rec)
	}
	if err := zp.Err(); err != nil {
		return nil, fmt.Errorf("parse %s: %w", filename, err)
	}

	rank := make(map[domain.RecordType]int, len(typeOrder))
	for i, t := range typeOrder {
		rank[t] = i
	}
	sort.SliceStable(out.Records, func(i, j int) bool {
		return rank[out.Records[i].Type] < rank[out.Records[j].Type]
	})
	return out, nil
}

func relativeName(owner, origin string) string {
	owner = strings.ToLower(owner)
	if owner == origin {
		return "@"
	}
	if strings.HasSuffix(owner, "."+origin) {
		return strings.TrimSuffix(owner, "."+origin)
	}
	return owner
}

func str(s string) *string { return &s }
func num[T ~uint8 | ~uint16 | ~uint32](v T) *int {
	n := int(v)
	return &n
}

func typeBitmap(types []uint16) *string {
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = dns.TypeToString[t]
	}
	return str(strings.Join(names, " "))
}

// convert maps a parsed resource record onto an Rr. The second result is
// false for types the engine does not store.
func convert(rr dns.RR) (domain.Rr, bool) {
	switch v := rr.(type) {
	case *dns.SOA:
		serial := int64(v.Serial)
		return domain.Rr{Type: domain.TypeSOA, SOAMaster: str(v.Ns), SOAMail: str(v.Mbox), SOASerial: &serial,
			SOARefresh: num(v.Refresh), SOARetry: num(v.Retry), SOAExpire: num(v.Expire), SOAMinTTL: num(v.Minttl)}, true
	case *dns.NS:
		return domain.Rr{Type: domain.TypeNS, NS: str(v.Ns)}, true
	case *dns.CNAME:
		return domain.Rr{Type: domain.TypeCNAME, CNAME: str(v.Target)}, true
	case *dns.DNAME:
		return domain.Rr{Type: domain.TypeDNAME, DName: str(v.Target)}, true
	case *dns.MX:
		return domain.Rr{Type: domain.TypeMX, Prio: num(v.Preference), MX: str(v.Mx)}, true
	case *dns.PTR:
		return domain.Rr{Type: domain.TypePTR, PTR: str(v.Ptr)}, true
	case *dns.SRV:
		return domain.Rr{Type: domain.TypeSRV, SRVPriority: num(v.Priority), SRVWeight: num(v.Weight),
			SRVPort: num(v.Port), SRVTarget: str(v.Target)}, true
	case *dns.TXT:
		return domain.Rr{Type: domain.TypeTXT, TXT: str(strings.Join(v.Txt, ""))}, true
	case *dns.CAA:
		return domain.Rr{Type: domain.TypeCAA, CAAFlag: num(v.Flag), CAATag: str(v.Tag), CAAValue: str(v.Value)}, true
	case *dns.A:
		return domain.Rr{Type: domain.TypeA, A: str(v.A.String())}, true
	case *dns.AAAA:
		return domain.Rr{Type: domain.TypeAAAA, AAAA: str(v.AAAA.String())}, true
	case *dns.DNSKEY:
		return domain.Rr{Type: domain.TypeDNSKEY, DNSKEYFlag: num(v.Flags), DNSKEYProto: num(v.Protocol),
			DNSKEYAlgorithm: num(v.Algorithm), DNSKEYPubkey: str(v.PublicKey)}, true
	case *dns.DS:
		return domain.Rr{Type: domain.TypeDS, DSKeytag: num(v.KeyTag), DSAlgorithm: num(v.Algorithm),
			DSDigestType: num(v.DigestType), DSDigest: str(v.Digest)}, true
	case *dns.RRSIG:
		return domain.Rr{Type: domain.TypeRRSIG, RRSIGType: str(dns.TypeToString[v.TypeCovered]),
			RRSIGAlgorithm: num(v.Algorithm), RRSIGLabels: num(v.Labels), RRSIGOrigTTL: num(v.OrigTtl),
			RRSIGKeytag: num(v.KeyTag), RRSIGSigner: str(v.SignerName), RRSIGSignature: str(v.Signature)}, true
	case *dns.NSEC:
		return domain.Rr{Type: domain.TypeNSEC, NSECNextDomain: str(v.NextDomain), NSECTypeBitmaps: typeBitmap(v.TypeBitMap)}, true
	case *dns.NSEC3:
		return domain.Rr{Type: domain.TypeNSEC3, NSEC3HashAlgorithm: num(v.Hash), NSEC3Flags: num(v.Flags),
			NSEC3Iteration: num(v.Iterations), NSEC3SaltLength: num(v.SaltLength), NSEC3Salt: str(v.Salt),
			NSEC3HashLength: num(v.HashLength), NSEC3NextHashedOwner: str(v.NextDomain),
			NSEC3TypeBitmaps: typeBitmap(v.TypeBitMap)}, true
	}
	return domain.Rr{}, false
}

// Failure is a record the service refused.
type Failure struct {
	Record domain.Rr
	Err    error
}

// Report summarizes a Load.
type Report struct {
	Created  int
	Failures []Failure
}

// Loader creates parsed records in an existing zone.
type Loader struct {
	svc    ports.AdminService
	logger zerolog.Logger
}

func NewLoader(svc ports.AdminService, logger *zerolog.Logger) *Loader {
	l := zerolog.Nop()
	if logger != nil {
		l = *logger
	}
	return &Loader{svc: svc, logger: l.With().Str("component", "importer").Logger()}
}

// Load creates every record in zoneID as actor. A refused record is reported
// and the load continues; a cancelled context stops it.
func (l *Loader) Load(ctx context.Context, actor domain.Actor, zoneID string, records []domain.Rr) (*Report, error) {
	report := &Report{}
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		rr := rec
		rr.ZoneID = zoneID
		if err := l.svc.CreateRr(ctx, actor, &rr); err != nil {
			l.logger.Warn().Err(err).Str("name", rr.Name).Str("type", string(rr.Type)).Msg("record refused")
			report.Failures = append(report.Failures, Failure{Record: rr, Err: err})
			continue
		}
		report.Created++
	}
	l.logger.Info().Str("zone_id", zoneID).Int("created", report.Created).Int("failed", len(report.Failures)).Msg("zone loaded")
	return report, nil
}
