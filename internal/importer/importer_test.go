package importer

import (
	"context"
	"strings"
	"testing"

	"github.com/poyrazK/dnsadmin/internal/core/domain"
	"github.com/poyrazK/dnsadmin/internal/core/services"
	"github.com/poyrazK/dnsadmin/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleZone = `$ORIGIN example.com.
$TTL 3600
@        IN SOA ns1.example.com. hostmaster.example.com. ( 2024010101 7200 3600 1209600 300 )
@        IN NS    ns1.example.com.
@        IN MX    10 mail
www  300 IN A     192.0.2.10
www      IN AAAA  2001:db8::10
mail     IN A     192.0.2.20
ftp      IN CNAME www
_sip._tcp IN SRV  10 60 5060 sip.example.com.
@        IN TXT   "v=spf1 " "-all"
@        IN CAA   0 issue "letsencrypt.org"
@        IN HINFO "PC" "Linux"
other.org. IN A   198.51.100.1
`

func TestParse(t *testing.T) {
	parsed, err := Parse(strings.NewReader(sampleZone), "example.com", "example.com.zone")
	require.NoError(t, err)

	assert.Equal(t, map[string]int{"HINFO": 1}, parsed.Skipped)
	require.Len(t, parsed.Records, 11)
	assert.Equal(t, domain.TypeSOA, parsed.Records[0].Type)
	assert.Equal(t, domain.TypeA, parsed.Records[len(parsed.Records)-1].Type)

	byName := map[string]domain.Rr{}
	for _, rr := range parsed.Records {
		byName[rr.Name+"/"+string(rr.Type)] = rr
	}

	www := byName["www/A"]
	assert.Equal(t, 300, www.TTL)
	assert.Equal(t, "192.0.2.10", *www.A)

	mx := byName["@/MX"]
	assert.Equal(t, 10, *mx.Prio)
	assert.Equal(t, "mail.example.com.", *mx.MX)

	assert.Equal(t, "www.example.com.", *byName["ftp/CNAME"].CNAME)
	assert.Equal(t, 5060, *byName["_sip._tcp/SRV"].SRVPort)
	assert.Equal(t, "v=spf1 -all", *byName["@/TXT"].TXT)
	assert.Equal(t, "issue", *byName["@/CAA"].CAATag)
	assert.Equal(t, int64(2024010101), *byName["@/SOA"].SOASerial)
	assert.Contains(t, byName, "other.org./A", "names outside the origin stay absolute")
}

func TestParseError(t *testing.T) {
	_, err := Parse(strings.NewReader("www IN A not-an-address\n"), "example.com", "bad.zone")
	assert.Error(t, err)
}

func TestParseDNSSEC(t *testing.T) {
	zone := `$ORIGIN example.com.
@ 3600 IN DS 60485 5 1 2BB183AF5F22588179A53B0A98631FAD1A292118
@ 3600 IN NSEC host.example.com. A MX RRSIG NSEC
`
	parsed, err := Parse(strings.NewReader(zone), "example.com.", "dnssec.zone")
	require.NoError(t, err)
	require.Len(t, parsed.Records, 2)

	ds := parsed.Records[0]
	assert.Equal(t, domain.TypeDS, ds.Type)
	assert.Equal(t, 60485, *ds.DSKeytag)

	nsec := parsed.Records[1]
	assert.Equal(t, "A MX RRSIG NSEC", *nsec.NSECTypeBitmaps)
}

func TestLoad(t *testing.T) {
	store := testutil.NewMemStore()
	ctx := context.Background()
	require.NoError(t, store.CreateNamespace(ctx, &domain.Namespace{ID: "ns1", Name: "corp"}))
	require.NoError(t, store.CreateZone(ctx, &domain.Zone{
		ID: "z1", Name: "example.com", NamespaceID: "ns1",
		NSMaster: "ns1.example.com.", Mail: "hostmaster.example.com.", Serial: 1,
	}))

	parsed, err := Parse(strings.NewReader(sampleZone), "example.com", "example.com.zone")
	require.NoError(t, err)

	admin := domain.Actor{IsAdministrator: true, Groups: []string{"admins"}, DefaultGroup: "admins"}
	loader := NewLoader(services.NewAdminService(store, services.AdminOptions{}), nil)
	report, err := loader.Load(ctx, admin, "z1", parsed.Records)
	require.NoError(t, err)

	// other.org. is outside the zone and refused; the rest is created.
	assert.Equal(t, len(parsed.Records)-1, report.Created)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, "other.org.", report.Failures[0].Record.Name)

	rrs, err := store.ListRrsByZone(ctx, "z1")
	require.NoError(t, err)
	assert.Len(t, rrs, report.Created)
	assert.EqualValues(t, 1+report.Created, store.Serial("z1"))
}

func TestLoadStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	loader := NewLoader(services.NewAdminService(testutil.NewMemStore(), services.AdminOptions{}), nil)

	report, err := loader.Load(ctx, domain.Actor{IsAdministrator: true, DefaultGroup: "admins"}, "z1", []domain.Rr{{Name: "www", Type: domain.TypeA}})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, report.Created)
}
