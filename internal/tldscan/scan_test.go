package tldscan

/*
lookalike — bulk DNS/WHOIS reconnaissance for look-alike domains
Copyright (C) 2026  Marit Deelstra <lookalike@driftsec.dev>

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU Affero General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU Affero General Public License for more details.

You should have received a copy of the GNU Affero General Public License
along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driftsec/lookalike/internal/dnsx"
	"github.com/driftsec/lookalike/internal/engine"
	"github.com/driftsec/lookalike/internal/whoisx"
)

// dnsAnswer scripts one lookup result for the fake resolver.
type dnsAnswer struct {
	values  []string
	mxs     []dnsx.MX
	outcome dnsx.Outcome
}

type fakeDNS struct {
	addrs map[string]dnsAnswer
	ns    map[string]dnsAnswer
	mx    map[string]dnsAnswer
}

func answer(m map[string]dnsAnswer, name string) dnsAnswer {
	if a, ok := m[name]; ok {
		return a
	}
	return dnsAnswer{outcome: dnsx.OutcomeNXDomain}
}

func (f *fakeDNS) LookupAddrs(_ context.Context, name string) ([]string, dnsx.Outcome, error) {
	a := answer(f.addrs, name)
	return a.values, a.outcome, nil
}

func (f *fakeDNS) LookupNS(_ context.Context, name string) ([]string, dnsx.Outcome, error) {
	a := answer(f.ns, name)
	return a.values, a.outcome, nil
}

func (f *fakeDNS) LookupMX(_ context.Context, name string) ([]dnsx.MX, dnsx.Outcome, error) {
	a := answer(f.mx, name)
	return a.mxs, a.outcome, nil
}

type fakeWhois struct {
	mu       sync.Mutex
	records  map[string]*whoisx.Record
	failures map[string]whoisx.Failure
	calls    []string
}

func (f *fakeWhois) Lookup(_ context.Context, domain string) (*whoisx.Record, whoisx.Failure) {
	f.mu.Lock()
	f.calls = append(f.calls, domain)
	f.mu.Unlock()
	if fail, ok := f.failures[domain]; ok {
		return nil, fail
	}
	if rec, ok := f.records[domain]; ok {
		return rec, whoisx.Failure{}
	}
	return nil, whoisx.Failure{Kind: whoisx.KindNotFound}
}

func (f *fakeWhois) called(domain string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.calls {
		if c == domain {
			return true
		}
	}
	return false
}

type memSink struct {
	mu   sync.Mutex
	rows [][]string
}

func (m *memSink) WriteRow(record []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	row := make([]string, len(record))
	copy(row, record)
	m.rows = append(m.rows, row)
	return nil
}

func (m *memSink) all() [][]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rows
}

func newTestPipeline(dns *fakeDNS, whois *fakeWhois, tlds []string) (*Pipeline, *memSink, *engine.Pool) {
	out := &memSink{}
	pool := engine.NewPool(context.Background(), 1, time.Millisecond)
	p := &Pipeline{
		DNS:   dns,
		Whois: whois,
		Out:   out,
		Pool:  pool,
		Stats: NewStats(),
		TLDs:  tlds,
	}
	return p, out, pool
}

func TestCheckVariantRegistered(t *testing.T) {
	t.Parallel()
	dns := &fakeDNS{
		addrs: map[string]dnsAnswer{"acme.com": {values: []string{"192.0.2.1"}, outcome: dnsx.OutcomeOK}},
		ns:    map[string]dnsAnswer{"acme.com": {values: []string{"ns1.acme.com", "ns2.acme.com"}, outcome: dnsx.OutcomeOK}},
		mx: map[string]dnsAnswer{"acme.com": {
			mxs:     []dnsx.MX{{Pref: 10, Host: "mail.acme.com"}},
			outcome: dnsx.OutcomeOK,
		}},
	}
	whois := &fakeWhois{records: map[string]*whoisx.Record{
		"acme.com": {
			DomainName:     "acme.com",
			RegistrarName:  "Example Registrar",
			CreatedDate:    "2001-01-01T00:00:00Z",
			UpdatedDate:    "2024-01-01T00:00:00Z",
			ExpirationDate: "2027-01-01T00:00:00Z",
			Statuses:       []string{"ok"},
			Registrant:     whoisx.Contact{Organization: "ACME Corp"},
		},
	}}
	p, _, pool := newTestPipeline(dns, whois, nil)
	defer pool.Shutdown()

	info := p.checkVariant(context.Background(), "acme.com")
	assert.Equal(t, "Yes", info.Resolves)
	assert.Equal(t, "192.0.2.1", info.IPAddresses)
	assert.Equal(t, "ns1.acme.com, ns2.acme.com", info.NameServers)
	assert.Equal(t, "10 mail.acme.com", info.MailServers)
	assert.Equal(t, "2001-01-01T00:00:00Z", info.CreatedDate)
	assert.Equal(t, "Example Registrar", info.Registrar)
	assert.Equal(t, "ACME Corp", info.RegistrantOrg)
	assert.Equal(t, "OK", info.Notes)
}

// A variant that is NXDOMAIN on both the address and NS lookups must skip
// WHOIS entirely and say so.
func TestCheckVariantSkipsWhoisOnDoubleNXDomain(t *testing.T) {
	t.Parallel()
	dns := &fakeDNS{}
	whois := &fakeWhois{}
	p, _, pool := newTestPipeline(dns, whois, nil)
	defer pool.Shutdown()

	info := p.checkVariant(context.Background(), "acme.xyz")
	assert.False(t, whois.called("acme.xyz"), "WHOIS queried despite double NXDOMAIN")
	assert.Equal(t, "No", info.Resolves)
	assert.Equal(t, whoisx.NotAvailable, info.Registrar)
	assert.Equal(t,
		"DNS: DNS NXDOMAIN (IP); DNS NXDOMAIN (MX); DNS NXDOMAIN (NS) | WHOIS: Skipped WHOIS due to DNS indicating non-existence.",
		info.Notes)
	assert.Equal(t, int64(1), p.Stats.WhoisSkipped.Load())
}

// NXDOMAIN on the address lookup alone is not enough to skip WHOIS when the
// NS lookup merely came back empty.
func TestCheckVariantParkedDomain(t *testing.T) {
	t.Parallel()
	dns := &fakeDNS{
		ns: map[string]dnsAnswer{"acme.top": {outcome: dnsx.OutcomeNoRecords}},
		mx: map[string]dnsAnswer{"acme.top": {outcome: dnsx.OutcomeNoRecords}},
	}
	whois := &fakeWhois{records: map[string]*whoisx.Record{
		"acme.top": {DomainName: "acme.top", RegistrarName: "Example Registrar"},
	}}
	p, _, pool := newTestPipeline(dns, whois, nil)
	defer pool.Shutdown()

	info := p.checkVariant(context.Background(), "acme.top")
	assert.True(t, whois.called("acme.top"))
	assert.Equal(t, "Example Registrar", info.Registrar)
	assert.Contains(t, info.Notes, "WHOIS found, but no active DNS (A/AAAA or NS).")
	assert.Contains(t, info.Notes, "DNS NXDOMAIN (IP)")
	assert.Contains(t, info.Notes, "DNS NoAnswer (NS)")
}

func TestCheckVariantResolvesButWhoisEmpty(t *testing.T) {
	t.Parallel()
	dns := &fakeDNS{
		addrs: map[string]dnsAnswer{"acme.io": {values: []string{"192.0.2.7"}, outcome: dnsx.OutcomeOK}},
		ns:    map[string]dnsAnswer{"acme.io": {outcome: dnsx.OutcomeNoRecords}},
		mx:    map[string]dnsAnswer{"acme.io": {outcome: dnsx.OutcomeNoRecords}},
	}
	whois := &fakeWhois{failures: map[string]whoisx.Failure{
		"acme.io": {Kind: whoisx.KindNoData},
	}}
	p, _, pool := newTestPipeline(dns, whois, nil)
	defer pool.Shutdown()

	info := p.checkVariant(context.Background(), "acme.io")
	assert.Equal(t, "Yes", info.Resolves)
	assert.Contains(t, info.Notes, "DNS resolves, but WHOIS lookup failed or returned no data.")
}

// The MX NXDOMAIN note is suppressed as soon as either the address or NS
// lookup resolved.
func TestCheckVariantMXNoteSuppression(t *testing.T) {
	t.Parallel()
	dns := &fakeDNS{
		ns: map[string]dnsAnswer{"acme.net": {values: []string{"ns1.acme.net"}, outcome: dnsx.OutcomeOK}},
	}
	whois := &fakeWhois{records: map[string]*whoisx.Record{
		"acme.net": {DomainName: "acme.net", RegistrarName: "Example Registrar"},
	}}
	p, _, pool := newTestPipeline(dns, whois, nil)
	defer pool.Shutdown()

	info := p.checkVariant(context.Background(), "acme.net")
	assert.Contains(t, info.Notes, "DNS NXDOMAIN (IP)")
	assert.NotContains(t, info.Notes, "DNS NXDOMAIN (NS)")
	assert.NotContains(t, info.Notes, "DNS NXDOMAIN (MX)")
}

func TestRunFansOutVariants(t *testing.T) {
	t.Parallel()
	dns := &fakeDNS{}
	whois := &fakeWhois{}
	p, out, pool := newTestPipeline(dns, whois, []string{".com", ".net"})
	defer pool.Shutdown()

	input := "acme.co.uk\nwww.widgets.com\n"
	require.NoError(t, p.Run(context.Background(), strings.NewReader(input)))

	rows := out.all()
	require.Len(t, rows, 4, "2 bases x 2 TLDs")

	type key struct{ original, base, tld, fqdn string }
	seen := map[key]bool{}
	for _, row := range rows {
		require.Len(t, row, len(Header))
		seen[key{row[0], row[1], row[2], row[3]}] = true
	}
	assert.True(t, seen[key{"acme.co.uk", "acme", ".com", "acme.com"}])
	assert.True(t, seen[key{"acme.co.uk", "acme", ".net", "acme.net"}])
	assert.True(t, seen[key{"www.widgets.com", "www.widgets", ".com", "www.widgets.com"}])
	assert.True(t, seen[key{"www.widgets.com", "www.widgets", ".net", "www.widgets.net"}])
	assert.Equal(t, int64(4), p.Stats.VariantsQueued.Load())
	assert.Equal(t, int64(4), p.Stats.RowsWritten.Load())
}

// An input the public-suffix split cannot handle produces one error row, not
// a variant fan-out.
func TestRunExtractFailureRow(t *testing.T) {
	t.Parallel()
	dns := &fakeDNS{}
	whois := &fakeWhois{}
	p, out, pool := newTestPipeline(dns, whois, []string{".com"})
	defer pool.Shutdown()

	require.NoError(t, p.Run(context.Background(), strings.NewReader("co.uk\n")))

	rows := out.all()
	require.Len(t, rows, 1)
	assert.Equal(t, "co.uk", rows[0][0])
	assert.Equal(t, "Error", rows[0][1])
	assert.Equal(t, "Could not extract base name from input.", rows[0][len(Header)-1])
	assert.Equal(t, int64(1), p.Stats.ExtractFailures.Load())
}

// Malformed inputs are rejected before any variant is queued.
func TestRunInvalidInputRow(t *testing.T) {
	t.Parallel()
	dns := &fakeDNS{}
	whois := &fakeWhois{}
	p, out, pool := newTestPipeline(dns, whois, []string{".com"})
	defer pool.Shutdown()

	require.NoError(t, p.Run(context.Background(), strings.NewReader("has space.com\n")))

	rows := out.all()
	require.Len(t, rows, 1)
	assert.Equal(t, "has space.com", rows[0][0])
	assert.Equal(t, "Error", rows[0][1])
	assert.Equal(t, "Invalid domain format", rows[0][len(Header)-1])
	assert.Empty(t, whois.calls)
	assert.Equal(t, int64(0), p.Stats.VariantsQueued.Load())
}

func TestVariantInfoRowMatchesHeader(t *testing.T) {
	t.Parallel()
	info := newVariantInfo("orig.com", "orig", ".net", "orig.net")
	row := info.Row()
	require.Len(t, row, len(Header))
	assert.Equal(t, "orig.com", row[0])
	assert.Equal(t, "orig", row[1])
	assert.Equal(t, ".net", row[2])
	assert.Equal(t, "orig.net", row[3])
	assert.Equal(t, "No", row[4])
	for i := 5; i < 14; i++ {
		assert.Equal(t, whoisx.NotAvailable, row[i], "column %q", Header[i])
	}
}
