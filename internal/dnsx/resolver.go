/*
Package dnsx wraps github.com/miekg/dns with the bounded, categorized lookups
the lookalike pipelines need. Every query is a one-shot exchange against the
configured resolver list with a fixed timeout; results are either typed
answers or one of a small set of outcomes (NXDOMAIN, no records, timeout,
uncategorized error) that callers render into output rows.
*/
package dnsx

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
	"errors"
	"net"
	"strings"
	"time"

	"github.com/miekg/dns"

	"github.com/driftsec/lookalike/internal/metrics"
)

// Outcome categorizes the result of a single lookup. The pipelines depend on
// these categories to decide row text and the WHOIS skip policy; raw errors
// never cross the per-domain boundary.
type Outcome int

const (
	// OutcomeOK means the name resolved and at least one record of the
	// requested type was returned.
	OutcomeOK Outcome = iota
	// OutcomeNoRecords means the name exists but has no records of the
	// requested type (NOERROR with an empty answer section).
	OutcomeNoRecords
	// OutcomeNXDomain is the authoritative negative: the name does not exist.
	OutcomeNXDomain
	// OutcomeTimeout means no resolver answered within the configured timeout.
	OutcomeTimeout
	// OutcomeError covers everything else (SERVFAIL, network failures, ...).
	OutcomeError
)

// String returns the short label used in metrics and log lines.
func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeNoRecords:
		return "no_records"
	case OutcomeNXDomain:
		return "nxdomain"
	case OutcomeTimeout:
		return "timeout"
	default:
		return "error"
	}
}

// MX is one mail-exchange answer.
type MX struct {
	Pref uint16
	Host string
}

// Config carries the explicit resolver configuration. It replaces the usual
// implicit global resolver state: every Resolver is built from one of these
// and nothing else.
type Config struct {
	Servers []string // resolver addresses as host:port
	Timeout time.Duration
}

// defaultServers is used when /etc/resolv.conf is missing or empty.
var defaultServers = []string{"8.8.8.8:53", "1.1.1.1:53"}

// DefaultConfig builds a Config from /etc/resolv.conf, falling back to public
// resolvers when the file is unreadable.
func DefaultConfig(timeout time.Duration) Config {
	cfg := Config{Timeout: timeout}
	cc, err := dns.ClientConfigFromFile("/etc/resolv.conf")
	if err == nil {
		for _, srv := range cc.Servers {
			cfg.Servers = append(cfg.Servers, net.JoinHostPort(srv, cc.Port))
		}
	}
	if len(cfg.Servers) == 0 {
		cfg.Servers = defaultServers
	}
	return cfg
}

// Resolver issues bounded-time queries over UDP, retrying a truncated reply
// over TCP. It is safe for concurrent use.
type Resolver struct {
	cfg Config
	udp *dns.Client
	tcp *dns.Client

	// exchange is the transport seam; tests replace it to avoid the network.
	exchange func(ctx context.Context, c *dns.Client, m *dns.Msg, addr string) (*dns.Msg, error)
}

// NewResolver builds a Resolver for the given configuration.
func NewResolver(cfg Config) *Resolver {
	if len(cfg.Servers) == 0 {
		cfg.Servers = defaultServers
	}
	return &Resolver{
		cfg: cfg,
		udp: &dns.Client{Timeout: cfg.Timeout},
		tcp: &dns.Client{Net: "tcp", Timeout: cfg.Timeout},
		exchange: func(ctx context.Context, c *dns.Client, m *dns.Msg, addr string) (*dns.Msg, error) {
			resp, _, err := c.ExchangeContext(ctx, m, addr)
			return resp, err
		},
	}
}

// query runs one exchange for (name, qtype) against each configured server in
// order until one produces a usable reply. NXDOMAIN is a usable reply, not an
// error; only transport failures advance to the next server.
func (r *Resolver) query(ctx context.Context, name string, qtype uint16) (*dns.Msg, error) {
	m := new(dns.Msg)
	m.SetQuestion(dns.Fqdn(name), qtype)

	var lastErr error
	for _, srv := range r.cfg.Servers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		resp, err := r.exchange(ctx, r.udp, m, srv)
		if err == nil && resp != nil && resp.Truncated {
			resp, err = r.exchange(ctx, r.tcp, m, srv)
		}
		if err != nil {
			lastErr = err
			continue
		}
		return resp, nil
	}
	if lastErr == nil {
		lastErr = errors.New("no resolvers configured")
	}
	return nil, lastErr
}

// classify maps a (reply, transport error) pair onto the Outcome taxonomy.
// countByType decides OK vs NoRecords; a reply may legitimately answer with a
// CNAME chain plus records of the requested type.
func classify(resp *dns.Msg, err error, qtype uint16) Outcome {
	if err != nil {
		var nerr net.Error
		if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &nerr) && nerr.Timeout()) {
			return OutcomeTimeout
		}
		if strings.Contains(err.Error(), "i/o timeout") {
			return OutcomeTimeout
		}
		return OutcomeError
	}
	if resp == nil {
		return OutcomeError
	}
	switch resp.Rcode {
	case dns.RcodeNameError:
		return OutcomeNXDomain
	case dns.RcodeSuccess:
		if countByType(resp, qtype) == 0 {
			return OutcomeNoRecords
		}
		return OutcomeOK
	default:
		return OutcomeError
	}
}

func countByType(resp *dns.Msg, qtype uint16) int {
	n := 0
	for _, rr := range resp.Answer {
		if rr.Header().Rrtype == qtype {
			n++
		}
	}
	return n
}

// lookup performs one categorized query and records the observation.
func (r *Resolver) lookup(ctx context.Context, name string, qtype uint16) (*dns.Msg, Outcome, error) {
	start := time.Now()
	resp, err := r.query(ctx, name, qtype)
	outcome := classify(resp, err, qtype)
	if metrics.IsMetricsEnabled() {
		metrics.GetMetrics().ObserveLookup("dns", dns.TypeToString[qtype], outcome.String(), time.Since(start))
	}
	if outcome == OutcomeOK || outcome == OutcomeNoRecords {
		return resp, outcome, nil
	}
	return nil, outcome, err
}

// LookupAddrs resolves A and AAAA for name and returns the merged address
// list, de-duplicated and sorted. The two queries share one fate: if either
// ends in NXDOMAIN, timeout, or error, that outcome is returned and the
// partial address list is discarded.
func (r *Resolver) LookupAddrs(ctx context.Context, name string) ([]string, Outcome, error) {
	var addrs []string
	sawRecords := false
	for _, qtype := range []uint16{dns.TypeA, dns.TypeAAAA} {
		resp, outcome, err := r.lookup(ctx, name, qtype)
		switch outcome {
		case OutcomeOK:
			sawRecords = true
			for _, rr := range resp.Answer {
				switch rec := rr.(type) {
				case *dns.A:
					addrs = append(addrs, rec.A.String())
				case *dns.AAAA:
					addrs = append(addrs, rec.AAAA.String())
				}
			}
		case OutcomeNoRecords:
			// Name exists; keep going so an A-only or AAAA-only host still reports.
		default:
			return nil, outcome, err
		}
	}
	if !sawRecords {
		return nil, OutcomeNoRecords, nil
	}
	return UniqueSorted(addrs), OutcomeOK, nil
}

// LookupNS returns the name servers for name, trailing dots stripped,
// de-duplicated and sorted.
func (r *Resolver) LookupNS(ctx context.Context, name string) ([]string, Outcome, error) {
	resp, outcome, err := r.lookup(ctx, name, dns.TypeNS)
	if outcome != OutcomeOK {
		return nil, outcome, err
	}
	var hosts []string
	for _, rr := range resp.Answer {
		if ns, ok := rr.(*dns.NS); ok {
			hosts = append(hosts, strings.TrimSuffix(ns.Ns, "."))
		}
	}
	if len(hosts) == 0 {
		return nil, OutcomeNoRecords, nil
	}
	return UniqueSorted(hosts), OutcomeOK, nil
}

// LookupMX returns the mail exchangers for name, sorted by (preference,
// exchange). The ordering is a contract: row rendering depends on it for
// deterministic output.
func (r *Resolver) LookupMX(ctx context.Context, name string) ([]MX, Outcome, error) {
	resp, outcome, err := r.lookup(ctx, name, dns.TypeMX)
	if outcome != OutcomeOK {
		return nil, outcome, err
	}
	var mxs []MX
	for _, rr := range resp.Answer {
		if mx, ok := rr.(*dns.MX); ok {
			mxs = append(mxs, MX{Pref: mx.Preference, Host: strings.TrimSuffix(mx.Mx, ".")})
		}
	}
	if len(mxs) == 0 {
		return nil, OutcomeNoRecords, nil
	}
	SortMX(mxs)
	return mxs, OutcomeOK, nil
}
