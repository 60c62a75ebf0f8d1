/*
Package whoisx wraps github.com/likexian/whois and its parser behind the
categorized lookup the lookalike pipelines need: one call in, a typed Record
or a Failure out. Registry quirks (rate-limit resets, empty responses,
unparseable formats) become failure kinds; raw errors never reach the output
rows unbounded.
*/
package whoisx

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
	"syscall"
	"time"

	"github.com/likexian/whois"

	"github.com/driftsec/lookalike/internal/metrics"
)

// Client performs bounded-time WHOIS lookups. Safe for concurrent use.
type Client struct {
	// fetch is the transport seam; tests replace it to avoid the network.
	fetch func(domain string) (string, error)
}

// NewClient builds a Client whose lookups abort after timeout.
func NewClient(timeout time.Duration) *Client {
	wc := whois.NewClient()
	wc.SetTimeout(timeout)
	return &Client{
		fetch: func(domain string) (string, error) {
			return wc.Whois(domain)
		},
	}
}

// Lookup queries WHOIS for domain and decodes the response. A nil Record
// always comes with a non-None Failure and vice versa.
func (c *Client) Lookup(ctx context.Context, domain string) (*Record, Failure) {
	if err := ctx.Err(); err != nil {
		return nil, Failure{Kind: KindOther, Detail: err.Error()}
	}

	start := time.Now()
	raw, err := c.fetch(domain)
	var rec *Record
	var fail Failure
	if err != nil {
		fail = classifyTransport(err)
	} else {
		rec, fail = decode(raw)
	}
	if metrics.IsMetricsEnabled() {
		metrics.GetMetrics().ObserveLookup("whois", "domain", fail.Kind.String(), time.Since(start))
	}
	return rec, fail
}

// classifyTransport maps a network-level error onto the failure taxonomy.
func classifyTransport(err error) Failure {
	if errors.Is(err, syscall.ECONNRESET) {
		return Failure{Kind: KindConnReset}
	}
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return Failure{Kind: KindTimeout}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return Failure{Kind: KindTimeout}
	}
	msg := err.Error()
	if strings.Contains(msg, "connection reset") {
		return Failure{Kind: KindConnReset}
	}
	if strings.Contains(msg, "i/o timeout") {
		return Failure{Kind: KindTimeout}
	}
	return Failure{Kind: KindOther, Detail: msg}
}
