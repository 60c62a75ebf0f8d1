/*
Package collect implements the domain-info collector: a CSV of domains in,
one "Domain,Information" row out per input row. The Information cell is a
multi-line report of WHOIS registration data plus A/AAAA and MX lookups,
with every per-domain problem folded into the cell instead of aborting the
run.
*/
package collect

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
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/driftsec/lookalike/internal/dnsx"
	"github.com/driftsec/lookalike/internal/domain"
	"github.com/driftsec/lookalike/internal/engine"
	"github.com/driftsec/lookalike/internal/metrics"
	"github.com/driftsec/lookalike/internal/whoisx"
)

// Header is the output schema.
var Header = []string{"Domain", "Information"}

// DNSLookuper is the slice of the DNS resolver the collector consumes.
type DNSLookuper interface {
	LookupAddrs(ctx context.Context, name string) ([]string, dnsx.Outcome, error)
	LookupMX(ctx context.Context, name string) ([]dnsx.MX, dnsx.Outcome, error)
}

// WhoisLookuper is the slice of the WHOIS client the collector consumes.
type WhoisLookuper interface {
	Lookup(ctx context.Context, domain string) (*whoisx.Record, whoisx.Failure)
}

// RowWriter receives finished output rows.
type RowWriter interface {
	WriteRow(record []string) error
}

// Pipeline wires the collector together. All fields are required.
type Pipeline struct {
	DNS   DNSLookuper
	Whois WhoisLookuper
	Out   RowWriter
	Pool  *engine.Pool
	Stats *Stats
}

// Run reads input rows, dispatches one lookup task per usable domain, and
// blocks until every task has reported its row. Malformed and empty rows get
// their row written immediately; they never reach the network.
//
// Row order in the output follows task completion, which matches input order
// when the pool runs a single worker.
func (p *Pipeline) Run(ctx context.Context, input io.Reader) error {
	reader := csv.NewReader(input)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rowNum := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Let dispatched lookups finish and report their rows before the
			// read error aborts the run; the output is the audit log.
			p.Pool.Wait()
			return fmt.Errorf("reading input row %d: %w", rowNum+1, err)
		}
		rowNum++
		p.Stats.RowsRead.Add(1)

		name := ""
		if len(row) > 0 {
			name = domain.Normalize(row[0])
		}
		if name == "" {
			p.Stats.EmptyRows.Add(1)
			if err := p.writeRow("EMPTY_ROW", "No domain provided in this row."); err != nil {
				return err
			}
			continue
		}
		if err := domain.Validate(name); err != nil {
			log.Printf("Skipping invalid domain in row %d: %q", rowNum, name)
			p.Stats.InvalidRows.Add(1)
			if err := p.writeRow(name, "Invalid domain format"); err != nil {
				return err
			}
			continue
		}

		queried := name
		if err := p.Pool.Submit(ctx, queried, func(taskCtx context.Context) {
			info := p.gather(taskCtx, queried)
			if err := p.writeRow(queried, info); err != nil {
				log.Printf("Failed to write row for %s: %v", queried, err)
			}
		}); err != nil {
			return fmt.Errorf("submitting %s: %w", queried, err)
		}
	}

	p.Pool.Wait()
	return ctx.Err()
}

func (p *Pipeline) writeRow(domainCol, infoCol string) error {
	if err := p.Out.WriteRow([]string{domainCol, infoCol}); err != nil {
		return fmt.Errorf("writing output row: %w", err)
	}
	p.Stats.RowsWritten.Add(1)
	if metrics.IsMetricsEnabled() {
		metrics.GetMetrics().ObserveRowWritten("collect")
	}
	return nil
}

// gather performs the WHOIS and DNS lookups for one domain and renders the
// Information cell. It never fails; problems become report text.
func (p *Pipeline) gather(ctx context.Context, name string) string {
	var infoParts []string
	var issues []string
	countIssue := func(issueType string) {
		if metrics.IsMetricsEnabled() {
			metrics.GetMetrics().ObserveRowIssue("collect", issueType)
		}
	}

	rec, fail := p.Whois.Lookup(ctx, name)
	switch {
	case fail.None():
		infoParts = append(infoParts, whoisReport(rec)...)
	case fail.Kind == whoisx.KindNoData:
		infoParts = append(infoParts, "WHOIS information incomplete or lookup failed.")
		issues = append(issues, fmt.Sprintf("WHOIS lookup failed for %s", name))
		p.Stats.WhoisFailures.Add(1)
		countIssue("whois")
	default:
		note := fail.Note()
		infoParts = append(infoParts, note)
		issues = append(issues, fmt.Sprintf("WHOIS lookup error for %s: %s", name, note))
		p.Stats.WhoisFailures.Add(1)
		countIssue("whois")
	}

	addrs, outcome, err := p.DNS.LookupAddrs(ctx, name)
	if outcome != dnsx.OutcomeOK {
		countIssue("dns_addr")
	}
	switch outcome {
	case dnsx.OutcomeOK:
		infoParts = append(infoParts, "Server IP (A/AAAA): "+dnsx.JoinSorted(addrs))
	case dnsx.OutcomeNoRecords:
		infoParts = append(infoParts, "Server IP (A/AAAA): No A/AAAA record found")
		issues = append(issues, fmt.Sprintf("DNS NoAnswer for %s (A/AAAA)", name))
	case dnsx.OutcomeNXDomain:
		infoParts = append(infoParts, "Server IP (A/AAAA): NXDOMAIN (Domain does not exist)")
		issues = append(issues, fmt.Sprintf("DNS NXDOMAIN for %s (A/AAAA)", name))
	case dnsx.OutcomeTimeout:
		infoParts = append(infoParts, "Server IP (A/AAAA): DNS Timeout")
		issues = append(issues, fmt.Sprintf("DNS Timeout for %s (A/AAAA)", name))
	default:
		infoParts = append(infoParts, fmt.Sprintf("Server IP (A/AAAA) Error: %s", errText(err)))
		issues = append(issues, fmt.Sprintf("DNS A/AAAA lookup error for %s: %s", name, errText(err)))
	}

	mxs, outcome, err := p.DNS.LookupMX(ctx, name)
	if outcome != dnsx.OutcomeOK {
		countIssue("dns_mx")
	}
	switch outcome {
	case dnsx.OutcomeOK:
		infoParts = append(infoParts, "Mail Server (MX): "+dnsx.FormatMX(mxs))
	case dnsx.OutcomeNoRecords:
		infoParts = append(infoParts, "Mail Server (MX): No MX record found")
		issues = append(issues, fmt.Sprintf("DNS NoAnswer for %s (MX)", name))
	case dnsx.OutcomeNXDomain:
		infoParts = append(infoParts, "Mail Server (MX): NXDOMAIN (Domain does not exist)")
		issues = append(issues, fmt.Sprintf("DNS NXDOMAIN for %s (MX)", name))
	case dnsx.OutcomeTimeout:
		infoParts = append(infoParts, "Mail Server (MX): DNS Timeout")
		issues = append(issues, fmt.Sprintf("DNS Timeout for %s (MX)", name))
	default:
		infoParts = append(infoParts, fmt.Sprintf("Mail Server (MX) Error: %s", errText(err)))
		issues = append(issues, fmt.Sprintf("DNS MX lookup error for %s: %s", name, errText(err)))
	}

	if len(issues) > 0 {
		p.Stats.RowsWithIssues.Add(1)
		if metrics.IsMetricsEnabled() {
			metrics.GetMetrics().ObserveQuery("collect", "issues")
		}
		return strings.Join(infoParts, "\n") + "\n\nEncountered issues:\n" + strings.Join(issues, "\n")
	}
	if metrics.IsMetricsEnabled() {
		metrics.GetMetrics().ObserveQuery("collect", "ok")
	}
	return strings.Join(infoParts, "\n")
}

// whoisReport renders the registration section of the Information cell.
// Field order is fixed; consumers diff these cells between scans.
func whoisReport(rec *whoisx.Record) []string {
	lines := []string{
		"Domain Name: " + rec.DomainName,
		"Registry Domain ID: " + whoisx.Display(rec.RegistryDomainID),
		"Registrar WHOIS Server: " + whoisx.Display(rec.WhoisServer),
		"Registrar URL: " + whoisx.GuessRegistrarURL(rec.RegistrarURL, rec.RegistrarName),
		"Updated Date: " + whoisx.Display(rec.UpdatedDate),
		"Creation Date: " + whoisx.Display(rec.CreatedDate),
		"Registrar Registration Expiration Date: " + whoisx.Display(rec.ExpirationDate),
		"Registrar: " + whoisx.Display(rec.RegistrarName),
		"Registrar IANA ID: " + whoisx.Display(rec.RegistrarIANAID),
		"Registrar Abuse Contact Email: " + whoisx.Display(rec.AbuseEmail),
		"Registrar Abuse Contact Phone: " + whoisx.Display(rec.AbusePhone),
		"Domain Status: " + whoisx.DisplayList(rec.Statuses),
	}
	lines = append(lines, contactLines("Registrant", rec.Registrant)...)
	lines = append(lines, contactLines("Admin", rec.Admin)...)
	lines = append(lines, contactLines("Tech", rec.Tech)...)
	lines = append(lines, "Name Server: "+whoisx.DisplayList(rec.NameServers))
	return lines
}

// contactLines emits only the contact fields that are actually present;
// privacy services blank most of them and N/A noise helps nobody here.
func contactLines(prefix string, c whoisx.Contact) []string {
	var lines []string
	if c.Name != "" {
		lines = append(lines, prefix+" Name: "+c.Name)
	}
	if c.Organization != "" {
		lines = append(lines, prefix+" Organization: "+c.Organization)
	}
	if c.Email != "" {
		lines = append(lines, prefix+" Email: "+c.Email)
	}
	return lines
}

func errText(err error) string {
	if err == nil {
		return "lookup failed"
	}
	msg := err.Error()
	if len(msg) > 100 {
		msg = msg[:100]
	}
	return msg
}
