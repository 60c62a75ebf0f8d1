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
	"bufio"
	"context"
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

// Header is the output schema. Column order is fixed; downstream tooling
// indexes by position.
var Header = []string{
	"Original Input Domain", "Base Name Extracted", "TLD Variant Checked", "Full Domain Queried",
	"DNS Resolves (A/AAAA)", "IP Addresses", "Name Servers (NS)", "Mail Servers (MX)",
	"WHOIS Creation Date", "WHOIS Updated Date", "WHOIS Expiration Date", "WHOIS Registrar",
	"WHOIS Domain Status", "WHOIS Registrant Org", "WHOIS Notes/Errors",
}

// DNSLookuper is the slice of the DNS resolver the scanner consumes.
type DNSLookuper interface {
	LookupAddrs(ctx context.Context, name string) ([]string, dnsx.Outcome, error)
	LookupNS(ctx context.Context, name string) ([]string, dnsx.Outcome, error)
	LookupMX(ctx context.Context, name string) ([]dnsx.MX, dnsx.Outcome, error)
}

// WhoisLookuper is the slice of the WHOIS client the scanner consumes.
type WhoisLookuper interface {
	Lookup(ctx context.Context, domain string) (*whoisx.Record, whoisx.Failure)
}

// RowWriter receives finished output rows.
type RowWriter interface {
	WriteRow(record []string) error
}

// VariantInfo holds one output row. Every field defaults to its placeholder
// so a row is writable no matter how far the checks got.
type VariantInfo struct {
	OriginalInput  string
	BaseName       string
	TLD            string
	FullDomain     string
	Resolves       string
	IPAddresses    string
	NameServers    string
	MailServers    string
	CreatedDate    string
	UpdatedDate    string
	ExpirationDate string
	Registrar      string
	DomainStatus   string
	RegistrantOrg  string
	Notes          string
}

func newVariantInfo(original, base, tld, fqdn string) *VariantInfo {
	return &VariantInfo{
		OriginalInput:  original,
		BaseName:       base,
		TLD:            tld,
		FullDomain:     fqdn,
		Resolves:       "No",
		IPAddresses:    whoisx.NotAvailable,
		NameServers:    whoisx.NotAvailable,
		MailServers:    whoisx.NotAvailable,
		CreatedDate:    whoisx.NotAvailable,
		UpdatedDate:    whoisx.NotAvailable,
		ExpirationDate: whoisx.NotAvailable,
		Registrar:      whoisx.NotAvailable,
		DomainStatus:   whoisx.NotAvailable,
		RegistrantOrg:  whoisx.NotAvailable,
	}
}

// Row renders the record in Header order.
func (v *VariantInfo) Row() []string {
	return []string{
		v.OriginalInput, v.BaseName, v.TLD, v.FullDomain,
		v.Resolves, v.IPAddresses, v.NameServers, v.MailServers,
		v.CreatedDate, v.UpdatedDate, v.ExpirationDate, v.Registrar,
		v.DomainStatus, v.RegistrantOrg, v.Notes,
	}
}

// Pipeline wires the scanner together. All fields are required; TLDs must
// already be normalized.
type Pipeline struct {
	DNS   DNSLookuper
	Whois WhoisLookuper
	Out   RowWriter
	Pool  *engine.Pool
	Stats *Stats
	TLDs  []string
}

// Run reads one domain per line from input, extracts each base name, and
// dispatches one check task per (base, TLD) combination. Blank lines are
// skipped; an input whose base name cannot be extracted produces a single
// error row instead of a variant fan-out.
func (p *Pipeline) Run(ctx context.Context, input io.Reader) error {
	sc := bufio.NewScanner(input)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		p.Stats.InputDomains.Add(1)

		normalized := domain.Normalize(line)
		if err := domain.Validate(normalized); err != nil {
			log.Printf("Skipping invalid domain input %q: %v", line, err)
			p.Stats.ExtractFailures.Add(1)
			row := &VariantInfo{
				OriginalInput: line,
				BaseName:      "Error",
				Notes:         "Invalid domain format",
			}
			if err := p.writeRow(row); err != nil {
				return err
			}
			continue
		}

		base := domain.ExtractBase(normalized)
		if base == "" {
			log.Printf("Could not extract a base name from %q", line)
			p.Stats.ExtractFailures.Add(1)
			row := &VariantInfo{
				OriginalInput: line,
				BaseName:      "Error",
				Notes:         "Could not extract base name from input.",
			}
			if err := p.writeRow(row); err != nil {
				return err
			}
			continue
		}

		for _, tld := range p.TLDs {
			original, baseName, variantTLD := line, base, tld
			fqdn := baseName + variantTLD
			p.Stats.VariantsQueued.Add(1)
			if err := p.Pool.Submit(ctx, fqdn, func(taskCtx context.Context) {
				info := p.checkVariant(taskCtx, fqdn)
				info.OriginalInput = original
				info.BaseName = baseName
				info.TLD = variantTLD
				if err := p.writeRow(info); err != nil {
					log.Printf("Failed to write row for %s: %v", fqdn, err)
				}
			}); err != nil {
				return fmt.Errorf("submitting %s: %w", fqdn, err)
			}
		}
	}
	if err := sc.Err(); err != nil {
		// Let dispatched variants finish and report their rows before the
		// read error aborts the run.
		p.Pool.Wait()
		return fmt.Errorf("reading input: %w", err)
	}

	p.Pool.Wait()
	return ctx.Err()
}

func (p *Pipeline) writeRow(info *VariantInfo) error {
	if err := p.Out.WriteRow(info.Row()); err != nil {
		return fmt.Errorf("writing output row: %w", err)
	}
	p.Stats.RowsWritten.Add(1)
	if metrics.IsMetricsEnabled() {
		metrics.GetMetrics().ObserveRowWritten("tldscan")
	}
	return nil
}

// checkVariant runs the full DNS and WHOIS battery for one variant and fills
// everything except the input-identity columns. It never fails; problems end
// up in the Notes column.
func (p *Pipeline) checkVariant(ctx context.Context, fqdn string) *VariantInfo {
	info := newVariantInfo("", "", "", fqdn)
	var dnsNotes, whoisNotes []string
	resolvedIP, resolvedNS := false, false
	nxIP, nxNS := false, false

	addrs, outcome, err := p.DNS.LookupAddrs(ctx, fqdn)
	switch outcome {
	case dnsx.OutcomeOK:
		info.IPAddresses = dnsx.JoinSorted(addrs)
		info.Resolves = "Yes"
		resolvedIP = true
		p.Stats.Resolved.Add(1)
	case dnsx.OutcomeNXDomain:
		nxIP = true
		dnsNotes = append(dnsNotes, "DNS NXDOMAIN (IP)")
	case dnsx.OutcomeNoRecords:
		dnsNotes = append(dnsNotes, "DNS NoAnswer (IP)")
	case dnsx.OutcomeTimeout:
		dnsNotes = append(dnsNotes, "DNS Timeout (IP)")
	default:
		dnsNotes = append(dnsNotes, "DNS IP Error: "+errText(err))
	}

	hosts, outcome, err := p.DNS.LookupNS(ctx, fqdn)
	switch outcome {
	case dnsx.OutcomeOK:
		info.NameServers = dnsx.JoinSorted(hosts)
		resolvedNS = true
	case dnsx.OutcomeNXDomain:
		nxNS = true
		// Only worth noting when the address lookup failed the same way.
		if !resolvedIP {
			dnsNotes = append(dnsNotes, "DNS NXDOMAIN (NS)")
		}
	case dnsx.OutcomeNoRecords:
		dnsNotes = append(dnsNotes, "DNS NoAnswer (NS)")
	case dnsx.OutcomeTimeout:
		dnsNotes = append(dnsNotes, "DNS Timeout (NS)")
	default:
		dnsNotes = append(dnsNotes, "DNS NS Error: "+errText(err))
	}

	mxs, outcome, err := p.DNS.LookupMX(ctx, fqdn)
	switch outcome {
	case dnsx.OutcomeOK:
		info.MailServers = dnsx.FormatMX(mxs)
	case dnsx.OutcomeNXDomain:
		if !resolvedIP && !resolvedNS {
			dnsNotes = append(dnsNotes, "DNS NXDOMAIN (MX)")
		}
	case dnsx.OutcomeNoRecords:
		dnsNotes = append(dnsNotes, "DNS NoAnswer (MX)")
	case dnsx.OutcomeTimeout:
		dnsNotes = append(dnsNotes, "DNS Timeout (MX)")
	default:
		dnsNotes = append(dnsNotes, "DNS MX Error: "+errText(err))
	}

	// WHOIS is skipped only on the strongest signal of non-existence: both
	// the address and NS lookups answered NXDOMAIN.
	if nxIP && nxNS {
		whoisNotes = append(whoisNotes, "Skipped WHOIS due to DNS indicating non-existence.")
		p.Stats.WhoisSkipped.Add(1)
		if metrics.IsMetricsEnabled() {
			metrics.GetMetrics().ObserveWhoisSkipped("tldscan")
		}
	} else {
		whoisNotes = append(whoisNotes, p.checkWhois(ctx, fqdn, info, resolvedIP || resolvedNS)...)
	}

	var parts []string
	if len(dnsNotes) > 0 {
		parts = append(parts, "DNS: "+strings.Join(dnsx.UniqueSorted(dnsNotes), "; "))
	}
	if len(whoisNotes) > 0 {
		parts = append(parts, "WHOIS: "+strings.Join(dnsx.UniqueSorted(whoisNotes), "; "))
	}
	if len(parts) == 0 {
		info.Notes = "OK"
	} else {
		info.Notes = strings.Join(parts, " | ")
	}
	return info
}

// checkWhois fills the WHOIS columns and returns the notes it generated.
// hasDNS reports whether any A/AAAA or NS lookup succeeded; the wording of
// sparse-data notes depends on it.
func (p *Pipeline) checkWhois(ctx context.Context, fqdn string, info *VariantInfo, hasDNS bool) []string {
	rec, fail := p.Whois.Lookup(ctx, fqdn)
	if fail.None() {
		info.CreatedDate = whoisx.Display(rec.CreatedDate)
		info.UpdatedDate = whoisx.Display(rec.UpdatedDate)
		info.ExpirationDate = whoisx.Display(rec.ExpirationDate)
		info.Registrar = whoisx.Display(rec.RegistrarName)
		info.DomainStatus = whoisx.DisplayList(rec.Statuses)
		info.RegistrantOrg = whoisx.Display(rec.Registrant.Organization)
		p.Stats.Registered.Add(1)
		if !hasDNS {
			return []string{"WHOIS found, but no active DNS (A/AAAA or NS)."}
		}
		return nil
	}

	p.Stats.WhoisFailures.Add(1)
	switch fail.Kind {
	case whoisx.KindNoData:
		if hasDNS {
			return []string{"DNS resolves, but WHOIS lookup failed or returned no data."}
		}
		if fail.Detail != "" {
			// Reserved/premium/blocked states: a response arrived, it just
			// carries no registration data.
			return []string{"WHOIS data sparse or domain may be available."}
		}
		return []string{"Domain likely not registered (WHOIS empty/no match)."}
	default:
		return []string{fail.Note()}
	}
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
