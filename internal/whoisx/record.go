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
	"bufio"
	"errors"
	"strings"

	whoisparser "github.com/likexian/whois-parser"
)

// Contact is the subset of registrant/admin/tech data the reports use.
// Privacy services mask most of it for most domains; empty fields are normal.
type Contact struct {
	Name         string
	Organization string
	Email        string
}

// Record is a decoded WHOIS response. All fields are raw strings as published
// by the registry; absent fields are empty, not "N/A" — display formatting
// happens at the rendering edge.
type Record struct {
	DomainName       string
	RegistryDomainID string
	WhoisServer      string
	RegistrarName    string
	RegistrarIANAID  string
	RegistrarURL     string
	CreatedDate      string
	UpdatedDate      string
	ExpirationDate   string
	AbuseEmail       string
	AbusePhone       string
	Statuses         []string
	NameServers      []string
	Registrant       Contact
	Admin            Contact
	Tech             Contact
}

// decode parses a raw WHOIS response into a Record, mapping parser errors
// onto the failure taxonomy.
func decode(raw string) (*Record, Failure) {
	parsed, err := whoisparser.Parse(raw)
	if err != nil {
		switch {
		case errors.Is(err, whoisparser.ErrNotFoundDomain):
			return nil, Failure{Kind: KindNotFound}
		case errors.Is(err, whoisparser.ErrDomainDataInvalid):
			return nil, Failure{Kind: KindMalformed, Detail: err.Error()}
		case errors.Is(err, whoisparser.ErrReservedDomain),
			errors.Is(err, whoisparser.ErrPremiumDomain),
			errors.Is(err, whoisparser.ErrBlockedDomain):
			// Registered-adjacent states with no registration data to report.
			return nil, Failure{Kind: KindNoData, Detail: err.Error()}
		case errors.Is(err, whoisparser.ErrDomainLimitExceed):
			return nil, Failure{Kind: KindConnReset, Detail: err.Error()}
		default:
			return nil, Failure{Kind: KindMalformed, Detail: err.Error()}
		}
	}

	rec := &Record{}
	if d := parsed.Domain; d != nil {
		rec.DomainName = d.Domain
		rec.RegistryDomainID = d.ID
		rec.WhoisServer = d.WhoisServer
		rec.CreatedDate = d.CreatedDate
		rec.UpdatedDate = d.UpdatedDate
		rec.ExpirationDate = d.ExpirationDate
		rec.Statuses = append(rec.Statuses, d.Status...)
		for _, ns := range d.NameServers {
			rec.NameServers = append(rec.NameServers, strings.ToLower(strings.TrimSuffix(ns, ".")))
		}
	}
	if r := parsed.Registrar; r != nil {
		rec.RegistrarName = r.Name
		rec.RegistrarIANAID = r.ID
		rec.RegistrarURL = r.ReferralURL
		rec.AbuseEmail = r.Email
		rec.AbusePhone = r.Phone
	}
	rec.Registrant = toContact(parsed.Registrant)
	rec.Admin = toContact(parsed.Administrative)
	rec.Tech = toContact(parsed.Technical)

	// Registrar abuse contacts live on dedicated lines that the parser folds
	// into the registrar contact inconsistently; prefer the explicit lines.
	if email, phone := scanAbuseContacts(raw); email != "" || phone != "" {
		if email != "" {
			rec.AbuseEmail = email
		}
		if phone != "" {
			rec.AbusePhone = phone
		}
	}

	if rec.DomainName == "" {
		return nil, Failure{Kind: KindNoData}
	}
	return rec, Failure{}
}

func toContact(c *whoisparser.Contact) Contact {
	if c == nil {
		return Contact{}
	}
	return Contact{Name: c.Name, Organization: c.Organization, Email: c.Email}
}

// scanAbuseContacts pulls the registrar abuse email and phone from the raw
// response text.
func scanAbuseContacts(raw string) (email, phone string) {
	sc := bufio.NewScanner(strings.NewReader(raw))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if v, ok := fieldValue(line, "Registrar Abuse Contact Email:"); ok && email == "" {
			email = v
		}
		if v, ok := fieldValue(line, "Registrar Abuse Contact Phone:"); ok && phone == "" {
			phone = v
		}
		if email != "" && phone != "" {
			break
		}
	}
	return email, phone
}

func fieldValue(line, prefix string) (string, bool) {
	if len(line) < len(prefix) || !strings.EqualFold(line[:len(prefix)], prefix) {
		return "", false
	}
	return strings.TrimSpace(line[len(prefix):]), true
}
