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

// FailureKind categorizes what went wrong with a WHOIS lookup. The pipelines
// branch on the kind, never on raw error text.
type FailureKind int

const (
	// KindNone means the lookup produced a usable record.
	KindNone FailureKind = iota
	// KindNotFound is the registry's explicit negative: no matching object.
	// Usually the domain is available, or the query was rejected.
	KindNotFound
	// KindNoData means the server answered but the response carried no
	// parseable registration data.
	KindNoData
	// KindConnReset means the registry reset the connection, typically rate
	// limiting.
	KindConnReset
	// KindTimeout means the lookup exceeded the configured timeout.
	KindTimeout
	// KindMalformed means the response arrived but could not be parsed.
	KindMalformed
	// KindOther covers the remaining failures.
	KindOther
)

// maxNoteDetail bounds how much raw error text leaks into an output row.
const maxNoteDetail = 100

// Failure is the categorized result of a failed lookup. Detail holds the
// trimmed underlying error text for kinds without a fixed label.
type Failure struct {
	Kind   FailureKind
	Detail string
}

// None reports whether the lookup actually succeeded.
func (f Failure) None() bool {
	return f.Kind == KindNone
}

// Note renders the label written into the notes column. Kinds whose wording
// depends on DNS context (KindNoData) return "" and are worded by the caller.
func (f Failure) Note() string {
	switch f.Kind {
	case KindNotFound:
		return "WHOIS: No match/Not found (likely available or invalid query)."
	case KindConnReset:
		return "WHOIS Error: ConnectionResetError"
	case KindTimeout:
		return "WHOIS Error: Socket Timeout"
	case KindMalformed, KindOther:
		detail := f.Detail
		if len(detail) > maxNoteDetail {
			detail = detail[:maxNoteDetail]
		}
		return "WHOIS Error: " + detail
	default:
		return ""
	}
}

// String returns the short label used in metrics.
func (k FailureKind) String() string {
	switch k {
	case KindNone:
		return "ok"
	case KindNotFound:
		return "not_found"
	case KindNoData:
		return "no_data"
	case KindConnReset:
		return "conn_reset"
	case KindTimeout:
		return "timeout"
	case KindMalformed:
		return "malformed"
	default:
		return "error"
	}
}
