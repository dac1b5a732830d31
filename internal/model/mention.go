package model

import (
	"fmt"
	"strings"
)

// Purpose classifies why a filing cites a case
type Purpose string

const (
	PurposeSupporting Purpose = "supporting" // Cited as authority for the proposition
	PurposeExtending  Purpose = "extending"  // Argued to reach further than its holding
	PurposeCritiquing Purpose = "critiquing" // Cited in order to distinguish or attack it
	PurposeBackground Purpose = "background" // Context only
)

// ParsePurpose maps a loosely formatted purpose label onto the closed set.
// The second return value is false when the label is not recognized.
func ParsePurpose(s string) (Purpose, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "supporting", "support", "supports":
		return PurposeSupporting, true
	case "extending", "extend", "extension":
		return PurposeExtending, true
	case "critiquing", "critique", "distinguishing", "distinguish":
		return PurposeCritiquing, true
	case "background", "context":
		return PurposeBackground, true
	default:
		return PurposeSupporting, false
	}
}

// CitationMention is one citation in a brief plus the proposition it is
// offered for. Mentions are produced by the extraction service and are not
// modified afterwards.
type CitationMention struct {
	ID              string  `json:"id"`                         // brief-scoped, e.g. "reply.txt#3"
	BriefID         string  `json:"brief_id"`                   // Owning brief
	CaseName        string  `json:"case_name"`                  // e.g. "Theus v. State"
	Volume          string  `json:"volume,omitempty"`           // Reporter volume
	Reporter        string  `json:"reporter,omitempty"`         // e.g. "S.W.2d", "WL"
	Page            string  `json:"page,omitempty"`             // First page, or WL number
	PinCite         string  `json:"pin_cite,omitempty"`         // e.g. "at 878"
	Court           string  `json:"court,omitempty"`            // Court as identified in the brief
	Year            string  `json:"year,omitempty"`             // Year as cited
	Disposition     string  `json:"disposition,omitempty"`      // e.g. "pet. ref'd"
	Docket          string  `json:"docket,omitempty"`           // e.g. "01-13-00994-CR"
	Proposition     string  `json:"proposition"`                // What the brief cites it for
	Quotation       string  `json:"quotation,omitempty"`        // Verbatim quote, if any
	Purpose         Purpose `json:"purpose"`                    // Why it is cited
	ArgumentContext string  `json:"argument_context,omitempty"` // Argument section or issue
	RawCitation     string  `json:"raw_citation,omitempty"`     // Citation text as given in the brief
}

// IsWestlaw reports whether the mention cites a Westlaw number instead of a reporter.
func (m CitationMention) IsWestlaw() bool {
	return strings.EqualFold(strings.TrimSpace(m.Reporter), "WL")
}

// ReporterCite returns "volume reporter page", or "" if any part is missing.
func (m CitationMention) ReporterCite() string {
	if m.Volume == "" || m.Reporter == "" || m.Page == "" {
		return ""
	}
	return fmt.Sprintf("%s %s %s", m.Volume, m.Reporter, m.Page)
}

// Citation renders the citation as it would appear in a table of authorities.
// The raw citation text wins when the extractor supplied one.
func (m CitationMention) Citation() string {
	if m.RawCitation != "" {
		return m.RawCitation
	}

	var b strings.Builder
	b.WriteString(m.CaseName)
	if cite := m.ReporterCite(); cite != "" {
		if b.Len() > 0 {
			b.WriteString(", ")
		}
		b.WriteString(cite)
	}

	var paren []string
	if m.Court != "" {
		paren = append(paren, m.Court)
	}
	if m.Year != "" {
		if len(paren) > 0 {
			paren[len(paren)-1] += " " + m.Year
		} else {
			paren = append(paren, m.Year)
		}
	}
	if m.Disposition != "" {
		paren = append(paren, m.Disposition)
	}
	if len(paren) > 0 {
		b.WriteString(" (")
		b.WriteString(strings.Join(paren, ", "))
		b.WriteString(")")
	}

	if b.Len() == 0 {
		return "(unidentified citation)"
	}
	return b.String()
}
