package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ppiankov/citecheck/internal/model"
)

const extractSystem = "You are a legal citation extractor. You answer with JSON only."

const verifySystem = "You are a meticulous legal cite-checker. You answer with JSON only and never rely on your training data for what a case holds."

// BuildExtractPrompt asks for every case citation in one brief
func BuildExtractPrompt(req model.ExtractRequest) string {
	kind := string(req.Classification.Kind)
	if kind == "" {
		kind = string(model.BriefOther)
	}
	filer := kind + " brief"
	if req.Classification.Party != "" {
		filer = fmt.Sprintf("%s brief filed by the %s", kind, req.Classification.Party)
	}

	return fmt.Sprintf(`Read this %s and extract every case citation with its context.

For each citation, output a JSON object with these fields:
- case_name: the case name as cited (e.g., "Theus v. State")
- volume: reporter volume number (e.g., "845")
- reporter: reporter abbreviation (e.g., "S.W.2d", "U.S.", "F.3d", "WL")
- page: starting page or WL number (e.g., "874", "3127402")
- pin_cite: specific page cited, if any (e.g., "at 878"); empty string if none
- court: court as identified in the brief (e.g., "Tex. Crim. App.", "Tex. App.--Houston [1st Dist.]")
- year: year as cited (e.g., "1992")
- disposition: disposition if given (e.g., "pet. ref'd", "no pet.")
- docket: docket number if the citation gives one instead of a reporter
- proposition: what the brief cites this case for (1-2 sentences)
- quotation: any direct quotation from the case (verbatim from the brief); empty string if none
- purpose: one of "supporting", "extending", "critiquing", "background"
  - supporting: cited as authority for the proposition
  - extending: argued to reach further than what it actually held
  - critiquing: cited in order to distinguish, limit, or attack it
  - background: context only
- argument_context: the argument section or issue where it appears
- raw_citation: the full citation exactly as written in the brief

Cite each use separately: the same case cited for two propositions is two objects.

Output ONLY a JSON array. No commentary, no markdown fencing. Just the raw JSON array.

BRIEF TEXT (%s):

%s`, filer, req.BriefID, req.Text)
}

// BuildVerifyPrompt asks for one verdict per mention stub against the
// full text of their shared authority
func BuildVerifyPrompt(req model.VerifyRequest) string {
	stubs, err := json.MarshalIndent(req.Mentions, "", "  ")
	if err != nil {
		// MentionStub holds only strings and ints
		stubs = []byte("[]")
	}

	return fmt.Sprintf(`Verify each citation below against the authority text that follows. Every citation refers to this same authority (%s).

Each citation carries the proposition the brief cites it for, its purpose, and any quotation. "notes" lists results of mechanical checks already run against the authority text; confirm or correct them.

Grade each citation with exactly one severity:
- Verified: the authority supports the proposition and any quotation is accurate
- Minor: typos in the citation, formatting issues, year off by one
- Moderate: minor quotation differences, slightly imprecise characterization
- Significant: quotation materially altered, or pin cite wrong and misleading
- Critical: the authority does not support the proposition, or the court or holding is materially misidentified
- Advocacy: purpose "extending" only; a good-faith argument that the holding should reach further. Grade the strength of the argument, do not call it an error
- Critique-Valid: purpose "critiquing" only; the critique of the authority is fair
- Critique-Questionable: purpose "critiquing" only; the critique mischaracterizes the authority

Output a JSON array with one object per citation:
{"index": <the citation's index>, "severity": "...", "explanation": "...", "quotation_accurate": true/false/null, "relevance": "direct|analogous|off_point", "advocacy_gap": "..."}

- quotation_accurate: null when the citation has no quotation
- relevance: how closely the authority fits the proposition
- advocacy_gap: purpose "extending" only; what separates the holding from the argued extension

Output ONLY the JSON array.

CITATIONS:

%s

AUTHORITY TEXT (%s):

%s`, req.AuthorityID, string(stubs), req.AuthorityID, req.Text)
}

// extractRecord is the wire shape of one extracted citation
type extractRecord struct {
	CaseName        string `json:"case_name"`
	Volume          any    `json:"volume"`
	Reporter        string `json:"reporter"`
	Page            any    `json:"page"`
	PinCite         string `json:"pin_cite"`
	Court           string `json:"court"`
	Year            any    `json:"year"`
	Disposition     string `json:"disposition"`
	Docket          string `json:"docket"`
	Proposition     string `json:"proposition"`
	Quotation       string `json:"quotation"`
	Purpose         string `json:"purpose"`
	ArgumentContext string `json:"argument_context"`
	RawCitation     string `json:"raw_citation"`
}

// verdictRecord is the wire shape of one verdict
type verdictRecord struct {
	Index             int     `json:"index"`
	Severity          string  `json:"severity"`
	Explanation       string  `json:"explanation"`
	QuotationAccurate *bool   `json:"quotation_accurate"`
	Relevance         string  `json:"relevance"`
	AdvocacyGap       *string `json:"advocacy_gap"`
}

// toMention maps a wire record onto a mention. Unknown purposes fall back
// to supporting.
func (r extractRecord) toMention(briefID string) model.CitationMention {
	purpose, _ := model.ParsePurpose(r.Purpose)
	return model.CitationMention{
		BriefID:         briefID,
		CaseName:        strings.TrimSpace(r.CaseName),
		Volume:          scalar(r.Volume),
		Reporter:        strings.TrimSpace(r.Reporter),
		Page:            scalar(r.Page),
		PinCite:         strings.TrimSpace(r.PinCite),
		Court:           strings.TrimSpace(r.Court),
		Year:            scalar(r.Year),
		Disposition:     strings.TrimSpace(r.Disposition),
		Docket:          strings.TrimSpace(r.Docket),
		Proposition:     strings.TrimSpace(r.Proposition),
		Quotation:       strings.TrimSpace(r.Quotation),
		Purpose:         purpose,
		ArgumentContext: strings.TrimSpace(r.ArgumentContext),
		RawCitation:     strings.TrimSpace(r.RawCitation),
	}
}

// toVerdict maps a wire record onto a verdict. A severity outside the
// closed vocabulary becomes an Error verdict that keeps the raw label.
func (r verdictRecord) toVerdict() model.VerdictRecord {
	v := model.VerificationVerdict{
		Explanation:       strings.TrimSpace(r.Explanation),
		QuotationAccurate: r.QuotationAccurate,
	}

	sev, ok := model.ParseSeverity(r.Severity)
	if ok {
		v.Severity = sev
	} else {
		v.Severity = model.SeverityError
		v.Explanation = strings.TrimSpace(fmt.Sprintf("Unrecognized severity %q. %s", r.Severity, v.Explanation))
	}

	if rel, ok := model.ParseRelevance(r.Relevance); ok {
		v.Relevance = &rel
	}
	if r.AdvocacyGap != nil && strings.TrimSpace(*r.AdvocacyGap) != "" {
		gap := strings.TrimSpace(*r.AdvocacyGap)
		v.AdvocacyGap = &gap
	}

	return model.VerdictRecord{Index: r.Index, Verdict: v}
}

// scalar renders a JSON string or number as text. Models emit volumes
// and years both ways.
func scalar(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case float64:
		return fmt.Sprintf("%.0f", x)
	default:
		return strings.TrimSpace(fmt.Sprint(x))
	}
}
