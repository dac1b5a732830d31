package model

import "strings"

// MatchStatus is the confidence of an authority resolution
type MatchStatus string

const (
	MatchFound     MatchStatus = "found"     // Resolved by citation, or by name confirmed with both parties
	MatchUncertain MatchStatus = "uncertain" // Resolved by name only
	MatchMissing   MatchStatus = "missing"   // No candidate document
)

// MatchResult records how a mention was resolved against the corpus
type MatchResult struct {
	Status      MatchStatus        `json:"status"`
	Authority   *AuthorityDocument `json:"-"`
	AuthorityID string             `json:"authority_id,omitempty"`
	Method      string             `json:"method,omitempty"` // Strategy and disambiguation path
}

// Severity is the verdict grade. The first eight values come from the
// verification service; SeverityError is only ever synthesized locally.
type Severity string

const (
	SeverityVerified             Severity = "Verified"
	SeverityMinor                Severity = "Minor"
	SeverityModerate             Severity = "Moderate"
	SeveritySignificant          Severity = "Significant"
	SeverityCritical             Severity = "Critical"
	SeverityAdvocacy             Severity = "Advocacy"
	SeverityCritiqueValid        Severity = "Critique-Valid"
	SeverityCritiqueQuestionable Severity = "Critique-Questionable"
	SeverityError                Severity = "Error"
)

// ParseSeverity maps a service-provided grade onto the closed vocabulary.
// Error is not accepted from the service.
func ParseSeverity(s string) (Severity, bool) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.NewReplacer("_", "-", " ", "-").Replace(key)
	switch key {
	case "verified":
		return SeverityVerified, true
	case "minor":
		return SeverityMinor, true
	case "moderate":
		return SeverityModerate, true
	case "significant":
		return SeveritySignificant, true
	case "critical":
		return SeverityCritical, true
	case "advocacy":
		return SeverityAdvocacy, true
	case "critique-valid":
		return SeverityCritiqueValid, true
	case "critique-questionable":
		return SeverityCritiqueQuestionable, true
	default:
		return "", false
	}
}

// IsAccuracyIssue reports whether the severity marks a misstatement of the
// authority (or a failure to check it).
func (s Severity) IsAccuracyIssue() bool {
	switch s {
	case SeverityMinor, SeverityModerate, SeveritySignificant, SeverityCritical, SeverityError:
		return true
	default:
		return false
	}
}

// IsCritique reports whether the severity grades a critique of the authority.
func (s Severity) IsCritique() bool {
	return s == SeverityCritiqueValid || s == SeverityCritiqueQuestionable
}

// Relevance grades how closely a verified authority fits the proposition
type Relevance string

const (
	RelevanceDirect    Relevance = "direct"
	RelevanceAnalogous Relevance = "analogous"
	RelevanceOffPoint  Relevance = "off_point"
)

// ParseRelevance maps a relevance label onto the closed set.
func ParseRelevance(s string) (Relevance, bool) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.NewReplacer("-", "_", " ", "_").Replace(key)
	switch key {
	case "direct", "directly_on_point", "on_point":
		return RelevanceDirect, true
	case "analogous", "analogy":
		return RelevanceAnalogous, true
	case "off_point", "offpoint", "irrelevant":
		return RelevanceOffPoint, true
	default:
		return "", false
	}
}

// IsGap reports whether the relevance is weak enough to report.
func (r Relevance) IsGap() bool {
	return r == RelevanceAnalogous || r == RelevanceOffPoint
}

// VerificationVerdict is the verdict for one mention
type VerificationVerdict struct {
	Severity          Severity   `json:"severity"`
	Explanation       string     `json:"explanation"`
	QuotationAccurate *bool      `json:"quotation_accurate,omitempty"`
	Relevance         *Relevance `json:"relevance,omitempty"`
	AdvocacyGap       *string    `json:"advocacy_gap,omitempty"` // Only for extending mentions
}

// ErrorVerdict synthesizes a verdict for a mention the service never graded.
func ErrorVerdict(explanation string) VerificationVerdict {
	return VerificationVerdict{
		Severity:    SeverityError,
		Explanation: explanation,
	}
}

// CheckFinding is one result of a local mechanical check
type CheckFinding struct {
	Kind     string   `json:"kind"`               // e.g. "quotation_verbatim", "year_mismatch"
	Passed   bool     `json:"passed"`             // True when the check confirmed the mention
	Severity Severity `json:"severity,omitempty"` // Suggested grade when the check failed
	Detail   string   `json:"detail,omitempty"`
}

// Assessment is the merged result for one mention
type Assessment struct {
	Mention CitationMention     `json:"mention"`
	Match   MatchResult         `json:"match"`
	Verdict VerificationVerdict `json:"verdict"`
	Checks  []CheckFinding      `json:"checks,omitempty"`
}
