package validate

import (
	"fmt"
	"strings"
	"sync"

	"github.com/ppiankov/citecheck/internal/citation"
	"github.com/ppiankov/citecheck/internal/group"
	"github.com/ppiankov/citecheck/internal/model"
)

// Finding kinds
const (
	KindReporterCite       = "reporter_cite"
	KindReporterMismatch   = "reporter_cite_mismatch"
	KindWestlawCite        = "westlaw_cite"
	KindWestlawMismatch    = "westlaw_cite_mismatch"
	KindYear               = "year"
	KindYearMismatch       = "year_mismatch"
	KindCourt              = "court"
	KindCourtMisidentified = "court_misidentified"
	KindCourtUnconfirmed   = "court_unconfirmed"
	KindQuotationVerbatim  = "quotation_verbatim"
	KindQuotationMinor     = "quotation_minor_diffs"
	KindQuotationAltered   = "quotation_altered"
	KindQuotationNotFound  = "quotation_not_found"
)

// minQuotationLen skips fragments too short to say anything about accuracy
const minQuotationLen = 20

var punctuation = strings.NewReplacer(
	".", "", ",", "", ";", "", ":", "", "!", "", "?", "",
	`"`, "", "'", "", "-", "", "—", "", "–", "",
	"‘", "", "’", "", "“", "", "”", "",
	"[", "", "]", "", "…", "",
)

// Checker runs mechanical checks of a mention against its authority text.
// It is safe for concurrent use.
type Checker struct {
	registry *citation.Registry
	courts   *CourtClassifier

	mu   sync.Mutex
	docs map[string]*normalizedDoc
}

type normalizedDoc struct {
	spaced   string // Whitespace collapsed
	stripped string // Also without punctuation, lowercased
}

// NewChecker creates a checker. nil arguments use the defaults.
func NewChecker(registry *citation.Registry, courts *CourtClassifier) *Checker {
	if registry == nil {
		registry = citation.NewRegistry()
	}
	if courts == nil {
		courts = NewCourtClassifier(nil)
	}
	return &Checker{
		registry: registry,
		courts:   courts,
		docs:     make(map[string]*normalizedDoc),
	}
}

// Annotate fills in Checks for every resolution that has an authority
func (c *Checker) Annotate(resolutions []group.Resolution) {
	for i := range resolutions {
		if doc := resolutions[i].Match.Authority; doc != nil {
			resolutions[i].Checks = c.Check(resolutions[i].Mention, doc)
		}
	}
}

// Check compares the mention's citation, year, court, and quotation with the
// authority. Checks whose inputs the mention lacks are skipped.
func (c *Checker) Check(m model.CitationMention, doc *model.AuthorityDocument) []model.CheckFinding {
	norm := c.normalized(doc)
	header := doc.Header()

	var findings []model.CheckFinding
	if f, ok := c.checkCite(m, norm); ok {
		findings = append(findings, f)
	}
	if f, ok := checkYear(m, header); ok {
		findings = append(findings, f)
	}
	if f, ok := c.checkCourt(m, header); ok {
		findings = append(findings, f)
	}
	if f, ok := checkQuotation(m, norm); ok {
		findings = append(findings, f)
	}
	return findings
}

func (c *Checker) checkCite(m model.CitationMention, norm *normalizedDoc) (model.CheckFinding, bool) {
	if m.IsWestlaw() {
		if m.Page == "" {
			return model.CheckFinding{}, false
		}
		cite := "WL " + m.Page
		if m.Year != "" {
			cite = m.Year + " " + cite
		}
		if containsNumber(norm.spaced, "WL "+m.Page) {
			return model.CheckFinding{Kind: KindWestlawCite, Passed: true, Detail: cite}, true
		}
		return model.CheckFinding{
			Kind:     KindWestlawMismatch,
			Severity: model.SeveritySignificant,
			Detail:   fmt.Sprintf("Citation '%s' not found in authority text", cite),
		}, true
	}

	variants := c.registry.Variants(m.Volume, m.Reporter, m.Page)
	if len(variants) == 0 {
		return model.CheckFinding{}, false
	}
	for _, v := range variants {
		if containsNumber(norm.spaced, v) {
			return model.CheckFinding{Kind: KindReporterCite, Passed: true, Detail: v}, true
		}
	}
	return model.CheckFinding{
		Kind:     KindReporterMismatch,
		Severity: model.SeveritySignificant,
		Detail:   fmt.Sprintf("Citation '%s' not found in authority text", variants[0]),
	}, true
}

func checkYear(m model.CitationMention, header string) (model.CheckFinding, bool) {
	year := strings.TrimSpace(m.Year)
	if year == "" {
		return model.CheckFinding{}, false
	}
	if strings.Contains(header, year) {
		return model.CheckFinding{Kind: KindYear, Passed: true, Detail: year}, true
	}
	return model.CheckFinding{
		Kind:     KindYearMismatch,
		Severity: model.SeverityMinor,
		Detail:   fmt.Sprintf("Year '%s' not found in authority header", year),
	}, true
}

func (c *Checker) checkCourt(m model.CitationMention, header string) (model.CheckFinding, bool) {
	cited := c.courts.ClassifyCited(m.Court)
	if cited == CourtUnknown {
		return model.CheckFinding{}, false
	}

	actual := c.courts.ClassifyHeader(header)
	switch actual {
	case cited:
		return model.CheckFinding{Kind: KindCourt, Passed: true, Detail: m.Court}, true
	case CourtUnknown:
		return model.CheckFinding{
			Kind:   KindCourtUnconfirmed,
			Detail: fmt.Sprintf("Court '%s' not identified in authority header", m.Court),
		}, true
	default:
		return model.CheckFinding{
			Kind:     KindCourtMisidentified,
			Severity: model.SeverityCritical,
			Detail:   fmt.Sprintf("Brief says '%s' but authority is from the %s", m.Court, c.courts.Name(actual)),
		}, true
	}
}

func checkQuotation(m model.CitationMention, norm *normalizedDoc) (model.CheckFinding, bool) {
	quote := citation.CollapseSpace(m.Quotation)
	if len(quote) <= minQuotationLen {
		return model.CheckFinding{}, false
	}

	if strings.Contains(norm.spaced, quote) {
		return model.CheckFinding{Kind: KindQuotationVerbatim, Passed: true}, true
	}

	stripped := stripPunctuation(quote)
	if strings.Contains(norm.stripped, stripped) {
		return model.CheckFinding{
			Kind:   KindQuotationMinor,
			Passed: true,
			Detail: "Quotation matches apart from punctuation or capitalization",
		}, true
	}

	// A run of five words from the middle of the quote places it in the
	// opinion even when the ends were changed
	words := strings.Fields(stripped)
	if len(words) >= 5 {
		mid := len(words) / 2
		end := min(mid+5, len(words))
		if end-mid < 5 {
			mid = end - 5
		}
		if strings.Contains(norm.stripped, strings.Join(words[mid:end], " ")) {
			return model.CheckFinding{
				Kind:     KindQuotationAltered,
				Severity: model.SeverityModerate,
				Detail:   "Quotation found in authority but with differences",
			}, true
		}
	}

	return model.CheckFinding{
		Kind:     KindQuotationNotFound,
		Severity: model.SeveritySignificant,
		Detail:   "Quoted text not found in authority",
	}, true
}

// normalized returns the collapsed forms of the document text, computed
// once per document
func (c *Checker) normalized(doc *model.AuthorityDocument) *normalizedDoc {
	c.mu.Lock()
	defer c.mu.Unlock()

	if n, ok := c.docs[doc.ID]; ok {
		return n
	}
	spaced := citation.CollapseSpace(doc.Text)
	n := &normalizedDoc{
		spaced:   spaced,
		stripped: stripPunctuation(spaced),
	}
	c.docs[doc.ID] = n
	return n
}

// containsNumber reports whether cite occurs in text with no digit directly
// before or after it, so "845 S.W.2d 874" does not match "1845 S.W.2d 8741"
func containsNumber(text, cite string) bool {
	for from := 0; ; {
		i := strings.Index(text[from:], cite)
		if i < 0 {
			return false
		}
		start := from + i
		end := start + len(cite)
		if (start == 0 || !isDigit(text[start-1])) && (end == len(text) || !isDigit(text[end])) {
			return true
		}
		from = start + 1
	}
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func stripPunctuation(s string) string {
	return citation.CollapseSpace(strings.ToLower(punctuation.Replace(s)))
}
