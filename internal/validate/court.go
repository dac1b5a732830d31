package validate

import (
	"regexp"
	"strings"
)

// CourtFamily groups courts whose opinions share a header style
type CourtFamily string

const (
	CourtUnknown         CourtFamily = ""
	CourtTexCrimApp      CourtFamily = "Tex. Crim. App."
	CourtTexSupreme      CourtFamily = "Tex."
	CourtTexApp          CourtFamily = "Tex. App."
	CourtUSSupreme       CourtFamily = "U.S."
	CourtFederalCircuit  CourtFamily = "Cir."
	CourtFederalDistrict CourtFamily = "D."
)

// CourtRule ties a family to the abbreviations briefs use for it and the
// phrases opinion headers use for it
type CourtRule struct {
	Family      CourtFamily
	Name        string
	Cited       []string // Substrings of the court as cited, e.g. "Tex. Crim. App."
	HeaderTexts []string // Regex patterns matched against the opinion header
}

// DefaultCourtRules lists families most specific first: "Tex. Crim. App."
// must be tried before "Tex. App." and "Tex.".
var DefaultCourtRules = []CourtRule{
	{
		Family:      CourtTexCrimApp,
		Name:        "Court of Criminal Appeals",
		Cited:       []string{"Tex. Crim. App.", "Tex.Crim.App.", "CCA"},
		HeaderTexts: []string{`Court\s+of\s+Criminal\s+Appeals`, `Tex\.\s*Crim\.\s*App`},
	},
	{
		Family:      CourtTexApp,
		Name:        "Court of Appeals",
		Cited:       []string{"Tex. App.", "Tex.App."},
		HeaderTexts: []string{`Court\s+of\s+Appeals\s+(?:of|for)\s+the\s+\w+\s+District`, `Court\s+of\s+Appeals\s+of\s+Texas`, `Tex\.\s*App\.`},
	},
	{
		Family:      CourtUSSupreme,
		Name:        "Supreme Court of the United States",
		Cited:       []string{"U.S.", "SCOTUS"},
		HeaderTexts: []string{`Supreme\s+Court\s+of\s+the\s+United\s+States`, `Supreme\s+Court.*United\s+States`},
	},
	{
		Family:      CourtFederalCircuit,
		Name:        "federal Court of Appeals",
		Cited:       []string{" Cir.", "Fed. Cir."},
		HeaderTexts: []string{`Court\s+of\s+Appeals\s*,?\s+(?:for\s+the\s+)?\w+\s+Circuit`, `\d+(?:st|nd|rd|th)\s+Cir\.`},
	},
	{
		Family:      CourtFederalDistrict,
		Name:        "federal District Court",
		Cited:       []string{"D. Tex.", "N.D.", "S.D.", "E.D.", "W.D."},
		HeaderTexts: []string{`United\s+States\s+District\s+Court`},
	},
	{
		Family:      CourtTexSupreme,
		Name:        "Supreme Court of Texas",
		Cited:       []string{"Tex."},
		HeaderTexts: []string{`Supreme\s+Court\s+of\s+Texas`},
	},
}

// CourtClassifier maps cited courts and opinion headers onto families
type CourtClassifier struct {
	rules    []CourtRule
	patterns [][]*regexp.Regexp
}

// NewCourtClassifier compiles rules; nil uses DefaultCourtRules. Patterns
// that fail to compile are skipped.
func NewCourtClassifier(rules []CourtRule) *CourtClassifier {
	if rules == nil {
		rules = DefaultCourtRules
	}

	c := &CourtClassifier{rules: rules}
	for _, rule := range rules {
		var compiled []*regexp.Regexp
		for _, p := range rule.HeaderTexts {
			if re, err := regexp.Compile(`(?i)` + p); err == nil {
				compiled = append(compiled, re)
			}
		}
		c.patterns = append(c.patterns, compiled)
	}
	return c
}

// ClassifyCited returns the family of a court as written in a brief
func (c *CourtClassifier) ClassifyCited(court string) CourtFamily {
	court = strings.Join(strings.Fields(court), " ")
	if court == "" {
		return CourtUnknown
	}
	for _, rule := range c.rules {
		for _, abbr := range rule.Cited {
			if strings.Contains(court, abbr) {
				return rule.Family
			}
		}
	}
	return CourtUnknown
}

// ClassifyHeader returns the family whose header phrase appears earliest
// in the opinion header. Captions come first; later mentions of other
// courts belong to the procedural history.
func (c *CourtClassifier) ClassifyHeader(header string) CourtFamily {
	best := CourtUnknown
	bestAt := -1
	for i, rule := range c.rules {
		for _, re := range c.patterns[i] {
			loc := re.FindStringIndex(header)
			if loc != nil && (bestAt < 0 || loc[0] < bestAt) {
				best = rule.Family
				bestAt = loc[0]
			}
		}
	}
	return best
}

// Name returns the court's descriptive name, or the family itself
func (c *CourtClassifier) Name(family CourtFamily) string {
	for _, rule := range c.rules {
		if rule.Family == family && rule.Name != "" {
			return rule.Name
		}
	}
	return string(family)
}
