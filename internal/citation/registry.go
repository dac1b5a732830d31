package citation

import (
	"regexp"
	"sort"
	"strings"
)

// ReporterFormat describes one reporter series. Adding a reporter means adding
// one entry to DefaultFormats; parsing, normalization and content search all
// derive from it.
type ReporterFormat struct {
	Token    string   // Canonical abbreviation, e.g. "S.W.3d"
	Variants []string // Other spellings found in opinion texts, e.g. "U. S."
}

// DefaultFormats are the reporters recognized out of the box
var DefaultFormats = []ReporterFormat{
	{Token: "U.S.", Variants: []string{"U. S."}},
	{Token: "S. Ct.", Variants: []string{"S.Ct."}},
	{Token: "L. Ed.", Variants: []string{"L.Ed."}},
	{Token: "L. Ed. 2d", Variants: []string{"L.Ed.2d", "L. Ed.2d"}},
	{Token: "S.W."},
	{Token: "S.W.2d", Variants: []string{"S. W. 2d", "S.W. 2d"}},
	{Token: "S.W.3d", Variants: []string{"S. W. 3d", "S.W. 3d"}},
	{Token: "F.2d"},
	{Token: "F.3d"},
	{Token: "F.4th"},
	{Token: "F. App'x", Variants: []string{"F.App'x", "F. App’x", "F. Appx"}},
	{Token: "F. Supp.", Variants: []string{"F.Supp."}},
	{Token: "F. Supp. 2d", Variants: []string{"F.Supp.2d", "F. Supp.2d"}},
	{Token: "F. Supp. 3d", Variants: []string{"F.Supp.3d", "F. Supp.3d"}},
	{Token: "A.2d"},
	{Token: "A.3d"},
	{Token: "N.E.2d"},
	{Token: "N.E.3d"},
	{Token: "N.W.2d"},
	{Token: "S.E.2d"},
	{Token: "So. 2d", Variants: []string{"So.2d"}},
	{Token: "So. 3d", Variants: []string{"So.3d"}},
	{Token: "P.2d"},
	{Token: "P.3d"},
	{Token: "Tex."},
	{Token: "Tex. Crim.", Variants: []string{"Tex.Crim."}},
}

// Cite is a parsed "volume reporter page" citation
type Cite struct {
	Volume   string
	Reporter string // Canonical token
	Page     string
}

// String renders the citation in canonical form.
func (c Cite) String() string {
	return c.Volume + " " + c.Reporter + " " + c.Page
}

// Registry holds the compiled reporter table
type Registry struct {
	formats []ReporterFormat
	byKey   map[string]int // compact key -> index into formats

	citePattern    *regexp.Regexp
	wlPattern      *regexp.Regexp
	docketPattern  *regexp.Regexp
	genericPattern *regexp.Regexp
}

// NewRegistry compiles a registry from the given formats, or from
// DefaultFormats when none are given.
func NewRegistry(formats ...ReporterFormat) *Registry {
	if len(formats) == 0 {
		formats = DefaultFormats
	}

	r := &Registry{
		formats: append([]ReporterFormat(nil), formats...),
		byKey:   make(map[string]int),
	}

	var alternatives []string
	for i, f := range r.formats {
		r.byKey[compactKey(f.Token)] = i
		alternatives = append(alternatives, tokenPattern(f.Token))
		for _, v := range f.Variants {
			r.byKey[compactKey(v)] = i
			alternatives = append(alternatives, tokenPattern(v))
		}
	}

	// Longest alternatives first so "S.W.2d" wins over "S.W."
	sort.SliceStable(alternatives, func(i, j int) bool {
		return len(alternatives[i]) > len(alternatives[j])
	})

	r.citePattern = regexp.MustCompile(`(\d+)\s+(` + strings.Join(alternatives, "|") + `)\s+(\d+)`)
	r.wlPattern = regexp.MustCompile(`(\d{4})\s+WL\s+(\d+)`)
	r.docketPattern = regexp.MustCompile(`\bNos?\.\s*(\d[0-9A-Za-z:]*(?:-[0-9A-Za-z]+)+)`)
	r.genericPattern = regexp.MustCompile(
		`\b(\d{1,4})\s+((?:[A-Z][A-Za-z'’]*\.?)(?:\s?(?:[A-Z][A-Za-z'’]*\.?|\d+(?:d|th|st|nd|rd)\b))*)\s+(\d{1,6})\b`)

	return r
}

// Normalize returns the canonical token for a reporter abbreviation. Unknown
// reporters come back with their whitespace collapsed.
func (r *Registry) Normalize(reporter string) string {
	if i, ok := r.byKey[compactKey(reporter)]; ok {
		return r.formats[i].Token
	}
	return CollapseSpace(reporter)
}

// Known reports whether the reporter is in the table.
func (r *Registry) Known(reporter string) bool {
	_, ok := r.byKey[compactKey(reporter)]
	return ok
}

// Variants returns every spelling of "volume reporter page" worth searching for
// in opinion text, canonical form first.
func (r *Registry) Variants(volume, reporter, page string) []string {
	if volume == "" || reporter == "" || page == "" {
		return nil
	}

	given := CollapseSpace(reporter)
	canonical := r.Normalize(reporter)

	seen := make(map[string]bool)
	var out []string
	add := func(rep string) {
		s := volume + " " + rep + " " + page
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}

	add(canonical)
	add(given)
	if i, ok := r.byKey[compactKey(reporter)]; ok {
		for _, v := range r.formats[i].Variants {
			add(v)
		}
	}
	return out
}

// ParseCite finds the first reporter citation in text.
func (r *Registry) ParseCite(text string) (Cite, bool) {
	m := r.citePattern.FindStringSubmatch(text)
	if m == nil {
		return Cite{}, false
	}
	return Cite{Volume: m[1], Reporter: r.Normalize(m[2]), Page: m[3]}, true
}

// ParseWestlaw finds the first "year WL number" citation in text.
func (r *Registry) ParseWestlaw(text string) (year, number string, ok bool) {
	m := r.wlPattern.FindStringSubmatch(text)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}

// ParseDocket finds the first docket number ("No. 01-13-00994-CR") in text.
func (r *Registry) ParseDocket(text string) (string, bool) {
	m := r.docketPattern.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// GenericCites extracts every "number word-sequence number" citation from
// text, whitespace-collapsed. It covers reporters missing from the table.
func (r *Registry) GenericCites(text string) []string {
	matches := r.genericPattern.FindAllStringSubmatch(text, -1)

	seen := make(map[string]bool)
	var out []string
	for _, m := range matches {
		words := CollapseSpace(m[2])
		if words == "WL" || strings.HasPrefix(words, "No") && len(words) <= 3 {
			continue
		}
		s := m[1] + " " + words + " " + m[3]
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

// CollapseSpace trims s and folds every whitespace run into one space.
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// compactKey lowercases and strips spaces so "U. S." and "U.S." collide.
func compactKey(s string) string {
	s = strings.ReplaceAll(s, "’", "'")
	return strings.ToLower(strings.Join(strings.Fields(s), ""))
}

// tokenPattern turns an abbreviation into a regex tolerating spacing
// differences after periods.
func tokenPattern(token string) string {
	var b strings.Builder
	for _, ch := range token {
		switch ch {
		case '.':
			b.WriteString(`\.\s?`)
		case ' ':
			b.WriteString(`\s*`)
		case '\'', '’':
			b.WriteString(`['’]`)
		default:
			b.WriteString(regexp.QuoteMeta(string(ch)))
		}
	}
	return strings.TrimSuffix(b.String(), `\s?`)
}
