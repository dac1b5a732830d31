package match

import (
	"fmt"
	"strings"

	"github.com/ppiankov/citecheck/internal/citation"
	"github.com/ppiankov/citecheck/internal/corpus"
	"github.com/ppiankov/citecheck/internal/model"
)

// Strategy labels, in cascade order. They prefix MatchResult.Method.
const (
	MethodCiteInFilename      = "cite_in_filename"
	MethodWLInFilename        = "wl_in_filename"
	MethodCiteInContent       = "cite_in_content"
	MethodWLInContent         = "wl_in_content"
	MethodDocketInContent     = "docket_in_content"
	MethodGenericCiteInHeader = "generic_cite_in_header"
	MethodNamePrefixInHeader  = "name_prefix_in_header"
	MethodNameInFilename      = "name_in_filename"
)

// Query is everything the matcher knows about one citation
type Query struct {
	CaseName string
	Volume   string
	Reporter string
	Page     string
	WLYear   string
	WLNumber string
	Docket   string
	RawEntry string // Citation text as given, for generic reporter extraction
}

// QueryFromMention builds a query from an extracted mention. A mention whose
// reporter is "WL" carries its Westlaw number in Page.
func QueryFromMention(m model.CitationMention) Query {
	q := Query{
		CaseName: m.CaseName,
		Docket:   m.Docket,
		RawEntry: m.Citation(),
	}
	if m.IsWestlaw() {
		q.WLYear = m.Year
		q.WLNumber = m.Page
	} else {
		q.Volume, q.Reporter, q.Page = m.Volume, m.Reporter, m.Page
	}
	return q
}

// QueryFromEntry builds a query from a parsed table-of-authorities entry.
func QueryFromEntry(e citation.Entry) Query {
	return Query{
		CaseName: e.CaseName,
		Volume:   e.Volume,
		Reporter: e.Reporter,
		Page:     e.Page,
		WLYear:   e.WLYear,
		WLNumber: e.WLNumber,
		Docket:   e.Docket,
		RawEntry: e.Raw,
	}
}

// indexedDoc caches the normalized views of a document the strategies search
type indexedDoc struct {
	doc         *model.AuthorityDocument
	idLower     string
	headerLower string // lowercased header, for name tokens
	headerFlat  string // whitespace-collapsed header, for generic cites
	textFlat    string // whitespace-collapsed full text, for exact cites
	namesLower  string // header and identifier, for disambiguation
}

// Matcher resolves citations against a corpus. It is safe for concurrent use
// once constructed; nothing is mutated after NewMatcher returns.
type Matcher struct {
	registry *citation.Registry
	docs     []*indexedDoc
}

// NewMatcher indexes the corpus. A nil registry uses the default reporter table.
func NewMatcher(c *corpus.Corpus, registry *citation.Registry) *Matcher {
	if registry == nil {
		registry = citation.NewRegistry()
	}

	m := &Matcher{registry: registry}
	for _, d := range c.Docs() {
		header := d.Header()
		idx := &indexedDoc{
			doc:         d,
			idLower:     strings.ToLower(d.ID),
			headerLower: strings.ToLower(header),
			headerFlat:  citation.CollapseSpace(header),
			textFlat:    citation.CollapseSpace(d.Text),
		}
		idx.namesLower = idx.headerLower + "\n" + idx.idLower
		m.docs = append(m.docs, idx)
	}
	return m
}

// Match runs the strategy cascade. The first strategy producing a candidate
// decides the result; later strategies are not tried.
func (m *Matcher) Match(q Query) model.MatchResult {
	q = m.complete(q)
	names := citation.MatchNames(q.CaseName)
	variants := m.registry.Variants(q.Volume, q.Reporter, q.Page)

	// 1. Reporter citation in the file name
	if len(variants) > 0 {
		if cands := m.filter(func(d *indexedDoc) bool { return containsAny(d.doc.ID, variants) }); len(cands) > 0 {
			return m.resolve(MethodCiteInFilename, cands, names)
		}
	}

	// 2. Westlaw number in the file name
	if q.WLNumber != "" {
		if cands := m.filter(func(d *indexedDoc) bool { return containsBounded(d.doc.ID, q.WLNumber) }); len(cands) > 0 {
			return m.resolve(MethodWLInFilename, cands, names)
		}
	}

	// 3. Reporter citation anywhere in the text; parallel cites often sit far
	// from the caption
	if len(variants) > 0 {
		if cands := m.filter(func(d *indexedDoc) bool { return containsAny(d.textFlat, variants) }); len(cands) > 0 {
			return m.resolve(MethodCiteInContent, cands, names)
		}
	}

	// 4. Westlaw citation in the text
	if q.WLYear != "" && q.WLNumber != "" {
		wl := q.WLYear + " WL " + q.WLNumber
		if cands := m.filter(func(d *indexedDoc) bool { return containsBounded(d.textFlat, wl) }); len(cands) > 0 {
			return m.resolve(MethodWLInContent, cands, names)
		}
	}

	// 5. Docket number in the text
	if q.Docket != "" {
		if cands := m.filter(func(d *indexedDoc) bool { return containsBounded(d.textFlat, q.Docket) }); len(cands) > 0 {
			return m.resolve(MethodDocketInContent, cands, names)
		}
	}

	// 6. Any citation-shaped string from the raw entry in the header
	if generic := m.registry.GenericCites(q.RawEntry); len(generic) > 0 {
		if cands := m.filter(func(d *indexedDoc) bool { return containsAny(d.headerFlat, generic) }); len(cands) > 0 {
			return m.resolve(MethodGenericCiteInHeader, cands, names)
		}
	}

	// 7. Name prefix in the header, tolerating misspelled endings
	if result, ok := m.matchNamePrefix(names); ok {
		return result
	}

	// 8. Name in the file name
	if result, ok := m.matchNameInFilename(names); ok {
		return result
	}

	return model.MatchResult{Status: model.MatchMissing}
}

// complete fills citation parts the query lacks from its raw entry text
func (m *Matcher) complete(q Query) Query {
	if q.RawEntry == "" {
		return q
	}
	if q.Volume == "" && q.Reporter == "" && q.Page == "" {
		if c, ok := m.registry.ParseCite(q.RawEntry); ok {
			q.Volume, q.Reporter, q.Page = c.Volume, c.Reporter, c.Page
		}
	}
	if q.WLNumber == "" {
		if year, number, ok := m.registry.ParseWestlaw(q.RawEntry); ok {
			q.WLYear, q.WLNumber = year, number
		}
	}
	if q.Docket == "" {
		if docket, ok := m.registry.ParseDocket(q.RawEntry); ok {
			q.Docket = docket
		}
	}
	return q
}

// resolve settles a citation strategy's candidates; citation strategies
// always report found
func (m *Matcher) resolve(method string, cands []*indexedDoc, names []string) model.MatchResult {
	d, path, _ := disambiguate(cands, names)
	return found(model.MatchFound, d, label(method, path))
}

// matchNamePrefix locates the case by a misspelling-tolerant name prefix in
// the header. Only the first search token may match several headers; a
// fallback token must match exactly one.
func (m *Matcher) matchNamePrefix(names []string) (model.MatchResult, bool) {
	for i, name := range citation.SearchNames(names) {
		prefix, ok := citation.MisspellingPrefix(name)
		if !ok {
			continue
		}

		cands := m.filter(func(d *indexedDoc) bool { return strings.Contains(d.headerLower, prefix) })
		if len(cands) == 0 || (i > 0 && len(cands) != 1) {
			continue
		}

		// A second distinctive party in the same header confirms the match
		for _, other := range names {
			if other == name || citation.IsGenericToken(other) {
				continue
			}
			otherPrefix, ok := citation.MisspellingPrefix(other)
			if !ok {
				continue
			}
			confirmed := filterDocs(cands, func(d *indexedDoc) bool { return strings.Contains(d.headerLower, otherPrefix) })
			if len(confirmed) == 1 {
				return found(model.MatchFound, confirmed[0],
					label(MethodNamePrefixInHeader, fmt.Sprintf("both_parties(%s,%s)", prefix, otherPrefix))), true
			}
		}

		if len(cands) == 1 {
			return found(model.MatchUncertain, cands[0], label(MethodNamePrefixInHeader, fmt.Sprintf("name(%s)", prefix))), true
		}
		d, path, decided := disambiguate(cands, names)
		status := model.MatchUncertain
		if decided {
			status = model.MatchFound
		}
		return found(status, d, label(MethodNamePrefixInHeader, fmt.Sprintf("name(%s)/%s", prefix, path))), true
	}
	return model.MatchResult{}, false
}

// matchNameInFilename locates the case by name in the file name; the result
// is never better than uncertain
func (m *Matcher) matchNameInFilename(names []string) (model.MatchResult, bool) {
	search := citation.SearchNames(names)
	for i, name := range search {
		cands := m.filter(func(d *indexedDoc) bool { return strings.Contains(d.idLower, name) })
		if len(cands) == 0 || (i > 0 && len(cands) != 1) {
			continue
		}
		if len(cands) == 1 {
			return found(model.MatchUncertain, cands[0], label(MethodNameInFilename, fmt.Sprintf("name(%s)", name))), true
		}

		// Narrow with the remaining names
		for _, other := range search[i+1:] {
			both := filterDocs(cands, func(d *indexedDoc) bool { return strings.Contains(d.idLower, other) })
			if len(both) >= 1 {
				path := fmt.Sprintf("both_parties(%s,%s)", name, other)
				if len(both) > 1 {
					path = fmt.Sprintf("%s/tie_break(%d candidates)", path, len(both))
				}
				return found(model.MatchUncertain, both[0], label(MethodNameInFilename, path)), true
			}
		}
		return found(model.MatchUncertain, cands[0],
			label(MethodNameInFilename, fmt.Sprintf("name(%s)/tie_break(%d candidates)", name, len(cands)))), true
	}
	return model.MatchResult{}, false
}

// disambiguate picks one candidate: a unique primary-name hit, then a unique
// second-party hit, then the highest name overlap. Remaining ties go to the
// lexicographically first identifier, which is corpus order. decided is
// false when the pick came from overlap or tie-break. Generic-party tokens
// never decide.
func disambiguate(cands []*indexedDoc, names []string) (best *indexedDoc, path string, decided bool) {
	if len(cands) == 1 {
		return cands[0], "", true
	}

	pool := cands
	if len(names) > 0 && !citation.IsGenericToken(names[0]) {
		primary := filterDocs(cands, func(d *indexedDoc) bool { return strings.Contains(d.namesLower, names[0]) })
		if len(primary) == 1 {
			return primary[0], fmt.Sprintf("primary_name(%s)", names[0]), true
		}
		if len(primary) > 1 {
			pool = primary
		}
	}

	if len(names) > 1 {
		for _, other := range names[1:] {
			if citation.IsGenericToken(other) {
				continue
			}
			second := filterDocs(pool, func(d *indexedDoc) bool { return strings.Contains(d.namesLower, other) })
			if len(second) == 1 {
				return second[0], fmt.Sprintf("second_party(%s)", other), true
			}
		}
	}

	best, bestScore, ties := pool[0], -1, 0
	for _, d := range pool {
		score := 0
		for _, n := range names {
			if strings.Contains(d.namesLower, n) {
				score++
			}
		}
		switch {
		case score > bestScore:
			best, bestScore, ties = d, score, 1
		case score == bestScore:
			ties++
		}
	}
	if ties > 1 {
		return best, fmt.Sprintf("tie_break(%d candidates)", ties), false
	}
	return best, fmt.Sprintf("name_overlap(%d)", bestScore), false
}

func (m *Matcher) filter(keep func(*indexedDoc) bool) []*indexedDoc {
	return filterDocs(m.docs, keep)
}

func filterDocs(docs []*indexedDoc, keep func(*indexedDoc) bool) []*indexedDoc {
	var out []*indexedDoc
	for _, d := range docs {
		if keep(d) {
			out = append(out, d)
		}
	}
	return out
}

func found(status model.MatchStatus, d *indexedDoc, method string) model.MatchResult {
	return model.MatchResult{
		Status:      status,
		Authority:   d.doc,
		AuthorityID: d.doc.ID,
		Method:      method,
	}
}

func label(method, path string) string {
	if path == "" {
		return method
	}
	return method + "/" + path
}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if containsBounded(haystack, n) {
			return true
		}
	}
	return false
}

// containsBounded is strings.Contains that refuses matches running into a
// neighbouring letter or digit, so "845 S.W.2d 874" does not hit "845 S.W.2d 8745".
func containsBounded(haystack, needle string) bool {
	if needle == "" {
		return false
	}
	offset := 0
	for {
		i := strings.Index(haystack[offset:], needle)
		if i < 0 {
			return false
		}
		start := offset + i
		end := start + len(needle)

		okBefore := start == 0 || !isAlnum(needle[0]) || !isAlnum(haystack[start-1])
		okAfter := end == len(haystack) || !isAlnum(needle[len(needle)-1]) || !isAlnum(haystack[end])
		if okBefore && okAfter {
			return true
		}
		offset = start + 1
	}
}

func isAlnum(b byte) bool {
	return b >= '0' && b <= '9' || b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z'
}
