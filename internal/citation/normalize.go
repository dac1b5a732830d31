package citation

import (
	"strings"
	"unicode"
)

// genericParties are first parties shared by too many cases to identify one
var genericParties = map[string]bool{
	"united states": true, "people": true, "state": true, "commonwealth": true, "com": true,
	"the state": true, "state of texas": true, "the state of texas": true,

	"alabama": true, "alaska": true, "arizona": true, "arkansas": true, "california": true,
	"colorado": true, "connecticut": true, "delaware": true, "florida": true, "georgia": true,
	"hawaii": true, "idaho": true, "illinois": true, "indiana": true, "iowa": true,
	"kansas": true, "kentucky": true, "louisiana": true, "maine": true, "maryland": true,
	"massachusetts": true, "michigan": true, "minnesota": true, "mississippi": true, "missouri": true,
	"montana": true, "nebraska": true, "nevada": true, "new hampshire": true, "new jersey": true,
	"new mexico": true, "new york": true, "north carolina": true, "north dakota": true, "ohio": true,
	"oklahoma": true, "oregon": true, "pennsylvania": true, "rhode island": true, "south carolina": true,
	"south dakota": true, "tennessee": true, "texas": true, "utah": true, "vermont": true,
	"virginia": true, "washington": true, "west virginia": true, "wisconsin": true, "wyoming": true,
}

// genericTokens are the match tokens MatchNames derives from generic parties
// ("states" for "United States", "york" for "New York")
var genericTokens = func() map[string]bool {
	m := make(map[string]bool, len(genericParties))
	for party := range genericParties {
		if w := DistinctiveWord(party); w != "" {
			m[w] = true
		}
	}
	return m
}()

// partyNoiseWords never identify a party
var partyNoiseWords = map[string]bool{
	"no": true, "inc": true, "co": true, "corp": true, "ltd": true, "dist": true, "et": true, "al": true,
}

// SplitParties splits a case name on "v." or "v". The second party is empty
// when there is no separator.
func SplitParties(caseName string) (first, second string) {
	for _, sep := range []string{" v. ", " v "} {
		if i := strings.Index(caseName, sep); i >= 0 {
			return strings.TrimSpace(caseName[:i]), strings.TrimSpace(caseName[i+len(sep):])
		}
	}
	return strings.TrimSpace(caseName), ""
}

// IsGenericParty reports whether the party names a sovereign or other litigant
// that appears in too many cases to be useful for matching.
func IsGenericParty(party string) bool {
	return genericParties[strings.ToLower(strings.TrimRight(strings.TrimSpace(party), ".,"))]
}

// IsGenericToken reports whether a MatchNames token comes from a generic
// party. Such tokens occur in too many opinions to locate one by name.
func IsGenericToken(token string) bool {
	return genericTokens[strings.ToLower(token)]
}

// SearchNames returns the MatchNames tokens that can locate a case on their
// own, without generic-party tokens
func SearchNames(names []string) []string {
	var out []string
	for _, n := range names {
		if !IsGenericToken(n) {
			out = append(out, n)
		}
	}
	return out
}

// MatchNames returns lowercase name tokens for locating a case, most specific
// first.
//
//	"United States v. Spriggs"                          -> [spriggs states]
//	"Safford Unified School District No. 1 v. Redding"  -> [district redding]
//	"Wood v. Clemons"                                   -> [wood clemons]
func MatchNames(caseName string) []string {
	first, second := SplitParties(caseName)

	var names []string
	add := func(party string) {
		if w := DistinctiveWord(party); w != "" {
			for _, n := range names {
				if n == w {
					return
				}
			}
			names = append(names, w)
		}
	}

	if second != "" && IsGenericParty(first) {
		add(second)
		add(first)
	} else {
		add(first)
		add(second)
	}
	return names
}

// DistinctiveWord picks the word most likely to identify a party: the last
// word that is not a number, a single character or a noise word, falling back
// to the first substantive word.
func DistinctiveWord(party string) string {
	words := strings.Fields(party)

	for i := len(words) - 1; i >= 0; i-- {
		w := cleanWord(words[i])
		if isDigits(w) || len([]rune(w)) <= 1 || partyNoiseWords[w] {
			continue
		}
		return w
	}

	for _, raw := range words {
		w := cleanWord(raw)
		if len([]rune(w)) > 1 && !isDigits(w) {
			return w
		}
	}
	return ""
}

// MisspellingPrefix shortens a name token so common misspellings still match
// (Gonzalez/Gonzales). The last two characters are dropped, or one when that
// would leave fewer than four. Tokens shorter than four are rejected.
func MisspellingPrefix(name string) (string, bool) {
	r := []rune(name)
	switch {
	case len(r) >= 6:
		return string(r[:len(r)-2]), true
	case len(r) == 5:
		return string(r[:4]), true
	case len(r) == 4:
		return name, true
	default:
		return "", false
	}
}

func cleanWord(w string) string {
	return strings.ToLower(strings.TrimRight(w, ".,;:"))
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
