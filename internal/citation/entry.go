package citation

import (
	"bufio"
	"regexp"
	"strings"
)

// Entry is a citation parsed from free text, e.g. one line of a table of
// authorities: "Haywood v. State, No. 01-13-00994-CR, 2014 WL 7131176 (Tex.
// App.—Houston [1st Dist.] Dec. 11, 2014, pet. ref'd)".
type Entry struct {
	Raw      string
	CaseName string
	Volume   string
	Reporter string
	Page     string
	WLYear   string
	WLNumber string
	Docket   string
}

var (
	caseNameBeforeCite = regexp.MustCompile(`^(.+?),\s*(?:No\.|[0-9])`)
	caseNameBeforeAny  = regexp.MustCompile(`^(.+?),\s`)
	boldEntryLine      = regexp.MustCompile(`^\*\*(.+?)\*\*$`)
)

// ParseEntry extracts case name, reporter, Westlaw and docket components from
// a citation string.
func (r *Registry) ParseEntry(raw string) Entry {
	raw = CollapseSpace(raw)
	e := Entry{Raw: raw}

	if m := caseNameBeforeCite.FindStringSubmatch(raw); m != nil {
		e.CaseName = strings.TrimSpace(m[1])
	} else if m := caseNameBeforeAny.FindStringSubmatch(raw); m != nil {
		e.CaseName = strings.TrimSpace(m[1])
	} else {
		e.CaseName = raw
	}

	if c, ok := r.ParseCite(raw); ok {
		e.Volume, e.Reporter, e.Page = c.Volume, c.Reporter, c.Page
	}
	if year, number, ok := r.ParseWestlaw(raw); ok {
		e.WLYear, e.WLNumber = year, number
	}
	if docket, ok := r.ParseDocket(raw); ok {
		e.Docket = docket
	}
	return e
}

// ParseAuthoritiesList reads the "## Cases" section of a Markdown table of
// authorities, where each case is a bold line ("**Wood v. Clemons, 89 F.3d
// 922 (1st Cir. 1996)**").
func (r *Registry) ParseAuthoritiesList(markdown string) []Entry {
	var entries []Entry
	inCases := false

	scanner := bufio.NewScanner(strings.NewReader(markdown))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "## Cases" {
			inCases = true
			continue
		}
		if strings.HasPrefix(line, "## ") && inCases {
			break
		}
		if !inCases {
			continue
		}
		if m := boldEntryLine.FindStringSubmatch(line); m != nil {
			entries = append(entries, r.ParseEntry(m[1]))
		}
	}
	return entries
}
