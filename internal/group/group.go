package group

import (
	"sort"

	"github.com/ppiankov/citecheck/internal/model"
)

// NoAuthorityExplanation is the verdict text for mentions with no matching document
const NoAuthorityExplanation = "No authority file found."

// Resolution is a mention paired with its match and local check findings
type Resolution struct {
	Mention model.CitationMention
	Match   model.MatchResult
	Checks  []model.CheckFinding
}

// AuthorityGroup is every resolved mention citing one authority, across all
// briefs, in the order the mentions were resolved.
type AuthorityGroup struct {
	Authority *model.AuthorityDocument
	Members   []Resolution
}

// ID returns the authority identifier
func (g AuthorityGroup) ID() string {
	return g.Authority.ID
}

// Grouping is the output of Partition
type Grouping struct {
	Groups     []AuthorityGroup   // Sorted by authority identifier
	Unresolved []model.Assessment // Missing mentions, already graded Critical
}

// Size returns the number of mentions across groups and the unresolved bucket.
func (g Grouping) Size() int {
	n := len(g.Unresolved)
	for _, grp := range g.Groups {
		n += len(grp.Members)
	}
	return n
}

// Partition groups resolutions by authority. Missing mentions bypass
// verification: they are graded Critical here since there is nothing to
// verify against.
func Partition(resolutions []Resolution) Grouping {
	var out Grouping
	index := make(map[string]int)

	for _, r := range resolutions {
		if r.Match.Status == model.MatchMissing || r.Match.Authority == nil {
			out.Unresolved = append(out.Unresolved, model.Assessment{
				Mention: r.Mention,
				Match:   r.Match,
				Verdict: model.VerificationVerdict{
					Severity:    model.SeverityCritical,
					Explanation: NoAuthorityExplanation,
				},
				Checks: r.Checks,
			})
			continue
		}

		id := r.Match.Authority.ID
		i, ok := index[id]
		if !ok {
			i = len(out.Groups)
			index[id] = i
			out.Groups = append(out.Groups, AuthorityGroup{Authority: r.Match.Authority})
		}
		out.Groups[i].Members = append(out.Groups[i].Members, r)
	}

	sort.SliceStable(out.Groups, func(i, j int) bool {
		return out.Groups[i].Authority.ID < out.Groups[j].Authority.ID
	})
	return out
}
