package group

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/citecheck/internal/model"
)

func resolved(id, brief string, doc *model.AuthorityDocument) Resolution {
	r := Resolution{Mention: model.CitationMention{ID: id, BriefID: brief}}
	if doc == nil {
		r.Match = model.MatchResult{Status: model.MatchMissing}
		return r
	}
	r.Match = model.MatchResult{Status: model.MatchFound, Authority: doc, AuthorityID: doc.ID, Method: "cite_in_filename"}
	return r
}

func TestPartition(t *testing.T) {
	theus := model.NewAuthorityDocument("Theus v. State", "Theus v. State.txt", "THEUS", 0)
	gonzales := model.NewAuthorityDocument("Gonzales v. State", "Gonzales v. State.txt", "GONZALES", 0)

	in := []Resolution{
		resolved("opening#1", "opening", theus),
		resolved("opening#2", "opening", nil),
		resolved("opening#3", "opening", gonzales),
		resolved("reply#1", "reply", theus),
	}

	g := Partition(in)

	require.Len(t, g.Groups, 2)
	assert.Equal(t, "Gonzales v. State", g.Groups[0].ID())
	assert.Equal(t, "Theus v. State", g.Groups[1].ID())

	// Mentions from several briefs share one group, in resolution order
	theusGroup := g.Groups[1]
	require.Len(t, theusGroup.Members, 2)
	assert.Equal(t, "opening#1", theusGroup.Members[0].Mention.ID)
	assert.Equal(t, "reply#1", theusGroup.Members[1].Mention.ID)

	require.Len(t, g.Unresolved, 1)
	assert.Equal(t, "opening#2", g.Unresolved[0].Mention.ID)
	assert.Equal(t, model.SeverityCritical, g.Unresolved[0].Verdict.Severity)
	assert.Equal(t, "No authority file found.", g.Unresolved[0].Verdict.Explanation)

	assert.Equal(t, len(in), g.Size())
}

func TestPartition_Empty(t *testing.T) {
	g := Partition(nil)
	assert.Empty(t, g.Groups)
	assert.Empty(t, g.Unresolved)
	assert.Zero(t, g.Size())
}
