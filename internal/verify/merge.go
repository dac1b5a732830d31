package verify

import (
	"fmt"
	"log/slog"

	"github.com/ppiankov/citecheck/internal/dispatch"
	"github.com/ppiankov/citecheck/internal/group"
	"github.com/ppiankov/citecheck/internal/model"
)

// Result is the merge output for one authority
type Result struct {
	Assessments []model.Assessment // Member order
	Unassigned  int                // Members graded Error because no verdict came back
	Ignored     int                // Verdict records with out-of-range or repeated indices
}

// Merge attaches verdicts to the group's members by 1-based index. Records
// outside the submitted range and repeats of an assigned index are ignored.
// A member left without a verdict is graded Error.
func Merge(g group.AuthorityGroup, records []model.VerdictRecord) Result {
	verdicts := make([]*model.VerificationVerdict, len(g.Members))

	var res Result
	for i := range records {
		idx := records[i].Index - 1
		if idx < 0 || idx >= len(verdicts) || verdicts[idx] != nil {
			res.Ignored++
			continue
		}
		verdicts[idx] = &records[i].Verdict
	}

	res.Assessments = make([]model.Assessment, len(g.Members))
	for i, m := range g.Members {
		var v model.VerificationVerdict
		if verdicts[i] != nil {
			v = normalize(m.Mention, *verdicts[i])
		} else {
			v = model.ErrorVerdict(fmt.Sprintf("No verification result returned for %s.", g.ID()))
			res.Unassigned++
		}
		res.Assessments[i] = assessment(m, v)
	}
	return res
}

// Exhausted grades every member Error after the authority failed all attempts.
func Exhausted(g group.AuthorityGroup, cause error) Result {
	explanation := fmt.Sprintf("Verification failed for %s after all retries.", g.ID())
	if cause != nil {
		explanation = fmt.Sprintf("Verification failed for %s after all retries: %v", g.ID(), cause)
	}

	res := Result{Assessments: make([]model.Assessment, len(g.Members))}
	for i, m := range g.Members {
		res.Assessments[i] = assessment(m, model.ErrorVerdict(explanation))
	}
	return res
}

// Stats summarizes MergeAll
type Stats struct {
	Retried    int
	Failed     int
	Unassigned int
	Ignored    int
}

// MergeAll merges every group against its dispatch outcome and appends the
// unresolved assessments. Every member of every group appears exactly once.
func MergeAll(grouping group.Grouping, outcomes map[string]dispatch.Outcome, logger *slog.Logger) ([]model.Assessment, Stats) {
	if logger == nil {
		logger = slog.Default()
	}

	var (
		out   []model.Assessment
		stats Stats
	)
	for _, g := range grouping.Groups {
		o, ok := outcomes[g.ID()]
		if o.Retried {
			stats.Retried++
		}

		var res Result
		if !ok || !o.Usable() {
			stats.Failed++
			logger.Warn("Authority verification exhausted", "authority", g.ID(), "mentions", len(g.Members), "error", o.Err)
			res = Exhausted(g, o.Err)
		} else {
			res = Merge(g, o.Records)
		}

		if res.Unassigned > 0 || res.Ignored > 0 {
			logger.Warn("Verdicts did not line up with mentions",
				"authority", g.ID(), "unassigned", res.Unassigned, "ignored", res.Ignored)
		}
		stats.Unassigned += res.Unassigned
		stats.Ignored += res.Ignored
		out = append(out, res.Assessments...)
	}

	out = append(out, grouping.Unresolved...)
	return out, stats
}

// normalize drops fields that do not apply to the mention's purpose
func normalize(m model.CitationMention, v model.VerificationVerdict) model.VerificationVerdict {
	if m.Purpose != model.PurposeExtending {
		v.AdvocacyGap = nil
	}
	if m.Quotation == "" {
		v.QuotationAccurate = nil
	}
	return v
}

func assessment(r group.Resolution, v model.VerificationVerdict) model.Assessment {
	return model.Assessment{
		Mention: r.Mention,
		Match:   r.Match,
		Verdict: v,
		Checks:  r.Checks,
	}
}
