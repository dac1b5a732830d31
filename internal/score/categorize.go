package score

import (
	"github.com/ppiankov/citecheck/internal/model"
)

// Classify routes one assessment to its report bucket. Only a misstatement
// of what the authority holds is an accuracy issue; a good-faith extension
// is advocacy and a critique is graded as a critique.
func Classify(a model.Assessment) model.Bucket {
	sev := a.Verdict.Severity

	switch {
	case sev.IsAccuracyIssue():
		return model.BucketAccuracy
	case sev == model.SeverityAdvocacy:
		return model.BucketAdvocacy
	case sev.IsCritique():
		return model.BucketCritique
	case sev == model.SeverityVerified &&
		a.Mention.Purpose == model.PurposeSupporting &&
		a.Verdict.Relevance != nil && a.Verdict.Relevance.IsGap():
		return model.BucketRelevanceGap
	default:
		return model.BucketVerified
	}
}

// Categorize builds a brief's report. Assessments keep their input order
// within each bucket.
func Categorize(brief model.Brief, assessments []model.Assessment) model.BriefReport {
	r := model.BriefReport{
		Brief: brief,
		Counts: model.Counts{
			BySeverity: make(map[model.Severity]int),
		},
	}

	for _, a := range assessments {
		r.Counts.Total++
		r.Counts.BySeverity[a.Verdict.Severity]++

		switch Classify(a) {
		case model.BucketAccuracy:
			r.Accuracy = append(r.Accuracy, a)
			r.Counts.Accuracy++
		case model.BucketRelevanceGap:
			r.RelevanceGaps = append(r.RelevanceGaps, a)
			r.Counts.RelevanceGaps++
		case model.BucketAdvocacy:
			r.Advocacy = append(r.Advocacy, a)
			r.Counts.Advocacy++
		case model.BucketCritique:
			r.Critiques = append(r.Critiques, a)
			r.Counts.Critiques++
		default:
			r.Verified = append(r.Verified, a)
			r.Counts.Verified++
		}
	}

	return r
}

// CategorizeRun builds one report per brief in the given brief order.
// Assessments are assigned by BriefID; those naming an unknown brief are
// dropped, which cannot happen for assessments produced by the pipeline.
func CategorizeRun(briefs []model.Brief, assessments []model.Assessment) []model.BriefReport {
	byBrief := make(map[string][]model.Assessment, len(briefs))
	for _, a := range assessments {
		byBrief[a.Mention.BriefID] = append(byBrief[a.Mention.BriefID], a)
	}

	reports := make([]model.BriefReport, 0, len(briefs))
	for _, b := range briefs {
		reports = append(reports, Categorize(b, byBrief[b.ID]))
	}
	return reports
}
