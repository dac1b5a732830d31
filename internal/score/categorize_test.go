package score

import (
	"fmt"
	"testing"

	"github.com/ppiankov/citecheck/internal/model"
)

func assessment(brief string, n int, purpose model.Purpose, sev model.Severity, rel *model.Relevance) model.Assessment {
	return model.Assessment{
		Mention: model.CitationMention{ID: fmt.Sprintf("%s#%d", brief, n), BriefID: brief, Purpose: purpose},
		Verdict: model.VerificationVerdict{Severity: sev, Relevance: rel},
	}
}

func relevance(r model.Relevance) *model.Relevance { return &r }

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		purpose model.Purpose
		sev     model.Severity
		rel     *model.Relevance
		want    model.Bucket
	}{
		{"minor", model.PurposeSupporting, model.SeverityMinor, nil, model.BucketAccuracy},
		{"moderate", model.PurposeSupporting, model.SeverityModerate, nil, model.BucketAccuracy},
		{"significant", model.PurposeExtending, model.SeveritySignificant, nil, model.BucketAccuracy},
		{"critical", model.PurposeSupporting, model.SeverityCritical, nil, model.BucketAccuracy},
		{"error", model.PurposeBackground, model.SeverityError, nil, model.BucketAccuracy},
		{"analogous support", model.PurposeSupporting, model.SeverityVerified, relevance(model.RelevanceAnalogous), model.BucketRelevanceGap},
		{"off point support", model.PurposeSupporting, model.SeverityVerified, relevance(model.RelevanceOffPoint), model.BucketRelevanceGap},
		{"direct support", model.PurposeSupporting, model.SeverityVerified, relevance(model.RelevanceDirect), model.BucketVerified},
		{"off point background", model.PurposeBackground, model.SeverityVerified, relevance(model.RelevanceOffPoint), model.BucketVerified},
		{"advocacy", model.PurposeExtending, model.SeverityAdvocacy, nil, model.BucketAdvocacy},
		{"valid critique", model.PurposeCritiquing, model.SeverityCritiqueValid, nil, model.BucketCritique},
		{"questionable critique", model.PurposeCritiquing, model.SeverityCritiqueQuestionable, nil, model.BucketCritique},
		{"verified no relevance", model.PurposeSupporting, model.SeverityVerified, nil, model.BucketVerified},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(assessment("b", 1, tt.purpose, tt.sev, tt.rel))
			if got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestCategorize_Partition(t *testing.T) {
	brief := model.Brief{ID: "reply"}
	in := []model.Assessment{
		assessment("reply", 1, model.PurposeSupporting, model.SeverityVerified, relevance(model.RelevanceDirect)),
		assessment("reply", 2, model.PurposeSupporting, model.SeverityCritical, nil),
		assessment("reply", 3, model.PurposeExtending, model.SeverityAdvocacy, nil),
		assessment("reply", 4, model.PurposeCritiquing, model.SeverityCritiqueValid, nil),
		assessment("reply", 5, model.PurposeSupporting, model.SeverityVerified, relevance(model.RelevanceAnalogous)),
		assessment("reply", 6, model.PurposeSupporting, model.SeverityError, nil),
	}

	r := Categorize(brief, in)

	if r.Counts.Total != len(in) {
		t.Fatalf("expected total %d, got %d", len(in), r.Counts.Total)
	}

	// Every mention lands in exactly one bucket
	seen := make(map[string]int)
	for _, bucket := range [][]model.Assessment{r.Accuracy, r.RelevanceGaps, r.Advocacy, r.Critiques, r.Verified} {
		for _, a := range bucket {
			seen[a.Mention.ID]++
		}
	}
	if len(seen) != len(in) {
		t.Errorf("expected %d distinct mentions across buckets, got %d", len(in), len(seen))
	}
	for id, n := range seen {
		if n != 1 {
			t.Errorf("mention %s appears in %d buckets", id, n)
		}
	}

	if r.Counts.Accuracy != 2 || r.Counts.RelevanceGaps != 1 || r.Counts.Advocacy != 1 || r.Counts.Critiques != 1 || r.Counts.Verified != 1 {
		t.Errorf("unexpected counts: %+v", r.Counts)
	}
	if r.Counts.Flagged() != 5 {
		t.Errorf("expected 5 flagged, got %d", r.Counts.Flagged())
	}

	// Input order is kept inside a bucket
	if r.Accuracy[0].Mention.ID != "reply#2" || r.Accuracy[1].Mention.ID != "reply#6" {
		t.Errorf("accuracy bucket out of order: %s, %s", r.Accuracy[0].Mention.ID, r.Accuracy[1].Mention.ID)
	}
	if r.Counts.BySeverity[model.SeverityVerified] != 2 {
		t.Errorf("expected 2 Verified severities, got %d", r.Counts.BySeverity[model.SeverityVerified])
	}
}

func TestCategorizeRun_BriefOrder(t *testing.T) {
	briefs := []model.Brief{{ID: "opening"}, {ID: "response"}, {ID: "reply"}}
	in := []model.Assessment{
		assessment("reply", 1, model.PurposeSupporting, model.SeverityMinor, nil),
		assessment("opening", 1, model.PurposeSupporting, model.SeverityVerified, nil),
	}

	reports := CategorizeRun(briefs, in)

	if len(reports) != 3 {
		t.Fatalf("expected 3 reports, got %d", len(reports))
	}
	for i, b := range briefs {
		if reports[i].Brief.ID != b.ID {
			t.Errorf("report %d: expected brief %s, got %s", i, b.ID, reports[i].Brief.ID)
		}
	}
	if reports[1].Counts.Total != 0 {
		t.Errorf("expected empty response report, got %d mentions", reports[1].Counts.Total)
	}
	if reports[2].Counts.Accuracy != 1 {
		t.Errorf("expected 1 accuracy issue in reply, got %d", reports[2].Counts.Accuracy)
	}
}
