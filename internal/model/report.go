package model

import "time"

// Bucket is the report section an assessment is routed to
type Bucket string

const (
	BucketAccuracy     Bucket = "accuracy"      // Misstatements of the authority, or unchecked mentions
	BucketRelevanceGap Bucket = "relevance_gap" // Accurate but only analogous or off point
	BucketAdvocacy     Bucket = "advocacy"      // Good-faith extension arguments
	BucketCritique     Bucket = "critique"      // Attacks on the authority
	BucketVerified     Bucket = "verified"      // Clean
)

// BriefReport is the categorized result for one brief. It is derived from
// assessments on every run and never stored as authoritative state.
type BriefReport struct {
	Brief Brief `json:"brief"`

	Accuracy      []Assessment `json:"accuracy"`
	RelevanceGaps []Assessment `json:"relevance_gaps"`
	Advocacy      []Assessment `json:"advocacy"`
	Critiques     []Assessment `json:"critiques"`
	Verified      []Assessment `json:"verified"`

	Counts Counts `json:"counts"`
}

// Counts summarizes a brief report
type Counts struct {
	Total         int              `json:"total"`
	Accuracy      int              `json:"accuracy"`
	RelevanceGaps int              `json:"relevance_gaps"`
	Advocacy      int              `json:"advocacy"`
	Critiques     int              `json:"critiques"`
	Verified      int              `json:"verified"`
	BySeverity    map[Severity]int `json:"by_severity,omitempty"`
}

// Flagged returns the number of entries outside the verified bucket.
func (c Counts) Flagged() int {
	return c.Accuracy + c.RelevanceGaps + c.Advocacy + c.Critiques
}

// RunStats describes the resolution and verification phases of a run
type RunStats struct {
	Briefs             int `json:"briefs"`
	BriefsFailed       int `json:"briefs_failed"` // Extraction yielded nothing usable
	Mentions           int `json:"mentions"`
	Found              int `json:"found"`
	Uncertain          int `json:"uncertain"`
	Missing            int `json:"missing"`
	Authorities        int `json:"authorities"`         // Authorities sent for verification
	RetriedAuthorities int `json:"retried_authorities"` // Needed the second pass
	FailedAuthorities  int `json:"failed_authorities"`  // No usable result after both passes
	UnassignedMentions int `json:"unassigned_mentions"` // Graded Error because no verdict came back
}

// RunReport is the complete output of one cite-check run
type RunReport struct {
	RunID       string        `json:"run_id"`
	GeneratedAt time.Time     `json:"generated_at"`
	CorpusSize  int           `json:"corpus_size"`
	Stats       RunStats      `json:"stats"`
	Briefs      []BriefReport `json:"briefs"` // In caller-supplied order
}
