package model

// BriefKind is the procedural role of a filing
type BriefKind string

const (
	BriefOpening  BriefKind = "opening"
	BriefResponse BriefKind = "response"
	BriefReply    BriefKind = "reply"
	BriefOther    BriefKind = "other"
)

// BriefClassification describes a filing for the extraction service
type BriefClassification struct {
	Kind  BriefKind `json:"kind"`
	Party string    `json:"party,omitempty"` // e.g. "appellant", "state"
}

// Brief is one filing whose text has already been extracted
type Brief struct {
	ID             string              `json:"id"`
	Path           string              `json:"path,omitempty"`
	Text           string              `json:"-"`
	Classification BriefClassification `json:"classification"`
}

// ExtractRequest is the input to the extraction service
type ExtractRequest struct {
	BriefID        string
	Text           string
	Classification BriefClassification
}

// MentionStub is the serialized form of a mention inside a verification request
type MentionStub struct {
	Index           int      `json:"index"` // 1-based position in the request
	Citation        string   `json:"citation"`
	PinCite         string   `json:"pin_cite,omitempty"`
	Purpose         Purpose  `json:"purpose"`
	ArgumentContext string   `json:"argument_context,omitempty"`
	Proposition     string   `json:"proposition"`
	Quotation       string   `json:"quotation,omitempty"`
	Brief           string   `json:"brief"`
	Notes           []string `json:"notes,omitempty"` // Mechanical check results
}

// VerifyRequest is one verification request; there is exactly one per authority
type VerifyRequest struct {
	AuthorityID string
	Text        string
	Mentions    []MentionStub
}

// VerdictRecord is one verdict returned by the verification service.
// Index refers to MentionStub.Index.
type VerdictRecord struct {
	Index   int
	Verdict VerificationVerdict
}
