package llm

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ppiankov/citecheck/internal/cache"
	"github.com/ppiankov/citecheck/internal/dispatch"
	"github.com/ppiankov/citecheck/internal/model"
)

var _ dispatch.Verifier = (*Service)(nil)

// MockProvider implements the Provider interface for testing
type MockProvider struct {
	mu        sync.Mutex
	name      string
	checkErr  error
	responses []string // Returned in order; the last one repeats
	err       error
	requests  []CompletionRequest
}

func (m *MockProvider) Name() string {
	return m.name
}

func (m *MockProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)
	if m.err != nil {
		return nil, m.err
	}
	text := m.responses[len(m.responses)-1]
	if len(m.requests) <= len(m.responses) {
		text = m.responses[len(m.requests)-1]
	}
	return &CompletionResponse{Text: text, Model: "mock"}, nil
}

func (m *MockProvider) Check(ctx context.Context) error {
	return m.checkErr
}

func (m *MockProvider) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

const extractResponse = "```json\n" + `[
  {
    "case_name": "Theus v. State",
    "volume": 845,
    "reporter": "S.W.2d",
    "page": "874",
    "pin_cite": "at 878",
    "court": "Tex. Crim. App.",
    "year": 1992,
    "proposition": "Extraneous offense evidence requires a limiting instruction.",
    "quotation": "",
    "purpose": "support",
    "argument_context": "Issue One",
    "raw_citation": "Theus v. State, 845 S.W.2d 874, 878 (Tex. Crim. App. 1992)"
  },
  {
    "case_name": "Smith v. Jones",
    "reporter": "WL",
    "page": "3127402",
    "year": "2016",
    "proposition": "Reaches further than its facts.",
    "purpose": "extending"
  },
  {"case_name": "", "proposition": "nothing to cite"},
  "not an object"
]
` + "```"

func TestService_Extract(t *testing.T) {
	provider := &MockProvider{name: "mock", responses: []string{extractResponse}}
	svc := NewService(provider, ServiceOptions{ExtractModel: "extract-model"})

	mentions, err := svc.Extract(context.Background(), model.ExtractRequest{
		BriefID:        "reply.txt",
		Text:           "brief text",
		Classification: model.BriefClassification{Kind: model.BriefReply, Party: "appellant"},
	})
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	// Empty and malformed records are skipped
	if len(mentions) != 2 {
		t.Fatalf("Expected 2 mentions, got %d", len(mentions))
	}

	theus := mentions[0]
	if theus.BriefID != "reply.txt" {
		t.Errorf("Unexpected brief ID: %s", theus.BriefID)
	}
	if theus.Volume != "845" || theus.Year != "1992" {
		t.Errorf("Numeric fields not rendered as text: volume=%q year=%q", theus.Volume, theus.Year)
	}
	if theus.ReporterCite() != "845 S.W.2d 874" {
		t.Errorf("Unexpected reporter cite: %s", theus.ReporterCite())
	}
	if theus.Purpose != model.PurposeSupporting {
		t.Errorf("Expected supporting purpose, got %s", theus.Purpose)
	}
	if theus.ID != "" {
		t.Errorf("Expected ID left for the caller, got %s", theus.ID)
	}

	if !mentions[1].IsWestlaw() {
		t.Error("Expected second mention to be a Westlaw cite")
	}
	if mentions[1].Purpose != model.PurposeExtending {
		t.Errorf("Expected extending purpose, got %s", mentions[1].Purpose)
	}

	if provider.calls() != 1 {
		t.Fatalf("Expected 1 call, got %d", provider.calls())
	}
	req := provider.requests[0]
	if req.Model != "extract-model" {
		t.Errorf("Unexpected model: %s", req.Model)
	}
	if !strings.Contains(req.Prompt, "reply brief filed by the appellant") {
		t.Error("Prompt does not describe the brief")
	}
	if !strings.Contains(req.Prompt, "brief text") {
		t.Error("Prompt does not carry the brief text")
	}
}

func TestService_Extract_NoArray(t *testing.T) {
	provider := &MockProvider{name: "mock", responses: []string{"I found no citations in this brief."}}
	svc := NewService(provider, ServiceOptions{})

	mentions, err := svc.Extract(context.Background(), model.ExtractRequest{BriefID: "opening.txt"})
	if !errors.Is(err, ErrNoArray) {
		t.Fatalf("Expected ErrNoArray, got %v", err)
	}
	if len(mentions) != 0 {
		t.Errorf("Expected no mentions, got %d", len(mentions))
	}
	if !strings.Contains(err.Error(), "opening.txt") {
		t.Errorf("Expected brief ID in error, got %v", err)
	}
}

func TestService_Extract_ProviderError(t *testing.T) {
	boom := errors.New("connection refused")
	svc := NewService(&MockProvider{name: "mock", err: boom}, ServiceOptions{})

	if _, err := svc.Extract(context.Background(), model.ExtractRequest{BriefID: "b"}); !errors.Is(err, boom) {
		t.Errorf("Expected provider error to be wrapped, got %v", err)
	}
}

func TestService_Verify(t *testing.T) {
	provider := &MockProvider{name: "mock", responses: []string{`Here you go:
[
  {"index": 1, "severity": "Verified", "explanation": "Holding matches.", "quotation_accurate": null, "relevance": "analogous"},
  {"index": 2, "severity": "advocacy", "explanation": "Plausible extension.", "advocacy_gap": "Holding was limited to juries."},
  {"index": 3, "severity": "Wrong", "explanation": "Not sure."},
  {"index": "four"}
]`}}
	svc := NewService(provider, ServiceOptions{VerifyModel: "verify-model"})

	records, err := svc.Verify(context.Background(), model.VerifyRequest{
		AuthorityID: "Theus v. State, 845 S.W.2d 874.txt",
		Text:        "opinion text",
		Mentions: []model.MentionStub{
			{Index: 1, Citation: "Theus", Purpose: model.PurposeSupporting, Proposition: "p1", Brief: "reply.txt"},
			{Index: 2, Citation: "Theus", Purpose: model.PurposeExtending, Proposition: "p2", Brief: "reply.txt"},
			{Index: 3, Citation: "Theus", Purpose: model.PurposeSupporting, Proposition: "p3", Brief: "opening.txt"},
		},
	})
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("Expected 3 records, got %d", len(records))
	}

	first := records[0]
	if first.Index != 1 || first.Verdict.Severity != model.SeverityVerified {
		t.Errorf("Unexpected first record: %+v", first)
	}
	if first.Verdict.QuotationAccurate != nil {
		t.Error("Expected null quotation_accurate to stay nil")
	}
	if first.Verdict.Relevance == nil || *first.Verdict.Relevance != model.RelevanceAnalogous {
		t.Errorf("Expected analogous relevance, got %v", first.Verdict.Relevance)
	}

	if records[1].Verdict.Severity != model.SeverityAdvocacy {
		t.Errorf("Expected case-insensitive severity, got %s", records[1].Verdict.Severity)
	}
	if gap := records[1].Verdict.AdvocacyGap; gap == nil || *gap != "Holding was limited to juries." {
		t.Errorf("Unexpected advocacy gap: %v", gap)
	}

	if records[2].Verdict.Severity != model.SeverityError {
		t.Errorf("Expected Error for an unknown severity, got %s", records[2].Verdict.Severity)
	}
	if !strings.Contains(records[2].Verdict.Explanation, `"Wrong"`) {
		t.Errorf("Expected raw label in explanation, got %s", records[2].Verdict.Explanation)
	}

	req := provider.requests[0]
	if req.Model != "verify-model" {
		t.Errorf("Unexpected model: %s", req.Model)
	}
	for _, want := range []string{"opinion text", `"index": 2`, "Critique-Questionable"} {
		if !strings.Contains(req.Prompt, want) {
			t.Errorf("Prompt missing %q", want)
		}
	}
}

func TestService_Cache(t *testing.T) {
	provider := &MockProvider{name: "mock", responses: []string{"garbled", `[{"index":1,"severity":"Minor"}]`}}
	c := cache.NewMemoryCache(time.Hour, time.Hour)
	svc := NewService(provider, ServiceOptions{Cache: c})
	req := model.VerifyRequest{AuthorityID: "a.txt", Text: "t", Mentions: []model.MentionStub{{Index: 1}}}

	if _, err := svc.Verify(context.Background(), req); !errors.Is(err, ErrNoArray) {
		t.Fatalf("Expected ErrNoArray, got %v", err)
	}
	if c.Len() != 0 {
		t.Errorf("Unparseable response was cached")
	}

	for i := 0; i < 3; i++ {
		records, err := svc.Verify(context.Background(), req)
		if err != nil {
			t.Fatalf("Verify failed: %v", err)
		}
		if len(records) != 1 {
			t.Fatalf("Expected 1 record, got %d", len(records))
		}
	}
	if provider.calls() != 2 {
		t.Errorf("Expected later calls served from cache, got %d provider calls", provider.calls())
	}

	// A different request misses
	req.Text = "other"
	if _, err := svc.Verify(context.Background(), req); err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if provider.calls() != 3 {
		t.Errorf("Expected a cache miss, got %d provider calls", provider.calls())
	}
}

func TestService_ProviderName(t *testing.T) {
	svc := NewService(&MockProvider{name: "ollama"}, ServiceOptions{})
	if svc.ProviderName() != "ollama" {
		t.Errorf("Unexpected provider name: %s", svc.ProviderName())
	}
}

func TestBuildExtractPrompt_Unclassified(t *testing.T) {
	prompt := BuildExtractPrompt(model.ExtractRequest{BriefID: "misc.txt", Text: "body"})
	if !strings.HasPrefix(prompt, "Read this other brief") {
		t.Errorf("Unexpected prompt start: %.40s", prompt)
	}
	if !strings.Contains(prompt, "Output ONLY a JSON array") {
		t.Error("Prompt missing output instruction")
	}
}

func TestScalar(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{float64(845), "845"},
		{" S.W.2d ", "S.W.2d"},
		{true, "true"},
	}
	for _, tt := range tests {
		if got := scalar(tt.in); got != tt.want {
			t.Errorf("scalar(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
