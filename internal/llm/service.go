package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ppiankov/citecheck/internal/cache"
	"github.com/ppiankov/citecheck/internal/model"
	"github.com/ppiankov/citecheck/internal/worker"
)

// ServiceOptions configures a Service
type ServiceOptions struct {
	ExtractModel string // Empty uses the provider's configured model
	VerifyModel  string
	MaxTokens    int
	Cache        cache.Cache // nil disables caching
	CacheTTL     time.Duration
	Limiter      *worker.Limiter // nil disables rate limiting
	Logger       *slog.Logger
}

// Service performs citation extraction and per-authority verification
// through a Provider. It is safe for concurrent use.
type Service struct {
	provider Provider
	opts     ServiceOptions
	logger   *slog.Logger
}

// NewService creates a new extraction and verification service
func NewService(provider Provider, opts ServiceOptions) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		provider: provider,
		opts:     opts,
		logger:   logger,
	}
}

// ProviderName returns the name of the backing provider
func (s *Service) ProviderName() string {
	return s.provider.Name()
}

// Extract returns every citation mention the model finds in one brief.
// Mention IDs are left empty for the caller to assign. A response with no
// recoverable array is an error wrapping ErrNoArray.
func (s *Service) Extract(ctx context.Context, req model.ExtractRequest) ([]model.CitationMention, error) {
	items, err := s.completeArray(ctx, "extract", CompletionRequest{
		System: extractSystem,
		Prompt: BuildExtractPrompt(req),
		Model:  s.opts.ExtractModel,
	})
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", req.BriefID, err)
	}

	mentions := make([]model.CitationMention, 0, len(items))
	for i, raw := range items {
		var rec extractRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			s.logger.Debug("skipping malformed citation record", "brief", req.BriefID, "item", i, "error", err)
			continue
		}
		m := rec.toMention(req.BriefID)
		if m.CaseName == "" && m.RawCitation == "" && m.ReporterCite() == "" {
			s.logger.Debug("skipping empty citation record", "brief", req.BriefID, "item", i)
			continue
		}
		mentions = append(mentions, m)
	}

	return mentions, nil
}

// Verify grades every mention stub of one authority in a single call
func (s *Service) Verify(ctx context.Context, req model.VerifyRequest) ([]model.VerdictRecord, error) {
	items, err := s.completeArray(ctx, "verify", CompletionRequest{
		System: verifySystem,
		Prompt: BuildVerifyPrompt(req),
		Model:  s.opts.VerifyModel,
	})
	if err != nil {
		return nil, fmt.Errorf("verify %s: %w", req.AuthorityID, err)
	}

	records := make([]model.VerdictRecord, 0, len(items))
	for i, raw := range items {
		var rec verdictRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			s.logger.Debug("skipping malformed verdict record", "authority", req.AuthorityID, "item", i, "error", err)
			continue
		}
		records = append(records, rec.toVerdict())
	}

	return records, nil
}

// completeArray runs one completion and recovers its JSON array. Only
// responses that parse are cached, so a retry after a garbled answer goes
// back to the provider.
func (s *Service) completeArray(ctx context.Context, kind string, req CompletionRequest) ([]json.RawMessage, error) {
	req.MaxTokens = s.opts.MaxTokens
	key := cache.Key(kind, s.provider.Name(), req.Model, req.System, req.Prompt)

	if s.opts.Cache != nil {
		if data, ok := s.opts.Cache.Get(key); ok {
			if items, err := RecoverArray(string(data)); err == nil {
				s.logger.Debug("cache hit", "kind", kind)
				return items, nil
			}
		}
	}

	if err := s.opts.Limiter.Wait(ctx, s.provider.Name()); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	start := time.Now()
	resp, err := s.provider.Complete(ctx, req)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("completion finished",
		"kind", kind,
		"model", resp.Model,
		"tokens", resp.TokensUsed,
		"duration", time.Since(start).Round(time.Millisecond),
	)

	if resp.Truncated {
		s.logger.Warn("completion hit the token limit", "kind", kind, "model", resp.Model, "max_tokens", req.MaxTokens)
	}

	items, err := RecoverArray(resp.Text)
	if err != nil {
		return nil, fmt.Errorf("%w (response began %q)", err, preview(resp.Text, 80))
	}

	if s.opts.Cache != nil {
		if err := s.opts.Cache.Set(key, []byte(resp.Text), s.opts.CacheTTL); err != nil {
			s.logger.Warn("cache write failed", "kind", kind, "error", err)
		}
	}

	return items, nil
}

func preview(text string, n int) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n]) + "..."
}
