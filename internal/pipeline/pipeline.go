package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/ppiankov/citecheck/internal/citation"
	"github.com/ppiankov/citecheck/internal/corpus"
	"github.com/ppiankov/citecheck/internal/dispatch"
	"github.com/ppiankov/citecheck/internal/group"
	"github.com/ppiankov/citecheck/internal/match"
	"github.com/ppiankov/citecheck/internal/model"
	"github.com/ppiankov/citecheck/internal/score"
	"github.com/ppiankov/citecheck/internal/validate"
	"github.com/ppiankov/citecheck/internal/verify"
	"github.com/ppiankov/citecheck/internal/worker"
)

// Extractor is the external citation extraction service
type Extractor interface {
	Extract(ctx context.Context, req model.ExtractRequest) ([]model.CitationMention, error)
}

// Options configures a Pipeline
type Options struct {
	Workers        int           // Both phases
	ExtractTimeout time.Duration // Per brief; zero means none
	Dispatch       dispatch.Config
	Registry       *citation.Registry // nil uses the default reporter table
	Logger         *slog.Logger
}

// OptionsFromConfig maps the run configuration onto pipeline options
func OptionsFromConfig(cfg *model.Config, logger *slog.Logger) Options {
	return Options{
		Workers:        cfg.Concurrency.Workers,
		ExtractTimeout: cfg.Extraction.Timeout,
		Dispatch: dispatch.Config{
			Workers:    cfg.Concurrency.Workers,
			Timeout:    cfg.Verification.Timeout,
			MaxRetries: cfg.Verification.MaxRetries,
			Backoff:    cfg.Verification.Backoff,
			SecondPass: cfg.Verification.SecondPass,
		},
		Logger: logger,
	}
}

// Pipeline runs a cite-check: extraction per brief, resolution against the
// corpus, verification per authority, then categorization
type Pipeline struct {
	corpus     *corpus.Corpus
	extractor  Extractor
	matcher    *match.Matcher
	checker    *validate.Checker
	dispatcher *dispatch.Dispatcher
	opts       Options
	logger     *slog.Logger
	now        func() time.Time
}

// New creates a pipeline over a loaded corpus
func New(c *corpus.Corpus, extractor Extractor, verifier dispatch.Verifier, opts Options) *Pipeline {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	registry := opts.Registry
	if registry == nil {
		registry = citation.NewRegistry()
	}

	return &Pipeline{
		corpus:     c,
		extractor:  extractor,
		matcher:    match.NewMatcher(c, registry),
		checker:    validate.NewChecker(registry, nil),
		dispatcher: dispatch.New(verifier, opts.Dispatch, logger),
		opts:       opts,
		logger:     logger,
		now:        time.Now,
	}
}

// Matcher exposes the resolver, for checking a table of authorities
func (p *Pipeline) Matcher() *match.Matcher {
	return p.matcher
}

// Run checks every brief and returns the report, with briefs in the given
// order. Only missing prerequisites and cancellation are errors; service
// failures end up as Error verdicts inside the report.
func (p *Pipeline) Run(ctx context.Context, briefs []model.Brief) (*model.RunReport, error) {
	if len(briefs) == 0 {
		return nil, ErrNoBriefs
	}
	if p.corpus == nil || p.corpus.Len() == 0 {
		return nil, corpus.ErrNoCorpus
	}

	var stats model.RunStats
	stats.Briefs = len(briefs)

	// Phase 1: extraction, one task per brief
	mentions, failed := p.extract(ctx, briefs)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("extraction: %w", err)
	}
	stats.BriefsFailed = failed
	stats.Mentions = len(mentions)

	// Resolution and grouping are single-threaded
	resolutions := make([]group.Resolution, 0, len(mentions))
	for _, m := range mentions {
		res := p.matcher.Match(match.QueryFromMention(m))
		switch res.Status {
		case model.MatchFound:
			stats.Found++
		case model.MatchUncertain:
			stats.Uncertain++
		default:
			stats.Missing++
		}
		p.logger.Debug("Resolved citation", "mention", m.ID, "status", res.Status, "authority", res.AuthorityID, "method", res.Method)
		resolutions = append(resolutions, group.Resolution{Mention: m, Match: res})
	}
	p.checker.Annotate(resolutions)

	grouping := group.Partition(resolutions)
	stats.Authorities = len(grouping.Groups)
	p.logger.Info("Citations resolved",
		"mentions", stats.Mentions,
		"found", stats.Found,
		"uncertain", stats.Uncertain,
		"missing", stats.Missing,
		"authorities", stats.Authorities,
	)

	// Phase 2: verification, one request per authority
	outcomes := p.dispatcher.Dispatch(ctx, grouping.Groups)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("verification: %w", err)
	}

	assessments, mergeStats := verify.MergeAll(grouping, outcomes, p.logger)
	stats.RetriedAuthorities = mergeStats.Retried
	stats.FailedAuthorities = mergeStats.Failed
	stats.UnassignedMentions = mergeStats.Unassigned

	// Back to extraction order so each brief lists citations as they appear
	position := make(map[string]int, len(mentions))
	for i, m := range mentions {
		position[m.ID] = i
	}
	sort.SliceStable(assessments, func(i, j int) bool {
		return position[assessments[i].Mention.ID] < position[assessments[j].Mention.ID]
	})

	return &model.RunReport{
		RunID:       uuid.NewString(),
		GeneratedAt: p.now().UTC(),
		CorpusSize:  p.corpus.Len(),
		Stats:       stats,
		Briefs:      score.CategorizeRun(briefs, assessments),
	}, nil
}

// extract runs the extraction service over every brief and returns all
// mentions in brief order with IDs assigned. A brief whose extraction fails
// contributes no mentions and is counted as failed.
func (p *Pipeline) extract(ctx context.Context, briefs []model.Brief) ([]model.CitationMention, int) {
	pool := worker.NewPool[string, []model.CitationMention](ctx, p.opts.Workers)
	for _, b := range briefs {
		req := model.ExtractRequest{
			BriefID:        b.ID,
			Text:           b.Text,
			Classification: b.Classification,
		}
		err := pool.Submit(b.ID, func(ctx context.Context) ([]model.CitationMention, error) {
			if p.opts.ExtractTimeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, p.opts.ExtractTimeout)
				defer cancel()
			}
			return p.extractor.Extract(ctx, req)
		})
		if err != nil {
			// Duplicate brief IDs are rejected by the loaders
			p.logger.Error("Brief not submitted", "brief", b.ID, "error", err)
		}
	}
	results := pool.Wait()

	var (
		all    []model.CitationMention
		failed int
	)
	for _, b := range briefs {
		res, ok := results[b.ID]
		if !ok || res.Err != nil {
			failed++
			p.logger.Error("Citation extraction failed", "brief", b.ID, "error", res.Err)
			continue
		}
		p.logger.Info("Citations extracted", "brief", b.ID, "count", len(res.Value), "duration", res.Duration.Round(time.Millisecond))

		for i, m := range res.Value {
			m.ID = fmt.Sprintf("%s#%d", b.ID, i+1)
			m.BriefID = b.ID
			all = append(all, m)
		}
	}
	return all, failed
}
