package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/citecheck/internal/cache"
	"github.com/ppiankov/citecheck/internal/corpus"
	"github.com/ppiankov/citecheck/internal/llm"
	"github.com/ppiankov/citecheck/internal/model"
	"github.com/ppiankov/citecheck/internal/pipeline"
	"github.com/ppiankov/citecheck/internal/report"
	"github.com/ppiankov/citecheck/internal/worker"
)

var (
	authoritiesDir string
	briefsDir      string
	briefList      string
	outMD          string
	outJSON        string
	parallel       int
	llmProvider    string
	llmModel       string
	extractModel   string
	verifyModel    string
	runTimeout     time.Duration
	noCache        bool
	noFooter       bool
	force          bool
	skipCheck      bool
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Cite-check a set of briefs against the authority corpus",
	Long: `Run checks every case citation in a set of briefs:
- Extract citations with their propositions and purposes
- Resolve each citation to a file in the authorities directory
- Check citation, year, court, and quotations against the authority text
- Verify every citation of an authority in one request
- Write a categorized Markdown report, one section per brief

Briefs come from a directory (every .txt and .html file, in name order) or
from a list file with one path per line.

Example:
  citecheck run --briefs ./briefs --authorities ./authorities
  citecheck run --brief-list briefs.txt --out CITECHECK.md --json citecheck.json
  citecheck run --briefs ./briefs --llm-provider anthropic --model claude-sonnet-4-5`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	// Input flags
	runCmd.Flags().StringVar(&authoritiesDir, "authorities", "", "directory of authority texts (default from config: authorities)")
	runCmd.Flags().StringVar(&briefsDir, "briefs", "briefs", "directory of brief files")
	runCmd.Flags().StringVar(&briefList, "brief-list", "", "file listing brief paths, one per line (overrides --briefs)")

	// Output flags
	runCmd.Flags().StringVar(&outMD, "out", "", "output Markdown path (default from config: CITECHECK.md)")
	runCmd.Flags().StringVar(&outJSON, "json", "", "also write the report as JSON to this path")
	runCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in the Markdown report")
	runCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing report")

	// Execution flags
	runCmd.Flags().IntVar(&parallel, "parallel", 0, "concurrent workers for extraction and verification (default from config: 4)")
	runCmd.Flags().DurationVar(&runTimeout, "timeout", 0, "overall run timeout (0 for none)")
	runCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the response cache")
	runCmd.Flags().BoolVar(&skipCheck, "skip-check", false, "skip the LLM provider connectivity check")

	// LLM flags
	runCmd.Flags().StringVar(&llmProvider, "llm-provider", "", "LLM provider (openai, anthropic, ollama)")
	runCmd.Flags().StringVar(&llmModel, "model", "", "model for both extraction and verification")
	runCmd.Flags().StringVar(&extractModel, "extract-model", "", "model for extraction (overrides --model)")
	runCmd.Flags().StringVar(&verifyModel, "verify-model", "", "model for verification (overrides --model)")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyRunFlags(cmd, cfg)
	logger := slog.Default()

	if !force && reportExists(cfg.Output.Path) {
		fmt.Fprintf(os.Stderr, "✓ Report already exists: %s (use --force to regenerate)\n", cfg.Output.Path)
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if runTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, runTimeout)
		defer cancel()
	}

	// Inputs first, so a bad path fails before any credentials are needed
	var briefs []model.Brief
	if briefList != "" {
		briefs, err = pipeline.LoadBriefList(briefList, logger)
	} else {
		briefs, err = pipeline.LoadBriefs(briefsDir, logger)
	}
	if err != nil {
		return fmt.Errorf("load briefs: %w", err)
	}

	c, err := corpus.Load(cfg.Corpus.Dir, cfg.Corpus.HeaderBytes, logger)
	if err != nil {
		return fmt.Errorf("load authorities: %w", err)
	}

	if err := llm.ApplyEnv(&cfg.LLM); err != nil {
		return err
	}
	provider, err := llm.NewProvider(llm.ConfigFromModel(cfg.LLM))
	if err != nil {
		return fmt.Errorf("create LLM provider: %w", err)
	}
	if !skipCheck {
		checkCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		err := provider.Check(checkCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("LLM provider unavailable (use --skip-check to bypass): %w", err)
		}
	}

	svc := llm.NewService(provider, llm.ServiceOptions{
		ExtractModel: cfg.Extraction.Model,
		VerifyModel:  cfg.Verification.Model,
		MaxTokens:    cfg.LLM.MaxTokens,
		Cache:        cache.New(cfg.Cache),
		CacheTTL:     cfg.Cache.TTL,
		Limiter:      newLimiter(cfg.RateLimiting),
		Logger:       logger,
	})

	printRunBanner(cfg, len(briefs), c.Len(), provider.Name())

	start := time.Now()
	p := pipeline.New(c, svc, svc, pipeline.OptionsFromConfig(cfg, logger))
	rep, err := p.Run(ctx, briefs)
	if err != nil {
		return fmt.Errorf("run failed: %w", err)
	}

	renderer := report.NewRenderer(cfg.Output.IncludeFooter)
	if err := renderer.RenderMarkdown(rep, cfg.Output.Path); err != nil {
		return fmt.Errorf("render failed: %w", err)
	}
	if cfg.Output.JSONPath != "" {
		if err := renderer.RenderJSON(rep, cfg.Output.JSONPath); err != nil {
			return fmt.Errorf("render failed: %w", err)
		}
	}

	printRunSummary(rep, time.Since(start))
	renderer.RenderSummary(os.Stderr, rep)
	fmt.Fprintf(os.Stderr, "\n✓ Report written to %s\n", cfg.Output.Path)
	if cfg.Output.JSONPath != "" {
		fmt.Fprintf(os.Stderr, "✓ JSON written to %s\n", cfg.Output.JSONPath)
	}

	return nil
}

// applyRunFlags lets explicitly set flags override the configuration
func applyRunFlags(cmd *cobra.Command, cfg *model.Config) {
	flags := cmd.Flags()
	if flags.Changed("authorities") {
		cfg.Corpus.Dir = authoritiesDir
	}
	if flags.Changed("out") {
		cfg.Output.Path = outMD
	}
	if flags.Changed("json") {
		cfg.Output.JSONPath = outJSON
	}
	if noFooter {
		cfg.Output.IncludeFooter = false
	}
	if flags.Changed("parallel") && parallel > 0 {
		cfg.Concurrency.Workers = parallel
	}
	if noCache {
		cfg.Cache.Enabled = false
	}
	if flags.Changed("llm-provider") {
		cfg.LLM.Provider = llmProvider
	}
	if flags.Changed("model") {
		cfg.LLM.Model = llmModel
		cfg.Extraction.Model = llmModel
		cfg.Verification.Model = llmModel
	}
	if flags.Changed("extract-model") {
		cfg.Extraction.Model = extractModel
	}
	if flags.Changed("verify-model") {
		cfg.Verification.Model = verifyModel
	}
	cfg.Output.Verbose = cfg.Output.Verbose || verbose
}

// reportExists reports whether path holds a non-empty file
func reportExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir() && info.Size() > 0
}

func newLimiter(cfg model.RateLimitConfig) *worker.Limiter {
	if cfg.RequestsPerSecond <= 0 {
		return nil
	}
	return worker.NewLimiter(cfg.RequestsPerSecond, cfg.BurstSize)
}

func printRunBanner(cfg *model.Config, briefs, authorities int, provider string) {
	extract := cfg.Extraction.Model
	if extract == "" {
		extract = cfg.LLM.Model
	}
	verify := cfg.Verification.Model
	if verify == "" {
		verify = cfg.LLM.Model
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Citecheck\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Briefs:       %d\n", briefs)
	fmt.Fprintf(os.Stderr, "  Authorities:  %d (%s)\n", authorities, cfg.Corpus.Dir)
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", cfg.Concurrency.Workers)
	fmt.Fprintf(os.Stderr, "  LLM:          %s (extract %s, verify %s)\n", provider, extract, verify)
	fmt.Fprintf(os.Stderr, "  Cache:        %v\n", cfg.Cache.Enabled)
	fmt.Fprintf(os.Stderr, "  Output:       %s\n", cfg.Output.Path)
	fmt.Fprintf(os.Stderr, "\n")
}

func printRunSummary(rep *model.RunReport, elapsed time.Duration) {
	s := rep.Stats

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Run Complete (%s)\n", elapsed.Round(time.Second))
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Briefs:       %d (%d failed extraction)\n", s.Briefs, s.BriefsFailed)
	fmt.Fprintf(os.Stderr, "  Citations:    %d\n", s.Mentions)
	fmt.Fprintf(os.Stderr, "  Resolved:     %d found, %d uncertain, %d missing\n", s.Found, s.Uncertain, s.Missing)
	fmt.Fprintf(os.Stderr, "  Authorities:  %d sent, %d retried, %d failed\n", s.Authorities, s.RetriedAuthorities, s.FailedAuthorities)
	if s.UnassignedMentions > 0 {
		fmt.Fprintf(os.Stderr, "  Unassigned:   %d\n", s.UnassignedMentions)
	}
	fmt.Fprintf(os.Stderr, "\n")
}
