package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/citecheck/internal/citation"
	"github.com/ppiankov/citecheck/internal/corpus"
	"github.com/ppiankov/citecheck/internal/match"
	"github.com/ppiankov/citecheck/internal/model"
)

var toaAuthoritiesDir string

// authoritiesCmd represents the authorities command
var authoritiesCmd = &cobra.Command{
	Use:   "authorities <table-of-authorities.md>",
	Short: "Check that every case in a table of authorities is in the corpus",
	Long: `Authorities reads the "## Cases" section of a Markdown table of
authorities, where each case is a bold line, and resolves every entry against
the authorities directory. It exits non-zero when any case is missing.

Example:
  citecheck authorities TOA.md --authorities ./authorities`,
	Args: cobra.ExactArgs(1),
	RunE: runAuthorities,
}

func init() {
	rootCmd.AddCommand(authoritiesCmd)
	authoritiesCmd.Flags().StringVar(&toaAuthoritiesDir, "authorities", "", "directory of authority texts (default from config: authorities)")
}

func runAuthorities(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("authorities") {
		cfg.Corpus.Dir = toaAuthoritiesDir
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read table of authorities: %w", err)
	}

	c, err := corpus.Load(cfg.Corpus.Dir, cfg.Corpus.HeaderBytes, slog.Default())
	if err != nil {
		return fmt.Errorf("load authorities: %w", err)
	}

	registry := citation.NewRegistry()
	entries := registry.ParseAuthoritiesList(string(data))
	if len(entries) == 0 {
		return fmt.Errorf("no cases found in %s (expected bold entries under \"## Cases\")", args[0])
	}

	counts := checkAuthorities(os.Stdout, match.NewMatcher(c, registry), entries)

	fmt.Fprintf(os.Stderr, "\n  Cases:      %d\n", len(entries))
	fmt.Fprintf(os.Stderr, "  Found:      %d\n", counts[model.MatchFound])
	fmt.Fprintf(os.Stderr, "  Uncertain:  %d\n", counts[model.MatchUncertain])
	fmt.Fprintf(os.Stderr, "  Missing:    %d\n\n", counts[model.MatchMissing])

	if missing := counts[model.MatchMissing]; missing > 0 {
		return fmt.Errorf("%d of %d cases missing from %s", missing, len(entries), cfg.Corpus.Dir)
	}
	return nil
}

// checkAuthorities resolves every entry, prints one line each, and returns
// the count per status
func checkAuthorities(w io.Writer, m *match.Matcher, entries []citation.Entry) map[model.MatchStatus]int {
	counts := make(map[model.MatchStatus]int)
	for _, e := range entries {
		res := m.Match(match.QueryFromEntry(e))
		counts[res.Status]++

		switch res.Status {
		case model.MatchFound:
			_, _ = fmt.Fprintf(w, "✓ %s\n    → %s (%s)\n", e.Raw, res.AuthorityID, res.Method)
		case model.MatchUncertain:
			_, _ = fmt.Fprintf(w, "? %s\n    → %s (%s)\n", e.Raw, res.AuthorityID, res.Method)
		default:
			_, _ = fmt.Fprintf(w, "✗ %s\n    → not found\n", e.Raw)
		}
	}
	return counts
}
