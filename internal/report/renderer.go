package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ppiankov/citecheck/internal/model"
)

const tableIssueWidth = 60

// Renderer writes run reports. Output depends only on the report, so two
// renders of the same report are byte-identical.
type Renderer struct {
	includeFooter bool
}

// NewRenderer creates a new renderer
func NewRenderer(includeFooter bool) *Renderer {
	return &Renderer{includeFooter: includeFooter}
}

// Markdown renders the full report
func (r *Renderer) Markdown(rep *model.RunReport) string {
	var b strings.Builder

	b.WriteString("# Citation Check Report\n\n")
	fmt.Fprintf(&b, "- **Run**: %s\n", rep.RunID)
	if !rep.GeneratedAt.IsZero() {
		fmt.Fprintf(&b, "- **Generated**: %s\n", rep.GeneratedAt.UTC().Format(time.RFC3339))
	}
	fmt.Fprintf(&b, "- **Authorities on file**: %d\n", rep.CorpusSize)
	s := rep.Stats
	fmt.Fprintf(&b, "- **Citations**: %d (%d found, %d uncertain, %d missing)\n", s.Mentions, s.Found, s.Uncertain, s.Missing)
	if s.FailedAuthorities > 0 {
		fmt.Fprintf(&b, "- **Unverified authorities**: %d\n", s.FailedAuthorities)
	}
	b.WriteString("\n")

	for i := range rep.Briefs {
		r.writeBrief(&b, &rep.Briefs[i])
	}

	if r.includeFooter {
		b.WriteString("---\n\n")
		b.WriteString("_Findings are leads for attorney review. Each entry names the authority file it was checked against._\n")
	}
	return b.String()
}

func (r *Renderer) writeBrief(b *strings.Builder, br *model.BriefReport) {
	fmt.Fprintf(b, "## %s\n\n", briefTitle(br.Brief))
	b.WriteString(SummaryLine(br.Counts))
	b.WriteString("\n\n")

	sections := []struct {
		title   string
		entries []model.Assessment
	}{
		{"Accuracy Issues", br.Accuracy},
		{"Relevance Gaps", br.RelevanceGaps},
		{"Advocacy Targets", br.Advocacy},
		{"Critiques", br.Critiques},
	}
	for _, sec := range sections {
		if len(sec.entries) == 0 {
			continue
		}
		fmt.Fprintf(b, "### %s\n\n", sec.title)
		for _, a := range sec.entries {
			writeEntry(b, a)
		}
	}

	if len(br.Accuracy) > 0 {
		b.WriteString("### Accuracy Summary\n\n")
		b.WriteString("| # | Citation | Issue | Severity |\n")
		b.WriteString("|---|----------|-------|----------|\n")
		for i, a := range br.Accuracy {
			fmt.Fprintf(b, "| %d | %s | %s | %s |\n",
				i+1, cell(a.Mention.Citation(), 0), cell(a.Verdict.Explanation, tableIssueWidth), a.Verdict.Severity)
		}
		b.WriteString("\n")
	}
}

// SummaryLine renders the per-brief count line
func SummaryLine(c model.Counts) string {
	return fmt.Sprintf("**Summary**: %d citations checked: %d accuracy issues, %d relevance gaps, %d advocacy targets, %d critiques, %d verified",
		c.Total, c.Accuracy, c.RelevanceGaps, c.Advocacy, c.Critiques, c.Verified)
}

func writeEntry(b *strings.Builder, a model.Assessment) {
	m := a.Mention
	v := a.Verdict

	fmt.Fprintf(b, "#### %s\n", m.Citation())
	if m.PinCite != "" {
		fmt.Fprintf(b, "- **Pin cite**: %s\n", m.PinCite)
	}
	fmt.Fprintf(b, "- **Cited for**: %s\n", orNA(m.Proposition))
	if m.ArgumentContext != "" {
		fmt.Fprintf(b, "- **Context**: %s\n", m.ArgumentContext)
	}
	if m.Quotation != "" {
		fmt.Fprintf(b, "- **Quotation**: \"%s\"\n", m.Quotation)
	}
	fmt.Fprintf(b, "- **Severity**: %s\n", v.Severity)
	if a.Match.AuthorityID != "" {
		fmt.Fprintf(b, "- **Authority file**: %s\n", a.Match.AuthorityID)
	}
	if v.Relevance != nil {
		fmt.Fprintf(b, "- **Relevance**: %s\n", *v.Relevance)
	}
	if v.QuotationAccurate != nil && !*v.QuotationAccurate {
		b.WriteString("- **Quotation accurate**: no\n")
	}
	for _, c := range a.Checks {
		if c.Passed {
			continue
		}
		if c.Severity != "" {
			fmt.Fprintf(b, "- **Check (%s)**: %s: %s\n", c.Severity, c.Kind, c.Detail)
		} else {
			fmt.Fprintf(b, "- **Check**: %s: %s\n", c.Kind, c.Detail)
		}
	}
	if v.AdvocacyGap != nil && *v.AdvocacyGap != "" {
		fmt.Fprintf(b, "- **Gap**: %s\n", *v.AdvocacyGap)
	}
	fmt.Fprintf(b, "- **Explanation**: %s\n\n", orNA(v.Explanation))
}

func briefTitle(br model.Brief) string {
	var parts []string
	if k := br.Classification.Kind; k != "" && k != model.BriefOther {
		parts = append(parts, string(k))
	}
	if br.Classification.Party != "" {
		parts = append(parts, br.Classification.Party)
	}
	if len(parts) == 0 {
		return br.ID
	}
	return fmt.Sprintf("%s (%s)", br.ID, strings.Join(parts, ", "))
}

// cell makes text safe for a table cell, truncated to width runes when width > 0
func cell(s string, width int) string {
	s = strings.Join(strings.Fields(s), " ")
	s = strings.ReplaceAll(s, "|", `\|`)
	if width > 0 {
		if runes := []rune(s); len(runes) > width {
			s = strings.TrimSpace(string(runes[:width])) + "..."
		}
	}
	return s
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}

// RenderMarkdown writes the Markdown report to path
func (r *Renderer) RenderMarkdown(rep *model.RunReport, path string) error {
	return writeFile(path, []byte(r.Markdown(rep)))
}

// RenderJSON writes the report as indented JSON to path
func (r *Renderer) RenderJSON(rep *model.RunReport, path string) error {
	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	return writeFile(path, append(data, '\n'))
}

// RenderSummary prints a short per-brief digest, for the terminal
func (r *Renderer) RenderSummary(w io.Writer, rep *model.RunReport) {
	for _, br := range rep.Briefs {
		c := br.Counts
		mark := "✓"
		if c.Accuracy > 0 {
			mark = "✗"
		}
		_, _ = fmt.Fprintf(w, "%s %s: %d citations, %d accuracy, %d relevance, %d advocacy, %d critiques\n",
			mark, br.Brief.ID, c.Total, c.Accuracy, c.RelevanceGaps, c.Advocacy, c.Critiques)
	}
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
