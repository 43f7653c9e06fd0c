package review

import (
	"fmt"
	"sort"
	"strings"

	"github.com/docreview/pkg/models"
)

// Prompt truncation limits. Fixed values, kept configurable for
// behavior compatibility rather than re-tuned.
const (
	DefaultMaxPromptFindings = 8
	DefaultMaxCodeExcerpts   = 4
	DefaultMaxPatchLines     = 30
)

// Limits bounds how much context is embedded in the model prompt.
type Limits struct {
	MaxPromptFindings int
	MaxCodeExcerpts   int
	MaxPatchLines     int
}

// DefaultLimits returns the standard prompt limits.
func DefaultLimits() Limits {
	return Limits{
		MaxPromptFindings: DefaultMaxPromptFindings,
		MaxCodeExcerpts:   DefaultMaxCodeExcerpts,
		MaxPatchLines:     DefaultMaxPatchLines,
	}
}

// BuildPrompt assembles the single structured prompt for the model
// path: PR metadata, classification, diff statistics, high-signal
// findings and curated code excerpts, plus the answer schema.
func BuildPrompt(in SynthesisInput, limits Limits) string {
	var sb strings.Builder

	sb.WriteString("You are a documentation reviewer for pull requests. ")
	sb.WriteString("Review the change described below and answer with exactly one JSON object matching the schema at the end. ")
	sb.WriteString("Do not invent risks without evidence from the provided findings or excerpts.\n\n")

	sb.WriteString("## Pull request\n")
	fmt.Fprintf(&sb, "Title: %s\n", in.PR.Title)
	fmt.Fprintf(&sb, "Author: %s\n", in.PR.Author)
	fmt.Fprintf(&sb, "Branch: %s -> %s\n", in.PR.SourceBranch, in.PR.TargetBranch)
	fmt.Fprintf(&sb, "Files changed: %d\n", in.PR.FilesChanged)
	if body := strings.TrimSpace(in.PR.Body); body != "" {
		fmt.Fprintf(&sb, "Description:\n%s\n", truncate(body, 1200))
	} else {
		sb.WriteString("Description: (none)\n")
	}

	sb.WriteString("\n## Document classification\n")
	fmt.Fprintf(&sb, "Type: %s (confidence %.2f)\n", in.Classification.Type, in.Classification.Confidence)
	for _, ind := range in.Classification.Indicators {
		fmt.Fprintf(&sb, "- %s\n", ind)
	}

	sb.WriteString("\n## Section-level diff\n")
	s := in.Diff.Stats
	fmt.Fprintf(&sb, "added=%d removed=%d modified=%d moved=%d\n", s.Added, s.Removed, s.Modified, s.Moved)
	for _, c := range in.Diff.Changes {
		switch c.Type {
		case models.ChangeAdded:
			fmt.Fprintf(&sb, "- added: %s\n", c.NewPath)
		case models.ChangeRemoved:
			fmt.Fprintf(&sb, "- removed: %s\n", c.OldPath)
		case models.ChangeModified:
			fmt.Fprintf(&sb, "- modified: %s (similarity %.2f)\n", c.NewPath, c.Similarity)
		case models.ChangeMoved:
			fmt.Fprintf(&sb, "- moved: %s -> %s (similarity %.2f)\n", c.OldPath, c.NewPath, c.Similarity)
		}
	}

	if findings := highSignalFindings(in.Findings, limits.MaxPromptFindings); len(findings) > 0 {
		sb.WriteString("\n## Findings\n")
		for _, f := range findings {
			loc := f.File
			if f.Line > 0 {
				loc = fmt.Sprintf("%s:%d", f.File, f.Line)
			}
			fmt.Fprintf(&sb, "- [%s/%s] %s (%s)\n", f.Severity, f.Category, f.Message, loc)
		}
	}

	if excerpts := codeExcerpts(in.CodeChanges, limits); len(excerpts) > 0 {
		sb.WriteString("\n## Code change excerpts\n")
		for _, e := range excerpts {
			fmt.Fprintf(&sb, "### %s (+%d/-%d)\n```diff\n%s\n```\n", e.FilePath, e.Additions, e.Deletions, e.Patch)
		}
	}

	sb.WriteString("\n## Answer schema\n")
	sb.WriteString(`{
  "prIntent": "one paragraph on what this PR is trying to do",
  "changeOverview": "one paragraph on what actually changed in the docs",
  "risks": [{"severity": "high|medium|low", "category": "docs|links|security|performance|testing|breaking", "description": "...", "evidence": "file/line reference", "suggestion": "..."}],
  "checklist": [{"item": "...", "category": "...", "priority": "required|recommended|optional"}],
  "bodySuggestion": {"newSections": ["..."], "sectionUpdates": ["..."]},
  "verdict": {"value": "approved|changes_requested|commented", "confidence": 0.0, "summary": "one sentence"}
}`)
	sb.WriteString("\nAnswer with the JSON object only.\n")

	return sb.String()
}

// highSignalFindings keeps errors and warnings only, errors first, up
// to max entries.
func highSignalFindings(findings []models.Finding, max int) []models.Finding {
	var out []models.Finding
	for _, sev := range []models.Severity{models.SeverityError, models.SeverityWarning} {
		for _, f := range findings {
			if f.Severity == sev && len(out) < max {
				out = append(out, f)
			}
		}
	}
	return out
}

// codeExcerpts picks the largest changesets first and trims each patch.
func codeExcerpts(changes []models.CodeChange, limits Limits) []models.CodeChange {
	sorted := make([]models.CodeChange, len(changes))
	copy(sorted, changes)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Additions+sorted[i].Deletions > sorted[j].Additions+sorted[j].Deletions
	})

	if len(sorted) > limits.MaxCodeExcerpts {
		sorted = sorted[:limits.MaxCodeExcerpts]
	}
	for i := range sorted {
		sorted[i].Patch = firstLines(sorted[i].Patch, limits.MaxPatchLines)
	}
	return sorted
}

func firstLines(s string, n int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= n {
		return s
	}
	return strings.Join(lines[:n], "\n") + "\n..."
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
