package review

import (
	"fmt"
	"strings"

	"github.com/docreview/pkg/models"
)

// MaxCheckAnnotations caps line annotations in a check-run payload.
const MaxCheckAnnotations = 50

var verdictEmoji = map[models.VerdictValue]string{
	models.VerdictApproved:         "✅",
	models.VerdictChangesRequested: "🛑",
	models.VerdictCommented:        "💬",
}

var priorityMarker = map[models.ChecklistPriority]string{
	models.PriorityRequired:    "[!]",
	models.PriorityRecommended: "[ ]",
	models.PriorityOptional:    "[~]",
}

// RenderComment renders the structured review as the Markdown comment
// posted on the pull request. Critical findings that did not survive as
// risks are surfaced in their own section so a dropped risk never hides
// an error-severity finding.
func RenderComment(review *models.StructuredReview, findings []models.Finding) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "## %s Documentation review: %s\n\n", verdictEmoji[review.Verdict.Value], review.Verdict.Value)
	fmt.Fprintf(&sb, "**Confidence:** %.0f%% — %s\n\n", review.Verdict.Confidence*100, review.Verdict.Summary)

	if review.PRIntent != "" {
		sb.WriteString("### Intent\n")
		sb.WriteString(review.PRIntent)
		sb.WriteString("\n\n")
	}
	if review.ChangeOverview != "" {
		sb.WriteString("### What changed\n")
		sb.WriteString(review.ChangeOverview)
		sb.WriteString("\n\n")
	}

	renderRisks(&sb, review.Risks)
	renderCriticalFindings(&sb, review, findings)
	renderChecklist(&sb, review.Checklist)
	renderBodySuggestion(&sb, review.BodySuggestion)

	return strings.TrimRight(sb.String(), "\n") + "\n"
}

func renderRisks(sb *strings.Builder, risks []models.RiskItem) {
	if len(risks) == 0 {
		return
	}
	sb.WriteString("### Risks\n")
	for _, sev := range []models.RiskSeverity{models.RiskHigh, models.RiskMedium, models.RiskLow} {
		for _, r := range risks {
			if r.Severity != sev {
				continue
			}
			fmt.Fprintf(sb, "- **%s** (%s): %s", r.Severity, r.Category, r.Description)
			if r.Evidence != "" {
				fmt.Fprintf(sb, " — `%s`", r.Evidence)
			}
			sb.WriteString("\n")
			if r.Suggestion != "" {
				fmt.Fprintf(sb, "  - Suggestion: %s\n", r.Suggestion)
			}
		}
	}
	sb.WriteString("\n")
}

// renderCriticalFindings lists error-severity findings not already
// represented by a risk. Only rendered while the verdict still blocks
// the merge; a softer verdict means the risks section already carries
// the actionable feedback.
func renderCriticalFindings(sb *strings.Builder, review *models.StructuredReview, findings []models.Finding) {
	if review.Verdict.Value != models.VerdictChangesRequested {
		return
	}
	var orphaned []models.Finding
	for _, f := range findings {
		if f.Severity != models.SeverityError {
			continue
		}
		covered := false
		for _, r := range review.Risks {
			if textOverlaps(r.Description, f.Message) || textOverlaps(r.Evidence, f.Message) {
				covered = true
				break
			}
		}
		if !covered {
			orphaned = append(orphaned, f)
		}
	}
	if len(orphaned) == 0 {
		return
	}
	sb.WriteString("### Critical findings\n")
	for _, f := range orphaned {
		loc := f.File
		if f.Line > 0 {
			loc = fmt.Sprintf("%s:%d", f.File, f.Line)
		}
		fmt.Fprintf(sb, "- %s (`%s`)\n", f.Message, loc)
	}
	sb.WriteString("\n")
}

func renderChecklist(sb *strings.Builder, entries []models.ChecklistEntry) {
	if len(entries) == 0 {
		return
	}
	sb.WriteString("### Reviewer checklist\n")
	for _, e := range entries {
		fmt.Fprintf(sb, "- %s %s\n", priorityMarker[e.Priority], e.Item)
	}
	sb.WriteString("\n")
}

func renderBodySuggestion(sb *strings.Builder, suggestion *models.BodySuggestion) {
	if suggestion == nil || (len(suggestion.NewSections) == 0 && len(suggestion.SectionUpdates) == 0) {
		return
	}
	sb.WriteString("### Suggested PR description improvements\n")
	for _, s := range suggestion.NewSections {
		fmt.Fprintf(sb, "- Add a section: %s\n", s)
	}
	for _, s := range suggestion.SectionUpdates {
		fmt.Fprintf(sb, "- Update: %s\n", s)
	}
	sb.WriteString("\n")
}

// BuildCheckRun maps the review to a machine-readable check-run
// payload. Annotations come from findings that carry a file and line,
// capped at MaxCheckAnnotations.
func BuildCheckRun(review *models.StructuredReview, findings []models.Finding) models.CheckRun {
	run := models.CheckRun{
		Conclusion: conclusionFor(review.Verdict.Value),
		Title:      fmt.Sprintf("docreview: %s", review.Verdict.Value),
		Summary:    review.Verdict.Summary,
	}
	for _, f := range findings {
		if f.File == "" || f.Line <= 0 {
			continue
		}
		if len(run.Annotations) >= MaxCheckAnnotations {
			break
		}
		run.Annotations = append(run.Annotations, models.CheckAnnotation{
			Path:     f.File,
			Line:     f.Line,
			Severity: f.Severity,
			Message:  f.Message,
		})
	}
	return run
}

func conclusionFor(v models.VerdictValue) string {
	switch v {
	case models.VerdictApproved:
		return "success"
	case models.VerdictChangesRequested:
		return "failure"
	default:
		return "neutral"
	}
}
