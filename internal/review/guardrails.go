package review

import (
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/docreview/internal/semdiff"
	"github.com/docreview/pkg/models"
)

// textOverlapWindow is the minimum shared normalized substring length
// for a risk's evidence to count as grounded in a concrete finding.
const textOverlapWindow = 40

// Risk categories that models routinely invent without evidence. Risks
// in these categories must be anchored to a concrete finding.
var speculativeCategories = map[string]bool{
	"security":    true,
	"performance": true,
	"testing":     true,
	"breaking":    true,
}

// reorgVocabulary matches risk descriptions that merely restate a
// section move or rename as if it were content loss.
var reorgVocabulary = regexp.MustCompile(`(?i)removed\s+then\s+re-?added|reorganiz|restructur|moved|renamed|section(s)?\s+(were\s+)?removed`)

// concreteEvidenceRe matches evidence that names an actual location: a
// file extension, a :line reference, or a path separator.
var concreteEvidenceRe = regexp.MustCompile(`\.\w+|:\d+|[\\/]`)

// ApplyGuardrails runs the post-synthesis correction passes on the
// draft review, in order: move/reorder reclassification, speculative
// risk filtering, deduplication, and verdict downgrade. The review is
// mutated in place and passes through here exactly once.
func ApplyGuardrails(review *models.StructuredReview, diff models.SemanticDiff, findings []models.Finding) {
	reclassifyReorganizationRisks(review, diff)
	filterSpeculativeRisks(review, findings)
	dedupeRisks(review)
	downgradeVerdict(review, findings)
}

// reclassifyReorganizationRisks demotes risks that describe moved or
// reordered sections as removals. It only applies when the diff really
// looks like a reorganization: moves detected alongside both added and
// removed sections.
func reclassifyReorganizationRisks(review *models.StructuredReview, diff models.SemanticDiff) {
	if !semdiff.LikelyReorganization(diff) {
		return
	}
	for i := range review.Risks {
		r := &review.Risks[i]
		if reorgVocabulary.MatchString(r.Description) {
			log.Debug().Str("description", r.Description).
				Msg("demoting reorganization risk to low severity")
			r.Severity = models.RiskLow
			r.Category = "docs"
			r.Description = "Sections were moved or renamed rather than deleted; content appears preserved."
			r.Suggestion = "Verify the reorganized sections read correctly in their new positions."
		}
	}
}

// filterSpeculativeRisks drops risks in generic categories unless
// their evidence materially overlaps a concrete finding. Risks with an
// empty description are always dropped.
func filterSpeculativeRisks(review *models.StructuredReview, findings []models.Finding) {
	kept := review.Risks[:0]
	for _, r := range review.Risks {
		if strings.TrimSpace(r.Description) == "" {
			continue
		}
		if speculativeCategories[r.Category] && !riskIsGrounded(r, findings) {
			log.Debug().Str("category", r.Category).Str("description", r.Description).
				Msg("dropping ungrounded speculative risk")
			continue
		}
		kept = append(kept, r)
	}
	review.Risks = kept
}

// riskIsGrounded accepts a generic-category risk only when its evidence
// names a concrete location AND its description restates an actual
// finding. Both legs are required: free-text evidence fails the first,
// an invented concern fails the second.
func riskIsGrounded(r models.RiskItem, findings []models.Finding) bool {
	if !concreteEvidenceRe.MatchString(r.Evidence) {
		return false
	}
	for _, f := range findings {
		if textOverlaps(r.Description, f.Message) {
			return true
		}
	}
	return false
}

// dedupeRisks removes risks whose normalized descriptions collide,
// keeping the first occurrence.
func dedupeRisks(review *models.StructuredReview) {
	seen := make(map[string]bool, len(review.Risks))
	kept := review.Risks[:0]
	for _, r := range review.Risks {
		key := normalizeText(r.Description)
		if seen[key] {
			continue
		}
		seen[key] = true
		kept = append(kept, r)
	}
	review.Risks = kept
}

// downgradeVerdict softens changes_requested to commented when neither
// an error-severity finding nor a surviving high risk backs it up.
func downgradeVerdict(review *models.StructuredReview, findings []models.Finding) {
	if review.Verdict.Value != models.VerdictChangesRequested {
		return
	}
	for _, f := range findings {
		if f.Severity == models.SeverityError {
			return
		}
	}
	for _, r := range review.Risks {
		if r.Severity == models.RiskHigh {
			return
		}
	}
	log.Debug().Msg("downgrading changes_requested verdict with no blocking evidence")
	review.Verdict.Value = models.VerdictCommented
	review.Verdict.Summary = "Non-blocking feedback only: " + review.Verdict.Summary
}

var punctuationRe = regexp.MustCompile(`[^a-z0-9\s]+`)

// normalizeText lowercases, strips punctuation and collapses whitespace
// for comparison.
func normalizeText(s string) string {
	s = punctuationRe.ReplaceAllString(strings.ToLower(s), " ")
	return strings.Join(strings.Fields(s), " ")
}

// textOverlaps reports whether a and b share a normalized substring of
// at least textOverlapWindow characters. When the shorter side is under
// the window, full containment is required instead.
func textOverlaps(a, b string) bool {
	na, nb := normalizeText(a), normalizeText(b)
	if na == "" || nb == "" {
		return false
	}
	if len(na) > len(nb) {
		na, nb = nb, na
	}
	if len(na) <= textOverlapWindow {
		return strings.Contains(nb, na)
	}
	for i := 0; i+textOverlapWindow <= len(na); i++ {
		if strings.Contains(nb, na[i:i+textOverlapWindow]) {
			return true
		}
	}
	return false
}
