package review

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/docreview/internal/checklist"
	"github.com/docreview/internal/llm"
	"github.com/docreview/pkg/models"
)

// Confidence calibration caps. Approval claims must never look
// overconfident: approval is the verdict most likely to mask missed
// risk.
const (
	capHighRiskModel = 0.92
	capDefault       = 0.82
	capApproved      = 0.82
	capDocsOnlyMild  = 0.75
	capErrorCase     = 0.92
)

// Deterministic verdict confidences before calibration.
const (
	rawConfidenceError      = 0.95
	rawConfidenceManyWarn   = 0.7
	rawConfidenceSomeWarn   = 0.8
	rawConfidenceNoFindings = 0.9
)

// Fallback risk truncation: first 3 errors, first 2 warnings.
const (
	maxFallbackErrorRisks   = 3
	maxFallbackWarningRisks = 2
)

// SynthesisInput carries everything the synthesizer combines into a
// structured review.
type SynthesisInput struct {
	PR             models.PRContext
	Classification models.Classification
	Diff           models.SemanticDiff
	Findings       []models.Finding
	CodeChanges    []models.CodeChange
	DocsOnly       bool
}

// Synthesizer produces a StructuredReview, delegating to a model
// backend when one is configured and falling back to deterministic
// rules when the model is absent or its answer is unusable.
type Synthesizer struct {
	client llm.Client // nil: deterministic path only
	limits Limits
}

// NewSynthesizer returns a synthesizer. client may be nil.
func NewSynthesizer(client llm.Client, limits Limits) *Synthesizer {
	if limits.MaxPromptFindings <= 0 {
		limits = DefaultLimits()
	}
	return &Synthesizer{client: client, limits: limits}
}

// Synthesize builds the draft review. The deterministic path's output
// is structurally identical to the model path's output; callers never
// need to know which path produced it.
func (s *Synthesizer) Synthesize(ctx context.Context, in SynthesisInput) models.StructuredReview {
	if s.client != nil {
		review, err := s.tryModel(ctx, in)
		if err == nil {
			return *review
		}
		log.Warn().Err(err).Str("model", s.client.Name()).
			Msg("model path rejected, using deterministic review")
	}
	return s.deterministic(in)
}

// wire types for the model answer. Pointers distinguish missing fields
// from zero values during validation.
type wireReview struct {
	PRIntent       string                 `json:"prIntent"`
	ChangeOverview string                 `json:"changeOverview"`
	Risks          []wireRisk             `json:"risks"`
	Checklist      []wireChecklistEntry   `json:"checklist"`
	BodySuggestion *models.BodySuggestion `json:"bodySuggestion"`
	Verdict        *wireVerdict           `json:"verdict"`
}

type wireRisk struct {
	Severity    string `json:"severity"`
	Category    string `json:"category"`
	Description string `json:"description"`
	Evidence    string `json:"evidence"`
	Suggestion  string `json:"suggestion"`
}

type wireChecklistEntry struct {
	Item     string `json:"item"`
	Category string `json:"category"`
	Priority string `json:"priority"`
}

type wireVerdict struct {
	Value      string   `json:"value"`
	Confidence *float64 `json:"confidence"`
	Summary    string   `json:"summary"`
}

// tryModel runs the model path: prompt, defensive parse, schema
// validation and confidence recalibration. Any rejection returns an
// error so the caller branches to the deterministic path.
func (s *Synthesizer) tryModel(ctx context.Context, in SynthesisInput) (*models.StructuredReview, error) {
	prompt := BuildPrompt(in, s.limits)

	raw, err := s.client.Complete(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("model call failed: %w", err)
	}

	var wire wireReview
	if _, err := llm.DecodeObject(raw, &wire); err != nil {
		return nil, err
	}

	review, err := validateWireReview(&wire)
	if err != nil {
		return nil, err
	}

	calibrateModelConfidence(review)
	return review, nil
}

func validateWireReview(wire *wireReview) (*models.StructuredReview, error) {
	if strings.TrimSpace(wire.PRIntent) == "" {
		return nil, fmt.Errorf("model answer missing prIntent")
	}
	if strings.TrimSpace(wire.ChangeOverview) == "" {
		return nil, fmt.Errorf("model answer missing changeOverview")
	}
	if wire.Verdict == nil {
		return nil, fmt.Errorf("model answer missing verdict")
	}

	value := models.VerdictValue(strings.ToLower(strings.TrimSpace(wire.Verdict.Value)))
	if !models.ValidVerdict(value) {
		return nil, fmt.Errorf("model verdict %q outside the fixed enum", wire.Verdict.Value)
	}
	if wire.Verdict.Confidence == nil {
		return nil, fmt.Errorf("model verdict missing confidence")
	}
	conf := *wire.Verdict.Confidence
	if conf < 0 || conf > 1 {
		return nil, fmt.Errorf("model confidence %v outside [0,1]", conf)
	}

	review := &models.StructuredReview{
		PRIntent:       wire.PRIntent,
		ChangeOverview: wire.ChangeOverview,
		BodySuggestion: wire.BodySuggestion,
		Verdict: models.Verdict{
			Value:      value,
			Confidence: conf,
			Summary:    wire.Verdict.Summary,
		},
	}

	for _, r := range wire.Risks {
		review.Risks = append(review.Risks, models.RiskItem{
			Severity:    normalizeRiskSeverity(r.Severity),
			Category:    strings.ToLower(strings.TrimSpace(r.Category)),
			Description: r.Description,
			Evidence:    r.Evidence,
			Suggestion:  r.Suggestion,
		})
	}
	for _, c := range wire.Checklist {
		review.Checklist = append(review.Checklist, models.ChecklistEntry{
			Item:     c.Item,
			Category: c.Category,
			Priority: normalizePriority(c.Priority),
		})
	}

	return review, nil
}

// calibrateModelConfidence caps the model-reported confidence: high
// raw confidence is only honored (up to 0.92) when the model itself
// reported high-severity risks, and approvals never exceed 0.82.
func calibrateModelConfidence(review *models.StructuredReview) {
	hasHighRisk := false
	for _, r := range review.Risks {
		if r.Severity == models.RiskHigh {
			hasHighRisk = true
			break
		}
	}

	conf := review.Verdict.Confidence
	if hasHighRisk && conf > 0.85 {
		conf = min(conf, capHighRiskModel)
	} else {
		conf = min(conf, capDefault)
	}
	if review.Verdict.Value == models.VerdictApproved {
		conf = min(conf, capApproved)
	}
	review.Verdict.Confidence = conf
}

// deterministic is the rule-based fallback path: verdict from finding
// counts, risks from the leading errors and warnings, checklist from
// the genre tables.
func (s *Synthesizer) deterministic(in SynthesisInput) models.StructuredReview {
	errs, warns := countBySeverity(in.Findings)

	var verdict models.Verdict
	switch {
	case errs > 0:
		verdict = models.Verdict{
			Value:      models.VerdictChangesRequested,
			Confidence: rawConfidenceError,
			Summary:    fmt.Sprintf("%d blocking issue(s) found in the documentation changes.", errs),
		}
	case warns > 3:
		verdict = models.Verdict{
			Value:      models.VerdictCommented,
			Confidence: rawConfidenceManyWarn,
			Summary:    fmt.Sprintf("%d warnings worth a look, nothing blocking.", warns),
		}
	case warns >= 1:
		verdict = models.Verdict{
			Value:      models.VerdictApproved,
			Confidence: rawConfidenceSomeWarn,
			Summary:    "Looks good with minor warnings.",
		}
	default:
		verdict = models.Verdict{
			Value:      models.VerdictApproved,
			Confidence: rawConfidenceNoFindings,
			Summary:    "Documentation changes look good.",
		}
	}

	verdict.Confidence = calibrateDeterministic(verdict, errs, warns, in.DocsOnly)

	review := models.StructuredReview{
		PRIntent:       deterministicIntent(in),
		ChangeOverview: describeDiff(in.Diff),
		Risks:          fallbackRisks(in.Findings),
		Checklist:      fallbackChecklist(in.Classification.Type, in.Diff.Stats),
		Verdict:        verdict,
	}

	if strings.TrimSpace(in.PR.Body) == "" {
		review.BodySuggestion = &models.BodySuggestion{
			NewSections: []string{"Summary", "What changed", "Review notes"},
		}
	}

	return review
}

func calibrateDeterministic(verdict models.Verdict, errs, warns int, docsOnly bool) float64 {
	conf := verdict.Confidence
	switch {
	case errs > 0:
		conf = min(conf, capErrorCase)
	case warns > 0 && docsOnly:
		conf = min(conf, capDocsOnlyMild)
	case warns > 0:
		conf = min(conf, capDefault)
	}
	if verdict.Value == models.VerdictApproved {
		conf = min(conf, capApproved)
	}
	return conf
}

func fallbackRisks(findings []models.Finding) []models.RiskItem {
	var risks []models.RiskItem

	errsTaken, warnsTaken := 0, 0
	for _, f := range findings {
		switch f.Severity {
		case models.SeverityError:
			if errsTaken >= maxFallbackErrorRisks {
				continue
			}
			errsTaken++
			risks = append(risks, riskFromFinding(f, models.RiskHigh))
		case models.SeverityWarning:
			if warnsTaken >= maxFallbackWarningRisks {
				continue
			}
			warnsTaken++
			risks = append(risks, riskFromFinding(f, models.RiskMedium))
		}
	}
	return risks
}

func riskFromFinding(f models.Finding, sev models.RiskSeverity) models.RiskItem {
	evidence := f.File
	if f.File != "" && f.Line > 0 {
		evidence = fmt.Sprintf("%s:%d", f.File, f.Line)
	}
	return models.RiskItem{
		Severity:    sev,
		Category:    f.Category,
		Description: f.Message,
		Evidence:    evidence,
		Suggestion:  f.Suggestion,
	}
}

func fallbackChecklist(docType models.DocType, stats models.DiffStats) []models.ChecklistEntry {
	var entries []models.ChecklistEntry
	for _, item := range checklist.Fixed(docType) {
		entries = append(entries, models.ChecklistEntry{
			Item:     item,
			Category: string(docType),
			Priority: models.PriorityRecommended,
		})
	}
	if stats.Removed > 0 {
		entries = append(entries, models.ChecklistEntry{
			Item:     fmt.Sprintf("Confirm the %d removed section(s) are obsolete or relocated", stats.Removed),
			Category: "diff",
			Priority: models.PriorityRequired,
		})
	}
	if stats.Added > 0 {
		entries = append(entries, models.ChecklistEntry{
			Item:     fmt.Sprintf("Review the %d newly added section(s)", stats.Added),
			Category: "diff",
			Priority: models.PriorityRecommended,
		})
	}
	if stats.Modified > 0 {
		entries = append(entries, models.ChecklistEntry{
			Item:     fmt.Sprintf("Re-read the %d modified section(s)", stats.Modified),
			Category: "diff",
			Priority: models.PriorityRecommended,
		})
	}
	return entries
}

func deterministicIntent(in SynthesisInput) string {
	if body := strings.TrimSpace(in.PR.Body); body != "" {
		return truncate(body, 280)
	}
	return fmt.Sprintf("Documentation update: %d section-level change(s) in a %s document.",
		in.Diff.Stats.Total(), in.Classification.Type)
}

func describeDiff(diff models.SemanticDiff) string {
	s := diff.Stats
	if s.Total() == 0 {
		return "No section-level changes detected."
	}
	return fmt.Sprintf("Sections: %d added, %d removed, %d modified, %d moved.",
		s.Added, s.Removed, s.Modified, s.Moved)
}

func countBySeverity(findings []models.Finding) (errs, warns int) {
	for _, f := range findings {
		switch f.Severity {
		case models.SeverityError:
			errs++
		case models.SeverityWarning:
			warns++
		}
	}
	return errs, warns
}

func normalizeRiskSeverity(s string) models.RiskSeverity {
	switch models.RiskSeverity(strings.ToLower(strings.TrimSpace(s))) {
	case models.RiskHigh:
		return models.RiskHigh
	case models.RiskLow:
		return models.RiskLow
	default:
		return models.RiskMedium
	}
}

func normalizePriority(s string) models.ChecklistPriority {
	switch models.ChecklistPriority(strings.ToLower(strings.TrimSpace(s))) {
	case models.PriorityRequired:
		return models.PriorityRequired
	case models.PriorityOptional:
		return models.PriorityOptional
	default:
		return models.PriorityRecommended
	}
}
