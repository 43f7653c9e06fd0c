package models

// Document models

// Section represents a heading-delimited unit of a Markdown document.
// The Path is the stable identity used to match a section across two
// revisions of the same document.
type Section struct {
	Path        string // slug chain, e.g. "installation/docker"
	Heading     string
	Level       int
	Content     string // normalized body content
	StartLine   int
	EndLine     int
	Fingerprint string // short hash of heading+content
}

// Table is a lightweight structural record for a Markdown table.
type Table struct {
	Headers  []string
	RowCount int
	Line     int
}

// CodeBlock is a lightweight structural record for a fenced code block.
type CodeBlock struct {
	Language string
	Line     int
}

// Link records a Markdown link and its resolved target.
type Link struct {
	URL      string
	Text     string
	Internal bool   // fragment or relative path, not an absolute external URL
	Target   string // resolved section path or normalized document-relative path
	Line     int
}

// Document is the parsed unit: one Document per file per revision.
// Base and head revisions are two independent Documents.
type Document struct {
	FilePath    string
	Sections    []Section
	FrontMatter map[string]string
	Tables      []Table
	CodeBlocks  []CodeBlock
	Links       []Link
}

// SectionByPath returns the section with the given path, if any.
func (d *Document) SectionByPath(path string) (*Section, bool) {
	for i := range d.Sections {
		if d.Sections[i].Path == path {
			return &d.Sections[i], true
		}
	}
	return nil, false
}

// Semantic diff models

// ChangeType identifies the kind of a section-level change.
type ChangeType string

const (
	ChangeAdded    ChangeType = "added"
	ChangeRemoved  ChangeType = "removed"
	ChangeModified ChangeType = "modified"
	ChangeMoved    ChangeType = "moved"
)

// SectionChange is one section-level change between two revisions.
// OldPath/OldHeading are set for removed, modified and moved changes;
// NewPath/NewHeading for added, modified and moved changes.
type SectionChange struct {
	Type       ChangeType
	OldPath    string
	NewPath    string
	OldHeading string
	NewHeading string
	Similarity float64 // [0,1], set for modified and moved changes
}

// DiffStats are rollup counts per change type. They always sum to the
// total number of change records.
type DiffStats struct {
	Added    int
	Removed  int
	Modified int
	Moved    int
}

// Total returns the number of change records behind the stats.
func (s DiffStats) Total() int {
	return s.Added + s.Removed + s.Modified + s.Moved
}

// SemanticDiff is the section-granularity comparison of two revisions.
type SemanticDiff struct {
	Changes []SectionChange
	Stats   DiffStats
}

// Classification models

// DocType is the classified genre of a document.
type DocType string

const (
	DocTypeReadme    DocType = "readme"
	DocTypeSOP       DocType = "sop"
	DocTypeADR       DocType = "adr"
	DocTypeRunbook   DocType = "runbook"
	DocTypePricing   DocType = "pricing"
	DocTypeChangelog DocType = "changelog"
	DocTypeGuide     DocType = "guide"
	DocTypeAPI       DocType = "api"
	DocTypeContrib   DocType = "contrib"
	DocTypeOther     DocType = "other"
)

// Classification is the best-fit document type with a relative
// confidence score and up to five human-readable indicators.
type Classification struct {
	Type       DocType
	Confidence float64
	Indicators []string
}

// Findings and risks

// Severity is the severity of a review finding.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Finding is the atomic review unit consumed by the checklist generator
// and the review synthesizer.
type Finding struct {
	Severity   Severity
	Category   string
	Message    string
	File       string
	Line       int
	Section    string
	Suggestion string
}

// RiskSeverity is the severity of a narrative risk item.
type RiskSeverity string

const (
	RiskHigh   RiskSeverity = "high"
	RiskMedium RiskSeverity = "medium"
	RiskLow    RiskSeverity = "low"
)

// RiskItem is the higher-level, narrative counterpart to Finding,
// produced only by the review synthesizer.
type RiskItem struct {
	Severity    RiskSeverity `json:"severity"`
	Category    string       `json:"category"`
	Description string       `json:"description"`
	Evidence    string       `json:"evidence,omitempty"`
	Suggestion  string       `json:"suggestion,omitempty"`
}

// Verdict and structured review

// VerdictValue is the review's merge recommendation.
type VerdictValue string

const (
	VerdictApproved         VerdictValue = "approved"
	VerdictChangesRequested VerdictValue = "changes_requested"
	VerdictCommented        VerdictValue = "commented"
)

// ValidVerdict reports whether v is one of the fixed verdict values.
func ValidVerdict(v VerdictValue) bool {
	switch v {
	case VerdictApproved, VerdictChangesRequested, VerdictCommented:
		return true
	}
	return false
}

// Verdict carries the merge recommendation, a confidence in [0,1] and a
// one-sentence summary. It is mutable only through the guardrail pass.
type Verdict struct {
	Value      VerdictValue `json:"value"`
	Confidence float64      `json:"confidence"`
	Summary    string       `json:"summary"`
}

// ChecklistPriority ranks checklist items for the reviewer.
type ChecklistPriority string

const (
	PriorityRequired    ChecklistPriority = "required"
	PriorityRecommended ChecklistPriority = "recommended"
	PriorityOptional    ChecklistPriority = "optional"
)

// ChecklistEntry is one reviewer checklist item in a structured review.
type ChecklistEntry struct {
	Item     string            `json:"item"`
	Category string            `json:"category"`
	Priority ChecklistPriority `json:"priority"`
}

// BodySuggestion proposes new sections or section updates for the PR
// description. It is only proposed, never applied.
type BodySuggestion struct {
	NewSections    []string `json:"newSections,omitempty"`
	SectionUpdates []string `json:"sectionUpdates,omitempty"`
}

// StructuredReview is the terminal aggregate of the pipeline. It is
// built once per pull-request event, by either the model path or the
// deterministic path, and passed through the guardrail pass exactly
// once before rendering.
type StructuredReview struct {
	PRIntent       string           `json:"prIntent"`
	ChangeOverview string           `json:"changeOverview"`
	Risks          []RiskItem       `json:"risks,omitempty"`
	Checklist      []ChecklistEntry `json:"checklist,omitempty"`
	BodySuggestion *BodySuggestion  `json:"bodySuggestion,omitempty"`
	Verdict        Verdict          `json:"verdict"`
}

// Pull-request context

// PRContext is the metadata of the pull/merge request under review.
type PRContext struct {
	Title        string
	Body         string
	Author       string
	SourceBranch string
	TargetBranch string
	FilesChanged int
}

// CodeChange is a curated non-documentation change excerpt handed to
// the model prompt.
type CodeChange struct {
	FilePath  string
	Patch     string
	Additions int
	Deletions int
}

// FileChange is one changed file in the merge request diff list.
type FileChange struct {
	OldPath     string
	NewPath     string
	Diff        string
	NewFile     bool
	DeletedFile bool
	RenamedFile bool
}

// Rendered outputs

// CheckAnnotation is one line-annotated finding in a check-run payload.
type CheckAnnotation struct {
	Path     string
	Line     int
	Severity Severity
	Message  string
}

// CheckRun is the machine-readable conclusion posted by a collaborator.
type CheckRun struct {
	Conclusion  string // success, neutral or failure
	Title       string
	Summary     string
	Annotations []CheckAnnotation
}
