package checklist

import (
	"fmt"

	"github.com/docreview/pkg/models"
)

// fixedItems maps each genre to its reviewer checklist. The tables are
// immutable data; generation is a pure lookup plus diff-driven notes.
var fixedItems = map[models.DocType][]string{
	models.DocTypeReadme: {
		"Verify the project description still matches the current behavior",
		"Check that installation steps work on a clean environment",
		"Confirm usage examples run as written",
		"Make sure links to further documentation resolve",
	},
	models.DocTypeSOP: {
		"Confirm every step is actionable without tribal knowledge",
		"Check prerequisites are complete and current",
		"Verify the escalation contact is still correct",
	},
	models.DocTypeADR: {
		"Confirm the status field reflects the actual decision state",
		"Check the context section explains why the decision was needed",
		"Verify consequences cover operational impact",
		"Make sure superseded ADRs are cross-referenced",
	},
	models.DocTypeRunbook: {
		"Verify commands are copy-pasteable and target the right environment",
		"Check alert names match the current monitoring configuration",
		"Confirm the rollback procedure was tested recently",
		"Verify the escalation path names an on-call rotation, not a person",
	},
	models.DocTypePricing: {
		"Confirm listed prices match the billing system",
		"Check plan limits are consistent across tables and prose",
		"Verify legal/compliance reviewed wording changes",
	},
	models.DocTypeChangelog: {
		"Check entries are under the correct version heading",
		"Verify breaking changes are called out explicitly",
		"Confirm the release date is present and correct",
	},
	models.DocTypeGuide: {
		"Walk through the guide end to end with a fresh setup",
		"Check code samples compile or run as shown",
		"Verify screenshots and outputs match the current version",
		"Confirm the target audience is stated",
	},
	models.DocTypeAPI: {
		"Verify endpoint paths and methods match the implementation",
		"Check request/response examples against the current schema",
		"Confirm authentication requirements are documented",
		"Verify error responses are listed with status codes",
	},
	models.DocTypeContrib: {
		"Confirm the development setup works on a clean checkout",
		"Check the PR process description matches repository settings",
		"Verify the code of conduct link resolves",
	},
	models.DocTypeOther: {
		"Check the document has a clear owner",
		"Verify headings reflect the actual content",
		"Confirm the document is linked from an index or parent page",
	},
}

// Generate returns the genre checklist plus diff-driven additions.
// Deterministic: no randomness, no external calls.
func Generate(docType models.DocType, stats models.DiffStats) []string {
	items := make([]string, 0, 8)
	items = append(items, fixedItems[docType]...)

	if stats.Added > 0 {
		items = append(items, fmt.Sprintf("Review the %d newly added section(s) for accuracy and placement", stats.Added))
	}
	if stats.Removed > 0 {
		items = append(items, fmt.Sprintf("Caution: %d section(s) were removed; confirm the content is obsolete or relocated", stats.Removed))
	}
	if stats.Modified > 0 {
		items = append(items, fmt.Sprintf("Re-read the %d modified section(s) for consistency with the rest of the document", stats.Modified))
	}

	return items
}

// Fixed returns the genre's fixed checklist without diff additions.
func Fixed(docType models.DocType) []string {
	items := fixedItems[docType]
	out := make([]string, len(items))
	copy(out, items)
	return out
}
