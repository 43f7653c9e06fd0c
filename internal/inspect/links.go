// Package inspect derives review findings from a parsed document's
// structural signals. External links are never fetched.
package inspect

import (
	"fmt"
	"strings"

	"github.com/docreview/pkg/models"
)

// Document checks one head-revision document and returns findings.
// removedFiles holds the normalized (extension-stripped) paths of files
// deleted in the same change set.
func Document(doc *models.Document, removedFiles map[string]bool) []models.Finding {
	var findings []models.Finding

	for _, link := range doc.Links {
		if !link.Internal {
			continue
		}

		if strings.HasPrefix(link.URL, "#") {
			if !fragmentResolves(doc, link.Target) {
				findings = append(findings, models.Finding{
					Severity:   models.SeverityWarning,
					Category:   "links",
					Message:    fmt.Sprintf("internal link %q does not resolve to any section", link.URL),
					File:       doc.FilePath,
					Line:       link.Line,
					Suggestion: "update the fragment to match a current heading slug",
				})
			}
			continue
		}

		if removedFiles[link.Target] {
			findings = append(findings, models.Finding{
				Severity:   models.SeverityWarning,
				Category:   "links",
				Message:    fmt.Sprintf("link %q points at a file removed in this change", link.URL),
				File:       doc.FilePath,
				Line:       link.Line,
				Suggestion: "retarget or remove the link",
			})
		}
	}

	if len(doc.Sections) > 0 && !hasTitle(doc) {
		findings = append(findings, models.Finding{
			Severity: models.SeverityInfo,
			Category: "structure",
			Message:  "document has no level-1 heading",
			File:     doc.FilePath,
			Line:     doc.Sections[0].StartLine,
		})
	}

	return findings
}

// fragmentResolves reports whether a fragment target matches a section
// path or the trailing slug of one.
func fragmentResolves(doc *models.Document, target string) bool {
	if target == "" {
		return false
	}
	for _, s := range doc.Sections {
		if s.Path == target || strings.HasSuffix(s.Path, "/"+target) {
			return true
		}
	}
	return false
}

func hasTitle(doc *models.Document) bool {
	for _, s := range doc.Sections {
		if s.Level == 1 {
			return true
		}
	}
	return false
}
