package inspect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docreview/internal/markdown"
	"github.com/docreview/pkg/models"
)

func TestDocumentFlagsBrokenFragment(t *testing.T) {
	doc := markdown.Parse("# Title\n\nSee [setup](#setup).\n\n## Install\n\ntext\n", "guide.md")

	findings := Document(doc, nil)

	require.Len(t, findings, 1)
	assert.Equal(t, models.SeverityWarning, findings[0].Severity)
	assert.Equal(t, "links", findings[0].Category)
	assert.Equal(t, "guide.md", findings[0].File)
}

func TestDocumentResolvesFragmentBySlugSuffix(t *testing.T) {
	doc := markdown.Parse("# Title\n\nSee [install](#install).\n\n## Install\n\ntext\n", "guide.md")

	findings := Document(doc, nil)

	assert.Empty(t, findings)
}

func TestDocumentFlagsLinkToRemovedFile(t *testing.T) {
	doc := markdown.Parse("# Title\n\nSee [old notes](notes/old.md).\n", "guide.md")

	findings := Document(doc, map[string]bool{"notes/old": true})

	require.Len(t, findings, 1)
	assert.Contains(t, findings[0].Message, "removed in this change")
}

func TestDocumentIgnoresExternalLinks(t *testing.T) {
	doc := markdown.Parse("# Title\n\nSee [site](https://example.com/missing).\n", "guide.md")

	assert.Empty(t, Document(doc, nil))
}

func TestDocumentFlagsMissingTitle(t *testing.T) {
	doc := markdown.Parse("## Only Subsection\n\ntext\n", "notes.md")

	findings := Document(doc, nil)

	require.Len(t, findings, 1)
	assert.Equal(t, models.SeverityInfo, findings[0].Severity)
	assert.Equal(t, "structure", findings[0].Category)
}
