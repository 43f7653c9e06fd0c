package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docreview/internal/markdown"
	"github.com/docreview/pkg/models"
)

const readmeDoc = `# Acme README

A small tool.

## Getting Started

Install it with the usual steps.

## Usage

| Flag | Meaning |
|------|---------|
| -v   | verbose |

## License

MIT.
`

func TestClassifyReadme(t *testing.T) {
	doc := markdown.Parse(readmeDoc, "README.md")

	cls := Classify(doc)

	assert.Equal(t, models.DocTypeReadme, cls.Type)
	assert.GreaterOrEqual(t, cls.Confidence, 0.3)
	assert.LessOrEqual(t, cls.Confidence, 1.0)
	assert.NotEmpty(t, cls.Indicators)
	assert.LessOrEqual(t, len(cls.Indicators), 5)
}

func TestClassifyRunbook(t *testing.T) {
	src := "# Payments Runbook\n\n## Alerts\n\nWhen the pager fires, check the queue.\n\n## Escalation\n\nPage the on-call lead.\n\n## Rollback\n\n```sh\nkubectl rollout undo deploy/payments\n```\n"
	cls := Classify(markdown.Parse(src, "runbook.md"))

	assert.Equal(t, models.DocTypeRunbook, cls.Type)
	assert.GreaterOrEqual(t, cls.Confidence, 0.3)
}

func TestClassifyADR(t *testing.T) {
	src := "# ADR 0004: Use Postgres\n\n## Status\n\nAccepted\n\n## Context\n\nWe need a relational store.\n\n## Decision\n\nPostgres.\n\n## Consequences\n\nOperational overhead.\n"
	cls := Classify(markdown.Parse(src, "adr/0004.md"))

	assert.Equal(t, models.DocTypeADR, cls.Type)
}

func TestClassifyChangelog(t *testing.T) {
	src := "# Changelog\n\n## Unreleased\n\n- Added retry logic\n\n## v1.2.3\n\n- Fixed a crash\n"
	cls := Classify(markdown.Parse(src, "CHANGELOG.md"))

	assert.Equal(t, models.DocTypeChangelog, cls.Type)
}

func TestClassifyZeroSignalIsOther(t *testing.T) {
	cls := Classify(markdown.Parse("# zzz\n\nqqq www\n", "misc.md"))

	assert.Equal(t, models.DocTypeOther, cls.Type)
	assert.Equal(t, 0.0, cls.Confidence)
	assert.Empty(t, cls.Indicators)
}

func TestClassifyEmptyDocument(t *testing.T) {
	cls := Classify(markdown.Parse("", "empty.md"))

	assert.Equal(t, models.DocTypeOther, cls.Type)
	assert.Equal(t, 0.0, cls.Confidence)
}

func TestClassifyDeterminism(t *testing.T) {
	doc := markdown.Parse(readmeDoc, "README.md")

	first := Classify(doc)
	second := Classify(doc)

	require.Equal(t, first.Type, second.Type)
	assert.Equal(t, first.Confidence, second.Confidence)
	assert.Equal(t, first.Indicators, second.Indicators)
}

func TestClassifyConfidenceBounds(t *testing.T) {
	docs := []string{
		readmeDoc,
		"# Pricing\n\n| Plan | $ |\n|---|---|\n| Pro | $9 |\n\n$10 per month\n",
		"# Guide\n\nA tutorial on how to do things.\n",
		"",
	}
	for _, src := range docs {
		cls := Classify(markdown.Parse(src, "doc.md"))
		assert.GreaterOrEqual(t, cls.Confidence, 0.0)
		assert.LessOrEqual(t, cls.Confidence, 1.0)
	}
}
