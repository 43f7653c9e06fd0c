package classify

import (
	"regexp"

	"github.com/docreview/pkg/models"
)

// pattern is one weighted rule of a genre.
type pattern struct {
	re     *regexp.Regexp
	weight float64
	desc   string
}

// genre binds a document type to its ordered rule list and structural
// signal weights. The tables are data, not behavior: nothing varies per
// genre beyond the lookup.
type genre struct {
	docType     models.DocType
	rules       []pattern
	tableWeight float64 // score added per table in the document
	codeWeight  float64 // score added per code block in the document
}

func rule(expr string, weight float64, desc string) pattern {
	return pattern{re: regexp.MustCompile(`(?i)` + expr), weight: weight, desc: desc}
}

// genres is evaluated in order; the first genre reaching the maximum
// score wins, which keeps classification deterministic.
var genres = []genre{
	{
		docType: models.DocTypeReadme,
		rules: []pattern{
			rule(`readme`, 3, "mentions readme"),
			rule(`getting started`, 2, "getting-started section"),
			rule(`installation|install\b`, 2, "installation instructions"),
			rule(`\busage\b`, 1.5, "usage section"),
			rule(`\blicense\b`, 1, "license section"),
		},
	},
	{
		docType: models.DocTypeSOP,
		rules: []pattern{
			rule(`standard operating procedure|\bsop\b`, 3, "standard operating procedure"),
			rule(`\bprocedure\b`, 2, "procedure wording"),
			rule(`\bprerequisites\b`, 1.5, "prerequisites section"),
			rule(`step \d|^\d+\.\s`, 1, "numbered steps"),
		},
		codeWeight: 0.2,
	},
	{
		docType: models.DocTypeADR,
		rules: []pattern{
			rule(`architecture decision|\badr\b`, 3, "architecture decision record"),
			rule(`\bstatus\b`, 1, "status section"),
			rule(`\bcontext\b`, 1.5, "context section"),
			rule(`\bdecision\b`, 2, "decision section"),
			rule(`consequences`, 2, "consequences section"),
		},
		tableWeight: 0.3,
	},
	{
		docType: models.DocTypeRunbook,
		rules: []pattern{
			rule(`runbook`, 3, "runbook title"),
			rule(`\bincident\b`, 2, "incident handling"),
			rule(`\balert(s|ing)?\b`, 1.5, "alerting references"),
			rule(`escalat(e|ion)`, 1.5, "escalation path"),
			rule(`rollback`, 1.5, "rollback instructions"),
		},
		codeWeight: 0.3,
	},
	{
		docType: models.DocTypePricing,
		rules: []pattern{
			rule(`pricing`, 3, "pricing wording"),
			rule(`\bplans?\b`, 1.5, "plan tiers"),
			rule(`per (month|year|user|seat)`, 2, "per-unit pricing"),
			rule(`\$\d`, 2, "dollar amounts"),
			rule(`\btiers?\b`, 1.5, "tier wording"),
		},
		tableWeight: 0.5,
	},
	{
		docType: models.DocTypeChangelog,
		rules: []pattern{
			rule(`changelog|change log`, 3, "changelog title"),
			rule(`release notes`, 2.5, "release notes"),
			rule(`\bunreleased\b`, 2, "unreleased section"),
			rule(`v?\d+\.\d+\.\d+`, 1.5, "semantic version numbers"),
			rule(`\b(added|changed|fixed|deprecated)\b`, 0.5, "keep-a-changelog verbs"),
		},
	},
	{
		docType: models.DocTypeGuide,
		rules: []pattern{
			rule(`\bguide\b`, 2.5, "guide title"),
			rule(`tutorial`, 2.5, "tutorial wording"),
			rule(`how to\b`, 2, "how-to wording"),
			rule(`walkthrough`, 2, "walkthrough wording"),
			rule(`\bexamples?\b`, 1, "worked examples"),
		},
		codeWeight: 0.3,
	},
	{
		docType: models.DocTypeAPI,
		rules: []pattern{
			rule(`\bapi\b`, 2.5, "API wording"),
			rule(`\bendpoints?\b`, 2, "endpoint listing"),
			rule(`authentication|authorization`, 1.5, "auth section"),
			rule(`request|response`, 1, "request/response wording"),
			rule(`\b(get|post|put|patch|delete) /`, 2, "HTTP method routes"),
		},
		codeWeight: 0.3,
	},
	{
		docType: models.DocTypeContrib,
		rules: []pattern{
			rule(`contributing`, 3, "contributing title"),
			rule(`code of conduct`, 2, "code of conduct"),
			rule(`pull request`, 1.5, "pull request workflow"),
			rule(`development setup`, 1.5, "development setup"),
		},
	},
}
