package classify

import (
	"fmt"
	"strings"

	"github.com/docreview/pkg/models"
)

const (
	titleWeightFactor   = 2.0 // title matches are the strongest signal
	headingWeightFactor = 1.0
	contentWeightFactor = 0.3 // content matches are weak, prone to false positives
	baselineConfidence  = 0.3
	maxIndicators       = 5
)

// Classify scores a document against the genre tables and returns the
// best fit. A zero-signal document classifies as "other" with
// confidence 0, never an error.
func Classify(doc *models.Document) models.Classification {
	title := firstHeading(doc)
	headings := allHeadings(doc)
	content := allContent(doc)

	best := models.Classification{Type: models.DocTypeOther}
	bestScore := 0.0
	totalScore := 0.0

	for _, g := range genres {
		score, indicators := scoreGenre(g, doc, title, headings, content)
		totalScore += score
		if score > bestScore {
			bestScore = score
			best = models.Classification{Type: g.docType, Indicators: indicators}
		}
	}

	if bestScore == 0 {
		return models.Classification{Type: models.DocTypeOther}
	}

	confidence := bestScore/totalScore + baselineConfidence
	if confidence > 1 {
		confidence = 1
	}
	best.Confidence = confidence
	return best
}

func scoreGenre(g genre, doc *models.Document, title, headings, content string) (float64, []string) {
	score := 0.0
	var indicators []string

	add := func(points float64, desc string) {
		score += points
		if len(indicators) < maxIndicators {
			indicators = append(indicators, desc)
		}
	}

	for _, p := range g.rules {
		if title != "" && p.re.MatchString(title) {
			add(p.weight*titleWeightFactor, "title: "+p.desc)
		}
		if headings != "" && p.re.MatchString(headings) {
			add(p.weight*headingWeightFactor, "headings: "+p.desc)
		}
		if content != "" && p.re.MatchString(content) {
			add(p.weight*contentWeightFactor, "content: "+p.desc)
		}
	}

	if g.tableWeight > 0 && len(doc.Tables) > 0 {
		add(g.tableWeight*float64(len(doc.Tables)),
			fmt.Sprintf("structure: %d table(s)", len(doc.Tables)))
	}
	if g.codeWeight > 0 && len(doc.CodeBlocks) > 0 {
		add(g.codeWeight*float64(len(doc.CodeBlocks)),
			fmt.Sprintf("structure: %d code block(s)", len(doc.CodeBlocks)))
	}

	return score, indicators
}

func firstHeading(doc *models.Document) string {
	if len(doc.Sections) == 0 {
		return ""
	}
	return doc.Sections[0].Heading
}

func allHeadings(doc *models.Document) string {
	var sb strings.Builder
	for _, s := range doc.Sections {
		sb.WriteString(s.Heading)
		sb.WriteByte('\n')
	}
	return sb.String()
}

func allContent(doc *models.Document) string {
	var sb strings.Builder
	for _, s := range doc.Sections {
		sb.WriteString(s.Content)
		sb.WriteByte('\n')
	}
	return sb.String()
}
