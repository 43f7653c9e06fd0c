package semdiff

import (
	"strings"

	"github.com/docreview/pkg/models"
)

// MoveSimilarityThreshold is the minimum content similarity for an
// old/new section pair to be reported as a single move instead of a
// remove+add pair. Kept as-is for behavior compatibility.
const MoveSimilarityThreshold = 0.8

// Engine computes section-level semantic diffs.
type Engine struct {
	moveThreshold float64
}

// New returns an Engine with the default move threshold.
func New() *Engine {
	return &Engine{moveThreshold: MoveSimilarityThreshold}
}

// NewWithThreshold returns an Engine with a custom move threshold.
func NewWithThreshold(threshold float64) *Engine {
	if threshold <= 0 || threshold > 1 {
		threshold = MoveSimilarityThreshold
	}
	return &Engine{moveThreshold: threshold}
}

// Diff compares two revisions of one document. Matching is path-keyed:
// unchanged paths are not reported, and every old path and new path
// participates in at most one change record.
func (e *Engine) Diff(oldDoc, newDoc *models.Document) models.SemanticDiff {
	var diff models.SemanticDiff

	oldByPath := map[string]*models.Section{}
	for i := range oldDoc.Sections {
		oldByPath[oldDoc.Sections[i].Path] = &oldDoc.Sections[i]
	}
	newByPath := map[string]*models.Section{}
	for i := range newDoc.Sections {
		newByPath[newDoc.Sections[i].Path] = &newDoc.Sections[i]
	}

	// Paths present in both revisions: unchanged or modified.
	var oldOnly []*models.Section
	for i := range oldDoc.Sections {
		oldSec := &oldDoc.Sections[i]
		newSec, ok := newByPath[oldSec.Path]
		if !ok {
			oldOnly = append(oldOnly, oldSec)
			continue
		}
		if oldSec.Fingerprint == newSec.Fingerprint {
			continue
		}
		diff.Changes = append(diff.Changes, models.SectionChange{
			Type:       models.ChangeModified,
			OldPath:    oldSec.Path,
			NewPath:    newSec.Path,
			OldHeading: oldSec.Heading,
			NewHeading: newSec.Heading,
			Similarity: Similarity(oldSec.Content, newSec.Content),
		})
		diff.Stats.Modified++
	}

	var newOnly []*models.Section
	for i := range newDoc.Sections {
		newSec := &newDoc.Sections[i]
		if _, ok := oldByPath[newSec.Path]; !ok {
			newOnly = append(newOnly, newSec)
		}
	}

	// Before finalizing removals, look for a new-only section whose
	// content is close enough to count as a move of the old one.
	movedNew := map[string]bool{}
	for _, oldSec := range oldOnly {
		var best *models.Section
		bestScore := 0.0
		for _, cand := range newOnly {
			if movedNew[cand.Path] {
				continue
			}
			score := Similarity(oldSec.Content, cand.Content)
			if score >= e.moveThreshold && score > bestScore {
				best = cand
				bestScore = score
			}
		}
		if best != nil {
			movedNew[best.Path] = true
			diff.Changes = append(diff.Changes, models.SectionChange{
				Type:       models.ChangeMoved,
				OldPath:    oldSec.Path,
				NewPath:    best.Path,
				OldHeading: oldSec.Heading,
				NewHeading: best.Heading,
				Similarity: bestScore,
			})
			diff.Stats.Moved++
			continue
		}
		diff.Changes = append(diff.Changes, models.SectionChange{
			Type:       models.ChangeRemoved,
			OldPath:    oldSec.Path,
			OldHeading: oldSec.Heading,
		})
		diff.Stats.Removed++
	}

	for _, newSec := range newOnly {
		if movedNew[newSec.Path] {
			continue
		}
		diff.Changes = append(diff.Changes, models.SectionChange{
			Type:       models.ChangeAdded,
			NewPath:    newSec.Path,
			NewHeading: newSec.Heading,
		})
		diff.Stats.Added++
	}

	return diff
}

// Similarity scores two texts by the fraction of case-folded words the
// smaller side shares with the larger: cheap, order-insensitive and
// whitespace-robust. Empty input on either side scores 0.
func Similarity(a, b string) float64 {
	setA := wordSet(a)
	setB := wordSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	intersection := 0
	for w := range setA {
		if setB[w] {
			intersection++
		}
	}
	smaller := len(setA)
	if len(setB) < smaller {
		smaller = len(setB)
	}
	return float64(intersection) / float64(smaller)
}

func wordSet(s string) map[string]bool {
	set := map[string]bool{}
	for _, w := range strings.Fields(strings.ToLower(s)) {
		set[w] = true
	}
	return set
}

// LikelyReorganization judges whether a diff looks like bulk
// repositioning rather than deletion: a non-empty moved set alongside
// co-occurring adds and removes.
func LikelyReorganization(diff models.SemanticDiff) bool {
	return diff.Stats.Moved > 0 && diff.Stats.Added > 0 && diff.Stats.Removed > 0
}
