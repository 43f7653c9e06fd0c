package review

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/docreview/internal/classify"
	"github.com/docreview/internal/inspect"
	"github.com/docreview/internal/logging"
	"github.com/docreview/internal/markdown"
	"github.com/docreview/internal/semdiff"
	"github.com/docreview/pkg/models"
)

// maxConcurrentFetches bounds in-flight file content requests per
// review.
const maxConcurrentFetches = 4

// MergeRequestData is everything the pipeline needs from the host about
// one merge request.
type MergeRequestData struct {
	PR      models.PRContext
	BaseSHA string
	HeadSHA string
	Changes []models.FileChange
}

// Host is the platform the pipeline reads merge requests from and
// posts results to. Posting the review comment and setting the commit
// status are the only writes; the PR description is never modified.
type Host interface {
	MergeRequest(ctx context.Context, project string, iid int) (*MergeRequestData, error)
	FileContent(ctx context.Context, project, path, ref string) (content string, exists bool, err error)
	PostComment(ctx context.Context, project string, iid int, body string) error
	SetCommitStatus(ctx context.Context, project, sha string, run models.CheckRun) error
}

// Request identifies one review to run.
type Request struct {
	Project  string
	MRIID    int
	ReviewID string // generated when empty
	DryRun   bool   // compute and render, post nothing
}

// Outcome is the full result of one pipeline run.
type Outcome struct {
	ReviewID       string
	Skipped        bool // no documentation files changed
	Review         models.StructuredReview
	Comment        string
	CheckRun       models.CheckRun
	Diff           models.SemanticDiff
	Classification models.Classification
	Findings       []models.Finding
	DocsOnly       bool
}

// Service wires the parsing, diffing, classification and synthesis
// stages into the per-merge-request pipeline.
type Service struct {
	host    Host
	synth   *Synthesizer
	diff    *semdiff.Engine
	maxAnno int
}

// NewService builds the pipeline around a host and a synthesizer.
func NewService(host Host, synth *Synthesizer) *Service {
	return &Service{
		host:    host,
		synth:   synth,
		diff:    semdiff.New(),
		maxAnno: MaxCheckAnnotations,
	}
}

// SetMoveThreshold overrides the similarity threshold for section move
// detection.
func (s *Service) SetMoveThreshold(threshold float64) {
	if threshold > 0 {
		s.diff = semdiff.NewWithThreshold(threshold)
	}
}

// Run executes the full review pipeline for one merge request.
func (s *Service) Run(ctx context.Context, req Request) (*Outcome, error) {
	if req.ReviewID == "" {
		req.ReviewID = uuid.NewString()
	}
	logger := logging.ForReview(req.ReviewID, req.Project)

	mr, err := s.host.MergeRequest(ctx, req.Project, req.MRIID)
	if err != nil {
		return nil, fmt.Errorf("fetching merge request %s!%d: %w", req.Project, req.MRIID, err)
	}

	docChanges, codeFiles := partitionChanges(mr.Changes)
	if len(docChanges) == 0 {
		logger.Info().Msg("no documentation changes, skipping review")
		return &Outcome{ReviewID: req.ReviewID, Skipped: true}, nil
	}
	logger.Info().Int("doc_files", len(docChanges)).Int("code_files", len(codeFiles)).
		Str("head", mr.HeadSHA).Msg("starting review")

	pairs, err := s.fetchDocumentPairs(ctx, req.Project, mr, docChanges)
	if err != nil {
		return nil, err
	}

	outcome := s.analyze(logger, mr, pairs, codeFiles)
	outcome.ReviewID = req.ReviewID

	review := s.synth.Synthesize(ctx, SynthesisInput{
		PR:             mr.PR,
		Classification: outcome.Classification,
		Diff:           outcome.Diff,
		Findings:       outcome.Findings,
		CodeChanges:    codeChangesFor(codeFiles),
		DocsOnly:       outcome.DocsOnly,
	})
	ApplyGuardrails(&review, outcome.Diff, outcome.Findings)

	outcome.Review = review
	outcome.Comment = RenderComment(&review, outcome.Findings)
	outcome.CheckRun = BuildCheckRun(&review, outcome.Findings)

	if req.DryRun {
		logger.Info().Str("verdict", string(review.Verdict.Value)).Msg("dry run, not posting")
		return outcome, nil
	}

	if err := s.host.PostComment(ctx, req.Project, req.MRIID, outcome.Comment); err != nil {
		return nil, fmt.Errorf("posting review comment: %w", err)
	}
	if err := s.host.SetCommitStatus(ctx, req.Project, mr.HeadSHA, outcome.CheckRun); err != nil {
		logger.Warn().Err(err).Msg("setting commit status failed, comment already posted")
	}

	logger.Info().Str("verdict", string(review.Verdict.Value)).
		Float64("confidence", review.Verdict.Confidence).Msg("review posted")
	return outcome, nil
}

// documentPair holds both revisions of one changed Markdown file.
// Either document may be nil when the file is new or deleted.
type documentPair struct {
	path    string
	oldDoc  *models.Document
	newDoc  *models.Document
	deleted bool
}

// fetchDocumentPairs loads base and head revisions of each changed
// Markdown file concurrently and parses them.
func (s *Service) fetchDocumentPairs(ctx context.Context, project string, mr *MergeRequestData, changes []models.FileChange) ([]documentPair, error) {
	pairs := make([]documentPair, len(changes))
	errs := make([]error, len(changes))
	sem := make(chan struct{}, maxConcurrentFetches)

	var wg sync.WaitGroup
	for i, change := range changes {
		wg.Add(1)
		go func(i int, change models.FileChange) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			pair := documentPair{path: change.NewPath, deleted: change.DeletedFile}
			if change.DeletedFile {
				pair.path = change.OldPath
			}

			if !change.NewFile {
				content, exists, err := s.host.FileContent(ctx, project, change.OldPath, mr.BaseSHA)
				if err != nil {
					errs[i] = fmt.Errorf("fetching %s@%s: %w", change.OldPath, mr.BaseSHA, err)
					return
				}
				if exists {
					pair.oldDoc = markdown.Parse(content, change.OldPath)
				}
			}
			if !change.DeletedFile {
				content, exists, err := s.host.FileContent(ctx, project, change.NewPath, mr.HeadSHA)
				if err != nil {
					errs[i] = fmt.Errorf("fetching %s@%s: %w", change.NewPath, mr.HeadSHA, err)
					return
				}
				if exists {
					pair.newDoc = markdown.Parse(content, change.NewPath)
				}
			}
			pairs[i] = pair
		}(i, change)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return pairs, nil
}

// analyze runs per-file diff and inspection, aggregates the results and
// classifies the primary document.
func (s *Service) analyze(logger zerolog.Logger, mr *MergeRequestData, pairs []documentPair, codeFiles []models.FileChange) *Outcome {
	outcome := &Outcome{DocsOnly: len(codeFiles) == 0}

	// keyed the way parsed link targets are normalized: extension stripped
	removedFiles := make(map[string]bool)
	for _, p := range pairs {
		if p.deleted {
			removedFiles[stripMarkdownExt(p.path)] = true
		}
	}

	var primary *models.Document
	for _, p := range pairs {
		oldDoc, newDoc := p.oldDoc, p.newDoc
		if oldDoc == nil {
			oldDoc = &models.Document{FilePath: p.path}
		}
		if newDoc == nil {
			newDoc = &models.Document{FilePath: p.path}
		}

		fileDiff := s.diff.Diff(oldDoc, newDoc)
		outcome.Diff.Changes = append(outcome.Diff.Changes, fileDiff.Changes...)
		outcome.Diff.Stats.Added += fileDiff.Stats.Added
		outcome.Diff.Stats.Removed += fileDiff.Stats.Removed
		outcome.Diff.Stats.Modified += fileDiff.Stats.Modified
		outcome.Diff.Stats.Moved += fileDiff.Stats.Moved

		if p.newDoc != nil {
			outcome.Findings = append(outcome.Findings, inspect.Document(p.newDoc, removedFiles)...)
			if primary == nil || len(p.newDoc.Sections) > len(primary.Sections) {
				primary = p.newDoc
			}
		}
	}

	if primary != nil {
		outcome.Classification = classify.Classify(primary)
	} else {
		outcome.Classification = models.Classification{Type: models.DocTypeOther}
	}

	logger.Info().
		Int("added", outcome.Diff.Stats.Added).
		Int("removed", outcome.Diff.Stats.Removed).
		Int("modified", outcome.Diff.Stats.Modified).
		Int("moved", outcome.Diff.Stats.Moved).
		Str("doc_type", string(outcome.Classification.Type)).
		Int("findings", len(outcome.Findings)).
		Msg("analysis complete")
	return outcome
}

// partitionChanges splits a merge request's file list into Markdown
// documents and everything else.
func partitionChanges(changes []models.FileChange) (docs, code []models.FileChange) {
	for _, c := range changes {
		if isMarkdownPath(c.NewPath) || (c.DeletedFile && isMarkdownPath(c.OldPath)) {
			docs = append(docs, c)
		} else {
			code = append(code, c)
		}
	}
	return docs, code
}

func isMarkdownPath(path string) bool {
	lower := strings.ToLower(path)
	return strings.HasSuffix(lower, ".md") || strings.HasSuffix(lower, ".markdown")
}

func stripMarkdownExt(path string) string {
	lower := strings.ToLower(path)
	for _, ext := range []string{".md", ".markdown"} {
		if strings.HasSuffix(lower, ext) {
			return path[:len(path)-len(ext)]
		}
	}
	return path
}

// codeChangesFor converts raw file diffs into prompt excerpts, counting
// additions and deletions from the unified diff.
func codeChangesFor(files []models.FileChange) []models.CodeChange {
	var out []models.CodeChange
	for _, f := range files {
		adds, dels := countDiffLines(f.Diff)
		out = append(out, models.CodeChange{
			FilePath:  f.NewPath,
			Patch:     f.Diff,
			Additions: adds,
			Deletions: dels,
		})
	}
	return out
}

func countDiffLines(diff string) (adds, dels int) {
	for _, line := range strings.Split(diff, "\n") {
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
		case strings.HasPrefix(line, "+"):
			adds++
		case strings.HasPrefix(line, "-"):
			dels++
		}
	}
	return adds, dels
}
