package review

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docreview/pkg/models"
)

type fakeHost struct {
	mr       *MergeRequestData
	files    map[string]string // "ref:path" -> content
	comments []string
	statuses []models.CheckRun
	mrErr    error
}

func (h *fakeHost) MergeRequest(ctx context.Context, project string, iid int) (*MergeRequestData, error) {
	if h.mrErr != nil {
		return nil, h.mrErr
	}
	return h.mr, nil
}

func (h *fakeHost) FileContent(ctx context.Context, project, path, ref string) (string, bool, error) {
	content, ok := h.files[ref+":"+path]
	return content, ok, nil
}

func (h *fakeHost) PostComment(ctx context.Context, project string, iid int, body string) error {
	h.comments = append(h.comments, body)
	return nil
}

func (h *fakeHost) SetCommitStatus(ctx context.Context, project, sha string, run models.CheckRun) error {
	h.statuses = append(h.statuses, run)
	return nil
}

const newReadme = `# Acme Widget

Acme Widget is a command line tool for widget management.

## Installation

Run the installer script.

## Usage

| Flag | Meaning |
|------|---------|
| -v   | verbose |
`

func TestRunNewReadme(t *testing.T) {
	host := &fakeHost{
		mr: &MergeRequestData{
			PR:      models.PRContext{Title: "Add README", Author: "dev", FilesChanged: 1},
			BaseSHA: "base", HeadSHA: "head",
			Changes: []models.FileChange{
				{NewPath: "README.md", NewFile: true},
			},
		},
		files: map[string]string{"head:README.md": newReadme},
	}
	svc := NewService(host, NewSynthesizer(nil, DefaultLimits()))

	out, err := svc.Run(context.Background(), Request{Project: "acme/widget", MRIID: 7})

	require.NoError(t, err)
	assert.Equal(t, models.DocTypeReadme, out.Classification.Type)
	assert.GreaterOrEqual(t, out.Classification.Confidence, 0.3)
	assert.Equal(t, 3, out.Diff.Stats.Added)
	assert.Equal(t, models.VerdictApproved, out.Review.Verdict.Value)
	assert.LessOrEqual(t, out.Review.Verdict.Confidence, 0.82)

	var readmeItems int
	for _, e := range out.Review.Checklist {
		if e.Category == "readme" {
			readmeItems++
		}
	}
	assert.Equal(t, 4, readmeItems)

	require.Len(t, host.comments, 1)
	require.Len(t, host.statuses, 1)
	assert.Equal(t, "success", host.statuses[0].Conclusion)
}

func TestRunRemovedSection(t *testing.T) {
	oldDoc := "# Guide\n\nIntro text.\n\n## Setup\n\nInstall the dependencies before anything else.\n\n## Usage\n\nRun it.\n"
	newDoc := "# Guide\n\nIntro text.\n\n## Usage\n\nRun it.\n"

	host := &fakeHost{
		mr: &MergeRequestData{
			PR:      models.PRContext{Title: "Trim the guide", Body: "Dropping the setup docs."},
			BaseSHA: "base", HeadSHA: "head",
			Changes: []models.FileChange{{OldPath: "docs/guide.md", NewPath: "docs/guide.md"}},
		},
		files: map[string]string{
			"base:docs/guide.md": oldDoc,
			"head:docs/guide.md": newDoc,
		},
	}
	svc := NewService(host, NewSynthesizer(nil, DefaultLimits()))

	out, err := svc.Run(context.Background(), Request{Project: "acme/widget", MRIID: 8, DryRun: true})

	require.NoError(t, err)
	assert.Equal(t, models.DiffStats{Removed: 1}, out.Diff.Stats)
	assert.Empty(t, host.comments, "dry run must not post")
	assert.Empty(t, host.statuses)

	var sawRemovalItem bool
	for _, e := range out.Review.Checklist {
		if e.Category == "diff" && e.Priority == models.PriorityRequired {
			sawRemovalItem = true
		}
	}
	assert.True(t, sawRemovalItem)
}

func TestRunLinkToRemovedFile(t *testing.T) {
	host := &fakeHost{
		mr: &MergeRequestData{
			PR:      models.PRContext{Title: "Remove old setup doc"},
			BaseSHA: "base", HeadSHA: "head",
			Changes: []models.FileChange{
				{OldPath: "docs/old-setup.md", NewPath: "docs/old-setup.md", DeletedFile: true},
				{OldPath: "docs/guide.md", NewPath: "docs/guide.md"},
			},
		},
		files: map[string]string{
			"base:docs/old-setup.md": "# Old Setup\n\nLegacy steps.\n",
			"base:docs/guide.md":     "# Guide\n\nSee [setup](old-setup.md).\n",
			"head:docs/guide.md":     "# Guide\n\nSee [setup](docs/old-setup.md).\n",
		},
	}
	svc := NewService(host, NewSynthesizer(nil, DefaultLimits()))

	out, err := svc.Run(context.Background(), Request{Project: "p", MRIID: 9, DryRun: true})

	require.NoError(t, err)
	var sawRemovedLink bool
	for _, f := range out.Findings {
		if f.Severity == models.SeverityWarning && f.Category == "links" {
			sawRemovedLink = true
		}
	}
	assert.True(t, sawRemovedLink, "link to a deleted file should produce a warning")
}

func TestRunMixedChangePartitioning(t *testing.T) {
	host := &fakeHost{
		mr: &MergeRequestData{
			PR:      models.PRContext{Title: "Feature plus docs"},
			BaseSHA: "base", HeadSHA: "head",
			Changes: []models.FileChange{
				{NewPath: "README.md", NewFile: true},
				{NewPath: "main.go", Diff: "--- a/main.go\n+++ b/main.go\n+func main() {}\n-func old() {}\n"},
			},
		},
		files: map[string]string{"head:README.md": newReadme},
	}
	synth := NewSynthesizer(nil, DefaultLimits())
	svc := NewService(host, synth)

	out, err := svc.Run(context.Background(), Request{Project: "p", MRIID: 10, DryRun: true})

	require.NoError(t, err)
	assert.False(t, out.DocsOnly)
	// only the Markdown file contributes sections
	assert.Equal(t, 3, out.Diff.Stats.Added)
}

func TestRunGeneratesReviewID(t *testing.T) {
	host := &fakeHost{
		mr: &MergeRequestData{
			BaseSHA: "base", HeadSHA: "head",
			Changes: []models.FileChange{{NewPath: "README.md", NewFile: true}},
		},
		files: map[string]string{"head:README.md": newReadme},
	}
	svc := NewService(host, NewSynthesizer(nil, DefaultLimits()))

	out, err := svc.Run(context.Background(), Request{Project: "p", MRIID: 11, DryRun: true})

	require.NoError(t, err)
	assert.NotEmpty(t, out.ReviewID)
}

func TestRunSkipsWithoutDocumentationChanges(t *testing.T) {
	host := &fakeHost{
		mr: &MergeRequestData{
			BaseSHA: "base", HeadSHA: "head",
			Changes: []models.FileChange{{NewPath: "main.go", Diff: "+x\n"}},
		},
	}
	svc := NewService(host, NewSynthesizer(nil, DefaultLimits()))

	out, err := svc.Run(context.Background(), Request{Project: "p", MRIID: 13})

	require.NoError(t, err)
	assert.True(t, out.Skipped)
	assert.Empty(t, host.comments)
	assert.Empty(t, host.statuses)
}

func TestRunSurfacesHostError(t *testing.T) {
	host := &fakeHost{mrErr: fmt.Errorf("403 forbidden")}
	svc := NewService(host, NewSynthesizer(nil, DefaultLimits()))

	_, err := svc.Run(context.Background(), Request{Project: "p", MRIID: 12})

	assert.Error(t, err)
}

func TestCountDiffLines(t *testing.T) {
	diff := "--- a/x\n+++ b/x\n@@ -1,2 +1,2 @@\n-old line\n+new line\n+another\n context\n"
	adds, dels := countDiffLines(diff)
	assert.Equal(t, 2, adds)
	assert.Equal(t, 1, dels)
}
