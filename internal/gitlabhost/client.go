// Package gitlabhost adapts the GitLab API to the review pipeline's
// host interface.
package gitlabhost

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	gitlab "gitlab.com/gitlab-org/api/client-go"

	"github.com/docreview/internal/review"
	"github.com/docreview/pkg/models"
)

// Client talks to one GitLab instance on behalf of the pipeline.
type Client struct {
	gl *gitlab.Client
}

// New builds a client for the instance at baseURL (e.g.
// "https://gitlab.example.com") authenticated with a personal access
// token.
func New(baseURL, token string) (*Client, error) {
	gl, err := gitlab.NewClient(token, gitlab.WithBaseURL(strings.TrimSuffix(baseURL, "/")+"/api/v4"))
	if err != nil {
		return nil, fmt.Errorf("building gitlab client: %w", err)
	}
	return &Client{gl: gl}, nil
}

// MergeRequest loads the merge request metadata and its file-level
// diffs.
func (c *Client) MergeRequest(ctx context.Context, project string, iid int) (*review.MergeRequestData, error) {
	mr, _, err := c.gl.MergeRequests.GetMergeRequest(project, iid, nil, gitlab.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("merge request %s!%d: %w", project, iid, err)
	}

	data := &review.MergeRequestData{
		PR: models.PRContext{
			Title:        mr.Title,
			Body:         mr.Description,
			SourceBranch: mr.SourceBranch,
			TargetBranch: mr.TargetBranch,
		},
	}
	if mr.Author != nil {
		data.PR.Author = mr.Author.Username
	}
	if mr.DiffRefs != (gitlab.MergeRequest{}).DiffRefs {
		data.BaseSHA = mr.DiffRefs.BaseSha
		data.HeadSHA = mr.DiffRefs.HeadSha
	}
	if data.HeadSHA == "" {
		data.HeadSHA = mr.SHA
	}

	opt := &gitlab.ListMergeRequestDiffsOptions{
		ListOptions: gitlab.ListOptions{PerPage: 100},
	}
	for {
		diffs, resp, err := c.gl.MergeRequests.ListMergeRequestDiffs(project, iid, opt, gitlab.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("merge request diffs %s!%d: %w", project, iid, err)
		}
		for _, d := range diffs {
			data.Changes = append(data.Changes, models.FileChange{
				OldPath:     d.OldPath,
				NewPath:     d.NewPath,
				Diff:        d.Diff,
				NewFile:     d.NewFile,
				DeletedFile: d.DeletedFile,
				RenamedFile: d.RenamedFile,
			})
		}
		if resp.NextPage == 0 {
			break
		}
		opt.Page = resp.NextPage
	}

	data.PR.FilesChanged = len(data.Changes)
	return data, nil
}

// FileContent fetches one file at a ref. A missing file is reported as
// absent, not as an error.
func (c *Client) FileContent(ctx context.Context, project, path, ref string) (string, bool, error) {
	raw, resp, err := c.gl.RepositoryFiles.GetRawFile(project, path,
		&gitlab.GetRawFileOptions{Ref: gitlab.Ptr(ref)}, gitlab.WithContext(ctx))
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return "", false, nil
		}
		return "", false, fmt.Errorf("file %s@%s: %w", path, ref, err)
	}
	return string(raw), true, nil
}

// PostComment posts the rendered review as a merge request note.
func (c *Client) PostComment(ctx context.Context, project string, iid int, body string) error {
	_, _, err := c.gl.Notes.CreateMergeRequestNote(project, iid,
		&gitlab.CreateMergeRequestNoteOptions{Body: gitlab.Ptr(body)}, gitlab.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("posting note on %s!%d: %w", project, iid, err)
	}
	return nil
}

// SetCommitStatus publishes the check-run conclusion as a commit
// status on the head SHA.
func (c *Client) SetCommitStatus(ctx context.Context, project, sha string, run models.CheckRun) error {
	_, _, err := c.gl.Commits.SetCommitStatus(project, sha, &gitlab.SetCommitStatusOptions{
		State:       commitState(run.Conclusion),
		Name:        gitlab.Ptr(run.Title),
		Description: gitlab.Ptr(run.Summary),
	}, gitlab.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("setting commit status on %s@%s: %w", project, sha, err)
	}
	return nil
}

// commitState maps check-run conclusions onto GitLab commit states.
// GitLab has no neutral state, so a neutral conclusion reports success.
func commitState(conclusion string) gitlab.BuildStateValue {
	if conclusion == "failure" {
		return gitlab.Failed
	}
	return gitlab.Success
}

var mrURLRe = regexp.MustCompile(`^(?:https?://[^/]+/)?(.+?)/-/merge_requests/(\d+)/?$`)

// ParseMergeRequestURL extracts the project path and MR IID from a
// merge request web URL or a "group/project!123" shorthand.
func ParseMergeRequestURL(raw string) (project string, iid int, err error) {
	raw = strings.TrimSpace(raw)

	if i := strings.LastIndexByte(raw, '!'); i > 0 && !strings.Contains(raw, "/-/") {
		n, convErr := strconv.Atoi(raw[i+1:])
		if convErr == nil {
			return raw[:i], n, nil
		}
	}

	m := mrURLRe.FindStringSubmatch(raw)
	if m == nil {
		return "", 0, fmt.Errorf("%q is not a merge request URL", raw)
	}
	n, convErr := strconv.Atoi(m[2])
	if convErr != nil {
		return "", 0, fmt.Errorf("%q is not a merge request URL", raw)
	}
	return m[1], n, nil
}
