package gitlabhost

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMergeRequestURL(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		project string
		iid     int
		wantErr bool
	}{
		{"full url", "https://gitlab.example.com/group/project/-/merge_requests/123", "group/project", 123, false},
		{"nested group", "https://gitlab.com/a/b/c/-/merge_requests/9", "a/b/c", 9, false},
		{"trailing slash", "https://gitlab.com/g/p/-/merge_requests/4/", "g/p", 4, false},
		{"shorthand", "group/project!55", "group/project", 55, false},
		{"no iid", "https://gitlab.com/g/p/-/merge_requests/", "", 0, true},
		{"not an mr url", "https://gitlab.com/g/p/-/issues/3", "", 0, true},
		{"garbage", "not a url", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			project, iid, err := ParseMergeRequestURL(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.project, project)
			assert.Equal(t, tt.iid, iid)
		})
	}
}

func TestCommitState(t *testing.T) {
	assert.Equal(t, "failed", string(commitState("failure")))
	assert.Equal(t, "success", string(commitState("success")))
	assert.Equal(t, "success", string(commitState("neutral")))
}
