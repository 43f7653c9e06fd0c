package webhookutils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetHeaderCaseInsensitive(t *testing.T) {
	headers := map[string]string{"X-Gitlab-Token": "s3cret"}

	v, ok := GetHeaderCaseInsensitive(headers, "X-GitLab-Token")
	assert.True(t, ok)
	assert.Equal(t, "s3cret", v)

	_, ok = GetHeaderCaseInsensitive(headers, "X-Gitlab-Event")
	assert.False(t, ok)
}

func TestSecretsEqual(t *testing.T) {
	assert.True(t, SecretsEqual("abc", "abc"))
	assert.False(t, SecretsEqual("abc", "abd"))
	assert.False(t, SecretsEqual("", "abc"))
}
