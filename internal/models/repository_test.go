package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRepositoryRecord_AllKeysPresent(t *testing.T) {
	data, err := json.Marshal(NewRepositoryRecord())
	require.NoError(t, err)

	var fields map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &fields))

	expected := []string{
		"name", "full_name", "description", "url", "homepage",
		"created_at", "updated_at", "pushed_at",
		"stars", "forks", "watchers", "open_issues",
		"language", "languages", "topics", "readme", "license",
		"is_fork", "is_archived", "default_branch",
		"file_structure", "recent_commits",
	}
	assert.Len(t, fields, len(expected))
	for _, key := range expected {
		assert.Contains(t, fields, key)
	}

	assert.Equal(t, map[string]interface{}{}, fields["languages"])
	assert.Equal(t, []interface{}{}, fields["topics"])
	assert.Equal(t, []interface{}{}, fields["file_structure"])
	assert.Equal(t, []interface{}{}, fields["recent_commits"])
	assert.Equal(t, "", fields["readme"])
	assert.Equal(t, "", fields["license"])
}
