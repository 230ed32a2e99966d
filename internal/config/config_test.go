package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		t.Setenv("GITHUB_ACCESS_TOKEN", "test-token")
		t.Setenv("GITHUB_USERNAME", "octocat")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "test-token", cfg.GitHub.Token)
		assert.Equal(t, "octocat", cfg.GitHub.Username)
		assert.Equal(t, DefaultGitHubConfig().APIBaseURL, cfg.GitHub.APIBaseURL)
		assert.Equal(t, 120*time.Second, cfg.GitHub.Timeout)
		assert.Equal(t, *DefaultFetchConfig(), cfg.Fetch)
		assert.Equal(t, "8080", cfg.Server.Port)
		assert.NoError(t, cfg.Validate())
	})

	t.Run("falls back to GITHUB_TOKEN", func(t *testing.T) {
		t.Setenv("GITHUB_ACCESS_TOKEN", "")
		t.Setenv("GITHUB_TOKEN", "fallback-token")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "fallback-token", cfg.GitHub.Token)
	})

	t.Run("fetch overrides", func(t *testing.T) {
		t.Setenv("GITHUB_ACCESS_TOKEN", "test-token")
		t.Setenv("MAX_REPOS", "20")
		t.Setenv("INCLUDE_FORKS", "false")
		t.Setenv("SKIP_INACTIVE_FORKS", "0")
		t.Setenv("OUTPUT_FILE", "out.json")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, 20, cfg.Fetch.MaxRepos)
		assert.False(t, cfg.Fetch.IncludeForks)
		assert.False(t, cfg.Fetch.SkipInactiveForks)
		assert.Equal(t, "out.json", cfg.Fetch.OutputFileFor("octocat"))
	})

	t.Run("invalid values", func(t *testing.T) {
		t.Setenv("MAX_REPOS", "many")
		_, err := Load()
		assert.Error(t, err)

		t.Setenv("MAX_REPOS", "")
		t.Setenv("INCLUDE_FORKS", "sometimes")
		_, err = Load()
		assert.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	cfg := &Config{Fetch: *DefaultFetchConfig()}
	assert.Error(t, cfg.Validate())

	cfg.GitHub.Token = "test-token"
	assert.NoError(t, cfg.Validate())

	cfg.Fetch.MaxRepos = -1
	assert.Error(t, cfg.Validate())
}

func TestOutputFileFor(t *testing.T) {
	assert.Equal(t, "octocat_github_portfolio.json", FetchConfig{}.OutputFileFor("octocat"))
}
