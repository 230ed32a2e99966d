package config

import "time"

const (
	DefaultAPIBaseURL     = "https://api.github.com"
	DefaultTimeoutSeconds = 120
)

// GitHubConfig holds GitHub-specific configuration.
// Token is a secret and must never be logged.
type GitHubConfig struct {
	Token      string
	Username   string
	APIBaseURL string
	Timeout    time.Duration
}

// DefaultGitHubConfig returns the default GitHub configuration
func DefaultGitHubConfig() *GitHubConfig {
	return &GitHubConfig{
		APIBaseURL: DefaultAPIBaseURL,
		Timeout:    DefaultTimeoutSeconds * time.Second,
	}
}

func secondsToDuration(seconds int) time.Duration {
	return time.Duration(seconds) * time.Second
}
