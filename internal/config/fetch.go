package config

import "fmt"

const DefaultMaxRepos = 50

// FetchConfig controls which repositories a run collects and where it writes them
type FetchConfig struct {
	MaxRepos          int
	IncludeForks      bool
	SkipInactiveForks bool
	OutputFile        string
}

// DefaultFetchConfig returns the default fetch configuration
func DefaultFetchConfig() *FetchConfig {
	return &FetchConfig{
		MaxRepos:          DefaultMaxRepos,
		IncludeForks:      true,
		SkipInactiveForks: true,
	}
}

// OutputFileFor returns the configured output path, or one derived from the username.
func (c FetchConfig) OutputFileFor(username string) string {
	if c.OutputFile != "" {
		return c.OutputFile
	}
	return fmt.Sprintf("%s_github_portfolio.json", username)
}
