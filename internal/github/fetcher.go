package github

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/Kamar-Folarin/github-portfolio/internal/models"
)

// recentCommitLimit is the number of commits kept per record and inspected per fork
const recentCommitLimit = 5

// RepositoryClient defines the GitHub API calls the fetcher is built on
type RepositoryClient interface {
	GetUserRepos(ctx context.Context, username string, maxRepos int) ([]RepositorySummary, error)
	GetRepoDetails(ctx context.Context, owner, repo string) (*RepositoryDetails, error)
	GetReadme(ctx context.Context, owner, repo string) (string, bool, error)
	GetRepoLanguages(ctx context.Context, owner, repo string) (map[string]int, error)
	GetRepoTopics(ctx context.Context, owner, repo string) ([]string, error)
	GetRecentCommits(ctx context.Context, owner, repo string, limit int) ([]Commit, error)
	GetRepoTree(ctx context.Context, owner, repo, branch string) ([]TreeEntry, error)
	GetFileContent(ctx context.Context, owner, repo, filePath string) (string, bool, error)
}

// ProgressFunc is called once per listed repository, whether it was kept, skipped or failed
type ProgressFunc func(done, total int, name string)

// FetchOptions controls which listed repositories are assembled into records
type FetchOptions struct {
	MaxRepos          int
	IncludeForks      bool
	SkipInactiveForks bool
	Progress          ProgressFunc
}

// Fetcher assembles repository records for a user. It holds no state between calls.
type Fetcher struct {
	client RepositoryClient
	logger *logrus.Logger
}

// NewFetcher creates a new fetcher on top of client
func NewFetcher(client RepositoryClient, logger *logrus.Logger) *Fetcher {
	return &Fetcher{
		client: client,
		logger: logger,
	}
}

// FetchCompleteRepoData fetches detail, README, languages, topics, recent commits
// and file tree of one repository, in that order, and merges them into a record.
// Missing resources leave their fields empty.
func (f *Fetcher) FetchCompleteRepoData(ctx context.Context, owner, repo string) (*models.RepositoryRecord, error) {
	f.logger.WithFields(logrus.Fields{
		"owner": owner,
		"repo":  repo,
	}).Infof("Fetching data for %s/%s...", owner, repo)

	details, err := f.client.GetRepoDetails(ctx, owner, repo)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch repository details: %w", err)
	}
	readme, _, err := f.client.GetReadme(ctx, owner, repo)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch readme: %w", err)
	}
	languages, err := f.client.GetRepoLanguages(ctx, owner, repo)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch languages: %w", err)
	}
	topics, err := f.client.GetRepoTopics(ctx, owner, repo)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch topics: %w", err)
	}
	commits, err := f.client.GetRecentCommits(ctx, owner, repo, recentCommitLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch commits: %w", err)
	}
	tree, err := f.client.GetRepoTree(ctx, owner, repo, "")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch file tree: %w", err)
	}

	return buildRecord(details, readme, languages, topics, commits, tree), nil
}

// FetchFileContent returns the decoded text of one file. ok is false when the
// file is missing or its content cannot be decoded as UTF-8 text.
func (f *Fetcher) FetchFileContent(ctx context.Context, owner, repo, filePath string) (string, bool, error) {
	content, ok, err := f.client.GetFileContent(ctx, owner, repo, filePath)
	if err != nil {
		return "", false, fmt.Errorf("failed to fetch file content: %w", err)
	}
	if !ok {
		f.logger.WithFields(logrus.Fields{
			"repo": owner + "/" + repo,
			"path": filePath,
		}).Info("File content unavailable")
	}
	return content, ok, nil
}

// FetchAllUserReposData lists the user's repositories, applies the fork filter and
// assembles a record for each kept repository in listing order. A repository that
// fails to assemble is logged and left out. On cancellation the records collected
// so far are returned along with the context error.
func (f *Fetcher) FetchAllUserReposData(ctx context.Context, username string, opts FetchOptions) ([]models.RepositoryRecord, error) {
	repos, err := f.client.GetUserRepos(ctx, username, opts.MaxRepos)
	if err != nil {
		return nil, fmt.Errorf("failed to list repositories: %w", err)
	}

	f.logger.WithFields(logrus.Fields{
		"username":            username,
		"repositories":        len(repos),
		"include_forks":       opts.IncludeForks,
		"skip_inactive_forks": opts.SkipInactiveForks,
	}).Info("Listed repositories")

	records := make([]models.RepositoryRecord, 0, len(repos))
	for i, repo := range repos {
		if err := ctx.Err(); err != nil {
			return records, err
		}

		record, err := f.fetchListed(ctx, username, repo, opts)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return records, ctxErr
			}
			f.logger.WithError(err).WithField("repo", repo.Name).Errorf("Error fetching %s", repo.Name)
		} else if record != nil {
			records = append(records, *record)
		}

		if opts.Progress != nil {
			opts.Progress(i+1, len(repos), repo.Name)
		}
	}

	return records, nil
}

// fetchListed returns nil without an error when the repository is filtered out
func (f *Fetcher) fetchListed(ctx context.Context, username string, repo RepositorySummary, opts FetchOptions) (*models.RepositoryRecord, error) {
	include, err := f.shouldInclude(ctx, username, repo, opts)
	if err != nil || !include {
		return nil, err
	}
	return f.FetchCompleteRepoData(ctx, repo.Owner.Login, repo.Name)
}

// shouldInclude applies the fork rules: non-forks are always kept, forks are dropped
// when forks are excluded, and with inactive-fork skipping a fork is kept only if
// one of its recent commits is attributable to username.
func (f *Fetcher) shouldInclude(ctx context.Context, username string, repo RepositorySummary, opts FetchOptions) (bool, error) {
	if !repo.Fork {
		return true, nil
	}
	if !opts.IncludeForks {
		f.logger.WithField("repo", repo.Name).Infof("Skipping fork: %s", repo.Name)
		return false, nil
	}
	if !opts.SkipInactiveForks {
		return true, nil
	}

	commits, err := f.client.GetRecentCommits(ctx, repo.Owner.Login, repo.Name, recentCommitLimit)
	if err != nil {
		return false, fmt.Errorf("failed to check fork activity: %w", err)
	}
	if !IsActiveFork(commits, username) {
		f.logger.WithField("repo", repo.Name).Infof("Skipping inactive fork: %s", repo.Name)
		return false, nil
	}
	return true, nil
}

// IsActiveFork reports whether any commit's author name, or the login of its
// linked author or committer account, equals username, ignoring case.
func IsActiveFork(commits []Commit, username string) bool {
	if username == "" {
		return false
	}
	for _, c := range commits {
		if strings.EqualFold(c.Commit.Author.Name, username) ||
			strings.EqualFold(c.AuthorLogin(), username) ||
			strings.EqualFold(c.CommitterLogin(), username) {
			return true
		}
	}
	return false
}

func buildRecord(details *RepositoryDetails, readme string, languages map[string]int, topics []string, commits []Commit, tree []TreeEntry) *models.RepositoryRecord {
	record := models.NewRepositoryRecord()
	if details == nil {
		details = &RepositoryDetails{}
	}

	record.Name = details.Name
	record.FullName = details.FullName
	record.Description = details.Description
	record.URL = details.HTMLURL
	record.Homepage = details.Homepage
	record.CreatedAt = details.CreatedAt
	record.UpdatedAt = details.UpdatedAt
	record.PushedAt = details.PushedAt
	record.Stars = details.StargazersCount
	record.Forks = details.ForksCount
	record.Watchers = details.WatchersCount
	record.OpenIssues = details.OpenIssuesCount
	record.Language = details.Language
	record.Readme = readme
	record.License = details.LicenseName()
	record.IsFork = details.Fork
	record.IsArchived = details.Archived
	record.DefaultBranch = details.DefaultBranch
	if record.DefaultBranch == "" {
		record.DefaultBranch = DefaultBranch
	}

	for name, bytes := range languages {
		record.Languages[name] = bytes
	}
	record.Topics = append(record.Topics, topics...)

	for _, entry := range tree {
		if entry.Type == TreeEntryBlob {
			record.FileStructure = append(record.FileStructure, entry.Path)
		}
	}
	for _, c := range commits {
		record.RecentCommits = append(record.RecentCommits, c.Summary())
	}

	return record
}
