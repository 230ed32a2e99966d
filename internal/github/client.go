package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

const (
	acceptJSON   = "application/vnd.github.v3+json"
	acceptTopics = "application/vnd.github.mercy-preview+json"

	defaultBaseURL  = "https://api.github.com"
	defaultPageSize = 100
	defaultTimeout  = 120 * time.Second

	DefaultBranch  = "main"
	FallbackBranch = "master"
)

// RateLimitInfo holds the rate limit headers of the last response
type RateLimitInfo struct {
	Limit     int
	Remaining int
	ResetTime time.Time
}

// GitHubClient issues authenticated GET requests against the GitHub REST API.
// Resource methods degrade to an empty value on non-2xx statuses and transport
// failures; they only return an error for invalid input, cancellation, or a
// 2xx body that cannot be decoded. A client is safe for concurrent use.
type GitHubClient struct {
	client   *http.Client
	baseURL  string
	pageSize int
	logger   *logrus.Logger

	mu            sync.Mutex
	rateLimitInfo RateLimitInfo
}

// ClientOption allows configuring the GitHub client
type ClientOption func(*GitHubClient)

// WithBaseURL points the client at a different API root, e.g. GitHub Enterprise or a test server
func WithBaseURL(baseURL string) ClientOption {
	return func(c *GitHubClient) {
		if baseURL != "" {
			c.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithPageSize sets the per_page value used when listing repositories
func WithPageSize(size int) ClientOption {
	return func(c *GitHubClient) {
		if size > 0 {
			c.pageSize = size
		}
	}
}

// WithTimeout sets the transport timeout for a single request
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *GitHubClient) {
		if timeout > 0 {
			c.client.Timeout = timeout
		}
	}
}

// NewGitHubClient creates a new GitHub client with the given token and options
func NewGitHubClient(token string, logger *logrus.Logger, opts ...ClientOption) *GitHubClient {
	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)
	httpClient := oauth2.NewClient(context.Background(), ts)
	httpClient.Timeout = defaultTimeout

	client := &GitHubClient{
		client:   httpClient,
		baseURL:  defaultBaseURL,
		pageSize: defaultPageSize,
		logger:   logger,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// RateLimit returns the rate limit state reported by the last response
func (c *GitHubClient) RateLimit() RateLimitInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rateLimitInfo
}

// updateRateLimitInfo updates the rate limit information from response headers
// and returns the resulting state
func (c *GitHubClient) updateRateLimitInfo(resp *http.Response) RateLimitInfo {
	c.mu.Lock()
	defer c.mu.Unlock()

	if limit := resp.Header.Get("X-RateLimit-Limit"); limit != "" {
		c.rateLimitInfo.Limit, _ = strconv.Atoi(limit)
	}
	if remaining := resp.Header.Get("X-RateLimit-Remaining"); remaining != "" {
		c.rateLimitInfo.Remaining, _ = strconv.Atoi(remaining)
	}
	if reset := resp.Header.Get("X-RateLimit-Reset"); reset != "" {
		if resetTime, err := strconv.ParseInt(reset, 10, 64); err == nil {
			c.rateLimitInfo.ResetTime = time.Unix(resetTime, 0)
		}
	}
	return c.rateLimitInfo
}

// get performs a single GET and returns the status code and body.
// An error is only returned when no response was received.
func (c *GitHubClient) get(ctx context.Context, path string, query url.Values, accept string) (int, []byte, error) {
	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", accept)

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	if rateLimit := c.updateRateLimitInfo(resp); rateLimit.Remaining > 0 {
		c.logger.WithField("rate_limit_remaining", rateLimit.Remaining).Debug("Rate limit info")
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, err
	}
	return resp.StatusCode, body, nil
}

// getJSON fetches path and decodes a successful body into out. It reports
// false with a nil error when the resource should degrade to its empty value.
func (c *GitHubClient) getJSON(ctx context.Context, resource, path string, query url.Values, accept string, out interface{}) (bool, error) {
	logger := c.logger.WithFields(logrus.Fields{
		"resource": resource,
		"path":     path,
	})

	status, body, err := c.get(ctx, path, query, accept)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return false, ctxErr
		}
		logger.WithError(err).Warn("Request failed")
		return false, nil
	}

	if status < 200 || status >= 300 {
		logger.WithField("status", status).Debug("Resource unavailable")
		return false, nil
	}

	if err := json.Unmarshal(body, out); err != nil {
		return false, NewGitHubError(status, fmt.Sprintf("failed to decode %s response", resource), err)
	}
	return true, nil
}

// GetUserRepos lists up to maxRepos repositories of username, most recently updated first.
// Paging stops at maxRepos, an empty page, a short page, or a failed request.
func (c *GitHubClient) GetUserRepos(ctx context.Context, username string, maxRepos int) ([]RepositorySummary, error) {
	if username == "" {
		return nil, NewValidationError("username", "cannot be empty")
	}
	if maxRepos < 0 {
		maxRepos = 0
	}

	path := "/users/" + url.PathEscape(username) + "/repos"
	repos := make([]RepositorySummary, 0)

	for page := 1; len(repos) < maxRepos; page++ {
		query := url.Values{}
		query.Set("per_page", strconv.Itoa(c.pageSize))
		query.Set("page", strconv.Itoa(page))
		query.Set("sort", "updated")
		query.Set("direction", "desc")

		status, body, err := c.get(ctx, path, query, acceptJSON)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			c.logger.WithError(err).WithField("page", page).Warn("Error fetching repos")
			break
		}
		if status != http.StatusOK {
			c.logger.WithFields(logrus.Fields{
				"page":   page,
				"status": status,
			}).Warn("Error fetching repos")
			break
		}

		var batch []RepositorySummary
		if err := json.Unmarshal(body, &batch); err != nil {
			return nil, NewGitHubError(status, "failed to decode repository listing", err)
		}
		if len(batch) == 0 {
			break
		}

		repos = append(repos, batch...)
		if len(batch) < c.pageSize {
			break
		}
	}

	if len(repos) > maxRepos {
		repos = repos[:maxRepos]
	}
	return repos, nil
}

// GetRepoDetails gets the repository resource; a zero value is returned when it is unavailable
func (c *GitHubClient) GetRepoDetails(ctx context.Context, owner, repo string) (*RepositoryDetails, error) {
	if err := validateRepo(owner, repo); err != nil {
		return nil, err
	}

	var details RepositoryDetails
	if _, err := c.getJSON(ctx, "repository details", repoPath(owner, repo, ""), nil, acceptJSON, &details); err != nil {
		return nil, err
	}
	return &details, nil
}

// GetReadme fetches and decodes the repository README
func (c *GitHubClient) GetReadme(ctx context.Context, owner, repo string) (string, bool, error) {
	if err := validateRepo(owner, repo); err != nil {
		return "", false, err
	}

	var content ContentResponse
	ok, err := c.getJSON(ctx, "readme", repoPath(owner, repo, "/readme"), nil, acceptJSON, &content)
	if err != nil || !ok {
		return "", false, err
	}

	text, err := decodeContent(content.Content)
	if err != nil {
		c.logger.WithError(err).WithField("repo", owner+"/"+repo).Debug("Failed to decode README")
		return "", false, nil
	}
	return text, true, nil
}

// GetRepoLanguages returns the language to byte count breakdown
func (c *GitHubClient) GetRepoLanguages(ctx context.Context, owner, repo string) (map[string]int, error) {
	if err := validateRepo(owner, repo); err != nil {
		return nil, err
	}

	languages := map[string]int{}
	ok, err := c.getJSON(ctx, "languages", repoPath(owner, repo, "/languages"), nil, acceptJSON, &languages)
	if err != nil {
		return nil, err
	}
	if !ok || languages == nil {
		return map[string]int{}, nil
	}
	return languages, nil
}

// GetRepoTopics returns the repository topics. The endpoint needs the mercy preview media type.
func (c *GitHubClient) GetRepoTopics(ctx context.Context, owner, repo string) ([]string, error) {
	if err := validateRepo(owner, repo); err != nil {
		return nil, err
	}

	var topics TopicsResponse
	ok, err := c.getJSON(ctx, "topics", repoPath(owner, repo, "/topics"), nil, acceptTopics, &topics)
	if err != nil {
		return nil, err
	}
	if !ok || topics.Names == nil {
		return []string{}, nil
	}
	return topics.Names, nil
}

// GetRecentCommits returns up to limit of the newest commits on the default branch
func (c *GitHubClient) GetRecentCommits(ctx context.Context, owner, repo string, limit int) ([]Commit, error) {
	if err := validateRepo(owner, repo); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 10
	}

	query := url.Values{}
	query.Set("per_page", strconv.Itoa(limit))

	var commits []Commit
	ok, err := c.getJSON(ctx, "commits", repoPath(owner, repo, "/commits"), query, acceptJSON, &commits)
	if err != nil {
		return nil, err
	}
	if !ok || commits == nil {
		return []Commit{}, nil
	}
	return commits, nil
}

// GetRepoTree returns the recursive tree of branch. An empty branch means "main";
// when "main" is unavailable "master" is tried once. No other branch is guessed.
func (c *GitHubClient) GetRepoTree(ctx context.Context, owner, repo, branch string) ([]TreeEntry, error) {
	if err := validateRepo(owner, repo); err != nil {
		return nil, err
	}
	if branch == "" {
		branch = DefaultBranch
	}

	candidates := []string{branch}
	if branch == DefaultBranch {
		candidates = append(candidates, FallbackBranch)
	}

	query := url.Values{}
	query.Set("recursive", "1")

	for _, candidate := range candidates {
		var tree TreeResponse
		ok, err := c.getJSON(ctx, "file tree", repoPath(owner, repo, "/git/trees/"+escapePath(candidate)), query, acceptJSON, &tree)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		if tree.Truncated {
			c.logger.WithFields(logrus.Fields{
				"repo":   owner + "/" + repo,
				"branch": candidate,
			}).Warn("File tree truncated by GitHub")
		}
		if tree.Tree == nil {
			return []TreeEntry{}, nil
		}
		return tree.Tree, nil
	}
	return []TreeEntry{}, nil
}

// GetFileContent fetches a single file. Only base64 encoded content is decoded;
// anything that cannot be decoded, including directory listings, is reported absent.
func (c *GitHubClient) GetFileContent(ctx context.Context, owner, repo, filePath string) (string, bool, error) {
	if err := validateRepo(owner, repo); err != nil {
		return "", false, err
	}
	if strings.Trim(filePath, "/") == "" {
		return "", false, NewValidationError("path", "cannot be empty")
	}

	logger := c.logger.WithFields(logrus.Fields{
		"repo": owner + "/" + repo,
		"path": filePath,
	})

	var raw json.RawMessage
	ok, err := c.getJSON(ctx, "file content", repoPath(owner, repo, "/contents/"+escapePath(strings.Trim(filePath, "/"))), nil, acceptJSON, &raw)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", false, ctxErr
		}
		logger.WithError(err).Debug("Failed to decode file content")
		return "", false, nil
	}
	if !ok {
		return "", false, nil
	}

	var content ContentResponse
	if err := json.Unmarshal(raw, &content); err != nil {
		logger.WithError(err).Debug("Content is not a single file")
		return "", false, nil
	}
	if content.Encoding != "base64" {
		logger.WithField("encoding", content.Encoding).Debug("Unsupported content encoding")
		return "", false, nil
	}

	text, err := decodeContent(content.Content)
	if err != nil {
		logger.WithError(err).Debug("Failed to decode file content")
		return "", false, nil
	}
	return text, true, nil
}

// decodeContent decodes GitHub's line-wrapped base64 payloads into UTF-8 text.
// Errors are base64.CorruptInputError or ErrInvalidUTF8.
func decodeContent(content string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(content)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(raw) {
		return "", ErrInvalidUTF8
	}
	return string(raw), nil
}

func validateRepo(owner, repo string) error {
	if owner == "" {
		return NewValidationError("owner", "cannot be empty")
	}
	if repo == "" {
		return NewValidationError("name", "cannot be empty")
	}
	return nil
}

func repoPath(owner, repo, suffix string) string {
	return "/repos/" + url.PathEscape(owner) + "/" + url.PathEscape(repo) + suffix
}

// escapePath escapes each segment of a slash separated path
func escapePath(p string) string {
	segments := strings.Split(p, "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	return strings.Join(segments, "/")
}
