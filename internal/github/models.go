package github

import "github.com/Kamar-Folarin/github-portfolio/internal/models"

// Account is the subset of a GitHub user object the fetcher reads
type Account struct {
	Login string `json:"login"`
}

// RepositorySummary is one entry of the user repository listing
type RepositorySummary struct {
	Name      string  `json:"name"`
	FullName  string  `json:"full_name"`
	Owner     Account `json:"owner"`
	Fork      bool    `json:"fork"`
	HTMLURL   string  `json:"html_url"`
	UpdatedAt string  `json:"updated_at"`
}

type License struct {
	Key    string `json:"key"`
	Name   string `json:"name"`
	SPDXID string `json:"spdx_id"`
}

// RepositoryDetails is the repository detail resource. Timestamps stay as the
// ISO-8601 strings GitHub returns so they are persisted verbatim.
type RepositoryDetails struct {
	Name            string   `json:"name"`
	FullName        string   `json:"full_name"`
	Description     string   `json:"description"`
	HTMLURL         string   `json:"html_url"`
	Homepage        string   `json:"homepage"`
	CreatedAt       string   `json:"created_at"`
	UpdatedAt       string   `json:"updated_at"`
	PushedAt        string   `json:"pushed_at"`
	StargazersCount int      `json:"stargazers_count"`
	ForksCount      int      `json:"forks_count"`
	WatchersCount   int      `json:"watchers_count"`
	OpenIssuesCount int      `json:"open_issues_count"`
	Language        string   `json:"language"`
	License         *License `json:"license"`
	Fork            bool     `json:"fork"`
	Archived        bool     `json:"archived"`
	DefaultBranch   string   `json:"default_branch"`
}

// LicenseName returns the license display name, or "" when the repository has none
func (d *RepositoryDetails) LicenseName() string {
	if d == nil || d.License == nil {
		return ""
	}
	return d.License.Name
}

type CommitIdentity struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Date  string `json:"date"`
}

type CommitDetail struct {
	Message   string         `json:"message"`
	Author    CommitIdentity `json:"author"`
	Committer CommitIdentity `json:"committer"`
}

// Commit is one entry of the commits listing. Author is the GitHub account
// linked to the commit author, and is nil when GitHub could not link one.
type Commit struct {
	SHA       string       `json:"sha"`
	Commit    CommitDetail `json:"commit"`
	Author    *Account     `json:"author"`
	Committer *Account     `json:"committer"`
	HTMLURL   string       `json:"html_url"`
}

// AuthorLogin returns the login of the linked author account, if any
func (c Commit) AuthorLogin() string {
	if c.Author == nil {
		return ""
	}
	return c.Author.Login
}

// CommitterLogin returns the login of the linked committer account, if any
func (c Commit) CommitterLogin() string {
	if c.Committer == nil {
		return ""
	}
	return c.Committer.Login
}

// Summary reduces the commit to the fields kept on a record
func (c Commit) Summary() models.CommitSummary {
	return models.CommitSummary{
		Message: c.Commit.Message,
		Date:    c.Commit.Author.Date,
		Author:  c.Commit.Author.Name,
	}
}

const (
	TreeEntryBlob = "blob"
	TreeEntryTree = "tree"
)

type TreeEntry struct {
	Path string `json:"path"`
	Type string `json:"type"`
	SHA  string `json:"sha"`
	Size int64  `json:"size,omitempty"`
}

type TreeResponse struct {
	SHA       string      `json:"sha"`
	Tree      []TreeEntry `json:"tree"`
	Truncated bool        `json:"truncated"`
}

// ContentResponse is the contents/readme resource for a single file
type ContentResponse struct {
	Name     string `json:"name"`
	Path     string `json:"path"`
	Type     string `json:"type"`
	Encoding string `json:"encoding"`
	Content  string `json:"content"`
	Size     int64  `json:"size"`
}

type TopicsResponse struct {
	Names []string `json:"names"`
}
