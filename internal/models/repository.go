package models

// RepositoryRecord is the assembled, persisted representation of one repository.
// Every field is always serialized; absent upstream data is written as its zero value.
type RepositoryRecord struct {
	Name          string          `json:"name"`
	FullName      string          `json:"full_name"`
	Description   string          `json:"description"`
	URL           string          `json:"url"`
	Homepage      string          `json:"homepage"`
	CreatedAt     string          `json:"created_at"`
	UpdatedAt     string          `json:"updated_at"`
	PushedAt      string          `json:"pushed_at"`
	Stars         int             `json:"stars"`
	Forks         int             `json:"forks"`
	Watchers      int             `json:"watchers"`
	OpenIssues    int             `json:"open_issues"`
	Language      string          `json:"language"`
	Languages     map[string]int  `json:"languages"`
	Topics        []string        `json:"topics"`
	Readme        string          `json:"readme"`
	License       string          `json:"license"`
	IsFork        bool            `json:"is_fork"`
	IsArchived    bool            `json:"is_archived"`
	DefaultBranch string          `json:"default_branch"`
	FileStructure []string        `json:"file_structure"`
	RecentCommits []CommitSummary `json:"recent_commits"`
}

// NewRepositoryRecord returns a record whose collections are empty rather than nil,
// so they serialize as {} and [] instead of null.
func NewRepositoryRecord() *RepositoryRecord {
	return &RepositoryRecord{
		Languages:     map[string]int{},
		Topics:        []string{},
		FileStructure: []string{},
		RecentCommits: []CommitSummary{},
	}
}
