package models

// CommitSummary is the reduced form of a commit kept on a RepositoryRecord
type CommitSummary struct {
	Message string `json:"message"`
	Date    string `json:"date"`
	Author  string `json:"author"`
}
