package api

import (
	_ "github.com/Kamar-Folarin/github-portfolio/docs"
)

// ErrorResponse represents an API error
// @Description Error response from the API
// @swagger:model ErrorResponse
type ErrorResponse struct {
	// Error message
	Error string `json:"error" example:"invalid max_repos parameter"`
}

// HealthResponse reports server status
// @swagger:model HealthResponse
type HealthResponse struct {
	Status string `json:"status" example:"ok"`
	// Whether stored runs can be read and written
	StoreEnabled bool `json:"store_enabled" example:"true"`
	// max_repos used when the query omits it
	DefaultMaxRepos int `json:"default_max_repos" example:"50"`
}

// FileContentResponse carries the decoded text of one repository file
// @swagger:model FileContentResponse
type FileContentResponse struct {
	Path    string `json:"path" example:"cmd/main.go"`
	Content string `json:"content" example:"package main"`
}
