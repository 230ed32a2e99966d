package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Kamar-Folarin/github-portfolio/internal/config"
	"github.com/Kamar-Folarin/github-portfolio/internal/db"
	apperrors "github.com/Kamar-Folarin/github-portfolio/internal/errors"
	"github.com/Kamar-Folarin/github-portfolio/internal/github"
	"github.com/Kamar-Folarin/github-portfolio/internal/models"
)

// RecordFetcher assembles repository records; github.Fetcher implements it
type RecordFetcher interface {
	FetchCompleteRepoData(ctx context.Context, owner, repo string) (*models.RepositoryRecord, error)
	FetchAllUserReposData(ctx context.Context, username string, opts github.FetchOptions) ([]models.RepositoryRecord, error)
	FetchFileContent(ctx context.Context, owner, repo, filePath string) (string, bool, error)
}

type Handler struct {
	fetcher  RecordFetcher
	store    db.Store
	defaults config.FetchConfig
	logger   *logrus.Logger
}

// NewHandler creates a handler. store may be nil when no database is configured.
func NewHandler(fetcher RecordFetcher, store db.Store, defaults config.FetchConfig, logger *logrus.Logger) *Handler {
	return &Handler{
		fetcher:  fetcher,
		store:    store,
		defaults: defaults,
		logger:   logger,
	}
}

// Health reports that the server is up
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health [get]
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:          "ok",
		StoreEnabled:    h.store != nil,
		DefaultMaxRepos: h.defaults.MaxRepos,
	})
}

// ListUserRepositories runs the fetch pipeline for a user
// @Summary Fetch a user's portfolio
// @Description Lists the user's repositories, filters forks and returns one record per kept repository
// @Tags portfolio
// @Produce json
// @Param username path string true "GitHub username"
// @Param max_repos query int false "Maximum repositories to list" default(50)
// @Param include_forks query bool false "Keep forked repositories" default(true)
// @Param skip_inactive_forks query bool false "Drop forks without commits by the user" default(true)
// @Param store query bool false "Persist the result as a new run" default(false)
// @Success 200 {array} models.RepositoryRecord
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /users/{username}/repos [get]
func (h *Handler) ListUserRepositories(c *gin.Context) {
	username := c.Param("username")

	opts, err := h.fetchOptions(c)
	if err != nil {
		h.handleError(c, err)
		return
	}
	persist, err := boolQuery(c, "store", false)
	if err != nil {
		h.handleError(c, err)
		return
	}
	if persist && h.store == nil {
		h.handleError(c, apperrors.NewUnavailableError("record store is not configured", nil))
		return
	}

	records, err := h.fetcher.FetchAllUserReposData(c.Request.Context(), username, opts)
	if err != nil {
		h.handleError(c, err)
		return
	}

	if persist {
		runID, err := h.store.SaveRun(c.Request.Context(), username, records)
		if err != nil {
			h.handleError(c, err)
			return
		}
		c.Header("X-Run-ID", runID.String())
	}

	h.logger.WithFields(logrus.Fields{
		"username":     username,
		"repositories": len(records),
	}).Info("Fetched portfolio")
	c.JSON(http.StatusOK, records)
}

// GetRepository assembles the record of a single repository
// @Summary Fetch one repository record
// @Tags portfolio
// @Produce json
// @Param owner path string true "Repository owner"
// @Param repo path string true "Repository name"
// @Success 200 {object} models.RepositoryRecord
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /repos/{owner}/{repo} [get]
func (h *Handler) GetRepository(c *gin.Context) {
	owner := c.Param("owner")
	repo := c.Param("repo")

	record, err := h.fetcher.FetchCompleteRepoData(c.Request.Context(), owner, repo)
	if err != nil {
		h.handleError(c, err)
		return
	}
	// Details degrade to empty values when GitHub does not know the repository
	if record.FullName == "" {
		h.handleError(c, apperrors.NewNotFoundError("repository not found: "+owner+"/"+repo, nil))
		return
	}

	c.JSON(http.StatusOK, record)
}

// GetFileContent returns the decoded text of one file on the default branch
// @Summary Fetch one file
// @Tags portfolio
// @Produce json
// @Param owner path string true "Repository owner"
// @Param repo path string true "Repository name"
// @Param path path string true "File path inside the repository"
// @Success 200 {object} FileContentResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /repos/{owner}/{repo}/contents/{path} [get]
func (h *Handler) GetFileContent(c *gin.Context) {
	owner := c.Param("owner")
	repo := c.Param("repo")
	filePath := strings.TrimPrefix(c.Param("path"), "/")

	content, ok, err := h.fetcher.FetchFileContent(c.Request.Context(), owner, repo, filePath)
	if err != nil {
		h.handleError(c, err)
		return
	}
	if !ok {
		h.handleError(c, apperrors.NewNotFoundError("file not found: "+filePath, nil))
		return
	}

	c.JSON(http.StatusOK, FileContentResponse{
		Path:    filePath,
		Content: content,
	})
}

// GetStoredRecords returns the newest stored run of a user
// @Summary Latest stored portfolio
// @Tags portfolio
// @Produce json
// @Param username path string true "GitHub username"
// @Success 200 {array} models.RepositoryRecord
// @Failure 404 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /users/{username}/records [get]
func (h *Handler) GetStoredRecords(c *gin.Context) {
	if h.store == nil {
		h.handleError(c, apperrors.NewUnavailableError("record store is not configured", nil))
		return
	}

	records, err := h.store.LatestRecords(c.Request.Context(), c.Param("username"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}

func (h *Handler) fetchOptions(c *gin.Context) (github.FetchOptions, error) {
	opts := github.FetchOptions{
		MaxRepos:          h.defaults.MaxRepos,
		IncludeForks:      h.defaults.IncludeForks,
		SkipInactiveForks: h.defaults.SkipInactiveForks,
	}

	if raw := c.Query("max_repos"); raw != "" {
		maxRepos, err := strconv.Atoi(raw)
		if err != nil || maxRepos < 0 {
			return opts, apperrors.NewValidationError("invalid max_repos parameter", err)
		}
		opts.MaxRepos = maxRepos
	}

	var err error
	if opts.IncludeForks, err = boolQuery(c, "include_forks", opts.IncludeForks); err != nil {
		return opts, err
	}
	if opts.SkipInactiveForks, err = boolQuery(c, "skip_inactive_forks", opts.SkipInactiveForks); err != nil {
		return opts, err
	}
	return opts, nil
}

func boolQuery(c *gin.Context, name string, defaultValue bool) (bool, error) {
	raw := c.Query(name)
	if raw == "" {
		return defaultValue, nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return defaultValue, apperrors.NewValidationError("invalid "+name+" parameter", err)
	}
	return value, nil
}

// toAppError classifies errors that do not carry an AppError yet
func toAppError(err error) *apperrors.AppError {
	var appErr *apperrors.AppError
	var githubErr *github.GitHubError
	switch {
	case errors.As(err, &appErr):
		return appErr
	case github.IsValidationError(err):
		return apperrors.NewValidationError(err.Error(), err)
	case errors.As(err, &githubErr):
		return apperrors.NewUpstreamError(githubErr.Message, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return apperrors.NewUnavailableError("request cancelled", err)
	default:
		return apperrors.NewInternalError("internal server error", err)
	}
}

// handleError maps application and GitHub errors onto HTTP statuses
func (h *Handler) handleError(c *gin.Context, err error) {
	appErr := toAppError(err)

	status := http.StatusInternalServerError
	switch apperrors.TypeOf(appErr) {
	case apperrors.ErrNotFound:
		status = http.StatusNotFound
	case apperrors.ErrInvalidInput:
		status = http.StatusBadRequest
	case apperrors.ErrUnavailable:
		status = http.StatusServiceUnavailable
	case apperrors.ErrUpstream:
		status = http.StatusBadGateway
	}

	entry := h.logger.WithError(err).WithFields(logrus.Fields{
		"path":       c.Request.URL.Path,
		"error_type": appErr.Type,
	})
	if status >= http.StatusInternalServerError {
		entry.Error("Request failed")
	} else {
		entry.Warn("Request rejected")
	}
	c.JSON(status, ErrorResponse{Error: appErr.Message})
}
