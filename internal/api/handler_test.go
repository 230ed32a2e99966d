package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Kamar-Folarin/github-portfolio/internal/config"
	apperrors "github.com/Kamar-Folarin/github-portfolio/internal/errors"
	"github.com/Kamar-Folarin/github-portfolio/internal/github"
	"github.com/Kamar-Folarin/github-portfolio/internal/models"
)

// MockFetcher is a mock implementation of RecordFetcher
type MockFetcher struct {
	mock.Mock
}

func (m *MockFetcher) FetchCompleteRepoData(ctx context.Context, owner, repo string) (*models.RepositoryRecord, error) {
	args := m.Called(ctx, owner, repo)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RepositoryRecord), args.Error(1)
}

func (m *MockFetcher) FetchAllUserReposData(ctx context.Context, username string, opts github.FetchOptions) ([]models.RepositoryRecord, error) {
	args := m.Called(ctx, username, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.RepositoryRecord), args.Error(1)
}

func (m *MockFetcher) FetchFileContent(ctx context.Context, owner, repo, filePath string) (string, bool, error) {
	args := m.Called(ctx, owner, repo, filePath)
	return args.String(0), args.Bool(1), args.Error(2)
}

// MockStore is a mock implementation of db.Store
type MockStore struct {
	mock.Mock
}

func (m *MockStore) SaveRun(ctx context.Context, username string, records []models.RepositoryRecord) (uuid.UUID, error) {
	args := m.Called(ctx, username, records)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockStore) LatestRecords(ctx context.Context, username string) ([]models.RepositoryRecord, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.RepositoryRecord), args.Error(1)
}

func (m *MockStore) Close() error {
	return m.Called().Error(0)
}

var testDefaults = config.FetchConfig{
	MaxRepos:          50,
	IncludeForks:      true,
	SkipInactiveForks: true,
}

func setupTestHandler(withStore bool) (*Handler, *MockFetcher, *MockStore) {
	mockFetcher := new(MockFetcher)
	mockStore := new(MockStore)
	logger := logrus.New()
	logger.SetOutput(bytes.NewBuffer(nil)) // Discard logs during tests

	var handler *Handler
	if withStore {
		handler = NewHandler(mockFetcher, mockStore, testDefaults, logger)
	} else {
		handler = NewHandler(mockFetcher, nil, testDefaults, logger)
	}
	return handler, mockFetcher, mockStore
}

func setupTestRouter(handler *Handler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return SetupRouter(handler)
}

func testRecord(name string) models.RepositoryRecord {
	record := models.NewRepositoryRecord()
	record.Name = name
	record.FullName = "octocat/" + name
	record.DefaultBranch = "main"
	return *record
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var response ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	return response
}

func TestListUserRepositories(t *testing.T) {
	t.Run("uses configured defaults", func(t *testing.T) {
		handler, mockFetcher, _ := setupTestHandler(false)
		router := setupTestRouter(handler)

		expected := []models.RepositoryRecord{testRecord("tool"), testRecord("site")}
		mockFetcher.On("FetchAllUserReposData", mock.Anything, "octocat", github.FetchOptions{
			MaxRepos:          50,
			IncludeForks:      true,
			SkipInactiveForks: true,
		}).Return(expected, nil)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/v1/users/octocat/repos", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		var response []models.RepositoryRecord
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, expected, response)
		mockFetcher.AssertExpectations(t)
	})

	t.Run("query overrides defaults", func(t *testing.T) {
		handler, mockFetcher, _ := setupTestHandler(false)
		router := setupTestRouter(handler)

		mockFetcher.On("FetchAllUserReposData", mock.Anything, "octocat", github.FetchOptions{
			MaxRepos:          3,
			IncludeForks:      false,
			SkipInactiveForks: false,
		}).Return([]models.RepositoryRecord{}, nil)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/v1/users/octocat/repos?max_repos=3&include_forks=false&skip_inactive_forks=0", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `[]`, w.Body.String())
		mockFetcher.AssertExpectations(t)
	})

	t.Run("invalid parameters", func(t *testing.T) {
		handler, mockFetcher, _ := setupTestHandler(false)
		router := setupTestRouter(handler)

		for _, query := range []string{"max_repos=ten", "max_repos=-1", "include_forks=maybe", "skip_inactive_forks=2"} {
			w := httptest.NewRecorder()
			req, _ := http.NewRequest("GET", "/api/v1/users/octocat/repos?"+query, nil)
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code, query)
			assert.NotEmpty(t, decodeError(t, w).Error)
		}
		mockFetcher.AssertNotCalled(t, "FetchAllUserReposData", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("store requested without database", func(t *testing.T) {
		handler, _, _ := setupTestHandler(false)
		router := setupTestRouter(handler)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/v1/users/octocat/repos?store=true", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})

	t.Run("stores run", func(t *testing.T) {
		handler, mockFetcher, mockStore := setupTestHandler(true)
		router := setupTestRouter(handler)

		records := []models.RepositoryRecord{testRecord("tool")}
		runID := uuid.New()
		mockFetcher.On("FetchAllUserReposData", mock.Anything, "octocat", mock.Anything).Return(records, nil)
		mockStore.On("SaveRun", mock.Anything, "octocat", records).Return(runID, nil)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/v1/users/octocat/repos?store=true", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, runID.String(), w.Header().Get("X-Run-ID"))
		mockStore.AssertExpectations(t)
	})

	t.Run("listing failure", func(t *testing.T) {
		handler, mockFetcher, _ := setupTestHandler(false)
		router := setupTestRouter(handler)

		mockFetcher.On("FetchAllUserReposData", mock.Anything, "octocat", mock.Anything).
			Return(nil, github.NewGitHubError(200, "failed to decode repository listing", errors.New("bad json")))

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/v1/users/octocat/repos", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadGateway, w.Code)
		assert.Equal(t, "failed to decode repository listing", decodeError(t, w).Error)
	})
}

func TestGetRepository(t *testing.T) {
	tests := []struct {
		name           string
		record         *models.RepositoryRecord
		err            error
		expectedStatus int
	}{
		{
			name:           "found",
			record:         func() *models.RepositoryRecord { r := testRecord("tool"); return &r }(),
			expectedStatus: http.StatusOK,
		},
		{
			name:           "unknown repository",
			record:         models.NewRepositoryRecord(),
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "invalid input",
			err:            github.NewValidationError("owner", "cannot be empty"),
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "undecodable response",
			err:            github.NewGitHubError(200, "failed to decode repository details response", errors.New("bad json")),
			expectedStatus: http.StatusBadGateway,
		},
		{
			name:           "cancelled request",
			err:            fmt.Errorf("failed to fetch readme: %w", context.Canceled),
			expectedStatus: http.StatusServiceUnavailable,
		},
		{
			name:           "unexpected failure",
			err:            errors.New("boom"),
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, mockFetcher, _ := setupTestHandler(false)
			router := setupTestRouter(handler)

			if tt.record != nil {
				mockFetcher.On("FetchCompleteRepoData", mock.Anything, "octocat", "tool").Return(tt.record, nil)
			} else {
				mockFetcher.On("FetchCompleteRepoData", mock.Anything, "octocat", "tool").Return(nil, tt.err)
			}

			w := httptest.NewRecorder()
			req, _ := http.NewRequest("GET", "/api/v1/repos/octocat/tool", nil)
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusOK {
				var response models.RepositoryRecord
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
				assert.Equal(t, *tt.record, response)
			}
		})
	}
}

func TestGetStoredRecords(t *testing.T) {
	t.Run("without store", func(t *testing.T) {
		handler, _, _ := setupTestHandler(false)
		router := setupTestRouter(handler)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/v1/users/octocat/records", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Equal(t, "record store is not configured", decodeError(t, w).Error)
	})

	t.Run("latest run", func(t *testing.T) {
		handler, _, mockStore := setupTestHandler(true)
		router := setupTestRouter(handler)

		records := []models.RepositoryRecord{testRecord("b"), testRecord("a")}
		mockStore.On("LatestRecords", mock.Anything, "octocat").Return(records, nil)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/v1/users/octocat/records", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		var response []models.RepositoryRecord
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, records, response)
	})

	t.Run("no stored run", func(t *testing.T) {
		handler, _, mockStore := setupTestHandler(true)
		router := setupTestRouter(handler)

		mockStore.On("LatestRecords", mock.Anything, "octocat").
			Return(nil, apperrors.NewNotFoundError("no stored portfolio for octocat", nil))

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/v1/users/octocat/records", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "no stored portfolio for octocat", decodeError(t, w).Error)
	})
}

func TestGetFileContent(t *testing.T) {
	tests := []struct {
		name            string
		path            string
		expectedPath    string
		content         string
		ok              bool
		err             error
		expectedStatus  int
		expectedMessage string
	}{
		{
			name:           "nested file",
			path:           "/api/v1/repos/octocat/tool/contents/cmd/main.go",
			expectedPath:   "cmd/main.go",
			content:        "package main\n",
			ok:             true,
			expectedStatus: http.StatusOK,
		},
		{
			name:            "missing or binary file",
			path:            "/api/v1/repos/octocat/tool/contents/logo.png",
			expectedPath:    "logo.png",
			expectedStatus:  http.StatusNotFound,
			expectedMessage: "file not found: logo.png",
		},
		{
			name:            "empty path",
			path:            "/api/v1/repos/octocat/tool/contents/",
			expectedPath:    "",
			err:             fmt.Errorf("failed to fetch file content: %w", github.NewValidationError("path", "cannot be empty")),
			expectedStatus:  http.StatusBadRequest,
			expectedMessage: "failed to fetch file content: validation error: invalid path: cannot be empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, mockFetcher, _ := setupTestHandler(false)
			router := setupTestRouter(handler)

			mockFetcher.On("FetchFileContent", mock.Anything, "octocat", "tool", tt.expectedPath).Return(tt.content, tt.ok, tt.err)

			w := httptest.NewRecorder()
			req, _ := http.NewRequest("GET", tt.path, nil)
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusOK {
				var response FileContentResponse
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
				assert.Equal(t, FileContentResponse{Path: tt.expectedPath, Content: tt.content}, response)
			} else {
				assert.Equal(t, tt.expectedMessage, decodeError(t, w).Error)
			}
			mockFetcher.AssertExpectations(t)
		})
	}
}

func TestToAppError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected apperrors.ErrorType
	}{
		{"application error", apperrors.NewNotFoundError("gone", nil), apperrors.ErrNotFound},
		{"github validation", github.NewValidationError("owner", "cannot be empty"), apperrors.ErrInvalidInput},
		{"github decode failure", github.NewGitHubError(200, "failed to decode", errors.New("bad json")), apperrors.ErrUpstream},
		{"deadline", context.DeadlineExceeded, apperrors.ErrUnavailable},
		{"plain error", errors.New("boom"), apperrors.ErrInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			appErr := toAppError(tt.err)
			assert.Equal(t, tt.expected, appErr.Type)
			assert.ErrorIs(t, appErr, tt.err)
		})
	}
}
