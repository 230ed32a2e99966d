package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	GitHub   GitHubConfig
	Fetch    FetchConfig
	Server   ServerConfig
	Database DatabaseConfig
	Log      LogConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port string
}

// DatabaseConfig holds the optional Postgres sink configuration
type DatabaseConfig struct {
	ConnectionString string
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level  string
	Format string
}

// Load loads configuration from the environment, reading a .env file first if one exists.
func Load() (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	cfg := &Config{
		GitHub: GitHubConfig{
			Token:      getEnv("GITHUB_ACCESS_TOKEN", os.Getenv("GITHUB_TOKEN")),
			Username:   getEnv("GITHUB_USERNAME", ""),
			APIBaseURL: getEnv("GITHUB_API_BASE_URL", DefaultAPIBaseURL),
		},
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
		},
		Database: DatabaseConfig{
			ConnectionString: getEnv("DB_CONNECTION_STRING", ""),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
	}

	timeout, err := getEnvAsInt("GITHUB_TIMEOUT_SECONDS", DefaultTimeoutSeconds)
	if err != nil {
		return nil, err
	}
	cfg.GitHub.Timeout = secondsToDuration(timeout)

	maxRepos, err := getEnvAsInt("MAX_REPOS", DefaultMaxRepos)
	if err != nil {
		return nil, err
	}
	includeForks, err := getEnvAsBool("INCLUDE_FORKS", true)
	if err != nil {
		return nil, err
	}
	skipInactive, err := getEnvAsBool("SKIP_INACTIVE_FORKS", true)
	if err != nil {
		return nil, err
	}
	cfg.Fetch = FetchConfig{
		MaxRepos:          maxRepos,
		IncludeForks:      includeForks,
		SkipInactiveForks: skipInactive,
		OutputFile:        getEnv("OUTPUT_FILE", ""),
	}

	return cfg, nil
}

// Validate checks the settings every command needs
func (c *Config) Validate() error {
	if c.GitHub.Token == "" {
		return fmt.Errorf("missing required configuration: GITHUB_ACCESS_TOKEN must be set")
	}
	if c.Fetch.MaxRepos < 0 {
		return fmt.Errorf("MAX_REPOS must not be negative, got %d", c.Fetch.MaxRepos)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getEnvAsBool(key string, defaultValue bool) (bool, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}
