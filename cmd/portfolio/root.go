package main

import (
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Kamar-Folarin/github-portfolio/internal/config"
	"github.com/Kamar-Folarin/github-portfolio/internal/github"
)

var (
	cfg    *config.Config
	logger = logrus.New()

	logLevel  string
	logFormat string
)

var rootCmd = &cobra.Command{
	Use:   "portfolio",
	Short: "Collect a GitHub user's repositories into a portfolio file",
	Long: `portfolio reads a user's repositories from the GitHub REST API, filters forks,
and writes one record per repository to a JSON file, a Postgres database,
or an HTTP response.

Configuration is read from the environment and an optional .env file.
GITHUB_ACCESS_TOKEN is required.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("log-level") {
			loaded.Log.Level = logLevel
		}
		if cmd.Flags().Changed("log-format") {
			loaded.Log.Format = logFormat
		}
		if err := configureLogger(logger, loaded.Log); err != nil {
			return err
		}
		if err := loaded.Validate(); err != nil {
			return err
		}
		cfg = loaded
		return nil
	},
}

func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format (text, json)")
}

// configureLogger applies level and format to logger; output always goes to stdout
func configureLogger(l *logrus.Logger, logCfg config.LogConfig) error {
	level, err := logrus.ParseLevel(logCfg.Level)
	if err != nil {
		return err
	}
	l.SetLevel(level)
	l.SetOutput(os.Stdout)

	if logCfg.Format == "json" {
		l.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339,
		})
	} else {
		l.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.RFC3339,
		})
	}
	return nil
}

func newFetcher(c *config.Config) *github.Fetcher {
	client := github.NewGitHubClient(c.GitHub.Token, logger,
		github.WithBaseURL(c.GitHub.APIBaseURL),
		github.WithTimeout(c.GitHub.Timeout),
	)
	return github.NewFetcher(client, logger)
}
