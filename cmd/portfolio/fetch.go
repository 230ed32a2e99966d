package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/cheggaaa/pb/v3"
	"github.com/spf13/cobra"

	"github.com/Kamar-Folarin/github-portfolio/internal/db"
	"github.com/Kamar-Folarin/github-portfolio/internal/github"
	"github.com/Kamar-Folarin/github-portfolio/internal/models"
	"github.com/Kamar-Folarin/github-portfolio/internal/output"
)

var (
	fetchUser         string
	maxRepos          int
	includeForks      bool
	skipInactiveForks bool
	outputFile        string
	showProgress      bool
	storeRun          bool
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch all repositories of a user and save them to a JSON file",
	Long: `Fetch lists the user's repositories (most recently updated first), applies the
fork filter and writes one record per kept repository.

Examples:
  portfolio fetch --user octocat
  portfolio fetch --user octocat --max-repos 10 --include-forks=false
  portfolio fetch --user octocat -o out/octocat.json --progress
  portfolio fetch --user octocat --store     # also save the run to Postgres`,
	RunE: runFetch,
}

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().StringVarP(&fetchUser, "user", "u", "", "GitHub username (default GITHUB_USERNAME)")
	fetchCmd.Flags().IntVar(&maxRepos, "max-repos", 0, "Maximum repositories to list (default MAX_REPOS or 50)")
	fetchCmd.Flags().BoolVar(&includeForks, "include-forks", true, "Keep forked repositories")
	fetchCmd.Flags().BoolVar(&skipInactiveForks, "skip-inactive-forks", true, "Drop forks without recent commits by the user")
	fetchCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default <user>_github_portfolio.json)")
	fetchCmd.Flags().BoolVar(&showProgress, "progress", false, "Show a progress bar")
	fetchCmd.Flags().BoolVar(&storeRun, "store", false, "Also save the run to the database in DB_CONNECTION_STRING")
}

func runFetch(cmd *cobra.Command, args []string) error {
	username := fetchUser
	if username == "" {
		username = cfg.GitHub.Username
	}
	if username == "" {
		return errors.New("no user given: pass --user or set GITHUB_USERNAME")
	}

	fetchCfg := cfg.Fetch
	flags := cmd.Flags()
	if flags.Changed("max-repos") {
		if maxRepos < 0 {
			return fmt.Errorf("--max-repos must not be negative, got %d", maxRepos)
		}
		fetchCfg.MaxRepos = maxRepos
	}
	if flags.Changed("include-forks") {
		fetchCfg.IncludeForks = includeForks
	}
	if flags.Changed("skip-inactive-forks") {
		fetchCfg.SkipInactiveForks = skipInactiveForks
	}
	if flags.Changed("output") {
		fetchCfg.OutputFile = outputFile
	}
	if storeRun && cfg.Database.ConnectionString == "" {
		return errors.New("--store needs DB_CONNECTION_STRING")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := github.FetchOptions{
		MaxRepos:          fetchCfg.MaxRepos,
		IncludeForks:      fetchCfg.IncludeForks,
		SkipInactiveForks: fetchCfg.SkipInactiveForks,
	}
	if showProgress {
		bar := pb.Full.New(0).SetWriter(os.Stderr).Start()
		defer bar.Finish()
		opts.Progress = func(done, total int, name string) {
			bar.SetTotal(int64(total))
			bar.SetCurrent(int64(done))
			bar.Set("prefix", name+" ")
		}
	}

	records, fetchErr := newFetcher(cfg).FetchAllUserReposData(ctx, username, opts)
	if fetchErr != nil && records == nil {
		return fetchErr
	}
	if fetchErr != nil {
		logger.WithError(fetchErr).Warnf("Interrupted, saving %d repositories collected so far", len(records))
	}

	path := fetchCfg.OutputFileFor(username)
	if err := output.SaveToJSON(path, records); err != nil {
		return err
	}
	fmt.Printf("Fetched %d repositories\n", len(records))
	fmt.Printf("Data saved to %s\n", path)

	if storeRun && fetchErr == nil {
		if err := saveRun(ctx, username, records); err != nil {
			return err
		}
	}
	return fetchErr
}

func saveRun(ctx context.Context, username string, records []models.RepositoryRecord) error {
	store, err := db.NewPostgresStore(cfg.Database.ConnectionString)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Migrate(); err != nil {
		return err
	}
	runID, err := store.SaveRun(ctx, username, records)
	if err != nil {
		return err
	}
	fmt.Printf("Stored run %s\n", runID)
	return nil
}
