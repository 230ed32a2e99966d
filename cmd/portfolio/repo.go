package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Kamar-Folarin/github-portfolio/internal/utils"
)

var repoFile string

var repoCmd = &cobra.Command{
	Use:   "repo <owner/name | URL>",
	Short: "Fetch the complete record of a single repository",
	Example: `  portfolio repo octocat/hello-world
  portfolio repo https://github.com/octocat/hello-world
  portfolio repo octocat/hello-world --file README`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		owner, name, err := utils.ParseRepoURL(args[0])
		if err != nil {
			return err
		}
		fetcher := newFetcher(cfg)

		if repoFile != "" {
			content, ok, err := fetcher.FetchFileContent(cmd.Context(), owner, name, repoFile)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("file %s not found in %s/%s or not valid text", repoFile, owner, name)
			}
			_, err = fmt.Fprint(os.Stdout, content)
			return err
		}

		record, err := fetcher.FetchCompleteRepoData(cmd.Context(), owner, name)
		if err != nil {
			return err
		}

		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		encoder.SetEscapeHTML(false)
		return encoder.Encode(record)
	},
}

func init() {
	rootCmd.AddCommand(repoCmd)
	repoCmd.Flags().StringVar(&repoFile, "file", "", "Print the decoded content of this file instead of the record")
}
