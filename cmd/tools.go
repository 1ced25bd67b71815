package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var newsCmd = &cobra.Command{
	Use:   "news <query>",
	Short: "Search recent news headlines",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := strings.TrimSpace(strings.Join(args, " "))
		if query == "" {
			return errEmptyInput
		}

		searcher, err := buildNews()
		if err != nil {
			return err
		}
		headlines, err := searcher.Search(cmd.Context(), query)
		if err != nil {
			return err
		}
		for _, h := range headlines {
			fmt.Fprintf(cmd.OutOrStdout(), "- %s\n", h)
		}
		return nil
	},
}

var portfolioCmd = &cobra.Command{
	Use:   "portfolio <path>",
	Short: "Analyze a portfolio file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fetcher, err := buildFetcher()
		if err != nil {
			return err
		}
		analyzer, err := buildPortfolio(fetcher)
		if err != nil {
			return err
		}
		report, err := analyzer.Analyze(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), report)
	},
}

func init() {
	rootCmd.AddCommand(newsCmd)
	rootCmd.AddCommand(portfolioCmd)
}
