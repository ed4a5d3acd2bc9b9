package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"leech/internal/history"
	"leech/internal/media"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List previously scraped pages",
	Args:  cobra.NoArgs,
	RunE:  historyRun,
}

var historyRmCmd = &cobra.Command{
	Use:   "rm <url>",
	Short: "Remove a page from the scrape history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return history.Remove(args[0])
	},
}

func init() {
	historyCmd.AddCommand(historyRmCmd)
}

func historyRun(cmd *cobra.Command, args []string) error {
	entries, err := history.Load()
	if err != nil {
		return fmt.Errorf("loading history: %w", err)
	}

	if flagJSON {
		if entries == nil {
			entries = []media.ScrapeEntry{}
		}
		return printJSON(entries)
	}

	if len(entries) == 0 {
		fmt.Println("No history entries found.")
		return nil
	}

	for _, line := range history.FormatForDisplay(entries) {
		fmt.Println(line)
	}
	return nil
}
