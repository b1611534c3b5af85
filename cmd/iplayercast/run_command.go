package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"iplayercast/internal/workflow"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var feedName string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Search, download and publish every configured feed",
		Long: "Search get_iplayer for each feed's terms, download newly found programmes, " +
			"and rewrite history.db and feed.xml. Feed-level failures are reported but do not " +
			"fail the command; a missing get_iplayer or a concurrent run does.",
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, err := ctx.runner(cmd)
			if err != nil {
				return err
			}
			summary, err := runner.Run(cmd.Context(), feedName)
			printRunSummary(cmd, summary)
			return err
		},
	}
	cmd.Flags().StringVarP(&feedName, "feed", "f", "", "Only process the feed with this name or output directory")
	return cmd
}

func printRunSummary(cmd *cobra.Command, summary workflow.Summary) {
	out := cmd.OutOrStdout()
	if len(summary.Feeds) == 0 {
		fmt.Fprintln(out, "No feeds processed")
		return
	}
	rows := make([][]string, 0, len(summary.Feeds))
	for _, feed := range summary.Feeds {
		status := "ok"
		if feed.Err != nil {
			status = "error: " + feed.Err.Error()
		}
		rows = append(rows, []string{
			feed.Name,
			strconv.Itoa(feed.Added),
			strconv.Itoa(feed.Downloaded),
			strconv.Itoa(feed.Pending),
			strconv.Itoa(feed.Items),
			status,
		})
	}
	fmt.Fprintln(out, renderTable([]column{
		left("Feed"),
		right("New"),
		right("Downloaded"),
		right("Pending"),
		right("Items"),
		left("Status").wrap(60),
	}, rows))
}
