package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newListCommand(ctx *commandContext) *cobra.Command {
	var feedName string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show the programmes recorded for a feed",
		RunE: func(cmd *cobra.Command, args []string) error {
			if feedName == "" {
				return errors.New("--feed is required")
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			runner, err := ctx.runner(cmd)
			if err != nil {
				return err
			}
			feed, cat, err := runner.LoadCatalog(cmd.Context(), feedName)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if cat.Len() == 0 {
				fmt.Fprintf(out, "No programmes recorded for %s\n", feed.Name)
				return nil
			}
			feedDir := cfg.FeedDir(feed)
			rows := make([][]string, 0, cat.Len())
			for _, p := range cat.Programmes() {
				rows = append(rows, []string{
					p.PID,
					p.Title(),
					p.FirstSeen.UTC().Format("2006-01-02 15:04"),
					yesNo(p.Downloaded),
					p.Filename,
					fileSize(feedDir, p.Filename),
				})
			}
			fmt.Fprintln(out, renderTable([]column{
				left("PID"),
				left("Title").wrap(48),
				left("First Seen"),
				left("Downloaded"),
				left("File").wrap(40),
				right("Size"),
			}, rows))
			downloaded, pending := cat.Counts()
			fmt.Fprintf(out, "%s: %d downloaded, %d pending\n", feed.Name, downloaded, pending)
			return nil
		},
	}
	cmd.Flags().StringVarP(&feedName, "feed", "f", "", "Feed name or output directory")
	return cmd
}

// fileSize reports the on-disk size of a recorded media file, or "-" when
// there is none.
func fileSize(dir, name string) string {
	if name == "" {
		return "-"
	}
	info, err := os.Stat(filepath.Join(dir, name))
	if err != nil {
		return "missing"
	}
	return humanize.IBytes(uint64(info.Size()))
}
