package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func newRenderCommand(ctx *commandContext) *cobra.Command {
	var feedName string

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Rewrite a feed's feed.xml from its stored history",
		RunE: func(cmd *cobra.Command, args []string) error {
			if feedName == "" {
				return errors.New("--feed is required")
			}
			runner, err := ctx.runner(cmd)
			if err != nil {
				return err
			}
			path, err := runner.RenderFeed(cmd.Context(), feedName)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&feedName, "feed", "f", "", "Feed name or output directory")
	return cmd
}
