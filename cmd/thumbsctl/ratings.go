package main

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/jameskolean/blog-thumbs/internal/domain"
)

func newRatingsCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "ratings [slug]",
		Short: "Show all ratings, or the rating of one post",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := g.client()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if len(args) == 1 {
				thumb, fetchErr := client.Fetch(cmd.Context(), args[0])
				if fetchErr != nil {
					return fetchErr
				}
				if thumb == nil {
					fmt.Fprintln(out, "not rated")
					return nil
				}
				fmt.Fprintf(out, "%s: %d up, %d down\n", thumb.Slug, thumb.UpCount, thumb.DownCount)
				return nil
			}

			thumbs, err := client.FetchAll(cmd.Context())
			if err != nil {
				return err
			}

			t := table.NewWriter()
			t.SetOutputMirror(out)
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"Slug", "Up", "Down"})
			for _, th := range thumbs {
				t.AppendRow(table.Row{th.Slug, th.UpCount, th.DownCount})
			}
			t.Render()
			return nil
		},
	}
}

func newVoteCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "vote <slug> <up|down>",
		Short: "Record one vote",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := domain.ParseDirection(args[1])
			if err != nil {
				return err
			}
			client, err := g.client()
			if err != nil {
				return err
			}
			if incErr := client.Increment(cmd.Context(), args[0], dir); incErr != nil {
				return incErr
			}
			fmt.Fprintf(cmd.OutOrStdout(), "voted %s on %s\n", dir, args[0])
			return nil
		},
	}
}
