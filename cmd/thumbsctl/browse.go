package main

import (
	"github.com/spf13/cobra"

	infralogger "github.com/jameskolean/blog-thumbs/infrastructure/logger"
	"github.com/jameskolean/blog-thumbs/internal/tui"
)

func newBrowseCommand(g *globals) *cobra.Command {
	var (
		tags []string
		dir  string
	)

	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse posts interactively and vote on them",
		Long: `Browse published posts with their ratings.

Keys: u thumbs up, d thumbs down, t pick tags, c clear tags, q quit.
Each post takes one vote per browse session.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := g.client()
			if err != nil {
				return err
			}
			src := catalogSource{dir: dir, client: client}

			posts, err := src.posts(cmd.Context())
			if err != nil {
				return err
			}
			catalogTags, err := src.tags(cmd.Context())
			if err != nil {
				g.log.Warn("Tag catalog unavailable", infralogger.Error(err))
			}

			return tui.Run(cmd.Context(), tui.Config{
				Counter:      client,
				Posts:        posts,
				Tags:         catalogTags,
				Selected:     tags,
				FetchTimeout: g.timeout,
			}, g.log)
		},
	}

	cmd.Flags().StringSliceVar(&tags, "tags", nil, "initial tag selection (comma separated)")
	cmd.Flags().StringVar(&dir, "content", "", "read posts from a local content directory")
	return cmd
}
