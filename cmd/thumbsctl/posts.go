package main

import (
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	infralogger "github.com/jameskolean/blog-thumbs/infrastructure/logger"
	"github.com/jameskolean/blog-thumbs/internal/tagfilter"
	"github.com/jameskolean/blog-thumbs/internal/widget"
)

func newPostsCommand(g *globals) *cobra.Command {
	var (
		tags []string
		dir  string
	)

	cmd := &cobra.Command{
		Use:   "posts",
		Short: "List published posts with their ratings",
		Long: `List published posts carrying every tag given with --tags, together with
their thumbs counts. Posts come from the service unless --content points at
a local content directory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := g.client()
			if err != nil {
				return err
			}

			posts, err := catalogSource{dir: dir, client: client}.posts(cmd.Context())
			if err != nil {
				return err
			}
			posts = tagfilter.VisibleItems(posts, tagfilter.NewSelection(tags...))

			w := widget.New(client, widget.NewSession(), g.log)
			if loadErr := w.Load(cmd.Context()); loadErr != nil {
				g.log.Warn("Ratings unavailable", infralogger.Error(loadErr))
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"Slug", "Title", "Up", "Down", "Tags"})
			for _, p := range posts {
				up, down := "-", "-"
				if c := w.Render(p.Slug).Counts; c != nil {
					up, down = strconv.FormatInt(c.Likes, 10), strconv.FormatInt(c.Dislikes, 10)
				}
				t.AppendRow(table.Row{p.Slug, p.Title, up, down, strings.Join(p.Tags, ", ")})
			}
			t.AppendFooter(table.Row{"", "", "", "", strconv.Itoa(len(posts)) + " posts"})
			t.Render()
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&tags, "tags", nil, "only posts carrying all of these tags (comma separated)")
	cmd.Flags().StringVar(&dir, "content", "", "read posts from a local content directory")
	return cmd
}

func newTagsCommand(g *globals) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "tags",
		Short: "List the tag catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := g.client()
			if err != nil {
				return err
			}

			tags, err := catalogSource{dir: dir, client: client}.tags(cmd.Context())
			if err != nil {
				return err
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"Slug", "Title"})
			for _, tag := range tags {
				t.AppendRow(table.Row{tag.Slug, tag.Title})
			}
			t.Render()
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "content", "", "read tags from a local content directory")
	return cmd
}
