package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	infralogger "github.com/jameskolean/blog-thumbs/infrastructure/logger"
	"github.com/jameskolean/blog-thumbs/internal/content"
	"github.com/jameskolean/blog-thumbs/internal/domain"
	"github.com/jameskolean/blog-thumbs/internal/ratingclient"
)

const (
	defaultServer  = "http://localhost:8070"
	defaultTimeout = 5 * time.Second
)

// globals are the persistent flags plus what PersistentPreRunE builds
// from them.
type globals struct {
	server   string
	logLevel string
	timeout  time.Duration

	log infralogger.Logger
}

func newRootCommand() *cobra.Command {
	g := &globals{}

	cmd := &cobra.Command{
		Use:           "thumbsctl",
		Short:         "Operate the blog thumbs counter service",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			_ = godotenv.Load()

			if !cmd.Flags().Changed("server") {
				if env := os.Getenv("THUMBS_SERVER"); env != "" {
					g.server = env
				}
			}

			log, err := infralogger.New(infralogger.Config{
				Level:       g.logLevel,
				Format:      infralogger.FormatConsole,
				OutputPaths: []string{"stderr"},
			})
			if err != nil {
				return err
			}
			g.log = log
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().StringVar(&g.server, "server", defaultServer, "counter service base URL (env THUMBS_SERVER)")
	cmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	cmd.PersistentFlags().DurationVar(&g.timeout, "timeout", defaultTimeout, "per-request timeout")

	cmd.AddCommand(
		newPostsCommand(g),
		newTagsCommand(g),
		newRatingsCommand(g),
		newVoteCommand(g),
		newBrowseCommand(g),
		newTokenCommand(),
	)
	return cmd
}

func (g *globals) client() (*ratingclient.Client, error) {
	return ratingclient.New(ratingclient.Config{
		BaseURL:   g.server,
		Timeout:   g.timeout,
		UserAgent: "thumbsctl/" + version,
	}, g.log)
}

// catalogSource answers post and tag queries either from a local content
// directory or from the service.
type catalogSource struct {
	dir    string
	client *ratingclient.Client
}

func (s catalogSource) posts(ctx context.Context) ([]domain.Post, error) {
	if s.dir == "" {
		return s.client.Posts(ctx, nil)
	}
	catalog, err := content.Load(s.dir)
	if err != nil {
		return nil, fmt.Errorf("load content: %w", err)
	}
	return catalog.Published(), nil
}

func (s catalogSource) tags(ctx context.Context) ([]domain.Tag, error) {
	if s.dir == "" {
		return s.client.Tags(ctx)
	}
	catalog, err := content.Load(s.dir)
	if err != nil {
		return nil, fmt.Errorf("load content: %w", err)
	}
	return catalog.Tags(), nil
}
