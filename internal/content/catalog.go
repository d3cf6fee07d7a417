// Package content loads the blog's posts and tag catalog from markdown
// frontmatter and keeps them current as files change.
package content

import (
	"cmp"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"sync/atomic"

	infralogger "github.com/jameskolean/blog-thumbs/infrastructure/logger"
	"github.com/jameskolean/blog-thumbs/internal/domain"
)

var nonSlugChars = regexp.MustCompile(`[^a-z0-9_]+`)

// Catalog is an immutable snapshot of the content directory.
type Catalog struct {
	posts []domain.Post
	tags  []domain.Tag
	slugs map[string]struct{}
}

// NewCatalog builds a catalog from already parsed posts and tags.
func NewCatalog(posts []domain.Post, tags []domain.Tag) *Catalog {
	c := &Catalog{
		posts: slices.Clone(posts),
		tags:  slices.Clone(tags),
		slugs: make(map[string]struct{}, len(posts)),
	}

	slices.SortStableFunc(c.posts, func(a, b domain.Post) int {
		return b.Date.Compare(a.Date)
	})
	slices.SortStableFunc(c.tags, func(a, b domain.Tag) int {
		return cmp.Compare(a.Title, b.Title)
	})
	for _, p := range c.posts {
		c.slugs[p.Slug] = struct{}{}
	}
	return c
}

// Posts returns every post, newest first.
func (c *Catalog) Posts() []domain.Post {
	return c.posts
}

// Published returns published posts, newest first.
func (c *Catalog) Published() []domain.Post {
	published := make([]domain.Post, 0, len(c.posts))
	for _, p := range c.posts {
		if p.Published {
			published = append(published, p)
		}
	}
	return published
}

// Tags returns the tag catalog sorted by title.
func (c *Catalog) Tags() []domain.Tag {
	return c.tags
}

// Has reports whether slug names a post, published or not.
func (c *Catalog) Has(slug string) bool {
	_, ok := c.slugs[slug]
	return ok
}

// LoadOption configures Load and Source.
type LoadOption func(*loadOptions)

type loadOptions struct {
	log infralogger.Logger
}

// WithLogger reports recoverable content problems, such as a malformed
// tags field, at warn level.
func WithLogger(log infralogger.Logger) LoadOption {
	return func(o *loadOptions) {
		if log != nil {
			o.log = log
		}
	}
}

// Load walks dir for *.md files. A malformed tags field leaves the post
// untagged; only unreadable files and invalid YAML fail the load.
func Load(dir string, opts ...LoadOption) (*Catalog, error) {
	o := loadOptions{log: infralogger.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	var (
		posts []domain.Post
		tags  []domain.Tag
	)

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".md") {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}

		fm, err := parseFrontmatter(data)
		if errors.Is(err, ErrNoFrontmatter) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}

		switch fm.Template {
		case templateTag:
			tags = append(tags, domain.Tag{Slug: slugFor(fm.Slug, path), Title: fm.Title})
		case templatePost, "":
			postTags, ok := fm.tagList()
			if !ok {
				o.log.Warn("Ignoring malformed tags",
					infralogger.String("path", path),
					infralogger.Int("line", fm.Tags.Line),
				)
			}
			posts = append(posts, domain.Post{
				Slug:        slugFor(fm.Slug, path),
				Title:       fm.Title,
				Description: fm.Description,
				Tags:        postTags,
				Published:   fm.Published,
				Date:        fm.Date,
			})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load content from %s: %w", dir, err)
	}

	return NewCatalog(posts, tags), nil
}

// slugFor prefers the frontmatter slug, else the file name, or the
// directory name for index.md.
func slugFor(explicit, path string) string {
	name := explicit
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		if strings.EqualFold(name, "index") {
			name = filepath.Base(filepath.Dir(path))
		}
	}
	name = nonSlugChars.ReplaceAllString(strings.ToLower(name), "-")
	// Slugs start with a letter or digit: "_draft-post" becomes "draft-post".
	return strings.TrimRight(strings.TrimLeft(name, "-_"), "-")
}

// Source holds the current catalog and swaps it on reload.
type Source struct {
	dir     string
	opts    []LoadOption
	current atomic.Pointer[Catalog]
}

// NewSource loads dir once. opts apply to every reload.
func NewSource(dir string, opts ...LoadOption) (*Source, error) {
	s := &Source{dir: dir, opts: opts}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Dir returns the watched directory.
func (s *Source) Dir() string {
	return s.dir
}

// Catalog returns the latest snapshot.
func (s *Source) Catalog() *Catalog {
	return s.current.Load()
}

// Reload re-reads the directory. On error the previous catalog is kept.
func (s *Source) Reload() error {
	c, err := Load(s.dir, s.opts...)
	if err != nil {
		return err
	}
	s.current.Store(c)
	return nil
}
