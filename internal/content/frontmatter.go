package content

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	templateTag  = "Tag"
	templatePost = "BlogPost"
)

var (
	fenceOpen  = []byte("---")
	fenceClose = []byte("\n---")

	// ErrNoFrontmatter marks a markdown file without a leading --- block.
	ErrNoFrontmatter = errors.New("no frontmatter")
)

// frontmatter is the YAML header of a markdown file. Unknown keys are
// ignored; the body is never read.
type frontmatter struct {
	Template    string    `yaml:"template"`
	Slug        string    `yaml:"slug"`
	Title       string    `yaml:"title"`
	Description string    `yaml:"description"`
	Tags        yaml.Node `yaml:"tags"`
	Published   bool      `yaml:"published"`
	Date        time.Time `yaml:"date"`
}

// tagList returns the string entries of the tags field. Any other shape
// yields no tags; ok is false when something was discarded.
func (fm frontmatter) tagList() (tags []string, ok bool) {
	switch fm.Tags.Kind {
	case 0:
		return nil, true
	case yaml.ScalarNode:
		return nil, fm.Tags.Tag == "!!null"
	case yaml.SequenceNode:
		ok = true
		for _, item := range fm.Tags.Content {
			if item.Kind != yaml.ScalarNode || item.Tag != "!!str" {
				ok = false
				continue
			}
			tags = append(tags, item.Value)
		}
		return tags, ok
	default:
		return nil, false
	}
}

func parseFrontmatter(data []byte) (frontmatter, error) {
	var fm frontmatter

	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	data = bytes.ReplaceAll(data, []byte("\r\n"), []byte("\n"))
	if !bytes.HasPrefix(data, fenceOpen) {
		return fm, ErrNoFrontmatter
	}

	rest := data[len(fenceOpen):]
	end := bytes.Index(rest, fenceClose)
	if end < 0 {
		return fm, ErrNoFrontmatter
	}

	if err := yaml.Unmarshal(rest[:end], &fm); err != nil {
		return fm, fmt.Errorf("parse frontmatter: %w", err)
	}
	return fm, nil
}
