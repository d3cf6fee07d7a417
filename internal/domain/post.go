package domain

import "time"

// Post is a content item from the blog's markdown source.
type Post struct {
	Slug        string    `json:"slug"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Tags        []string  `json:"tags"`
	Published   bool      `json:"published"`
	Date        time.Time `json:"date"`
}

// ItemTags returns the post's tags; nil and empty are equivalent.
func (p Post) ItemTags() []string {
	return p.Tags
}

// Tag is an entry in the tag catalog.
type Tag struct {
	Slug  string `json:"slug"`
	Title string `json:"title"`
}
