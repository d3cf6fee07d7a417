// Package tagfilter narrows a list of tagged items to those carrying every
// selected tag.
package tagfilter

import "slices"

// Tagged is anything with a tag list. A nil list means no tags.
type Tagged interface {
	ItemTags() []string
}

// Selection is an ordered set of tags. The zero value selects nothing,
// which means no filter is applied.
type Selection struct {
	tags []string
}

// NewSelection de-duplicates tags, drops empty strings and keeps the
// first-seen order.
func NewSelection(tags ...string) Selection {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t == "" || slices.Contains(out, t) {
			continue
		}
		out = append(out, t)
	}
	return Selection{tags: out}
}

// Tags returns a copy of the selected tags in order.
func (s Selection) Tags() []string {
	return slices.Clone(s.tags)
}

// Empty reports whether no tag is selected.
func (s Selection) Empty() bool {
	return len(s.tags) == 0
}

// Contains reports whether tag is selected.
func (s Selection) Contains(tag string) bool {
	return slices.Contains(s.tags, tag)
}

// Toggle returns a new selection with tag added, or removed when present.
func (s Selection) Toggle(tag string) Selection {
	if s.Contains(tag) {
		return Selection{tags: slices.DeleteFunc(s.Tags(), func(t string) bool { return t == tag })}
	}
	return NewSelection(append(s.Tags(), tag)...)
}

// Matches reports whether tags is a superset of the selection. Every
// tag list matches the empty selection.
func (s Selection) Matches(tags []string) bool {
	for _, want := range s.tags {
		if !slices.Contains(tags, want) {
			return false
		}
	}
	return true
}

// VisibleItems returns items unchanged when sel is empty, otherwise the
// order-preserving subsequence whose tags are a superset of sel.
func VisibleItems[T Tagged](items []T, sel Selection) []T {
	if sel.Empty() {
		return items
	}

	visible := make([]T, 0, len(items))
	for _, item := range items {
		if sel.Matches(item.ItemTags()) {
			visible = append(visible, item)
		}
	}
	return visible
}

// Filter holds the active selection for one view.
type Filter struct {
	selection Selection
}

// SetSelection replaces the selection wholesale.
func (f *Filter) SetSelection(tags ...string) {
	f.selection = NewSelection(tags...)
}

// Toggle adds or removes one tag.
func (f *Filter) Toggle(tag string) {
	f.selection = f.selection.Toggle(tag)
}

// Selection returns the active selection.
func (f *Filter) Selection() Selection {
	return f.selection
}
