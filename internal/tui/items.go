package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jameskolean/blog-thumbs/internal/domain"
	"github.com/jameskolean/blog-thumbs/internal/widget"
)

// postItem is one row of the post list: the post plus the widget's view
// of its rating at the time the row was built.
type postItem struct {
	post domain.Post
	view widget.View
}

func (i postItem) Title() string       { return i.post.Title }
func (i postItem) Description() string { return strings.Join(i.post.Tags, ", ") }
func (i postItem) FilterValue() string { return i.post.Title }

type tagItem struct {
	tag      domain.Tag
	selected bool
}

func (i tagItem) Title() string       { return i.tag.Title }
func (i tagItem) Description() string { return i.tag.Slug }
func (i tagItem) FilterValue() string { return i.tag.Title }

// countsText renders the thumbs of one view. Nothing is shown until the
// bulk fetch has resolved.
func countsText(v widget.View) string {
	if v.Counts == nil {
		return mutedStyle.Render("  …")
	}
	text := fmt.Sprintf("%s %d  %s %d",
		upStyle.Render("▲"), v.Counts.Likes,
		downStyle.Render("▼"), v.Counts.Dislikes,
	)
	if v.Voted {
		text += mutedStyle.Render("  voted")
	}
	return text
}

func cursorPrefix(m list.Model, index int) string {
	if index == m.Index() {
		return selectedStyle.Render(">") + " "
	}
	return "  "
}

// postDelegate renders a post on one line followed by its tags.
type postDelegate struct{}

func (d postDelegate) Height() int                         { return 2 }
func (d postDelegate) Spacing() int                        { return 0 }
func (d postDelegate) Update(tea.Msg, *list.Model) tea.Cmd { return nil }
func (d postDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(postItem)
	if !ok {
		return
	}
	fmt.Fprintf(w, "%s%s  %s\n", cursorPrefix(m, index), titleStyle.Render(it.post.Title), countsText(it.view))
	fmt.Fprint(w, "    "+mutedStyle.Render(it.Description()))
}

type tagDelegate struct{}

func (d tagDelegate) Height() int                         { return 1 }
func (d tagDelegate) Spacing() int                        { return 0 }
func (d tagDelegate) Update(tea.Msg, *list.Model) tea.Cmd { return nil }
func (d tagDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(tagItem)
	if !ok {
		return
	}
	box := mutedStyle.Render(boxUnchecked)
	if it.selected {
		box = upStyle.Render(boxChecked)
	}
	fmt.Fprintf(w, "%s%s %s", cursorPrefix(m, index), box, it.tag.Title)
}
