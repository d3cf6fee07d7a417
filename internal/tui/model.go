// Package tui is the interactive post browser behind `thumbsctl browse`.
// It drives one widget.Widget and one tagfilter.Filter from the Bubble Tea
// update loop, which keeps the widget single-writer.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	infralogger "github.com/jameskolean/blog-thumbs/infrastructure/logger"
	"github.com/jameskolean/blog-thumbs/internal/domain"
	"github.com/jameskolean/blog-thumbs/internal/tagfilter"
	"github.com/jameskolean/blog-thumbs/internal/widget"
)

const defaultFetchTimeout = 5 * time.Second

type mode int

const (
	modePosts mode = iota
	modeTags
)

// Config is what the browser shows and talks to.
type Config struct {
	Counter  widget.Counter
	Posts    []domain.Post
	Tags     []domain.Tag
	Selected []string
	// FetchTimeout bounds the initial bulk ratings fetch.
	FetchTimeout time.Duration
}

type keyMap struct {
	Up     key.Binding
	Down   key.Binding
	Tags   key.Binding
	Toggle key.Binding
	Clear  key.Binding
	Back   key.Binding
	Quit   key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:     key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "thumbs up")),
		Down:   key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "thumbs down")),
		Tags:   key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "tags")),
		Toggle: key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter", "toggle tag")),
		Clear:  key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "clear tags")),
		Back:   key.NewBinding(key.WithKeys("esc", "t"), key.WithHelp("esc", "back")),
		Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ratingsMsg carries the bulk fetch result back into the update loop.
type ratingsMsg struct {
	thumbs []domain.Thumb
	err    error
}

// Model is the Bubble Tea model of the browser.
type Model struct {
	widget  *widget.Widget
	counter widget.Counter
	filter  tagfilter.Filter
	timeout time.Duration
	log     infralogger.Logger

	posts []domain.Post
	tags  []domain.Tag

	keys   keyMap
	mode   mode
	list   list.Model
	picker list.Model
	status string
}

// New builds the browser. Each model owns a fresh voting session.
func New(cfg Config, log infralogger.Logger) Model {
	timeout := cfg.FetchTimeout
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}

	m := Model{
		widget:  widget.New(cfg.Counter, widget.NewSession(), log),
		counter: cfg.Counter,
		timeout: timeout,
		log:     log,
		posts:   cfg.Posts,
		tags:    cfg.Tags,
		keys:    defaultKeyMap(),
	}
	m.filter.SetSelection(cfg.Selected...)

	m.list = list.New(nil, postDelegate{}, 0, 0)
	m.list.SetFilteringEnabled(false)
	m.list.SetShowStatusBar(true)
	m.list.SetStatusBarItemName("post", "posts")
	m.list.Styles.Title = titleStyle
	m.list.Styles.HelpStyle = helpStyle
	m.list.Styles.PaginationStyle = helpStyle
	// u and d vote here; paging keeps the arrows.
	m.list.KeyMap.PrevPage = key.NewBinding(key.WithKeys("left", "h", "pgup"), key.WithHelp("←/h", "prev page"))
	m.list.KeyMap.NextPage = key.NewBinding(key.WithKeys("right", "l", "pgdown"), key.WithHelp("→/l", "next page"))
	m.list.KeyMap.Quit = m.keys.Quit
	m.list.AdditionalShortHelpKeys = func() []key.Binding {
		return []key.Binding{m.keys.Up, m.keys.Down, m.keys.Tags, m.keys.Clear}
	}

	m.picker = list.New(nil, tagDelegate{}, 0, 0)
	m.picker.Title = "Tags"
	m.picker.SetFilteringEnabled(false)
	m.picker.SetShowStatusBar(false)
	m.picker.Styles.Title = titleStyle
	m.picker.Styles.HelpStyle = helpStyle
	m.picker.KeyMap.Quit = m.keys.Quit
	m.picker.AdditionalShortHelpKeys = func() []key.Binding {
		return []key.Binding{m.keys.Toggle, m.keys.Back}
	}

	m.refreshPosts()
	m.refreshTags()
	return m
}

// Init starts the bulk ratings fetch.
func (m Model) Init() tea.Cmd {
	return fetchRatings(m.counter, m.timeout)
}

func fetchRatings(counter widget.Counter, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		thumbs, err := counter.FetchAll(ctx)
		return ratingsMsg{thumbs: thumbs, err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case ratingsMsg:
		if msg.err != nil {
			m.log.Debug("Bulk ratings fetch failed", infralogger.Error(msg.err))
			m.status = "ratings unavailable"
			return m, nil
		}
		m.widget.Apply(msg.thumbs)
		m.refreshPosts()
		return m, nil

	case tea.WindowSizeMsg:
		m.list.SetSize(msg.Width-4, msg.Height-4)
		m.picker.SetSize(msg.Width-4, msg.Height-4)
		return m, nil

	case tea.KeyMsg:
		if m.mode == modeTags {
			return m.updateTags(msg)
		}
		return m.updatePosts(msg)
	}

	var cmd tea.Cmd
	if m.mode == modeTags {
		m.picker, cmd = m.picker.Update(msg)
	} else {
		m.list, cmd = m.list.Update(msg)
	}
	return m, cmd
}

func (m Model) updatePosts(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Up):
		if slug, ok := m.selectedSlug(); ok {
			m.widget.ThumbsUp(slug)
			m.refreshPosts()
		}
		return m, nil
	case key.Matches(msg, m.keys.Down):
		if slug, ok := m.selectedSlug(); ok {
			m.widget.ThumbsDown(slug)
			m.refreshPosts()
		}
		return m, nil
	case key.Matches(msg, m.keys.Tags):
		m.mode = modeTags
		return m, nil
	case key.Matches(msg, m.keys.Clear):
		m.filter.SetSelection()
		m.refreshPosts()
		m.refreshTags()
		return m, nil
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) updateTags(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Back):
		m.mode = modePosts
		return m, nil
	case key.Matches(msg, m.keys.Toggle):
		if it, ok := m.picker.SelectedItem().(tagItem); ok {
			m.filter.Toggle(it.tag.Title)
			m.refreshPosts()
			m.refreshTags()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if m.mode == modeTags {
		return panelStyle.Render(m.picker.View())
	}

	content := m.list.View()
	if m.status != "" {
		content += "\n" + errorStyle.Render(m.status)
	}
	return panelStyle.Render(content)
}

// Wait blocks until every vote sent from this model has completed.
func (m Model) Wait() {
	m.widget.Wait()
}

func (m Model) selectedSlug() (string, bool) {
	it, ok := m.list.SelectedItem().(postItem)
	if !ok {
		return "", false
	}
	return it.post.Slug, true
}

// visible returns the posts shown under the current selection.
func (m Model) visible() []domain.Post {
	return tagfilter.VisibleItems(m.posts, m.filter.Selection())
}

func (m *Model) refreshPosts() {
	visible := m.visible()
	items := make([]list.Item, 0, len(visible))
	for _, p := range visible {
		items = append(items, postItem{post: p, view: m.widget.Render(p.Slug)})
	}

	index := m.list.Index()
	m.list.SetItems(items)
	if index >= len(items) {
		index = max(len(items)-1, 0)
	}
	m.list.Select(index)
	m.list.Title = m.title()
}

func (m *Model) refreshTags() {
	sel := m.filter.Selection()
	items := make([]list.Item, 0, len(m.tags))
	for _, t := range m.tags {
		items = append(items, tagItem{tag: t, selected: sel.Contains(t.Title)})
	}
	m.picker.SetItems(items)
}

func (m Model) title() string {
	sel := m.filter.Selection()
	if sel.Empty() {
		return "Posts"
	}
	return fmt.Sprintf("Posts %s %s", mutedStyle.Render("tagged"), accentStyle.Render(strings.Join(sel.Tags(), " + ")))
}

// Run shows the browser until the user quits or ctx is done, then waits
// for outstanding votes.
func Run(ctx context.Context, cfg Config, log infralogger.Logger) error {
	p := tea.NewProgram(New(cfg, log), tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := p.Run()
	if m, ok := final.(Model); ok {
		m.Wait()
	}
	if err != nil {
		return fmt.Errorf("run browser: %w", err)
	}
	return nil
}
