package cli

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/yllada/revelation-indicator/entry"
)

var (
	detailStyle = lipgloss.NewStyle().Padding(1, 2)
	helpStyle   = lipgloss.NewStyle().Faint(true).Padding(0, 2)
)

// item adapts an entry to the list component.
type item struct {
	entry *entry.Entry
}

func (i item) Title() string {
	if i.entry.IsFolder() {
		return i.entry.Name + "/"
	}
	return i.entry.Name
}

func (i item) Description() string {
	if i.entry.Description != "" {
		return i.entry.Description
	}
	return i.entry.TypeName()
}

func (i item) FilterValue() string { return i.entry.Name }

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// browser is the bubbletea model of the interactive browser.
type browser struct {
	name   string
	roots  []*entry.Entry
	list   list.Model
	path   []*entry.Entry
	detail *entry.Entry
	reveal bool
}

func newBrowser(name string, store *entry.Store) *browser {
	b := &browser{name: name, roots: store.Roots()}
	b.list = list.New(items(b.roots), list.NewDefaultDelegate(), 0, 0)
	b.list.DisableQuitKeybindings()
	b.list.Title = name
	return b
}

func items(entries []*entry.Entry) []list.Item {
	out := make([]list.Item, len(entries))
	for i, e := range entries {
		out[i] = item{entry: e}
	}
	return out
}

// Browse runs the interactive browser until the user quits.
func Browse(name string, store *entry.Store) error {
	_, err := tea.NewProgram(newBrowser(name, store), tea.WithAltScreen()).Run()
	return err
}

func (b *browser) Init() tea.Cmd { return nil }

func (b *browser) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		b.list.SetSize(msg.Width, msg.Height)
		return b, nil

	case tickMsg:
		if b.detail != nil {
			return b, tick()
		}
		return b, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return b, tea.Quit
		}
		if b.detail != nil {
			return b.updateDetail(msg)
		}
		if b.list.FilterState() != list.Filtering {
			if cmd, handled := b.updateKeys(msg); handled {
				return b, cmd
			}
		}
	}

	var cmd tea.Cmd
	b.list, cmd = b.list.Update(msg)
	return b, cmd
}

func (b *browser) updateKeys(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch msg.String() {
	case "q":
		return tea.Quit, true
	case "enter", "right", "l":
		selected, ok := b.list.SelectedItem().(item)
		if !ok {
			return nil, true
		}
		if selected.entry.IsFolder() {
			return b.enter(selected.entry), true
		}
		b.detail = selected.entry
		b.reveal = false
		return tick(), true
	case "backspace", "left", "h":
		if len(b.path) == 0 {
			return nil, true
		}
		return b.up(), true
	case "esc":
		if b.list.FilterState() == list.FilterApplied {
			return nil, false
		}
		if len(b.path) > 0 {
			return b.up(), true
		}
		return nil, true
	}
	return nil, false
}

func (b *browser) updateDetail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return b, tea.Quit
	case "r":
		b.reveal = !b.reveal
	case "esc", "backspace", "left", "h", "enter":
		b.detail = nil
		b.reveal = false
	}
	return b, nil
}

func (b *browser) enter(folder *entry.Entry) tea.Cmd {
	b.path = append(b.path, folder)
	b.list.ResetFilter()
	b.list.Title = b.title()
	cmd := b.list.SetItems(items(folder.Children))
	b.list.Select(0)
	return cmd
}

func (b *browser) up() tea.Cmd {
	left := b.path[len(b.path)-1]
	b.path = b.path[:len(b.path)-1]

	level := b.roots
	if len(b.path) > 0 {
		level = b.path[len(b.path)-1].Children
	}
	b.list.ResetFilter()
	b.list.Title = b.title()
	cmd := b.list.SetItems(items(level))
	for i, e := range level {
		if e == left {
			b.list.Select(i)
			break
		}
	}
	return cmd
}

// title is the slash separated location of the current level.
func (b *browser) title() string {
	parts := []string{b.name}
	for _, e := range b.path {
		parts = append(parts, e.Name)
	}
	return strings.Join(parts, "/")
}

func (b *browser) View() string {
	if b.detail == nil {
		return b.list.View()
	}

	var sb strings.Builder
	FormatEntry(&sb, b.detail, b.reveal, now())
	help := "r reveal • esc back • q quit"
	if b.reveal {
		help = "r hide • esc back • q quit"
	}
	return detailStyle.Render(sb.String()) + "\n" + helpStyle.Render(help)
}
