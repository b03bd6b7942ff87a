package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/yard/internal/models"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	ListView ViewState = iota
	DetailView
	GridView
	SearchView
)

// Store is the read side of the entity store used by the viewer.
type Store interface {
	Grid() models.Grid
	ListContainers(ctx context.Context) ([]*models.Container, error)
	FindContainerByNumber(ctx context.Context, number string) (*models.Container, error)
}

// Model represents the TUI application state.
type Model struct {
	ctx        context.Context
	store      Store
	view       ViewState
	width      int
	height     int
	list       list.Model
	containers []*models.Container
	selected   *models.Container
	input      textinput.Model
	searched   bool
	query      string
	result     *models.Container
	err        error
	help       help.Model
	keys       keyMap
}

// NewModel creates a new TUI model reading from store.
func NewModel(ctx context.Context, store Store) *Model {
	l := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Containers"
	l.SetShowHelp(false)

	input := textinput.New()
	input.Placeholder = "CNT001"
	input.Prompt = "Number: "
	input.CharLimit = 64

	return &Model{
		ctx:   ctx,
		store: store,
		view:  ListView,
		list:  l,
		input: input,
		help:  help.New(),
		keys:  newKeyMap(),
	}
}

// State returns the active view.
func (m *Model) State() ViewState { return m.view }

// Init loads the container list.
func (m *Model) Init() tea.Cmd {
	return m.load()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(max(msg.Width-4, 0), max(msg.Height-8, 0))
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case ListView:
			return m.handleListKeys(msg)
		case DetailView:
			return m.handleDetailKeys(msg)
		case GridView:
			return m.handleGridKeys(msg)
		case SearchView:
			return m.handleSearchKeys(msg)
		}

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateActive(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgContainersLoaded:
		data := msg.data.(containersLoaded)
		if data.err != nil {
			m.err = data.err
			return m, nil
		}
		m.err = nil
		m.containers = data.containers
		m.list.Title = fmt.Sprintf("Containers (%d)", len(data.containers))
		return m, m.list.SetItems(containerItems(data.containers))

	case MsgSearchDone:
		data := msg.data.(searchDone)
		m.searched = true
		m.query = data.query
		m.result = data.container
		m.err = data.err
		return m, nil
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil && m.view != SearchView {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress r to retry, q to quit", m.err))
	}

	switch m.view {
	case ListView:
		return m.renderList()
	case DetailView:
		return m.renderDetail()
	case GridView:
		return m.renderGrid()
	case SearchView:
		return m.renderSearch()
	default:
		return ""
	}
}

func (m *Model) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.list.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.refresh):
		return m, m.load()
	case m.err != nil:
		return m, nil
	case key.Matches(msg, m.keys.enter):
		if item, ok := m.list.SelectedItem().(containerItem); ok {
			m.selected = item.container
			m.view = DetailView
		}
		return m, nil
	case key.Matches(msg, m.keys.grid):
		m.view = GridView
		return m, nil
	case key.Matches(msg, m.keys.search):
		return m, m.openSearch()
	case key.Matches(msg, m.keys.help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = ListView
	case key.Matches(msg, m.keys.grid):
		m.view = GridView
	}
	return m, nil
}

func (m *Model) handleGridKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = ListView
	case key.Matches(msg, m.keys.refresh):
		return m, m.load()
	case key.Matches(msg, m.keys.search):
		return m, m.openSearch()
	}
	return m, nil
}

// handleSearchKeys routes typing to the input; only ctrl+c quits here so "q" can be typed.
func (m *Model) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit
	case tea.KeyEsc:
		m.input.Blur()
		m.err = nil
		m.view = ListView
		return m, nil
	case tea.KeyEnter:
		query := strings.TrimSpace(m.input.Value())
		if query == "" {
			return m, nil
		}
		return m, m.find(query)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) updateActive(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case ListView:
		m.list, cmd = m.list.Update(msg)
	case SearchView:
		m.input, cmd = m.input.Update(msg)
	}
	return m, cmd
}

func (m *Model) openSearch() tea.Cmd {
	m.view = SearchView
	m.searched = false
	m.result = nil
	m.input.Reset()
	return m.input.Focus()
}

func (m *Model) load() tea.Cmd {
	return func() tea.Msg {
		containers, err := m.store.ListContainers(m.ctx)
		return containersLoadedMsg(containers, err)
	}
}

func (m *Model) find(query string) tea.Cmd {
	return func() tea.Msg {
		c, err := m.store.FindContainerByNumber(m.ctx, query)
		return searchDoneMsg(query, c, err)
	}
}

func (m *Model) renderList() string {
	var helpView string
	if m.help.ShowAll {
		helpView = m.help.View(m.keys)
	} else {
		helpView = m.help.ShortHelpView(m.keys.ShortHelp())
	}
	return fmt.Sprintf("%s\n\n%s", m.list.View(), helpView)
}

func (m *Model) renderDetail() string {
	c := m.selected
	if c == nil {
		return styles.warn.Render("No container selected")
	}

	title := styles.title.Render(fmt.Sprintf("Container %s", c.Number()))

	var b strings.Builder
	fields := []struct{ name, value string }{
		{"Origin", c.Origin()},
		{"Destination", c.Destination()},
		{"Position", fmt.Sprintf("row %d, column %d", c.RowPos(), c.ColPos())},
		{"Owner", c.Owner()},
		{"Added", c.CreatedAt().Local().Format("2006-01-02 15:04")},
	}
	for _, f := range fields {
		b.WriteString(fmt.Sprintf("%s %s\n", styles.label.Render(fmt.Sprintf("%-12s", f.name+":")), f.value))
	}

	if !m.store.Grid().Contains(c.RowPos(), c.ColPos()) {
		b.WriteString("\n" + styles.warn.Render("Outside the configured yard") + "\n")
	}

	helpView := m.help.ShortHelpView([]key.Binding{m.keys.back, m.keys.grid, m.keys.quit})
	return fmt.Sprintf("%s\n%s\n%s", title, b.String(), helpView)
}

func (m *Model) renderGrid() string {
	grid := m.store.Grid()
	cells := grid.Layout(m.containers)

	title := styles.title.Render(fmt.Sprintf("Yard %dx%d", grid.Rows, grid.Cols))
	summary := styles.ok.Render(fmt.Sprintf("%d container(s), %d of %d slots occupied",
		len(m.containers), occupiedSlots(cells), grid.Rows*grid.Cols))

	helpView := m.help.ShortHelpView([]key.Binding{m.keys.back, m.keys.search, m.keys.refresh, m.keys.quit})
	return fmt.Sprintf("%s\n%s\n\n%s\n\n%s", title, renderGrid(cells), summary, helpView)
}

func (m *Model) renderSearch() string {
	title := styles.title.Render("Search containers")

	var result string
	switch {
	case m.err != nil:
		result = styles.err.Render(fmt.Sprintf("Search failed: %v", m.err))
	case !m.searched:
		result = styles.help.Render("Type a container number and press enter")
	case m.result == nil:
		result = styles.warn.Render(fmt.Sprintf("No container found with number %q", m.query))
	default:
		c := m.result
		result = fmt.Sprintf("%s\n%s → %s\nrow %d, column %d\nowner %s",
			styles.ok.Render("✓ "+c.Number()), c.Origin(), c.Destination(), c.RowPos(), c.ColPos(), c.Owner())
	}

	submit := key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "search"))
	helpView := m.help.ShortHelpView([]key.Binding{submit, m.keys.back})
	return fmt.Sprintf("%s\n%s\n\n%s\n\n%s", title, m.input.View(), result, helpView)
}
