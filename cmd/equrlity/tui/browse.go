package tui

import (
	"sort"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vitaly-t/equrlity-sub000/pkg/ledger"
)

// BrowseMode represents the current mode of the browse UI
type BrowseMode int

const (
	ModeList BrowseMode = iota
	ModeDetail
	ModeError
)

// BrowseModel is the main Bubbletea model for browsing the link forest
type BrowseModel struct {
	mode   BrowseMode
	engine *ledger.Engine
	list   list.Model
	chain  ChainView
	err    error
	width  int
	height int
}

// NewBrowseModel creates a new browse UI model over a loaded engine
func NewBrowseModel(engine *ledger.Engine) BrowseModel {
	l := list.New(linkItems(engine), LinkItemDelegate{}, 0, 0)
	l.Title = "Shared Links"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.Styles.Title = titleStyle

	return BrowseModel{
		mode:   ModeList,
		engine: engine,
		list:   l,
	}
}

// linkItems builds list items for every cached link, newest first.
func linkItems(engine *ledger.Engine) []list.Item {
	links := engine.Links()
	sort.Slice(links, func(i, j int) bool { return links[i].Created.After(links[j].Created) })

	items := make([]list.Item, len(links))
	for i, l := range links {
		items[i] = newLinkItem(engine, l)
	}
	return items
}

func newLinkItem(engine *ledger.Engine, l ledger.Link) LinkItem {
	owner := l.UserID
	if u, ok := engine.GetUser(l.UserID); ok {
		owner = u.UserName
	}
	depth, err := engine.Depth(l.LinkID)
	if err != nil {
		depth = 0
	}
	return LinkItem{
		LinkID:  l.LinkID,
		Comment: l.Comment,
		Owner:   owner,
		Amount:  l.Amount,
		Depth:   depth,
	}
}

// Init initializes the model
func (m BrowseModel) Init() tea.Cmd {
	return tea.EnterAltScreen
}

// Update handles messages
func (m BrowseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(msg.Width-4, msg.Height-8)
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case ModeList:
			switch msg.String() {
			case "ctrl+c", "q":
				return m, tea.Quit

			case "enter":
				item, ok := m.list.SelectedItem().(LinkItem)
				if !ok {
					return m, nil
				}
				chain, err := m.engine.Chain(item.LinkID)
				if err != nil {
					m.mode = ModeError
					m.err = err
					return m, nil
				}
				items := make([]LinkItem, len(chain))
				for i, l := range chain {
					items[i] = newLinkItem(m.engine, l)
				}
				m.chain = ChainView{Items: items}
				m.mode = ModeDetail
				return m, nil
			}

		case ModeDetail:
			switch msg.String() {
			case "ctrl+c", "q":
				return m, tea.Quit
			case "esc", "enter":
				m.mode = ModeList
				return m, nil
			}

		case ModeError:
			switch msg.String() {
			case "ctrl+c", "q", "enter", "esc":
				m.mode = ModeList
				return m, nil
			}
		}
	}

	if m.mode == ModeList {
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the UI
func (m BrowseModel) View() string {
	switch m.mode {
	case ModeList:
		help := helpStyle.Render(
			FormatKey("↑/↓", "navigate") + " • " +
				FormatKey("enter", "chain") + " • " +
				FormatKey("q", "quit"),
		)
		return lipgloss.JoinVertical(lipgloss.Left,
			m.list.View(),
			help,
		)

	case ModeDetail:
		help := helpStyle.Render(FormatKey("esc", "back") + " • " + FormatKey("q", "quit"))
		return lipgloss.Place(
			m.width,
			m.height,
			lipgloss.Center,
			lipgloss.Center,
			lipgloss.JoinVertical(lipgloss.Left, m.chain.View(), help),
		)

	case ModeError:
		msg := titleStyle.Render("Error") + "\n\n" +
			errorStyle.Render(m.err.Error()) + "\n\n" +
			helpStyle.Render(FormatKey("enter", "back"))
		return lipgloss.Place(
			m.width,
			m.height,
			lipgloss.Center,
			lipgloss.Center,
			boxStyle.Render(msg),
		)
	}

	return "Unknown mode"
}

// RunBrowseUI starts the interactive link browser
func RunBrowseUI(engine *ledger.Engine) error {
	p := tea.NewProgram(NewBrowseModel(engine))
	_, err := p.Run()
	return err
}
