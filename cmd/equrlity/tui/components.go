package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
)

// LinkItem represents one link in the browse list
type LinkItem struct {
	LinkID  string
	Comment string
	Owner   string
	Amount  int
	Depth   int
}

func (i LinkItem) FilterValue() string { return i.Comment }
func (i LinkItem) Title() string {
	icon := successStyle.Render("●")
	if i.Depth > 0 {
		icon = infoStyle.Render("○")
	}
	if i.Amount == 0 {
		icon = warningStyle.Render("◌")
	}
	return fmt.Sprintf("%s %s", icon, i.Comment)
}
func (i LinkItem) Description() string {
	pos := "root"
	if i.Depth > 0 {
		pos = fmt.Sprintf("depth %d", i.Depth)
	}
	return mutedStyle.Render(fmt.Sprintf("by %s · %d credits · %s", i.Owner, i.Amount, pos))
}

// LinkItemDelegate is a custom delegate for link list items
type LinkItemDelegate struct{}

func (d LinkItemDelegate) Height() int                             { return 2 }
func (d LinkItemDelegate) Spacing() int                            { return 1 }
func (d LinkItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }
func (d LinkItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	i, ok := item.(LinkItem)
	if !ok {
		return
	}

	var s string
	if index == m.Index() {
		s = selectedItemStyle.Render("▸ " + i.Title() + "\n  " + i.Description())
	} else {
		s = unselectedItemStyle.Render("  " + i.Title() + "\n  " + i.Description())
	}

	_, _ = fmt.Fprint(w, s)
}

// ChainView renders a link's ancestor chain, nearest link first.
type ChainView struct {
	Items []LinkItem
}

// View renders the chain view
func (c ChainView) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Promotion Chain"))
	b.WriteString("\n\n")

	for n, item := range c.Items {
		marker := infoStyle.Render("│")
		if n == len(c.Items)-1 {
			marker = successStyle.Render("└")
		}
		b.WriteString(fmt.Sprintf("%s %s\n", marker, item.Title()))
		b.WriteString("  " + item.Description() + "\n")
	}

	return boxStyle.Render(b.String())
}
