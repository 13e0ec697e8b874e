package cli

import (
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/jsontree/pkg/graph"
	"github.com/matzehuels/jsontree/pkg/search"
)

// Explorer styles
var (
	exploreHighlightStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	exploreContainerStyle = lipgloss.NewStyle().Foreground(colorWhite)
	exploreLeafStyle      = lipgloss.NewStyle().Foreground(colorGray)
	exploreDimStyle       = lipgloss.NewStyle().Foreground(colorDim)
	exploreFoundStyle     = lipgloss.NewStyle().Foreground(colorGreen)
	exploreMissStyle      = lipgloss.NewStyle().Foreground(colorYellow)
	exploreErrorStyle     = lipgloss.NewStyle().Foreground(colorRed)
)

// exploreChrome is the number of lines around the viewport.
const exploreChrome = 5

// exploreCommand creates the interactive explorer.
func (c *CLI) exploreCommand() *cobra.Command {
	var flags pipelineFlags

	cmd := &cobra.Command{
		Use:   "explore <file>",
		Short: "Browse and search a document interactively",
		Long: `Show a document's tree in the terminal and search it by path.

Type a path and press enter to highlight the first match; an empty path
clears the highlight. ctrl+y copies the highlighted path to the clipboard,
esc quits.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, l, err := c.openLayout(cmd, args[0], &flags)
			if err != nil {
				return err
			}
			defer runner.Close()

			searchFn := func(query string) (graph.Layout, search.Result, error) {
				return runner.Search(cmd.Context(), l, query)
			}
			p := tea.NewProgram(
				NewExploreModel(args[0], l, searchFn),
				tea.WithContext(cmd.Context()),
				tea.WithInput(cmd.InOrStdin()),
				tea.WithOutput(cmd.OutOrStdout()),
				tea.WithAltScreen(),
			)
			_, err = p.Run()
			return err
		},
	}

	flags.bindInput(cmd)
	return cmd
}

// =============================================================================
// ExploreModel - Interactive tree search
// =============================================================================

// SearchFunc applies a query to the explored layout.
type SearchFunc func(query string) (graph.Layout, search.Result, error)

// ExploreModel is the bubbletea model for the explore command.
type ExploreModel struct {
	Title  string
	Layout graph.Layout
	Result search.Result
	Err    error
	Copied string

	search   SearchFunc
	copyText func(string) error
	input    textinput.Model
	view     viewport.Model
	lines    map[string]int // node ID -> line in the viewport content
}

// NewExploreModel creates an explorer over l. search runs on enter.
func NewExploreModel(title string, l graph.Layout, fn SearchFunc) ExploreModel {
	in := textinput.New()
	in.Placeholder = "$.path.to[0].node"
	in.Prompt = "search › "
	in.CharLimit = 1024
	in.Focus()

	m := ExploreModel{
		Title:    title,
		Layout:   l,
		search:   fn,
		copyText: clipboard.WriteAll,
		input:    in,
		view:     viewport.New(80, 20),
	}
	m.refresh()
	return m
}

func (m ExploreModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m ExploreModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "enter":
			m.runSearch(m.input.Value())
			return m, nil
		case "ctrl+y":
			m.copyPath()
			return m, nil
		case "up", "down", "pgup", "pgdown":
			var cmd tea.Cmd
			m.view, cmd = m.view.Update(msg)
			return m, cmd
		}
	case tea.WindowSizeMsg:
		m.view.Width = msg.Width
		m.view.Height = max(msg.Height-exploreChrome, 3)
		m.scrollToHighlight()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m ExploreModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(m.Title))
	b.WriteString(exploreDimStyle.Render(fmt.Sprintf("  %d nodes", len(m.Layout.Nodes))))
	b.WriteString("\n")
	b.WriteString(m.view.View())
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(m.status())
	b.WriteString("\n")
	b.WriteString(exploreDimStyle.Render("⏎ search  ↑/↓ scroll  ctrl+y copy path  esc quit"))
	return b.String()
}

// runSearch applies query and moves the viewport to the match.
func (m *ExploreModel) runSearch(query string) {
	m.Copied = ""
	l, res, err := m.search(query)
	if err != nil {
		m.Err = err
		return
	}
	m.Err = nil
	m.Layout = l
	m.Result = res
	m.refresh()
	m.scrollToHighlight()
}

// copyPath copies the highlighted node's path to the clipboard.
func (m *ExploreModel) copyPath() {
	if m.Result.Status != search.Found {
		return
	}
	if err := m.copyText(m.Result.Path); err != nil {
		m.Err = fmt.Errorf("copy path: %w", err)
		return
	}
	m.Copied = m.Result.Path
}

func (m ExploreModel) status() string {
	switch {
	case m.Err != nil:
		return exploreErrorStyle.Render(iconError + " " + m.Err.Error())
	case m.Copied != "":
		return exploreFoundStyle.Render(iconSuccess+" copied ") + m.Copied
	case m.Result.Status == search.Found:
		return exploreFoundStyle.Render(iconSuccess+" "+m.Result.Message()) + " " + exploreHighlightStyle.Render(m.Result.Path)
	case m.Result.Status == search.NotFound:
		return exploreMissStyle.Render(iconWarning + " " + m.Result.Message())
	default:
		return ""
	}
}

// refresh redraws the tree as an indented outline in creation order.
func (m *ExploreModel) refresh() {
	m.lines = make(map[string]int, len(m.Layout.Nodes))
	var b strings.Builder
	for i, n := range m.Layout.Nodes {
		m.lines[n.ID] = i
		indent := strings.Repeat("  ", n.Level)
		switch {
		case n.Highlighted:
			b.WriteString(exploreHighlightStyle.Render(indent + iconArrow + " " + n.Label))
		case n.IsContainer():
			b.WriteString(exploreContainerStyle.Render(indent + "  " + n.Label))
		default:
			b.WriteString(exploreLeafStyle.Render(indent + "  " + n.Label))
		}
		b.WriteString("\n")
	}
	m.view.SetContent(strings.TrimSuffix(b.String(), "\n"))
}

// scrollToHighlight centers the highlighted node in the viewport.
func (m *ExploreModel) scrollToHighlight() {
	line, ok := m.lines[m.Layout.Highlight]
	if !ok {
		return
	}
	m.view.SetYOffset(max(line-m.view.Height/2, 0))
}
