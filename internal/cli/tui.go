package cli

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/lanegraph/pkg/history"
	"github.com/matzehuels/lanegraph/pkg/pipeline"
	"github.com/matzehuels/lanegraph/pkg/render/term"
	"github.com/matzehuels/lanegraph/pkg/topology"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// Lines around the graph: title, help, blank, and the three detail lines.
const graphChromeLines = 7

// browseCommand creates the browse command, an interactive scroller over
// the lane graph.
func (c *CLI) browseCommand() *cobra.Command {
	var noCache, plain bool
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "browse [repo]",
		Short: "Scroll through the lane graph interactively",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repoArg(args, &opts)
			applyConfig(cmd, c.Config, &opts)
			return c.runBrowse(cmd.Context(), opts, plain, noCache)
		},
	}

	addHistoryFlags(cmd.Flags(), &opts, &noCache)
	addTermFlags(cmd.Flags(), &opts, &plain)

	return cmd
}

func (c *CLI) runBrowse(ctx context.Context, opts pipeline.Options, plain, noCache bool) error {
	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	g, err := c.buildGraph(ctx, runner, opts)
	if err != nil {
		return err
	}
	if g.topology.Len() == 0 {
		printInfo("No commits to show")
		return nil
	}

	to := pipeline.TermOptions(g.commits, opts)
	to.Plain = plain
	_, err = tea.NewProgram(newGraphModel(g.topology, g.commits, to), tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}

// =============================================================================
// GraphModel - Scrollable lane graph
// =============================================================================

// GraphModel is the bubbletea model for browsing a topology row by row.
type GraphModel struct {
	Topology *topology.Topology
	Commits  map[string]*history.Commit
	Options  term.Options
	Cursor   int
	Offset   int
	Height   int
}

func newGraphModel(t *topology.Topology, commits []history.Commit, opts term.Options) GraphModel {
	return GraphModel{
		Topology: t,
		Commits:  history.ByHash(commits),
		Options:  opts,
		Height:   20,
	}
}

func (m GraphModel) Init() tea.Cmd {
	return nil
}

func (m GraphModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			m.move(-1)
		case "down", "j":
			m.move(1)
		case "pgup", "b":
			m.move(-m.Height)
		case "pgdown", "f", " ":
			m.move(m.Height)
		case "home", "g":
			m.move(-m.Cursor)
		case "end", "G":
			m.move(m.Topology.Len())
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-graphChromeLines, 5)
		m.Options.Width = max(msg.Width-2, 0)
		m.move(0)
	}
	return m, nil
}

// move shifts the cursor by delta rows and scrolls to keep it visible.
func (m *GraphModel) move(delta int) {
	if m.Topology.Len() == 0 {
		return
	}
	m.Cursor = min(max(m.Cursor+delta, 0), m.Topology.Len()-1)
	if m.Cursor < m.Offset {
		m.Offset = m.Cursor
	}
	if m.Cursor >= m.Offset+m.Height {
		m.Offset = m.Cursor - m.Height + 1
	}
}

func (m GraphModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Commit Lanes"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ move  pgup/pgdn page  g/G top/bottom  q quit"))
	b.WriteString("\n\n")

	for i, line := range term.Window(m.Topology, m.Options, m.Offset, m.Height) {
		if m.Offset+i == m.Cursor {
			b.WriteString(listSelectedStyle.Render("▸ "))
		} else {
			b.WriteString("  ")
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.detail())
	return b.String()
}

// detail describes the commit under the cursor.
func (m GraphModel) detail() string {
	if m.Topology.Len() == 0 {
		return listDimStyle.Render("  no commits")
	}
	n := m.Topology.At(m.Cursor)
	position := StyleNumber.Render(fmt.Sprintf("[%d/%d]", m.Cursor+1, m.Topology.Len()))
	lane := StyleDim.Render(fmt.Sprintf("lane %d · color %d", n.Lane, n.Color))

	c, ok := m.Commits[n.Hash]
	if !ok {
		return fmt.Sprintf("  %s %s\n  %s", StyleHash.Render(n.Hash), lane, position)
	}
	head := StyleHash.Render(c.Hash)
	if len(c.Refs) > 0 {
		head += " " + StyleHighlight.Render("("+strings.Join(c.Refs, ", ")+")")
	}
	return fmt.Sprintf("  %s\n  %s %s\n  %s %s", head,
		StyleValue.Render(c.Subject), StyleDim.Render("· "+c.Author),
		position, lane)
}
