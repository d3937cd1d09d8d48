package term

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/lanegraph/pkg/history"
	"github.com/matzehuels/lanegraph/pkg/render"
	"github.com/matzehuels/lanegraph/pkg/topology"
)

// Glyphs.
const (
	glyphNode   = "●"
	glyphMerge  = "◉"
	glyphStash  = "◇"
	glyphLane   = "│"
	glyphHoriz  = "─"
	glyphCross  = "┼"
	glyphDownL  = "╮" // line from the left turning down
	glyphDownR  = "╭" // line from the right turning down
	glyphJoinL  = "┤"
	glyphJoinR  = "├"
	glyphBlank  = " "
	laneColumns = 2
)

// Options configures rendering.
type Options struct {
	Palette render.Palette
	// Commits adds a label after the graph. Optional.
	Commits []history.Commit
	// Width truncates each line to this many columns. 0 means no limit.
	Width int
	// Plain disables colors.
	Plain bool
}

var (
	styleHash = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	styleRef  = lipgloss.NewStyle().Bold(true)
	styleDim  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

type cell struct {
	glyph string
	color int
}

type renderer struct {
	t       *topology.Topology
	opts    Options
	commits map[string]*history.Commit
	styles  map[int]lipgloss.Style
}

func newRenderer(t *topology.Topology, opts Options) *renderer {
	return &renderer{
		t:       t,
		opts:    opts,
		commits: history.ByHash(opts.Commits),
		styles:  make(map[int]lipgloss.Style),
	}
}

// Render draws every row and joins them with newlines.
func Render(t *topology.Topology, opts Options) string {
	lines := Window(t, opts, 0, t.Len())
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}

// Window draws rows [offset, offset+height), clamped to the topology.
func Window(t *topology.Topology, opts Options, offset, height int) []string {
	offset = max(offset, 0)
	end := min(offset+max(height, 0), t.Len())
	if offset >= end {
		return nil
	}
	r := newRenderer(t, opts)
	lines := make([]string, 0, end-offset)
	for row := offset; row < end; row++ {
		lines = append(lines, r.line(row))
	}
	return lines
}

func (r *renderer) line(row int) string {
	n := r.t.At(row)
	cells := make([]cell, max(r.t.MaxLanes, 1)*laneColumns)

	for _, p := range r.t.PassingAt(row) {
		cells[p.Lane*laneColumns] = cell{glyphLane, p.Color}
	}

	for _, c := range n.Parents {
		if c.CrossLane() {
			r.bend(cells, c.FromLane, c.ToLane, c.Color)
		}
	}

	cells[n.Lane*laneColumns] = cell{r.nodeGlyph(n), n.Color}

	var b strings.Builder
	for _, c := range cells {
		if c.glyph == "" {
			b.WriteString(glyphBlank)
			continue
		}
		b.WriteString(r.paint(c.glyph, c.color))
	}
	graph := strings.TrimRight(b.String(), glyphBlank)
	width := lipgloss.Width(graph)
	pad := max(r.t.MaxLanes*laneColumns-width, 0)

	out := graph + strings.Repeat(" ", pad) + r.label(n)
	if r.opts.Width > 0 && lipgloss.Width(out) > r.opts.Width {
		out = truncate(out, r.opts.Width)
	}
	return strings.TrimRight(out, " ")
}

// bend draws a horizontal run from the node on lane from to lane to, where
// the line turns downwards.
func (r *renderer) bend(cells []cell, from, to, color int) {
	lo, hi := from, to
	if lo > hi {
		lo, hi = hi, lo
	}
	for col := lo*laneColumns + 1; col < hi*laneColumns; col++ {
		switch cells[col].glyph {
		case glyphLane:
			cells[col].glyph = glyphCross
		case "":
			cells[col] = cell{glyphHoriz, color}
		}
	}

	end := &cells[to*laneColumns]
	switch {
	case end.glyph == glyphLane && to > from:
		end.glyph = glyphJoinL
	case end.glyph == glyphLane:
		end.glyph = glyphJoinR
	case to > from:
		*end = cell{glyphDownL, color}
	default:
		*end = cell{glyphDownR, color}
	}
}

func (r *renderer) nodeGlyph(n *topology.Node) string {
	if c, ok := r.commits[n.Hash]; ok && c.Stash {
		return glyphStash
	}
	if n.Merge {
		return glyphMerge
	}
	return glyphNode
}

func (r *renderer) paint(s string, color int) string {
	if r.opts.Plain {
		return s
	}
	st, ok := r.styles[color]
	if !ok {
		st = lipgloss.NewStyle().Foreground(lipgloss.Color(r.opts.Palette.Color(color)))
		r.styles[color] = st
	}
	return st.Render(s)
}

func (r *renderer) label(n *topology.Node) string {
	c, ok := r.commits[n.Hash]
	if !ok {
		return ""
	}
	parts := []string{r.style(styleHash, c.Label())}
	if len(c.Refs) > 0 {
		refs := "(" + strings.Join(c.Refs, ", ") + ")"
		if r.opts.Plain {
			parts = append(parts, refs)
		} else {
			parts = append(parts, styleRef.Foreground(lipgloss.Color(r.opts.Palette.Color(n.Color))).Render(refs))
		}
	}
	if c.Subject != "" {
		if c.Stash {
			parts = append(parts, r.style(styleDim, c.Subject))
		} else {
			parts = append(parts, c.Subject)
		}
	}
	return strings.Join(parts, " ")
}

func (r *renderer) style(st lipgloss.Style, s string) string {
	if r.opts.Plain {
		return s
	}
	return st.Render(s)
}

// truncate cuts a plain line to width runes. Styled lines are cut on the
// visible text with ANSI sequences kept intact.
func truncate(s string, width int) string {
	var b strings.Builder
	visible := 0
	inEscape := false
	for _, r := range s {
		switch {
		case r == '\x1b':
			inEscape = true
		case inEscape:
			if r >= '@' && r <= '~' && r != '[' {
				inEscape = false
			}
		default:
			if visible == width {
				continue
			}
			visible++
		}
		b.WriteRune(r)
	}
	return b.String()
}
