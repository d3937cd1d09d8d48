package rail

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/matzehuels/lanegraph/pkg/history"
	"github.com/matzehuels/lanegraph/pkg/render"
	"github.com/matzehuels/lanegraph/pkg/topology"
)

// Default geometry in SVG user units.
const (
	DefaultLaneWidth  = 16.0
	DefaultRowHeight  = 24.0
	DefaultNodeRadius = 4.5
	DefaultLabelChars = 72

	strokeWidth = 2.0
	labelGap    = 12.0
	charWidth   = 7.0
	fontFamily  = "ui-monospace, SFMono-Regular, Menlo, monospace"
)

// Option configures [RenderSVG].
type Option func(*renderer)

type renderer struct {
	laneWidth  float64
	rowHeight  float64
	radius     float64
	palette    render.Palette
	commits    map[string]*history.Commit
	labelChars int
}

func WithLaneWidth(w float64) Option  { return func(r *renderer) { r.laneWidth = w } }
func WithRowHeight(h float64) Option  { return func(r *renderer) { r.rowHeight = h } }
func WithNodeRadius(v float64) Option { return func(r *renderer) { r.radius = v } }
func WithPalette(p render.Palette) Option {
	return func(r *renderer) { r.palette = p }
}

// WithCommits enables the label column using the metadata of commits.
func WithCommits(commits []history.Commit) Option {
	return func(r *renderer) { r.commits = history.ByHash(commits) }
}

// WithLabelChars caps the label column at n characters.
func WithLabelChars(n int) Option { return func(r *renderer) { r.labelChars = n } }

func newRenderer(opts ...Option) renderer {
	r := renderer{
		laneWidth:  DefaultLaneWidth,
		rowHeight:  DefaultRowHeight,
		radius:     DefaultNodeRadius,
		palette:    render.DefaultPalette,
		labelChars: DefaultLabelChars,
	}
	for _, opt := range opts {
		opt(&r)
	}
	if r.laneWidth <= 0 {
		r.laneWidth = DefaultLaneWidth
	}
	if r.rowHeight <= 0 {
		r.rowHeight = DefaultRowHeight
	}
	if r.radius <= 0 {
		r.radius = DefaultNodeRadius
	}
	return r
}

// RenderSVG draws t as a standalone SVG document.
func RenderSVG(t *topology.Topology, opts ...Option) []byte {
	r := newRenderer(opts...)

	graphWidth := float64(max(t.MaxLanes, 1)) * r.laneWidth
	width := graphWidth
	if r.commits != nil {
		width += labelGap + float64(r.labelChars)*charWidth
	}
	height := float64(t.Len()) * r.rowHeight

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.1f %.1f" width="%.0f" height="%.0f">`+"\n",
		width, height, width, height)
	fmt.Fprintf(&buf, `  <style>text { font-family: %s; font-size: 12px; } .ref { font-weight: bold; } .stash { fill: #888; }</style>`+"\n", fontFamily)

	arrivals := sideArrivals(t)
	buf.WriteString(`  <g class="lines" fill="none" stroke-linecap="round">` + "\n")
	for row := range t.Len() {
		r.renderLines(&buf, t, row, arrivals[row])
	}
	buf.WriteString("  </g>\n")

	buf.WriteString(`  <g class="nodes">` + "\n")
	for row := range t.Len() {
		r.renderNode(&buf, t.At(row))
	}
	buf.WriteString("  </g>\n")

	if r.commits != nil {
		buf.WriteString(`  <g class="labels">` + "\n")
		for row := range t.Len() {
			r.renderLabel(&buf, t.At(row), graphWidth+labelGap)
		}
		buf.WriteString("  </g>\n")
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func (r renderer) x(lane int) float64 { return render.LaneX(lane, r.laneWidth) }

func (r renderer) rowTop(row int) float64 { return float64(row) * r.rowHeight }

// sideArrivals collects, per parent row, the lines of non-merge children
// that bent into the parent's lane on their own row. Those have no record on
// the parent, but the line still has to reach the node.
func sideArrivals(t *topology.Topology) map[int][]topology.Incoming {
	out := make(map[int][]topology.Incoming)
	for row := range t.Len() {
		n := t.At(row)
		if n.Merge {
			continue
		}
		for _, c := range n.Parents {
			if !c.CrossLane() {
				continue
			}
			if p, ok := t.Node(c.Parent); ok {
				out[p.Row] = append(out[p.Row], topology.Incoming{Lane: c.ToLane, Color: c.Color})
			}
		}
	}
	return out
}

// renderLines draws every segment that lies within row.
func (r renderer) renderLines(buf *bytes.Buffer, t *topology.Topology, row int, arrivals []topology.Incoming) {
	n := t.At(row)
	top := r.rowTop(row)
	cy := top + r.rowHeight/2
	bottom := top + r.rowHeight
	nx := r.x(n.Lane)

	for _, p := range t.PassingAt(row) {
		r.line(buf, r.x(p.Lane), top, r.x(p.Lane), bottom, p.Color)
	}

	for _, in := range n.Incoming {
		if in.AtSource {
			// Leaves the node and bends into the parent's lane.
			r.curve(buf, nx, cy, r.x(in.Lane), bottom, in.Color)
			continue
		}
		r.curve(buf, r.x(in.Lane), top, nx, cy, in.Color)
	}
	for _, in := range arrivals {
		r.curve(buf, r.x(in.Lane), top, nx, cy, in.Color)
	}

	for _, c := range n.Parents {
		if c.CrossLane() && !n.Merge {
			continue // drawn from the AtSource record
		}
		r.curve(buf, nx, cy, r.x(c.ToLane), bottom, c.Color)
	}
}

func (r renderer) line(buf *bytes.Buffer, x1, y1, x2, y2 float64, color int) {
	fmt.Fprintf(buf, `    <line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="%s" stroke-width="%.1f"/>`+"\n",
		x1, y1, x2, y2, r.palette.Color(color), strokeWidth)
}

// curve draws a vertical line, or an S-bend when the endpoints are on
// different lanes.
func (r renderer) curve(buf *bytes.Buffer, x1, y1, x2, y2 float64, color int) {
	if x1 == x2 {
		r.line(buf, x1, y1, x2, y2, color)
		return
	}
	mid := (y1 + y2) / 2
	fmt.Fprintf(buf, `    <path d="M %.1f %.1f C %.1f %.1f, %.1f %.1f, %.1f %.1f" stroke="%s" stroke-width="%.1f"/>`+"\n",
		x1, y1, x1, mid, x2, mid, x2, y2, r.palette.Color(color), strokeWidth)
}

func (r renderer) renderNode(buf *bytes.Buffer, n *topology.Node) {
	cx := r.x(n.Lane)
	cy := r.rowTop(n.Row) + r.rowHeight/2
	color := r.palette.Color(n.Color)

	stash := false
	if c, ok := r.commits[n.Hash]; ok {
		stash = c.Stash
	}

	switch {
	case stash:
		s := r.radius * 1.6
		fmt.Fprintf(buf, `    <rect id="node-%s" x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="white" stroke="%s" stroke-width="%.1f" stroke-dasharray="2 1"/>`+"\n",
			render.EscapeXML(n.Hash), cx-s/2, cy-s/2, s, s, color, strokeWidth)
	case n.Merge:
		fmt.Fprintf(buf, `    <circle id="node-%s" cx="%.1f" cy="%.1f" r="%.1f" fill="white" stroke="%s" stroke-width="%.1f"/>`+"\n",
			render.EscapeXML(n.Hash), cx, cy, r.radius, color, strokeWidth)
	default:
		fmt.Fprintf(buf, `    <circle id="node-%s" cx="%.1f" cy="%.1f" r="%.1f" fill="%s"/>`+"\n",
			render.EscapeXML(n.Hash), cx, cy, r.radius, color)
	}
}

func (r renderer) renderLabel(buf *bytes.Buffer, n *topology.Node, x float64) {
	c, ok := r.commits[n.Hash]
	if !ok {
		return
	}
	y := r.rowTop(n.Row) + r.rowHeight/2 + 4

	var parts []string
	parts = append(parts, fmt.Sprintf(`<tspan class="hash" fill="#888">%s</tspan>`, render.EscapeXML(c.Label())))
	used := len(c.Label()) + 1
	if len(c.Refs) > 0 {
		refs := "(" + strings.Join(c.Refs, ", ") + ")"
		refs = render.Truncate(refs, max(r.labelChars-used, 0))
		used += len([]rune(refs)) + 1
		parts = append(parts, fmt.Sprintf(`<tspan class="ref" fill="%s">%s</tspan>`, r.palette.Color(n.Color), render.EscapeXML(refs)))
	}
	if left := r.labelChars - used; left > 0 && c.Subject != "" {
		class := "subject"
		if c.Stash {
			class = "subject stash"
		}
		parts = append(parts, fmt.Sprintf(`<tspan class="%s">%s</tspan>`, class, render.EscapeXML(render.Truncate(c.Subject, left))))
	}

	fmt.Fprintf(buf, `    <text x="%.1f" y="%.1f">%s</text>`+"\n", x, y, strings.Join(parts, " "))
}
