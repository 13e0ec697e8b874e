package sink

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"math"

	"github.com/matzehuels/jsontree/pkg/graph"
	"github.com/matzehuels/jsontree/pkg/layout"
	"github.com/matzehuels/jsontree/pkg/render/styles"
)

const nodeRadius = 8.0

// SVGOption configures SVG rendering.
type SVGOption func(*svgRenderer)

type svgRenderer struct {
	palette    styles.Palette
	background bool
	titles     bool
}

// WithStyle sets the color palette (default styles.Light).
func WithStyle(p styles.Palette) SVGOption { return func(r *svgRenderer) { r.palette = p } }

// WithoutBackground leaves the canvas transparent.
func WithoutBackground() SVGOption { return func(r *svgRenderer) { r.background = false } }

// WithTitles adds a <title> with the node path to every node, shown as a
// tooltip by browsers.
func WithTitles() SVGOption { return func(r *svgRenderer) { r.titles = true } }

// RenderSVG draws the layout. The viewBox is the layout frame, so node
// coordinates are written unchanged.
func RenderSVG(l graph.Layout, opts ...SVGOption) []byte {
	r := svgRenderer{palette: styles.Light, background: true}
	for _, opt := range opts {
		opt(&r)
	}

	minX, minY := frameOrigin(l)
	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="%.1f %.1f %.1f %.1f" width="%.0f" height="%.0f">`+"\n",
		minX, minY, l.Width, l.Height, l.Width, l.Height)

	if r.background {
		fmt.Fprintf(&buf, `  <rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="%s"/>`+"\n",
			minX, minY, l.Width, l.Height, r.palette.Background)
	}

	buf.WriteString(`  <g class="edges" fill="none">` + "\n")
	byID := make(map[string]*graph.Node, len(l.Nodes))
	for i := range l.Nodes {
		byID[l.Nodes[i].ID] = &l.Nodes[i]
	}
	for _, e := range l.Edges {
		src, okS := byID[e.Source]
		dst, okT := byID[e.Target]
		if !okS || !okT {
			continue
		}
		renderEdge(&buf, r.palette, e.ID, src, dst)
	}
	buf.WriteString("  </g>\n")

	buf.WriteString(`  <g class="nodes" font-family="ui-monospace, SFMono-Regular, Menlo, monospace">` + "\n")
	for i := range l.Nodes {
		renderNode(&buf, &r, &l.Nodes[i])
	}
	buf.WriteString("  </g>\n")

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

// frameOrigin returns the top-left corner of the layout frame.
func frameOrigin(l graph.Layout) (float64, float64) {
	if len(l.Nodes) == 0 {
		return 0, 0
	}
	minX, minY := math.Inf(1), math.Inf(1)
	for _, n := range l.Nodes {
		minX = math.Min(minX, n.X)
		minY = math.Min(minY, n.Y)
	}
	return minX - layout.NodeWidth/2 - graph.FrameMargin,
		minY - layout.NodeHeight/2 - graph.FrameMargin
}

func renderEdge(buf *bytes.Buffer, p styles.Palette, id string, src, dst *graph.Node) {
	x1, y1 := src.X, src.Y+layout.NodeHeight/2
	x2, y2 := dst.X, dst.Y-layout.NodeHeight/2
	mid := (y1 + y2) / 2
	fmt.Fprintf(buf, `    <path id="%s" d="M %.1f %.1f C %.1f %.1f, %.1f %.1f, %.1f %.1f" stroke="%s" stroke-width="1.5"/>`+"\n",
		id, x1, y1, x1, mid, x2, mid, x2, y2, p.Edge)
}

func renderNode(buf *bytes.Buffer, r *svgRenderer, n *graph.Node) {
	p := r.palette
	x := n.X - layout.NodeWidth/2
	y := n.Y - layout.NodeHeight/2

	class := "node " + n.Kind
	if n.Highlighted {
		class += " highlighted"
	}
	fmt.Fprintf(buf, `    <g id="%s" class="%s" data-path="`, n.ID, class)
	xml.EscapeText(buf, []byte(n.Path))
	buf.WriteString("\">\n")

	if r.titles {
		buf.WriteString("      <title>")
		xml.EscapeText(buf, []byte(n.Path))
		buf.WriteString("</title>\n")
	}

	strokeWidth := 1.0
	if n.Highlighted {
		strokeWidth = 3.0
	}
	fmt.Fprintf(buf, `      <rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" rx="%.1f" fill="%s" stroke="%s" stroke-width="%.1f"/>`+"\n",
		x, y, layout.NodeWidth, layout.NodeHeight, nodeRadius,
		p.Fill(n.Kind, n.Highlighted), p.Outline(n.Highlighted), strokeWidth)

	weight := "normal"
	if n.Highlighted {
		weight = "bold"
	}
	fmt.Fprintf(buf, `      <text x="%.1f" y="%.1f" text-anchor="middle" dominant-baseline="central" font-size="%.0f" font-weight="%s" fill="%s">`,
		n.X, n.Y, styles.FontSize, weight, p.Ink(n.Highlighted))
	xml.EscapeText(buf, []byte(styles.TruncateLabel(n.Label, layout.NodeWidth)))
	buf.WriteString("</text>\n")

	buf.WriteString("    </g>\n")
}
