package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/jsontree/pkg/graph"
	"github.com/matzehuels/jsontree/pkg/render"
	"github.com/matzehuels/jsontree/pkg/render/styles"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed adds the node path under the label.
	Detailed bool

	// Palette colors nodes by kind and marks the highlighted node.
	// The zero value uses styles.Light.
	Palette styles.Palette
}

// ToDOT converts a layout to Graphviz DOT format. Node and edge statements
// follow creation order, and each level is emitted as a rank=same subgraph.
func ToDOT(l graph.Layout, opts Options) string {
	p := opts.Palette
	if p.Name == "" {
		p = styles.Light
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	fmt.Fprintf(&buf, "  bgcolor=%s;\n", dotQuote(p.Background))
	fmt.Fprintf(&buf, "  node [shape=box, style=\"rounded,filled\", fontname=\"monospace\", fontsize=12, color=%s, fontcolor=%s, margin=\"0.2,0.1\"];\n",
		dotQuote(p.Stroke), dotQuote(p.Text))
	fmt.Fprintf(&buf, "  edge [color=%s, arrowsize=0.6];\n", dotQuote(p.Edge))
	buf.WriteString("  ranksep=0.6;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for _, n := range l.Nodes {
		fmt.Fprintf(&buf, "  %s [%s];\n", dotQuote(n.ID), strings.Join(fmtAttrs(n, p, opts.Detailed), ", "))
	}

	buf.WriteString("\n")
	rows := l.Rows
	if len(rows) == 0 {
		rows = make(map[int][]string)
		for _, n := range l.Nodes {
			rows[n.Level] = append(rows[n.Level], n.ID)
		}
	}
	for _, level := range slices.Sorted(maps.Keys(rows)) {
		ids := make([]string, len(rows[level]))
		for i, id := range rows[level] {
			ids[i] = dotQuote(id)
		}
		fmt.Fprintf(&buf, "  { rank=same; %s; }\n", strings.Join(ids, "; "))
	}

	buf.WriteString("\n")
	for _, e := range l.Edges {
		fmt.Fprintf(&buf, "  %s -> %s;\n", dotQuote(e.Source), dotQuote(e.Target))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(n graph.Node, detailed bool) string {
	if !detailed {
		return n.Label
	}
	return n.Label + "\n" + n.Path
}

func fmtAttrs(n graph.Node, p styles.Palette, detailed bool) []string {
	attrs := []string{
		"label=" + dotQuote(fmtLabel(n, detailed)),
		"fillcolor=" + dotQuote(p.Fill(n.Kind, n.Highlighted)),
		"tooltip=" + dotQuote(n.Path),
	}
	if n.Highlighted {
		attrs = append(attrs,
			"color="+dotQuote(p.HighlightStroke),
			"fontcolor="+dotQuote(p.HighlightText),
			"penwidth=3")
	}
	return attrs
}

var dotEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\r", "")

// dotQuote returns s as a DOT double-quoted string.
func dotQuote(s string) string {
	return `"` + dotEscaper.Replace(s) + `"`
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
// Returns the SVG bytes ready for display or further conversion with [render.ToPDF] or [render.ToPNG].
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's pt-based svg header with a pixel one
// whose viewBox starts at the origin.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	header := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(header))
}

// RenderPDF renders a DOT graph as PDF via SVG conversion.
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPDF(ctx context.Context, dot string) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPDF(ctx, svg)
}

// RenderPNG renders a DOT graph as PNG via SVG conversion.
// A scale of 2.0 produces a 2x resolution image suitable for high-DPI displays.
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPNG(ctx context.Context, dot string, scale float64) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPNG(ctx, svg, scale)
}
