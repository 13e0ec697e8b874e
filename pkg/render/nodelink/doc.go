// Package nodelink renders tree layouts as Graphviz node-link diagrams.
//
// # Overview
//
// Instead of drawing the computed positions, this package describes the tree
// in DOT and lets Graphviz place it. Nodes of the same level are pinned to
// the same rank so the result keeps the level-by-level reading of the tree
// view, while Graphviz is free to order siblings and route edges.
//
// # Usage
//
//	dot := nodelink.ToDOT(layout, nodelink.Options{Palette: styles.Light})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// For PDF or PNG output:
//
//	pdf, err := nodelink.RenderPDF(ctx, dot)
//	png, err := nodelink.RenderPNG(ctx, dot, 2.0)  // 2x scale
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering. PDF and PNG conversion requires librsvg (rsvg-convert).
package nodelink
