// Package render turns serialized layouts into visual artifacts.
//
// # Overview
//
// Two visualization types are supported, selected by graph.Layout.VizType:
//
//   - tree: the positioned layout drawn as-is by [sink], one rounded box per
//     node and a curved connector per edge, rows stacked top to bottom
//   - nodelink: the same tree handed to Graphviz by [nodelink], which
//     computes its own positions with rank=same per level
//
// Both honor the highlight: the node whose Highlighted flag is set is drawn
// with the style's highlight color.
//
// # Format Conversion
//
// The [ToPDF] and [ToPNG] functions convert any SVG to other formats using
// the external rsvg-convert tool (from librsvg).
//
//	svg := sink.RenderSVG(layout, sink.WithStyle(styles.Dark))
//	pdf, err := render.ToPDF(ctx, svg)
//	png, err := render.ToPNG(ctx, svg, 2.0)  // 2x scale
//
// [sink]: github.com/matzehuels/jsontree/pkg/render/sink
// [nodelink]: github.com/matzehuels/jsontree/pkg/render/nodelink
package render
