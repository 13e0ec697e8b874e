// Package sink writes tree layouts in their output formats.
//
//   - SVG: rounded boxes at the layout positions with curved connectors
//   - PDF: SVG converted with rsvg-convert
//   - PNG: SVG converted with rsvg-convert
//   - Mermaid: a flowchart definition for Markdown embedding
//
// Renderers read a graph.Layout and never modify it.
package sink
