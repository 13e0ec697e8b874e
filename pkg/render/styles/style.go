// Package styles defines the color palettes used by the renderers.
package styles

import "github.com/matzehuels/jsontree/pkg/graph"

// Palette holds every color a renderer needs. Colors are CSS color strings
// usable both in SVG attributes and Graphviz/Mermaid attributes.
type Palette struct {
	Name       string
	Background string
	Edge       string
	Text       string
	Stroke     string

	// Node fills by kind.
	Object    string
	Array     string
	Primitive string

	// Highlighted node.
	HighlightFill   string
	HighlightStroke string
	HighlightText   string
}

// Light is the default palette.
var Light = Palette{
	Name:            graph.StyleLight,
	Background:      "#ffffff",
	Edge:            "#94a3b8",
	Text:            "#0f172a",
	Stroke:          "#cbd5e1",
	Object:          "#e0f2fe",
	Array:           "#ede9fe",
	Primitive:       "#f8fafc",
	HighlightFill:   "#fde68a",
	HighlightStroke: "#d97706",
	HighlightText:   "#78350f",
}

// Dark is the dark palette.
var Dark = Palette{
	Name:            graph.StyleDark,
	Background:      "#0f172a",
	Edge:            "#475569",
	Text:            "#e2e8f0",
	Stroke:          "#334155",
	Object:          "#0c4a6e",
	Array:           "#4c1d95",
	Primitive:       "#1e293b",
	HighlightFill:   "#b45309",
	HighlightStroke: "#fbbf24",
	HighlightText:   "#fffbeb",
}

// For returns the palette named name. Unknown names yield Light and false.
func For(name string) (Palette, bool) {
	switch name {
	case graph.StyleLight, "":
		return Light, true
	case graph.StyleDark:
		return Dark, true
	}
	return Light, false
}

// Fill returns the fill color for a node of the given kind.
func (p Palette) Fill(kind string, highlighted bool) string {
	if highlighted {
		return p.HighlightFill
	}
	switch kind {
	case graph.KindObject:
		return p.Object
	case graph.KindArray:
		return p.Array
	}
	return p.Primitive
}

// Outline returns the stroke color for a node.
func (p Palette) Outline(highlighted bool) string {
	if highlighted {
		return p.HighlightStroke
	}
	return p.Stroke
}

// Ink returns the text color for a node.
func (p Palette) Ink(highlighted bool) string {
	if highlighted {
		return p.HighlightText
	}
	return p.Text
}
