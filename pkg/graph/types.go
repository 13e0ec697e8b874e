package graph

import "encoding/json"

// =============================================================================
// Constants - Single Source of Truth
// =============================================================================

// Visualization types.
const (
	VizTypeTree     = "tree"     // hand-built level-by-level SVG
	VizTypeNodelink = "nodelink" // Graphviz node-link diagram
)

// Visual styles for rendering.
const (
	StyleLight = "light"
	StyleDark  = "dark"
)

// Node kinds, matching tree.Kind.String.
const (
	KindObject    = "object"
	KindArray     = "array"
	KindPrimitive = "primitive"
)

// ValidVizType reports whether s names a visualization type.
func ValidVizType(s string) bool { return s == VizTypeTree || s == VizTypeNodelink }

// ValidStyle reports whether s names a visual style.
func ValidStyle(s string) bool { return s == StyleLight || s == StyleDark }

// =============================================================================
// Node - Positioned Tree Node
// =============================================================================

// Node is the serialized form of a positioned tree node.
//
// Value holds the raw JSON of primitive nodes only. Container values are
// rebuilt from their children when a layout is decoded, which keeps the
// serialized size linear in the number of nodes.
type Node struct {
	ID          string          `json:"id" bson:"id"`
	Kind        string          `json:"kind" bson:"kind"`
	Key         string          `json:"key" bson:"key"`
	Label       string          `json:"label" bson:"label"`
	Path        string          `json:"path" bson:"path"`
	Level       int             `json:"level" bson:"level"`
	X           float64         `json:"x" bson:"x"`
	Y           float64         `json:"y" bson:"y"`
	Highlighted bool            `json:"highlighted,omitempty" bson:"highlighted,omitempty"`
	Value       json.RawMessage `json:"value,omitempty" bson:"value,omitempty"`
}

// IsContainer reports whether the node is an object or array.
func (n *Node) IsContainer() bool { return n.Kind == KindObject || n.Kind == KindArray }

// =============================================================================
// Edge - Parent to Child
// =============================================================================

// Edge connects a container node to one of its children.
type Edge struct {
	ID     string `json:"id" bson:"id"`
	Source string `json:"source" bson:"source"`
	Target string `json:"target" bson:"target"`
}

// =============================================================================
// Layout - Serialized Positioned Tree
// =============================================================================

// Layout is the serialization format for a positioned tree, used for JSON
// files, API responses, caching and sessions.
//
// Width and Height describe the frame enclosing every node box; coordinates
// are node centers with the root row at y = 0 and each row centered on x = 0.
type Layout struct {
	VizType string  `json:"viz_type" bson:"viz_type"`
	Style   string  `json:"style,omitempty" bson:"style,omitempty"`
	Width   float64 `json:"width" bson:"width"`
	Height  float64 `json:"height" bson:"height"`

	// Spacing used to compute the positions.
	HSpacing float64 `json:"h_spacing" bson:"h_spacing"`
	VSpacing float64 `json:"v_spacing" bson:"v_spacing"`

	Nodes []Node           `json:"nodes" bson:"nodes"`
	Edges []Edge           `json:"edges" bson:"edges"`
	Rows  map[int][]string `json:"rows,omitempty" bson:"rows,omitempty"` // level -> node IDs

	// Search state. Highlight is the highlighted node ID, if any.
	Query     string `json:"query,omitempty" bson:"query,omitempty"`
	Highlight string `json:"highlight,omitempty" bson:"highlight,omitempty"`
}

// IsTree returns true if this layout renders as the hand-built tree SVG.
func (l *Layout) IsTree() bool { return l.VizType == VizTypeTree }

// IsNodelink returns true if this layout renders through Graphviz.
func (l *Layout) IsNodelink() bool { return l.VizType == VizTypeNodelink }

// Node returns the node with the given ID.
func (l *Layout) Node(id string) (*Node, bool) {
	for i := range l.Nodes {
		if l.Nodes[i].ID == id {
			return &l.Nodes[i], true
		}
	}
	return nil, false
}
