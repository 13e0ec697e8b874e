// Package layout assigns diagram coordinates to tree nodes.
//
// The scheme is fixed: nodes are grouped by level, each level becomes one
// row at y = level*V, and every row is centered on x = 0 with H units per
// node. Within a row, nodes keep the order in which the tree builder created
// them. The engine never looks at edges, labels or JSON types, so its cost
// is a single pass over the nodes.
//
// Wide fan-outs produce wide rows; there is no subtree-aware compaction.
package layout

import (
	"math"

	"github.com/matzehuels/jsontree/pkg/tree"
)

const (
	// DefaultHSpacing is the horizontal distance between adjacent node centers.
	DefaultHSpacing = 280.0
	// DefaultVSpacing is the vertical distance between rows.
	DefaultVSpacing = 120.0
)

// Node box size used when drawing. A box is centered on its node position
// and fits between adjacent centers at the default spacing.
const (
	NodeWidth  = 220.0
	NodeHeight = 56.0
)

// Option configures [Apply].
type Option func(*engine)

type engine struct {
	h, v float64
}

// WithSpacing overrides the horizontal and vertical spacing. Non-positive
// values leave the corresponding default in place.
func WithSpacing(h, v float64) Option {
	return func(e *engine) {
		if h > 0 {
			e.h = h
		}
		if v > 0 {
			e.v = v
		}
	}
}

// Apply writes a position into every node and returns nodes. Only
// Position is modified.
//
// For a level L holding n nodes, the i-th node (in slice order) is placed
// at x = -n*H/2 + i*H + H/2 and y = L*V.
func Apply(nodes []tree.Node, opts ...Option) []tree.Node {
	e := engine{h: DefaultHSpacing, v: DefaultVSpacing}
	for _, opt := range opts {
		opt(&e)
	}

	for level, row := range Rows(nodes) {
		startX := -float64(len(row)) * e.h / 2
		y := float64(level) * e.v
		for i, idx := range row {
			nodes[idx].Position = tree.Position{
				X: startX + float64(i)*e.h + e.h/2,
				Y: y,
			}
		}
	}
	return nodes
}

// Rows buckets node indices by level. Rows[L] lists the indices of the
// nodes at level L in slice order; levels without nodes yield empty rows.
func Rows(nodes []tree.Node) [][]int {
	var rows [][]int
	for i, n := range nodes {
		for len(rows) <= n.Level {
			rows = append(rows, nil)
		}
		rows[n.Level] = append(rows[n.Level], i)
	}
	return rows
}

// Rect is an axis-aligned bounding box.
type Rect struct {
	MinX, MinY float64
	MaxX, MaxY float64
}

// Width returns the horizontal extent.
func (r Rect) Width() float64 { return r.MaxX - r.MinX }

// Height returns the vertical extent.
func (r Rect) Height() float64 { return r.MaxY - r.MinY }

// Pad returns r grown by dx on the left and right and dy on the top and bottom.
func (r Rect) Pad(dx, dy float64) Rect {
	return Rect{MinX: r.MinX - dx, MinY: r.MinY - dy, MaxX: r.MaxX + dx, MaxY: r.MaxY + dy}
}

// Bounds returns the box enclosing every node position. It is the zero
// Rect for an empty slice.
func Bounds(nodes []tree.Node) Rect {
	if len(nodes) == 0 {
		return Rect{}
	}
	r := Rect{
		MinX: math.Inf(1), MinY: math.Inf(1),
		MaxX: math.Inf(-1), MaxY: math.Inf(-1),
	}
	for _, n := range nodes {
		r.MinX = math.Min(r.MinX, n.Position.X)
		r.MinY = math.Min(r.MinY, n.Position.Y)
		r.MaxX = math.Max(r.MaxX, n.Position.X)
		r.MaxY = math.Max(r.MaxY, n.Position.Y)
	}
	return r
}

// Frame returns the box enclosing every node box, grown by margin on each side.
func Frame(nodes []tree.Node, margin float64) Rect {
	return Bounds(nodes).Pad(NodeWidth/2+margin, NodeHeight/2+margin)
}
