package graph

import (
	"fmt"

	"github.com/matzehuels/jsontree/pkg/jsonv"
	"github.com/matzehuels/jsontree/pkg/layout"
	"github.com/matzehuels/jsontree/pkg/tree"
)

// FrameMargin is the space left around the node boxes in a layout frame.
const FrameMargin = 40.0

// =============================================================================
// Tree ↔ Layout Conversion
// =============================================================================

// FromTree converts a positioned tree to its serialization format. Node and
// edge order is creation order. The frame is computed from the positions, so
// t should have been through layout.Apply.
func FromTree(t *tree.Tree, vizType, style string, hSpacing, vSpacing float64) (Layout, error) {
	out := Layout{
		VizType:  vizType,
		Style:    style,
		HSpacing: hSpacing,
		VSpacing: vSpacing,
		Nodes:    make([]Node, len(t.Nodes)),
		Edges:    make([]Edge, len(t.Edges)),
		Rows:     make(map[int][]string),
	}

	for i, n := range t.Nodes {
		node, err := nodeFromTree(n)
		if err != nil {
			return Layout{}, err
		}
		out.Nodes[i] = node
		out.Rows[n.Level] = append(out.Rows[n.Level], n.ID)
		if n.Highlighted {
			out.Highlight = n.ID
		}
	}
	for i, e := range t.Edges {
		out.Edges[i] = Edge{ID: e.ID, Source: e.Source, Target: e.Target}
	}

	if len(t.Nodes) > 0 {
		frame := layout.Frame(t.Nodes, FrameMargin)
		out.Width = frame.Width()
		out.Height = frame.Height()
	}
	return out, nil
}

// ToTree converts a Layout back into a tree. Primitive values are decoded
// from their raw JSON and container values are rebuilt from their children,
// so ToTree(FromTree(t)) reproduces t. Returns an error if the structure is
// not a valid tree.
func ToTree(l Layout) (*tree.Tree, error) {
	nodes := make([]tree.Node, len(l.Nodes))
	for i, nj := range l.Nodes {
		kind, err := tree.ParseKind(nj.Kind)
		if err != nil {
			return nil, fmt.Errorf("node %s: %w", nj.ID, err)
		}
		nodes[i] = tree.Node{
			ID:          nj.ID,
			Kind:        kind,
			Key:         nj.Key,
			Label:       nj.Label,
			Path:        nj.Path,
			Level:       nj.Level,
			Position:    tree.Position{X: nj.X, Y: nj.Y},
			Highlighted: nj.Highlighted,
		}
		if kind == tree.KindPrimitive && len(nj.Value) > 0 {
			v, err := jsonv.Parse(nj.Value)
			if err != nil {
				return nil, fmt.Errorf("node %s value: %w", nj.ID, err)
			}
			nodes[i].Value = v
		}
	}

	edges := make([]tree.Edge, len(l.Edges))
	for i, ej := range l.Edges {
		edges[i] = tree.Edge{ID: ej.ID, Source: ej.Source, Target: ej.Target}
	}

	t := tree.New(nodes, edges)
	if err := t.Validate(); err != nil {
		return nil, err
	}
	rebuildValues(t)
	return t, nil
}

// Paths returns every node's ID and path in layout order, which is the
// creation order of the tree the layout was built from.
func (l *Layout) Paths() []tree.PathRef {
	refs := make([]tree.PathRef, len(l.Nodes))
	for i, n := range l.Nodes {
		refs[i] = tree.PathRef{ID: n.ID, Path: n.Path}
	}
	return refs
}

// =============================================================================
// Internal Helpers
// =============================================================================

func nodeFromTree(n tree.Node) (Node, error) {
	node := Node{
		ID:          n.ID,
		Kind:        n.Kind.String(),
		Key:         n.Key,
		Label:       n.Label,
		Path:        n.Path,
		Level:       n.Level,
		X:           n.Position.X,
		Y:           n.Position.Y,
		Highlighted: n.Highlighted,
	}
	if n.Kind == tree.KindPrimitive {
		raw, err := n.Value.MarshalJSON()
		if err != nil {
			return Node{}, fmt.Errorf("node %s value: %w", n.ID, err)
		}
		node.Value = raw
	}
	return node, nil
}

// rebuildValues fills container values from their children. Children are
// always created after their parent, so a reverse pass sees every child
// before the container that holds it.
func rebuildValues(t *tree.Tree) {
	for i := len(t.Nodes) - 1; i >= 0; i-- {
		n := &t.Nodes[i]
		kids := t.Children(n.ID)
		switch n.Kind {
		case tree.KindArray:
			items := make([]jsonv.Value, 0, len(kids))
			for _, id := range kids {
				c, _ := t.Node(id)
				items = append(items, c.Value)
			}
			n.Value = jsonv.Array(items...)
		case tree.KindObject:
			members := make([]jsonv.Member, 0, len(kids))
			for _, id := range kids {
				c, _ := t.Node(id)
				members = append(members, jsonv.M(c.Key, c.Value))
			}
			n.Value = jsonv.Object(members...)
		}
	}
}
