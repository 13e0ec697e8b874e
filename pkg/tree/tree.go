package tree

import (
	"errors"
	"fmt"
	"slices"

	"github.com/matzehuels/jsontree/pkg/jsonv"
)

var (
	// ErrTooLarge is returned by [BuildWithOptions] when the document
	// exceeds [Options.MaxDepth] or [Options.MaxNodes].
	ErrTooLarge = errors.New("document too large")

	// ErrUnknownNode is returned by [Tree.Validate] when an edge references
	// a node that is not in the tree.
	ErrUnknownNode = errors.New("unknown node")

	// ErrMultipleParents is returned by [Tree.Validate] when a node has more
	// than one incoming edge.
	ErrMultipleParents = errors.New("node has multiple parents")

	// ErrNoRoot is returned by [Tree.Validate] when no node, or more than one
	// node, lacks an incoming edge.
	ErrNoRoot = errors.New("tree must have exactly one root")

	// ErrDuplicatePath is returned by [Tree.CheckPaths] when two nodes share a path.
	ErrDuplicatePath = errors.New("duplicate path")
)

// Kind classifies a node by the JSON type it was built from.
type Kind int

const (
	// KindPrimitive is a string, number, boolean or null.
	KindPrimitive Kind = iota
	// KindObject is a JSON object.
	KindObject
	// KindArray is a JSON array.
	KindArray
)

// String returns "primitive", "object" or "array".
func (k Kind) String() string {
	switch k {
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	default:
		return "primitive"
	}
}

// ParseKind is the inverse of [Kind.String].
func ParseKind(s string) (Kind, error) {
	switch s {
	case "object":
		return KindObject, nil
	case "array":
		return KindArray, nil
	case "primitive":
		return KindPrimitive, nil
	}
	return KindPrimitive, fmt.Errorf("unknown node kind %q", s)
}

// KindOf classifies v. Null is a primitive.
func KindOf(v jsonv.Value) Kind {
	switch v.Kind() {
	case jsonv.KindObject:
		return KindObject
	case jsonv.KindArray:
		return KindArray
	default:
		return KindPrimitive
	}
}

// Position is a node's center in diagram coordinates. It is zero until a
// layout pass runs.
type Position struct {
	X float64
	Y float64
}

// Node is one value reachable from the document root.
type Node struct {
	ID    string      // node-N, unique within one build
	Kind  Kind        // derived from Value's JSON type
	Key   string      // member key, array index, or "root"
	Label string      // display summary
	Path  string      // access path from the root, e.g. $.a[0].b
	Value jsonv.Value // the original value at this location
	Level int         // depth from the root (root = 0)

	Position    Position
	Highlighted bool
}

// Edge connects a container node to one of its direct children.
type Edge struct {
	ID     string
	Source string
	Target string
}

// EdgeID returns the identifier used for the edge from parent to child.
func EdgeID(parent, child string) string {
	return "edge-" + parent + "-" + child
}

// PathRef pairs a node ID with its path. It is the input of the path matcher.
type PathRef struct {
	ID   string
	Path string
}

// Tree is the flat node and edge set produced by [Build].
//
// Nodes and Edges are in creation order. Layout and highlight passes write
// into the Nodes slice directly; Position and Highlighted are the only fields
// they touch, so the indices built by [New] stay valid.
type Tree struct {
	Nodes []Node
	Edges []Edge

	index    map[string]int      // node ID -> position in Nodes
	children map[string][]string // node ID -> child IDs in creation order
	parent   map[string]string   // node ID -> parent ID
}

// New indexes an existing node and edge set, such as one decoded from a
// serialized layout. The slices are used as given, not copied.
func New(nodes []Node, edges []Edge) *Tree {
	t := &Tree{Nodes: nodes, Edges: edges}
	t.reindex()
	return t
}

func (t *Tree) reindex() {
	t.index = make(map[string]int, len(t.Nodes))
	t.children = make(map[string][]string)
	t.parent = make(map[string]string, len(t.Edges))
	for i, n := range t.Nodes {
		t.index[n.ID] = i
	}
	for _, e := range t.Edges {
		t.children[e.Source] = append(t.children[e.Source], e.Target)
		t.parent[e.Target] = e.Source
	}
}

// Len returns the number of nodes.
func (t *Tree) Len() int { return len(t.Nodes) }

// Root returns the first node, or nil for an empty tree.
func (t *Tree) Root() *Node {
	if len(t.Nodes) == 0 {
		return nil
	}
	return &t.Nodes[0]
}

// Node returns the node with the given ID. The pointer refers into
// t.Nodes, so modifications affect the tree.
func (t *Tree) Node(id string) (*Node, bool) {
	i, ok := t.index[id]
	if !ok {
		return nil, false
	}
	return &t.Nodes[i], true
}

// Children returns the IDs of id's direct children in document order.
// The returned slice should not be modified.
func (t *Tree) Children(id string) []string { return t.children[id] }

// Parent returns the ID of id's parent. The root has none.
func (t *Tree) Parent(id string) (string, bool) {
	p, ok := t.parent[id]
	return p, ok
}

// MaxLevel returns the deepest level in the tree, or 0 if it is empty.
func (t *Tree) MaxLevel() int {
	deepest := 0
	for _, n := range t.Nodes {
		deepest = max(deepest, n.Level)
	}
	return deepest
}

// Level returns the nodes at the given level in creation order.
// The pointers refer into t.Nodes.
func (t *Tree) Level(level int) []*Node {
	var out []*Node
	for i := range t.Nodes {
		if t.Nodes[i].Level == level {
			out = append(out, &t.Nodes[i])
		}
	}
	return out
}

// Paths returns every node's ID and path in creation order.
func (t *Tree) Paths() []PathRef {
	refs := make([]PathRef, len(t.Nodes))
	for i, n := range t.Nodes {
		refs[i] = PathRef{ID: n.ID, Path: n.Path}
	}
	return refs
}

// Highlighted returns the highlighted node, if any.
func (t *Tree) Highlighted() (*Node, bool) {
	for i := range t.Nodes {
		if t.Nodes[i].Highlighted {
			return &t.Nodes[i], true
		}
	}
	return nil, false
}

// Clone returns a copy whose Nodes and Edges can be modified independently.
// Node values are shared; they are immutable.
func (t *Tree) Clone() *Tree {
	return New(slices.Clone(t.Nodes), slices.Clone(t.Edges))
}

// Validate checks the structural invariants of a tree: exactly one node
// without a parent, at most one parent per node, and every edge endpoint
// known. Trees produced by [Build] always pass.
func (t *Tree) Validate() error {
	if len(t.Nodes) == 0 {
		return ErrNoRoot
	}
	incoming := make(map[string]int, len(t.Nodes))
	for _, e := range t.Edges {
		if _, ok := t.index[e.Source]; !ok {
			return fmt.Errorf("%w: edge %s source %s", ErrUnknownNode, e.ID, e.Source)
		}
		if _, ok := t.index[e.Target]; !ok {
			return fmt.Errorf("%w: edge %s target %s", ErrUnknownNode, e.ID, e.Target)
		}
		incoming[e.Target]++
		if incoming[e.Target] > 1 {
			return fmt.Errorf("%w: %s", ErrMultipleParents, e.Target)
		}
	}

	roots := 0
	for _, n := range t.Nodes {
		if incoming[n.ID] == 0 {
			roots++
		}
	}
	if roots != 1 {
		return fmt.Errorf("%w: found %d", ErrNoRoot, roots)
	}
	return nil
}

// CheckPaths reports the first pair of nodes sharing a path. Only documents
// with "." or "[" in their keys can fail.
func (t *Tree) CheckPaths() error {
	paths := make(map[string]string, len(t.Nodes))
	for _, n := range t.Nodes {
		if other, dup := paths[n.Path]; dup {
			return fmt.Errorf("%w: %s (%s, %s)", ErrDuplicatePath, n.Path, other, n.ID)
		}
		paths[n.Path] = n.ID
	}
	return nil
}
