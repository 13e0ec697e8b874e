// Package tree converts a JSON value into a flat set of nodes and edges.
//
// # Overview
//
// jsontree draws a JSON document as a diagram where every value reachable
// from the root becomes one box and every containment relationship becomes
// one arrow. This package produces that structure: [Build] walks a
// [jsonv.Value] depth-first in pre-order and emits one [Node] per value and
// one [Edge] per parent/child pair.
//
// The result is always a tree. Every node except the root has exactly one
// incoming edge, so len(Edges) == len(Nodes)-1 for any input.
//
// # Identifiers
//
// Node IDs are assigned from a counter that starts at zero for every build
// and is incremented once per node, giving "node-0", "node-1", and so on in
// creation order. The root is always "node-0". Edge IDs combine both
// endpoints: "edge-node-0-node-1".
//
// # Paths
//
// Each node carries the access path from the root:
//
//	$                     the root, whatever its type
//	$.orders              object member "orders"
//	$.orders[0]           first element of that array
//	$.orders[0].price     member of that element
//
// Keys are inserted verbatim. A key containing "." or "[" is not escaped,
// so {"a.b": 1} and {"a": {"b": 1}} both produce the path "$.a.b" for their
// leaf. Paths are unique for any document whose keys avoid those characters;
// [Tree.CheckPaths] reports the collision when they do not.
//
// # Labels
//
// Labels summarize a node for display:
//
//	root {}          object
//	items [3]        array with three elements
//	name: Ada        primitive, stringified like JavaScript's String()
//	parent: null     null is a primitive
//
// Array elements use their index as the key ("0: 1", "1 {}").
//
// # Limits
//
// [Build] never fails. [BuildWithOptions] accepts [Options] bounding depth
// and node count, returning [ErrTooLarge] when the document exceeds them.
// Servers use it to reject pathological input before layout and rendering.
//
// # Concurrency
//
// Building is a pure function of its input. A [Tree] is not safe for
// concurrent mutation; the layout and highlight passes write into
// [Tree.Nodes] and callers that share a tree must [Tree.Clone] it first.
//
// [jsonv.Value]: github.com/matzehuels/jsontree/pkg/jsonv
package tree
