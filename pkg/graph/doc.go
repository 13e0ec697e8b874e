// Package graph provides the serialization format for positioned trees.
//
// This package defines the canonical wire format for jsontree's layout data,
// used for JSON files, API responses, caching and stored sessions.
//
// # Architecture
//
// The package sits at the serialization boundary between internal
// representations and external formats:
//
//   - [Layout], [Node], [Edge]: serialization types (this package)
//   - pkg/tree.Tree: internal node/edge representation
//   - pkg/layout: position assignment
//
// Use [FromTree] and [ToTree] to convert between them.
//
// # Constants
//
// This package is the single source of truth for visualization constants:
//
//	graph.VizTypeTree      // "tree"
//	graph.VizTypeNodelink  // "nodelink"
//	graph.StyleLight       // "light"
//	graph.StyleDark        // "dark"
//
// # Layout Serialization
//
// A layout lists nodes and edges in creation order:
//
//	{
//	  "viz_type": "tree",
//	  "width": 380, "height": 296,
//	  "nodes": [
//	    {"id": "node-0", "kind": "object", "key": "root", "label": "root {}", "path": "$", "level": 0, "x": 0, "y": 0},
//	    {"id": "node-1", "kind": "primitive", "key": "a", "label": "a: 1", "path": "$.a", "level": 1, "x": 0, "y": 120, "value": 1}
//	  ],
//	  "edges": [{"id": "edge-node-0-node-1", "source": "node-0", "target": "node-1"}],
//	  "rows": {"0": ["node-0"], "1": ["node-1"]}
//	}
//
// Common operations:
//
//	l, _ := graph.FromTree(t, graph.VizTypeTree, graph.StyleLight, 280, 120)
//	graph.WriteLayoutFile(l, "doc.layout.json")
//	l, _ = graph.ReadLayoutFile("doc.layout.json")
//	t, _ = graph.ToTree(l)
//
// # Concurrency
//
// All functions are safe for concurrent reads but not concurrent writes.
package graph
