// Package pkg provides the core libraries for jsontree document visualization.
//
// # Overview
//
// jsontree turns a JSON or YAML document into a tree diagram where every
// nesting level is a centered row of boxes, and finds nodes by path. The pkg
// directory is organized into these areas:
//
//  1. [jsonv] and [tree] - Decoding and the node/edge tree
//  2. [layout] and [search] - Positions and path matching
//  3. [graph] - Serialization types for positioned trees
//  4. [render] - SVG, PNG, PDF, DOT and Mermaid output
//  5. [pipeline] - Orchestration (build → layout → render) with caching
//  6. [cache] and [session] - Storage backends and viewer state
//  7. [errors] and [observability] - Error codes and instrumentation hooks
//
// # Architecture
//
// The typical data flow through jsontree:
//
//	JSON / YAML document
//	         ↓
//	    [jsonv] package (ordered decode)
//	         ↓
//	    [tree] package (nodes, edges, paths)
//	         ↓
//	    [layout] package (level-by-level positions)
//	         ↓
//	    [search] package (highlight by path)
//	         ↓
//	    SVG/PNG/PDF/JSON/DOT/Mermaid output
//
// # Quick Start
//
// Build, lay out and render a document:
//
//	import (
//	    "context"
//	    "github.com/matzehuels/jsontree/pkg/pipeline"
//	)
//
//	runner := pipeline.NewRunner(nil, nil, nil)
//	result, err := runner.Execute(context.Background(), pipeline.Options{
//	    Document:  data,
//	    Highlight: "orders[0].total",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
//
// # Caching
//
// Every pipeline stage is cached under a key derived from its input, in a
// file, Redis or MongoDB backend. See [cache] and [pipeline.Runner].
package pkg
