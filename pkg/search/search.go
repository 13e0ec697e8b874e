// Package search locates a tree node from a user-typed path.
//
// Queries are normalized into the path grammar the tree builder produces,
// so "user.name", ".user.name" and "$.user.name" are interchangeable. A node
// matches when its path equals the normalized query, equals it with "$"
// prepended, or ends with it. The first matching node in creation order
// wins.
//
// Suffix matching compares plain strings, not path segments. The query
// "bar" normalizes to ".bar" and therefore does not match "$.xbar", but it
// does match the member "x.bar" of the root, whose path is "$.x.bar",
// because keys are not escaped.
package search

import (
	"strings"

	"github.com/matzehuels/jsontree/pkg/tree"
)

// Status is the outcome of a match.
type Status int

const (
	// Cleared means the query was empty and any highlight should be removed.
	Cleared Status = iota
	// Found means a node matched.
	Found
	// NotFound means no node matched.
	NotFound
)

// String returns "cleared", "found" or "not_found".
func (s Status) String() string {
	switch s {
	case Found:
		return "found"
	case NotFound:
		return "not_found"
	default:
		return "cleared"
	}
}

// Messages shown to users for each outcome.
const (
	MessageFound    = "Match found!"
	MessageNotFound = "No match found"
)

// Result is the outcome of [Match].
type Result struct {
	Status Status
	Query  string // normalized query; empty when Cleared
	NodeID string // set when Found
	Path   string // path of the matched node when Found
}

// Message returns the user-facing text for r. It is empty for Cleared.
func (r Result) Message() string {
	switch r.Status {
	case Found:
		return MessageFound
	case NotFound:
		return MessageNotFound
	default:
		return ""
	}
}

// Normalize converts a query into the path grammar. Surrounding whitespace
// is trimmed. A leading "$." loses its "$", a leading "." is kept, and any
// other query not starting with "$" gains a leading ".". Normalize is
// idempotent, and the empty query stays empty.
func Normalize(query string) string {
	q := strings.TrimSpace(query)
	switch {
	case q == "":
		return ""
	case strings.HasPrefix(q, "$."):
		return q[1:]
	case strings.HasPrefix(q, "."), strings.HasPrefix(q, "$"):
		return q
	default:
		return "." + q
	}
}

// Match resolves query against paths, which must be in creation order.
// It never fails: an empty or whitespace query yields Cleared and an
// unmatched one yields NotFound.
func Match(query string, paths []tree.PathRef) Result {
	norm := Normalize(query)
	if norm == "" {
		return Result{Status: Cleared}
	}
	rooted := "$" + norm
	for _, ref := range paths {
		if ref.Path == norm || ref.Path == rooted || strings.HasSuffix(ref.Path, norm) {
			return Result{Status: Found, Query: norm, NodeID: ref.ID, Path: ref.Path}
		}
	}
	return Result{Status: NotFound, Query: norm}
}

// Apply sets Highlighted on the matched node and clears it everywhere else.
// After Apply exactly one node is highlighted when r is Found and none
// otherwise. It returns the highlighted node's index, or -1.
func Apply(nodes []tree.Node, r Result) int {
	hit := -1
	for i := range nodes {
		on := r.Status == Found && hit < 0 && nodes[i].ID == r.NodeID
		nodes[i].Highlighted = on
		if on {
			hit = i
		}
	}
	return hit
}

// Run matches query against t and applies the highlight to its nodes.
func Run(t *tree.Tree, query string) Result {
	r := Match(query, t.Paths())
	Apply(t.Nodes, r)
	return r
}
