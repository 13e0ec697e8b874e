package pipeline

import (
	"github.com/matzehuels/jsontree/pkg/graph"
	"github.com/matzehuels/jsontree/pkg/layout"
	"github.com/matzehuels/jsontree/pkg/search"
	"github.com/matzehuels/jsontree/pkg/tree"
)

// =============================================================================
// Layout Generation
// =============================================================================

// GenerateLayout positions a copy of t and applies opts.Highlight to it.
// The input tree is not modified. Both visualization types share the same
// coordinates; nodelink rendering lets Graphviz re-place them.
func GenerateLayout(t *tree.Tree, opts Options) (graph.Layout, search.Result, error) {
	work := t.Clone()
	layout.Apply(work.Nodes, layout.WithSpacing(opts.HSpacing, opts.VSpacing))
	res := search.Run(work, opts.Highlight)

	l, err := graph.FromTree(work, opts.VizType, "", opts.HSpacing, opts.VSpacing)
	if err != nil {
		return graph.Layout{}, res, err
	}
	l.Query = res.Query
	return l, res, nil
}

// ApplySearch returns a copy of l with query applied: the matching node is
// highlighted and every other highlight is cleared. An empty query clears
// the highlight. l itself is not modified.
func ApplySearch(l graph.Layout, query string) (graph.Layout, search.Result) {
	res := search.Match(query, l.Paths())

	out := l
	out.Nodes = make([]graph.Node, len(l.Nodes))
	copy(out.Nodes, l.Nodes)
	hit := false
	for i := range out.Nodes {
		on := res.Status == search.Found && !hit && out.Nodes[i].ID == res.NodeID
		out.Nodes[i].Highlighted = on
		hit = hit || on
	}
	out.Query = res.Query
	out.Highlight = res.NodeID
	return out, res
}

// treeLayout is the unpositioned form of t used for caching and hashing.
func treeLayout(t *tree.Tree) (graph.Layout, error) {
	return graph.FromTree(t, graph.VizTypeTree, "", 0, 0)
}
