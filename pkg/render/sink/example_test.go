package sink_test

import (
	"fmt"

	"github.com/matzehuels/jsontree/pkg/graph"
	"github.com/matzehuels/jsontree/pkg/jsonv"
	"github.com/matzehuels/jsontree/pkg/layout"
	"github.com/matzehuels/jsontree/pkg/render/sink"
	"github.com/matzehuels/jsontree/pkg/render/styles"
	"github.com/matzehuels/jsontree/pkg/tree"
)

func ExampleRenderMermaid() {
	t := tree.Build(jsonv.MustParse(`{"ok":true}`))
	layout.Apply(t.Nodes)
	l, _ := graph.FromTree(t, graph.VizTypeTree, graph.StyleLight, layout.DefaultHSpacing, layout.DefaultVSpacing)

	fmt.Print(string(sink.RenderMermaid(l, styles.Light)))
	// Output:
	// flowchart TD
	//     node_0["root {}"]
	//     node_1["ok: true"]
	//     node_0 --> node_1
	//     classDef object fill:#e0f2fe,stroke:#cbd5e1,color:#0f172a
	//     classDef array fill:#ede9fe,stroke:#cbd5e1,color:#0f172a
	//     classDef primitive fill:#f8fafc,stroke:#cbd5e1,color:#0f172a
	//     classDef highlighted fill:#fde68a,stroke:#d97706,color:#78350f,stroke-width:3px
	//     class node_0 object
	//     class node_1 primitive
}
