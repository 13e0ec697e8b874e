package sink

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/matzehuels/jsontree/pkg/graph"
	"github.com/matzehuels/jsontree/pkg/render/styles"
)

// RenderMermaid writes the layout as a Mermaid flowchart. Node IDs are
// rewritten with underscores because Mermaid reads "-" as part of an arrow.
// Kind and highlight colors come from p.
func RenderMermaid(l graph.Layout, p styles.Palette) []byte {
	var buf bytes.Buffer
	buf.WriteString("flowchart TD\n")

	for _, n := range l.Nodes {
		fmt.Fprintf(&buf, "    %s[\"%s\"]\n", mermaidID(n.ID), mermaidText(n.Label))
	}
	for _, e := range l.Edges {
		fmt.Fprintf(&buf, "    %s --> %s\n", mermaidID(e.Source), mermaidID(e.Target))
	}

	fmt.Fprintf(&buf, "    classDef object fill:%s,stroke:%s,color:%s\n", p.Object, p.Stroke, p.Text)
	fmt.Fprintf(&buf, "    classDef array fill:%s,stroke:%s,color:%s\n", p.Array, p.Stroke, p.Text)
	fmt.Fprintf(&buf, "    classDef primitive fill:%s,stroke:%s,color:%s\n", p.Primitive, p.Stroke, p.Text)
	fmt.Fprintf(&buf, "    classDef highlighted fill:%s,stroke:%s,color:%s,stroke-width:3px\n",
		p.HighlightFill, p.HighlightStroke, p.HighlightText)

	for _, class := range []string{graph.KindObject, graph.KindArray, graph.KindPrimitive} {
		var ids []string
		for _, n := range l.Nodes {
			if n.Kind == class && !n.Highlighted {
				ids = append(ids, mermaidID(n.ID))
			}
		}
		if len(ids) > 0 {
			fmt.Fprintf(&buf, "    class %s %s\n", strings.Join(ids, ","), class)
		}
	}
	for _, n := range l.Nodes {
		if n.Highlighted {
			fmt.Fprintf(&buf, "    class %s highlighted\n", mermaidID(n.ID))
		}
	}
	return buf.Bytes()
}

func mermaidID(id string) string {
	return strings.ReplaceAll(id, "-", "_")
}

var mermaidEscaper = strings.NewReplacer(`"`, "#quot;", "\n", " ", "<", "#lt;", ">", "#gt;")

func mermaidText(s string) string {
	return mermaidEscaper.Replace(s)
}
