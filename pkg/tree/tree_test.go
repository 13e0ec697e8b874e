package tree

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/matzehuels/jsontree/pkg/jsonv"
)

var documents = map[string]string{
	"null":          `null`,
	"number":        `42`,
	"string":        `"hello"`,
	"empty object":  `{}`,
	"empty array":   `[]`,
	"flat object":   `{"a":1,"b":"x","c":null,"d":true}`,
	"nested":        `{"a":{"b":{"c":[1,2,{"d":[]}]}}}`,
	"array of objs": `[{"id":1},{"id":2},{"id":3,"tags":["x","y"]}]`,
	"mixed": `{
		"user": {"name": "Ada", "roles": ["admin", "dev"], "manager": null},
		"orders": [{"items": [{"price": 9.5}, {"price": 12}]}, []],
		"active": false
	}`,
}

func build(t *testing.T, doc string) *Tree {
	t.Helper()
	v, err := jsonv.ParseString(doc)
	if err != nil {
		t.Fatalf("parse %s: %v", doc, err)
	}
	return Build(v)
}

func TestBuildStructure(t *testing.T) {
	for name, doc := range documents {
		t.Run(name, func(t *testing.T) {
			tr := build(t, doc)

			if len(tr.Edges) != len(tr.Nodes)-1 {
				t.Errorf("edges = %d, want %d", len(tr.Edges), len(tr.Nodes)-1)
			}
			if err := tr.Validate(); err != nil {
				t.Errorf("Validate: %v", err)
			}
			if err := tr.CheckPaths(); err != nil {
				t.Errorf("CheckPaths: %v", err)
			}

			root := tr.Root()
			if root == nil || root.ID != "node-0" || root.Path != RootPath || root.Level != 0 {
				t.Fatalf("root = %+v", root)
			}
			if _, ok := tr.Parent(root.ID); ok {
				t.Error("root should have no parent")
			}
			for _, n := range tr.Nodes[1:] {
				p, ok := tr.Parent(n.ID)
				if !ok {
					t.Errorf("%s has no parent", n.ID)
					continue
				}
				parent, _ := tr.Node(p)
				if parent.Level != n.Level-1 {
					t.Errorf("%s level %d, parent level %d", n.ID, n.Level, parent.Level)
				}
			}
		})
	}
}

func TestBuildIDsInCreationOrder(t *testing.T) {
	tr := build(t, documents["mixed"])
	for i, n := range tr.Nodes {
		if want := "node-" + strconv.Itoa(i); n.ID != want {
			t.Errorf("Nodes[%d].ID = %s, want %s", i, n.ID, want)
		}
	}
	for _, e := range tr.Edges {
		if e.ID != "edge-"+e.Source+"-"+e.Target {
			t.Errorf("edge ID = %s", e.ID)
		}
	}
}

func TestBuildPathsUnique(t *testing.T) {
	for name, doc := range documents {
		t.Run(name, func(t *testing.T) {
			seen := map[string]bool{}
			for _, ref := range build(t, doc).Paths() {
				if seen[ref.Path] {
					t.Errorf("duplicate path %s", ref.Path)
				}
				seen[ref.Path] = true
			}
		})
	}
}

func TestBuildDeterministic(t *testing.T) {
	for name, doc := range documents {
		t.Run(name, func(t *testing.T) {
			a, b := build(t, doc), build(t, doc)
			if len(a.Nodes) != len(b.Nodes) {
				t.Fatalf("node count %d vs %d", len(a.Nodes), len(b.Nodes))
			}
			for i := range a.Nodes {
				x, y := a.Nodes[i], b.Nodes[i]
				if x.ID != y.ID || x.Label != y.Label || x.Path != y.Path || x.Level != y.Level || x.Kind != y.Kind {
					t.Errorf("node %d differs: %+v vs %+v", i, x, y)
				}
			}
		})
	}
}

var arrayLabel = regexp.MustCompile(`^.+ \[(\d+)\]$`)

func TestBuildLabelsByKind(t *testing.T) {
	for name, doc := range documents {
		t.Run(name, func(t *testing.T) {
			for _, n := range build(t, doc).Nodes {
				switch n.Value.Kind() {
				case jsonv.KindObject:
					if n.Kind != KindObject || !strings.HasSuffix(n.Label, "{}") {
						t.Errorf("object node %s: kind %v label %q", n.Path, n.Kind, n.Label)
					}
				case jsonv.KindArray:
					m := arrayLabel.FindStringSubmatch(n.Label)
					if n.Kind != KindArray || m == nil || m[1] != strconv.Itoa(n.Value.Len()) {
						t.Errorf("array node %s: kind %v label %q", n.Path, n.Kind, n.Label)
					}
				case jsonv.KindNull:
					if n.Kind != KindPrimitive || !strings.HasSuffix(n.Label, ": null") {
						t.Errorf("null node %s: kind %v label %q", n.Path, n.Kind, n.Label)
					}
				default:
					if n.Kind != KindPrimitive {
						t.Errorf("primitive node %s: kind %v", n.Path, n.Kind)
					}
				}
			}
		})
	}
}

func TestBuildNestedObject(t *testing.T) {
	tr := build(t, `{"a":{"b":1}}`)

	want := []struct {
		path  string
		kind  Kind
		label string
		level int
	}{
		{"$", KindObject, "root {}", 0},
		{"$.a", KindObject, "a {}", 1},
		{"$.a.b", KindPrimitive, "b: 1", 2},
	}
	if len(tr.Nodes) != len(want) {
		t.Fatalf("nodes = %d, want %d", len(tr.Nodes), len(want))
	}
	for i, w := range want {
		n := tr.Nodes[i]
		if n.Path != w.path || n.Kind != w.kind || n.Label != w.label || n.Level != w.level {
			t.Errorf("node %d = {%s %v %q %d}, want %+v", i, n.Path, n.Kind, n.Label, n.Level, w)
		}
	}

	wantEdges := []Edge{
		{ID: "edge-node-0-node-1", Source: "node-0", Target: "node-1"},
		{ID: "edge-node-1-node-2", Source: "node-1", Target: "node-2"},
	}
	if len(tr.Edges) != len(wantEdges) {
		t.Fatalf("edges = %v", tr.Edges)
	}
	for i := range wantEdges {
		if tr.Edges[i] != wantEdges[i] {
			t.Errorf("edge %d = %+v, want %+v", i, tr.Edges[i], wantEdges[i])
		}
	}
}

func TestBuildRootArray(t *testing.T) {
	tr := build(t, `[1,2,3]`)

	root := tr.Root()
	if root.Kind != KindArray || root.Label != "root [3]" {
		t.Errorf("root = %v %q", root.Kind, root.Label)
	}
	if len(tr.Nodes) != 4 {
		t.Fatalf("nodes = %d, want 4", len(tr.Nodes))
	}
	for i, n := range tr.Nodes[1:] {
		wantPath := "$[" + strconv.Itoa(i) + "]"
		wantLabel := strconv.Itoa(i) + ": " + strconv.Itoa(i+1)
		if n.Path != wantPath || n.Level != 1 || n.Kind != KindPrimitive || n.Label != wantLabel {
			t.Errorf("child %d = {%s %d %v %q}", i, n.Path, n.Level, n.Kind, n.Label)
		}
	}
	if got := tr.Children(root.ID); len(got) != 3 {
		t.Errorf("Children(root) = %v", got)
	}
}

func TestBuildEmptyContainers(t *testing.T) {
	tests := []struct {
		doc   string
		label string
	}{
		{`{}`, "root {}"},
		{`[]`, "root [0]"},
	}
	for _, tt := range tests {
		t.Run(tt.doc, func(t *testing.T) {
			tr := build(t, tt.doc)
			if len(tr.Nodes) != 1 || len(tr.Edges) != 0 {
				t.Fatalf("nodes=%d edges=%d, want 1 and 0", len(tr.Nodes), len(tr.Edges))
			}
			if tr.Nodes[0].Label != tt.label {
				t.Errorf("label = %q, want %q", tr.Nodes[0].Label, tt.label)
			}
		})
	}
}

func TestBuildPrimitiveLabels(t *testing.T) {
	tests := []struct {
		doc  string
		want string
	}{
		{`{"n":null}`, "n: null"},
		{`{"b":false}`, "b: false"},
		{`{"f":2.50}`, "f: 2.5"},
		{`{"big":1e21}`, "big: 1e+21"},
		{`{"s":"two words"}`, "s: two words"},
		{`{"e":""}`, "e: "},
	}
	for _, tt := range tests {
		t.Run(tt.doc, func(t *testing.T) {
			tr := build(t, tt.doc)
			if got := tr.Nodes[1].Label; got != tt.want {
				t.Errorf("label = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuildPathGrammar(t *testing.T) {
	tr := build(t, `{"orders":[{"items":[{"price":1},{"price":2}]}],"m":[[0]]}`)
	want := []string{
		"$",
		"$.orders",
		"$.orders[0]",
		"$.orders[0].items",
		"$.orders[0].items[0]",
		"$.orders[0].items[0].price",
		"$.orders[0].items[1]",
		"$.orders[0].items[1].price",
		"$.m",
		"$.m[0]",
		"$.m[0][0]",
	}
	refs := tr.Paths()
	if len(refs) != len(want) {
		t.Fatalf("paths = %v", refs)
	}
	for i, w := range want {
		if refs[i].Path != w {
			t.Errorf("path %d = %s, want %s", i, refs[i].Path, w)
		}
	}
}

func TestBuildKeysNotEscaped(t *testing.T) {
	tr := build(t, `{"a.b":1,"a":{"b":2}}`)
	if tr.Nodes[1].Path != "$.a.b" || tr.Nodes[3].Path != "$.a.b" {
		t.Fatalf("paths = %v", tr.Paths())
	}
	if err := tr.Validate(); err != nil {
		t.Errorf("Validate = %v, want nil", err)
	}
	if err := tr.CheckPaths(); !errors.Is(err, ErrDuplicatePath) {
		t.Errorf("CheckPaths = %v, want ErrDuplicatePath", err)
	}
}

func TestBuildWithOptions(t *testing.T) {
	v := jsonv.MustParse(`{"a":{"b":{"c":1}},"d":[1,2,3]}`)

	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{"unlimited", Options{}, false},
		{"depth fits", Options{MaxDepth: 3}, false},
		{"depth exceeded", Options{MaxDepth: 2}, true},
		{"nodes fit", Options{MaxNodes: 8}, false},
		{"nodes exceeded", Options{MaxNodes: 7}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, err := BuildWithOptions(v, tt.opts)
			if tt.wantErr {
				if !errors.Is(err, ErrTooLarge) {
					t.Errorf("err = %v, want ErrTooLarge", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tr.Len() != 8 {
				t.Errorf("Len() = %d, want 8", tr.Len())
			}
		})
	}
}

func TestTreeAccessors(t *testing.T) {
	tr := build(t, `{"a":[1,2],"b":{"c":null}}`)

	if tr.MaxLevel() != 2 {
		t.Errorf("MaxLevel() = %d, want 2", tr.MaxLevel())
	}
	if got := len(tr.Level(2)); got != 3 {
		t.Errorf("len(Level(2)) = %d, want 3", got)
	}
	if got := tr.Children("node-0"); len(got) != 2 || got[0] != "node-1" || got[1] != "node-4" {
		t.Errorf("Children(node-0) = %v", got)
	}
	if p, _ := tr.Parent("node-5"); p != "node-4" {
		t.Errorf("Parent(node-5) = %s, want node-4", p)
	}
	if _, ok := tr.Node("node-99"); ok {
		t.Error("Node(node-99) should not exist")
	}
	if _, ok := tr.Highlighted(); ok {
		t.Error("fresh tree should have no highlighted node")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	tr := build(t, `{"a":1}`)
	c := tr.Clone()
	c.Nodes[1].Highlighted = true
	c.Nodes[1].Position = Position{X: 10, Y: 20}

	if tr.Nodes[1].Highlighted || tr.Nodes[1].Position != (Position{}) {
		t.Error("modifying clone changed original")
	}
	if n, ok := c.Highlighted(); !ok || n.ID != "node-1" {
		t.Errorf("clone Highlighted() = %v, %v", n, ok)
	}
}

func TestValidateRejectsBrokenTrees(t *testing.T) {
	nodes := []Node{{ID: "node-0", Path: "$"}, {ID: "node-1", Path: "$.a"}, {ID: "node-2", Path: "$.b"}}

	tests := []struct {
		name  string
		nodes []Node
		edges []Edge
		want  error
	}{
		{"empty", nil, nil, ErrNoRoot},
		{"unknown target", nodes, []Edge{{Source: "node-0", Target: "node-9"}}, ErrUnknownNode},
		{"two roots", nodes, []Edge{{Source: "node-0", Target: "node-1"}}, ErrNoRoot},
		{"two parents", nodes, []Edge{
			{Source: "node-0", Target: "node-2"},
			{Source: "node-1", Target: "node-2"},
		}, ErrMultipleParents},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := New(tt.nodes, tt.edges).Validate(); !errors.Is(err, tt.want) {
				t.Errorf("Validate = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestKindRoundTrip(t *testing.T) {
	for _, k := range []Kind{KindPrimitive, KindObject, KindArray} {
		got, err := ParseKind(k.String())
		if err != nil || got != k {
			t.Errorf("ParseKind(%q) = %v, %v", k.String(), got, err)
		}
	}
	if _, err := ParseKind("tuple"); err == nil {
		t.Error("ParseKind(tuple) should fail")
	}
}
