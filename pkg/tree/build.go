package tree

import (
	"fmt"
	"strconv"

	"github.com/matzehuels/jsontree/pkg/jsonv"
)

// RootKey is the key given to the root node.
const RootKey = "root"

// RootPath is the path of the root node.
const RootPath = "$"

// Options bounds the size of a build. Zero values mean unlimited.
type Options struct {
	MaxDepth int // deepest level allowed (root = 0)
	MaxNodes int // maximum number of nodes
}

// Build converts v into a tree. It never fails.
func Build(v jsonv.Value) *Tree {
	t, _ := BuildWithOptions(v, Options{})
	return t
}

// BuildWithOptions is like [Build] but stops with [ErrTooLarge] as soon as
// the document exceeds opts.
func BuildWithOptions(v jsonv.Value, opts Options) (*Tree, error) {
	b := &builder{opts: opts}
	if err := b.visit(v, RootKey, "", RootPath, 0); err != nil {
		return nil, err
	}
	return New(b.nodes, b.edges), nil
}

// builder carries the id counter and accumulated output through one walk.
type builder struct {
	opts  Options
	next  int
	nodes []Node
	edges []Edge
}

func (b *builder) visit(v jsonv.Value, key, parentID, path string, level int) error {
	if b.opts.MaxDepth > 0 && level > b.opts.MaxDepth {
		return fmt.Errorf("%w: depth exceeds %d at %s", ErrTooLarge, b.opts.MaxDepth, path)
	}
	if b.opts.MaxNodes > 0 && b.next >= b.opts.MaxNodes {
		return fmt.Errorf("%w: more than %d nodes", ErrTooLarge, b.opts.MaxNodes)
	}

	id := "node-" + strconv.Itoa(b.next)
	b.next++

	b.nodes = append(b.nodes, Node{
		ID:    id,
		Kind:  KindOf(v),
		Key:   key,
		Label: Label(key, v),
		Path:  path,
		Value: v,
		Level: level,
	})
	if parentID != "" {
		b.edges = append(b.edges, Edge{ID: EdgeID(parentID, id), Source: parentID, Target: id})
	}

	switch v.Kind() {
	case jsonv.KindArray:
		for i, item := range v.Items() {
			idx := strconv.Itoa(i)
			if err := b.visit(item, idx, id, path+"["+idx+"]", level+1); err != nil {
				return err
			}
		}
	case jsonv.KindObject:
		var err error
		v.Each(func(k string, child jsonv.Value) bool {
			err = b.visit(child, k, id, path+"."+k, level+1)
			return err == nil
		})
		return err
	}
	return nil
}

// Label returns the display label for a value stored under key.
func Label(key string, v jsonv.Value) string {
	switch v.Kind() {
	case jsonv.KindObject:
		return key + " {}"
	case jsonv.KindArray:
		return key + " [" + strconv.Itoa(v.Len()) + "]"
	default:
		return key + ": " + v.String()
	}
}
