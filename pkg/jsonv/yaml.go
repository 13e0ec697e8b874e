package jsonv

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// maxAliasDepth bounds alias expansion so recursive anchors cannot loop.
const maxAliasDepth = 64

// DefaultMaxYAMLValues caps the values [ParseYAML] produces. Aliases are
// expanded in place, so a short document can otherwise describe billions.
const DefaultMaxYAMLValues = 1 << 20

// ErrTooLarge is returned when a YAML document expands to more values than
// allowed.
var ErrTooLarge = errors.New("document too large")

// ParseYAML decodes the first document in data into a Value.
//
// Mapping order is preserved. Anchors and aliases are expanded, and merge
// keys (<<) are treated as ordinary keys. Mapping keys must be scalars.
// At most DefaultMaxYAMLValues values are produced.
func ParseYAML(data []byte) (Value, error) {
	return ParseYAMLWithLimit(data, DefaultMaxYAMLValues)
}

// ParseYAMLWithLimit is like [ParseYAML] but fails with [ErrTooLarge] once
// the expanded document holds more than maxValues values. A non-positive
// maxValues means DefaultMaxYAMLValues.
func ParseYAMLWithLimit(data []byte, maxValues int) (Value, error) {
	if maxValues <= 0 {
		maxValues = DefaultMaxYAMLValues
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Value{}, fmt.Errorf("decode yaml: %w", err)
	}
	if doc.Kind == 0 {
		return Null(), nil
	}
	d := &yamlDecoder{max: maxValues}
	return d.value(&doc, 0)
}

// yamlDecoder counts every value it produces, alias copies included.
type yamlDecoder struct {
	max   int
	count int
}

func (d *yamlDecoder) value(n *yaml.Node, depth int) (Value, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return Null(), nil
		}
		return d.value(n.Content[0], depth)

	case yaml.AliasNode:
		if depth >= maxAliasDepth {
			return Value{}, fmt.Errorf("yaml line %d: alias nesting too deep", n.Line)
		}
		return d.value(n.Alias, depth+1)
	}

	d.count++
	if d.count > d.max {
		return Value{}, fmt.Errorf("%w: more than %d values", ErrTooLarge, d.max)
	}

	switch n.Kind {
	case yaml.SequenceNode:
		items := make([]Value, 0, len(n.Content))
		for _, c := range n.Content {
			item, err := d.value(c, depth)
			if err != nil {
				return Value{}, err
			}
			items = append(items, item)
		}
		return Array(items...), nil

	case yaml.MappingNode:
		members := make([]Member, 0, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			k := n.Content[i]
			if k.Kind == yaml.AliasNode {
				k = k.Alias
			}
			if k.Kind != yaml.ScalarNode {
				return Value{}, fmt.Errorf("yaml line %d: mapping keys must be scalars", k.Line)
			}
			child, err := d.value(n.Content[i+1], depth)
			if err != nil {
				return Value{}, err
			}
			members = append(members, Member{Key: k.Value, Value: child})
		}
		return Object(members...), nil

	case yaml.ScalarNode:
		return scalarFromYAML(n)
	}
	return Value{}, fmt.Errorf("yaml line %d: unsupported node kind %d", n.Line, n.Kind)
}

func scalarFromYAML(n *yaml.Node) (Value, error) {
	switch n.ShortTag() {
	case "!!null":
		return Null(), nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return Value{}, fmt.Errorf("yaml line %d: %w", n.Line, err)
		}
		return Bool(b), nil
	case "!!int", "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return Value{}, fmt.Errorf("yaml line %d: %w", n.Line, err)
		}
		return Number(f), nil
	default:
		return String(n.Value), nil
	}
}
