// Package jsonv provides an order-preserving representation of parsed JSON values.
//
// # Overview
//
// [Value] is a tagged variant over the six JSON kinds (null, boolean, number,
// string, array, object). Object members keep their document order, which is
// what the tree builder in [github.com/matzehuels/jsontree/pkg/tree] relies on
// to produce a stable left-to-right layout.
//
// # Reading
//
// Use [Parse] for JSON text, [ParseYAML] for YAML documents, or [ParseFile]
// to pick a reader from the file extension:
//
//	v, err := jsonv.Parse([]byte(`{"a": {"b": 1}}`))
//	if err != nil {
//	    return err
//	}
//	fmt.Println(v.Kind()) // object
//
// Duplicate object keys behave like JavaScript's JSON.parse: the last value
// wins and the member keeps the position of its first occurrence.
//
// # Display
//
// [Value.String] renders scalars the way a browser would print them, so labels
// such as "price: 1e+21" or "ok: true" are identical across frontends.
//
// # Concurrency
//
// Values are immutable after construction and safe for concurrent reads.
package jsonv
