package pipeline

import (
	stderrors "errors"

	"github.com/matzehuels/jsontree/pkg/errors"
	"github.com/matzehuels/jsontree/pkg/jsonv"
	"github.com/matzehuels/jsontree/pkg/tree"
)

// Decode parses opts.Document as YAML when the filename says so and as JSON
// otherwise. Syntax errors carry ErrCodeInvalidJSON. YAML alias expansion
// stops at opts.MaxNodes values with ErrCodeTooLarge.
func Decode(opts Options) (jsonv.Value, error) {
	var (
		v   jsonv.Value
		err error
	)
	if opts.IsYAML() {
		v, err = jsonv.ParseYAMLWithLimit(opts.Document, opts.MaxNodes)
	} else {
		v, err = jsonv.Parse(opts.Document)
	}
	if stderrors.Is(err, jsonv.ErrTooLarge) {
		return jsonv.Value{}, errors.Wrap(errors.ErrCodeTooLarge, err,
			"document exceeds limits (max nodes %d)", opts.MaxNodes)
	}
	if err != nil {
		return jsonv.Value{}, errors.Wrap(errors.ErrCodeInvalidJSON, err, "parse %s", opts.source())
	}
	return v, nil
}

// Build decodes the document and converts it into a tree, enforcing the
// depth and node limits in opts.
func Build(opts Options) (*tree.Tree, error) {
	v, err := Decode(opts)
	if err != nil {
		return nil, err
	}
	t, err := tree.BuildWithOptions(v, tree.Options{MaxDepth: opts.MaxDepth, MaxNodes: opts.MaxNodes})
	if stderrors.Is(err, tree.ErrTooLarge) {
		return nil, errors.Wrap(errors.ErrCodeTooLarge, err,
			"document exceeds limits (max depth %d, max nodes %d)", opts.MaxDepth, opts.MaxNodes)
	}
	return t, err
}

// source names the document in logs and error messages.
func (o *Options) source() string {
	if o.Filename != "" {
		return o.Filename
	}
	return "document"
}
