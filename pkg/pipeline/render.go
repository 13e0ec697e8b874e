package pipeline

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/matzehuels/jsontree/pkg/errors"
	"github.com/matzehuels/jsontree/pkg/graph"
	"github.com/matzehuels/jsontree/pkg/render"
	"github.com/matzehuels/jsontree/pkg/render/nodelink"
	"github.com/matzehuels/jsontree/pkg/render/sink"
	"github.com/matzehuels/jsontree/pkg/render/styles"
)

// RenderLayout generates output artifacts for l in the requested formats.
// The layout's viz type selects the renderer for svg, png and pdf; json,
// dot and mermaid are the same for both.
func RenderLayout(ctx context.Context, l graph.Layout, opts Options) (map[string][]byte, error) {
	palette, _ := styles.For(opts.Style)
	l.Style = opts.Style

	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var (
			data []byte
			err  error
		)
		switch format {
		case FormatJSON:
			data, err = graph.MarshalLayout(l)
		case FormatDOT:
			data = []byte(nodelink.ToDOT(l, nodelink.Options{Detailed: opts.Detailed, Palette: palette}))
		case FormatMermaid:
			data = sink.RenderMermaid(l, palette)
		default:
			if l.IsNodelink() {
				data, err = renderNodelink(ctx, l, format, palette, opts)
			} else {
				data, err = renderTree(ctx, l, format, palette, opts)
			}
		}

		if err != nil {
			if stderrors.Is(err, render.ErrNoConverter) {
				return nil, errors.Wrap(errors.ErrCodeUnsupported, err, "render %s", format)
			}
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}

// renderTree draws the hand-built level-by-level diagram.
func renderTree(ctx context.Context, l graph.Layout, format string, p styles.Palette, opts Options) ([]byte, error) {
	svgOpts := []sink.SVGOption{sink.WithStyle(p)}
	if opts.Detailed {
		svgOpts = append(svgOpts, sink.WithTitles())
	}

	switch format {
	case FormatSVG:
		return sink.RenderSVG(l, svgOpts...), nil
	case FormatPNG:
		return sink.RenderPNG(ctx, l, sink.WithPNGSVGOptions(svgOpts...), sink.WithScale(opts.Scale))
	case FormatPDF:
		return sink.RenderPDF(ctx, l, sink.WithPDFSVGOptions(svgOpts...))
	default:
		return nil, fmt.Errorf("unsupported tree format: %s", format)
	}
}

// renderNodelink draws the layout through Graphviz.
func renderNodelink(ctx context.Context, l graph.Layout, format string, p styles.Palette, opts Options) ([]byte, error) {
	dot := nodelink.ToDOT(l, nodelink.Options{Detailed: opts.Detailed, Palette: p})

	switch format {
	case FormatSVG:
		return nodelink.RenderSVG(ctx, dot)
	case FormatPNG:
		return nodelink.RenderPNG(ctx, dot, opts.Scale)
	case FormatPDF:
		return nodelink.RenderPDF(ctx, dot)
	default:
		return nil, fmt.Errorf("unsupported nodelink format: %s", format)
	}
}
