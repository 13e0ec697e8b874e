package cli

import (
	"context"
	"fmt"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/matzehuels/jsontree/pkg/errors"
	"github.com/matzehuels/jsontree/pkg/graph"
	"github.com/matzehuels/jsontree/pkg/pipeline"
)

// renderCommand creates the render command for generating visualizations.
// It accepts either a document or a layout file written by the tree command.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		flags  pipelineFlags
		output string
	)

	cmd := &cobra.Command{
		Use:   "render <file>",
		Short: "Render a document as a tree diagram",
		Long: `Render a JSON or YAML document, or a layout file written by the tree
command, as a tree diagram.

The tree type draws every level as a centered row of boxes. The nodelink
type lays the same tree out through Graphviz. PNG and PDF output need
rsvg-convert on the PATH for the tree type.`,
		Example: `  jsontree render orders.json
  jsontree render orders.json -f svg,png --style dark
  jsontree render orders.json --highlight 'items[0].price' -o price.svg
  jsontree render orders.layout.json -t nodelink -f dot`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRender(cmd, args[0], output, &flags)
		},
	}

	flags.bindInput(cmd)
	flags.bindLayout(cmd)
	flags.bindRender(cmd)
	cmd.Flags().StringVar(&flags.highlight, "highlight", "", "path to highlight")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single format) or base path (multiple)")

	return cmd
}

func (c *CLI) runRender(cmd *cobra.Command, input, output string, flags *pipelineFlags) error {
	ctx := cmd.Context()

	cfg, err := c.config()
	if err != nil {
		return err
	}
	opts, err := flags.options(cmd, cfg.PipelineOptions())
	if err != nil {
		return err
	}
	if err := opts.ValidateForRender(); err != nil {
		return err
	}
	if output == stdinName && len(opts.Formats) != 1 {
		return errors.New(errors.ErrCodeInvalidInput, "writing to standard output needs exactly one format")
	}

	runner, err := c.newRunner(ctx, flags.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	var (
		artifacts map[string][]byte
		l         graph.Layout
		cached    bool
	)
	stop := c.startSpinner(ctx, cmd, opts.Formats)
	if isLayoutFile(input) {
		l, artifacts, cached, err = c.renderLayoutFile(cmd, runner, input, opts)
	} else {
		artifacts, l, cached, err = c.renderDocument(cmd, runner, input, opts, flags)
	}
	stop()
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if output == stdinName {
		_, err := w.Write(artifacts[opts.Formats[0]])
		return err
	}

	paths := outputPaths(output, input, opts.Formats)
	for _, format := range opts.Formats {
		if err := os.WriteFile(paths[format], artifacts[format], 0o644); err != nil {
			return fmt.Errorf("write %s: %w", format, err)
		}
	}

	printSuccess(w, "Rendered %s", input)
	printStats(w, len(l.Nodes), len(l.Edges), maxRow(l), cached)
	for _, format := range opts.Formats {
		printFile(w, paths[format])
	}
	if l.Query != "" && l.Highlight == "" {
		printWarning(w, "no node matches %q", l.Query)
	}
	return nil
}

// renderDocument runs the full pipeline on a document.
func (c *CLI) renderDocument(cmd *cobra.Command, runner *pipeline.Runner, input string, opts pipeline.Options, flags *pipelineFlags) (map[string][]byte, graph.Layout, bool, error) {
	var err error
	if opts.Document, opts.Filename, err = flags.readInput(cmd, input); err != nil {
		return nil, graph.Layout{}, false, err
	}

	prog := newProgress(c.Logger)
	result, err := runner.Execute(cmd.Context(), opts)
	if err != nil {
		return nil, graph.Layout{}, false, err
	}
	prog.done("rendered", "formats", opts.Formats)

	info := result.CacheInfo
	return result.Artifacts, result.Layout, info.BuildHit && info.LayoutHit && info.RenderHit, nil
}

// renderLayoutFile renders a layout written by the tree command. A
// --highlight flag replaces the layout's stored search, and --type switches
// the renderer without moving any node.
func (c *CLI) renderLayoutFile(cmd *cobra.Command, runner *pipeline.Runner, input string, opts pipeline.Options) (graph.Layout, map[string][]byte, bool, error) {
	ctx := cmd.Context()

	l, err := readLayout(cmd, input)
	if err != nil {
		return graph.Layout{}, nil, false, errors.Wrap(errors.ErrCodeInvalidInput, err, "read layout %s", input)
	}
	if cmd.Flags().Changed("type") {
		if err := pipeline.ValidateVizType(opts.VizType); err != nil {
			return graph.Layout{}, nil, false, err
		}
		l.VizType = opts.VizType
	}
	if cmd.Flags().Changed("highlight") {
		if l, _, err = runner.Search(ctx, l, opts.Highlight); err != nil {
			return graph.Layout{}, nil, false, err
		}
	}

	artifacts, hit, err := runner.RenderWithCacheInfo(ctx, l, opts)
	if err != nil {
		return graph.Layout{}, nil, false, err
	}
	return l, artifacts, hit, nil
}

// startSpinner shows progress while external converters run. It returns
// the function that stops it.
func (c *CLI) startSpinner(ctx context.Context, cmd *cobra.Command, formats []string) func() {
	if !slices.Contains(formats, pipeline.FormatPNG) && !slices.Contains(formats, pipeline.FormatPDF) {
		return func() {}
	}
	s := newSpinner(ctx, cmd.ErrOrStderr(), "Converting...")
	s.Start()
	return s.Stop
}

// outputPaths maps each format to its file. A single format writes to
// output verbatim when it is set; otherwise every format shares a base path.
// JSON uses the layout suffix so it never overwrites a .json input.
func outputPaths(output, input string, formats []string) map[string]string {
	paths := make(map[string]string, len(formats))
	if len(formats) == 1 && output != "" {
		paths[formats[0]] = output
		return paths
	}
	base := basePath(output, input)
	for _, f := range formats {
		ext := pipeline.Extensions[f]
		if f == pipeline.FormatJSON {
			ext = layoutSuffix
		}
		paths[f] = base + ext
	}
	return paths
}

// maxRow returns the deepest level in l.
func maxRow(l graph.Layout) int {
	deepest := 0
	for _, n := range l.Nodes {
		deepest = max(deepest, n.Level)
	}
	return deepest
}
