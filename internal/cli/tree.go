package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/jsontree/pkg/graph"
)

// treeCommand creates the tree command, which builds and lays out a document
// and writes the positioned tree as a layout file.
func (c *CLI) treeCommand() *cobra.Command {
	var (
		flags  pipelineFlags
		output string
	)

	cmd := &cobra.Command{
		Use:   "tree <file>",
		Short: "Build and lay out a document, writing the layout as JSON",
		Long: `Build the tree for a JSON or YAML document, position every node level by
level and write the result as a layout file.

The layout can be passed to render, search and explore instead of the
original document. Use "-" to read from standard input and "-o -" to write
the layout to standard output.`,
		Example: `  jsontree tree orders.json
  jsontree tree config.yaml --highlight spec.replicas
  cat orders.json | jsontree tree - -o -`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runTree(cmd, args[0], output, &flags)
		},
	}

	flags.bindInput(cmd)
	flags.bindLayout(cmd)
	cmd.Flags().StringVar(&flags.highlight, "highlight", "", "path to highlight")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default <input>"+layoutSuffix+")")

	return cmd
}

func (c *CLI) runTree(cmd *cobra.Command, input, output string, flags *pipelineFlags) error {
	ctx := cmd.Context()

	cfg, err := c.config()
	if err != nil {
		return err
	}
	opts, err := flags.options(cmd, cfg.PipelineOptions())
	if err != nil {
		return err
	}
	if opts.Document, opts.Filename, err = flags.readInput(cmd, input); err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, flags.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	prog := newProgress(c.Logger)
	t, buildHit, err := runner.BuildTreeWithCacheInfo(ctx, opts)
	if err != nil {
		return err
	}
	l, layoutHit, err := runner.ComputeLayoutWithCacheInfo(ctx, t, opts)
	if err != nil {
		return err
	}
	prog.done("laid out tree", "nodes", len(l.Nodes))

	if output == stdinName {
		return graph.WriteLayout(l, cmd.OutOrStdout())
	}
	if output == "" {
		output = basePath("", input) + layoutSuffix
	}
	if err := graph.WriteLayoutFile(l, output); err != nil {
		return fmt.Errorf("write layout: %w", err)
	}

	w := cmd.OutOrStdout()
	printSuccess(w, "Built tree")
	printStats(w, len(l.Nodes), len(l.Edges), t.MaxLevel(), buildHit && layoutHit)
	printFile(w, output)
	if l.Highlight != "" {
		printDetail(w, "highlighted %s", l.Highlight)
	}
	printNextStep(w, "Render it", fmt.Sprintf("%s render %s", appName, output))
	return nil
}
