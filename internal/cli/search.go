package cli

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/matzehuels/jsontree/pkg/errors"
	"github.com/matzehuels/jsontree/pkg/graph"
	"github.com/matzehuels/jsontree/pkg/pipeline"
	"github.com/matzehuels/jsontree/pkg/search"
	"github.com/matzehuels/jsontree/pkg/session"
)

// searchCommand creates the search command, which finds the node a path
// refers to. It exits with status 1 when nothing matches.
func (c *CLI) searchCommand() *cobra.Command {
	var (
		flags   pipelineFlags
		jsonOut bool
	)

	cmd := &cobra.Command{
		Use:   "search <file> [path]",
		Short: "Find a node by path",
		Long: `Find the first node whose path ends with the given path.

Paths use the same grammar as the diagram: $.orders[0].id, orders[0].id and
.id all work. Matching is by suffix, so a short path finds the first node in
document order that ends with it. An empty path clears the search.`,
		Example: `  jsontree search orders.json 'items[1].price'
  jsontree search orders.layout.json '$.customer.name' --json`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := ""
			if len(args) == 2 {
				query = args[1]
			}
			return c.runSearch(cmd, args[0], query, jsonOut, &flags)
		},
	}

	flags.bindInput(cmd)
	cmd.Flags().BoolVar(&jsonOut, "json", false, "print the outcome as JSON")

	return cmd
}

func (c *CLI) runSearch(cmd *cobra.Command, input, query string, jsonOut bool, flags *pipelineFlags) error {
	ctx := cmd.Context()

	runner, l, err := c.openLayout(cmd, input, flags)
	if err != nil {
		return err
	}
	defer runner.Close()

	l, res, err := runner.Search(ctx, l, query)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if jsonOut {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(session.NewOutcome(res)); err != nil {
			return err
		}
	} else {
		printOutcome(w, l, res)
	}

	if res.Status == search.NotFound {
		return ErrNoMatch
	}
	return nil
}

// openLayout returns a runner and the unhighlighted layout for input, which
// is either a document or a layout file.
func (c *CLI) openLayout(cmd *cobra.Command, input string, flags *pipelineFlags) (*pipeline.Runner, graph.Layout, error) {
	ctx := cmd.Context()

	cfg, err := c.config()
	if err != nil {
		return nil, graph.Layout{}, err
	}
	opts, err := flags.options(cmd, cfg.PipelineOptions())
	if err != nil {
		return nil, graph.Layout{}, err
	}
	opts.Highlight = ""

	runner, err := c.newRunner(ctx, flags.noCache)
	if err != nil {
		return nil, graph.Layout{}, err
	}

	var l graph.Layout
	if isLayoutFile(input) {
		l, err = readLayout(cmd, input)
		if err != nil {
			err = errors.Wrap(errors.ErrCodeInvalidInput, err, "read layout %s", input)
		}
	} else {
		l, err = c.layoutDocument(cmd, runner, input, opts, flags)
	}
	if err != nil {
		runner.Close()
		return nil, graph.Layout{}, err
	}
	return runner, l, nil
}

func (c *CLI) layoutDocument(cmd *cobra.Command, runner *pipeline.Runner, input string, opts pipeline.Options, flags *pipelineFlags) (graph.Layout, error) {
	var err error
	if opts.Document, opts.Filename, err = flags.readInput(cmd, input); err != nil {
		return graph.Layout{}, err
	}
	t, err := runner.BuildTree(cmd.Context(), opts)
	if err != nil {
		return graph.Layout{}, err
	}
	return runner.ComputeLayout(cmd.Context(), t, opts)
}
