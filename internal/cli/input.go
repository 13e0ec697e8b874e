package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/jsontree/pkg/errors"
	"github.com/matzehuels/jsontree/pkg/graph"
	"github.com/matzehuels/jsontree/pkg/pipeline"
)

// stdinName is the input argument that reads the document from standard input.
const stdinName = "-"

// layoutSuffix marks files written by the tree command.
const layoutSuffix = ".layout.json"

// pipelineFlags holds the command-line flags shared by tree, render, search
// and explore. Unset flags leave the configured default in place.
type pipelineFlags struct {
	vizType   string
	style     string
	formats   string
	highlight string
	hSpacing  float64
	vSpacing  float64
	scale     float64
	maxDepth  int
	maxNodes  int
	detailed  bool
	yaml      bool
	noCache   bool
	refresh   bool
}

func (f *pipelineFlags) bindInput(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.maxDepth, "max-depth", 0, "maximum nesting depth (default from config)")
	cmd.Flags().IntVar(&f.maxNodes, "max-nodes", 0, "maximum number of nodes (default from config)")
	cmd.Flags().BoolVar(&f.yaml, "yaml", false, "parse the input as YAML regardless of its extension")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&f.refresh, "refresh", false, "recompute cached results")
}

func (f *pipelineFlags) bindLayout(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.vizType, "type", "t", "", "visualization type: tree (default), nodelink")
	cmd.Flags().Float64Var(&f.hSpacing, "h-spacing", 0, "horizontal distance between sibling centers")
	cmd.Flags().Float64Var(&f.vSpacing, "v-spacing", 0, "vertical distance between levels")
}

func (f *pipelineFlags) bindRender(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.formats, "format", "f", "", "output format(s): svg (default), png, pdf, json, dot, mermaid (comma-separated)")
	cmd.Flags().StringVar(&f.style, "style", "", "visual style: light (default), dark")
	cmd.Flags().BoolVar(&f.detailed, "detailed", false, "add hover titles with each node's path")
	cmd.Flags().Float64Var(&f.scale, "scale", 0, "PNG scale factor")
}

// options merges the flags that were set over the configured defaults.
func (f *pipelineFlags) options(cmd *cobra.Command, base pipeline.Options) (pipeline.Options, error) {
	opts := base
	changed := cmd.Flags().Changed

	if changed("type") {
		opts.VizType = f.vizType
	}
	if changed("style") {
		opts.Style = f.style
	}
	if changed("format") {
		opts.Formats = pipeline.ParseFormats(f.formats)
	}
	if changed("highlight") {
		opts.Highlight = f.highlight
	}
	for name, v := range map[string]float64{"h-spacing": f.hSpacing, "v-spacing": f.vSpacing, "scale": f.scale} {
		if changed(name) && v <= 0 {
			return opts, errors.New(errors.ErrCodeInvalidInput, "--%s must be positive", name)
		}
	}
	if changed("h-spacing") {
		opts.HSpacing = f.hSpacing
	}
	if changed("v-spacing") {
		opts.VSpacing = f.vSpacing
	}
	if changed("scale") {
		opts.Scale = f.scale
	}
	if changed("max-depth") {
		opts.MaxDepth = f.maxDepth
	}
	if changed("max-nodes") {
		opts.MaxNodes = f.maxNodes
	}
	opts.Detailed = f.detailed
	opts.Refresh = f.refresh
	return opts, nil
}

// readInput reads the document named by path, or standard input for "-".
// The returned filename selects the decoder.
func (f *pipelineFlags) readInput(cmd *cobra.Command, path string) ([]byte, string, error) {
	var (
		data []byte
		err  error
		name = path
	)
	if path == stdinName {
		name = "stdin.json"
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		if err := errors.ValidateFilePath(path); err != nil {
			return nil, "", err
		}
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, "", fmt.Errorf("read %s: %w", path, err)
	}
	if f.yaml {
		name = strings.TrimSuffix(name, filepath.Ext(name)) + ".yaml"
	}
	return data, name, nil
}

// isLayoutFile reports whether path names a layout written by the tree command.
func isLayoutFile(path string) bool {
	return strings.HasSuffix(path, layoutSuffix)
}

// readLayout reads a layout written by the tree command.
func readLayout(cmd *cobra.Command, path string) (graph.Layout, error) {
	if path == stdinName {
		return graph.ReadLayout(cmd.InOrStdin())
	}
	if err := errors.ValidateFilePath(path); err != nil {
		return graph.Layout{}, err
	}
	return graph.ReadLayoutFile(path)
}

// basePath derives the base output path from the output and input paths.
// Known format extensions are stripped from output; an empty output derives
// from input, and standard input falls back to "jsontree".
func basePath(output, input string) string {
	if output == "" {
		if input == stdinName {
			return appName
		}
		output = strings.TrimSuffix(input, layoutSuffix)
		return strings.TrimSuffix(output, filepath.Ext(output))
	}
	if strings.HasSuffix(output, layoutSuffix) {
		return strings.TrimSuffix(output, layoutSuffix)
	}
	ext := filepath.Ext(output)
	for _, known := range pipeline.Extensions {
		if ext == known {
			return strings.TrimSuffix(output, ext)
		}
	}
	return output
}
