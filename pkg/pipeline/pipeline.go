// Package pipeline provides the visualization pipeline for jsontree.
//
// This package implements the complete read → build → layout → render
// pipeline used by the CLI, the HTTP API and sessions. Centralizing it keeps
// caching, defaults and validation identical across entry points.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Build: decode the document and turn it into a tree of nodes and edges
//  2. Layout: position the nodes level by level and apply the highlight
//  3. Render: generate output in various formats (SVG, PNG, PDF, JSON, DOT, Mermaid)
//
// Each stage can be run independently or as part of the complete pipeline,
// and each stage's output is cached under a content-derived key.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    Document:  data,
//	    Filename:  "orders.json",
//	    Formats:   []string{"svg"},
//	    Highlight: "orders[0].price",
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
//
// Run individual stages:
//
//	t, err := runner.BuildTree(ctx, opts)
//	l, err := runner.ComputeLayout(ctx, t, opts)
//	artifacts, err := runner.Render(ctx, l, opts)
package pipeline

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/jsontree/pkg/cache"
	"github.com/matzehuels/jsontree/pkg/errors"
	"github.com/matzehuels/jsontree/pkg/graph"
	"github.com/matzehuels/jsontree/pkg/layout"
	"github.com/matzehuels/jsontree/pkg/tree"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	// DefaultMaxDepth bounds nesting for untrusted input.
	DefaultMaxDepth = 256

	// DefaultMaxNodes bounds the node count for untrusted input.
	DefaultMaxNodes = 100_000

	// DefaultMaxBytes bounds the document size.
	DefaultMaxBytes = 32 << 20

	// DefaultVizType is the default visualization type.
	DefaultVizType = graph.VizTypeTree

	// DefaultStyle is the default visual style.
	DefaultStyle = graph.StyleLight
)

// Format constants for output formats.
const (
	FormatSVG     = "svg"
	FormatPNG     = "png"
	FormatPDF     = "pdf"
	FormatJSON    = "json"
	FormatDOT     = "dot"
	FormatMermaid = "mermaid"
)

// Formats lists every supported output format.
var Formats = []string{FormatSVG, FormatPNG, FormatPDF, FormatJSON, FormatDOT, FormatMermaid}

// Styles lists every supported visual style.
var Styles = []string{graph.StyleLight, graph.StyleDark}

// VizTypes lists every supported visualization type.
var VizTypes = []string{graph.VizTypeTree, graph.VizTypeNodelink}

// Extensions maps formats to file extensions.
var Extensions = map[string]string{
	FormatSVG:     ".svg",
	FormatPNG:     ".png",
	FormatPDF:     ".pdf",
	FormatJSON:    ".json",
	FormatDOT:     ".dot",
	FormatMermaid: ".mmd",
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the visualization pipeline.
// Everything but the document and runtime fields is JSON-serializable so
// the API can accept options as a request body.
type Options struct {
	// Input
	Document []byte `json:"-"`
	Filename string `json:"filename,omitempty"` // selects YAML for .yaml/.yml
	MaxBytes int64  `json:"max_bytes,omitempty"`
	MaxDepth int    `json:"max_depth,omitempty"`
	MaxNodes int    `json:"max_nodes,omitempty"`
	Refresh  bool   `json:"refresh,omitempty"`

	// Layout options
	VizType   string  `json:"viz_type,omitempty"`
	HSpacing  float64 `json:"h_spacing,omitempty"`
	VSpacing  float64 `json:"v_spacing,omitempty"`
	Highlight string  `json:"highlight,omitempty"`

	// Render options
	Formats  []string `json:"formats,omitempty"`
	Style    string   `json:"style,omitempty"`
	Detailed bool     `json:"detailed,omitempty"` // nodelink: add paths to labels
	Scale    float64  `json:"scale,omitempty"`    // png scale factor

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Tree is the positioned tree with the highlight applied.
	Tree *tree.Tree

	// DocumentHash is the content hash of the input document.
	DocumentHash string

	// Layout is the serialized layout.
	Layout graph.Layout

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount  int
	EdgeCount  int
	MaxLevel   int
	BuildTime  time.Duration
	LayoutTime time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	BuildHit  bool // Whether the tree came from cache
	LayoutHit bool // Whether the layout came from cache
	RenderHit bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	return errors.ValidateChoice(errors.ErrCodeInvalidFormat, "format", format, Formats)
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateStyle checks that a style is valid.
func ValidateStyle(style string) error {
	return errors.ValidateChoice(errors.ErrCodeInvalidStyle, "style", style, Styles)
}

// ValidateVizType checks that a visualization type is valid.
func ValidateVizType(vizType string) error {
	return errors.ValidateChoice(errors.ErrCodeInvalidVizType, "viz_type", vizType, VizTypes)
}

// ParseFormats splits a comma-separated format list, trimming blanks and
// dropping duplicates.
func ParseFormats(s string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, f := range strings.Split(s, ",") {
		f = strings.ToLower(strings.TrimSpace(f))
		if f == "" || seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out
}

// =============================================================================
// Options Methods
// =============================================================================

// SetBuildDefaults applies defaults for building the tree.
func (o *Options) SetBuildDefaults() {
	if o.MaxBytes == 0 {
		o.MaxBytes = DefaultMaxBytes
	}
	if o.MaxDepth == 0 {
		o.MaxDepth = DefaultMaxDepth
	}
	if o.MaxNodes == 0 {
		o.MaxNodes = DefaultMaxNodes
	}
}

// ValidateForBuild checks the document and applies build defaults.
func (o *Options) ValidateForBuild() error {
	o.SetBuildDefaults()
	return errors.ValidateDocumentSize(int64(len(o.Document)), o.MaxBytes)
}

// SetLayoutDefaults applies defaults for layout computation.
func (o *Options) SetLayoutDefaults() {
	if o.VizType == "" {
		o.VizType = DefaultVizType
	}
	if o.HSpacing <= 0 {
		o.HSpacing = layout.DefaultHSpacing
	}
	if o.VSpacing <= 0 {
		o.VSpacing = layout.DefaultVSpacing
	}
}

// ValidateForLayout validates and sets defaults for layout computation.
func (o *Options) ValidateForLayout() error {
	o.SetLayoutDefaults()
	return ValidateVizType(o.VizType)
}

// SetRenderDefaults applies defaults for rendering.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if o.Style == "" {
		o.Style = DefaultStyle
	}
	if o.Scale <= 0 {
		o.Scale = 2.0
	}
}

// ValidateForRender validates and sets defaults for rendering.
func (o *Options) ValidateForRender() error {
	o.SetRenderDefaults()
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	return ValidateStyle(o.Style)
}

// ValidateAndSetDefaults checks every stage's options. It is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if err := o.ValidateForBuild(); err != nil {
		return err
	}
	if err := o.ValidateForLayout(); err != nil {
		return err
	}
	return o.ValidateForRender()
}

// IsYAML reports whether the document should be decoded as YAML.
func (o *Options) IsYAML() bool {
	switch strings.ToLower(filepath.Ext(o.Filename)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// TreeKeyOpts returns cache key options for tree building.
func (o *Options) TreeKeyOpts() cache.TreeKeyOpts {
	return cache.TreeKeyOpts{MaxDepth: o.MaxDepth, MaxNodes: o.MaxNodes}
}

// LayoutKeyOpts returns cache key options for layout computation.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	return cache.LayoutKeyOpts{
		VizType:   o.VizType,
		HSpacing:  o.HSpacing,
		VSpacing:  o.VSpacing,
		Highlight: o.Highlight,
	}
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	opts := cache.ArtifactKeyOpts{Format: format, Style: o.Style, Detailed: o.Detailed}
	switch format {
	case FormatJSON:
		opts.Style, opts.Detailed = "", false
	case FormatPNG:
		opts.Scale = o.Scale
	}
	return opts
}
