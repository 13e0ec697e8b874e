package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/jsontree/pkg/cache"
	"github.com/matzehuels/jsontree/pkg/graph"
	"github.com/matzehuels/jsontree/pkg/observability"
	"github.com/matzehuels/jsontree/pkg/search"
	"github.com/matzehuels/jsontree/pkg/tree"
)

// Runner encapsulates pipeline execution with caching.
// The CLI, the API and the session manager all go through it so that they
// share one caching scheme.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete build → layout → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	r.applyLogger(&opts)

	result := &Result{}

	// Stage 1: Build
	buildStart := time.Now()
	t, buildHit, err := r.BuildTreeWithCacheInfo(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("build: %w", err)
	}
	result.DocumentHash = cache.Hash(opts.Document)
	result.Stats.BuildTime = time.Since(buildStart)
	result.CacheInfo.BuildHit = buildHit

	r.Logger.Info("built tree",
		"nodes", t.Len(),
		"duration", result.Stats.BuildTime)

	// Stage 2: Layout
	layoutStart := time.Now()
	l, layoutHit, err := r.ComputeLayoutWithCacheInfo(ctx, t, opts)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	result.Layout = l
	result.Stats.LayoutTime = time.Since(layoutStart)
	result.CacheInfo.LayoutHit = layoutHit

	// The returned tree carries positions and the highlight.
	if result.Tree, err = graph.ToTree(l); err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	result.Stats.NodeCount = len(l.Nodes)
	result.Stats.EdgeCount = len(l.Edges)
	result.Stats.MaxLevel = result.Tree.MaxLevel()

	r.Logger.Info("computed layout",
		"levels", result.Stats.MaxLevel+1,
		"width", l.Width,
		"height", l.Height,
		"duration", result.Stats.LayoutTime)

	// Stage 3: Render
	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, l, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// BuildTreeWithCacheInfo decodes the document and builds its tree with
// caching, and returns cache hit info.
func (r *Runner) BuildTreeWithCacheInfo(ctx context.Context, opts Options) (t *tree.Tree, hit bool, err error) {
	if err := opts.ValidateForBuild(); err != nil {
		return nil, false, err
	}
	r.applyLogger(&opts)

	start := time.Now()
	observability.Pipeline().OnBuildStart(ctx, opts.source())
	defer func() {
		n := 0
		if t != nil {
			n = t.Len()
		}
		observability.Pipeline().OnBuildComplete(ctx, opts.source(), n, time.Since(start), err)
	}()

	cacheKey := r.Keyer.TreeKey(cache.Hash(opts.Document), opts.TreeKeyOpts())

	// Try cache first (unless refresh requested)
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			if l, err := graph.UnmarshalLayout(data); err == nil {
				if t, err := graph.ToTree(l); err == nil {
					return t, true, nil // Cache hit
				}
			}
			opts.Logger.Debug("discarding unreadable cached tree", "key", cacheKey)
		}
	}

	t, err = Build(opts)
	if err != nil {
		return nil, false, err
	}

	if l, err := treeLayout(t); err == nil {
		if data, err := graph.MarshalLayout(l); err == nil {
			if err := r.Cache.Set(ctx, cacheKey, data, cache.TTLTree); err != nil {
				opts.Logger.Warn("cache write failed", "key", cacheKey, "error", err)
			}
		}
	}
	return t, false, nil // Cache miss
}

// BuildTree is a convenience wrapper that calls BuildTreeWithCacheInfo and discards the cache hit info.
func (r *Runner) BuildTree(ctx context.Context, opts Options) (*tree.Tree, error) {
	t, _, err := r.BuildTreeWithCacheInfo(ctx, opts)
	return t, err
}

// ComputeLayoutWithCacheInfo positions t and applies opts.Highlight with
// caching, and returns cache hit info.
func (r *Runner) ComputeLayoutWithCacheInfo(ctx context.Context, t *tree.Tree, opts Options) (l graph.Layout, hit bool, err error) {
	if err := opts.ValidateForLayout(); err != nil {
		return graph.Layout{}, false, err
	}
	r.applyLogger(&opts)

	start := time.Now()
	observability.Pipeline().OnLayoutStart(ctx, opts.VizType, t.Len())
	defer func() {
		observability.Pipeline().OnLayoutComplete(ctx, opts.VizType, time.Since(start), err)
	}()

	base, err := treeLayout(t)
	if err != nil {
		return graph.Layout{}, false, err
	}
	treeData, err := graph.MarshalLayout(base)
	if err != nil {
		return graph.Layout{}, false, fmt.Errorf("serialize tree for cache key: %w", err)
	}
	cacheKey := r.Keyer.LayoutKey(cache.Hash(treeData), opts.LayoutKeyOpts())

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			if cached, err := graph.UnmarshalLayout(data); err == nil {
				return cached, true, nil // Cache hit
			}
			// If deserialization fails, fall through to recompute
		}
	}

	l, res, err := GenerateLayout(t, opts)
	if err != nil {
		return graph.Layout{}, false, err
	}
	if opts.Highlight != "" {
		opts.Logger.Debug("applied highlight", "query", res.Query, "status", res.Status, "node", res.NodeID)
	}

	if data, err := graph.MarshalLayout(l); err == nil {
		if err := r.Cache.Set(ctx, cacheKey, data, cache.TTLLayout); err != nil {
			opts.Logger.Warn("cache write failed", "key", cacheKey, "error", err)
		}
	}
	return l, false, nil // Cache miss
}

// ComputeLayout is a convenience wrapper that calls ComputeLayoutWithCacheInfo and discards the cache hit info.
func (r *Runner) ComputeLayout(ctx context.Context, t *tree.Tree, opts Options) (graph.Layout, error) {
	l, _, err := r.ComputeLayoutWithCacheInfo(ctx, t, opts)
	return l, err
}

// RenderWithCacheInfo generates artifacts with caching and returns cache hit info.
// The hit flag is true only when every requested format came from cache.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, l graph.Layout, opts Options) (artifacts map[string][]byte, hit bool, err error) {
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}
	r.applyLogger(&opts)

	start := time.Now()
	observability.Pipeline().OnRenderStart(ctx, opts.Formats)
	defer func() {
		observability.Pipeline().OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
	}()

	layoutData, err := graph.MarshalLayout(l)
	if err != nil {
		return nil, false, fmt.Errorf("serialize layout for cache key: %w", err)
	}
	layoutHash := cache.Hash(layoutData)

	// Try to get all formats from cache
	artifacts = make(map[string][]byte, len(opts.Formats))
	if !opts.Refresh {
		for _, format := range opts.Formats {
			key := r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format))
			data, hit, err := r.Cache.Get(ctx, key)
			if err != nil || !hit {
				break
			}
			artifacts[format] = data
		}
		if len(artifacts) == len(opts.Formats) {
			return artifacts, true, nil // All artifacts from cache
		}
	}

	rendered, err := RenderLayout(ctx, l, opts)
	if err != nil {
		return nil, false, err
	}

	for format, data := range rendered {
		key := r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format))
		if err := r.Cache.Set(ctx, key, data, cache.TTLArtifact); err != nil {
			opts.Logger.Warn("cache write failed", "key", key, "error", err)
		}
	}
	return rendered, false, nil // Cache miss
}

// Render is a convenience wrapper that calls RenderWithCacheInfo and discards the cache hit info.
func (r *Runner) Render(ctx context.Context, l graph.Layout, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, l, opts)
	return artifacts, err
}

// Search applies query to a computed layout and returns the updated copy.
// Every query string is accepted; one that names no node yields NotFound.
// The only error is ctx's, when it is already done.
func (r *Runner) Search(ctx context.Context, l graph.Layout, query string) (graph.Layout, search.Result, error) {
	if err := ctx.Err(); err != nil {
		return graph.Layout{}, search.Result{}, err
	}

	start := time.Now()
	out, res := ApplySearch(l, query)
	observability.Pipeline().OnSearch(ctx, res.Status.String(), time.Since(start))

	r.Logger.Debug("search",
		"query", res.Query,
		"status", res.Status,
		"node", res.NodeID)
	return out, res, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
