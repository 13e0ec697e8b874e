// Package cache stores pipeline intermediates and session state.
//
// Every backend implements [Cache], a byte-oriented key/value store with
// per-entry TTLs. Keys are produced by a [Keyer] so that the CLI, the HTTP
// API and the session store agree on how trees, layouts and rendered
// artifacts are addressed.
//
// # Backends
//
//   - [FileCache]: one JSON file per entry under a directory (CLI default)
//   - [RedisCache]: a Redis server via go-redis
//   - [MongoCache]: a MongoDB collection with a TTL index
//   - [NullCache]: stores nothing (--no-cache)
//
// A miss is reported as (nil, false, nil). Errors are reserved for backend
// failures; callers in the pipeline treat them as misses.
package cache

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Cache is a key/value store for serialized pipeline data.
type Cache interface {
	// Get returns the data stored under key and whether it was found.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A non-positive ttl means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Default TTLs per entry type.
const (
	TTLTree     = 24 * time.Hour
	TTLLayout   = 7 * 24 * time.Hour
	TTLArtifact = 7 * 24 * time.Hour
	TTLSession  = 2 * time.Hour
)

// =============================================================================
// Keys
// =============================================================================

// Keyer generates cache keys for each pipeline stage.
type Keyer interface {
	// TreeKey addresses a tree built from the document with hash docHash.
	TreeKey(docHash string, opts TreeKeyOpts) string

	// LayoutKey addresses a positioned layout of the tree with hash treeHash.
	LayoutKey(treeHash string, opts LayoutKeyOpts) string

	// ArtifactKey addresses one rendered output of the layout with hash layoutHash.
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string

	// SessionKey addresses a stored session.
	SessionKey(id string) string
}

// TreeKeyOpts are the build options that change the resulting tree.
type TreeKeyOpts struct {
	MaxDepth int `json:"max_depth"`
	MaxNodes int `json:"max_nodes"`
}

// LayoutKeyOpts are the layout options that change node positions.
type LayoutKeyOpts struct {
	VizType   string  `json:"viz_type"`
	HSpacing  float64 `json:"h_spacing"`
	VSpacing  float64 `json:"v_spacing"`
	Highlight string  `json:"highlight,omitempty"`
}

// ArtifactKeyOpts are the render options that change an artifact.
type ArtifactKeyOpts struct {
	Format   string  `json:"format"`
	Style    string  `json:"style"`
	Detailed bool    `json:"detailed,omitempty"`
	Scale    float64 `json:"scale,omitempty"` // png only
}

// DefaultKeyer generates keys of the form "<kind>:<sha256>".
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// TreeKey generates a key for tree caching.
func (DefaultKeyer) TreeKey(docHash string, opts TreeKeyOpts) string {
	return hashKey("tree", docHash, opts)
}

// LayoutKey generates a key for layout caching.
func (DefaultKeyer) LayoutKey(treeHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", treeHash, opts)
}

// ArtifactKey generates a key for artifact caching.
func (DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", layoutHash, opts)
}

// SessionKey generates a key for session storage. Session IDs are not hashed
// so that stored sessions can be inspected by ID.
func (DefaultKeyer) SessionKey(id string) string {
	return fmt.Sprintf("session:%s", id)
}

// KeyType returns the kind segment of a key produced by a Keyer ("tree",
// "layout", "artifact", "session"), ignoring any scope prefix.
func KeyType(key string) string {
	i := strings.LastIndexByte(key, ':')
	if i < 0 {
		return "unknown"
	}
	head := key[:i]
	return head[strings.LastIndexByte(head, ':')+1:]
}

var _ Keyer = DefaultKeyer{}
