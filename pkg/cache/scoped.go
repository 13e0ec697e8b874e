package cache

// ScopedKeyer wraps a Keyer with a prefix so that several deployments or
// users can share one backend without colliding.
//
//	serverKeyer := NewScopedKeyer(NewDefaultKeyer(), "jsontree:api:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// TreeKey generates a prefixed key for tree caching.
func (k *ScopedKeyer) TreeKey(docHash string, opts TreeKeyOpts) string {
	return k.prefix + k.inner.TreeKey(docHash, opts)
}

// LayoutKey generates a prefixed key for layout caching.
func (k *ScopedKeyer) LayoutKey(treeHash string, opts LayoutKeyOpts) string {
	return k.prefix + k.inner.LayoutKey(treeHash, opts)
}

// ArtifactKey generates a prefixed key for artifact caching.
func (k *ScopedKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(layoutHash, opts)
}

// SessionKey generates a prefixed key for session storage.
func (k *ScopedKeyer) SessionKey(id string) string {
	return k.prefix + k.inner.SessionKey(id)
}
