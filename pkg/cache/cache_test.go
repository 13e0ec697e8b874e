package cache

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/jsontree/pkg/observability"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	// Get always returns miss
	data, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit {
		t.Error("NullCache.Get should always return miss")
	}
	if data != nil {
		t.Error("NullCache.Get should return nil data")
	}

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}
	if _, hit, _ = c.Get(ctx, "key"); hit {
		t.Error("NullCache should not store data")
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	if h1 != Hash([]byte("hello")) {
		t.Error("Hash should be deterministic")
	}
	if h1 == Hash([]byte("world")) {
		t.Error("Different inputs should produce different hashes")
	}
	if len(h1) != 64 {
		t.Errorf("Hash length should be 64, got %d", len(h1))
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()
	doc := Hash([]byte(`{"a":1}`))

	tk1 := k.TreeKey(doc, TreeKeyOpts{MaxDepth: 10, MaxNodes: 100})
	tk2 := k.TreeKey(doc, TreeKeyOpts{MaxDepth: 20, MaxNodes: 100})
	if tk1 == tk2 {
		t.Error("Different TreeKeyOpts should produce different keys")
	}
	if !strings.HasPrefix(tk1, "tree:") {
		t.Errorf("TreeKey prefix: %s", tk1)
	}

	lk1 := k.LayoutKey("hash123", LayoutKeyOpts{VizType: "tree", HSpacing: 280, VSpacing: 120})
	lk2 := k.LayoutKey("hash123", LayoutKeyOpts{VizType: "tree", HSpacing: 300, VSpacing: 120})
	lk3 := k.LayoutKey("hash123", LayoutKeyOpts{VizType: "tree", HSpacing: 280, VSpacing: 120, Highlight: ".a"})
	if lk1 == lk2 || lk1 == lk3 {
		t.Error("Different LayoutKeyOpts should produce different keys")
	}

	ak1 := k.ArtifactKey("hash123", ArtifactKeyOpts{Format: "svg", Style: "light"})
	ak2 := k.ArtifactKey("hash123", ArtifactKeyOpts{Format: "png", Style: "light"})
	if ak1 == ak2 {
		t.Error("Different ArtifactKeyOpts should produce different keys")
	}

	if got := k.SessionKey("abc"); got != "session:abc" {
		t.Errorf("SessionKey = %s", got)
	}
}

func TestScopedKeyer(t *testing.T) {
	scoped := NewScopedKeyer(NewDefaultKeyer(), "user:123:")

	if got := scoped.SessionKey("s1"); got != "user:123:session:s1" {
		t.Errorf("ScopedKeyer SessionKey unexpected: %s", got)
	}
	tk := scoped.TreeKey("doc", TreeKeyOpts{})
	if !strings.HasPrefix(tk, "user:123:tree:") {
		t.Errorf("ScopedKeyer TreeKey should be prefixed: %s", tk)
	}
}

func TestScopedKeyerNilInner(t *testing.T) {
	scoped := NewScopedKeyer(nil, "prefix:")
	if key := scoped.SessionKey("x"); key != "prefix:session:x" {
		t.Errorf("Unexpected key with nil inner: %s", key)
	}
}

func TestKeyType(t *testing.T) {
	k := NewScopedKeyer(nil, "jsontree:api:")
	tests := []struct {
		key  string
		want string
	}{
		{NewDefaultKeyer().TreeKey("d", TreeKeyOpts{}), "tree"},
		{k.LayoutKey("t", LayoutKeyOpts{}), "layout"},
		{k.ArtifactKey("l", ArtifactKeyOpts{}), "artifact"},
		{k.SessionKey("9b1deb4d"), "session"},
		{"plain", "unknown"},
	}
	for _, tt := range tests {
		if got := KeyType(tt.key); got != tt.want {
			t.Errorf("KeyType(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}

func TestRetryableError(t *testing.T) {
	if Retryable(nil) != nil {
		t.Error("Retryable(nil) should return nil")
	}

	err := Retryable(ErrUnavailable)
	if !IsRetryable(err) {
		t.Error("IsRetryable should return true for wrapped error")
	}
	if err.Error() != ErrUnavailable.Error() {
		t.Errorf("Error message should be preserved: %s", err.Error())
	}
	if !errors.Is(err, ErrUnavailable) {
		t.Error("Retryable should unwrap to the cause")
	}
	if IsRetryable(ErrNotFound) {
		t.Error("IsRetryable should return false for unwrapped error")
	}
}

func TestRetryWithBackoff(t *testing.T) {
	old := retryDelay
	retryDelay = time.Millisecond
	defer func() { retryDelay = old }()
	ctx := context.Background()

	calls := 0
	err := RetryWithBackoff(ctx, func() error {
		calls++
		return nil
	})
	if err != nil || calls != 1 {
		t.Errorf("success: err=%v calls=%d", err, calls)
	}

	calls = 0
	err = RetryWithBackoff(ctx, func() error {
		calls++
		return ErrNotFound
	})
	if err != ErrNotFound || calls != 1 {
		t.Errorf("non-retryable: err=%v calls=%d", err, calls)
	}

	calls = 0
	err = RetryWithBackoff(ctx, func() error {
		calls++
		if calls < 2 {
			return Retryable(ErrUnavailable)
		}
		return nil
	})
	if err != nil || calls != 2 {
		t.Errorf("retry once: err=%v calls=%d", err, calls)
	}

	calls = 0
	err = RetryWithBackoff(ctx, func() error {
		calls++
		return Retryable(ErrUnavailable)
	})
	if !errors.Is(err, ErrUnavailable) || calls != 3 {
		t.Errorf("exhausted: err=%v calls=%d", err, calls)
	}
}

func TestRetryWithBackoffContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := RetryWithBackoff(ctx, func() error {
		return Retryable(ErrUnavailable)
	})
	if err != context.Canceled {
		t.Errorf("Should return context error: %v", err)
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	c, err := Open(ctx, Options{Backend: BackendNone})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := c.(*NullCache); !ok {
		t.Errorf("none backend = %T", c)
	}

	c, err = Open(ctx, Options{Backend: BackendFile, Dir: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	if _, ok := c.(*instrumented); !ok {
		t.Errorf("file backend should be instrumented, got %T", c)
	}

	if _, err := Open(ctx, Options{Backend: "memcached"}); !errors.Is(err, ErrUnknownBackend) {
		t.Errorf("unknown backend err = %v", err)
	}
}

type countingHooks struct {
	observability.NoopCacheHooks
	hits, misses map[string]int
	bytes        int
}

func (h *countingHooks) OnCacheHit(_ context.Context, kt string)  { h.hits[kt]++ }
func (h *countingHooks) OnCacheMiss(_ context.Context, kt string) { h.misses[kt]++ }
func (h *countingHooks) OnCacheSet(_ context.Context, _ string, n int) {
	h.bytes += n
}

func TestInstrument(t *testing.T) {
	hooks := &countingHooks{hits: map[string]int{}, misses: map[string]int{}}
	observability.SetCacheHooks(hooks)
	defer observability.Reset()

	fc, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	c := Instrument(fc)
	if Instrument(c) != c {
		t.Error("Instrument should not wrap twice")
	}

	ctx := context.Background()
	key := NewDefaultKeyer().LayoutKey("t", LayoutKeyOpts{})
	c.Get(ctx, key)
	c.Set(ctx, key, []byte("12345"), time.Hour)
	c.Get(ctx, key)

	if hooks.misses["layout"] != 1 || hooks.hits["layout"] != 1 || hooks.bytes != 5 {
		t.Errorf("hooks = hits %v misses %v bytes %d", hooks.hits, hooks.misses, hooks.bytes)
	}
}
