package pipeline

import (
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/jsontree/pkg/cache"
	"github.com/matzehuels/jsontree/pkg/errors"
	"github.com/matzehuels/jsontree/pkg/observability"
	"github.com/matzehuels/jsontree/pkg/search"
)

func newTestRunner(t *testing.T) *Runner {
	t.Helper()
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	r := NewRunner(fc, nil, log.New(io.Discard))
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func TestNewRunnerDefaults(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	if r.Cache == nil || r.Keyer == nil || r.Logger == nil {
		t.Fatalf("NewRunner left nil fields: %+v", r)
	}
}

func TestRunnerExecute(t *testing.T) {
	r := newTestRunner(t)
	ctx := context.Background()
	opts := Options{
		Document:  []byte(`{"orders":[{"price":9.5}]}`),
		Filename:  "orders.json",
		Formats:   []string{FormatSVG, FormatJSON},
		Highlight: "orders[0].price",
	}

	first, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if first.CacheInfo.BuildHit || first.CacheInfo.LayoutHit || first.CacheInfo.RenderHit {
		t.Errorf("first run hit cache: %+v", first.CacheInfo)
	}
	if first.Stats.NodeCount != 4 || first.Stats.EdgeCount != 3 || first.Stats.MaxLevel != 3 {
		t.Errorf("stats = %+v", first.Stats)
	}
	if first.DocumentHash != cache.Hash(opts.Document) {
		t.Errorf("DocumentHash = %q", first.DocumentHash)
	}
	hl, ok := first.Tree.Highlighted()
	if !ok || hl.Path != "$.orders[0].price" {
		t.Errorf("highlighted = %+v, %v", hl, ok)
	}
	if !strings.Contains(string(first.Artifacts[FormatSVG]), "highlighted") {
		t.Error("svg does not mark the highlighted node")
	}

	second, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatalf("second Execute: %v", err)
	}
	if !second.CacheInfo.BuildHit || !second.CacheInfo.LayoutHit || !second.CacheInfo.RenderHit {
		t.Errorf("second run missed cache: %+v", second.CacheInfo)
	}
	if string(second.Artifacts[FormatSVG]) != string(first.Artifacts[FormatSVG]) {
		t.Error("cached svg differs from rendered svg")
	}

	opts.Refresh = true
	third, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatalf("refresh Execute: %v", err)
	}
	if third.CacheInfo.BuildHit || third.CacheInfo.LayoutHit || third.CacheInfo.RenderHit {
		t.Errorf("refresh run hit cache: %+v", third.CacheInfo)
	}
}

func TestRunnerExecuteHighlightChangesLayoutKey(t *testing.T) {
	r := newTestRunner(t)
	ctx := context.Background()
	doc := []byte(`{"a":1,"b":2}`)

	a, err := r.Execute(ctx, Options{Document: doc, Formats: []string{FormatJSON}, Highlight: "a"})
	if err != nil {
		t.Fatal(err)
	}
	b, err := r.Execute(ctx, Options{Document: doc, Formats: []string{FormatJSON}, Highlight: "b"})
	if err != nil {
		t.Fatal(err)
	}
	if !b.CacheInfo.BuildHit {
		t.Error("tree should be shared across highlights")
	}
	if b.CacheInfo.LayoutHit {
		t.Error("layout cached across different highlights")
	}
	if a.Layout.Highlight != "node-1" || b.Layout.Highlight != "node-2" {
		t.Errorf("highlights = %q, %q", a.Layout.Highlight, b.Layout.Highlight)
	}
}

func TestRunnerExecuteErrors(t *testing.T) {
	r := newTestRunner(t)
	tests := []struct {
		name string
		opts Options
		code errors.Code
	}{
		{"invalid json", Options{Document: []byte(`{`)}, errors.ErrCodeInvalidJSON},
		{"empty", Options{}, errors.ErrCodeInvalidInput},
		{"bad format", Options{Document: []byte(`1`), Formats: []string{"gif"}}, errors.ErrCodeInvalidFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Execute(context.Background(), tt.opts)
			if !errors.Is(err, tt.code) {
				t.Errorf("error = %v, want code %v", err, tt.code)
			}
		})
	}
}

func TestRunnerSearch(t *testing.T) {
	r := newTestRunner(t)
	ctx := context.Background()
	res, err := r.Execute(ctx, Options{Document: []byte(`{"a":{"b":1}}`), Formats: []string{FormatJSON}, Highlight: "a"})
	if err != nil {
		t.Fatal(err)
	}

	l, out, err := r.Search(ctx, res.Layout, "a.b")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if out.Status != search.Found || l.Highlight != "node-2" {
		t.Errorf("Search(a.b) = %+v, highlight %q", out, l.Highlight)
	}
	if n, _ := l.Node("node-1"); n.Highlighted {
		t.Error("previous highlight not cleared")
	}

	l, out, err = r.Search(ctx, l, "")
	if err != nil {
		t.Fatal(err)
	}
	if out.Status != search.Cleared || l.Highlight != "" || l.Query != "" {
		t.Errorf("Search(\"\") = %+v, highlight %q query %q", out, l.Highlight, l.Query)
	}

	_, out, err = r.Search(ctx, l, strings.Repeat("x", errors.MaxQueryLength+1))
	if err != nil || out.Status != search.NotFound {
		t.Errorf("long query = %+v, %v", out, err)
	}
}

func TestRunnerSearchControlCharacterKeys(t *testing.T) {
	r := newTestRunner(t)
	ctx := context.Background()
	res, err := r.Execute(ctx, Options{Document: []byte(`{"a\tb":1,"c\nd":{"e\u0001":2}}`), Formats: []string{FormatJSON}})
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		query  string
		wantID string
	}{
		{"a\tb", "node-1"},
		{"$.a\tb", "node-1"},
		{"c\nd.e\x01", "node-3"},
		{"a\x00b", ""},
	}
	for _, tt := range tests {
		l, out, err := r.Search(ctx, res.Layout, tt.query)
		if err != nil {
			t.Errorf("Search(%q): %v", tt.query, err)
			continue
		}
		if out.NodeID != tt.wantID || l.Highlight != tt.wantID {
			t.Errorf("Search(%q) = %+v, want node %q", tt.query, out, tt.wantID)
		}
		if tt.wantID == "" && out.Status != search.NotFound {
			t.Errorf("Search(%q) status = %v, want NotFound", tt.query, out.Status)
		}
	}
}

type recordingHooks struct {
	observability.NoopPipelineHooks
	mu       sync.Mutex
	builds   []int
	searches []string
}

func (h *recordingHooks) OnBuildComplete(_ context.Context, _ string, n int, _ time.Duration, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err == nil {
		h.builds = append(h.builds, n)
	}
}

func (h *recordingHooks) OnSearch(_ context.Context, status string, _ time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.searches = append(h.searches, status)
}

func TestRunnerHooks(t *testing.T) {
	hooks := &recordingHooks{}
	observability.SetPipelineHooks(hooks)
	t.Cleanup(observability.Reset)

	r := newTestRunner(t)
	ctx := context.Background()
	res, err := r.Execute(ctx, Options{Document: []byte(`[1,2]`), Formats: []string{FormatJSON}})
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := r.Search(ctx, res.Layout, "$[1]"); err != nil {
		t.Fatal(err)
	}
	if _, _, err := r.Search(ctx, res.Layout, "$[7]"); err != nil {
		t.Fatal(err)
	}

	if len(hooks.builds) != 1 || hooks.builds[0] != 3 {
		t.Errorf("builds = %v, want [3]", hooks.builds)
	}
	if strings.Join(hooks.searches, ",") != "found,not_found" {
		t.Errorf("searches = %v", hooks.searches)
	}
}

func containsAll(s string, subs ...string) bool {
	for _, sub := range subs {
		if !strings.Contains(s, sub) {
			return false
		}
	}
	return true
}
