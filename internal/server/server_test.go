package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/matzehuels/jsontree/pkg/cache"
	"github.com/matzehuels/jsontree/pkg/errors"
	"github.com/matzehuels/jsontree/pkg/graph"
	"github.com/matzehuels/jsontree/pkg/observability"
	"github.com/matzehuels/jsontree/pkg/pipeline"
	"github.com/matzehuels/jsontree/pkg/session"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger := log.New(io.Discard)
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	runner := pipeline.NewRunner(fc, nil, logger)
	sessions := session.NewManager(session.NewMemoryStore(), session.Options{Runner: runner})

	srv := New(Config{
		Runner:   runner,
		Sessions: sessions,
		Defaults: pipeline.Options{MaxBytes: 1 << 10},
		Gatherer: prometheus.NewRegistry(),
		Logger:   logger,
	})
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)
	return ts
}

func do(t *testing.T, method, url, contentType, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	resp := do(t, http.MethodGet, ts.URL+"/healthz", "", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if resp.Header.Get(RequestIDHeader) == "" {
		t.Error("missing request id header")
	}
}

func TestRequestIDPropagated(t *testing.T) {
	ts := newTestServer(t)
	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/healthz", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if got := resp.Header.Get(RequestIDHeader); got != "abc-123" {
		t.Errorf("request id = %q", got)
	}
}

func TestLayout(t *testing.T) {
	ts := newTestServer(t)

	resp := do(t, http.MethodPost, ts.URL+"/v1/layout?highlight=b", "application/json", `{"a":1,"b":[true]}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if resp.Header.Get("X-Cache") != "miss" {
		t.Errorf("X-Cache = %q", resp.Header.Get("X-Cache"))
	}
	l := decode[graph.Layout](t, resp)
	if len(l.Nodes) != 4 || l.Highlight != "node-2" {
		t.Errorf("layout nodes = %d highlight %q", len(l.Nodes), l.Highlight)
	}
	if l.Nodes[1].X != -140 || l.Nodes[1].Y != 120 {
		t.Errorf("node-1 at (%v, %v)", l.Nodes[1].X, l.Nodes[1].Y)
	}

	again := do(t, http.MethodPost, ts.URL+"/v1/layout?highlight=b", "application/json", `{"a":1,"b":[true]}`)
	if again.Header.Get("X-Cache") != "hit" {
		t.Errorf("second X-Cache = %q", again.Header.Get("X-Cache"))
	}
}

func TestLayoutYAML(t *testing.T) {
	ts := newTestServer(t)
	resp := do(t, http.MethodPost, ts.URL+"/v1/layout", "application/yaml", "a: 1\nb: two\n")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	l := decode[graph.Layout](t, resp)
	if len(l.Nodes) != 3 || l.Nodes[2].Label != "b: two" {
		t.Errorf("nodes = %+v", l.Nodes)
	}
}

func TestRender(t *testing.T) {
	ts := newTestServer(t)
	tests := []struct {
		format      string
		contentType string
		contains    string
	}{
		{"svg", "image/svg+xml", "<svg"},
		{"mermaid", "text/plain; charset=utf-8", "flowchart TD"},
		{"dot", "text/vnd.graphviz; charset=utf-8", "digraph"},
		{"json", "application/json", `"viz_type"`},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			resp := do(t, http.MethodPost, ts.URL+"/v1/render?format="+tt.format, "", `{"a":1}`)
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("status = %d", resp.StatusCode)
			}
			if got := resp.Header.Get("Content-Type"); got != tt.contentType {
				t.Errorf("Content-Type = %q", got)
			}
			body, _ := io.ReadAll(resp.Body)
			if !strings.Contains(string(body), tt.contains) {
				t.Errorf("body does not contain %q:\n%s", tt.contains, body)
			}
		})
	}
}

// yamlAliasChain is a few hundred bytes that expand to ten million values.
const yamlAliasChain = `a0: &a0 [x, x, x, x, x, x, x, x, x, x]
a1: &a1 [*a0, *a0, *a0, *a0, *a0, *a0, *a0, *a0, *a0, *a0]
a2: &a2 [*a1, *a1, *a1, *a1, *a1, *a1, *a1, *a1, *a1, *a1]
a3: &a3 [*a2, *a2, *a2, *a2, *a2, *a2, *a2, *a2, *a2, *a2]
a4: &a4 [*a3, *a3, *a3, *a3, *a3, *a3, *a3, *a3, *a3, *a3]
a5: &a5 [*a4, *a4, *a4, *a4, *a4, *a4, *a4, *a4, *a4, *a4]
a6: &a6 [*a5, *a5, *a5, *a5, *a5, *a5, *a5, *a5, *a5, *a5]
`

func TestErrors(t *testing.T) {
	ts := newTestServer(t)
	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
		code   string
	}{
		{"invalid json", http.MethodPost, "/v1/layout", `{"a":`, 400, "INVALID_JSON"},
		{"empty body", http.MethodPost, "/v1/layout", ``, 400, "INVALID_INPUT"},
		{"too large", http.MethodPost, "/v1/layout", `"` + strings.Repeat("x", 2000) + `"`, 413, "TOO_LARGE"},
		{"bad format", http.MethodPost, "/v1/render?format=gif", `1`, 400, "INVALID_FORMAT"},
		{"bad style", http.MethodPost, "/v1/render?style=neon", `1`, 400, "INVALID_STYLE"},
		{"bad viz", http.MethodPost, "/v1/layout?viz_type=tower", `1`, 400, "INVALID_VIZ_TYPE"},
		{"bad spacing", http.MethodPost, "/v1/layout?h_spacing=-1", `1`, 400, "INVALID_INPUT"},
		{"unknown session", http.MethodGet, "/v1/sessions/" + session.GenerateID(), ``, 404, "SESSION_NOT_FOUND"},
		{"invalid session id", http.MethodGet, "/v1/sessions/nope", ``, 400, "INVALID_INPUT"},
		{"unknown route", http.MethodGet, "/v2/things", ``, 404, "NOT_FOUND"},
		{"wrong method", http.MethodGet, "/v1/layout", ``, 405, "METHOD_NOT_ALLOWED"},
		{"yaml alias expansion", http.MethodPost, "/v1/layout?filename=doc.yaml", yamlAliasChain, 413, "TOO_LARGE"},
		{"yaml alias session", http.MethodPost, "/v1/sessions?filename=doc.yaml", yamlAliasChain, 413, "TOO_LARGE"},
		{"long highlight", http.MethodPost, "/v1/layout?highlight=" + strings.Repeat("x", errors.MaxQueryLength+1), `1`, 400, "INVALID_INPUT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := do(t, tt.method, ts.URL+tt.path, "", tt.body)
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			e := decode[ErrorResponse](t, resp)
			if e.Error != tt.code || e.Message == "" {
				t.Errorf("error = %+v, want code %s", e, tt.code)
			}
		})
	}
}

func TestSessionLifecycle(t *testing.T) {
	ts := newTestServer(t)

	created := do(t, http.MethodPost, ts.URL+"/v1/sessions", "application/json", `{"user":{"name":"Ada"},"tags":["x"]}`)
	if created.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d", created.StatusCode)
	}
	sess := decode[SessionResponse](t, created)
	if sess.ID == "" || len(sess.Layout.Nodes) != 5 {
		t.Fatalf("session = %+v", sess)
	}
	if loc := created.Header.Get("Location"); loc != "/v1/sessions/"+sess.ID {
		t.Errorf("Location = %q", loc)
	}
	base := ts.URL + "/v1/sessions/" + sess.ID

	searches := []struct {
		query   string
		status  string
		message string
		nodeID  string
	}{
		{"user.name", "found", "Match found!", "node-2"},
		{"missing", "not_found", "No match found", ""},
		{"tags[0]", "found", "Match found!", "node-4"},
		{"", "cleared", "", ""},
	}
	for _, s := range searches {
		resp := do(t, http.MethodPost, base+"/search", "application/json", `{"query":"`+s.query+`"}`)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("search %q status = %d", s.query, resp.StatusCode)
		}
		got := decode[SearchResponse](t, resp)
		if got.Status != s.status || got.Message != s.message || got.NodeID != s.nodeID {
			t.Errorf("search %q = %+v", s.query, got)
		}
		count := 0
		for _, n := range got.Layout.Nodes {
			if n.Highlighted {
				count++
			}
		}
		if want := map[bool]int{true: 1, false: 0}[s.nodeID != ""]; count != want {
			t.Errorf("search %q highlighted %d nodes, want %d", s.query, count, want)
		}
	}

	long := do(t, http.MethodPost, base+"/search", "application/json", `{"query":"`+strings.Repeat("x", errors.MaxQueryLength+1)+`"}`)
	if long.StatusCode != http.StatusBadRequest {
		t.Errorf("long query status = %d", long.StatusCode)
	}

	replaced := do(t, http.MethodPut, base, "application/json", `[1,2,3]`)
	if replaced.StatusCode != http.StatusOK {
		t.Fatalf("replace status = %d", replaced.StatusCode)
	}
	if r := decode[SessionResponse](t, replaced); len(r.Layout.Nodes) != 4 || r.Search != nil {
		t.Errorf("replaced = %+v", r)
	}

	got := do(t, http.MethodGet, base, "", "")
	if got.StatusCode != http.StatusOK {
		t.Fatalf("get status = %d", got.StatusCode)
	}
	if r := decode[SessionResponse](t, got); r.Layout.Nodes[0].Label != "root [3]" {
		t.Errorf("root label = %q", r.Layout.Nodes[0].Label)
	}

	if del := do(t, http.MethodDelete, base, "", ""); del.StatusCode != http.StatusNoContent {
		t.Errorf("delete status = %d", del.StatusCode)
	}
	if gone := do(t, http.MethodGet, base, "", ""); gone.StatusCode != http.StatusNotFound {
		t.Errorf("get after delete status = %d", gone.StatusCode)
	}
}

type recordingHTTPHooks struct {
	observability.NoopHTTPHooks
	mu     sync.Mutex
	routes []string
}

func (h *recordingHTTPHooks) OnResponse(_ context.Context, method, route string, status int, _ time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.routes = append(h.routes, method+" "+route)
}

func TestInstrumentUsesRoutePattern(t *testing.T) {
	hooks := &recordingHTTPHooks{}
	observability.SetHTTPHooks(hooks)
	t.Cleanup(observability.Reset)

	ts := newTestServer(t)
	do(t, http.MethodGet, ts.URL+"/v1/sessions/"+session.GenerateID(), "", "")

	hooks.mu.Lock()
	defer hooks.mu.Unlock()
	if len(hooks.routes) != 1 || !strings.Contains(hooks.routes[0], "{id}") {
		t.Errorf("routes = %v", hooks.routes)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	observability.NewPrometheus(reg).Install()
	t.Cleanup(observability.Reset)

	runner := pipeline.NewRunner(nil, nil, log.New(io.Discard))
	srv := New(Config{
		Runner:   runner,
		Sessions: session.NewManager(session.NewMemoryStore(), session.Options{Runner: runner}),
		Gatherer: reg,
		Logger:   log.New(io.Discard),
	})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	do(t, http.MethodPost, ts.URL+"/v1/layout", "", `{"a":1}`)
	resp := do(t, http.MethodGet, ts.URL+"/metrics", "", "")
	body, _ := io.ReadAll(resp.Body)
	for _, name := range []string{"jsontree_http_requests_total", "jsontree_stage_duration_seconds", "jsontree_tree_nodes"} {
		if !strings.Contains(string(body), name) {
			t.Errorf("metrics missing %s", name)
		}
	}
}
