package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestPrometheusPipeline(t *testing.T) {
	ctx := context.Background()
	p := NewPrometheus(prometheus.NewRegistry())

	p.OnBuildComplete(ctx, "doc.json", 12, time.Millisecond, nil)
	p.OnBuildComplete(ctx, "bad.json", 0, time.Millisecond, errors.New("syntax"))
	p.OnLayoutComplete(ctx, "tree", time.Millisecond, nil)

	if got := testutil.ToFloat64(p.stageErrors.WithLabelValues("build")); got != 1 {
		t.Errorf("build errors = %v, want 1", got)
	}
	if got := testutil.ToFloat64(p.stageErrors.WithLabelValues("layout")); got != 0 {
		t.Errorf("layout errors = %v, want 0", got)
	}
	if got := testutil.CollectAndCount(p.stageDuration); got != 2 {
		t.Errorf("stage series = %d, want 2", got)
	}
}

func TestPrometheusSearchAndCache(t *testing.T) {
	ctx := context.Background()
	p := NewPrometheus(prometheus.NewRegistry())

	p.OnSearch(ctx, "found", time.Microsecond)
	p.OnSearch(ctx, "found", time.Microsecond)
	p.OnSearch(ctx, "not_found", time.Microsecond)
	p.OnCacheHit(ctx, "tree")
	p.OnCacheMiss(ctx, "tree")
	p.OnCacheSet(ctx, "tree", 300)
	p.OnCacheSet(ctx, "layout", 200)

	tests := []struct {
		name string
		c    prometheus.Collector
		want float64
	}{
		{"found", p.searches.WithLabelValues("found"), 2},
		{"not found", p.searches.WithLabelValues("not_found"), 1},
		{"hit", p.cacheOps.WithLabelValues("tree", "hit"), 1},
		{"miss", p.cacheOps.WithLabelValues("tree", "miss"), 1},
		{"set", p.cacheOps.WithLabelValues("layout", "set"), 1},
		{"bytes", p.cacheBytes, 500},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := testutil.ToFloat64(tt.c); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPrometheusHTTP(t *testing.T) {
	ctx := context.Background()
	p := NewPrometheus(prometheus.NewRegistry())

	p.OnResponse(ctx, "POST", "/v1/layout", 200, time.Millisecond)
	p.OnResponse(ctx, "POST", "/v1/layout", 400, time.Millisecond)
	p.OnResponse(ctx, "POST", "/v1/layout", 200, time.Millisecond)

	if got := testutil.ToFloat64(p.requests.WithLabelValues("POST", "/v1/layout", "200")); got != 2 {
		t.Errorf("200 responses = %v, want 2", got)
	}
	if got := testutil.ToFloat64(p.requests.WithLabelValues("POST", "/v1/layout", "400")); got != 1 {
		t.Errorf("400 responses = %v, want 1", got)
	}
}

func TestPrometheusInstall(t *testing.T) {
	defer Reset()
	p := NewPrometheus(prometheus.NewRegistry())
	p.Install()

	if Pipeline() != PipelineHooks(p) {
		t.Error("Install should set pipeline hooks")
	}
	if Cache() != CacheHooks(p) {
		t.Error("Install should set cache hooks")
	}
	if HTTP() != HTTPHooks(p) {
		t.Error("Install should set HTTP hooks")
	}
}

func TestPrometheusDoubleRegisterPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewPrometheus(reg)
	defer func() {
		if recover() == nil {
			t.Error("registering twice should panic")
		}
	}()
	NewPrometheus(reg)
}
