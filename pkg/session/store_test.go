package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/matzehuels/jsontree/pkg/cache"
	"github.com/matzehuels/jsontree/pkg/graph"
)

func testSession(ttl time.Duration) *Session {
	s := &Session{
		ID: GenerateID(),
		Layout: graph.Layout{
			VizType: graph.VizTypeTree,
			Nodes:   []graph.Node{{ID: "node-0", Kind: graph.KindPrimitive, Key: "root", Label: "root: 1", Path: "$", Value: []byte("1")}},
		},
		CreatedAt: time.Now(),
	}
	s.touch(ttl)
	return s
}

// storeContract runs the behavior every Store must share.
func storeContract(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	if _, err := store.Get(ctx, GenerateID()); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrNotFound", err)
	}

	s := testSession(time.Hour)
	if err := store.Set(ctx, s); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := store.Get(ctx, s.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ID != s.ID || len(got.Layout.Nodes) != 1 || got.Layout.Nodes[0].Label != "root: 1" {
		t.Errorf("Get = %+v", got)
	}

	// Mutating the returned session does not affect the store.
	got.Layout.Nodes[0].Highlighted = true
	again, err := store.Get(ctx, s.ID)
	if err != nil {
		t.Fatal(err)
	}
	if again.Layout.Nodes[0].Highlighted {
		t.Error("store shares state with callers")
	}

	if err := store.Delete(ctx, s.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Get(ctx, s.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after Delete error = %v", err)
	}
	if err := store.Delete(ctx, s.ID); err != nil {
		t.Errorf("Delete(missing) = %v", err)
	}
}

func TestMemoryStore(t *testing.T) {
	storeContract(t, NewMemoryStore())
}

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	s := testSession(time.Hour)
	s.ExpiresAt = time.Now().Add(-time.Second)
	if err := store.Set(ctx, s); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Get(ctx, s.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(expired) error = %v", err)
	}
	if store.Len() != 1 {
		t.Fatalf("Len = %d before cleanup", store.Len())
	}
	if err := store.Cleanup(ctx); err != nil {
		t.Fatal(err)
	}
	if store.Len() != 0 {
		t.Errorf("Len = %d after cleanup", store.Len())
	}
}

func TestCacheStoreFile(t *testing.T) {
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	storeContract(t, NewCacheStore(fc, nil))
}

func TestCacheStoreRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewCacheStore(cache.NewRedisCache(client), nil)
	storeContract(t, store)

	ctx := context.Background()
	s := testSession(time.Minute)
	if err := store.Set(ctx, s); err != nil {
		t.Fatal(err)
	}
	key := cache.NewDefaultKeyer().SessionKey(s.ID)
	if ttl := mr.TTL(key); ttl <= 0 || ttl > time.Minute {
		t.Errorf("TTL(%s) = %v", key, ttl)
	}

	mr.FastForward(2 * time.Minute)
	if _, err := store.Get(ctx, s.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after expiry error = %v", err)
	}
}

func TestValidateID(t *testing.T) {
	if err := ValidateID(GenerateID()); err != nil {
		t.Errorf("ValidateID(GenerateID()) = %v", err)
	}
	for _, id := range []string{"", "abc", "../etc/passwd"} {
		if err := ValidateID(id); !errors.Is(err, ErrInvalidID) {
			t.Errorf("ValidateID(%q) = %v", id, err)
		}
	}
}
