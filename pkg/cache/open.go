package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/matzehuels/jsontree/pkg/observability"
)

// Backend names accepted by Open.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendMongo = "mongo"
	BackendNone  = "none"
)

// Options selects and configures a backend.
type Options struct {
	Backend    string
	Dir        string // file
	URL        string // redis or mongo connection string
	Database   string // mongo
	Collection string // mongo
}

// Open creates the backend named by opts.Backend, wrapped so that hits,
// misses and writes are reported to the observability cache hooks.
func Open(ctx context.Context, opts Options) (Cache, error) {
	var (
		c   Cache
		err error
	)
	switch opts.Backend {
	case BackendFile, "":
		c, err = NewFileCache(opts.Dir)
	case BackendRedis:
		c, err = DialRedis(ctx, opts.URL)
	case BackendMongo:
		c, err = DialMongo(ctx, opts.URL, opts.Database, opts.Collection)
	case BackendNone:
		return NewNullCache(), nil
	default:
		return nil, fmt.Errorf("%w: %q (must be one of: file, redis, mongo, none)", ErrUnknownBackend, opts.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s cache: %w", opts.Backend, err)
	}
	return Instrument(c), nil
}

// instrumented reports cache activity to observability.Cache().
type instrumented struct {
	Cache
}

// Instrument wraps c so that every Get and Set emits a cache hook event,
// labelled with the key's KeyType.
func Instrument(c Cache) Cache {
	if _, ok := c.(*instrumented); ok {
		return c
	}
	return &instrumented{Cache: c}
}

func (c *instrumented) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, hit, err := c.Cache.Get(ctx, key)
	if err == nil {
		if hit {
			observability.Cache().OnCacheHit(ctx, KeyType(key))
		} else {
			observability.Cache().OnCacheMiss(ctx, KeyType(key))
		}
	}
	return data, hit, err
}

func (c *instrumented) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	err := c.Cache.Set(ctx, key, data, ttl)
	if err == nil {
		observability.Cache().OnCacheSet(ctx, KeyType(key), len(data))
	}
	return err
}
