package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/matzehuels/jsontree/pkg/cache"
)

// CacheStore persists sessions in a cache backend. Expiry is delegated to
// the backend through the entry TTL.
type CacheStore struct {
	cache cache.Cache
	keyer cache.Keyer
}

// NewCacheStore creates a store on c. If keyer is nil a DefaultKeyer is used.
func NewCacheStore(c cache.Cache, keyer cache.Keyer) *CacheStore {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	return &CacheStore{cache: c, keyer: keyer}
}

func (s *CacheStore) Get(ctx context.Context, id string) (*Session, error) {
	data, hit, err := s.cache.Get(ctx, s.keyer.SessionKey(id))
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if !hit {
		return nil, ErrNotFound
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	if sess.IsExpired() {
		return nil, ErrNotFound
	}
	return &sess, nil
}

func (s *CacheStore) Set(ctx context.Context, sess *Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	var ttl time.Duration
	if !sess.ExpiresAt.IsZero() {
		ttl = time.Until(sess.ExpiresAt)
		if ttl <= 0 {
			return s.Delete(ctx, sess.ID)
		}
	}
	if err := s.cache.Set(ctx, s.keyer.SessionKey(sess.ID), data, ttl); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

func (s *CacheStore) Delete(ctx context.Context, id string) error {
	return s.cache.Delete(ctx, s.keyer.SessionKey(id))
}

// Cleanup is a no-op; cache backends expire entries on their own.
func (s *CacheStore) Cleanup(context.Context) error { return nil }

var _ Store = (*CacheStore)(nil)
