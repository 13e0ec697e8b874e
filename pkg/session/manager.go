package session

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/matzehuels/jsontree/pkg/pipeline"
	"github.com/matzehuels/jsontree/pkg/search"
)

// Options configures a Manager.
type Options struct {
	// TTL is the lifetime of an untouched session. Zero means DefaultTTL.
	TTL time.Duration

	// Runner builds trees and layouts. Nil means an uncached runner.
	Runner *pipeline.Runner

	// Pipeline holds the build limits and layout settings applied to every
	// submitted document. Document, Filename and Highlight are ignored.
	Pipeline pipeline.Options
}

// lockStripes is the number of mutexes sessions are hashed onto.
const lockStripes = 64

// maxSearchAttempts bounds retries when a shared store changes underneath
// a search.
const maxSearchAttempts = 3

// Manager implements the viewer operations on top of a Store.
//
// Operations on one session are serialized within a process, so a search
// never writes back a tree that a concurrent Replace has superseded. With a
// store shared between processes, Search additionally rechecks the
// session's Generation before writing and retries on the newer document.
type Manager struct {
	store  Store
	runner *pipeline.Runner
	ttl    time.Duration
	base   pipeline.Options
	locks  [lockStripes]sync.Mutex
}

// NewManager creates a manager that persists sessions in store.
func NewManager(store Store, opts Options) *Manager {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.Runner == nil {
		opts.Runner = pipeline.NewRunner(nil, nil, nil)
	}
	return &Manager{store: store, runner: opts.Runner, ttl: opts.TTL, base: opts.Pipeline}
}

// Create lays out doc and stores it in a new session.
func (m *Manager) Create(ctx context.Context, doc []byte, filename string) (*Session, error) {
	sess := &Session{ID: GenerateID(), CreatedAt: time.Now()}
	if err := m.load(ctx, sess, doc, filename); err != nil {
		return nil, err
	}
	return sess, nil
}

// Get returns the session with the given ID.
func (m *Manager) Get(ctx context.Context, id string) (*Session, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}
	return m.store.Get(ctx, id)
}

// Replace lays out doc and makes it the session's document. The previous
// tree and search result are discarded even if doc is identical.
func (m *Manager) Replace(ctx context.Context, id string, doc []byte, filename string) (*Session, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}
	unlock := m.lock(id)
	defer unlock()

	sess, err := m.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := m.load(ctx, sess, doc, filename); err != nil {
		return nil, err
	}
	return sess, nil
}

// Search matches query against the session's tree and stores the outcome.
// After a match exactly one node is highlighted; after a miss or an empty
// query none is.
func (m *Manager) Search(ctx context.Context, id, query string) (*Session, search.Result, error) {
	if err := ValidateID(id); err != nil {
		return nil, search.Result{}, err
	}
	unlock := m.lock(id)
	defer unlock()

	for attempt := 1; ; attempt++ {
		sess, err := m.store.Get(ctx, id)
		if err != nil {
			return nil, search.Result{}, err
		}

		l, res, err := m.runner.Search(ctx, sess.Layout, query)
		if err != nil {
			return nil, search.Result{}, err
		}
		sess.Layout = l
		sess.Search = NewOutcome(res)
		if res.Status == search.Cleared {
			sess.Search = nil
		}

		cur, err := m.store.Get(ctx, id)
		if err != nil {
			return nil, search.Result{}, err
		}
		if cur.Generation != sess.Generation {
			if attempt == maxSearchAttempts {
				return nil, search.Result{}, fmt.Errorf("session %s replaced during search", id)
			}
			continue
		}

		sess.touch(m.ttl)
		if err := m.store.Set(ctx, sess); err != nil {
			return nil, search.Result{}, err
		}
		return sess, res, nil
	}
}

// Delete removes a session.
func (m *Manager) Delete(ctx context.Context, id string) error {
	if err := ValidateID(id); err != nil {
		return err
	}
	unlock := m.lock(id)
	defer unlock()
	return m.store.Delete(ctx, id)
}

// RunCleanup removes expired sessions every interval until ctx is done.
func (m *Manager) RunCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := m.store.Cleanup(ctx); err != nil {
				m.runner.Logger.Warn("session cleanup failed", "error", err)
			}
		}
	}
}

// load builds the layout for doc into sess and stores it.
func (m *Manager) load(ctx context.Context, sess *Session, doc []byte, filename string) error {
	opts := m.base
	opts.Document = doc
	opts.Filename = filename
	opts.Highlight = ""

	t, err := m.runner.BuildTree(ctx, opts)
	if err != nil {
		return err
	}
	l, err := m.runner.ComputeLayout(ctx, t, opts)
	if err != nil {
		return err
	}

	sess.Layout = l
	sess.Search = nil
	sess.Generation++
	sess.touch(m.ttl)
	if err := m.store.Set(ctx, sess); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

// lock acquires the mutex guarding id and returns its release.
func (m *Manager) lock(id string) func() {
	h := fnv.New32a()
	h.Write([]byte(id))
	mu := &m.locks[h.Sum32()%lockStripes]
	mu.Lock()
	return mu.Unlock
}
