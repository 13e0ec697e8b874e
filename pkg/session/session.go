// Package session keeps the state of an interactive viewer: the positioned
// tree of the current document and the outcome of the last search.
//
// A session owns the highlight side effect of searching. The core matcher
// only reports which node matched; [Manager.Search] writes that result into
// the stored layout so that exactly one node is highlighted after a match
// and none after a miss or an empty query.
//
// Submitting a new document replaces the whole tree. Node IDs restart at
// node-0, so any previous search result is dropped with it.
//
// # Stores
//
// Sessions are persisted through a [Store]:
//
//   - [MemoryStore]: a mutex-guarded map for a single server process
//   - [CacheStore]: any cache.Cache backend (file, redis, mongo) with a TTL
//
// # Usage
//
//	m := session.NewManager(session.NewMemoryStore(), session.Options{})
//	sess, err := m.Create(ctx, doc, "doc.json")
//	sess, res, err := m.Search(ctx, sess.ID, "user.name")
//	if res.Status == search.Found {
//	    fmt.Println(sess.Layout.Highlight)
//	}
package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/jsontree/pkg/graph"
	"github.com/matzehuels/jsontree/pkg/search"
)

// Sentinel errors for session operations.
var (
	// ErrNotFound is returned when a session does not exist or has expired.
	ErrNotFound = errors.New("session not found")

	// ErrInvalidID is returned for IDs that are not UUIDs.
	ErrInvalidID = errors.New("invalid session id")
)

// DefaultTTL is how long an untouched session lives.
const DefaultTTL = 2 * time.Hour

// Session is the state of one viewer.
type Session struct {
	ID     string       `json:"id"`
	Layout graph.Layout `json:"layout"`
	Search *Outcome     `json:"search,omitempty"`

	// Generation increases each time a document is loaded into the session.
	Generation int `json:"generation"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Outcome is the serialized result of the last search.
type Outcome struct {
	Status  string `json:"status"`
	Query   string `json:"query"`
	Message string `json:"message,omitempty"`
	NodeID  string `json:"node_id,omitempty"`
	Path    string `json:"path,omitempty"`
}

// NewOutcome converts a search result.
func NewOutcome(r search.Result) *Outcome {
	return &Outcome{
		Status:  r.Status.String(),
		Query:   r.Query,
		Message: r.Message(),
		NodeID:  r.NodeID,
		Path:    r.Path,
	}
}

// IsExpired returns true if the session has expired.
func (s *Session) IsExpired() bool {
	return !s.ExpiresAt.IsZero() && time.Now().After(s.ExpiresAt)
}

// touch extends the session's lifetime.
func (s *Session) touch(ttl time.Duration) {
	now := time.Now()
	s.UpdatedAt = now
	if ttl > 0 {
		s.ExpiresAt = now.Add(ttl)
	}
}

// Store is the interface for session storage backends.
type Store interface {
	// Get retrieves a session by ID.
	// Returns ErrNotFound if the session doesn't exist or has expired.
	Get(ctx context.Context, id string) (*Session, error)

	// Set stores a session, replacing any previous state.
	Set(ctx context.Context, s *Session) error

	// Delete removes a session. Deleting a missing session is not an error.
	Delete(ctx context.Context, id string) error

	// Cleanup removes expired sessions (may be a no-op when the backend
	// expires entries itself).
	Cleanup(ctx context.Context) error
}

// GenerateID creates a random session ID.
func GenerateID() string {
	return uuid.NewString()
}

// ValidateID checks that id has the form produced by GenerateID.
func ValidateID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrInvalidID
	}
	return nil
}
