// Package session keeps completed runs in memory for read-only inspection.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"polydros.ai/internal/sim/engine"
)

// Latest resolves to the most recently stored run.
const Latest = "latest"

type Session struct {
	ID        string         `json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	Config    engine.Config  `json:"config"`
	Result    *engine.Result `json:"-"`
}

// Store holds up to limit sessions and evicts the oldest first. It is safe for
// concurrent use; stored results are treated as immutable.
type Store struct {
	mu    sync.RWMutex
	byID  map[string]*Session
	order []string
	limit int

	now func() time.Time
}

func NewStore(limit int) *Store {
	if limit <= 0 {
		limit = 1
	}
	return &Store{byID: map[string]*Session{}, limit: limit, now: time.Now}
}

// NewID returns a fresh random session id.
func NewID() string { return uuid.NewString() }

// Put stores res under a fresh random id and returns the session.
func (s *Store) Put(res *engine.Result) *Session {
	return s.Add(NewID(), res)
}

// Add stores res under id, replacing any session already stored under it.
func (s *Store) Add(id string, res *engine.Result) *Session {
	sess := &Session{
		ID:        id,
		CreatedAt: s.now().UTC(),
		Config:    res.Config,
		Result:    res,
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[id]; ok {
		s.byID[id] = sess
		return sess
	}
	s.byID[id] = sess
	s.order = append(s.order, id)
	for len(s.order) > s.limit {
		delete(s.byID, s.order[0])
		s.order = s.order[1:]
	}
	return sess
}

// Get returns the session with id. An empty id or Latest returns the newest one.
func (s *Store) Get(id string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if id == "" || id == Latest {
		if len(s.order) == 0 {
			return nil, false
		}
		id = s.order[len(s.order)-1]
	}
	sess, ok := s.byID[id]
	return sess, ok
}

// List returns the stored sessions, oldest first.
func (s *Store) List() []*Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Session, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id])
	}
	return out
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}
