package server

import (
	"sync"
	"time"

	"github.com/KaramelBytes/edalens/internal/dataset"
	"github.com/KaramelBytes/edalens/internal/quality"
	"github.com/google/uuid"
)

// Session holds one uploaded dataset. The dataset never changes after upload,
// so its quality assessment is computed at most once per session.
type Session struct {
	ID         string
	Created    time.Time
	Dataset    *dataset.Dataset
	Assessment *quality.Assessment
}

// Store keeps sessions in memory. When full, adding a session evicts the
// oldest one.
type Store struct {
	mu       sync.Mutex
	limit    int
	sessions map[string]*Session
	order    []string
	now      func() time.Time
}

// NewStore returns a store holding at most limit sessions.
func NewStore(limit int) *Store {
	if limit < 1 {
		limit = 1
	}
	return &Store{
		limit:    limit,
		sessions: make(map[string]*Session),
		now:      time.Now,
	}
}

// Add registers ds under a fresh id. evicted is the id dropped to make room,
// if any.
func (s *Store) Add(ds *dataset.Dataset) (sess *Session, evicted string) {
	sess = &Session{
		ID:         uuid.NewString(),
		Dataset:    ds,
		Assessment: quality.Assess(ds),
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sess.Created = s.now().UTC()
	if len(s.order) >= s.limit {
		evicted = s.order[0]
		s.order = s.order[1:]
		delete(s.sessions, evicted)
	}
	s.sessions[sess.ID] = sess
	s.order = append(s.order, sess.ID)
	return sess, evicted
}

func (s *Store) Get(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

// Delete drops a session and reports whether it existed.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return false
	}
	delete(s.sessions, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
