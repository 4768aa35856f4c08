// Package session keeps track of logged in teachers.
//
// A Session is created when an account authenticates and deleted on logout; holding one is what
// "logged in" means. It is passed explicitly to whatever acts on behalf of the teacher.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/gradebook/core/account"
)

type Session struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"` // UTC
}

type Store struct {
	mu       sync.RWMutex
	sessions map[string]Session
	nowFunc  func() time.Time
}

func NewStore() *Store {
	return &Store{
		sessions: make(map[string]Session),
		nowFunc:  time.Now,
	}
}

// Create opens a new Session for acc.
func (s *Store) Create(acc account.Account) Session {
	sess := Session{
		ID:        uuid.New().String(),
		Username:  acc.Username,
		CreatedAt: s.nowFunc().UTC(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess
	return sess
}

func (s *Store) Get(id string) (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

// Delete ends the Session. Deleting an unknown Session is a no-op.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// Len returns the number of open sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
