package api

import (
	"sync"

	"github.com/google/uuid"

	"github.com/warp/timesheet/timesheet"
)

// Sessions keeps live sessions keyed by a random id. Callers get copies;
// changes go through Update.
type Sessions struct {
	mu       sync.Mutex
	sessions map[string]*timesheet.Session
}

func NewSessions() *Sessions {
	return &Sessions{sessions: make(map[string]*timesheet.Session)}
}

// Start creates a session for person with the reference date set to today.
func (s *Sessions) Start(person string, today timesheet.Date) (timesheet.Session, error) {
	sess, err := timesheet.NewSession(uuid.NewString(), person, today)
	if err != nil {
		return timesheet.Session{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess
	return *sess, nil
}

func (s *Sessions) Get(id string) (timesheet.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return timesheet.Session{}, timesheet.ErrSessionNotFound
	}
	return *sess, nil
}

// Update applies fn to the stored session and returns the result.
func (s *Sessions) Update(id string, fn func(*timesheet.Session)) (timesheet.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return timesheet.Session{}, timesheet.ErrSessionNotFound
	}
	fn(sess)
	return *sess, nil
}

// End discards the session.
func (s *Sessions) End(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return timesheet.ErrSessionNotFound
	}
	delete(s.sessions, id)
	return nil
}

func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
