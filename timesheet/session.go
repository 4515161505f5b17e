package timesheet

import "time"

// Session is one interactive user's state: who is logged in and which week
// is in view. It is created at login and dropped at logout. The admin gate
// is not session state; every admin call presents its own secret.
type Session struct {
	ID            string
	Person        string
	ReferenceDate Date
	CreatedAt     time.Time
}

// NewSession starts a session for person looking at the week containing today.
func NewSession(id, person string, today Date) (*Session, error) {
	if person == "" {
		return nil, ErrEmptyPerson
	}
	return &Session{
		ID:            id,
		Person:        person,
		ReferenceDate: today,
		CreatedAt:     time.Now().UTC(),
	}, nil
}

// Week returns the week the session is looking at.
func (s *Session) Week() Week { return WeekOf(s.ReferenceDate) }

// NextWeek moves the reference date forward exactly seven days.
func (s *Session) NextWeek() { s.ReferenceDate = s.ReferenceDate.AddDays(7) }

// PreviousWeek moves the reference date back exactly seven days.
func (s *Session) PreviousWeek() { s.ReferenceDate = s.ReferenceDate.AddDays(-7) }

// Reset points the session back at today.
func (s *Session) Reset(today Date) { s.ReferenceDate = today }
