// Package domain holds the conversation state shared by the dialogue engine,
// the session manager and the store.
package domain

import (
	"time"
)

// State is the coarse position of a session in the dialogue state machine.
type State string

const (
	StateIdle                   State = "idle"
	StateAwaitingConfirmation   State = "awaiting_confirmation"
	StateCollectingRegistration State = "collecting_registration"
)

// Session is the per-conversation state. At most one of Pending and Wizard is set.
type Session struct {
	Key         string              `json:"key"`
	UserID      string              `json:"user_id,omitempty"`
	DisplayName string              `json:"display_name,omitempty"`
	Pending     *PendingAction      `json:"pending,omitempty"`
	Wizard      *RegistrationWizard `json:"wizard,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// NewSession returns an idle, unauthenticated session.
func NewSession(key string, now time.Time) *Session {
	return &Session{Key: key, CreatedAt: now, UpdatedAt: now}
}

// State derives the state machine position from the session fields.
func (s *Session) State() State {
	switch {
	case s.Wizard != nil:
		return StateCollectingRegistration
	case s.Pending != nil:
		return StateAwaitingConfirmation
	default:
		return StateIdle
	}
}

// Authenticated reports whether a student is logged in.
func (s *Session) Authenticated() bool {
	return s.UserID != ""
}

// SetPending installs a pending action, replacing any wizard.
func (s *Session) SetPending(p *PendingAction) {
	s.Pending = p
	if p != nil {
		s.Wizard = nil
	}
}

// StartWizard installs a registration wizard, replacing any pending action.
func (s *Session) StartWizard(w *RegistrationWizard) {
	s.Wizard = w
	if w != nil {
		s.Pending = nil
	}
}

// Reset returns the session to Idle without touching authentication.
func (s *Session) Reset() {
	s.Pending = nil
	s.Wizard = nil
}

// Login binds the session to a student.
func (s *Session) Login(userID, displayName string) {
	s.UserID = userID
	s.DisplayName = displayName
}

// Logout drops the student binding and anything that was waiting on it.
func (s *Session) Logout() {
	s.UserID = ""
	s.DisplayName = ""
	s.Reset()
}

// Touch records activity.
func (s *Session) Touch(now time.Time) {
	s.UpdatedAt = now
}

// Clone returns a deep copy.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	c.Pending = s.Pending.Clone()
	c.Wizard = s.Wizard.Clone()
	return &c
}
