package wizard

import (
	"errors"
	"fmt"
	"sync"

	"rent_bot/internal/model"
)

// ErrFinished is returned by Session.Handle after the session was saved or cancelled.
var ErrFinished = errors.New("wizard session finished")

// CommitFunc stores the final draft.
type CommitFunc func(model.Criteria) error

// Session is one editing session for a single chat.
// The commit callback runs at most once, and only on an explicit save.
type Session struct {
	mu     sync.Mutex
	state  State
	draft  model.Criteria
	commit CommitFunc
}

// New starts a session in MainMenu with a draft cloned from current.
func New(current model.Criteria, commit CommitFunc) *Session {
	return &Session{
		state:  MainMenu,
		draft:  current.Clone(),
		commit: commit,
	}
}

// Handle applies ev and returns the effects to render. When the transition
// commits, the commit error is returned and the session still ends.
func (s *Session) Handle(ev Event) ([]Effect, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Terminal() {
		return nil, ErrFinished
	}

	next, draft, effects := Transition(s.state, s.draft, ev)
	s.state, s.draft = next, draft

	for _, e := range effects {
		if e.Kind != Commit {
			continue
		}
		commit := s.commit
		s.commit = nil
		if commit == nil {
			continue
		}
		if err := commit(draft.Clone()); err != nil {
			return effects, fmt.Errorf("commit criteria: %w", err)
		}
	}

	return effects, nil
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Draft returns a copy of the working criteria.
func (s *Session) Draft() model.Criteria {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft.Clone()
}
