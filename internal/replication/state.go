package replication

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/usersync/internal/logging"
	"github.com/google/uuid"
)

// State is the phase of a single pull or push session.
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateConnected
	StateExecuting
	StateDisconnecting
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateExecuting:
		return "executing"
	case StateDisconnecting:
		return "disconnecting"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

var transitions = map[State][]State{
	StateIdle:          {StateConnecting},
	StateConnecting:    {StateConnected, StateFailed},
	StateConnected:     {StateExecuting},
	StateExecuting:     {StateDisconnecting, StateFailed},
	StateDisconnecting: {StateIdle},
	StateFailed:        {StateIdle},
}

// CanTransition reports whether from -> to is allowed.
func CanTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Observer is told about every accepted transition.
type Observer func(sessionID, kind string, from, to State)

// Session tracks the state of one connect/execute/disconnect sequence.
// A session is owned by a single goroutine.
type Session struct {
	ID   string
	Kind string

	state    State
	log      logging.Logger
	observer Observer
}

func NewSession(kind string, log logging.Logger, observer Observer) *Session {
	id := uuid.NewString()
	return &Session{
		ID:       id,
		Kind:     kind,
		state:    StateIdle,
		log:      log.With("session_id", id, "kind", kind),
		observer: observer,
	}
}

func (s *Session) State() State {
	return s.state
}

// Transition moves the session to next. Illegal transitions leave the state
// unchanged and return ErrIllegalTransition.
func (s *Session) Transition(ctx context.Context, next State) error {
	from := s.state
	if !CanTransition(from, next) {
		s.log.Error(ctx, "rejected state transition", "from", from.String(), "to", next.String())
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, from, next)
	}
	s.state = next
	s.log.Debug(ctx, "state transition", "from", from.String(), "to", next.String())
	if s.observer != nil {
		s.observer(s.ID, s.Kind, from, next)
	}
	return nil
}
