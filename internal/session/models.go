package session

import (
	"sync"
	"time"

	"github.com/entl/botdeck/internal/queue"
)

// Session owns one user's pending command queue and execution lock.
type Session struct {
	ID        string
	CreatedAt time.Time
	Queue     *queue.Queue
	State     SessionState

	// execMu serializes batch executions for this session: the robot
	// handle must never be shared by two in-flight batches.
	execMu sync.Mutex

	mu sync.RWMutex
}

// SessionState represents the current state of a session.
type SessionState string

const (
	StateActive SessionState = "active"
	StateClosed SessionState = "closed"
)

// setState transitions the session state.
func (s *Session) setState(state SessionState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.State = state
}

// state reads the session state.
func (s *Session) state() SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.State
}
