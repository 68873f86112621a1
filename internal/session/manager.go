package session

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/entl/botdeck/internal/queue"
	"github.com/entl/botdeck/internal/storage"
)

// Manager manages the per-user sessions and their queues.
type Manager struct {
	sessions   map[string]*Session
	mu         sync.RWMutex
	store      *storage.DB
	maxPending int
}

// NewManager creates a new session manager backed by the given store.
// maxPending caps each session's queue; zero means unlimited.
func NewManager(store *storage.DB, maxPending int) *Manager {
	return &Manager{
		sessions:   make(map[string]*Session),
		store:      store,
		maxPending: maxPending,
	}
}

// GetOrCreate returns the session for the given ID, creating it on first
// use. An empty ID creates a fresh session with a generated ID. A known ID
// that is not resident is rehydrated from storage, so queues survive
// server restarts.
func (m *Manager) GetOrCreate(ctx context.Context, sessionID string) (*Session, error) {
	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	m.mu.RLock()
	session, ok := m.sessions[sessionID]
	m.mu.RUnlock()
	if ok {
		return session, nil
	}

	q := queue.New(m.maxPending)
	if m.store != nil {
		items, err := m.store.LoadQueue(ctx, sessionID)
		if err != nil {
			return nil, fmt.Errorf("failed to load persisted queue: %w", err)
		}
		if len(items) > 0 {
			restored := make([]queue.Command, len(items))
			for i, item := range items {
				restored[i] = queue.Command{
					Seq:        item.Seq,
					Text:       item.Text,
					EnqueuedAt: item.EnqueuedAt,
				}
			}
			q.Restore(restored)
		}
	}

	session = &Session{
		ID:        sessionID,
		CreatedAt: time.Now(),
		Queue:     q,
		State:     StateActive,
	}

	m.mu.Lock()
	// Another request may have raced us here; keep the first one.
	if existing, ok := m.sessions[sessionID]; ok {
		m.mu.Unlock()
		return existing, nil
	}
	m.sessions[sessionID] = session
	m.mu.Unlock()

	return session, nil
}

// Get retrieves a resident session by ID.
func (m *Manager) Get(sessionID string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, ok := m.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("session not found: %s", sessionID)
	}
	return session, nil
}

// CloseSession persists a session's queue and evicts it.
func (m *Manager) CloseSession(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	session, ok := m.sessions[sessionID]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("session not found: %s", sessionID)
	}
	delete(m.sessions, sessionID)
	m.mu.Unlock()

	if session.state() == StateClosed {
		return nil // already closed
	}
	session.setState(StateClosed)

	if m.store != nil {
		if err := saveQueue(ctx, m.store, session); err != nil {
			return err
		}
	}
	return nil
}

// List returns all resident sessions.
func (m *Manager) List() []*Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	return sessions
}

// Close closes all sessions, persisting their queues.
func (m *Manager) Close() error {
	m.mu.RLock()
	sessionIDs := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		sessionIDs = append(sessionIDs, id)
	}
	m.mu.RUnlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for _, id := range sessionIDs {
		if err := m.CloseSession(ctx, id); err != nil {
			log.Printf("error closing session %s: %v", id, err)
		}
	}
	return nil
}

// saveQueue persists the current queue contents of a session.
func saveQueue(ctx context.Context, store *storage.DB, session *Session) error {
	snap := session.Queue.Snapshot()
	items := make([]storage.QueueItem, len(snap))
	for i, c := range snap {
		items[i] = storage.QueueItem{
			SessionID:  session.ID,
			Seq:        c.Seq,
			Text:       c.Text,
			EnqueuedAt: c.EnqueuedAt,
		}
	}
	if err := store.SaveQueue(ctx, session.ID, items); err != nil {
		return fmt.Errorf("failed to persist queue for session %s: %w", session.ID, err)
	}
	return nil
}
