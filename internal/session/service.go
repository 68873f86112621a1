package session

import (
	"context"
	"errors"
	"log"

	"github.com/google/uuid"

	"github.com/entl/botdeck/internal/device"
	"github.com/entl/botdeck/internal/executor"
	"github.com/entl/botdeck/internal/history"
	"github.com/entl/botdeck/internal/queue"
)

// ErrExecutionInFlight rejects a second execute request while a batch is
// already running for the same session. Two concurrent batches would share
// one device handle, which is unsafe.
var ErrExecutionInFlight = errors.New("batch execution already in progress for this session")

// Service bridges the hosting layer and the queue/executor core: it owns
// the submit / execute / clear / snapshot operations of one deployment.
type Service struct {
	manager *Manager
	exec    *executor.Executor
	driver  device.Driver
	hist    *history.Service
}

// NewService creates the session service.
func NewService(manager *Manager, exec *executor.Executor, driver device.Driver, hist *history.Service) *Service {
	return &Service{
		manager: manager,
		exec:    exec,
		driver:  driver,
		hist:    hist,
	}
}

// Submit appends command text to the session's queue without executing it.
// Invalid text (blank after trimming) is rejected and never enqueued.
func (s *Service) Submit(ctx context.Context, sessionID, text string) (*Session, queue.Command, error) {
	session, err := s.manager.GetOrCreate(ctx, sessionID)
	if err != nil {
		return nil, queue.Command{}, err
	}

	cmd, err := session.Queue.Append(text)
	if err != nil {
		return session, queue.Command{}, err
	}

	if err := s.persist(ctx, session); err != nil {
		return session, cmd, err
	}
	return session, cmd, nil
}

// ClearQueue empties the session's queue without executing anything.
func (s *Service) ClearQueue(ctx context.Context, sessionID string) (*Session, error) {
	session, err := s.manager.GetOrCreate(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	session.Queue.Clear()
	if err := s.persist(ctx, session); err != nil {
		return session, err
	}
	return session, nil
}

// QueueSnapshot returns the session's pending commands in order.
func (s *Service) QueueSnapshot(ctx context.Context, sessionID string) (*Session, []queue.Command, error) {
	session, err := s.manager.GetOrCreate(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	return session, session.Queue.Snapshot(), nil
}

// ExecuteBatch drains the session's current queue snapshot against the
// robot. Exactly one batch runs per session at a time; a concurrent
// request gets ErrExecutionInFlight. After the batch, only the drained
// snapshot is cleared (commands appended during execution stay queued)
// and the outcomes are recorded to history.
func (s *Service) ExecuteBatch(ctx context.Context, sessionID string, obs executor.Observer) (*Session, string, []executor.Outcome, error) {
	session, err := s.manager.GetOrCreate(ctx, sessionID)
	if err != nil {
		return nil, "", nil, err
	}

	if !session.execMu.TryLock() {
		return session, "", nil, ErrExecutionInFlight
	}
	defer session.execMu.Unlock()

	snapshot := session.Queue.Snapshot()
	batchID := uuid.New().String()

	outcomes := s.exec.Run(ctx, snapshot, s.driver, obs)

	// Clear only what was executed, so a re-render cannot re-execute
	// stale commands while concurrent appends survive.
	session.Queue.ClearDrained(snapshot)

	if err := s.persist(ctx, session); err != nil {
		log.Printf("session %s: failed to persist queue after batch %s: %v", session.ID, batchID, err)
	}

	if s.hist != nil && len(outcomes) > 0 {
		s.hist.RecordBatch(session.ID, batchID, outcomes)
	}

	return session, batchID, outcomes, nil
}

// History returns recent persisted outcomes for the session.
func (s *Service) History(ctx context.Context, sessionID string, limit int) ([]executor.Outcome, error) {
	if s.hist == nil {
		return nil, nil
	}
	records, err := s.hist.BySession(ctx, sessionID, limit)
	if err != nil {
		return nil, err
	}

	outcomes := make([]executor.Outcome, 0, len(records))
	for _, rec := range records {
		outcomes = append(outcomes, executor.Outcome{
			Position:  rec.Position,
			Command:   rec.Command,
			OK:        rec.OK,
			Rendering: rec.Rendering,
			Error:     rec.Error,
		})
	}
	return outcomes, nil
}

// Manager exposes the underlying session manager.
func (s *Service) Manager() *Manager {
	return s.manager
}

func (s *Service) persist(ctx context.Context, session *Session) error {
	if s.manager.store == nil {
		return nil
	}
	return saveQueue(ctx, s.manager.store, session)
}
