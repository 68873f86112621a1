// Package history records executed batches for later browsing.
// Writes are asynchronous so recording never delays the next batch.
package history

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/entl/botdeck/internal/executor"
	"github.com/entl/botdeck/internal/storage"
)

// Service manages outcome history persistence.
// It provides async writes to avoid blocking batch execution.
type Service struct {
	db       *storage.DB
	writeCh  chan *writeRequest
	wg       sync.WaitGroup
	stopOnce sync.Once
	stopCh   chan struct{}
}

// writeRequest encapsulates a batch to be written to storage.
type writeRequest struct {
	records  []storage.OutcomeRecord
	resultCh chan error // optional, for callers who want confirmation
}

// NewService creates a new history service with the given storage backend.
// It starts a background goroutine for async writes.
func NewService(db *storage.DB) *Service {
	svc := &Service{
		db:      db,
		writeCh: make(chan *writeRequest, 100), // buffered to handle bursts
		stopCh:  make(chan struct{}),
	}

	svc.wg.Add(1)
	go svc.writeWorker()

	return svc
}

// writeWorker processes write requests in the background.
func (s *Service) writeWorker() {
	defer s.wg.Done()

	for {
		select {
		case req := <-s.writeCh:
			s.write(req)

		case <-s.stopCh:
			// Drain remaining writes before exiting
			for {
				select {
				case req := <-s.writeCh:
					s.write(req)
				default:
					return
				}
			}
		}
	}
}

func (s *Service) write(req *writeRequest) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	err := s.db.InsertOutcomes(ctx, req.records)
	cancel()

	if err != nil {
		log.Printf("history: failed to insert batch outcomes: %v", err)
	}

	// Notify caller if they're waiting for result
	if req.resultCh != nil {
		req.resultCh <- err
		close(req.resultCh)
	}
}

// RecordBatch asynchronously persists all outcomes of one executed batch.
func (s *Service) RecordBatch(sessionID, batchID string, outcomes []executor.Outcome) {
	records := toRecords(sessionID, batchID, outcomes)
	if len(records) == 0 {
		return // nothing to record
	}

	select {
	case s.writeCh <- &writeRequest{records: records}:
		// queued successfully
	default:
		log.Printf("history: write buffer full, dropping batch %s (%d outcomes)", batchID, len(records))
	}
}

// RecordBatchSync persists a batch and waits for completion.
// Returns an error if the write fails. Use sparingly.
func (s *Service) RecordBatchSync(sessionID, batchID string, outcomes []executor.Outcome) error {
	records := toRecords(sessionID, batchID, outcomes)
	if len(records) == 0 {
		return nil
	}

	resultCh := make(chan error, 1)
	req := &writeRequest{records: records, resultCh: resultCh}

	select {
	case s.writeCh <- req:
		return <-resultCh
	default:
		return nil // drop if buffer full
	}
}

// BySession retrieves recent outcomes for a session.
func (s *Service) BySession(ctx context.Context, sessionID string, limit int) ([]*storage.OutcomeRecord, error) {
	return s.db.GetOutcomesBySession(ctx, sessionID, limit)
}

// ByBatch retrieves one batch's outcomes in position order.
func (s *Service) ByBatch(ctx context.Context, batchID string) ([]*storage.OutcomeRecord, error) {
	return s.db.GetOutcomesByBatch(ctx, batchID)
}

// Close gracefully shuts down the history service.
// It waits for pending writes to complete.
func (s *Service) Close() error {
	s.stopOnce.Do(func() {
		close(s.stopCh)
		s.wg.Wait()
	})
	return nil
}

func toRecords(sessionID, batchID string, outcomes []executor.Outcome) []storage.OutcomeRecord {
	now := time.Now()
	records := make([]storage.OutcomeRecord, 0, len(outcomes))
	for _, o := range outcomes {
		records = append(records, storage.OutcomeRecord{
			BatchID:   batchID,
			SessionID: sessionID,
			Position:  o.Position,
			Command:   o.Command,
			OK:        o.OK,
			Rendering: o.Rendering,
			Error:     o.Error,
			Timestamp: now,
		})
	}
	return records
}
