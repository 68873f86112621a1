package storage

import (
	"time"
)

// QueueItem is one persisted pending command of a session's queue.
type QueueItem struct {
	SessionID  string
	Seq        uint64
	Text       string
	EnqueuedAt time.Time
}

// OutcomeRecord is one persisted command outcome of an executed batch.
type OutcomeRecord struct {
	ID        int64
	BatchID   string
	SessionID string
	Position  int
	Command   string
	OK        bool
	Rendering string
	Error     string
	Timestamp time.Time
}

// AppRecord is one persisted catalog application.
type AppRecord struct {
	ID          int64
	Name        string
	Description string
	Author      string
	Installed   bool
	AddedAt     time.Time
}
