// Package queue implements the per-session pending command queue.
// Commands accumulate across requests until they are either cleared or
// drained by a batch execution; insertion order is significant and is
// preserved end to end.
package queue

import (
	"errors"
	"strings"
	"sync"
	"time"
)

// ErrInvalidCommand rejects empty or whitespace-only command text at the
// queue boundary, before it can enter the queue.
var ErrInvalidCommand = errors.New("invalid command: empty or whitespace-only text")

// ErrQueueFull rejects appends beyond the configured pending-command cap.
var ErrQueueFull = errors.New("command queue is full")

// Command is one queued unit of work. Seq increases monotonically per
// queue and doubles as the drain high-water mark.
type Command struct {
	Seq        uint64
	Text       string
	EnqueuedAt time.Time
}

// Queue is an ordered, mutable list of pending commands. All operations
// are serialized by an internal mutex so an append that races a drain is
// either fully before the snapshot or fully after it, never interleaved.
type Queue struct {
	mu         sync.Mutex
	items      []Command
	nextSeq    uint64
	maxPending int // 0 = unlimited
}

// New creates an empty queue. maxPending caps the number of pending
// commands; zero means unlimited.
func New(maxPending int) *Queue {
	return &Queue{nextSeq: 1, maxPending: maxPending}
}

// Append validates and appends command text at the tail. The stored text
// is trimmed; blank input is rejected with ErrInvalidCommand and never
// enters the queue.
func (q *Queue) Append(text string) (Command, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Command{}, ErrInvalidCommand
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.maxPending > 0 && len(q.items) >= q.maxPending {
		return Command{}, ErrQueueFull
	}

	cmd := Command{
		Seq:        q.nextSeq,
		Text:       trimmed,
		EnqueuedAt: time.Now(),
	}
	q.nextSeq++
	q.items = append(q.items, cmd)
	return cmd, nil
}

// Clear empties the queue unconditionally. It is idempotent.
func (q *Queue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = nil
}

// Snapshot returns a copy of the current ordered contents. The executor
// operates on this fixed view; appends arriving afterwards do not join
// the in-flight batch.
func (q *Queue) Snapshot() []Command {
	q.mu.Lock()
	defer q.mu.Unlock()

	snap := make([]Command, len(q.items))
	copy(snap, q.items)
	return snap
}

// ClearDrained removes exactly the commands covered by the given snapshot,
// identified by its highest sequence number. Commands appended while the
// snapshot was executing have higher sequence numbers and survive for the
// next batch.
func (q *Queue) ClearDrained(snapshot []Command) {
	if len(snapshot) == 0 {
		return
	}
	highWater := snapshot[len(snapshot)-1].Seq

	q.mu.Lock()
	defer q.mu.Unlock()

	remaining := q.items[:0]
	for _, c := range q.items {
		if c.Seq > highWater {
			remaining = append(remaining, c)
		}
	}
	q.items = remaining
}

// Len reports the number of pending commands.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Restore replaces the queue contents with previously persisted commands,
// continuing the sequence counter past the highest restored value. Used by
// the session layer when a queue is loaded from storage.
func (q *Queue) Restore(items []Command) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.items = make([]Command, len(items))
	copy(q.items, items)

	q.nextSeq = 1
	for _, c := range items {
		if c.Seq >= q.nextSeq {
			q.nextSeq = c.Seq + 1
		}
	}
}
