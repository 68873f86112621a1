// Package executor drains command queue snapshots against the robot.
// The central contract is failure isolation: every command in a batch gets
// exactly one outcome, in order, and no command's failure prevents the
// commands after it from running.
package executor

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/entl/botdeck/internal/command"
	"github.com/entl/botdeck/internal/device"
	"github.com/entl/botdeck/internal/queue"
)

// DefaultCommandTimeout bounds a single command's execution when no
// timeout is configured.
const DefaultCommandTimeout = 10 * time.Second

// Failure descriptions for outcomes that never reached the device.
const (
	descUnavailable = "unavailable device"
	descTimeout     = "timeout"
	descCancelled   = "cancelled"
)

// Outcome records the fate of one command in a batch. Exactly one Outcome
// is produced per command per execution; it is never mutated afterwards.
type Outcome struct {
	Position  int    `json:"position"`
	Command   string `json:"command"`
	OK        bool   `json:"ok"`
	Rendering string `json:"rendering,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Observer receives each outcome as soon as it is recorded, for live
// streaming to the UI. It is called from the executing goroutine.
type Observer func(Outcome)

// Executor runs batches. It is stateless across batches and safe for
// concurrent use; serialization per session is the session layer's job.
type Executor struct {
	registry *command.Registry
	timeout  time.Duration
}

// New creates an executor dispatching through the given capability
// registry with a per-command timeout.
func New(registry *command.Registry, timeout time.Duration) *Executor {
	if timeout <= 0 {
		timeout = DefaultCommandTimeout
	}
	return &Executor{registry: registry, timeout: timeout}
}

// Run executes the snapshot in order against one handle acquired from the
// driver. The handle is acquired once before the first command and
// released once after the last, on every exit path. If acquisition fails,
// every command is recorded as a failure and none is evaluated. An empty
// snapshot returns an empty outcome list without touching the driver.
func (e *Executor) Run(ctx context.Context, snapshot []queue.Command, drv device.Driver, obs Observer) []Outcome {
	outcomes := make([]Outcome, 0, len(snapshot))
	if len(snapshot) == 0 {
		return outcomes
	}

	emit := func(o Outcome) {
		outcomes = append(outcomes, o)
		if obs != nil {
			obs(o)
		}
	}

	acquireCtx, cancel := context.WithTimeout(ctx, e.timeout)
	handle, err := drv.Acquire(acquireCtx)
	cancel()
	if err != nil {
		log.Printf("executor: device acquisition failed: %v", err)
		for i, cmd := range snapshot {
			emit(Outcome{Position: i, Command: cmd.Text, Error: descUnavailable})
		}
		return outcomes
	}
	defer func() {
		if err := handle.Release(); err != nil {
			log.Printf("executor: handle release error: %v", err)
		}
	}()

	for i, cmd := range snapshot {
		emit(e.runOne(ctx, handle, i, cmd))
	}
	return outcomes
}

// runOne evaluates a single command under the per-command timeout and
// classifies the result.
func (e *Executor) runOne(ctx context.Context, handle device.Handle, pos int, cmd queue.Command) Outcome {
	cctx, cancel := context.WithTimeout(ctx, e.timeout)
	rendering, err := e.registry.Evaluate(cctx, handle, cmd.Text)
	cancel()

	out := Outcome{Position: pos, Command: cmd.Text}
	switch {
	case err == nil:
		out.OK = true
		out.Rendering = rendering
	case errors.Is(err, context.DeadlineExceeded):
		out.Error = descTimeout
	case errors.Is(err, context.Canceled):
		// The hosting request was aborted mid-batch. Outcomes recorded so
		// far stay valid; the rest of the snapshot is marked cancelled.
		out.Error = descCancelled
	default:
		out.Error = err.Error()
	}

	if !out.OK {
		log.Printf("executor: command %d %q failed: %s", pos, cmd.Text, out.Error)
	}
	return out
}
