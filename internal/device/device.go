// Package device defines the boundary to the physical robot.
// The SDK/driver itself is external; this package only specifies the
// capability surface the rest of the server programs against, plus a
// simulated driver for development and tests.
package device

import (
	"context"
	"errors"
)

// ErrUnavailable is returned by a Driver when the robot cannot be reached
// or control cannot be obtained.
var ErrUnavailable = errors.New("unavailable device")

// Handle is an acquired, exclusive connection to the robot.
// All operations take a context so callers can bound their duration.
// A Handle must not be shared across concurrent batch executions; the
// session layer enforces one execution at a time.
type Handle interface {
	// SayText makes the robot speak the given text.
	SayText(ctx context.Context, text string) (string, error)

	// PlayAnimation plays a named animation.
	PlayAnimation(ctx context.Context, name string) (string, error)

	// BatteryState reports the current battery state.
	BatteryState(ctx context.Context) (string, error)

	// DriveWheels sets left/right wheel speeds in mm/s.
	DriveWheels(ctx context.Context, left, right float64) (string, error)

	// SetHeadAngle moves the head to the given angle in degrees.
	SetHeadAngle(ctx context.Context, degrees float64) (string, error)

	// SetLiftHeight moves the lift to a height ratio in [0,1].
	SetLiftHeight(ctx context.Context, height float64) (string, error)

	// Release returns control of the robot. It must be safe to call
	// exactly once after a successful Acquire, on every exit path.
	Release() error
}

// Driver acquires handles. Acquire is called once per batch; the returned
// handle is released after the last command of the batch, whether or not
// any command failed.
type Driver interface {
	Acquire(ctx context.Context) (Handle, error)
}
