package device

import (
	"context"
	"fmt"
	"log"
	"math"
	"sync"
	"time"
)

// SimDriver is an in-process robot simulator implementing Driver.
// It is the default driver in development builds and the workhorse of the
// test suite: acquisition failures, per-operation failures and artificial
// latency can all be scripted.
type SimDriver struct {
	mu sync.Mutex

	// FailAcquire makes every Acquire call fail with ErrUnavailable.
	FailAcquire bool

	// OpDelay is added to every operation before it completes. Combined
	// with a short executor timeout it simulates a stuck robot.
	OpDelay time.Duration

	// FailOps maps operation names (e.g. "say_text") to an error message.
	// Matching operations fail with that message.
	FailOps map[string]string

	acquired bool
	battery  float64 // volts
	head     float64 // degrees
	lift     float64 // 0..1
}

// NewSimDriver creates a simulator with a full battery and neutral pose.
func NewSimDriver() *SimDriver {
	return &SimDriver{battery: 4.1}
}

// Acquire reserves the simulated robot. Only one handle can be live at a
// time; a second Acquire while one is outstanding fails with
// ErrUnavailable, mirroring how a real robot refuses a second control
// connection.
func (d *SimDriver) Acquire(ctx context.Context) (Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.FailAcquire {
		return nil, ErrUnavailable
	}
	if d.acquired {
		return nil, fmt.Errorf("%w: control already held", ErrUnavailable)
	}

	d.acquired = true
	return &simHandle{driver: d}, nil
}

// simHandle is a live connection to the simulator.
type simHandle struct {
	driver   *SimDriver
	released bool
	mu       sync.Mutex
}

// op runs the common bookkeeping for every simulated operation: released
// check, scripted failure, artificial delay, context deadline.
func (h *simHandle) op(ctx context.Context, name string) error {
	h.mu.Lock()
	released := h.released
	h.mu.Unlock()
	if released {
		return fmt.Errorf("%w: handle released", ErrUnavailable)
	}

	d := h.driver
	d.mu.Lock()
	msg, failed := d.FailOps[name]
	delay := d.OpDelay
	d.mu.Unlock()

	if failed {
		return fmt.Errorf("%s: %s", name, msg)
	}

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return ctx.Err()
}

func (h *simHandle) SayText(ctx context.Context, text string) (string, error) {
	if err := h.op(ctx, "say_text"); err != nil {
		return "", err
	}
	if text == "" {
		return "", fmt.Errorf("say_text: text must not be empty")
	}
	return fmt.Sprintf("said %q", text), nil
}

func (h *simHandle) PlayAnimation(ctx context.Context, name string) (string, error) {
	if err := h.op(ctx, "play_animation"); err != nil {
		return "", err
	}
	if name == "" {
		return "", fmt.Errorf("play_animation: animation name must not be empty")
	}
	return fmt.Sprintf("played %s", name), nil
}

func (h *simHandle) BatteryState(ctx context.Context) (string, error) {
	if err := h.op(ctx, "battery"); err != nil {
		return "", err
	}
	h.driver.mu.Lock()
	v := h.driver.battery
	// Each reading drains a little, so long sessions look alive.
	h.driver.battery = math.Max(3.5, v-0.01)
	h.driver.mu.Unlock()
	return fmt.Sprintf("%.2fV", v), nil
}

func (h *simHandle) DriveWheels(ctx context.Context, left, right float64) (string, error) {
	if err := h.op(ctx, "drive_wheels"); err != nil {
		return "", err
	}
	if left == 0 && right == 0 {
		// Stopping an idle robot is a no-op.
		return "", nil
	}
	return fmt.Sprintf("wheels %.0f/%.0f mm/s", left, right), nil
}

func (h *simHandle) SetHeadAngle(ctx context.Context, degrees float64) (string, error) {
	if err := h.op(ctx, "set_head_angle"); err != nil {
		return "", err
	}
	if degrees < -25 || degrees > 45 {
		return "", fmt.Errorf("set_head_angle: %.1f out of range [-25, 45]", degrees)
	}
	h.driver.mu.Lock()
	h.driver.head = degrees
	h.driver.mu.Unlock()
	return fmt.Sprintf("head at %.1f°", degrees), nil
}

func (h *simHandle) SetLiftHeight(ctx context.Context, height float64) (string, error) {
	if err := h.op(ctx, "set_lift_height"); err != nil {
		return "", err
	}
	if height < 0 || height > 1 {
		return "", fmt.Errorf("set_lift_height: %.2f out of range [0, 1]", height)
	}
	h.driver.mu.Lock()
	h.driver.lift = height
	h.driver.mu.Unlock()
	return fmt.Sprintf("lift at %.2f", height), nil
}

// Release returns control to the simulator. Releasing twice is tolerated
// but logged, since it usually indicates a bookkeeping bug in the caller.
func (h *simHandle) Release() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.released {
		log.Printf("simdriver: handle released twice")
		return nil
	}
	h.released = true

	h.driver.mu.Lock()
	h.driver.acquired = false
	h.driver.mu.Unlock()
	return nil
}
