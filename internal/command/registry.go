package command

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/entl/botdeck/internal/device"
)

// Receiver is the fixed name the device handle is bound to in command text.
const Receiver = "robot"

// Handler executes one named operation against an acquired device handle
// and returns a textual rendering of the result. An empty rendering with a
// nil error is a successful no-op.
type Handler func(ctx context.Context, h device.Handle, args []Arg) (string, error)

// Registry is the capability table: operation name -> handler. Operation
// names are normalized to lower case; aliases let the historical dotted
// spellings (robot.anim.play_animation) resolve to the same handler.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
	aliases  map[string]string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[string]Handler),
		aliases:  make(map[string]string),
	}
}

// Register adds a handler under the given operation name.
func (r *Registry) Register(name string, h Handler) error {
	if strings.TrimSpace(name) == "" {
		return errors.New("operation name cannot be empty")
	}
	if h == nil {
		return errors.New("handler cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := strings.ToLower(name)
	if _, exists := r.handlers[key]; exists {
		return fmt.Errorf("operation %s already registered", key)
	}
	r.handlers[key] = h
	return nil
}

// Alias registers an alternate spelling for an existing operation.
func (r *Registry) Alias(alias, target string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	targetKey := strings.ToLower(target)
	if _, exists := r.handlers[targetKey]; !exists {
		return fmt.Errorf("alias target %s not registered", targetKey)
	}
	r.aliases[strings.ToLower(alias)] = targetKey
	return nil
}

// Operations returns the registered operation names, sorted.
func (r *Registry) Operations() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ops := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		ops = append(ops, name)
	}
	sort.Strings(ops)
	return ops
}

// resolve looks up a handler by operation name, following aliases.
func (r *Registry) resolve(op string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	key := strings.ToLower(op)
	if target, ok := r.aliases[key]; ok {
		key = target
	}
	h, ok := r.handlers[key]
	return h, ok
}

// Evaluate parses command text, resolves it against the capability table
// and invokes the handler on the given device handle. Any error (parse,
// unknown receiver or operation, handler failure) belongs to this one
// command and never aborts the surrounding batch.
func (r *Registry) Evaluate(ctx context.Context, h device.Handle, text string) (string, error) {
	inv, err := Parse(text)
	if err != nil {
		return "", err
	}
	if !strings.EqualFold(inv.Receiver, Receiver) {
		return "", fmt.Errorf("unknown receiver %q (commands address %q)", inv.Receiver, Receiver)
	}

	handler, ok := r.resolve(inv.Op)
	if !ok {
		return "", fmt.Errorf("unknown operation %q", inv.Op)
	}
	return handler(ctx, h, inv.Args)
}

// Default returns a registry with every robot capability registered.
func Default() *Registry {
	r := NewRegistry()

	must := func(err error) {
		if err != nil {
			panic(err) // registration of builtins is static; a failure is a programming error
		}
	}

	must(r.Register("say_text", func(ctx context.Context, h device.Handle, args []Arg) (string, error) {
		text, err := stringArg(args, 0, "text")
		if err != nil {
			return "", err
		}
		if err := exactArgs(args, 1); err != nil {
			return "", err
		}
		return h.SayText(ctx, text)
	}))

	must(r.Register("play_animation", func(ctx context.Context, h device.Handle, args []Arg) (string, error) {
		name, err := stringArg(args, 0, "name")
		if err != nil {
			return "", err
		}
		if err := exactArgs(args, 1); err != nil {
			return "", err
		}
		return h.PlayAnimation(ctx, name)
	}))

	must(r.Register("battery", func(ctx context.Context, h device.Handle, args []Arg) (string, error) {
		if err := exactArgs(args, 0); err != nil {
			return "", err
		}
		return h.BatteryState(ctx)
	}))

	must(r.Register("drive_wheels", func(ctx context.Context, h device.Handle, args []Arg) (string, error) {
		left, err := floatArg(args, 0, "left")
		if err != nil {
			return "", err
		}
		right, err := floatArg(args, 1, "right")
		if err != nil {
			return "", err
		}
		if err := exactArgs(args, 2); err != nil {
			return "", err
		}
		return h.DriveWheels(ctx, left, right)
	}))

	must(r.Register("set_head_angle", func(ctx context.Context, h device.Handle, args []Arg) (string, error) {
		deg, err := floatArg(args, 0, "degrees")
		if err != nil {
			return "", err
		}
		if err := exactArgs(args, 1); err != nil {
			return "", err
		}
		return h.SetHeadAngle(ctx, deg)
	}))

	must(r.Register("set_lift_height", func(ctx context.Context, h device.Handle, args []Arg) (string, error) {
		height, err := floatArg(args, 0, "height")
		if err != nil {
			return "", err
		}
		if err := exactArgs(args, 1); err != nil {
			return "", err
		}
		return h.SetLiftHeight(ctx, height)
	}))

	// Historical dotted spellings from the SDK object tree.
	must(r.Alias("anim.play_animation", "play_animation"))
	must(r.Alias("behavior.say_text", "say_text"))
	must(r.Alias("motors.set_wheel_motors", "drive_wheels"))

	return r
}

func exactArgs(args []Arg, n int) error {
	if len(args) != n {
		return fmt.Errorf("expected %d argument(s), got %d", n, len(args))
	}
	return nil
}

func stringArg(args []Arg, i int, name string) (string, error) {
	if i >= len(args) {
		return "", fmt.Errorf("missing argument %q", name)
	}
	s, ok := args[i].(string)
	if !ok {
		return "", fmt.Errorf("argument %q must be a string", name)
	}
	return s, nil
}

func floatArg(args []Arg, i int, name string) (float64, error) {
	if i >= len(args) {
		return 0, fmt.Errorf("missing argument %q", name)
	}
	f, ok := args[i].(float64)
	if !ok {
		return 0, fmt.Errorf("argument %q must be a number", name)
	}
	return f, nil
}
